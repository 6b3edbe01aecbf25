package service

import (
	"context"

	"connectrpc.com/connect"

	"github.com/mmynk/hostledger/internal/calculator"
	"github.com/mmynk/hostledger/internal/fx"
)

// RecordRate stores a new exchange rate. Existing records are never changed.
func (s *FinanceService) RecordRate(ctx context.Context, req *connect.Request[RecordRateRequest]) (*connect.Response[RecordRateResponse], error) {
	if _, err := principal(ctx); err != nil {
		return nil, err
	}
	m := req.Msg
	if err := required("effective_date", m.EffectiveDate); err != nil {
		return nil, connectError(ctx, "RecordRate", err)
	}
	on, err := s.day(m.EffectiveDate)
	if err != nil {
		return nil, connectError(ctx, "RecordRate", err)
	}
	if m.Source != "" && !m.Source.Valid() {
		return nil, connectError(ctx, "RecordRate", invalid("unknown rate source %q", m.Source))
	}

	id, err := s.rates.RecordRate(ctx, fx.ExchangeRate{
		From:          m.From,
		To:            m.To,
		Rate:          m.Rate,
		EffectiveDate: on,
		Source:        m.Source,
	})
	if err != nil {
		return nil, connectError(ctx, "RecordRate", err)
	}
	return connect.NewResponse(&RecordRateResponse{ID: id}), nil
}

// ResolveRate returns the rate that applies to a transaction on the given day.
func (s *FinanceService) ResolveRate(ctx context.Context, req *connect.Request[ResolveRateRequest]) (*connect.Response[ResolveRateResponse], error) {
	if _, err := principal(ctx); err != nil {
		return nil, err
	}
	on, err := s.day(req.Msg.On)
	if err != nil {
		return nil, connectError(ctx, "ResolveRate", err)
	}
	rate, err := s.rates.ResolveRate(ctx, req.Msg.From, req.Msg.To, on)
	if err != nil {
		return nil, connectError(ctx, "ResolveRate", err)
	}
	return connect.NewResponse(&ResolveRateResponse{Rate: rate}), nil
}

// Convert converts an amount and returns the rate it used.
func (s *FinanceService) Convert(ctx context.Context, req *connect.Request[ConvertRequest]) (*connect.Response[ConvertResponse], error) {
	if _, err := principal(ctx); err != nil {
		return nil, err
	}
	on, err := s.day(req.Msg.On)
	if err != nil {
		return nil, connectError(ctx, "Convert", err)
	}
	res, err := s.converter.Convert(ctx, req.Msg.Amount, req.Msg.To, on)
	if err != nil {
		return nil, connectError(ctx, "Convert", err)
	}
	return connect.NewResponse(&ConvertResponse{Result: res}), nil
}

// PriceLineItem prices a single line without persisting anything.
func (s *FinanceService) PriceLineItem(ctx context.Context, req *connect.Request[PriceLineItemRequest]) (*connect.Response[PriceLineItemResponse], error) {
	line, err := calculator.PriceLineItem(req.Msg.Item)
	if err != nil {
		return nil, connectError(ctx, "PriceLineItem", err)
	}
	return connect.NewResponse(&PriceLineItemResponse{Line: line}), nil
}
