package service

import (
	"context"

	"connectrpc.com/connect"

	"github.com/mmynk/hostledger/internal/calculator"
	"github.com/mmynk/hostledger/internal/money"
)

// SplitCommission applies a billing rule to a service charge. With a
// property set, owner-charged services are booked as an addon expense and
// complimentary ones as a zero entry so they stay visible in the ledger.
func (s *FinanceService) SplitCommission(ctx context.Context, req *connect.Request[SplitCommissionRequest]) (*connect.Response[SplitCommissionResponse], error) {
	m := req.Msg
	split, err := calculator.SplitCommission(m.Base, m.Rule, m.RatePercent, calculator.SplitOptions{IncentiveBase: m.IncentiveBase})
	if err != nil {
		return nil, connectError(ctx, "SplitCommission", err)
	}
	resp := &SplitCommissionResponse{Split: split}

	if len(m.Shares) > 0 {
		if resp.Allocations, err = calculator.AllocateShares(split.CommissionAmount, m.Shares); err != nil {
			return nil, connectError(ctx, "SplitCommission", err)
		}
	}

	if m.PropertyID == "" || m.Rule == calculator.GuestCharged {
		return connect.NewResponse(resp), nil
	}
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	on, err := s.day(m.Date)
	if err != nil {
		return nil, connectError(ctx, "SplitCommission", err)
	}

	e := calculator.LedgerEntry{
		PropertyID:  m.PropertyID,
		Date:        on,
		Type:        "service",
		Description: m.Description,
		Category:    calculator.CategoryAddons,
		Reference:   m.Reference,
	}
	switch m.Rule {
	case calculator.OwnerCharged:
		e.Amount = split.OwnerAmount.Neg()
		if e.Description == "" {
			e.Description = "Owner-charged service"
		}
	case calculator.Complimentary:
		e.Amount = money.Zero(s.reporting)
		if e.Description == "" {
			e.Description = "Complimentary service"
		}
	}

	defer s.locks.Lock("property:" + m.PropertyID)()
	if resp.Entry, err = s.appendEntry(ctx, p, e); err != nil {
		return nil, connectError(ctx, "SplitCommission", err)
	}
	return connect.NewResponse(resp), nil
}

// AgentCommission computes the commission on an agent booking from its
// current total and rate.
func (s *FinanceService) AgentCommission(ctx context.Context, req *connect.Request[AgentCommissionRequest]) (*connect.Response[AgentCommissionResponse], error) {
	c, err := calculator.AgentCommission(req.Msg.Total, req.Msg.RatePercent)
	if err != nil {
		return nil, connectError(ctx, "AgentCommission", err)
	}
	return connect.NewResponse(&AgentCommissionResponse{Commission: c}), nil
}
