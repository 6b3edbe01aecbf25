package service

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/hostledger/internal/auth"
	"github.com/mmynk/hostledger/internal/calculator"
	"github.com/mmynk/hostledger/internal/fx"
	"github.com/mmynk/hostledger/internal/models"
	"github.com/mmynk/hostledger/internal/money"
)

// toReporting converts amount into the reporting currency at the rate
// effective on the entry date. Same-currency amounts carry no provenance.
func (s *FinanceService) toReporting(ctx context.Context, amount money.Money, on time.Time) (money.Money, *fx.ConversionResult, error) {
	cur, err := money.NormalizeCurrency(amount.Currency)
	if err != nil {
		return money.Money{}, nil, err
	}
	amount.Currency = cur
	if cur == s.reporting {
		return amount.Rounded(), nil, nil
	}
	res, err := s.converter.Convert(ctx, amount, s.reporting, on)
	if err != nil {
		return money.Money{}, nil, err
	}
	return res.Converted, &res, nil
}

// appendEntry converts e into the reporting currency, validates it and
// stores it. Callers hold the property lock.
func (s *FinanceService) appendEntry(ctx context.Context, p auth.Principal, e calculator.LedgerEntry) (*models.LedgerEntry, error) {
	amount, conv, err := s.toReporting(ctx, e.Amount, e.Date)
	if err != nil {
		return nil, err
	}
	e.Amount = amount
	e.Conversion = conv
	if err := calculator.ValidateEntry(e); err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{OrgID: p.OrgID, LedgerEntry: e, CreatedBy: p.UserID}
	if err := s.store.AppendLedgerEntry(ctx, entry); err != nil {
		return nil, err
	}
	attrs := []any{
		"entry_id", entry.ID,
		"property_id", entry.PropertyID,
		"category", entry.Category,
		"amount", entry.Amount.String(),
	}
	if conv != nil {
		attrs = append(attrs, "original", conv.Original.String(), "rate_id", conv.RateID)
	}
	slog.Info("Ledger entry recorded", attrs...)
	return entry, nil
}

// RecordLedgerEntry records a signed transaction against a property.
// Foreign-currency amounts are converted and keep their conversion record.
func (s *FinanceService) RecordLedgerEntry(ctx context.Context, req *connect.Request[RecordLedgerEntryRequest]) (*connect.Response[LedgerEntryResponse], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	m := req.Msg
	if err := required("property_id", m.PropertyID); err != nil {
		return nil, connectError(ctx, "RecordLedgerEntry", err)
	}
	// Paid-out entries are written only when a payout completes.
	if m.Category == calculator.CategoryPayout {
		return nil, connectError(ctx, "RecordLedgerEntry", invalid("category %q is reserved for completed payouts", m.Category))
	}
	on, err := s.day(m.Date)
	if err != nil {
		return nil, connectError(ctx, "RecordLedgerEntry", err)
	}
	typ := m.Type
	if typ == "" {
		typ = string(m.Category)
	}

	defer s.locks.Lock("property:" + m.PropertyID)()
	entry, err := s.appendEntry(ctx, p, calculator.LedgerEntry{
		PropertyID:  m.PropertyID,
		Date:        on,
		Type:        typ,
		Description: m.Description,
		Amount:      m.Amount,
		Category:    m.Category,
		Reference:   m.Reference,
	})
	if err != nil {
		return nil, connectError(ctx, "RecordLedgerEntry", err)
	}
	return connect.NewResponse(&LedgerEntryResponse{Entry: entry}), nil
}

// GetPropertyBalance rebuilds a property's balance from its ledger and
// payout history.
func (s *FinanceService) GetPropertyBalance(ctx context.Context, req *connect.Request[GetPropertyBalanceRequest]) (*connect.Response[PropertyBalanceResponse], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if err := required("property_id", req.Msg.PropertyID); err != nil {
		return nil, connectError(ctx, "GetPropertyBalance", err)
	}
	bal, err := s.Balance(ctx, p.OrgID, req.Msg.PropertyID)
	if err != nil {
		return nil, connectError(ctx, "GetPropertyBalance", err)
	}
	return connect.NewResponse(&PropertyBalanceResponse{Balance: bal}), nil
}

// Balance aggregates a property's ledger and payouts in the reporting
// currency and checks the result reconciles.
func (s *FinanceService) Balance(ctx context.Context, orgID, propertyID string) (calculator.PropertyBalance, error) {
	stored, err := s.store.ListLedgerEntries(ctx, orgID, propertyID)
	if err != nil {
		return calculator.PropertyBalance{}, err
	}
	payouts, err := s.store.ListPayouts(ctx, orgID, propertyID)
	if err != nil {
		return calculator.PropertyBalance{}, err
	}

	entries := make([]calculator.LedgerEntry, len(stored))
	for i, e := range stored {
		entries[i] = e.LedgerEntry
	}
	reqs := make([]calculator.PayoutRequest, len(payouts))
	for i, po := range payouts {
		reqs[i] = po.PayoutRequest
	}

	bal, err := calculator.AggregateBalance(propertyID, s.reporting, entries, reqs)
	if err != nil {
		return calculator.PropertyBalance{}, err
	}
	if err := calculator.VerifyBalance(bal); err != nil {
		return calculator.PropertyBalance{}, err
	}
	return bal, nil
}
