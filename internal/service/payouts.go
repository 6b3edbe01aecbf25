package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/hostledger/internal/auth"
	"github.com/mmynk/hostledger/internal/calculator"
	"github.com/mmynk/hostledger/internal/models"
)

// RequestPayout holds part of a property's balance for payment to its owner.
// Requests for the same property are serialized so two of them cannot both
// spend the same balance.
func (s *FinanceService) RequestPayout(ctx context.Context, req *connect.Request[RequestPayoutRequest]) (*connect.Response[PayoutResponse], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	m := req.Msg
	if err := required("property_id", m.PropertyID); err != nil {
		return nil, connectError(ctx, "RequestPayout", err)
	}

	defer s.locks.Lock("property:" + m.PropertyID)()
	bal, err := s.Balance(ctx, p.OrgID, m.PropertyID)
	if err != nil {
		return nil, connectError(ctx, "RequestPayout", err)
	}
	next, out, err := calculator.RequestPayout(bal, calculator.PayoutRequest{
		PropertyID:  m.PropertyID,
		Amount:      m.Amount,
		Note:        m.Note,
		RequestedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, connectError(ctx, "RequestPayout", err)
	}

	payout := &models.Payout{OrgID: p.OrgID, PayoutRequest: out, RequestedBy: p.UserID}
	if err := s.store.CreatePayout(ctx, payout); err != nil {
		return nil, connectError(ctx, "RequestPayout", err)
	}
	slog.Info("Payout requested",
		"payout_id", payout.ID,
		"property_id", payout.PropertyID,
		"amount", payout.Amount.String(),
		"balance", next.CurrentBalance.String(),
	)
	return connect.NewResponse(&PayoutResponse{Payout: payout, Balance: next}), nil
}

// TransitionPayout moves a payout along pending -> approved -> processing ->
// completed, or rejects it. Only admins and managers may do so. Completion
// writes the payout's ledger entry in the same transaction as the status.
func (s *FinanceService) TransitionPayout(ctx context.Context, req *connect.Request[TransitionPayoutRequest]) (*connect.Response[PayoutResponse], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if !p.Role.CanApprove() {
		return nil, connectError(ctx, "TransitionPayout", fmt.Errorf("%w: %s cannot change payout status", auth.ErrForbidden, p.Role))
	}
	if err := required("payout_id", req.Msg.PayoutID); err != nil {
		return nil, connectError(ctx, "TransitionPayout", err)
	}

	current, err := s.store.GetPayout(ctx, p.OrgID, req.Msg.PayoutID)
	if err != nil {
		return nil, connectError(ctx, "TransitionPayout", err)
	}

	defer s.locks.Lock("property:" + current.PropertyID)()
	// Re-read under the lock; the version check in the store still guards
	// against writers in other processes.
	if current, err = s.store.GetPayout(ctx, p.OrgID, req.Msg.PayoutID); err != nil {
		return nil, connectError(ctx, "TransitionPayout", err)
	}
	bal, err := s.Balance(ctx, p.OrgID, current.PropertyID)
	if err != nil {
		return nil, connectError(ctx, "TransitionPayout", err)
	}
	_, out, err := calculator.ApplyPayoutTransition(bal, current.PayoutRequest, req.Msg.Status, s.now().UTC())
	if err != nil {
		return nil, connectError(ctx, "TransitionPayout", err)
	}

	updated := &models.Payout{OrgID: current.OrgID, PayoutRequest: out, RequestedBy: current.RequestedBy}
	var entry *models.LedgerEntry
	if out.Status == calculator.PayoutCompleted {
		entry = &models.LedgerEntry{OrgID: p.OrgID, LedgerEntry: calculator.LedgerEntryForPayout(out), CreatedBy: p.UserID}
	}
	if err := s.store.UpdatePayout(ctx, updated, current.Version, entry); err != nil {
		return nil, connectError(ctx, "TransitionPayout", err)
	}

	after, err := s.Balance(ctx, p.OrgID, current.PropertyID)
	if err != nil {
		return nil, connectError(ctx, "TransitionPayout", err)
	}
	slog.Info("Payout status changed",
		"payout_id", updated.ID,
		"from", current.Status,
		"to", updated.Status,
		"version", updated.Version,
		"by", p.UserID,
	)
	return connect.NewResponse(&PayoutResponse{Payout: updated, Balance: after}), nil
}
