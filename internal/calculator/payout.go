package calculator

import (
	"fmt"
	"time"

	"github.com/mmynk/hostledger/internal/metrics"
	"github.com/mmynk/hostledger/internal/money"
)

// PayoutStatus is the lifecycle state of a payout request.
type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "pending"
	PayoutApproved   PayoutStatus = "approved"
	PayoutProcessing PayoutStatus = "processing"
	PayoutCompleted  PayoutStatus = "completed"
	PayoutRejected   PayoutStatus = "rejected"
)

// Terminal reports whether no further transition is possible.
func (s PayoutStatus) Terminal() bool { return s == PayoutCompleted || s == PayoutRejected }

// Holding reports whether a payout in this status is held out of the
// spendable balance.
func (s PayoutStatus) Holding() bool {
	return s == PayoutPending || s == PayoutApproved || s == PayoutProcessing
}

// CanTransitionPayout reports whether from -> to is an edge of
// pending -> approved -> processing -> completed, or pending -> rejected.
func CanTransitionPayout(from, to PayoutStatus) bool {
	switch from {
	case PayoutPending:
		return to == PayoutApproved || to == PayoutRejected
	case PayoutApproved:
		return to == PayoutProcessing
	case PayoutProcessing:
		return to == PayoutCompleted
	}
	return false
}

// PayoutRequest asks for part of a property's balance to be paid to its owner.
type PayoutRequest struct {
	ID          string       `json:"id"`
	PropertyID  string       `json:"property_id"`
	Amount      money.Money  `json:"amount"`
	Status      PayoutStatus `json:"status"`
	Version     int64        `json:"version"`
	Note        string       `json:"note,omitempty"`
	RequestedAt time.Time    `json:"requested_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// RequestPayout places req against bal. The amount is held out of the
// balance immediately, so a second request cannot spend it again.
func RequestPayout(bal PropertyBalance, req PayoutRequest) (PropertyBalance, PayoutRequest, error) {
	if req.PropertyID != bal.PropertyID {
		return PropertyBalance{}, PayoutRequest{}, fmt.Errorf("payout for property %s against balance of %s", req.PropertyID, bal.PropertyID)
	}
	if !req.Amount.IsPositive() {
		return PropertyBalance{}, PayoutRequest{}, fmt.Errorf("%w: payout amount %s", money.ErrInvalidAmount, req.Amount)
	}
	if req.Amount.Currency != bal.Currency {
		return PropertyBalance{}, PayoutRequest{}, fmt.Errorf("%w: payout in %s, balance in %s", money.ErrCurrencyMismatch, req.Amount.Currency, bal.Currency)
	}
	amount := req.Amount.Rounded()
	if amount.Amount.GreaterThan(bal.CurrentBalance.Amount) {
		return PropertyBalance{}, PayoutRequest{}, fmt.Errorf("%w: requested %s, available %s", ErrPayoutExceedsBalance, amount, bal.CurrentBalance)
	}

	next := bal
	next.PendingPayouts.Amount = bal.PendingPayouts.Amount.Add(amount.Amount)
	next.settle()

	out := req
	out.Amount = amount
	out.Status = PayoutPending
	out.Version = 1
	out.UpdatedAt = req.RequestedAt
	return next, out, nil
}

// TransitionPayout moves req to status to without touching any balance.
func TransitionPayout(req PayoutRequest, to PayoutStatus, at time.Time) (PayoutRequest, error) {
	if !CanTransitionPayout(req.Status, to) {
		return PayoutRequest{}, &InvalidTransitionError{Entity: "payout", From: string(req.Status), To: string(to)}
	}
	out := req
	out.Status = to
	out.Version = req.Version + 1
	out.UpdatedAt = at
	metrics.PayoutTransitions.WithLabelValues(string(to)).Inc()
	return out, nil
}

// ApplyPayoutTransition moves req to status to and updates bal in the same
// step. Completion moves the amount from PendingPayouts to Expenses.PaidOut
// and records a payout entry; rejection releases the hold. CurrentBalance
// is unchanged by either.
func ApplyPayoutTransition(bal PropertyBalance, req PayoutRequest, to PayoutStatus, at time.Time) (PropertyBalance, PayoutRequest, error) {
	if req.PropertyID != bal.PropertyID {
		return PropertyBalance{}, PayoutRequest{}, fmt.Errorf("payout for property %s against balance of %s", req.PropertyID, bal.PropertyID)
	}
	out, err := TransitionPayout(req, to, at)
	if err != nil {
		return PropertyBalance{}, PayoutRequest{}, err
	}

	next := bal
	switch to {
	case PayoutCompleted:
		entry := LedgerEntryForPayout(out)
		next.PendingPayouts.Amount = bal.PendingPayouts.Amount.Sub(out.Amount.Amount)
		next.Expenses.PaidOut.Amount = bal.Expenses.PaidOut.Amount.Add(out.Amount.Amount)
		next.Breakdown = append(append(make([]LedgerEntry, 0, len(bal.Breakdown)+1), bal.Breakdown...), entry)
	case PayoutRejected:
		next.PendingPayouts.Amount = bal.PendingPayouts.Amount.Sub(out.Amount.Amount)
	}
	next.settle()
	return next, out, nil
}

// LedgerEntryForPayout is the negative payout entry written when req completes.
func LedgerEntryForPayout(req PayoutRequest) LedgerEntry {
	return LedgerEntry{
		PropertyID:  req.PropertyID,
		Date:        req.UpdatedAt,
		Type:        "payout",
		Description: "Owner payout",
		Amount:      req.Amount.Neg(),
		Category:    CategoryPayout,
		Reference:   req.ID,
	}
}
