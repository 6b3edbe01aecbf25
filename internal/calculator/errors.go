package calculator

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidLineItem       = errors.New("invalid line item")
	ErrInvariantViolation    = errors.New("totals do not reconcile")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrPayoutExceedsBalance  = errors.New("payout exceeds available balance")
	ErrInvalidCommissionRate = errors.New("commission rate must be between 0 and 100")
	ErrUnknownBillingRule    = errors.New("unknown billing rule")
	ErrInvalidLedgerEntry    = errors.New("invalid ledger entry")
	ErrDocumentLocked        = errors.New("document can no longer be edited")
	ErrOverpayment           = errors.New("payment exceeds outstanding amount")
	ErrInvalidShares         = errors.New("share percentages must be between 0 and 100 in total")
)

// InvalidLineItemError describes the first invalid field of a line item.
// Index is the item's position in its document, or -1 when priced on its own.
type InvalidLineItemError struct {
	Index  int
	Field  string
	Reason string
}

func (e *InvalidLineItemError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid line item: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid line item %d: %s %s", e.Index, e.Field, e.Reason)
}

func (e *InvalidLineItemError) Is(target error) bool { return target == ErrInvalidLineItem }

// InvariantViolationError reports a stored figure that disagrees with the one
// derived from its constituent parts.
type InvariantViolationError struct {
	Field    string
	Stored   string
	Computed string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("%s: stored %s, computed %s", e.Field, e.Stored, e.Computed)
}

func (e *InvariantViolationError) Is(target error) bool { return target == ErrInvariantViolation }

// InvalidTransitionError reports a status change the state machine does not allow.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %q to %q", e.Entity, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }
