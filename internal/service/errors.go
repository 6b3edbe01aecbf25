package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/hostledger/internal/auth"
	"github.com/mmynk/hostledger/internal/calculator"
	"github.com/mmynk/hostledger/internal/fx"
	"github.com/mmynk/hostledger/internal/money"
	"github.com/mmynk/hostledger/internal/storage"
)

var errInvalidRequest = errors.New("invalid request")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidRequest, fmt.Sprintf(format, args...))
}

var invalidArgument = []error{
	errInvalidRequest,
	money.ErrInvalidAmount,
	money.ErrInvalidCurrency,
	money.ErrCurrencyMismatch,
	fx.ErrInvalidRate,
	calculator.ErrInvalidLineItem,
	calculator.ErrInvalidCommissionRate,
	calculator.ErrUnknownBillingRule,
	calculator.ErrInvalidLedgerEntry,
	calculator.ErrInvalidShares,
	calculator.ErrOverpayment,
}

var failedPrecondition = []error{
	fx.ErrRateNotFound,
	calculator.ErrInvalidTransition,
	calculator.ErrPayoutExceedsBalance,
	calculator.ErrDocumentLocked,
}

// connectError maps domain errors onto Connect codes. Unclassified errors
// are logged and reported as internal.
func connectError(ctx context.Context, op string, err error) error {
	code := codeOf(err)
	if code == connect.CodeInternal {
		slog.ErrorContext(ctx, op+" failed", "error", err)
	}
	return connect.NewError(code, err)
}

func codeOf(err error) connect.Code {
	switch {
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, storage.ErrNotFound):
		return connect.CodeNotFound
	case errors.Is(err, storage.ErrConflict):
		return connect.CodeAborted
	case errors.Is(err, auth.ErrForbidden):
		return connect.CodePermissionDenied
	case errors.Is(err, calculator.ErrInvariantViolation):
		return connect.CodeInternal
	}
	for _, target := range invalidArgument {
		if errors.Is(err, target) {
			return connect.CodeInvalidArgument
		}
	}
	for _, target := range failedPrecondition {
		if errors.Is(err, target) {
			return connect.CodeFailedPrecondition
		}
	}
	return connect.CodeInternal
}
