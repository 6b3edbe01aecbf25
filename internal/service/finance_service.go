// Package service exposes the finance core over Connect.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/hostledger/internal/auth"
	"github.com/mmynk/hostledger/internal/fx"
	"github.com/mmynk/hostledger/internal/middleware"
	"github.com/mmynk/hostledger/internal/money"
	"github.com/mmynk/hostledger/internal/storage"
)

// FinanceService implements the FinanceService procedures. Ledger entries
// and balances are kept in a single reporting currency.
type FinanceService struct {
	store     storage.Store
	rates     *fx.Registry
	converter *fx.Converter
	reporting string
	locks     *keyedMutex
	now       func() time.Time
}

// NewFinanceService creates a FinanceService over store. Rates are read from
// and recorded to the same store.
func NewFinanceService(store storage.Store, reportingCurrency string) (*FinanceService, error) {
	cur, err := money.NormalizeCurrency(reportingCurrency)
	if err != nil {
		return nil, fmt.Errorf("reporting currency: %w", err)
	}
	rates := fx.NewRegistry(store)
	return &FinanceService{
		store:     store,
		rates:     rates,
		converter: fx.NewConverter(rates),
		reporting: cur,
		locks:     newKeyedMutex(),
		now:       time.Now,
	}, nil
}

// Registry returns the rate registry backing the service, so rate feeds
// record through the same validation.
func (s *FinanceService) Registry() *fx.Registry { return s.rates }

// principal returns the caller set by the auth interceptor.
func principal(ctx context.Context) (auth.Principal, error) {
	p, ok := middleware.GetPrincipal(ctx)
	if !ok || p.OrgID == "" {
		return auth.Principal{}, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return p, nil
}

// day parses a wire date, defaulting to today.
func (s *FinanceService) day(v string) (time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return fx.Day(s.now()), nil
	}
	d, err := fx.ParseDay(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	return d, nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid("%s is required", field)
	}
	return nil
}
