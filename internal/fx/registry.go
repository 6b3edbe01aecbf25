package fx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/hostledger/internal/ids"
	"github.com/mmynk/hostledger/internal/metrics"
	"github.com/mmynk/hostledger/internal/money"
)

// Registry validates and resolves exchange rates on top of a RateStore.
type Registry struct {
	store RateStore
	now   func() time.Time
}

// NewRegistry wraps store.
func NewRegistry(store RateStore) *Registry {
	return &Registry{store: store, now: time.Now}
}

// RecordRate validates rate, assigns its ID and stores it. The effective
// date is truncated to a UTC day.
func (r *Registry) RecordRate(ctx context.Context, rate ExchangeRate) (string, error) {
	if !rate.Rate.IsPositive() {
		return "", fmt.Errorf("%w: %s", ErrInvalidRate, rate.Rate)
	}
	from, err := money.NormalizeCurrency(rate.From)
	if err != nil {
		return "", err
	}
	to, err := money.NormalizeCurrency(rate.To)
	if err != nil {
		return "", err
	}
	if from == to {
		return "", fmt.Errorf("%w: %s->%s is implicit", ErrInvalidRate, from, to)
	}
	if rate.Source == "" {
		rate.Source = SourceManual
	}
	if !rate.Source.Valid() {
		return "", fmt.Errorf("unknown rate source %q", rate.Source)
	}
	if rate.EffectiveDate.IsZero() {
		return "", fmt.Errorf("effective date is required")
	}

	now := r.now().UTC()
	rate.From, rate.To = from, to
	rate.EffectiveDate = Day(rate.EffectiveDate)
	rate.RecordedAt = now
	rate.ID = ids.NewAt(now)

	if err := r.store.InsertRate(ctx, rate); err != nil {
		return "", fmt.Errorf("failed to record rate: %w", err)
	}
	metrics.RatesRecorded.WithLabelValues(string(rate.Source)).Inc()
	slog.Info("Exchange rate recorded",
		"rate_id", rate.ID,
		"from", from,
		"to", to,
		"rate", rate.Rate.String(),
		"effective_date", rate.EffectiveDate.Format(DateLayout),
		"source", rate.Source,
	)
	return rate.ID, nil
}

// ResolveRate returns the rate to use for a transaction dated onDate.
// There is no inverse or cross-rate fallback.
func (r *Registry) ResolveRate(ctx context.Context, from, to string, onDate time.Time) (ExchangeRate, error) {
	from, err := money.NormalizeCurrency(from)
	if err != nil {
		return ExchangeRate{}, err
	}
	to, err = money.NormalizeCurrency(to)
	if err != nil {
		return ExchangeRate{}, err
	}
	day := Day(onDate)
	if from == to {
		return Identity(from, day), nil
	}
	rate, err := r.store.LatestRate(ctx, from, to, day)
	if err != nil {
		if errors.Is(err, ErrRateNotFound) {
			return ExchangeRate{}, fmt.Errorf("%s->%s on %s: %w", from, to, day.Format(DateLayout), ErrRateNotFound)
		}
		return ExchangeRate{}, fmt.Errorf("failed to resolve rate: %w", err)
	}
	return rate, nil
}
