package fx

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/hostledger/internal/metrics"
	"github.com/mmynk/hostledger/internal/money"
)

// Converter converts amounts with rates resolved from a Registry.
type Converter struct {
	rates *Registry
}

// NewConverter creates a Converter.
func NewConverter(rates *Registry) *Converter {
	return &Converter{rates: rates}
}

// Convert converts amount into currency to at the rate effective on onDate.
// The result is rounded to minor units half away from zero after multiplying.
// A missing rate yields *ConversionUnavailableError; only the identity pair
// converts at 1.
func (c *Converter) Convert(ctx context.Context, amount money.Money, to string, onDate time.Time) (ConversionResult, error) {
	rate, err := c.rates.ResolveRate(ctx, amount.Currency, to, onDate)
	if err != nil {
		if errors.Is(err, ErrRateNotFound) {
			metrics.Conversions.WithLabelValues("unavailable").Inc()
			return ConversionResult{}, &ConversionUnavailableError{From: amount.Currency, To: to, On: Day(onDate)}
		}
		metrics.Conversions.WithLabelValues("error").Inc()
		return ConversionResult{}, err
	}
	metrics.Conversions.WithLabelValues("ok").Inc()
	return Apply(amount, rate), nil
}

// Apply converts amount with a known rate record. Replaying a stored
// ConversionResult through Apply reproduces its Converted amount exactly.
func Apply(amount money.Money, rate ExchangeRate) ConversionResult {
	converted := money.Money{
		Amount:   money.Round(amount.Amount.Mul(rate.Rate)),
		Currency: rate.To,
	}
	return ConversionResult{
		Original:  amount,
		Converted: converted,
		Rate:      rate,
		RateID:    rate.ID,
	}
}
