// Package fx records exchange rates and converts money between currencies.
package fx

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/hostledger/internal/money"
)

// Source identifies where a rate came from.
type Source string

const (
	SourceManual Source = "manual"
	SourceAPI    Source = "api"
	SourceBank   Source = "bank"

	// SourceIdentity marks the implicit 1:1 rate for same-currency conversions. Never stored.
	SourceIdentity Source = "identity"
)

// Valid reports whether s may be recorded.
func (s Source) Valid() bool {
	switch s {
	case SourceManual, SourceAPI, SourceBank:
		return true
	}
	return false
}

// ExchangeRate is a directional rate effective from a calendar day.
// Records are immutable: a correction is a new record.
type ExchangeRate struct {
	ID            string          `json:"id"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate time.Time       `json:"effective_date"`
	Source        Source          `json:"source"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

// ConversionResult carries the provenance of a conversion so the owning
// transaction can be reproduced after newer rates are recorded.
type ConversionResult struct {
	Original  money.Money  `json:"original"`
	Converted money.Money  `json:"converted"`
	Rate      ExchangeRate `json:"rate"`
	RateID    string       `json:"rate_id"`
}

var (
	ErrInvalidRate  = errors.New("exchange rate must be greater than zero")
	ErrRateNotFound = errors.New("exchange rate not found")
)

// ConversionUnavailableError reports a missing rate for a pair and date.
type ConversionUnavailableError struct {
	From string
	To   string
	On   time.Time
}

func (e *ConversionUnavailableError) Error() string {
	return fmt.Sprintf("no %s->%s rate effective on %s", e.From, e.To, e.On.Format(DateLayout))
}

func (e *ConversionUnavailableError) Unwrap() error { return ErrRateNotFound }

// DateLayout is the wire and storage format of effective dates.
const DateLayout = "2006-01-02"

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Identity returns the implicit rate for currency -> currency.
func Identity(currency string, on time.Time) ExchangeRate {
	return ExchangeRate{
		From:          currency,
		To:            currency,
		Rate:          decimal.NewFromInt(1),
		EffectiveDate: Day(on),
		Source:        SourceIdentity,
	}
}
