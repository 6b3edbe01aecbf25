// Package money provides currency-tagged fixed-point amounts.
//
// Amounts are github.com/shopspring/decimal values, never float64. Every
// monetary result is rounded to MinorUnits decimal places using
// round-half-away-from-zero (decimal.Round), so 0.005 becomes 0.01 and
// -0.005 becomes -0.01. Repeating a computation with the same inputs yields
// the same digits.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnits is the number of decimal places kept for every currency in this domain.
const MinorUnits = 2

var (
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrInvalidCurrency  = errors.New("invalid currency code")
	ErrInvalidAmount    = errors.New("invalid amount")
)

// Money is an amount tagged with an ISO-4217 style currency code.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// New builds a Money after validating and normalizing the currency code.
func New(amount decimal.Decimal, currency string) (Money, error) {
	code, err := NormalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: amount, Currency: code}, nil
}

// MustParse parses a decimal string and panics on malformed input. Intended for tests and constants.
func MustParse(amount, currency string) Money {
	m, err := Parse(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Parse reads a decimal string such as "100.25".
func Parse(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return New(d, currency)
}

// Zero returns a zero amount in currency. The code is not validated.
func Zero(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: strings.ToUpper(currency)}
}

// NormalizeCurrency upper-cases and validates a 3-letter code.
func NormalizeCurrency(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) != 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
		}
	}
	return c, nil
}

// Round rounds to the currency's minor unit, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(MinorUnits)
}

// Rounded returns m rounded to minor units.
func (m Money) Rounded() Money {
	return Money{Amount: Round(m.Amount), Currency: m.Currency}
}

func (m Money) IsZero() bool     { return m.Amount.IsZero() }
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }
func (m Money) IsPositive() bool { return m.Amount.IsPositive() }

func (m Money) sameCurrency(o Money) error {
	if m.Currency != o.Currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, o.Currency)
	}
	return nil
}

// Add returns m + o. Both must share a currency.
func (m Money) Add(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Add(o.Amount), Currency: m.Currency}, nil
}

// Sub returns m - o. Both must share a currency.
func (m Money) Sub(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Sub(o.Amount), Currency: m.Currency}, nil
}

// Cmp compares m and o; it returns an error if the currencies differ.
func (m Money) Cmp(o Money) (int, error) {
	if err := m.sameCurrency(o); err != nil {
		return 0, err
	}
	return m.Amount.Cmp(o.Amount), nil
}

// Mul multiplies by a scalar without rounding.
func (m Money) Mul(f decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(f), Currency: m.Currency}
}

// Percent returns round(m * pct / 100).
func (m Money) Percent(pct decimal.Decimal) Money {
	return Money{Amount: Round(m.Amount.Mul(pct).Div(decimal.NewFromInt(100))), Currency: m.Currency}
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

// Sum adds amounts that all share currency. An empty list yields zero.
func Sum(currency string, amounts ...Money) (Money, error) {
	total := Zero(currency)
	for _, a := range amounts {
		var err error
		if total, err = total.Add(a); err != nil {
			return Money{}, err
		}
	}
	return total, nil
}

// String renders "1234.50 THB".
func (m Money) String() string {
	return m.Amount.StringFixed(MinorUnits) + " " + m.Currency
}
