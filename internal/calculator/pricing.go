// Package calculator holds the pure financial computations: line-item
// pricing, document totals, commission splits and property balances.
//
// Nothing in this package performs I/O or keeps state; every function may be
// called concurrently.
package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/hostledger/internal/money"
)

// LineItem is one priced row of an invoice or booking.
type LineItem struct {
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      money.Money     `json:"unit_price"`
	TaxRatePercent decimal.Decimal `json:"tax_rate_percent"`
	Discount       money.Money     `json:"discount"`
}

// PricedLineItem is a LineItem with its derived amounts.
//
// AppliedDiscount is the part of Discount that was actually taken off; it
// differs from Discount only when the discount exceeds the subtotal.
type PricedLineItem struct {
	LineItem
	Subtotal        money.Money `json:"subtotal"`
	AppliedDiscount money.Money `json:"applied_discount"`
	TaxableBase     money.Money `json:"taxable_base"`
	TaxAmount       money.Money `json:"tax_amount"`
	LineTotal       money.Money `json:"line_total"`
}

// PriceLineItem computes a line's amounts. The order is fixed: discount is
// taken off before tax is applied.
//
//	subtotal    = round(quantity * unitPrice)
//	taxableBase = max(subtotal - discount, 0)
//	taxAmount   = round(taxableBase * taxRate / 100)
//	lineTotal   = taxableBase + taxAmount
func PriceLineItem(item LineItem) (PricedLineItem, error) {
	return priceAt(item, -1)
}

func priceAt(item LineItem, index int) (PricedLineItem, error) {
	item, err := validateLineItem(item, index)
	if err != nil {
		return PricedLineItem{}, err
	}
	cur := item.UnitPrice.Currency

	subtotal := money.Money{Amount: money.Round(item.Quantity.Mul(item.UnitPrice.Amount)), Currency: cur}

	applied := item.Discount
	if applied.Amount.GreaterThan(subtotal.Amount) {
		applied = subtotal
	}
	base := money.Money{Amount: subtotal.Amount.Sub(applied.Amount), Currency: cur}
	tax := base.Percent(item.TaxRatePercent)

	return PricedLineItem{
		LineItem:        item,
		Subtotal:        subtotal,
		AppliedDiscount: applied,
		TaxableBase:     base,
		TaxAmount:       tax,
		LineTotal:       money.Money{Amount: base.Amount.Add(tax.Amount), Currency: cur},
	}, nil
}

func validateLineItem(item LineItem, index int) (LineItem, error) {
	invalid := func(field, reason string) (LineItem, error) {
		return LineItem{}, &InvalidLineItemError{Index: index, Field: field, Reason: reason}
	}

	cur, err := money.NormalizeCurrency(item.UnitPrice.Currency)
	if err != nil {
		return invalid("unit_price", "has no valid currency")
	}
	item.UnitPrice.Currency = cur

	if !item.Quantity.IsPositive() {
		return invalid("quantity", "must be greater than zero")
	}
	if item.UnitPrice.IsNegative() {
		return invalid("unit_price", "must not be negative")
	}
	if item.TaxRatePercent.IsNegative() {
		return invalid("tax_rate_percent", "must not be negative")
	}

	// An unset discount is zero in the item's currency.
	if item.Discount.Currency == "" && item.Discount.IsZero() {
		item.Discount = money.Zero(cur)
	}
	if item.Discount.IsNegative() {
		return invalid("discount", "must not be negative")
	}
	if d, err := money.NormalizeCurrency(item.Discount.Currency); err != nil || d != cur {
		return invalid("discount", "must be in the unit price currency")
	}
	item.Discount = item.Discount.Rounded()
	item.Discount.Currency = cur
	return item, nil
}
