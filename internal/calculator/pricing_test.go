package calculator

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/hostledger/internal/money"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func thb(s string) money.Money { return money.MustParse(s, "THB") }

func item(qty, price, discount, tax string) LineItem {
	return LineItem{
		Description:    "Cleaning",
		Quantity:       dec(qty),
		UnitPrice:      thb(price),
		Discount:       thb(discount),
		TaxRatePercent: dec(tax),
	}
}

func TestPriceLineItem(t *testing.T) {
	tests := []struct {
		name         string
		item         LineItem
		wantSubtotal string
		wantBase     string
		wantTax      string
		wantTotal    string
	}{
		{
			name:         "discount before tax",
			item:         item("2", "100.00", "10.00", "7"),
			wantSubtotal: "200.00 THB",
			wantBase:     "190.00 THB",
			wantTax:      "13.30 THB",
			wantTotal:    "203.30 THB",
		},
		{
			name:         "discount larger than subtotal floors at zero",
			item:         item("1", "50.00", "80.00", "10"),
			wantSubtotal: "50.00 THB",
			wantBase:     "0.00 THB",
			wantTax:      "0.00 THB",
			wantTotal:    "0.00 THB",
		},
		{
			name:         "fractional quantity rounds half up",
			item:         item("1.5", "33.33", "0", "0"),
			wantSubtotal: "50.00 THB",
			wantBase:     "50.00 THB",
			wantTax:      "0.00 THB",
			wantTotal:    "50.00 THB",
		},
		{
			name:         "tax rounds to minor unit",
			item:         item("3", "19.99", "0", "7"),
			wantSubtotal: "59.97 THB",
			wantBase:     "59.97 THB",
			wantTax:      "4.20 THB",
			wantTotal:    "64.17 THB",
		},
		{
			name:         "unset discount is zero",
			item:         LineItem{Quantity: dec("1"), UnitPrice: thb("10"), TaxRatePercent: dec("0")},
			wantSubtotal: "10.00 THB",
			wantBase:     "10.00 THB",
			wantTax:      "0.00 THB",
			wantTotal:    "10.00 THB",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PriceLineItem(tt.item)
			if err != nil {
				t.Fatalf("PriceLineItem() error = %v", err)
			}
			if got.Subtotal.String() != tt.wantSubtotal {
				t.Errorf("subtotal = %s, want %s", got.Subtotal, tt.wantSubtotal)
			}
			if got.TaxableBase.String() != tt.wantBase {
				t.Errorf("taxable base = %s, want %s", got.TaxableBase, tt.wantBase)
			}
			if got.TaxAmount.String() != tt.wantTax {
				t.Errorf("tax = %s, want %s", got.TaxAmount, tt.wantTax)
			}
			if got.LineTotal.String() != tt.wantTotal {
				t.Errorf("line total = %s, want %s", got.LineTotal, tt.wantTotal)
			}
		})
	}
}

func TestPriceLineItemRejects(t *testing.T) {
	tests := []struct {
		name      string
		item      LineItem
		wantField string
	}{
		{"zero quantity", item("0", "10", "0", "0"), "quantity"},
		{"negative quantity", item("-1", "10", "0", "0"), "quantity"},
		{"negative price", item("1", "-10", "0", "0"), "unit_price"},
		{"negative tax", item("1", "10", "0", "-7"), "tax_rate_percent"},
		{"negative discount", item("1", "10", "-1", "0"), "discount"},
		{
			"discount in another currency",
			LineItem{Quantity: dec("1"), UnitPrice: thb("10"), Discount: money.MustParse("1", "USD")},
			"discount",
		},
		{
			"missing currency",
			LineItem{Quantity: dec("1"), UnitPrice: money.Money{Amount: dec("10")}},
			"unit_price",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PriceLineItem(tt.item)
			if !errors.Is(err, ErrInvalidLineItem) {
				t.Fatalf("error = %v, want ErrInvalidLineItem", err)
			}
			var lineErr *InvalidLineItemError
			if !errors.As(err, &lineErr) || lineErr.Field != tt.wantField {
				t.Errorf("field = %v, want %s", err, tt.wantField)
			}
		})
	}
}

// lineTotal == round(max(qty*price - discount, 0) * (1 + rate/100)) for
// quantities and prices already on the minor-unit grid.
func TestLineTotalClosedForm(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	one := decimal.NewFromInt(1)

	for i := 0; i < 500; i++ {
		qty := decimal.NewFromInt(int64(1 + rng.Intn(20)))
		price := decimal.New(int64(rng.Intn(500000)), -2)
		discount := decimal.New(int64(rng.Intn(200000)), -2)
		rate := decimal.New(int64(rng.Intn(2500)), -2)

		got, err := PriceLineItem(LineItem{
			Quantity:       qty,
			UnitPrice:      money.Money{Amount: price, Currency: "THB"},
			Discount:       money.Money{Amount: discount, Currency: "THB"},
			TaxRatePercent: rate,
		})
		if err != nil {
			t.Fatalf("PriceLineItem() error = %v", err)
		}

		base := decimal.Max(qty.Mul(price).Sub(discount), decimal.Zero)
		want := money.Round(base.Mul(one.Add(rate.Div(hundred))))
		if !got.LineTotal.Amount.Equal(want) {
			t.Fatalf("qty=%s price=%s discount=%s rate=%s: line total = %s, want %s",
				qty, price, discount, rate, got.LineTotal.Amount, want)
		}
	}
}
