package calculator

import (
	"fmt"
	"sort"
	"time"

	"github.com/mmynk/hostledger/internal/fx"
	"github.com/mmynk/hostledger/internal/money"
)

// Category classifies a ledger entry.
type Category string

const (
	CategoryRevenue      Category = "revenue"
	CategoryManagement   Category = "management"
	CategoryUtilities    Category = "utilities"
	CategoryMaintenance  Category = "maintenance"
	CategoryAddons       Category = "addons"
	CategoryWelcomePacks Category = "welcome_packs"
	CategoryPayout       Category = "payout"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryRevenue, CategoryManagement, CategoryUtilities, CategoryMaintenance,
		CategoryAddons, CategoryWelcomePacks, CategoryPayout:
		return true
	}
	return false
}

// LedgerEntry is one signed transaction against a property. Revenue is
// positive; every other category is zero or negative.
type LedgerEntry struct {
	ID          string      `json:"id"`
	PropertyID  string      `json:"property_id"`
	Date        time.Time   `json:"date"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Amount      money.Money `json:"amount"`
	Category    Category    `json:"category"`
	// Reference names the invoice, booking or payout the entry came from.
	Reference string `json:"reference,omitempty"`
	// Conversion is set when Amount was converted from another currency.
	Conversion *fx.ConversionResult `json:"conversion,omitempty"`
}

// ValidateEntry checks the sign convention and category of e.
func ValidateEntry(e LedgerEntry) error {
	if !e.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidLedgerEntry, e.Category)
	}
	if _, err := money.NormalizeCurrency(e.Amount.Currency); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLedgerEntry, err)
	}
	if e.Category == CategoryRevenue && e.Amount.IsNegative() {
		return fmt.Errorf("%w: revenue must not be negative, got %s", ErrInvalidLedgerEntry, e.Amount)
	}
	if e.Category != CategoryRevenue && e.Amount.IsPositive() {
		return fmt.Errorf("%w: %s entries must not be positive, got %s", ErrInvalidLedgerEntry, e.Category, e.Amount)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidLedgerEntry)
	}
	return nil
}

// Expenses holds the magnitude of each expense bucket. PaidOut receives
// completed payouts.
type Expenses struct {
	Management   money.Money `json:"management"`
	Utilities    money.Money `json:"utilities"`
	Maintenance  money.Money `json:"maintenance"`
	Addons       money.Money `json:"addons"`
	WelcomePacks money.Money `json:"welcome_packs"`
	PaidOut      money.Money `json:"paid_out"`
}

func zeroExpenses(cur string) Expenses {
	z := money.Zero(cur)
	return Expenses{Management: z, Utilities: z, Maintenance: z, Addons: z, WelcomePacks: z, PaidOut: z}
}

func (e *Expenses) bucket(c Category) *money.Money {
	switch c {
	case CategoryManagement:
		return &e.Management
	case CategoryUtilities:
		return &e.Utilities
	case CategoryMaintenance:
		return &e.Maintenance
	case CategoryAddons:
		return &e.Addons
	case CategoryWelcomePacks:
		return &e.WelcomePacks
	case CategoryPayout:
		return &e.PaidOut
	}
	return nil
}

// Total sums every bucket.
func (e Expenses) Total() money.Money {
	t := e.Management.Amount.Add(e.Utilities.Amount).Add(e.Maintenance.Amount).
		Add(e.Addons.Amount).Add(e.WelcomePacks.Amount).Add(e.PaidOut.Amount)
	return money.Money{Amount: t, Currency: e.Management.Currency}
}

// PropertyBalance is a property's standing position in one currency.
type PropertyBalance struct {
	PropertyID     string        `json:"property_id"`
	Currency       string        `json:"currency"`
	TotalRevenue   money.Money   `json:"total_revenue"`
	Expenses       Expenses      `json:"expenses"`
	PendingPayouts money.Money   `json:"pending_payouts"`
	CurrentBalance money.Money   `json:"current_balance"`
	Breakdown      []LedgerEntry `json:"breakdown"`
}

func (b *PropertyBalance) settle() {
	cur := b.TotalRevenue.Amount.Sub(b.Expenses.Total().Amount).Sub(b.PendingPayouts.Amount)
	b.CurrentBalance = money.Money{Amount: cur, Currency: b.Currency}
}

// AggregateBalance folds a property's ledger entries and payout requests
// into its balance. Entries are ordered by date; payouts that are neither
// completed nor rejected are held out as pending.
func AggregateBalance(propertyID, currency string, entries []LedgerEntry, payouts []PayoutRequest) (PropertyBalance, error) {
	cur, err := money.NormalizeCurrency(currency)
	if err != nil {
		return PropertyBalance{}, err
	}
	b := PropertyBalance{
		PropertyID:     propertyID,
		Currency:       cur,
		TotalRevenue:   money.Zero(cur),
		Expenses:       zeroExpenses(cur),
		PendingPayouts: money.Zero(cur),
		Breakdown:      make([]LedgerEntry, 0, len(entries)),
	}

	for _, e := range entries {
		if e.PropertyID != propertyID {
			return PropertyBalance{}, fmt.Errorf("%w: entry %s belongs to property %s", ErrInvalidLedgerEntry, e.ID, e.PropertyID)
		}
		if err := ValidateEntry(e); err != nil {
			return PropertyBalance{}, err
		}
		if e.Amount.Currency != cur {
			return PropertyBalance{}, fmt.Errorf("%w: entry %s is in %s, balance in %s", money.ErrCurrencyMismatch, e.ID, e.Amount.Currency, cur)
		}
		b.Breakdown = append(b.Breakdown, e)
	}
	sort.SliceStable(b.Breakdown, func(i, j int) bool {
		return b.Breakdown[i].Date.Before(b.Breakdown[j].Date)
	})
	for _, e := range b.Breakdown {
		if e.Category == CategoryRevenue {
			b.TotalRevenue.Amount = b.TotalRevenue.Amount.Add(e.Amount.Amount)
			continue
		}
		bucket := b.Expenses.bucket(e.Category)
		bucket.Amount = bucket.Amount.Sub(e.Amount.Amount)
	}

	for _, p := range payouts {
		if p.PropertyID != propertyID {
			return PropertyBalance{}, fmt.Errorf("payout %s belongs to property %s", p.ID, p.PropertyID)
		}
		if !p.Status.Holding() {
			continue
		}
		if p.Amount.Currency != cur {
			return PropertyBalance{}, fmt.Errorf("%w: payout %s is in %s, balance in %s", money.ErrCurrencyMismatch, p.ID, p.Amount.Currency, cur)
		}
		b.PendingPayouts.Amount = b.PendingPayouts.Amount.Add(p.Amount.Amount)
	}

	b.settle()
	return b, nil
}

// VerifyBalance checks that the balance is consistent with its own parts.
func VerifyBalance(b PropertyBalance) error {
	want := b.TotalRevenue.Amount.Sub(b.Expenses.Total().Amount).Sub(b.PendingPayouts.Amount)
	if !want.Equal(b.CurrentBalance.Amount) {
		return violation("current_balance", b.CurrentBalance.String(), want.StringFixed(money.MinorUnits))
	}
	net := b.TotalRevenue.Amount.Sub(b.Expenses.Total().Amount)
	sum := money.Zero(b.Currency).Amount
	for _, e := range b.Breakdown {
		sum = sum.Add(e.Amount.Amount)
	}
	if !sum.Equal(net) {
		return violation("breakdown", sum.StringFixed(money.MinorUnits), net.StringFixed(money.MinorUnits))
	}
	return nil
}
