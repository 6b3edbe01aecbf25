package calculator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/hostledger/internal/money"
)

// BillingRule decides who pays for an addon service.
type BillingRule string

const (
	GuestCharged  BillingRule = "guest_charged"
	OwnerCharged  BillingRule = "owner_charged"
	Complimentary BillingRule = "complimentary"
)

func (r BillingRule) Valid() bool {
	switch r {
	case GuestCharged, OwnerCharged, Complimentary:
		return true
	}
	return false
}

var hundred = decimal.NewFromInt(100)

// Split is the outcome of applying a billing rule to a service charge.
type Split struct {
	Rule             BillingRule     `json:"rule"`
	RatePercent      decimal.Decimal `json:"rate_percent"`
	Base             money.Money     `json:"base"`
	GuestAmount      money.Money     `json:"guest_amount"`
	OwnerAmount      money.Money     `json:"owner_amount"`
	CommissionAmount money.Money     `json:"commission_amount"`
}

// SplitOptions carries optional inputs to SplitCommission.
type SplitOptions struct {
	// IncentiveBase is the nominal amount staff commission is tracked
	// against for complimentary services. Nil means no commission accrues.
	IncentiveBase *money.Money
}

// SplitCommission applies rule to base and computes the commission at
// ratePercent. Commission is taken from the charged amount so it never
// exceeds it.
func SplitCommission(base money.Money, rule BillingRule, ratePercent decimal.Decimal, opts SplitOptions) (Split, error) {
	if !rule.Valid() {
		return Split{}, fmt.Errorf("%w: %q", ErrUnknownBillingRule, rule)
	}
	if err := validateRate(ratePercent); err != nil {
		return Split{}, err
	}
	cur, err := money.NormalizeCurrency(base.Currency)
	if err != nil {
		return Split{}, err
	}
	if base.IsNegative() {
		return Split{}, fmt.Errorf("%w: base amount %s", money.ErrInvalidAmount, base)
	}
	base = money.Money{Amount: money.Round(base.Amount), Currency: cur}
	zero := money.Zero(cur)

	s := Split{Rule: rule, RatePercent: ratePercent, Base: base, GuestAmount: zero, OwnerAmount: zero, CommissionAmount: zero}
	switch rule {
	case GuestCharged:
		s.GuestAmount = base
		s.CommissionAmount = base.Percent(ratePercent)
	case OwnerCharged:
		s.OwnerAmount = base
		s.CommissionAmount = base.Percent(ratePercent)
	case Complimentary:
		if opts.IncentiveBase != nil {
			nominal := *opts.IncentiveBase
			if nominal.Currency != cur {
				return Split{}, fmt.Errorf("%w: incentive base %s for %s charge", money.ErrCurrencyMismatch, nominal.Currency, cur)
			}
			if nominal.IsNegative() {
				return Split{}, fmt.Errorf("%w: incentive base %s", money.ErrInvalidAmount, nominal)
			}
			s.CommissionAmount = nominal.Rounded().Percent(ratePercent)
		}
	}
	return s, nil
}

// AgentCommission is the commission owed on an agent booking. It is
// derived on every read from the booking total and the booking's own rate.
func AgentCommission(total money.Money, ratePercent decimal.Decimal) (money.Money, error) {
	if err := validateRate(ratePercent); err != nil {
		return money.Money{}, err
	}
	cur, err := money.NormalizeCurrency(total.Currency)
	if err != nil {
		return money.Money{}, err
	}
	if total.IsNegative() {
		return money.Money{}, fmt.Errorf("%w: booking total %s", money.ErrInvalidAmount, total)
	}
	return money.Money{Amount: money.Round(total.Amount), Currency: cur}.Percent(ratePercent), nil
}

func validateRate(p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return fmt.Errorf("%w: got %s", ErrInvalidCommissionRate, p)
	}
	return nil
}

// Share is one party's percentage of an amount.
type Share struct {
	Party   string          `json:"party"`
	Percent decimal.Decimal `json:"percent"`
}

// Allocation is one party's piece of an allocated amount.
type Allocation struct {
	Party  string      `json:"party"`
	Amount money.Money `json:"amount"`
}

// OwnerParty receives whatever the shares leave unallocated.
const OwnerParty = "owner"

// AllocateShares divides amount among the parties by percentage. Pieces are
// whole minor units handed out by largest remainder, and the owner line
// takes the rest, so the allocations always sum to amount exactly.
func AllocateShares(amount money.Money, shares []Share) ([]Allocation, error) {
	cur, err := money.NormalizeCurrency(amount.Currency)
	if err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: %s", money.ErrInvalidAmount, amount)
	}
	total := decimal.Zero
	for _, s := range shares {
		if s.Percent.IsNegative() {
			return nil, fmt.Errorf("%w: %s has %s", ErrInvalidShares, s.Party, s.Percent)
		}
		if s.Party == "" || s.Party == OwnerParty {
			return nil, fmt.Errorf("%w: party %q is reserved or empty", ErrInvalidShares, s.Party)
		}
		total = total.Add(s.Percent)
	}
	if total.GreaterThan(hundred) {
		return nil, fmt.Errorf("%w: shares total %s", ErrInvalidShares, total)
	}

	units := money.Round(amount.Amount).Shift(money.MinorUnits)
	type piece struct {
		idx   int
		units decimal.Decimal
		frac  decimal.Decimal
	}
	pieces := make([]piece, len(shares))
	given := decimal.Zero
	for i, s := range shares {
		exact := units.Mul(s.Percent).Div(hundred)
		floor := exact.Floor()
		pieces[i] = piece{idx: i, units: floor, frac: exact.Sub(floor)}
		given = given.Add(floor)
	}
	target := units.Mul(total).Div(hundred).Round(0)
	leftover := target.Sub(given).IntPart()

	order := make([]int, len(pieces))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return pieces[order[a]].frac.GreaterThan(pieces[order[b]].frac)
	})
	for k := int64(0); k < leftover && int(k) < len(order); k++ {
		p := &pieces[order[k]]
		p.units = p.units.Add(decimal.NewFromInt(1))
	}

	out := make([]Allocation, 0, len(shares)+1)
	allocated := decimal.Zero
	for i, s := range shares {
		amt := pieces[i].units.Shift(-money.MinorUnits)
		allocated = allocated.Add(amt)
		out = append(out, Allocation{Party: s.Party, Amount: money.Money{Amount: amt, Currency: cur}})
	}
	owner := money.Round(amount.Amount).Sub(allocated)
	out = append(out, Allocation{Party: OwnerParty, Amount: money.Money{Amount: owner, Currency: cur}})
	return out, nil
}
