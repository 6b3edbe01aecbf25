package calculator

import (
	"fmt"

	"github.com/mmynk/hostledger/internal/metrics"
	"github.com/mmynk/hostledger/internal/money"
)

// DocumentKind distinguishes invoices from bookings; they share pricing but
// not their status machines.
type DocumentKind string

const (
	KindInvoice DocumentKind = "invoice"
	KindBooking DocumentKind = "booking"
)

// Document is an invoice or booking with its items and derived totals.
//
// The four totals are always the sums of the per-line values in Lines. They
// are only ever produced by RecomputeTotals; VerifyTotals must pass before a
// document is persisted.
type Document struct {
	Kind       DocumentKind     `json:"kind"`
	Currency   string           `json:"currency"`
	Status     Status           `json:"status"`
	Items      []LineItem       `json:"items"`
	Lines      []PricedLineItem `json:"lines"`
	Subtotal   money.Money      `json:"subtotal"`
	Discount   money.Money      `json:"discount_total"`
	Tax        money.Money      `json:"tax_total"`
	Total      money.Money      `json:"total"`
	PaidAmount money.Money      `json:"paid_amount"`
}

// NewDocument returns an empty document in its initial status.
func NewDocument(kind DocumentKind, currency string) (Document, error) {
	cur, err := money.NormalizeCurrency(currency)
	if err != nil {
		return Document{}, err
	}
	status, err := initialStatus(kind)
	if err != nil {
		return Document{}, err
	}
	return RecomputeTotals(Document{Kind: kind, Currency: cur, Status: status, PaidAmount: money.Zero(cur)})
}

// RecomputeTotals prices every item and rebuilds the totals. The returned
// document owns fresh Items and Lines slices.
func RecomputeTotals(doc Document) (Document, error) {
	cur, err := money.NormalizeCurrency(doc.Currency)
	if err != nil {
		return Document{}, err
	}
	out := doc
	out.Currency = cur
	out.Items = make([]LineItem, len(doc.Items))
	out.Lines = make([]PricedLineItem, len(doc.Items))
	if out.PaidAmount.Currency == "" && out.PaidAmount.IsZero() {
		out.PaidAmount = money.Zero(cur)
	}

	sub, disc, tax, total := money.Zero(cur), money.Zero(cur), money.Zero(cur), money.Zero(cur)
	for i, item := range doc.Items {
		priced, err := priceAt(item, i)
		if err != nil {
			return Document{}, err
		}
		if priced.UnitPrice.Currency != cur {
			return Document{}, &InvalidLineItemError{Index: i, Field: "unit_price", Reason: "must be in the document currency " + cur}
		}
		out.Items[i] = priced.LineItem
		out.Lines[i] = priced

		sub.Amount = sub.Amount.Add(priced.Subtotal.Amount)
		disc.Amount = disc.Amount.Add(priced.AppliedDiscount.Amount)
		tax.Amount = tax.Amount.Add(priced.TaxAmount.Amount)
		total.Amount = total.Amount.Add(priced.LineTotal.Amount)
	}
	out.Subtotal, out.Discount, out.Tax, out.Total = sub, disc, tax, total
	return out, nil
}

// VerifyTotals re-derives the totals from Items and reports the first figure
// that disagrees with what the document carries.
func VerifyTotals(doc Document) error {
	fresh, err := RecomputeTotals(doc)
	if err != nil {
		return err
	}
	if len(doc.Lines) != len(fresh.Lines) {
		return violation("lines", fmt.Sprint(len(doc.Lines)), fmt.Sprint(len(fresh.Lines)))
	}
	for i := range fresh.Lines {
		if !doc.Lines[i].LineTotal.Amount.Equal(fresh.Lines[i].LineTotal.Amount) {
			return violation(fmt.Sprintf("lines[%d].line_total", i), doc.Lines[i].LineTotal.String(), fresh.Lines[i].LineTotal.String())
		}
	}
	checks := []struct {
		field          string
		stored, actual money.Money
	}{
		{"subtotal", doc.Subtotal, fresh.Subtotal},
		{"discount_total", doc.Discount, fresh.Discount},
		{"tax_total", doc.Tax, fresh.Tax},
		{"total", doc.Total, fresh.Total},
	}
	for _, c := range checks {
		if c.stored.Currency != c.actual.Currency || !c.stored.Amount.Equal(c.actual.Amount) {
			return violation(c.field, c.stored.String(), c.actual.String())
		}
	}
	identity := fresh.Subtotal.Amount.Sub(fresh.Discount.Amount).Add(fresh.Tax.Amount)
	if !identity.Equal(fresh.Total.Amount) {
		return violation("total", fresh.Total.String(), identity.StringFixed(money.MinorUnits))
	}
	if doc.PaidAmount.Amount.GreaterThan(fresh.Total.Amount) {
		return violation("paid_amount", doc.PaidAmount.String(), "<= "+fresh.Total.String())
	}
	return nil
}

func violation(field, stored, computed string) error {
	metrics.InvariantViolations.Inc()
	return &InvariantViolationError{Field: field, Stored: stored, Computed: computed}
}

// AddItem appends item and recomputes.
func AddItem(doc Document, item LineItem) (Document, error) {
	if !Editable(doc) {
		return Document{}, fmt.Errorf("%w: status %s", ErrDocumentLocked, doc.Status)
	}
	next := doc
	next.Items = append(cloneItems(doc.Items), item)
	metrics.DocumentRecomputes.WithLabelValues("add_item").Inc()
	return RecomputeTotals(next)
}

// RemoveItem drops the item at index and recomputes.
func RemoveItem(doc Document, index int) (Document, error) {
	if !Editable(doc) {
		return Document{}, fmt.Errorf("%w: status %s", ErrDocumentLocked, doc.Status)
	}
	if index < 0 || index >= len(doc.Items) {
		return Document{}, &InvalidLineItemError{Index: index, Field: "index", Reason: "is out of range"}
	}
	items := make([]LineItem, 0, len(doc.Items)-1)
	items = append(items, doc.Items[:index]...)
	items = append(items, doc.Items[index+1:]...)
	next := doc
	next.Items = items
	metrics.DocumentRecomputes.WithLabelValues("remove_item").Inc()
	return RecomputeTotals(next)
}

// RecordPayment adds amount to an invoice's paid amount. Paying the full
// total moves the invoice to paid.
func RecordPayment(doc Document, amount money.Money) (Document, error) {
	if doc.Kind != KindInvoice {
		return Document{}, fmt.Errorf("payments apply to invoices, not %s", doc.Kind)
	}
	if doc.Status != InvoiceSent && doc.Status != InvoiceOverdue {
		return Document{}, &InvalidTransitionError{Entity: "invoice payment", From: string(doc.Status), To: string(InvoicePaid)}
	}
	if !amount.IsPositive() {
		return Document{}, fmt.Errorf("payment must be positive, got %s", amount)
	}
	paid, err := doc.PaidAmount.Add(amount)
	if err != nil {
		return Document{}, err
	}
	if paid.Amount.GreaterThan(doc.Total.Amount) {
		return Document{}, fmt.Errorf("%w: %s paid of %s, %s offered", ErrOverpayment, doc.PaidAmount, doc.Total, amount)
	}
	next := doc
	next.PaidAmount = paid
	if paid.Amount.Equal(doc.Total.Amount) {
		next.Status = InvoicePaid
	}
	return next, nil
}

// Outstanding returns Total - PaidAmount.
func Outstanding(doc Document) money.Money {
	return money.Money{Amount: doc.Total.Amount.Sub(doc.PaidAmount.Amount), Currency: doc.Currency}
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
