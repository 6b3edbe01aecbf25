package calculator

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/hostledger/internal/money"
)

func newInvoice(t *testing.T, items ...LineItem) Document {
	t.Helper()
	doc, err := NewDocument(KindInvoice, "THB")
	if err != nil {
		t.Fatalf("NewDocument() error = %v", err)
	}
	for _, it := range items {
		if doc, err = AddItem(doc, it); err != nil {
			t.Fatalf("AddItem() error = %v", err)
		}
	}
	return doc
}

func TestRecomputeTotals(t *testing.T) {
	doc := newInvoice(t,
		item("2", "100.00", "10.00", "7"),
		item("1", "50.00", "80.00", "10"),
		item("3", "19.99", "0", "7"),
	)

	want := map[string]string{
		"subtotal": "309.97 THB",
		"discount": "60.00 THB",
		"tax":      "17.50 THB",
		"total":    "267.47 THB",
	}
	got := map[string]string{
		"subtotal": doc.Subtotal.String(),
		"discount": doc.Discount.String(),
		"tax":      doc.Tax.String(),
		"total":    doc.Total.String(),
	}
	for k, w := range want {
		if got[k] != w {
			t.Errorf("%s = %s, want %s", k, got[k], w)
		}
	}
	if len(doc.Lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(doc.Lines))
	}
	if err := VerifyTotals(doc); err != nil {
		t.Errorf("VerifyTotals() error = %v", err)
	}
}

func TestRecomputeRejectsForeignItems(t *testing.T) {
	doc := newInvoice(t)
	_, err := AddItem(doc, LineItem{Quantity: dec("1"), UnitPrice: money.MustParse("10", "USD")})
	var lineErr *InvalidLineItemError
	if !errors.As(err, &lineErr) || lineErr.Index != 0 {
		t.Fatalf("error = %v, want InvalidLineItemError at index 0", err)
	}
}

func TestTotalsIdentityHolds(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		doc := newInvoice(t)
		n := 1 + rng.Intn(8)
		for j := 0; j < n; j++ {
			var err error
			doc, err = AddItem(doc, LineItem{
				Quantity:       decimal.New(int64(1+rng.Intn(400)), -1),
				UnitPrice:      money.Money{Amount: decimal.New(int64(rng.Intn(100000)), -2), Currency: "THB"},
				Discount:       money.Money{Amount: decimal.New(int64(rng.Intn(30000)), -2), Currency: "THB"},
				TaxRatePercent: decimal.New(int64(rng.Intn(300)), -1),
			})
			if err != nil {
				t.Fatalf("AddItem() error = %v", err)
			}
		}
		identity := doc.Subtotal.Amount.Sub(doc.Discount.Amount).Add(doc.Tax.Amount)
		if !identity.Equal(doc.Total.Amount) {
			t.Fatalf("subtotal - discount + tax = %s, total = %s", identity, doc.Total.Amount)
		}
	}
}

func TestVerifyTotalsDetectsStaleTotals(t *testing.T) {
	doc := newInvoice(t, item("2", "100.00", "10.00", "7"))

	tests := []struct {
		name      string
		mutate    func(d *Document)
		wantField string
	}{
		{"tampered total", func(d *Document) { d.Total = thb("999") }, "total"},
		{"tampered tax", func(d *Document) { d.Tax = thb("0") }, "tax_total"},
		{
			"item edited without recompute",
			func(d *Document) {
				d.Items = cloneItems(d.Items)
				d.Items[0].Quantity = dec("3")
			},
			"lines[0].line_total",
		},
		{
			"item appended without recompute",
			func(d *Document) { d.Items = append(cloneItems(d.Items), item("1", "1", "0", "0")) },
			"lines",
		},
		{"overpaid", func(d *Document) { d.PaidAmount = thb("500") }, "paid_amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := doc
			tt.mutate(&d)
			err := VerifyTotals(d)
			var v *InvariantViolationError
			if !errors.As(err, &v) {
				t.Fatalf("error = %v, want InvariantViolationError", err)
			}
			if v.Field != tt.wantField {
				t.Errorf("field = %s, want %s", v.Field, tt.wantField)
			}
			if !errors.Is(err, ErrInvariantViolation) {
				t.Error("should match ErrInvariantViolation")
			}
		})
	}
}

func TestRemoveItem(t *testing.T) {
	doc := newInvoice(t, item("2", "100.00", "10.00", "7"), item("1", "10.00", "0", "0"))

	doc, err := RemoveItem(doc, 0)
	if err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}
	if doc.Total.String() != "10.00 THB" || len(doc.Items) != 1 {
		t.Errorf("after remove: total = %s, items = %d", doc.Total, len(doc.Items))
	}
	if _, err := RemoveItem(doc, 5); !errors.Is(err, ErrInvalidLineItem) {
		t.Errorf("out of range error = %v", err)
	}
}

func TestAddItemDoesNotAliasInput(t *testing.T) {
	base := newInvoice(t, item("1", "10", "0", "0"))
	a, err := AddItem(base, item("1", "1", "0", "0"))
	if err != nil {
		t.Fatal(err)
	}
	if len(base.Items) != 1 {
		t.Errorf("original document grew to %d items", len(base.Items))
	}
	a.Items[0].Description = "changed"
	if base.Items[0].Description == "changed" {
		t.Error("derived document shares items with its source")
	}
}

func TestApplyTemplateDeepCopies(t *testing.T) {
	tmpl := Template{
		Name:     "Monthly service",
		Currency: "THB",
		Items: []LineItem{
			item("1", "1500.00", "0", "7"),
			item("4", "250.00", "100.00", "7"),
		},
	}
	if err := tmpl.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	doc := newInvoice(t, item("1", "100.00", "0", "0"))
	doc, err := ApplyTemplate(doc, tmpl)
	if err != nil {
		t.Fatalf("ApplyTemplate() error = %v", err)
	}
	if len(doc.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(doc.Items))
	}
	// 100 + (1500 + 105) + (900 + 63)
	if doc.Total.String() != "2668.00 THB" {
		t.Errorf("total = %s, want 2668.00 THB", doc.Total)
	}

	doc.Items[1].Description = "edited"
	doc.Items[1].Quantity = dec("9")
	if tmpl.Items[0].Description != "Cleaning" || !tmpl.Items[0].Quantity.Equal(dec("1")) {
		t.Error("editing the document changed the template")
	}
}

func TestEditingLockedDocument(t *testing.T) {
	doc := newInvoice(t, item("1", "10", "0", "0"))
	doc, err := TransitionDocument(doc, InvoiceSent)
	if err != nil {
		t.Fatalf("TransitionDocument() error = %v", err)
	}
	if _, err := AddItem(doc, item("1", "1", "0", "0")); !errors.Is(err, ErrDocumentLocked) {
		t.Errorf("AddItem on sent invoice error = %v", err)
	}
	if _, err := ApplyTemplate(doc, Template{Name: "x", Currency: "THB"}); !errors.Is(err, ErrDocumentLocked) {
		t.Errorf("ApplyTemplate on sent invoice error = %v", err)
	}
}

func TestDocumentTransitions(t *testing.T) {
	tests := []struct {
		kind DocumentKind
		from Status
		to   Status
		ok   bool
	}{
		{KindInvoice, InvoiceDraft, InvoiceSent, true},
		{KindInvoice, InvoiceSent, InvoiceOverdue, true},
		{KindInvoice, InvoiceOverdue, InvoicePaid, true},
		{KindInvoice, InvoiceDraft, InvoicePaid, false},
		{KindInvoice, InvoicePaid, InvoiceSent, false},
		{KindBooking, BookingPending, BookingConfirmed, true},
		{KindBooking, BookingPending, BookingCancelled, true},
		{KindBooking, BookingConfirmed, BookingCompleted, true},
		{KindBooking, BookingPending, BookingCompleted, false},
		{KindBooking, BookingCancelled, BookingConfirmed, false},
		{KindBooking, BookingCompleted, BookingCancelled, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := CanTransition(tt.kind, tt.from, tt.to); got != tt.ok {
				t.Errorf("CanTransition() = %v, want %v", got, tt.ok)
			}
		})
	}
}

func TestRecordPayment(t *testing.T) {
	doc := newInvoice(t, item("2", "100.00", "10.00", "7"))

	if _, err := RecordPayment(doc, thb("10")); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("payment on draft error = %v", err)
	}

	doc, err := TransitionDocument(doc, InvoiceSent)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := TransitionDocument(doc, InvoicePaid); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("marking unpaid invoice paid error = %v", err)
	}

	doc, err = RecordPayment(doc, thb("100"))
	if err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}
	if doc.Status != InvoiceSent || Outstanding(doc).String() != "103.30 THB" {
		t.Errorf("after partial payment: status = %s, outstanding = %s", doc.Status, Outstanding(doc))
	}

	if _, err := RecordPayment(doc, thb("200")); !errors.Is(err, ErrOverpayment) {
		t.Errorf("overpayment error = %v", err)
	}

	doc, err = RecordPayment(doc, thb("103.30"))
	if err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}
	if doc.Status != InvoicePaid {
		t.Errorf("status = %s, want paid", doc.Status)
	}
	if err := VerifyTotals(doc); err != nil {
		t.Errorf("VerifyTotals() error = %v", err)
	}
}
