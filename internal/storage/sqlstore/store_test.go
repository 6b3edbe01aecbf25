package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/hostledger/internal/calculator"
	"github.com/mmynk/hostledger/internal/fx"
	"github.com/mmynk/hostledger/internal/models"
	"github.com/mmynk/hostledger/internal/money"
	"github.com/mmynk/hostledger/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func thb(s string) money.Money { return money.MustParse(s, "THB") }

func testDocument(t *testing.T) calculator.Document {
	t.Helper()
	doc, err := calculator.NewDocument(calculator.KindInvoice, "THB")
	if err != nil {
		t.Fatal(err)
	}
	doc, err = calculator.AddItem(doc, calculator.LineItem{
		Description:    "Deep clean",
		Quantity:       decimal.NewFromInt(2),
		UnitPrice:      thb("100.00"),
		Discount:       thb("10.00"),
		TaxRatePercent: decimal.NewFromInt(7),
	})
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestRates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	registry := fx.NewRegistry(store)

	day := func(s string) time.Time {
		d, err := fx.ParseDay(s)
		if err != nil {
			t.Fatal(err)
		}
		return d
	}

	for _, r := range []struct{ rate, on string }{
		{"35.00", "2025-01-01"},
		{"35.50", "2025-03-01"},
		{"35.60", "2025-03-01"},
	} {
		_, err := registry.RecordRate(ctx, fx.ExchangeRate{
			From: "USD", To: "THB", Rate: decimal.RequireFromString(r.rate), EffectiveDate: day(r.on), Source: fx.SourceBank,
		})
		if err != nil {
			t.Fatalf("RecordRate failed: %v", err)
		}
	}

	t.Run("LatestRate picks newest record on or before the date", func(t *testing.T) {
		got, err := store.LatestRate(ctx, "USD", "THB", day("2025-04-01"))
		if err != nil {
			t.Fatalf("LatestRate failed: %v", err)
		}
		if !got.Rate.Equal(decimal.RequireFromString("35.60")) {
			t.Errorf("rate = %s, want 35.60", got.Rate)
		}
		if got.Source != fx.SourceBank || got.EffectiveDate.Format(fx.DateLayout) != "2025-03-01" {
			t.Errorf("record = %+v", got)
		}
	})

	t.Run("LatestRate before any record", func(t *testing.T) {
		_, err := store.LatestRate(ctx, "USD", "THB", day("2024-06-01"))
		if !errors.Is(err, fx.ErrRateNotFound) {
			t.Errorf("error = %v, want ErrRateNotFound", err)
		}
	})

	t.Run("ListRates keeps every correction", func(t *testing.T) {
		rates, err := store.ListRates(ctx, "USD", "THB")
		if err != nil {
			t.Fatalf("ListRates failed: %v", err)
		}
		if len(rates) != 3 {
			t.Fatalf("got %d rates, want 3", len(rates))
		}
		if rates[0].EffectiveDate.After(rates[2].EffectiveDate) {
			t.Error("rates are not ordered by effective date")
		}
	})
}

func TestInvoices(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.now = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }

	t.Run("CreateInvoice allocates sequential numbers per org", func(t *testing.T) {
		var numbers []string
		for i := 0; i < 3; i++ {
			inv := &models.Invoice{OrgID: "org-a", Recipient: "Villa owner", CreatedBy: "u1", Document: testDocument(t)}
			if err := store.CreateInvoice(ctx, inv); err != nil {
				t.Fatalf("CreateInvoice failed: %v", err)
			}
			numbers = append(numbers, inv.Number)
		}
		want := []string{"INV-2025-001", "INV-2025-002", "INV-2025-003"}
		for i := range want {
			if numbers[i] != want[i] {
				t.Errorf("number[%d] = %s, want %s", i, numbers[i], want[i])
			}
		}

		other := &models.Invoice{OrgID: "org-b", Recipient: "Guest", CreatedBy: "u2", Document: testDocument(t)}
		if err := store.CreateInvoice(ctx, other); err != nil {
			t.Fatalf("CreateInvoice failed: %v", err)
		}
		if other.Number != "INV-2025-001" {
			t.Errorf("org-b number = %s, want INV-2025-001", other.Number)
		}
	})

	t.Run("concurrent creators never share a number", func(t *testing.T) {
		const n = 20
		doc := testDocument(t)
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			numbers = map[string]bool{}
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				inv := &models.Invoice{OrgID: "org-c", Recipient: "Guest", CreatedBy: "u3", Document: doc}
				if err := store.CreateInvoice(ctx, inv); err != nil {
					t.Errorf("CreateInvoice failed: %v", err)
					return
				}
				mu.Lock()
				numbers[inv.Number] = true
				mu.Unlock()
			}()
		}
		wg.Wait()
		if len(numbers) != n {
			t.Errorf("got %d distinct numbers for %d invoices", len(numbers), n)
		}
	})

	t.Run("GetInvoice round trips items and totals", func(t *testing.T) {
		original := &models.Invoice{OrgID: "org-a", PropertyID: "villa-1", Recipient: "Owner", CreatedBy: "u1", Document: testDocument(t)}
		if err := store.CreateInvoice(ctx, original); err != nil {
			t.Fatalf("CreateInvoice failed: %v", err)
		}

		got, err := store.GetInvoice(ctx, "org-a", original.ID)
		if err != nil {
			t.Fatalf("GetInvoice failed: %v", err)
		}
		if got.Total.String() != "203.30 THB" || got.Tax.String() != "13.30 THB" {
			t.Errorf("totals = %s / %s", got.Total, got.Tax)
		}
		if got.PropertyID != "villa-1" || got.Status != calculator.InvoiceDraft {
			t.Errorf("invoice = %+v", got)
		}
		if err := calculator.VerifyTotals(got.Document); err != nil {
			t.Errorf("VerifyTotals after load: %v", err)
		}
	})

	t.Run("GetInvoice is scoped to the org", func(t *testing.T) {
		inv := &models.Invoice{OrgID: "org-a", Recipient: "Owner", CreatedBy: "u1", Document: testDocument(t)}
		if err := store.CreateInvoice(ctx, inv); err != nil {
			t.Fatal(err)
		}
		if _, err := store.GetInvoice(ctx, "org-b", inv.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("cross-org read error = %v, want ErrNotFound", err)
		}
	})

	t.Run("UpdateInvoice replaces items", func(t *testing.T) {
		inv := &models.Invoice{OrgID: "org-a", Recipient: "Owner", CreatedBy: "u1", Document: testDocument(t)}
		if err := store.CreateInvoice(ctx, inv); err != nil {
			t.Fatal(err)
		}
		doc, err := calculator.RemoveItem(inv.Document, 0)
		if err != nil {
			t.Fatal(err)
		}
		inv.Document = doc
		if err := store.UpdateInvoice(ctx, inv); err != nil {
			t.Fatalf("UpdateInvoice failed: %v", err)
		}
		got, err := store.GetInvoice(ctx, "org-a", inv.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Items) != 0 || !got.Total.IsZero() {
			t.Errorf("after update: %d items, total %s", len(got.Items), got.Total)
		}

		missing := &models.Invoice{ID: "nope", OrgID: "org-a", Document: doc}
		if err := store.UpdateInvoice(ctx, missing); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("update missing error = %v", err)
		}
	})
}

func TestTemplates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tmpl := &models.InvoiceTemplate{
		OrgID: "org-a",
		Template: calculator.Template{
			Name:     "Monthly management",
			Currency: "THB",
			Items:    testDocument(t).Items,
		},
	}
	if err := store.CreateTemplate(ctx, tmpl); err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}

	got, err := store.GetTemplate(ctx, "org-a", tmpl.ID)
	if err != nil {
		t.Fatalf("GetTemplate failed: %v", err)
	}
	if got.Name != tmpl.Name || len(got.Items) != 1 {
		t.Fatalf("template = %+v", got)
	}
	if got.Items[0].Discount.String() != "10.00 THB" || !got.Items[0].Quantity.Equal(decimal.NewFromInt(2)) {
		t.Errorf("item = %+v", got.Items[0])
	}
	if _, err := store.GetTemplate(ctx, "org-b", tmpl.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("cross-org read error = %v", err)
	}
}

func TestLedgerEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	date := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)

	converted := &models.LedgerEntry{
		OrgID:     "org-a",
		CreatedBy: "u1",
		LedgerEntry: calculator.LedgerEntry{
			PropertyID:  "villa-1",
			Date:        date,
			Type:        "booking",
			Description: "Direct booking",
			Amount:      thb("3550.00"),
			Category:    calculator.CategoryRevenue,
			Reference:   "booking-1",
			Conversion: &fx.ConversionResult{
				Original:  money.MustParse("100", "USD"),
				Converted: thb("3550.00"),
				RateID:    "01JABCDEF",
				Rate: fx.ExchangeRate{
					ID: "01JABCDEF", From: "USD", To: "THB", Rate: decimal.RequireFromString("35.5"),
					EffectiveDate: date, Source: fx.SourceManual,
				},
			},
		},
	}
	plain := &models.LedgerEntry{
		OrgID:     "org-a",
		CreatedBy: "u1",
		LedgerEntry: calculator.LedgerEntry{
			PropertyID: "villa-1", Date: date, Type: "expense", Description: "Pool service",
			Amount: thb("-250"), Category: calculator.CategoryMaintenance,
		},
	}
	for _, e := range []*models.LedgerEntry{converted, plain} {
		if err := store.AppendLedgerEntry(ctx, e); err != nil {
			t.Fatalf("AppendLedgerEntry failed: %v", err)
		}
	}

	entries, err := store.ListLedgerEntries(ctx, "org-a", "villa-1")
	if err != nil {
		t.Fatalf("ListLedgerEntries failed: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != converted.ID || entries[1].ID != plain.ID {
		t.Fatalf("entries out of recording order: %+v", entries)
	}

	c := entries[0].Conversion
	if c == nil {
		t.Fatal("conversion provenance was lost")
	}
	if c.Original.String() != "100.00 USD" || c.RateID != "01JABCDEF" || !c.Rate.Rate.Equal(decimal.RequireFromString("35.5")) {
		t.Errorf("conversion = %+v", c)
	}
	replay := fx.Apply(c.Original, c.Rate)
	if !replay.Converted.Amount.Equal(entries[0].Amount.Amount) {
		t.Errorf("replayed conversion = %s, stored %s", replay.Converted, entries[0].Amount)
	}
	if entries[1].Conversion != nil {
		t.Error("plain entry should have no conversion")
	}

	other, err := store.ListLedgerEntries(ctx, "org-b", "villa-1")
	if err != nil || len(other) != 0 {
		t.Errorf("org-b entries = %d, err = %v", len(other), err)
	}
}

func TestPayouts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	p := &models.Payout{
		OrgID:       "org-a",
		RequestedBy: "owner-1",
		PayoutRequest: calculator.PayoutRequest{
			PropertyID: "villa-1", Amount: thb("800"), Status: calculator.PayoutPending, Version: 1, RequestedAt: at,
		},
	}
	if err := store.CreatePayout(ctx, p); err != nil {
		t.Fatalf("CreatePayout failed: %v", err)
	}

	t.Run("UpdatePayout with current version", func(t *testing.T) {
		next, err := calculator.TransitionPayout(p.PayoutRequest, calculator.PayoutApproved, at.Add(time.Hour))
		if err != nil {
			t.Fatal(err)
		}
		updated := *p
		updated.PayoutRequest = next
		if err := store.UpdatePayout(ctx, &updated, p.Version, nil); err != nil {
			t.Fatalf("UpdatePayout failed: %v", err)
		}
		got, err := store.GetPayout(ctx, "org-a", p.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != calculator.PayoutApproved || got.Version != 2 {
			t.Errorf("payout = %+v", got)
		}
	})

	t.Run("UpdatePayout with stale version conflicts", func(t *testing.T) {
		stale := *p
		stale.Status = calculator.PayoutRejected
		stale.Version = 2
		err := store.UpdatePayout(ctx, &stale, 1, nil)
		if !errors.Is(err, storage.ErrConflict) {
			t.Errorf("error = %v, want ErrConflict", err)
		}
	})

	t.Run("completion writes the payout entry atomically", func(t *testing.T) {
		got, err := store.GetPayout(ctx, "org-a", p.ID)
		if err != nil {
			t.Fatal(err)
		}
		processing, err := calculator.TransitionPayout(got.PayoutRequest, calculator.PayoutProcessing, at.Add(2*time.Hour))
		if err != nil {
			t.Fatal(err)
		}
		got.PayoutRequest = processing
		if err := store.UpdatePayout(ctx, got, 2, nil); err != nil {
			t.Fatal(err)
		}

		done, err := calculator.TransitionPayout(got.PayoutRequest, calculator.PayoutCompleted, at.Add(3*time.Hour))
		if err != nil {
			t.Fatal(err)
		}
		got.PayoutRequest = done
		entry := &models.LedgerEntry{OrgID: "org-a", CreatedBy: "admin", LedgerEntry: calculator.LedgerEntryForPayout(done)}
		if err := store.UpdatePayout(ctx, got, 3, entry); err != nil {
			t.Fatalf("UpdatePayout failed: %v", err)
		}

		entries, err := store.ListLedgerEntries(ctx, "org-a", "villa-1")
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 || entries[0].Category != calculator.CategoryPayout || entries[0].Reference != p.ID {
			t.Errorf("entries = %+v", entries)
		}
	})

	t.Run("ListPayouts", func(t *testing.T) {
		payouts, err := store.ListPayouts(ctx, "org-a", "villa-1")
		if err != nil {
			t.Fatal(err)
		}
		if len(payouts) != 1 || payouts[0].Status != calculator.PayoutCompleted {
			t.Errorf("payouts = %+v", payouts)
		}
	})

	t.Run("GetPayout missing", func(t *testing.T) {
		if _, err := store.GetPayout(ctx, "org-a", "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v", err)
		}
	})
}

func TestInvoiceNumber(t *testing.T) {
	tests := []struct {
		year int
		seq  int64
		want string
	}{
		{2025, 5, "INV-2025-005"},
		{2025, 42, "INV-2025-042"},
		{2026, 1234, "INV-2026-1234"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := InvoiceNumber(tt.year, tt.seq); got != tt.want {
				t.Errorf("InvoiceNumber(%d, %d) = %q, want %q", tt.year, tt.seq, got, tt.want)
			}
		})
	}
}
