package sqlstore

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"github.com/mmynk/hostledger/internal/calculator"
	"github.com/mmynk/hostledger/internal/fx"
	"github.com/mmynk/hostledger/internal/models"
	"github.com/mmynk/hostledger/internal/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s := New(db, DriverPostgres)
	s.now = func() time.Time { return time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC) }
	return s, mock
}

func TestPostgresPlaceholders(t *testing.T) {
	s := New(nil, DriverPostgres)
	got := s.q("SELECT a FROM t WHERE x = ? AND y = ? LIMIT 1")
	if want := "SELECT a FROM t WHERE x = $1 AND y = $2 LIMIT 1"; got != want {
		t.Errorf("q() = %q, want %q", got, want)
	}
	if lite := New(nil, DriverSQLite).q("x = ?"); lite != "x = ?" {
		t.Errorf("sqlite query rewritten to %q", lite)
	}
}

func TestPostgresCreateInvoiceAllocatesNumber(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO invoice_counters (org_id, year, last_number) VALUES ($1, $2, 1)")).
		WithArgs("org-a", 2025).
		WillReturnRows(sqlmock.NewRows([]string{"last_number"}).AddRow(5))
	mock.ExpectExec("INSERT INTO invoices").
		WithArgs(sqlmock.AnyArg(), "org-a", "INV-2025-005", nil, "Owner", "invoice", "THB", "draft",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			int64(0), "u1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	doc, err := calculator.NewDocument(calculator.KindInvoice, "THB")
	if err != nil {
		t.Fatal(err)
	}
	inv := &models.Invoice{OrgID: "org-a", Recipient: "Owner", CreatedBy: "u1", Document: doc}
	if err := s.CreateInvoice(context.Background(), inv); err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if inv.Number != "INV-2025-005" {
		t.Errorf("number = %s, want INV-2025-005", inv.Number)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresLatestRate(t *testing.T) {
	s, mock := newMockStore(t)
	on := time.Date(2025, 3, 15, 18, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE from_currency = $1 AND to_currency = $2 AND effective_date <= $3")).
		WithArgs("USD", "THB", "2025-03-15").
		WillReturnRows(sqlmock.NewRows([]string{"id", "from_currency", "to_currency", "rate", "effective_date", "source", "recorded_at"}).
			AddRow("01J0000000000000000000000A", "USD", "THB", "35.5", "2025-03-01", "api", int64(1740787200)))

	got, err := s.LatestRate(context.Background(), "USD", "THB", on)
	if err != nil {
		t.Fatalf("LatestRate: %v", err)
	}
	if !got.Rate.Equal(decimal.RequireFromString("35.5")) || got.Source != fx.SourceAPI {
		t.Errorf("rate = %+v", got)
	}

	mock.ExpectQuery("FROM exchange_rates").WillReturnRows(
		sqlmock.NewRows([]string{"id", "from_currency", "to_currency", "rate", "effective_date", "source", "recorded_at"}))
	if _, err := s.LatestRate(context.Background(), "USD", "EUR", on); !errors.Is(err, fx.ErrRateNotFound) {
		t.Errorf("error = %v, want ErrRateNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresUpdatePayoutConflict(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE payouts SET status = $1, version = $2, updated_at = $3 WHERE id = $4 AND org_id = $5 AND version = $6")).
		WithArgs("approved", int64(2), sqlmock.AnyArg(), "p1", "org-a", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM payouts WHERE id = $1 AND org_id = $2")).
		WithArgs("p1", "org-a").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	p := &models.Payout{OrgID: "org-a", PayoutRequest: calculator.PayoutRequest{
		ID: "p1", PropertyID: "villa-1", Status: calculator.PayoutApproved, Version: 2, UpdatedAt: s.now(),
	}}
	err := s.UpdatePayout(context.Background(), p, 1, nil)
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
