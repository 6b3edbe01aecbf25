// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/hostledger/internal/fx"
	"github.com/mmynk/hostledger/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist in the caller's org.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a record changed since it was read.
	ErrConflict = errors.New("record was modified concurrently")
)

// Store defines the interface for finance storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
//
// Every method that reads or writes org data takes the org ID explicitly.
type Store interface {
	// RateStore persists exchange rates. Rates are shared across orgs and
	// are never updated or deleted.
	fx.RateStore

	// ListRates returns every record for the pair, oldest effective date first.
	ListRates(ctx context.Context, from, to string) ([]fx.ExchangeRate, error)

	// CreateInvoice persists a new invoice and allocates its number.
	// The invoice.ID, Number and timestamps are populated by the store.
	// Two concurrent calls never receive the same number.
	CreateInvoice(ctx context.Context, inv *models.Invoice) error

	// GetInvoice retrieves an invoice with its items.
	// Returns ErrNotFound if it does not exist in the org.
	GetInvoice(ctx context.Context, orgID, invoiceID string) (*models.Invoice, error)

	// UpdateInvoice replaces an invoice's items, totals, status and paid amount.
	UpdateInvoice(ctx context.Context, inv *models.Invoice) error

	// CreateTemplate persists a new invoice template.
	CreateTemplate(ctx context.Context, tmpl *models.InvoiceTemplate) error

	// GetTemplate retrieves a template with its items.
	GetTemplate(ctx context.Context, orgID, templateID string) (*models.InvoiceTemplate, error)

	// AppendLedgerEntry persists a new ledger entry. Entries are immutable.
	AppendLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error

	// ListLedgerEntries returns a property's entries in the order recorded.
	ListLedgerEntries(ctx context.Context, orgID, propertyID string) ([]models.LedgerEntry, error)

	// CreatePayout persists a new payout request.
	CreatePayout(ctx context.Context, p *models.Payout) error

	// GetPayout retrieves a payout request.
	GetPayout(ctx context.Context, orgID, payoutID string) (*models.Payout, error)

	// ListPayouts returns a property's payout requests, oldest first.
	ListPayouts(ctx context.Context, orgID, propertyID string) ([]models.Payout, error)

	// UpdatePayout writes p's new status and version if the stored version
	// is still expectVersion, and appends entry in the same transaction when
	// it is non-nil. Returns ErrConflict if the version moved on.
	UpdatePayout(ctx context.Context, p *models.Payout, expectVersion int64, entry *models.LedgerEntry) error

	// Close releases any resources held by the store.
	Close() error
}
