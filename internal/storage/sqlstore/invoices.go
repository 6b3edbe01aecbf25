package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/hostledger/internal/calculator"
	"github.com/mmynk/hostledger/internal/models"
	"github.com/mmynk/hostledger/internal/money"
	"github.com/mmynk/hostledger/internal/storage"
)

// InvoiceNumber formats the human-readable invoice number.
func InvoiceNumber(year int, seq int64) string {
	return fmt.Sprintf("INV-%d-%03d", year, seq)
}

// nextInvoiceNumber bumps the (org, year) counter inside tx and returns the
// new value. The upsert holds the row lock until tx ends, so concurrent
// creators are serialized on it.
func (s *Store) nextInvoiceNumber(ctx context.Context, tx *sql.Tx, orgID string, year int) (int64, error) {
	var seq int64
	err := tx.QueryRowContext(ctx, s.q(
		"INSERT INTO invoice_counters (org_id, year, last_number) VALUES (?, ?, 1)"+
			" ON CONFLICT (org_id, year) DO UPDATE SET last_number = invoice_counters.last_number + 1"+
			" RETURNING last_number"),
		orgID, year,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate invoice number: %w", err)
	}
	return seq, nil
}

// CreateInvoice persists a new invoice with its items and allocates its number.
func (s *Store) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	now := s.now().UTC()
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.CreatedAt == 0 {
		inv.CreatedAt = now.Unix()
	}
	inv.UpdatedAt = inv.CreatedAt

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	year := time.Unix(inv.CreatedAt, 0).UTC().Year()
	seq, err := s.nextInvoiceNumber(ctx, tx, inv.OrgID, year)
	if err != nil {
		return err
	}
	inv.Number = InvoiceNumber(year, seq)

	_, err = s.exec(ctx, tx,
		`INSERT INTO invoices (id, org_id, number, property_id, recipient, kind, currency, status,
		 subtotal, discount_total, tax_total, total, paid_amount, due_date, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.OrgID, inv.Number, nullString(inv.PropertyID), inv.Recipient,
		string(inv.Kind), inv.Currency, string(inv.Status),
		inv.Subtotal.Amount, inv.Discount.Amount, inv.Tax.Amount, inv.Total.Amount, inv.PaidAmount.Amount,
		inv.DueDate, inv.CreatedBy, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert invoice: %w", err)
	}

	if err := s.insertItems(ctx, tx, "invoice_items", "invoice_id", inv.ID, inv.Items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetInvoice retrieves an invoice by ID, including its items.
func (s *Store) GetInvoice(ctx context.Context, orgID, invoiceID string) (*models.Invoice, error) {
	inv := &models.Invoice{}
	var (
		propertyID   sql.NullString
		kind, status string
	)
	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT id, org_id, number, property_id, recipient, kind, currency, status,
		 subtotal, discount_total, tax_total, total, paid_amount, due_date, created_by, created_at, updated_at
		 FROM invoices WHERE id = ? AND org_id = ?`),
		invoiceID, orgID,
	).Scan(&inv.ID, &inv.OrgID, &inv.Number, &propertyID, &inv.Recipient, &kind, &inv.Currency, &status,
		&inv.Subtotal.Amount, &inv.Discount.Amount, &inv.Tax.Amount, &inv.Total.Amount, &inv.PaidAmount.Amount,
		&inv.DueDate, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt)
	if nf := isNotFound(err, "invoice", invoiceID); nf != nil {
		return nil, nf
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	inv.PropertyID = propertyID.String
	inv.Kind = calculator.DocumentKind(kind)
	inv.Status = calculator.Status(status)
	for _, m := range []*money.Money{&inv.Subtotal, &inv.Discount, &inv.Tax, &inv.Total, &inv.PaidAmount} {
		m.Currency = inv.Currency
	}

	items, err := s.listItems(ctx, "invoice_items", "invoice_id", inv.ID, inv.Currency)
	if err != nil {
		return nil, err
	}
	inv.Items = items

	// Lines are derived; the stored totals are left as read so callers can
	// verify them against the items.
	priced, err := calculator.RecomputeTotals(inv.Document)
	if err != nil {
		return nil, fmt.Errorf("stored invoice %s has invalid items: %w", inv.ID, err)
	}
	inv.Lines = priced.Lines
	return inv, nil
}

// UpdateInvoice replaces the invoice's items and mutable fields.
func (s *Store) UpdateInvoice(ctx context.Context, inv *models.Invoice) error {
	inv.UpdatedAt = s.now().UTC().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := s.exec(ctx, tx,
		`UPDATE invoices SET status = ?, subtotal = ?, discount_total = ?, tax_total = ?, total = ?,
		 paid_amount = ?, due_date = ?, recipient = ?, updated_at = ?
		 WHERE id = ? AND org_id = ?`,
		string(inv.Status), inv.Subtotal.Amount, inv.Discount.Amount, inv.Tax.Amount, inv.Total.Amount,
		inv.PaidAmount.Amount, inv.DueDate, inv.Recipient, inv.UpdatedAt,
		inv.ID, inv.OrgID,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	} else if n == 0 {
		return fmt.Errorf("invoice %s: %w", inv.ID, storage.ErrNotFound)
	}

	if _, err := s.exec(ctx, tx, "DELETE FROM invoice_items WHERE invoice_id = ?", inv.ID); err != nil {
		return fmt.Errorf("failed to clear invoice items: %w", err)
	}
	if err := s.insertItems(ctx, tx, "invoice_items", "invoice_id", inv.ID, inv.Items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// insertItems writes items in order under ownerID. Item currencies are the
// owner's currency and are not stored per row.
func (s *Store) insertItems(ctx context.Context, tx *sql.Tx, table, ownerColumn, ownerID string, items []calculator.LineItem) error {
	query := "INSERT INTO " + table + " (" + ownerColumn +
		", pos, description, quantity, unit_price, tax_rate, discount) VALUES (?, ?, ?, ?, ?, ?, ?)"
	for i, it := range items {
		_, err := s.exec(ctx, tx, query,
			ownerID, i, it.Description, it.Quantity, it.UnitPrice.Amount, it.TaxRatePercent, it.Discount.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
	}
	return nil
}

func (s *Store) listItems(ctx context.Context, table, ownerColumn, ownerID, currency string) ([]calculator.LineItem, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		"SELECT description, quantity, unit_price, tax_rate, discount FROM "+table+
			" WHERE "+ownerColumn+" = ? ORDER BY pos"),
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	items := []calculator.LineItem{}
	for rows.Next() {
		var it calculator.LineItem
		if err := rows.Scan(&it.Description, &it.Quantity, &it.UnitPrice.Amount, &it.TaxRatePercent, &it.Discount.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		it.UnitPrice.Currency = currency
		it.Discount.Currency = currency
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

// CreateTemplate persists a new template with its items.
func (s *Store) CreateTemplate(ctx context.Context, tmpl *models.InvoiceTemplate) error {
	if tmpl.ID == "" {
		tmpl.ID = uuid.New().String()
	}
	if tmpl.CreatedAt == 0 {
		tmpl.CreatedAt = s.now().UTC().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = s.exec(ctx, tx,
		"INSERT INTO invoice_templates (id, org_id, name, currency, created_at) VALUES (?, ?, ?, ?, ?)",
		tmpl.ID, tmpl.OrgID, tmpl.Name, tmpl.Currency, tmpl.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert template: %w", err)
	}
	if err := s.insertItems(ctx, tx, "template_items", "template_id", tmpl.ID, tmpl.Items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetTemplate retrieves a template by ID, including its items.
func (s *Store) GetTemplate(ctx context.Context, orgID, templateID string) (*models.InvoiceTemplate, error) {
	tmpl := &models.InvoiceTemplate{}
	err := s.db.QueryRowContext(ctx, s.q(
		"SELECT id, org_id, name, currency, created_at FROM invoice_templates WHERE id = ? AND org_id = ?"),
		templateID, orgID,
	).Scan(&tmpl.ID, &tmpl.OrgID, &tmpl.Name, &tmpl.Currency, &tmpl.CreatedAt)
	if nf := isNotFound(err, "template", templateID); nf != nil {
		return nil, nf
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	items, err := s.listItems(ctx, "template_items", "template_id", tmpl.ID, tmpl.Currency)
	if err != nil {
		return nil, err
	}
	tmpl.Items = items
	return tmpl, nil
}
