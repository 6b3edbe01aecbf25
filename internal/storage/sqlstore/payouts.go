package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/hostledger/internal/calculator"
	"github.com/mmynk/hostledger/internal/models"
	"github.com/mmynk/hostledger/internal/storage"
)

const payoutColumns = "id, org_id, property_id, amount, currency, status, version, note, requested_by, requested_at, updated_at"

// CreatePayout persists a new payout request.
func (s *Store) CreatePayout(ctx context.Context, p *models.Payout) error {
	now := s.now().UTC()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.RequestedAt.IsZero() {
		p.RequestedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.RequestedAt
	}

	_, err := s.exec(ctx, nil,
		"INSERT INTO payouts ("+payoutColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		p.ID, p.OrgID, p.PropertyID, p.Amount.Amount, p.Amount.Currency, string(p.Status), p.Version,
		nullString(p.Note), p.RequestedBy, p.RequestedAt.Unix(), p.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert payout: %w", err)
	}
	return nil
}

// GetPayout retrieves a payout by ID.
func (s *Store) GetPayout(ctx context.Context, orgID, payoutID string) (*models.Payout, error) {
	row := s.db.QueryRowContext(ctx, s.q(
		"SELECT "+payoutColumns+" FROM payouts WHERE id = ? AND org_id = ?"),
		payoutID, orgID,
	)
	p, err := scanPayout(row)
	if nf := isNotFound(err, "payout", payoutID); nf != nil {
		return nil, nf
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payout: %w", err)
	}
	return &p, nil
}

// ListPayouts retrieves all payouts for a property, oldest first.
func (s *Store) ListPayouts(ctx context.Context, orgID, propertyID string) ([]models.Payout, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		"SELECT "+payoutColumns+" FROM payouts WHERE org_id = ? AND property_id = ? ORDER BY requested_at, id"),
		orgID, propertyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	defer rows.Close()

	var payouts []models.Payout
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}
		payouts = append(payouts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payouts: %w", err)
	}
	return payouts, nil
}

// UpdatePayout writes the new status and version only if nobody else moved
// the payout since expectVersion was read. A non-nil entry is appended in
// the same transaction.
func (s *Store) UpdatePayout(ctx context.Context, p *models.Payout, expectVersion int64, entry *models.LedgerEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := s.exec(ctx, tx,
		"UPDATE payouts SET status = ?, version = ?, updated_at = ? WHERE id = ? AND org_id = ? AND version = ?",
		string(p.Status), p.Version, p.UpdatedAt.Unix(), p.ID, p.OrgID, expectVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update payout: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update payout: %w", err)
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, s.q("SELECT 1 FROM payouts WHERE id = ? AND org_id = ?"), p.ID, p.OrgID).Scan(&exists)
		if nf := isNotFound(err, "payout", p.ID); nf != nil {
			return nf
		}
		if err != nil {
			return fmt.Errorf("failed to update payout: %w", err)
		}
		return fmt.Errorf("payout %s at version %d: %w", p.ID, expectVersion, storage.ErrConflict)
	}

	if entry != nil {
		if err := s.appendLedgerEntry(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanPayout(sc scanner) (models.Payout, error) {
	var (
		p                  models.Payout
		status             string
		note               sql.NullString
		requested, updated int64
	)
	err := sc.Scan(&p.ID, &p.OrgID, &p.PropertyID, &p.Amount.Amount, &p.Amount.Currency, &status, &p.Version,
		&note, &p.RequestedBy, &requested, &updated)
	if err != nil {
		return models.Payout{}, err
	}
	p.Status = calculator.PayoutStatus(status)
	p.Note = note.String
	p.RequestedAt = time.Unix(requested, 0).UTC()
	p.UpdatedAt = time.Unix(updated, 0).UTC()
	return p, nil
}
