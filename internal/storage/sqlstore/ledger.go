package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/hostledger/internal/calculator"
	"github.com/mmynk/hostledger/internal/fx"
	"github.com/mmynk/hostledger/internal/ids"
	"github.com/mmynk/hostledger/internal/models"
	"github.com/mmynk/hostledger/internal/money"
)

const ledgerColumns = `id, org_id, property_id, entry_date, entry_type, description, amount, currency, category, reference,
 conv_original_amount, conv_original_currency, conv_rate_id, conv_rate, conv_rate_date, conv_rate_source,
 created_by, created_at`

// AppendLedgerEntry persists a new ledger entry. IDs are ULIDs so that
// listing by ID returns entries in the order they were recorded.
func (s *Store) AppendLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error {
	return s.appendLedgerEntry(ctx, nil, entry)
}

func (s *Store) appendLedgerEntry(ctx context.Context, tx *sql.Tx, entry *models.LedgerEntry) error {
	now := s.now().UTC()
	if entry.ID == "" {
		entry.ID = ids.NewAt(now)
	}
	if entry.CreatedAt == 0 {
		entry.CreatedAt = now.Unix()
	}

	var origAmount, origCurrency, rateID, rate, rateDate, rateSource any
	if c := entry.Conversion; c != nil {
		origAmount = c.Original.Amount
		origCurrency = c.Original.Currency
		rateID = nullString(c.RateID)
		rate = c.Rate.Rate
		rateDate = c.Rate.EffectiveDate.Format(fx.DateLayout)
		rateSource = string(c.Rate.Source)
	}

	_, err := s.exec(ctx, tx,
		"INSERT INTO ledger_entries ("+ledgerColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		entry.ID, entry.OrgID, entry.PropertyID, entry.Date.Unix(), entry.Type, entry.Description,
		entry.Amount.Amount, entry.Amount.Currency, string(entry.Category), nullString(entry.Reference),
		origAmount, origCurrency, rateID, rate, rateDate, rateSource,
		entry.CreatedBy, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

// ListLedgerEntries retrieves all entries for a property in recording order.
func (s *Store) ListLedgerEntries(ctx context.Context, orgID, propertyID string) ([]models.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		"SELECT "+ledgerColumns+" FROM ledger_entries WHERE org_id = ? AND property_id = ? ORDER BY id"),
		orgID, propertyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}
	return entries, nil
}

func scanLedgerEntry(sc scanner) (models.LedgerEntry, error) {
	var (
		e                                   models.LedgerEntry
		date                                int64
		category                            string
		reference                           sql.NullString
		origAmount, rate                    decimal.NullDecimal
		origCurrency, rateID, rateDate, src sql.NullString
	)
	err := sc.Scan(&e.ID, &e.OrgID, &e.PropertyID, &date, &e.Type, &e.Description,
		&e.Amount.Amount, &e.Amount.Currency, &category, &reference,
		&origAmount, &origCurrency, &rateID, &rate, &rateDate, &src,
		&e.CreatedBy, &e.CreatedAt)
	if err != nil {
		return models.LedgerEntry{}, err
	}
	e.Date = time.Unix(date, 0).UTC()
	e.Category = calculator.Category(category)
	e.Reference = reference.String

	if origAmount.Valid {
		day, err := fx.ParseDay(rateDate.String)
		if err != nil {
			return models.LedgerEntry{}, err
		}
		e.Conversion = &fx.ConversionResult{
			Original:  money.Money{Amount: origAmount.Decimal, Currency: origCurrency.String},
			Converted: e.Amount,
			RateID:    rateID.String,
			Rate: fx.ExchangeRate{
				ID:            rateID.String,
				From:          origCurrency.String,
				To:            e.Amount.Currency,
				Rate:          rate.Decimal,
				EffectiveDate: day,
				Source:        fx.Source(src.String),
			},
		}
	}
	return e, nil
}
