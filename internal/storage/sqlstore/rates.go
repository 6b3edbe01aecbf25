package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/hostledger/internal/fx"
)

const rateColumns = "id, from_currency, to_currency, rate, effective_date, source, recorded_at"

// InsertRate persists an exchange rate. The registry assigns the ID.
func (s *Store) InsertRate(ctx context.Context, rate fx.ExchangeRate) error {
	_, err := s.exec(ctx, nil,
		"INSERT INTO exchange_rates ("+rateColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		rate.ID, rate.From, rate.To, rate.Rate, rate.EffectiveDate.Format(fx.DateLayout),
		string(rate.Source), rate.RecordedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert exchange rate: %w", err)
	}
	return nil
}

// LatestRate returns the newest record for the pair effective on or before
// onDate. A later ID wins among records for the same day.
func (s *Store) LatestRate(ctx context.Context, from, to string, onDate time.Time) (fx.ExchangeRate, error) {
	row := s.db.QueryRowContext(ctx, s.q(
		"SELECT "+rateColumns+" FROM exchange_rates"+
			" WHERE from_currency = ? AND to_currency = ? AND effective_date <= ?"+
			" ORDER BY effective_date DESC, id DESC LIMIT 1"),
		from, to, fx.Day(onDate).Format(fx.DateLayout),
	)
	rate, err := scanRate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return fx.ExchangeRate{}, fmt.Errorf("%s->%s on %s: %w", from, to, onDate.Format(fx.DateLayout), fx.ErrRateNotFound)
	}
	if err != nil {
		return fx.ExchangeRate{}, fmt.Errorf("failed to get exchange rate: %w", err)
	}
	return rate, nil
}

// ListRates returns the full history for a pair.
func (s *Store) ListRates(ctx context.Context, from, to string) ([]fx.ExchangeRate, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		"SELECT "+rateColumns+" FROM exchange_rates"+
			" WHERE from_currency = ? AND to_currency = ? ORDER BY effective_date, id"),
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchange rates: %w", err)
	}
	defer rows.Close()

	var rates []fx.ExchangeRate
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exchange rate: %w", err)
		}
		rates = append(rates, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate exchange rates: %w", err)
	}
	return rates, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRate(sc scanner) (fx.ExchangeRate, error) {
	var (
		r         fx.ExchangeRate
		effective string
		source    string
		recorded  int64
	)
	if err := sc.Scan(&r.ID, &r.From, &r.To, &r.Rate, &effective, &source, &recorded); err != nil {
		return fx.ExchangeRate{}, err
	}
	day, err := fx.ParseDay(effective)
	if err != nil {
		return fx.ExchangeRate{}, err
	}
	r.EffectiveDate = day
	r.Source = fx.Source(source)
	r.RecordedAt = time.Unix(recorded, 0).UTC()
	return r, nil
}
