package fx

import (
	"context"
	"sync"
	"time"
)

// RateStore persists rate records. Implementations never update or delete a record.
type RateStore interface {
	// InsertRate stores rate as-is. ID, RecordedAt and EffectiveDate are already set.
	InsertRate(ctx context.Context, rate ExchangeRate) error

	// LatestRate returns the record for from->to with the greatest
	// EffectiveDate not after onDate, newest ID winning ties.
	// Returns ErrRateNotFound when no record qualifies.
	LatestRate(ctx context.Context, from, to string, onDate time.Time) (ExchangeRate, error)
}

// MemoryStore is an in-process RateStore.
type MemoryStore struct {
	mu    sync.RWMutex
	rates map[pair][]ExchangeRate
}

type pair struct{ from, to string }

var _ RateStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rates: make(map[pair][]ExchangeRate)}
}

func (s *MemoryStore) InsertRate(ctx context.Context, rate ExchangeRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pair{rate.From, rate.To}
	s.rates[k] = append(s.rates[k], rate)
	return nil
}

func (s *MemoryStore) LatestRate(ctx context.Context, from, to string, onDate time.Time) (ExchangeRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		best  ExchangeRate
		found bool
	)
	for _, r := range s.rates[pair{from, to}] {
		if r.EffectiveDate.After(onDate) {
			continue
		}
		if !found || newer(r, best) {
			best, found = r, true
		}
	}
	if !found {
		return ExchangeRate{}, ErrRateNotFound
	}
	return best, nil
}

func newer(a, b ExchangeRate) bool {
	if !a.EffectiveDate.Equal(b.EffectiveDate) {
		return a.EffectiveDate.After(b.EffectiveDate)
	}
	return a.ID > b.ID
}
