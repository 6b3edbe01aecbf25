package models

import "github.com/mmynk/hostledger/internal/calculator"

// LedgerEntry is a stored ledger entry. Amounts are always in the
// reporting currency; the embedded entry's Conversion records the original
// amount and the rate used when it was entered in another currency.
type LedgerEntry struct {
	// OrgID is the organization the entry belongs to.
	OrgID string `json:"org_id"`

	calculator.LedgerEntry

	// CreatedBy is the user ID that recorded the entry.
	CreatedBy string `json:"created_by"`

	// CreatedAt is the Unix timestamp when the entry was recorded.
	CreatedAt int64 `json:"created_at"`
}
