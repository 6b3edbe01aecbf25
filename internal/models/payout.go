package models

import "github.com/mmynk/hostledger/internal/calculator"

// Payout is a stored payout request. Version increments on every status
// change and guards updates against concurrent writers.
type Payout struct {
	// OrgID is the organization the payout belongs to.
	OrgID string `json:"org_id"`

	calculator.PayoutRequest

	// RequestedBy is the user ID that asked for the payout.
	RequestedBy string `json:"requested_by"`
}
