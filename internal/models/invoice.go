package models

import "github.com/mmynk/hostledger/internal/calculator"

// Invoice is a persisted invoice or booking document.
//
// The embedded Document carries the items and the totals derived from them.
// Totals are stored alongside the items so VerifyTotals can catch a stale
// record on read.
type Invoice struct {
	// ID is the unique identifier for the invoice (UUID format).
	ID string `json:"id"`

	// OrgID is the organization the invoice belongs to.
	OrgID string `json:"org_id"`

	// PropertyID is the property billed. Empty for org-level invoices.
	PropertyID string `json:"property_id,omitempty"`

	// Number is the human-readable number, e.g. "INV-2025-005".
	// Allocated once by the store when the invoice is created.
	Number string `json:"number"`

	// Recipient is the guest or owner the document is addressed to.
	Recipient string `json:"recipient"`

	calculator.Document

	// DueDate is the Unix timestamp the invoice is due. Zero means no due date.
	DueDate int64 `json:"due_date,omitempty"`

	// CreatedBy is the user ID that created the invoice.
	CreatedBy string `json:"created_by"`

	// CreatedAt is the Unix timestamp when the invoice was created.
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp of the last change.
	UpdatedAt int64 `json:"updated_at"`
}

// InvoiceTemplate is a stored, named set of line items.
type InvoiceTemplate struct {
	// ID is the unique identifier for the template (UUID format).
	ID string `json:"id"`

	// OrgID is the organization the template belongs to.
	OrgID string `json:"org_id"`

	calculator.Template

	// CreatedAt is the Unix timestamp when the template was created.
	CreatedAt int64 `json:"created_at"`
}
