// Package models defines the persisted records of the finance service.
//
// # Records
//
//   - Invoice: a numbered invoice or booking document with its line items
//   - InvoiceTemplate: a named, reusable set of line items
//   - LedgerEntry: one signed transaction against a property
//   - Payout: an owner payout request and its lifecycle
//
// Exchange rates are persisted as fx.ExchangeRate directly.
//
// # Design Principles
//
// 1. **Computation lives elsewhere**: records embed the calculator types and
// never derive figures themselves
// 2. **Explicit tenancy**: every record carries the OrgID it was created
// under; stores filter on it rather than on any ambient default
// 3. **Avoid circular references**: relationships are ID strings, not pointers
// 4. **Immutable history**: ledger entries and rates are appended, never edited
package models
