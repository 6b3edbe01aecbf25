package sqlstore

import (
	"context"
	"fmt"
	"strings"
)

// schema is written in the subset of SQL shared by SQLite and PostgreSQL.
// Money amounts and rates are TEXT holding exact decimal strings.
// IMPORTANT: parent tables must be created before the tables referencing them.
const schema = `
CREATE TABLE IF NOT EXISTS exchange_rates (
    id TEXT PRIMARY KEY,
    from_currency TEXT NOT NULL,
    to_currency TEXT NOT NULL,
    rate TEXT NOT NULL,
    effective_date TEXT NOT NULL,
    source TEXT NOT NULL,
    recorded_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS invoice_counters (
    org_id TEXT NOT NULL,
    year INTEGER NOT NULL,
    last_number INTEGER NOT NULL,
    PRIMARY KEY (org_id, year)
);

CREATE TABLE IF NOT EXISTS invoices (
    id TEXT PRIMARY KEY,
    org_id TEXT NOT NULL,
    number TEXT NOT NULL,
    property_id TEXT,
    recipient TEXT NOT NULL,
    kind TEXT NOT NULL,
    currency TEXT NOT NULL,
    status TEXT NOT NULL,
    subtotal TEXT NOT NULL,
    discount_total TEXT NOT NULL,
    tax_total TEXT NOT NULL,
    total TEXT NOT NULL,
    paid_amount TEXT NOT NULL,
    due_date BIGINT NOT NULL,
    created_by TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    UNIQUE (org_id, number)
);

CREATE TABLE IF NOT EXISTS invoice_items (
    invoice_id TEXT NOT NULL,
    pos INTEGER NOT NULL,
    description TEXT NOT NULL,
    quantity TEXT NOT NULL,
    unit_price TEXT NOT NULL,
    tax_rate TEXT NOT NULL,
    discount TEXT NOT NULL,
    PRIMARY KEY (invoice_id, pos),
    FOREIGN KEY (invoice_id) REFERENCES invoices(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS invoice_templates (
    id TEXT PRIMARY KEY,
    org_id TEXT NOT NULL,
    name TEXT NOT NULL,
    currency TEXT NOT NULL,
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS template_items (
    template_id TEXT NOT NULL,
    pos INTEGER NOT NULL,
    description TEXT NOT NULL,
    quantity TEXT NOT NULL,
    unit_price TEXT NOT NULL,
    tax_rate TEXT NOT NULL,
    discount TEXT NOT NULL,
    PRIMARY KEY (template_id, pos),
    FOREIGN KEY (template_id) REFERENCES invoice_templates(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS ledger_entries (
    id TEXT PRIMARY KEY,
    org_id TEXT NOT NULL,
    property_id TEXT NOT NULL,
    entry_date BIGINT NOT NULL,
    entry_type TEXT NOT NULL,
    description TEXT NOT NULL,
    amount TEXT NOT NULL,
    currency TEXT NOT NULL,
    category TEXT NOT NULL,
    reference TEXT,
    conv_original_amount TEXT,
    conv_original_currency TEXT,
    conv_rate_id TEXT,
    conv_rate TEXT,
    conv_rate_date TEXT,
    conv_rate_source TEXT,
    created_by TEXT NOT NULL,
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS payouts (
    id TEXT PRIMARY KEY,
    org_id TEXT NOT NULL,
    property_id TEXT NOT NULL,
    amount TEXT NOT NULL,
    currency TEXT NOT NULL,
    status TEXT NOT NULL,
    version BIGINT NOT NULL,
    note TEXT,
    requested_by TEXT NOT NULL,
    requested_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_exchange_rates_pair ON exchange_rates(from_currency, to_currency, effective_date);
CREATE INDEX IF NOT EXISTS idx_invoices_org_id ON invoices(org_id);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_property ON ledger_entries(org_id, property_id);
CREATE INDEX IF NOT EXISTS idx_payouts_property ON payouts(org_id, property_id);
`

// Migrate applies the schema. Statements are run one at a time because the
// PostgreSQL driver does not accept several in one extended-protocol call.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
