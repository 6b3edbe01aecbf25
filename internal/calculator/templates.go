package calculator

import (
	"fmt"
	"strings"

	"github.com/mmynk/hostledger/internal/metrics"
)

// Template is a named, reusable set of line items.
type Template struct {
	Name     string     `json:"name"`
	Currency string     `json:"currency"`
	Items    []LineItem `json:"items"`
}

// Clone returns a copy that shares no memory with t.
func (t Template) Clone() Template {
	out := t
	out.Items = cloneItems(t.Items)
	return out
}

// Validate prices every item so a broken template is rejected on save
// rather than when it is first applied.
func (t Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("template name is required")
	}
	doc := Document{Kind: KindInvoice, Currency: t.Currency, Items: t.Items}
	_, err := RecomputeTotals(doc)
	return err
}

// ApplyTemplate appends copies of the template's items to doc and
// recomputes. Later edits to the document never reach the template.
func ApplyTemplate(doc Document, t Template) (Document, error) {
	if !Editable(doc) {
		return Document{}, fmt.Errorf("%w: status %s", ErrDocumentLocked, doc.Status)
	}
	src := t.Clone()
	next := doc
	next.Items = append(cloneItems(doc.Items), src.Items...)
	metrics.DocumentRecomputes.WithLabelValues("template").Inc()
	return RecomputeTotals(next)
}
