package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/hostledger/internal/calculator"
	"github.com/mmynk/hostledger/internal/models"
)

// CreateInvoice creates a draft invoice or a pending booking and allocates
// its number.
func (s *FinanceService) CreateInvoice(ctx context.Context, req *connect.Request[CreateInvoiceRequest]) (*connect.Response[InvoiceResponse], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	m := req.Msg
	if err := required("recipient", m.Recipient); err != nil {
		return nil, connectError(ctx, "CreateInvoice", err)
	}
	kind := m.Kind
	if kind == "" {
		kind = calculator.KindInvoice
	}

	doc, err := calculator.NewDocument(kind, m.Currency)
	if err != nil {
		return nil, connectError(ctx, "CreateInvoice", invalid("%v", err))
	}
	doc.Items = m.Items
	if doc, err = calculator.RecomputeTotals(doc); err != nil {
		return nil, connectError(ctx, "CreateInvoice", err)
	}
	if m.TemplateID != "" {
		tmpl, err := s.store.GetTemplate(ctx, p.OrgID, m.TemplateID)
		if err != nil {
			return nil, connectError(ctx, "CreateInvoice", err)
		}
		if doc, err = calculator.ApplyTemplate(doc, tmpl.Template); err != nil {
			return nil, connectError(ctx, "CreateInvoice", err)
		}
	}
	if err := calculator.VerifyTotals(doc); err != nil {
		return nil, connectError(ctx, "CreateInvoice", err)
	}

	inv := &models.Invoice{
		OrgID:      p.OrgID,
		PropertyID: m.PropertyID,
		Recipient:  m.Recipient,
		Document:   doc,
		DueDate:    m.DueDate,
		CreatedBy:  p.UserID,
	}
	if err := s.store.CreateInvoice(ctx, inv); err != nil {
		return nil, connectError(ctx, "CreateInvoice", err)
	}
	slog.Info("Invoice created",
		"invoice_id", inv.ID,
		"number", inv.Number,
		"kind", inv.Kind,
		"items", len(inv.Items),
		"total", inv.Total.String(),
	)
	return connect.NewResponse(&InvoiceResponse{Invoice: inv}), nil
}

// GetInvoice returns an invoice after checking its stored totals still
// reconcile with its items.
func (s *FinanceService) GetInvoice(ctx context.Context, req *connect.Request[GetInvoiceRequest]) (*connect.Response[InvoiceResponse], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := s.store.GetInvoice(ctx, p.OrgID, req.Msg.InvoiceID)
	if err != nil {
		return nil, connectError(ctx, "GetInvoice", err)
	}
	if err := calculator.VerifyTotals(inv.Document); err != nil {
		return nil, connectError(ctx, "GetInvoice", err)
	}
	return connect.NewResponse(&InvoiceResponse{Invoice: inv}), nil
}

// AddInvoiceItem appends an item and recomputes the totals.
func (s *FinanceService) AddInvoiceItem(ctx context.Context, req *connect.Request[AddInvoiceItemRequest]) (*connect.Response[InvoiceResponse], error) {
	return s.editInvoice(ctx, "AddInvoiceItem", req.Msg.InvoiceID, func(_ string, doc calculator.Document) (calculator.Document, error) {
		return calculator.AddItem(doc, req.Msg.Item)
	})
}

// RemoveInvoiceItem removes the item at index and recomputes the totals.
func (s *FinanceService) RemoveInvoiceItem(ctx context.Context, req *connect.Request[RemoveInvoiceItemRequest]) (*connect.Response[InvoiceResponse], error) {
	return s.editInvoice(ctx, "RemoveInvoiceItem", req.Msg.InvoiceID, func(_ string, doc calculator.Document) (calculator.Document, error) {
		if req.Msg.Index < 0 || req.Msg.Index >= len(doc.Items) {
			return calculator.Document{}, invalid("item index %d out of range [0, %d)", req.Msg.Index, len(doc.Items))
		}
		return calculator.RemoveItem(doc, req.Msg.Index)
	})
}

// ApplyTemplate appends copies of a template's items to an invoice.
func (s *FinanceService) ApplyTemplate(ctx context.Context, req *connect.Request[ApplyTemplateRequest]) (*connect.Response[InvoiceResponse], error) {
	return s.editInvoice(ctx, "ApplyTemplate", req.Msg.InvoiceID, func(orgID string, doc calculator.Document) (calculator.Document, error) {
		tmpl, err := s.store.GetTemplate(ctx, orgID, req.Msg.TemplateID)
		if err != nil {
			return calculator.Document{}, err
		}
		return calculator.ApplyTemplate(doc, tmpl.Template)
	})
}

// TransitionInvoice moves an invoice or booking along its status machine.
func (s *FinanceService) TransitionInvoice(ctx context.Context, req *connect.Request[TransitionInvoiceRequest]) (*connect.Response[InvoiceResponse], error) {
	return s.editInvoice(ctx, "TransitionInvoice", req.Msg.InvoiceID, func(_ string, doc calculator.Document) (calculator.Document, error) {
		return calculator.TransitionDocument(doc, req.Msg.Status)
	})
}

// RecordInvoicePayment adds a payment to a sent or overdue invoice.
func (s *FinanceService) RecordInvoicePayment(ctx context.Context, req *connect.Request[RecordInvoicePaymentRequest]) (*connect.Response[InvoiceResponse], error) {
	return s.editInvoice(ctx, "RecordInvoicePayment", req.Msg.InvoiceID, func(_ string, doc calculator.Document) (calculator.Document, error) {
		return calculator.RecordPayment(doc, req.Msg.Amount)
	})
}

// editInvoice loads an invoice, applies edit, verifies the result and saves
// it. Edits to the same invoice are serialized.
func (s *FinanceService) editInvoice(ctx context.Context, op, invoiceID string, edit func(orgID string, doc calculator.Document) (calculator.Document, error)) (*connect.Response[InvoiceResponse], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if err := required("invoice_id", invoiceID); err != nil {
		return nil, connectError(ctx, op, err)
	}
	defer s.locks.Lock("invoice:" + invoiceID)()

	inv, err := s.store.GetInvoice(ctx, p.OrgID, invoiceID)
	if err != nil {
		return nil, connectError(ctx, op, err)
	}
	if err := calculator.VerifyTotals(inv.Document); err != nil {
		return nil, connectError(ctx, op, err)
	}
	doc, err := edit(p.OrgID, inv.Document)
	if err != nil {
		return nil, connectError(ctx, op, err)
	}
	if err := calculator.VerifyTotals(doc); err != nil {
		return nil, connectError(ctx, op, err)
	}

	prev := inv.Status
	inv.Document = doc
	if err := s.store.UpdateInvoice(ctx, inv); err != nil {
		return nil, connectError(ctx, op, err)
	}
	if prev != inv.Status {
		slog.Info("Invoice status changed", "invoice_id", inv.ID, "number", inv.Number, "from", prev, "to", inv.Status)
	} else {
		slog.Debug("Invoice updated", "invoice_id", inv.ID, "op", op, "total", inv.Total.String())
	}
	return connect.NewResponse(&InvoiceResponse{Invoice: inv}), nil
}

// CreateTemplate stores a reusable set of line items.
func (s *FinanceService) CreateTemplate(ctx context.Context, req *connect.Request[CreateTemplateRequest]) (*connect.Response[TemplateResponse], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	m := req.Msg
	if err := required("name", m.Name); err != nil {
		return nil, connectError(ctx, "CreateTemplate", err)
	}
	tmpl := calculator.Template{Name: strings.TrimSpace(m.Name), Currency: strings.ToUpper(m.Currency), Items: m.Items}
	if err := tmpl.Validate(); err != nil {
		return nil, connectError(ctx, "CreateTemplate", err)
	}

	stored := &models.InvoiceTemplate{OrgID: p.OrgID, Template: tmpl.Clone()}
	if err := s.store.CreateTemplate(ctx, stored); err != nil {
		return nil, connectError(ctx, "CreateTemplate", err)
	}
	slog.Info("Invoice template created", "template_id", stored.ID, "name", stored.Name, "items", len(stored.Items))
	return connect.NewResponse(&TemplateResponse{Template: stored}), nil
}
