package calculator

import "fmt"

// Status is the lifecycle state of a Document. Invoices and bookings use
// disjoint sets of values.
type Status string

const (
	InvoiceDraft   Status = "draft"
	InvoiceSent    Status = "sent"
	InvoicePaid    Status = "paid"
	InvoiceOverdue Status = "overdue"

	BookingPending   Status = "pending"
	BookingConfirmed Status = "confirmed"
	BookingCompleted Status = "completed"
	BookingCancelled Status = "cancelled"
)

var invoiceTransitions = map[Status][]Status{
	InvoiceDraft:   {InvoiceSent},
	InvoiceSent:    {InvoicePaid, InvoiceOverdue},
	InvoiceOverdue: {InvoicePaid},
}

var bookingTransitions = map[Status][]Status{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
}

func initialStatus(kind DocumentKind) (Status, error) {
	switch kind {
	case KindInvoice:
		return InvoiceDraft, nil
	case KindBooking:
		return BookingPending, nil
	}
	return "", fmt.Errorf("unknown document kind %q", kind)
}

func transitionsFor(kind DocumentKind) map[Status][]Status {
	if kind == KindBooking {
		return bookingTransitions
	}
	return invoiceTransitions
}

// CanTransition reports whether a document of the given kind may move from
// one status to another.
func CanTransition(kind DocumentKind, from, to Status) bool {
	for _, next := range transitionsFor(kind)[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionDocument moves doc to status to. An invoice only becomes paid
// once PaidAmount covers its total.
func TransitionDocument(doc Document, to Status) (Document, error) {
	if !CanTransition(doc.Kind, doc.Status, to) {
		return Document{}, &InvalidTransitionError{Entity: string(doc.Kind), From: string(doc.Status), To: string(to)}
	}
	if doc.Kind == KindInvoice && to == InvoicePaid && doc.PaidAmount.Amount.LessThan(doc.Total.Amount) {
		return Document{}, fmt.Errorf("%w: %s outstanding", ErrInvalidTransition, Outstanding(doc))
	}
	next := doc
	next.Status = to
	return next, nil
}

// Editable reports whether items may still be added or removed. Invoices
// freeze once sent; bookings freeze once completed or cancelled.
func Editable(doc Document) bool {
	switch doc.Kind {
	case KindInvoice:
		return doc.Status == InvoiceDraft
	case KindBooking:
		return doc.Status == BookingPending || doc.Status == BookingConfirmed
	}
	return false
}
