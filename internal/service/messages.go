package service

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/hostledger/internal/calculator"
	"github.com/mmynk/hostledger/internal/fx"
	"github.com/mmynk/hostledger/internal/models"
	"github.com/mmynk/hostledger/internal/money"
)

// Dates on the wire are YYYY-MM-DD strings; an empty date means today.

type RecordRateRequest struct {
	From          string          `json:"from"`
	To            string          `json:"to"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate string          `json:"effective_date"`
	Source        fx.Source       `json:"source,omitempty"`
}

type RecordRateResponse struct {
	ID string `json:"id"`
}

type ResolveRateRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	On   string `json:"on,omitempty"`
}

type ResolveRateResponse struct {
	Rate fx.ExchangeRate `json:"rate"`
}

type ConvertRequest struct {
	Amount money.Money `json:"amount"`
	To     string      `json:"to"`
	On     string      `json:"on,omitempty"`
}

type ConvertResponse struct {
	Result fx.ConversionResult `json:"result"`
}

type PriceLineItemRequest struct {
	Item calculator.LineItem `json:"item"`
}

type PriceLineItemResponse struct {
	Line calculator.PricedLineItem `json:"line"`
}

type CreateInvoiceRequest struct {
	Kind       calculator.DocumentKind `json:"kind,omitempty"`
	Currency   string                  `json:"currency"`
	PropertyID string                  `json:"property_id,omitempty"`
	Recipient  string                  `json:"recipient"`
	DueDate    int64                   `json:"due_date,omitempty"`
	Items      []calculator.LineItem   `json:"items,omitempty"`
	// TemplateID, when set, appends the template's items after Items.
	TemplateID string `json:"template_id,omitempty"`
}

type GetInvoiceRequest struct {
	InvoiceID string `json:"invoice_id"`
}

type AddInvoiceItemRequest struct {
	InvoiceID string              `json:"invoice_id"`
	Item      calculator.LineItem `json:"item"`
}

type RemoveInvoiceItemRequest struct {
	InvoiceID string `json:"invoice_id"`
	Index     int    `json:"index"`
}

type ApplyTemplateRequest struct {
	InvoiceID  string `json:"invoice_id"`
	TemplateID string `json:"template_id"`
}

type TransitionInvoiceRequest struct {
	InvoiceID string            `json:"invoice_id"`
	Status    calculator.Status `json:"status"`
}

type RecordInvoicePaymentRequest struct {
	InvoiceID string      `json:"invoice_id"`
	Amount    money.Money `json:"amount"`
}

type InvoiceResponse struct {
	Invoice *models.Invoice `json:"invoice"`
}

type CreateTemplateRequest struct {
	Name     string                `json:"name"`
	Currency string                `json:"currency"`
	Items    []calculator.LineItem `json:"items"`
}

type TemplateResponse struct {
	Template *models.InvoiceTemplate `json:"template"`
}

type SplitCommissionRequest struct {
	Base          money.Money            `json:"base"`
	Rule          calculator.BillingRule `json:"rule"`
	RatePercent   decimal.Decimal        `json:"rate_percent"`
	IncentiveBase *money.Money           `json:"incentive_base,omitempty"`
	// Shares, when set, divides the commission among the named parties.
	Shares []calculator.Share `json:"shares,omitempty"`
	// PropertyID, when set, records the owner's side of an owner-charged
	// or complimentary service in the property ledger.
	PropertyID  string `json:"property_id,omitempty"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty"`
	Reference   string `json:"reference,omitempty"`
}

type SplitCommissionResponse struct {
	Split       calculator.Split        `json:"split"`
	Allocations []calculator.Allocation `json:"allocations,omitempty"`
	Entry       *models.LedgerEntry     `json:"entry,omitempty"`
}

type AgentCommissionRequest struct {
	Total       money.Money     `json:"total"`
	RatePercent decimal.Decimal `json:"rate_percent"`
}

type AgentCommissionResponse struct {
	Commission money.Money `json:"commission"`
}

type RecordLedgerEntryRequest struct {
	PropertyID  string              `json:"property_id"`
	Date        string              `json:"date,omitempty"`
	Type        string              `json:"type"`
	Description string              `json:"description"`
	Amount      money.Money         `json:"amount"`
	Category    calculator.Category `json:"category"`
	Reference   string              `json:"reference,omitempty"`
}

type LedgerEntryResponse struct {
	Entry *models.LedgerEntry `json:"entry"`
}

type GetPropertyBalanceRequest struct {
	PropertyID string `json:"property_id"`
}

type PropertyBalanceResponse struct {
	Balance calculator.PropertyBalance `json:"balance"`
}

type RequestPayoutRequest struct {
	PropertyID string      `json:"property_id"`
	Amount     money.Money `json:"amount"`
	Note       string      `json:"note,omitempty"`
}

type TransitionPayoutRequest struct {
	PayoutID string                  `json:"payout_id"`
	Status   calculator.PayoutStatus `json:"status"`
}

type PayoutResponse struct {
	Payout  *models.Payout             `json:"payout"`
	Balance calculator.PropertyBalance `json:"balance"`
}
