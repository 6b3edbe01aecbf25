package service

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/hostledger/pkg/jsoncodec"
)

// FinanceServiceName is the fully-qualified name of the service.
const FinanceServiceName = "hostledger.v1.FinanceService"

// Procedure paths, one per RPC.
const (
	RecordRateProcedure           = "/" + FinanceServiceName + "/RecordRate"
	ResolveRateProcedure          = "/" + FinanceServiceName + "/ResolveRate"
	ConvertProcedure              = "/" + FinanceServiceName + "/Convert"
	PriceLineItemProcedure        = "/" + FinanceServiceName + "/PriceLineItem"
	CreateInvoiceProcedure        = "/" + FinanceServiceName + "/CreateInvoice"
	GetInvoiceProcedure           = "/" + FinanceServiceName + "/GetInvoice"
	AddInvoiceItemProcedure       = "/" + FinanceServiceName + "/AddInvoiceItem"
	RemoveInvoiceItemProcedure    = "/" + FinanceServiceName + "/RemoveInvoiceItem"
	ApplyTemplateProcedure        = "/" + FinanceServiceName + "/ApplyTemplate"
	CreateTemplateProcedure       = "/" + FinanceServiceName + "/CreateTemplate"
	TransitionInvoiceProcedure    = "/" + FinanceServiceName + "/TransitionInvoice"
	RecordInvoicePaymentProcedure = "/" + FinanceServiceName + "/RecordInvoicePayment"
	SplitCommissionProcedure      = "/" + FinanceServiceName + "/SplitCommission"
	AgentCommissionProcedure      = "/" + FinanceServiceName + "/AgentCommission"
	RecordLedgerEntryProcedure    = "/" + FinanceServiceName + "/RecordLedgerEntry"
	GetPropertyBalanceProcedure   = "/" + FinanceServiceName + "/GetPropertyBalance"
	RequestPayoutProcedure        = "/" + FinanceServiceName + "/RequestPayout"
	TransitionPayoutProcedure     = "/" + FinanceServiceName + "/TransitionPayout"
)

func unary[Req, Res any](mux *http.ServeMux, procedure string, fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error), opts []connect.HandlerOption) {
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}

// NewFinanceServiceHandler builds an HTTP handler serving every procedure of
// svc with the JSON codec. It returns the path to mount the handler on.
func NewFinanceServiceHandler(svc *FinanceService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{jsoncodec.Option()}, opts...)
	mux := http.NewServeMux()
	unary(mux, RecordRateProcedure, svc.RecordRate, opts)
	unary(mux, ResolveRateProcedure, svc.ResolveRate, opts)
	unary(mux, ConvertProcedure, svc.Convert, opts)
	unary(mux, PriceLineItemProcedure, svc.PriceLineItem, opts)
	unary(mux, CreateInvoiceProcedure, svc.CreateInvoice, opts)
	unary(mux, GetInvoiceProcedure, svc.GetInvoice, opts)
	unary(mux, AddInvoiceItemProcedure, svc.AddInvoiceItem, opts)
	unary(mux, RemoveInvoiceItemProcedure, svc.RemoveInvoiceItem, opts)
	unary(mux, ApplyTemplateProcedure, svc.ApplyTemplate, opts)
	unary(mux, CreateTemplateProcedure, svc.CreateTemplate, opts)
	unary(mux, TransitionInvoiceProcedure, svc.TransitionInvoice, opts)
	unary(mux, RecordInvoicePaymentProcedure, svc.RecordInvoicePayment, opts)
	unary(mux, SplitCommissionProcedure, svc.SplitCommission, opts)
	unary(mux, AgentCommissionProcedure, svc.AgentCommission, opts)
	unary(mux, RecordLedgerEntryProcedure, svc.RecordLedgerEntry, opts)
	unary(mux, GetPropertyBalanceProcedure, svc.GetPropertyBalance, opts)
	unary(mux, RequestPayoutProcedure, svc.RequestPayout, opts)
	unary(mux, TransitionPayoutProcedure, svc.TransitionPayout, opts)
	return "/" + FinanceServiceName + "/", mux
}

// FinanceServiceClient calls a remote FinanceService.
type FinanceServiceClient struct {
	recordRate           *connect.Client[RecordRateRequest, RecordRateResponse]
	resolveRate          *connect.Client[ResolveRateRequest, ResolveRateResponse]
	convert              *connect.Client[ConvertRequest, ConvertResponse]
	priceLineItem        *connect.Client[PriceLineItemRequest, PriceLineItemResponse]
	createInvoice        *connect.Client[CreateInvoiceRequest, InvoiceResponse]
	getInvoice           *connect.Client[GetInvoiceRequest, InvoiceResponse]
	addInvoiceItem       *connect.Client[AddInvoiceItemRequest, InvoiceResponse]
	removeInvoiceItem    *connect.Client[RemoveInvoiceItemRequest, InvoiceResponse]
	applyTemplate        *connect.Client[ApplyTemplateRequest, InvoiceResponse]
	createTemplate       *connect.Client[CreateTemplateRequest, TemplateResponse]
	transitionInvoice    *connect.Client[TransitionInvoiceRequest, InvoiceResponse]
	recordInvoicePayment *connect.Client[RecordInvoicePaymentRequest, InvoiceResponse]
	splitCommission      *connect.Client[SplitCommissionRequest, SplitCommissionResponse]
	agentCommission      *connect.Client[AgentCommissionRequest, AgentCommissionResponse]
	recordLedgerEntry    *connect.Client[RecordLedgerEntryRequest, LedgerEntryResponse]
	getPropertyBalance   *connect.Client[GetPropertyBalanceRequest, PropertyBalanceResponse]
	requestPayout        *connect.Client[RequestPayoutRequest, PayoutResponse]
	transitionPayout     *connect.Client[TransitionPayoutRequest, PayoutResponse]
}

// NewFinanceServiceClient creates a client for the service at baseURL.
func NewFinanceServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *FinanceServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{jsoncodec.Option()}, opts...)
	return &FinanceServiceClient{
		recordRate:           connect.NewClient[RecordRateRequest, RecordRateResponse](httpClient, baseURL+RecordRateProcedure, opts...),
		resolveRate:          connect.NewClient[ResolveRateRequest, ResolveRateResponse](httpClient, baseURL+ResolveRateProcedure, opts...),
		convert:              connect.NewClient[ConvertRequest, ConvertResponse](httpClient, baseURL+ConvertProcedure, opts...),
		priceLineItem:        connect.NewClient[PriceLineItemRequest, PriceLineItemResponse](httpClient, baseURL+PriceLineItemProcedure, opts...),
		createInvoice:        connect.NewClient[CreateInvoiceRequest, InvoiceResponse](httpClient, baseURL+CreateInvoiceProcedure, opts...),
		getInvoice:           connect.NewClient[GetInvoiceRequest, InvoiceResponse](httpClient, baseURL+GetInvoiceProcedure, opts...),
		addInvoiceItem:       connect.NewClient[AddInvoiceItemRequest, InvoiceResponse](httpClient, baseURL+AddInvoiceItemProcedure, opts...),
		removeInvoiceItem:    connect.NewClient[RemoveInvoiceItemRequest, InvoiceResponse](httpClient, baseURL+RemoveInvoiceItemProcedure, opts...),
		applyTemplate:        connect.NewClient[ApplyTemplateRequest, InvoiceResponse](httpClient, baseURL+ApplyTemplateProcedure, opts...),
		createTemplate:       connect.NewClient[CreateTemplateRequest, TemplateResponse](httpClient, baseURL+CreateTemplateProcedure, opts...),
		transitionInvoice:    connect.NewClient[TransitionInvoiceRequest, InvoiceResponse](httpClient, baseURL+TransitionInvoiceProcedure, opts...),
		recordInvoicePayment: connect.NewClient[RecordInvoicePaymentRequest, InvoiceResponse](httpClient, baseURL+RecordInvoicePaymentProcedure, opts...),
		splitCommission:      connect.NewClient[SplitCommissionRequest, SplitCommissionResponse](httpClient, baseURL+SplitCommissionProcedure, opts...),
		agentCommission:      connect.NewClient[AgentCommissionRequest, AgentCommissionResponse](httpClient, baseURL+AgentCommissionProcedure, opts...),
		recordLedgerEntry:    connect.NewClient[RecordLedgerEntryRequest, LedgerEntryResponse](httpClient, baseURL+RecordLedgerEntryProcedure, opts...),
		getPropertyBalance:   connect.NewClient[GetPropertyBalanceRequest, PropertyBalanceResponse](httpClient, baseURL+GetPropertyBalanceProcedure, opts...),
		requestPayout:        connect.NewClient[RequestPayoutRequest, PayoutResponse](httpClient, baseURL+RequestPayoutProcedure, opts...),
		transitionPayout:     connect.NewClient[TransitionPayoutRequest, PayoutResponse](httpClient, baseURL+TransitionPayoutProcedure, opts...),
	}
}

func (c *FinanceServiceClient) RecordRate(ctx context.Context, req *connect.Request[RecordRateRequest]) (*connect.Response[RecordRateResponse], error) {
	return c.recordRate.CallUnary(ctx, req)
}

func (c *FinanceServiceClient) ResolveRate(ctx context.Context, req *connect.Request[ResolveRateRequest]) (*connect.Response[ResolveRateResponse], error) {
	return c.resolveRate.CallUnary(ctx, req)
}

func (c *FinanceServiceClient) Convert(ctx context.Context, req *connect.Request[ConvertRequest]) (*connect.Response[ConvertResponse], error) {
	return c.convert.CallUnary(ctx, req)
}

func (c *FinanceServiceClient) PriceLineItem(ctx context.Context, req *connect.Request[PriceLineItemRequest]) (*connect.Response[PriceLineItemResponse], error) {
	return c.priceLineItem.CallUnary(ctx, req)
}

func (c *FinanceServiceClient) CreateInvoice(ctx context.Context, req *connect.Request[CreateInvoiceRequest]) (*connect.Response[InvoiceResponse], error) {
	return c.createInvoice.CallUnary(ctx, req)
}

func (c *FinanceServiceClient) GetInvoice(ctx context.Context, req *connect.Request[GetInvoiceRequest]) (*connect.Response[InvoiceResponse], error) {
	return c.getInvoice.CallUnary(ctx, req)
}

func (c *FinanceServiceClient) AddInvoiceItem(ctx context.Context, req *connect.Request[AddInvoiceItemRequest]) (*connect.Response[InvoiceResponse], error) {
	return c.addInvoiceItem.CallUnary(ctx, req)
}

func (c *FinanceServiceClient) RemoveInvoiceItem(ctx context.Context, req *connect.Request[RemoveInvoiceItemRequest]) (*connect.Response[InvoiceResponse], error) {
	return c.removeInvoiceItem.CallUnary(ctx, req)
}

func (c *FinanceServiceClient) ApplyTemplate(ctx context.Context, req *connect.Request[ApplyTemplateRequest]) (*connect.Response[InvoiceResponse], error) {
	return c.applyTemplate.CallUnary(ctx, req)
}

func (c *FinanceServiceClient) CreateTemplate(ctx context.Context, req *connect.Request[CreateTemplateRequest]) (*connect.Response[TemplateResponse], error) {
	return c.createTemplate.CallUnary(ctx, req)
}

func (c *FinanceServiceClient) TransitionInvoice(ctx context.Context, req *connect.Request[TransitionInvoiceRequest]) (*connect.Response[InvoiceResponse], error) {
	return c.transitionInvoice.CallUnary(ctx, req)
}

func (c *FinanceServiceClient) RecordInvoicePayment(ctx context.Context, req *connect.Request[RecordInvoicePaymentRequest]) (*connect.Response[InvoiceResponse], error) {
	return c.recordInvoicePayment.CallUnary(ctx, req)
}

func (c *FinanceServiceClient) SplitCommission(ctx context.Context, req *connect.Request[SplitCommissionRequest]) (*connect.Response[SplitCommissionResponse], error) {
	return c.splitCommission.CallUnary(ctx, req)
}

func (c *FinanceServiceClient) AgentCommission(ctx context.Context, req *connect.Request[AgentCommissionRequest]) (*connect.Response[AgentCommissionResponse], error) {
	return c.agentCommission.CallUnary(ctx, req)
}

func (c *FinanceServiceClient) RecordLedgerEntry(ctx context.Context, req *connect.Request[RecordLedgerEntryRequest]) (*connect.Response[LedgerEntryResponse], error) {
	return c.recordLedgerEntry.CallUnary(ctx, req)
}

func (c *FinanceServiceClient) GetPropertyBalance(ctx context.Context, req *connect.Request[GetPropertyBalanceRequest]) (*connect.Response[PropertyBalanceResponse], error) {
	return c.getPropertyBalance.CallUnary(ctx, req)
}

func (c *FinanceServiceClient) RequestPayout(ctx context.Context, req *connect.Request[RequestPayoutRequest]) (*connect.Response[PayoutResponse], error) {
	return c.requestPayout.CallUnary(ctx, req)
}

func (c *FinanceServiceClient) TransitionPayout(ctx context.Context, req *connect.Request[TransitionPayoutRequest]) (*connect.Response[PayoutResponse], error) {
	return c.transitionPayout.CallUnary(ctx, req)
}
