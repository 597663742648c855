package dto

import (
	"time"

	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	"github.com/shopspring/decimal"
)

// InvoiceLineRequest bills quantity units of a catalog item.
type InvoiceLineRequest struct {
	CatalogItemID string `json:"catalogItemId" binding:"required,uuid"`
	Quantity      int64  `json:"quantity" binding:"required,min=1,max=1000"`
}

// RecordLinkRequest references a record billed by the invoice.
type RecordLinkRequest struct {
	Kind     domain.Kind `json:"kind" binding:"required,oneof=REGISTRATION_REQUEST COMPANY_REQUEST COMPLAINT COMPANY"`
	RecordID string      `json:"recordId" binding:"required,uuid"`
}

// CreateInvoiceRequest defines the data needed to bill catalog items.
type CreateInvoiceRequest struct {
	Items    []InvoiceLineRequest `json:"items" binding:"required,min=1,dive"`
	Discount decimal.Decimal      `json:"discount" binding:"decimalgte0"`
	Links    []RecordLinkRequest  `json:"links" binding:"dive"`
}

// PayInvoiceRequest records a payment at the operator's open cash session.
type PayInvoiceRequest struct {
	Method    domain.PaymentMethod `json:"method" binding:"required,oneof=CASH CARD TRANSFER CHECK"`
	Reference string               `json:"reference" binding:"max=100"`
	// FiscalType defaults to the configured document type when empty.
	FiscalType string `json:"fiscalType" binding:"omitempty,fiscaltype"`
}

// CancelInvoiceRequest cancels an open invoice.
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// InvoiceItemResponse mirrors domain.InvoiceItem.
type InvoiceItemResponse struct {
	CatalogItemID string          `json:"catalogItemID"`
	Description   string          `json:"description"`
	Quantity      int64           `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	TaxRate       decimal.Decimal `json:"taxRate"`
	LineSubtotal  decimal.Decimal `json:"lineSubtotal"`
	LineTax       decimal.Decimal `json:"lineTax"`
}

// InvoiceResponse mirrors domain.Invoice.
type InvoiceResponse struct {
	ID               string                 `json:"id"`
	Code             string                 `json:"code"`
	State            domain.State           `json:"state"`
	Subtotal         decimal.Decimal        `json:"subtotal"`
	Tax              decimal.Decimal        `json:"tax"`
	Discount         decimal.Decimal        `json:"discount"`
	Total            decimal.Decimal        `json:"total"`
	FiscalNumber     *string                `json:"fiscalNumber,omitempty"`
	CashSessionID    *string                `json:"cashSessionID,omitempty"`
	ClosureID        *string                `json:"closureID,omitempty"`
	PaymentMethod    domain.PaymentMethod   `json:"paymentMethod,omitempty"`
	PaymentReference string                 `json:"paymentReference,omitempty"`
	PaidAt           *time.Time             `json:"paidAt,omitempty"`
	CancelReason     string                 `json:"cancelReason,omitempty"`
	Items            []InvoiceItemResponse  `json:"items"`
	Links            []domain.RecordLink    `json:"links"`
	FiscalWarning    *FiscalCapacityWarning `json:"fiscalWarning,omitempty"`
	CreatedAt        time.Time              `json:"createdAt"`
	CreatedBy        string                 `json:"createdBy"`
}

// FiscalCapacityWarning flags a payment whose fiscal range is nearly used up.
type FiscalCapacityWarning struct {
	TypeCode  string `json:"typeCode"`
	Series    string `json:"series"`
	Remaining int64  `json:"remaining"`
}

// ToInvoiceResponse converts a domain.Invoice to InvoiceResponse
func ToInvoiceResponse(inv *domain.Invoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = InvoiceItemResponse{
			CatalogItemID: it.CatalogItemID,
			Description:   it.Description,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			TaxRate:       it.TaxRate,
			LineSubtotal:  it.LineSubtotal,
			LineTax:       it.LineTax,
		}
	}
	links := inv.Links
	if links == nil {
		links = []domain.RecordLink{}
	}
	var warning *FiscalCapacityWarning
	if r := inv.Reservation; r != nil && r.LowCapacity {
		warning = &FiscalCapacityWarning{TypeCode: r.TypeCode, Series: r.Series, Remaining: r.Remaining}
	}
	return InvoiceResponse{
		ID:               inv.ID,
		Code:             inv.Code,
		State:            inv.State,
		Subtotal:         inv.Subtotal,
		Tax:              inv.Tax,
		Discount:         inv.Discount,
		Total:            inv.Total,
		FiscalNumber:     inv.FiscalNumber,
		CashSessionID:    inv.CashSessionID,
		ClosureID:        inv.ClosureID,
		PaymentMethod:    inv.PaymentMethod,
		PaymentReference: inv.PaymentReference,
		PaidAt:           inv.PaidAt,
		CancelReason:     inv.CancelReason,
		Items:            items,
		Links:            links,
		FiscalWarning:    warning,
		CreatedAt:        inv.CreatedAt,
		CreatedBy:        inv.CreatedBy,
	}
}
