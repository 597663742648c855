package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
	"github.com/shopspring/decimal"
)

const (
	InvoiceOpen      State = "OPEN"
	InvoicePaid      State = "PAID"
	InvoiceCancelled State = "CANCELLED"
	// InvoiceClosed is the terminal substate of a paid invoice settled by a closure.
	InvoiceClosed State = "CLOSED"
)

// PaymentMethod represents how an invoice was paid.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodCard     PaymentMethod = "CARD"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodCheck    PaymentMethod = "CHECK"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer, PaymentMethodCheck:
		return true
	}
	return false
}

// InvoiceItem is one billed catalog line, priced at issue time.
type InvoiceItem struct {
	ID            string          `json:"id"`
	InvoiceID     string          `json:"invoiceID"`
	CatalogItemID string          `json:"catalogItemID"`
	Description   string          `json:"description"`
	Quantity      int64           `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	TaxRate       decimal.Decimal `json:"taxRate"`
	LineSubtotal  decimal.Decimal `json:"lineSubtotal"`
	LineTax       decimal.Decimal `json:"lineTax"`
}

// Invoice is a monetary document billing one or more records.
type Invoice struct {
	ID               string          `json:"id"`
	Code             string          `json:"code"` // FAC-YYYYMMDD-NNNN
	Subtotal         decimal.Decimal `json:"subtotal"`
	Tax              decimal.Decimal `json:"tax"`
	Discount         decimal.Decimal `json:"discount"`
	Total            decimal.Decimal `json:"total"`
	FiscalNumber     *string         `json:"fiscalNumber,omitempty"`
	CashSessionID    *string         `json:"cashSessionID,omitempty"`
	ClosureID        *string         `json:"closureID,omitempty"`
	PaymentMethod    PaymentMethod   `json:"paymentMethod,omitempty"`
	PaymentReference string          `json:"paymentReference,omitempty"`
	PaidAt           *time.Time      `json:"paidAt,omitempty"`
	PaidBy           string          `json:"paidBy,omitempty"`
	CancelReason     string          `json:"cancelReason,omitempty"`
	Items            []InvoiceItem   `json:"items"`
	Links            []RecordLink    `json:"links"`
	Lifecycle
	AuditFields

	// Reservation is set only on the invoice returned by a payment. It is never stored.
	Reservation *FiscalReservation `json:"-"`
}

func (i *Invoice) RecordKind() Kind { return KindInvoice }
func (i *Invoice) RecordID() string { return i.ID }

// Payment records money received against an invoice inside a cash session.
type Payment struct {
	ID            string          `json:"id"`
	InvoiceID     string          `json:"invoiceID"`
	CashSessionID string          `json:"cashSessionID"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	Reference     string          `json:"reference"`
	ReceivedBy    string          `json:"receivedBy"`
	ReceivedAt    time.Time       `json:"receivedAt"`
}

// PriceLine prices quantity units of a catalog item.
func PriceLine(item CatalogItem, quantity int64) InvoiceItem {
	qty := decimal.NewFromInt(quantity)
	subtotal := item.Price.Mul(qty).Round(2)
	return InvoiceItem{
		CatalogItemID: item.ID,
		Description:   item.Description,
		Quantity:      quantity,
		UnitPrice:     item.Price,
		TaxRate:       item.TaxRate,
		LineSubtotal:  subtotal,
		LineTax:       subtotal.Mul(item.TaxRate).Round(2),
	}
}

// ComputeTotals sums the priced lines and applies the discount.
func ComputeTotals(items []InvoiceItem, discount decimal.Decimal) (subtotal, tax, total decimal.Decimal, err error) {
	if len(items) == 0 {
		return decimal.Zero, decimal.Zero, decimal.Zero, fmt.Errorf("%w: an invoice needs at least one item", apperrors.ErrValidation)
	}
	if discount.IsNegative() {
		return decimal.Zero, decimal.Zero, decimal.Zero, fmt.Errorf("%w: discount cannot be negative", apperrors.ErrValidation)
	}
	subtotal, tax = decimal.Zero, decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineSubtotal)
		tax = tax.Add(it.LineTax)
	}
	total = subtotal.Add(tax).Sub(discount)
	if total.IsNegative() {
		return decimal.Zero, decimal.Zero, decimal.Zero, fmt.Errorf("%w: discount %s exceeds invoice amount %s", apperrors.ErrValidation, discount, subtotal.Add(tax))
	}
	return subtotal, tax, total, nil
}

// CheckTotals verifies total = subtotal + tax - discount.
func (i *Invoice) CheckTotals() error {
	expected := i.Subtotal.Add(i.Tax).Sub(i.Discount)
	if !i.Total.Equal(expected) || i.Total.IsNegative() {
		return fmt.Errorf("%w: invoice %s total %s does not match %s + %s - %s",
			apperrors.ErrIntegrity, i.Code, i.Total, i.Subtotal, i.Tax, i.Discount)
	}
	return nil
}

// LinksOf returns the ids of the linked records of the given kind.
func (i *Invoice) LinksOf(kind Kind) []string {
	var ids []string
	for _, l := range i.Links {
		if l.Kind == kind {
			ids = append(ids, l.RecordID)
		}
	}
	return ids
}

// IsSettled reports whether the invoice has been paid (and possibly closed).
func (i *Invoice) IsSettled() bool {
	return i.State == InvoicePaid || i.State == InvoiceClosed
}
