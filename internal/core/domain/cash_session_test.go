package domain_test

import (
	"testing"

	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func invoiceIn(id string, state domain.State, total string, closureID *string) *domain.Invoice {
	return &domain.Invoice{ID: id, Total: dec(total), ClosureID: closureID, Lifecycle: domain.Lifecycle{State: state}}
}

func TestReconcile(t *testing.T) {
	earlier := "closure-0"
	invoices := []*domain.Invoice{
		invoiceIn("paid-1", domain.InvoicePaid, "1180.00", nil),
		invoiceIn("paid-2", domain.InvoicePaid, "590.00", nil),
		invoiceIn("open-1", domain.InvoiceOpen, "200.00", nil),
		invoiceIn("settled", domain.InvoiceClosed, "999.00", &earlier),
	}

	r := domain.Reconcile(invoices, dec("1700.00"))

	assert.True(t, r.Expected.Equal(dec("1770.00")))
	assert.True(t, r.Variance.Equal(dec("-70.00")))
	assert.Len(t, r.Settled, 2)
	assert.Len(t, r.Detached, 1)
	assert.Equal(t, "open-1", r.Detached[0].ID)
}

func TestReconcile_EmptySession(t *testing.T) {
	r := domain.Reconcile(nil, dec("0"))
	assert.True(t, r.Expected.IsZero())
	assert.True(t, r.Variance.IsZero())
	assert.Empty(t, r.Settled)
}
