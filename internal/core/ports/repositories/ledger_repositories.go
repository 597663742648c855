package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/onda_backoffice/internal/core/domain"
)

// FiscalSequenceRepository stores fiscal numbering ranges.
type FiscalSequenceRepository interface {
	RecordReader[domain.FiscalSequence]

	// Save inserts a new sequence.
	Save(ctx context.Context, seq domain.FiscalSequence) error

	// Update persists cursor and active flag.
	Update(ctx context.Context, seq domain.FiscalSequence) error

	// ListActiveForUpdate locks the active sequences of a type and series. The lock covers the
	// whole type, so it also excludes concurrent reservations.
	// Concurrent callers for the same type and series are serialized even when none exist yet.
	ListActiveForUpdate(ctx context.Context, typeCode, series string) ([]domain.FiscalSequence, error)

	// NextUsableForUpdate locks the active, unexpired, non-exhausted sequence of typeCode with the
	// lowest cursor. Returns apperrors.ErrNotFound when there is none.
	NextUsableForUpdate(ctx context.Context, typeCode string, asOf time.Time) (*domain.FiscalSequence, error)
}

// CatalogRepository reads billable catalog items.
type CatalogRepository interface {
	FindByCode(ctx context.Context, code string) (*domain.CatalogItem, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]domain.CatalogItem, error)
}

// InvoiceRepository stores invoices with their lines, links and payments.
type InvoiceRepository interface {
	LifecycleRepository[domain.Invoice]

	// ListBySessionForUpdate locks every invoice attached to the session.
	ListBySessionForUpdate(ctx context.Context, sessionID string) ([]domain.Invoice, error)

	// ListByLink returns the invoices billing the given record.
	ListByLink(ctx context.Context, kind domain.Kind, recordID string) ([]domain.Invoice, error)

	// UpdateMany writes a batch of invoices already moved out of state from.
	UpdateMany(ctx context.Context, invoices []domain.Invoice, from domain.State) error

	// SavePayment records a payment entry.
	SavePayment(ctx context.Context, p domain.Payment) error

	// ListPayments returns the payments of an invoice.
	ListPayments(ctx context.Context, invoiceID string) ([]domain.Payment, error)
}

// CashSessionRepository stores cash sessions and their closures.
type CashSessionRepository interface {
	LifecycleRepository[domain.CashSession]

	// FindOpenByOperatorForUpdate returns apperrors.ErrNotFound when the operator has no open session.
	FindOpenByOperatorForUpdate(ctx context.Context, operatorID string) (*domain.CashSession, error)

	SaveClosure(ctx context.Context, c domain.Closure) error
	FindClosureByID(ctx context.Context, id string) (*domain.Closure, error)
	FindClosureByIDForUpdate(ctx context.Context, id string) (*domain.Closure, error)
	UpdateClosure(ctx context.Context, c domain.Closure, from domain.State) error
}
