package services

import (
	"context"

	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	portsrepo "github.com/SscSPs/onda_backoffice/internal/core/ports/repositories"
	"github.com/SscSPs/onda_backoffice/internal/dto"
	"github.com/shopspring/decimal"
)

// SequenceReaderSvc defines read operations for fiscal sequences.
type SequenceReaderSvc interface {
	GetSequence(ctx context.Context, id string) (*domain.FiscalSequence, error)
}

// SequenceWriterSvc defines administration of fiscal sequences.
type SequenceWriterSvc interface {
	// CreateSequence registers a range. Overlapping an active range of the same type and series is a conflict.
	CreateSequence(ctx context.Context, req dto.CreateSequenceRequest, actor string) (*domain.FiscalSequence, error)

	// DeactivateSequence withdraws a range from use.
	DeactivateSequence(ctx context.Context, id string, actor string) (*domain.FiscalSequence, error)

	// ReserveNumber issues one fiscal number in its own transaction.
	ReserveNumber(ctx context.Context, typeCode string) (*domain.FiscalReservation, error)
}

// SequenceTxSupport issues numbers inside a caller's transaction.
type SequenceTxSupport interface {
	// Reserve issues the next number of typeCode. The cursor advance commits with tx.
	Reserve(ctx context.Context, tx portsrepo.Tx, typeCode string) (domain.FiscalReservation, error)
}

// SequenceSvcFacade combines all fiscal sequence operations.
type SequenceSvcFacade interface {
	SequenceReaderSvc
	SequenceWriterSvc
	SequenceTxSupport
}

// CashSessionReaderSvc defines read operations for cash sessions.
type CashSessionReaderSvc interface {
	GetSession(ctx context.Context, id string) (*domain.CashSession, error)
	GetClosure(ctx context.Context, id string) (*domain.Closure, error)
}

// CashSessionWriterSvc defines the cash-register lifecycle.
type CashSessionWriterSvc interface {
	// Open creates a session and its paired closure. An operator owning an open session gets a conflict.
	Open(ctx context.Context, operatorID, description string) (*domain.CashSession, *domain.Closure, error)

	// AttachInvoice attaches an open invoice to an open session.
	AttachInvoice(ctx context.Context, sessionID, invoiceID, actor string) (*domain.Invoice, error)

	// Close reconciles the session against the declared amount and settles its invoices.
	Close(ctx context.Context, sessionID string, declared decimal.Decimal, notes, actor string) (*domain.SessionSettlement, error)
}

// CashSessionTxSupport lets other services collect money inside their own transaction.
type CashSessionTxSupport interface {
	// OpenSessionOf locks the operator's open session. Without one it fails with a precondition error.
	OpenSessionOf(ctx context.Context, tx portsrepo.Tx, operatorID string) (*domain.CashSession, error)

	// Collect adds amount to the session's running total.
	Collect(ctx context.Context, tx portsrepo.Tx, session *domain.CashSession, amount decimal.Decimal, actor string) error
}

// CashSessionSvcFacade combines all cash session operations.
type CashSessionSvcFacade interface {
	CashSessionReaderSvc
	CashSessionWriterSvc
	CashSessionTxSupport
}

// InvoiceReaderSvc defines read operations for invoices.
type InvoiceReaderSvc interface {
	GetInvoice(ctx context.Context, id string) (*domain.Invoice, error)
}

// InvoiceWriterSvc defines invoice creation and cancellation.
type InvoiceWriterSvc interface {
	CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest, actor string) (*domain.Invoice, error)
	CancelInvoice(ctx context.Context, id, reason, actor string) (*domain.Invoice, error)
}

// InvoiceTxSupport bills records inside a caller's transaction.
type InvoiceTxSupport interface {
	// Issue prices the lines and stores an open invoice linked to links.
	Issue(ctx context.Context, tx portsrepo.Tx, lines []dto.InvoiceLineRequest, discount decimal.Decimal, links []domain.RecordLink, actor string) (*domain.Invoice, error)

	// IssueForItemCode bills one unit of the catalog item with the given code to every link.
	// A missing or inactive item is a configuration error.
	IssueForItemCode(ctx context.Context, tx portsrepo.Tx, itemCode, actor string, links ...domain.RecordLink) (*domain.Invoice, error)
}

// InvoiceSvcFacade combines all invoice operations.
type InvoiceSvcFacade interface {
	InvoiceReaderSvc
	InvoiceWriterSvc
	InvoiceTxSupport
}
