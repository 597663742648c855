package repositories

import "context"

// Tx exposes the repositories bound to one open transaction.
// Every read and write made through a Tx commits or rolls back together.
type Tx interface {
	Codes() CodeCounterRepository
	Sequences() FiscalSequenceRepository
	Catalog() CatalogRepository
	Invoices() InvoiceRepository
	CashSessions() CashSessionRepository
	RegistrationRequests() RegistrationRequestRepository
	CompanyRequests() CompanyRequestRepository
	Companies() CompanyRepository
	InspectionCases() InspectionCaseRepository
	Actas() ActaRepository
	LegalCases() LegalCaseRepository
	Complaints() ComplaintRepository
	Transitions() TransitionRepository
}

// UnitOfWork runs a function inside a single transaction.
type UnitOfWork interface {
	// WithinTx commits when fn returns nil and rolls back otherwise, including on panic
	// and on context cancellation.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
