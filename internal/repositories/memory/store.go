// Package memory is an in-process implementation of the persistence ports. Transactions are
// serialized by one lock and applied copy-on-write, so a failed transaction leaves nothing behind.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	portsrepo "github.com/SscSPs/onda_backoffice/internal/core/ports/repositories"
)

type dataset struct {
	counters        map[string]int64
	catalog         map[string]domain.CatalogItem
	sequences       *records[domain.FiscalSequence]
	invoices        *records[domain.Invoice]
	payments        []domain.Payment
	sessions        *records[domain.CashSession]
	closures        *records[domain.Closure]
	registrations   *records[domain.RegistrationRequest]
	companyRequests *records[domain.CompanyRequest]
	companies       *records[domain.Company]
	inspections     *records[domain.InspectionCase]
	actas           []domain.Acta
	legalCases      *records[domain.LegalCase]
	complaints      *records[domain.Complaint]
	transitions     []domain.StateTransition
}

func newDataset() *dataset {
	return &dataset{
		counters: make(map[string]int64),
		catalog:  make(map[string]domain.CatalogItem),
		sequences: newRecords("fiscal sequence",
			func(s *domain.FiscalSequence) string { return s.ID }, nil, identity[domain.FiscalSequence]),
		invoices: newRecords("invoice",
			func(i *domain.Invoice) string { return i.ID },
			func(i *domain.Invoice) domain.State { return i.State },
			copyInvoice),
		sessions: newRecords("cash session",
			func(s *domain.CashSession) string { return s.ID },
			func(s *domain.CashSession) domain.State { return s.State },
			func(s domain.CashSession) domain.CashSession { s.Lifecycle = copyLifecycle(s.Lifecycle); return s }),
		closures: newRecords("closure",
			func(c *domain.Closure) string { return c.ID },
			func(c *domain.Closure) domain.State { return c.State },
			func(c domain.Closure) domain.Closure { c.Lifecycle = copyLifecycle(c.Lifecycle); return c }),
		registrations: newRecords("registration request",
			func(r *domain.RegistrationRequest) string { return r.ID },
			func(r *domain.RegistrationRequest) domain.State { return r.State },
			func(r domain.RegistrationRequest) domain.RegistrationRequest { r.Lifecycle = copyLifecycle(r.Lifecycle); return r }),
		companyRequests: newRecords("company request",
			func(r *domain.CompanyRequest) string { return r.ID },
			func(r *domain.CompanyRequest) domain.State { return r.State },
			func(r domain.CompanyRequest) domain.CompanyRequest { r.Lifecycle = copyLifecycle(r.Lifecycle); return r }),
		companies: newRecords("company",
			func(c *domain.Company) string { return c.ID }, nil, identity[domain.Company]),
		inspections: newRecords("inspection case",
			func(c *domain.InspectionCase) string { return c.ID },
			func(c *domain.InspectionCase) domain.State { return c.State },
			func(c domain.InspectionCase) domain.InspectionCase { c.Lifecycle = copyLifecycle(c.Lifecycle); return c }),
		legalCases: newRecords("legal case",
			func(c *domain.LegalCase) string { return c.ID },
			func(c *domain.LegalCase) domain.State { return c.State },
			func(c domain.LegalCase) domain.LegalCase { c.Lifecycle = copyLifecycle(c.Lifecycle); return c }),
		complaints: newRecords("complaint",
			func(c *domain.Complaint) string { return c.ID },
			func(c *domain.Complaint) domain.State { return c.State },
			func(c domain.Complaint) domain.Complaint { c.Lifecycle = copyLifecycle(c.Lifecycle); return c }),
	}
}

func copyInvoice(i domain.Invoice) domain.Invoice {
	i.Lifecycle = copyLifecycle(i.Lifecycle)
	i.Items = append([]domain.InvoiceItem(nil), i.Items...)
	i.Links = append([]domain.RecordLink(nil), i.Links...)
	return i
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		counters:        make(map[string]int64, len(d.counters)),
		catalog:         make(map[string]domain.CatalogItem, len(d.catalog)),
		sequences:       d.sequences.clone(),
		invoices:        d.invoices.clone(),
		payments:        append([]domain.Payment(nil), d.payments...),
		sessions:        d.sessions.clone(),
		closures:        d.closures.clone(),
		registrations:   d.registrations.clone(),
		companyRequests: d.companyRequests.clone(),
		companies:       d.companies.clone(),
		inspections:     d.inspections.clone(),
		actas:           append([]domain.Acta(nil), d.actas...),
		legalCases:      d.legalCases.clone(),
		complaints:      d.complaints.clone(),
		transitions:     append([]domain.StateTransition(nil), d.transitions...),
	}
	for k, v := range d.counters {
		c.counters[k] = v
	}
	for k, v := range d.catalog {
		c.catalog[k] = v
	}
	return c
}

// Store is the in-memory unit of work.
type Store struct {
	mu   sync.Mutex
	data *dataset
}

// Option configures a Store.
type Option func(*Store)

// WithCatalog seeds catalog items.
func WithCatalog(items ...domain.CatalogItem) Option {
	return func(s *Store) {
		for _, it := range items {
			s.data.catalog[it.ID] = it
		}
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{data: newDataset()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portsrepo.UnitOfWork = (*Store)(nil)

// WithinTx runs fn against a private copy of the data and publishes it only if fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transaction panicked: %v", r)
		}
	}()

	if err := fn(ctx, &memTx{d: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = work
	return nil
}

type memTx struct {
	d *dataset
}

func (t *memTx) Codes() portsrepo.CodeCounterRepository {
	return counterRepo{t.d}
}

func (t *memTx) Sequences() portsrepo.FiscalSequenceRepository {
	return sequenceRepo{t.d.sequences}
}

func (t *memTx) Catalog() portsrepo.CatalogRepository {
	return catalogRepo{t.d}
}

func (t *memTx) Invoices() portsrepo.InvoiceRepository {
	return invoiceRepo{records: t.d.invoices, d: t.d}
}

func (t *memTx) CashSessions() portsrepo.CashSessionRepository {
	return sessionRepo{records: t.d.sessions, closures: t.d.closures}
}

func (t *memTx) RegistrationRequests() portsrepo.RegistrationRequestRepository {
	return registrationRepo{t.d.registrations}
}

func (t *memTx) CompanyRequests() portsrepo.CompanyRequestRepository {
	return t.d.companyRequests
}

func (t *memTx) Companies() portsrepo.CompanyRepository {
	return companyRepo{t.d.companies}
}

func (t *memTx) InspectionCases() portsrepo.InspectionCaseRepository {
	return inspectionRepo{t.d.inspections}
}

func (t *memTx) Actas() portsrepo.ActaRepository {
	return actaRepo{t.d}
}

func (t *memTx) LegalCases() portsrepo.LegalCaseRepository {
	return t.d.legalCases
}

func (t *memTx) Complaints() portsrepo.ComplaintRepository {
	return t.d.complaints
}

func (t *memTx) Transitions() portsrepo.TransitionRepository {
	return transitionRepo{t.d}
}
