package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	portsrepo "github.com/SscSPs/onda_backoffice/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/onda_backoffice/internal/core/ports/services"
	"github.com/SscSPs/onda_backoffice/internal/core/services"
	"github.com/SscSPs/onda_backoffice/internal/dto"
	"github.com/SscSPs/onda_backoffice/internal/platform/config"
	"github.com/SscSPs/onda_backoffice/internal/platform/metrics"
	"github.com/SscSPs/onda_backoffice/internal/repositories/memory"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const operator = "op-1"

// serviceFixture wires every service against a fresh in-memory store.
// The clock starts on Friday 2026-10-16 and only moves when a test moves it.
type serviceFixture struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	store   *memory.Store
	metrics *metrics.Metrics
	cfg     config.WorkflowConfig
	svc     *portssvc.ServiceContainer
}

func (f *serviceFixture) SetupTest() {
	f.ctx = context.Background()
	f.now = time.Date(2026, time.October, 16, 14, 0, 0, 0, time.UTC)
	f.store = memory.NewStore(memory.WithCatalog(memory.DefaultCatalog()...))
	f.metrics = metrics.New(prometheus.NewRegistry())
	f.cfg = config.DefaultWorkflowConfig()
	f.svc = services.NewServiceContainer(f.cfg, portsrepo.RepositoryProvider{UnitOfWork: f.store},
		services.WithClock(f.clock), services.WithMetrics(f.metrics))
}

// useLocation rebuilds the services with loc as the office zone, keeping the store.
func (f *serviceFixture) useLocation(loc *time.Location) {
	f.cfg.Location = loc
	f.svc = services.NewServiceContainer(f.cfg, portsrepo.RepositoryProvider{UnitOfWork: f.store},
		services.WithClock(f.clock), services.WithMetrics(f.metrics))
}

func (f *serviceFixture) clock() time.Time {
	return f.now
}

func (f *serviceFixture) dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *serviceFixture) catalogID(code string) string {
	item, ok := lo.Find(memory.DefaultCatalog(), func(it domain.CatalogItem) bool { return it.Code == code })
	f.Require().True(ok, "catalog item %s", code)
	return item.ID
}

func (f *serviceFixture) seedSequence(typeCode string, start, end int64) *domain.FiscalSequence {
	seq, err := f.svc.Sequences.CreateSequence(f.ctx, dto.CreateSequenceRequest{
		TypeCode:   typeCode,
		RangeStart: start,
		RangeEnd:   end,
		Expiry:     f.now.AddDate(1, 0, 0),
	}, "admin")
	f.Require().NoError(err)
	return seq
}

func (f *serviceFixture) openSession(operatorID string) *domain.CashSession {
	session, _, err := f.svc.Cash.Open(f.ctx, operatorID, "front desk")
	f.Require().NoError(err)
	return session
}

func (f *serviceFixture) seedCompany(name string) domain.Company {
	c := domain.Company{
		ID:                 uuid.NewString(),
		Name:               name,
		TaxID:              "101-00000-1",
		RegistrationNumber: "00000009/01/2025",
		RegisteredAt:       f.now.AddDate(-1, 0, 0),
		ExpiresAt:          f.now,
		ComplianceStatus:   domain.ComplianceCurrent,
		RenewalStatus:      domain.RenewalExpired,
		AuditFields:        domain.NewAuditFields("seed", f.now),
	}
	err := f.store.WithinTx(f.ctx, func(ctx context.Context, tx portsrepo.Tx) error {
		return tx.Companies().Save(ctx, c)
	})
	f.Require().NoError(err)
	return c
}

// billRegistration files a copyright form and bills its fee.
func (f *serviceFixture) billRegistration() (*domain.RegistrationRequest, *domain.Invoice) {
	req, err := f.svc.Workflow.CreateRegistrationRequest(f.ctx, dto.CreateRegistrationRequest{
		ApplicantName:     "Juan Pérez",
		ApplicantDocument: "001-0000000-1",
		WorkTitle:         "Merengue de la Loma",
		WorkType:          "MUSICAL",
	}, operator)
	f.Require().NoError(err)
	inv, err := f.svc.Invoices.CreateInvoice(f.ctx, dto.CreateInvoiceRequest{
		Items: []dto.InvoiceLineRequest{{CatalogItemID: f.catalogID("SOL-REG"), Quantity: 1}},
		Links: []dto.RecordLinkRequest{{Kind: domain.KindRegistrationRequest, RecordID: req.ID}},
	}, operator)
	f.Require().NoError(err)
	return req, inv
}

func (f *serviceFixture) payCash(invoiceID string) (*domain.Invoice, error) {
	return f.svc.Workflow.PayInvoice(f.ctx, invoiceID, dto.PayInvoiceRequest{Method: domain.PaymentMethodCash}, operator)
}

func (f *serviceFixture) history(kind domain.Kind, id string) []domain.StateTransition {
	h, err := f.svc.Workflow.GetHistory(f.ctx, kind, id)
	f.Require().NoError(err)
	return h
}
