package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	portsrepo "github.com/SscSPs/onda_backoffice/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/onda_backoffice/internal/core/ports/services"
	"github.com/SscSPs/onda_backoffice/internal/core/statemachine"
	"github.com/SscSPs/onda_backoffice/internal/dto"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// invoiceService issues and cancels invoices. Payment lives in the workflow coordinator
// because it fans out to the billed records.
type invoiceService struct {
	BaseService
	uow portsrepo.UnitOfWork
}

// NewInvoiceService creates the invoice service.
func NewInvoiceService(uow portsrepo.UnitOfWork, opts ...Option) portssvc.InvoiceSvcFacade {
	return &invoiceService{
		BaseService: newBaseService(opts),
		uow:         uow,
	}
}

var _ portssvc.InvoiceSvcFacade = (*invoiceService)(nil)

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	if err := requireID("invoice id", id); err != nil {
		return nil, err
	}
	var inv *domain.Invoice
	err := s.runTx(ctx, s.uow, "GetInvoice", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		inv, err = tx.Invoices().FindByID(ctx, id)
		return err
	})
	return inv, err
}

func (s *invoiceService) CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest, actor string) (*domain.Invoice, error) {
	links := lo.Map(req.Links, func(l dto.RecordLinkRequest, _ int) domain.RecordLink {
		return domain.RecordLink{Kind: l.Kind, RecordID: l.RecordID}
	})
	var inv *domain.Invoice
	err := s.runTx(ctx, s.uow, "CreateInvoice", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		inv, err = s.Issue(ctx, tx, req.Items, req.Discount, links, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *invoiceService) CancelInvoice(ctx context.Context, id, reason, actor string) (*domain.Invoice, error) {
	if err := requireID("invoice id", id); err != nil {
		return nil, err
	}
	if err := requireText("cancellation reason", reason); err != nil {
		return nil, err
	}
	var inv *domain.Invoice
	err := s.runTx(ctx, s.uow, "CancelInvoice", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		inv, err = moveRecord[domain.Invoice](ctx, &s.BaseService, tx, tx.Invoices(), id, domain.InvoiceCancelled,
			statemachine.Context{Actor: actor, Note: reason, ExpectedFrom: domain.InvoiceOpen}, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Invoice cancelled", slog.String("invoice_id", id), slog.String("reason", reason))
	return inv, nil
}

// Issue prices every line from the catalog and stores the invoice open.
func (s *invoiceService) Issue(ctx context.Context, tx portsrepo.Tx, lines []dto.InvoiceLineRequest, discount decimal.Decimal, links []domain.RecordLink, actor string) (*domain.Invoice, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: an invoice needs at least one line", apperrors.ErrValidation)
	}
	links = lo.Uniq(links)
	for _, l := range links {
		if err := s.ensureLinkTarget(ctx, tx, l); err != nil {
			return nil, err
		}
	}

	ids := lo.Uniq(lo.Map(lines, func(l dto.InvoiceLineRequest, _ int) string { return l.CatalogItemID }))
	catalog, err := tx.Catalog().FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog items: %w", err)
	}

	now := s.now()
	inv := domain.Invoice{
		ID:          uuid.NewString(),
		Discount:    discount,
		Links:       links,
		Lifecycle:   domain.NewLifecycle(domain.InvoiceOpen, now),
		AuditFields: domain.NewAuditFields(actor, now),
	}
	for _, l := range lines {
		item, ok := catalog[l.CatalogItemID]
		if !ok || !item.Active {
			return nil, fmt.Errorf("%w: catalog item %s", apperrors.ErrNotFound, l.CatalogItemID)
		}
		if l.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be positive", apperrors.ErrValidation)
		}
		line := domain.PriceLine(item, l.Quantity)
		line.ID = uuid.NewString()
		line.InvoiceID = inv.ID
		inv.Items = append(inv.Items, line)
	}
	inv.Subtotal, inv.Tax, inv.Total, err = domain.ComputeTotals(inv.Items, discount)
	if err != nil {
		return nil, err
	}

	inv.Code, _, err = nextCode(ctx, tx, domain.InvoiceCodes(s.local(now)))
	if err != nil {
		return nil, err
	}
	if err := tx.Invoices().Save(ctx, inv); err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Invoice issued",
		slog.String("invoice_id", inv.ID),
		slog.String("code", inv.Code),
		slog.String("total", inv.Total.StringFixed(2)),
		slog.Int("links", len(inv.Links)))
	return &inv, nil
}

// IssueForItemCode bills the fee of a workflow step. The fee items ship with the catalog seed.
func (s *invoiceService) IssueForItemCode(ctx context.Context, tx portsrepo.Tx, itemCode, actor string, links ...domain.RecordLink) (*domain.Invoice, error) {
	item, err := tx.Catalog().FindByCode(ctx, itemCode)
	if errors.Is(err, apperrors.ErrNotFound) || (err == nil && !item.Active) {
		cfgErr := fmt.Errorf("%w: catalog item %q is not configured", apperrors.ErrConfiguration, itemCode)
		s.LogError(ctx, cfgErr, "Fee catalog item missing", slog.String("item_code", itemCode))
		return nil, cfgErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog item %s: %w", itemCode, err)
	}
	lines := []dto.InvoiceLineRequest{{CatalogItemID: item.ID, Quantity: 1}}
	return s.Issue(ctx, tx, lines, decimal.Zero, links, actor)
}

func (s *invoiceService) ensureLinkTarget(ctx context.Context, tx portsrepo.Tx, l domain.RecordLink) error {
	var err error
	switch l.Kind {
	case domain.KindRegistrationRequest:
		_, err = tx.RegistrationRequests().FindByID(ctx, l.RecordID)
	case domain.KindCompanyRequest:
		_, err = tx.CompanyRequests().FindByID(ctx, l.RecordID)
	case domain.KindComplaint:
		_, err = tx.Complaints().FindByID(ctx, l.RecordID)
	case domain.KindCompany:
		_, err = tx.Companies().FindByID(ctx, l.RecordID)
	default:
		return fmt.Errorf("%w: invoices cannot bill a %s", apperrors.ErrValidation, l.Kind)
	}
	if err != nil {
		return fmt.Errorf("linked %s %s: %w", l.Kind, l.RecordID, err)
	}
	return nil
}
