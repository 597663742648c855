package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	portsrepo "github.com/SscSPs/onda_backoffice/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/onda_backoffice/internal/core/ports/services"
	"github.com/SscSPs/onda_backoffice/internal/platform/config"
)

// workflowCoordinator runs every operation that spans more than one aggregate.
// Each public method is one transaction.
type workflowCoordinator struct {
	BaseService
	uow          portsrepo.UnitOfWork
	cfg          config.WorkflowConfig
	sequences    portssvc.SequenceTxSupport
	cash         portssvc.CashSessionTxSupport
	invoices     portssvc.InvoiceTxSupport
	certificates portssvc.CertificateRenderer
}

// CoordinatorDeps are the ledger services the coordinator calls inside its transactions.
type CoordinatorDeps struct {
	Sequences    portssvc.SequenceTxSupport
	Cash         portssvc.CashSessionTxSupport
	Invoices     portssvc.InvoiceTxSupport
	Certificates portssvc.CertificateRenderer
}

// NewWorkflowCoordinator creates the coordinator. A nil certificate renderer falls back to
// file references derived from the request code.
func NewWorkflowCoordinator(uow portsrepo.UnitOfWork, cfg config.WorkflowConfig, deps CoordinatorDeps, opts ...Option) portssvc.CoordinatorFacade {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if deps.Certificates == nil {
		deps.Certificates = NewFileRefRenderer("certificates")
	}
	return &workflowCoordinator{
		BaseService:  newBaseService(opts),
		uow:          uow,
		cfg:          cfg,
		sequences:    deps.Sequences,
		cash:         deps.Cash,
		invoices:     deps.Invoices,
		certificates: deps.Certificates,
	}
}

var _ portssvc.CoordinatorFacade = (*workflowCoordinator)(nil)

// localNow is the current time in the office's timezone. Registration numbers and
// business-day arithmetic are calendar based.
func (w *workflowCoordinator) localNow() time.Time {
	return w.now().In(w.cfg.Location)
}

// GetHistory returns the applied transitions of a record, oldest first.
func (w *workflowCoordinator) GetHistory(ctx context.Context, kind domain.Kind, recordID string) ([]domain.StateTransition, error) {
	if !kind.IsValid() || kind == domain.KindCompany {
		return nil, fmt.Errorf("%w: unknown record kind %q", apperrors.ErrValidation, kind)
	}
	if err := requireID("record id", recordID); err != nil {
		return nil, err
	}
	var history []domain.StateTransition
	err := w.runTx(ctx, w.uow, "GetHistory", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		history, err = tx.Transitions().ListByRecord(ctx, kind, recordID)
		return err
	})
	return history, err
}

// fileRefRenderer does not draw documents; it only names where the certificate is stored.
type fileRefRenderer struct {
	root string
}

// NewFileRefRenderer returns a renderer producing references of the form <root>/irc/<code>.pdf.
func NewFileRefRenderer(root string) portssvc.CertificateRenderer {
	return fileRefRenderer{root: strings.TrimSuffix(root, "/")}
}

func (r fileRefRenderer) RenderCompanyCertificate(_ context.Context, req domain.CompanyRequest) (string, error) {
	if req.Code == "" {
		return "", fmt.Errorf("%w: request has no code", apperrors.ErrValidation)
	}
	return fmt.Sprintf("%s/irc/%s.pdf", r.root, req.Code), nil
}
