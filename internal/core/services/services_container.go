package services

import (
	portsrepo "github.com/SscSPs/onda_backoffice/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/onda_backoffice/internal/core/ports/services"
	"github.com/SscSPs/onda_backoffice/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg config.WorkflowConfig, repos portsrepo.RepositoryProvider, opts ...Option) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Ledger services first; the coordinator calls them inside its own transactions
	ledgerOpts := append([]Option{WithLocation(cfg.Location)}, opts...)
	container.Sequences = NewSequenceService(repos.UnitOfWork, cfg.FiscalLowCapacityThreshold, ledgerOpts...)
	container.Cash = NewCashSessionService(repos.UnitOfWork, ledgerOpts...)
	container.Invoices = NewInvoiceService(repos.UnitOfWork, ledgerOpts...)

	container.Workflow = NewWorkflowCoordinator(repos.UnitOfWork, cfg, CoordinatorDeps{
		Sequences: container.Sequences,
		Cash:      container.Cash,
		Invoices:  container.Invoices,
	}, opts...)

	return container
}
