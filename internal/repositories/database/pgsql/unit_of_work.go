package pgsql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
	portsrepo "github.com/SscSPs/onda_backoffice/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store runs units of work against a PostgreSQL pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ portsrepo.UnitOfWork = (*Store)(nil)

// NewStore creates a Store on top of an open pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NewRepositoryProvider wires the PostgreSQL unit of work for the services.
func NewRepositoryProvider(pool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{UnitOfWork: NewStore(pool)}
}

// WithinTx runs fn in a READ COMMITTED transaction. Row locks taken by the
// ...ForUpdate reads are held until commit or rollback.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transaction panicked: %v", r)
		}
		if err != nil {
			// Rollback must run even when ctx is already cancelled.
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				slog.ErrorContext(ctx, "Failed to roll back transaction", slog.String("error", rbErr.Error()))
			}
		}
	}()

	if err = fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	// Deferred foreign keys are checked here.
	if err = tx.Commit(ctx); err != nil {
		return mapWriteError(err, "transaction")
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) base() BaseRepository {
	return BaseRepository{tx: t.tx}
}

func (t *pgTx) Codes() portsrepo.CodeCounterRepository {
	return codeCounterRepository{t.base()}
}

func (t *pgTx) Sequences() portsrepo.FiscalSequenceRepository {
	return sequenceRepository{t.base()}
}

func (t *pgTx) Catalog() portsrepo.CatalogRepository {
	return catalogRepository{t.base()}
}

func (t *pgTx) Invoices() portsrepo.InvoiceRepository {
	return invoiceRepository{t.base()}
}

func (t *pgTx) CashSessions() portsrepo.CashSessionRepository {
	return cashSessionRepository{t.base()}
}

func (t *pgTx) RegistrationRequests() portsrepo.RegistrationRequestRepository {
	return registrationRequestRepository{t.base()}
}

func (t *pgTx) CompanyRequests() portsrepo.CompanyRequestRepository {
	return companyRequestRepository{t.base()}
}

func (t *pgTx) Companies() portsrepo.CompanyRepository {
	return companyRepository{t.base()}
}

func (t *pgTx) InspectionCases() portsrepo.InspectionCaseRepository {
	return inspectionCaseRepository{t.base()}
}

func (t *pgTx) Actas() portsrepo.ActaRepository {
	return actaRepository{t.base()}
}

func (t *pgTx) LegalCases() portsrepo.LegalCaseRepository {
	return legalCaseRepository{t.base()}
}

func (t *pgTx) Complaints() portsrepo.ComplaintRepository {
	return complaintRepository{t.base()}
}

func (t *pgTx) Transitions() portsrepo.TransitionRepository {
	return transitionRepository{t.base()}
}
