//go:build integration

package pgsql_test

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	portsrepo "github.com/SscSPs/onda_backoffice/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/onda_backoffice/internal/core/ports/services"
	"github.com/SscSPs/onda_backoffice/internal/core/services"
	"github.com/SscSPs/onda_backoffice/internal/dto"
	"github.com/SscSPs/onda_backoffice/internal/platform/config"
	"github.com/SscSPs/onda_backoffice/internal/repositories/database/pgsql"
	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"
)

type StoreIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
	store     *pgsql.Store
	svc       *portssvc.ServiceContainer
	now       time.Time
}

func TestStoreIntegration(t *testing.T) {
	suite.Run(t, new(StoreIntegrationSuite))
}

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "migrations")
}

func (s *StoreIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	container, err := tcpostgres.Run(s.ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("onda_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	migrationDB, err := sql.Open("pgx", dsn)
	s.Require().NoError(err)
	defer migrationDB.Close()
	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	s.Require().NoError(err)
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsDir(), "postgres", driver)
	s.Require().NoError(err)
	s.Require().NoError(m.Up())

	s.pool, err = pgxpool.New(s.ctx, dsn)
	s.Require().NoError(err)
	s.store = pgsql.NewStore(s.pool)
}

func (s *StoreIntegrationSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(s.ctx))
	}
}

func (s *StoreIntegrationSuite) SetupTest() {
	s.now = time.Now().UTC().Truncate(time.Microsecond)
	s.svc = services.NewServiceContainer(config.DefaultWorkflowConfig(), pgsql.NewRepositoryProvider(s.pool),
		services.WithClock(func() time.Time { return s.now }))
}

func (s *StoreIntegrationSuite) TestCodeCounter_Increments() {
	scope := "TEST-" + uuid.NewString()[:8]
	var values []int64
	for range 3 {
		err := s.store.WithinTx(s.ctx, func(ctx context.Context, tx portsrepo.Tx) error {
			v, err := tx.Codes().Next(ctx, scope)
			values = append(values, v)
			return err
		})
		s.Require().NoError(err)
	}
	s.Equal([]int64{1, 2, 3}, values)
}

func (s *StoreIntegrationSuite) TestWithinTx_RollsBackOnError() {
	scope := "ROLLBACK-" + uuid.NewString()[:8]
	err := s.store.WithinTx(s.ctx, func(ctx context.Context, tx portsrepo.Tx) error {
		if _, err := tx.Codes().Next(ctx, scope); err != nil {
			return err
		}
		return apperrors.ErrPreconditionFailed
	})
	s.ErrorIs(err, apperrors.ErrPreconditionFailed)

	err = s.store.WithinTx(s.ctx, func(ctx context.Context, tx portsrepo.Tx) error {
		v, err := tx.Codes().Next(ctx, scope)
		s.Equal(int64(1), v)
		return err
	})
	s.NoError(err)
}

func (s *StoreIntegrationSuite) TestWithinTx_RecoversFromPanic() {
	err := s.store.WithinTx(s.ctx, func(ctx context.Context, tx portsrepo.Tx) error {
		panic("boom")
	})
	s.ErrorContains(err, "boom")
}

func (s *StoreIntegrationSuite) TestFindByID_MalformedIDIsNotFound() {
	err := s.store.WithinTx(s.ctx, func(ctx context.Context, tx portsrepo.Tx) error {
		_, err := tx.Invoices().FindByID(ctx, "not-a-uuid")
		return err
	})
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *StoreIntegrationSuite) TestGuardedUpdate_StaleStateConflicts() {
	seq, err := s.svc.Sequences.CreateSequence(s.ctx, dto.CreateSequenceRequest{
		TypeCode: "G01", RangeStart: 1, RangeEnd: 10, Expiry: s.now.AddDate(1, 0, 0),
	}, "admin")
	s.Require().NoError(err)

	err = s.store.WithinTx(s.ctx, func(ctx context.Context, tx portsrepo.Tx) error {
		item, err := tx.Catalog().FindByCode(ctx, "SOL-REG")
		if err != nil {
			return err
		}
		line := domain.PriceLine(*item, 1)
		line.ID = uuid.NewString()
		inv := domain.Invoice{
			ID:          uuid.NewString(),
			Code:        "FAC-TEST-" + seq.ID[:8],
			Items:       []domain.InvoiceItem{line},
			Lifecycle:   domain.NewLifecycle(domain.InvoiceOpen, s.now),
			AuditFields: domain.NewAuditFields("admin", s.now),
		}
		inv.Subtotal, inv.Tax, inv.Total, err = domain.ComputeTotals(inv.Items, decimal.Zero)
		if err != nil {
			return err
		}
		if err := tx.Invoices().Save(ctx, inv); err != nil {
			return err
		}
		inv.SetState(domain.InvoiceCancelled, s.now)
		return tx.Invoices().Update(ctx, inv, domain.InvoicePaid)
	})
	s.ErrorIs(err, apperrors.ErrStateConflict)
}

func (s *StoreIntegrationSuite) TestPayAndClose_RoundTrip() {
	operator := "op-" + uuid.NewString()[:8]
	_, err := s.svc.Sequences.CreateSequence(s.ctx, dto.CreateSequenceRequest{
		TypeCode: "B02", RangeStart: 1, RangeEnd: 99999999, Expiry: s.now.AddDate(1, 0, 0),
	}, "admin")
	if err != nil {
		// Another test already created the shared B02 range.
		s.Require().ErrorIs(err, apperrors.ErrConflict)
	}
	session, _, err := s.svc.Cash.Open(s.ctx, operator, "integration")
	s.Require().NoError(err)

	_, _, err = s.svc.Cash.Open(s.ctx, operator, "again")
	s.ErrorIs(err, apperrors.ErrConflict)

	req, err := s.svc.Workflow.CreateRegistrationRequest(s.ctx, dto.CreateRegistrationRequest{
		ApplicantName: "Ana", ApplicantDocument: "001-0000000-2", WorkTitle: "Bachata", WorkType: "MUSICAL",
	}, operator)
	s.Require().NoError(err)
	item := lo.Must(s.catalogID("SOL-REG"))
	inv, err := s.svc.Invoices.CreateInvoice(s.ctx, dto.CreateInvoiceRequest{
		Items: []dto.InvoiceLineRequest{{CatalogItemID: item, Quantity: 1}},
		Links: []dto.RecordLinkRequest{{Kind: domain.KindRegistrationRequest, RecordID: req.ID}},
	}, operator)
	s.Require().NoError(err)

	paid, err := s.svc.Workflow.PayInvoice(s.ctx, inv.ID, dto.PayInvoiceRequest{Method: domain.PaymentMethodCash}, operator)
	s.Require().NoError(err)
	s.Equal(domain.InvoicePaid, paid.State)
	s.NotNil(paid.FiscalNumber)
	s.Len(paid.Items, 1)
	s.Equal([]domain.RecordLink{{Kind: domain.KindRegistrationRequest, RecordID: req.ID}}, paid.Links)

	reloaded, err := s.svc.Workflow.GetRegistrationRequest(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(domain.RegistrationPaid, reloaded.State)

	settlement, err := s.svc.Cash.Close(s.ctx, session.ID, paid.Total, "", operator)
	s.Require().NoError(err)
	s.True(settlement.Closure.Variance.IsZero())
	s.Equal(1, settlement.ReconciledCount)

	history, err := s.svc.Workflow.GetHistory(s.ctx, domain.KindInvoice, inv.ID)
	s.Require().NoError(err)
	s.Equal([]domain.State{domain.InvoicePaid, domain.InvoiceClosed},
		lo.Map(history, func(t domain.StateTransition, _ int) domain.State { return t.To }))
}

func (s *StoreIntegrationSuite) TestReserve_ConcurrentReservationsAreUnique() {
	typeCode := "R01"
	_, err := s.svc.Sequences.CreateSequence(s.ctx, dto.CreateSequenceRequest{
		TypeCode: typeCode, RangeStart: 1, RangeEnd: 1000, Expiry: s.now.AddDate(1, 0, 0),
	}, "admin")
	s.Require().NoError(err)

	var (
		mu      sync.Mutex
		numbers []string
	)
	g, ctx := errgroup.WithContext(s.ctx)
	for range 25 {
		g.Go(func() error {
			res, err := s.svc.Sequences.ReserveNumber(ctx, typeCode)
			if err != nil {
				return err
			}
			mu.Lock()
			numbers = append(numbers, res.Number)
			mu.Unlock()
			return nil
		})
	}
	s.Require().NoError(g.Wait())
	s.Len(lo.Uniq(numbers), 25)
}

func (s *StoreIntegrationSuite) TestCreateSequence_WaitsForReservationOfSameType() {
	typeCode := "R03"
	_, err := s.svc.Sequences.CreateSequence(s.ctx, dto.CreateSequenceRequest{
		TypeCode: typeCode, RangeStart: 1, RangeEnd: 10, Expiry: s.now.AddDate(1, 0, 0),
	}, "admin")
	s.Require().NoError(err)

	created := make(chan error, 1)
	err = s.store.WithinTx(s.ctx, func(ctx context.Context, tx portsrepo.Tx) error {
		if _, err := tx.Sequences().NextUsableForUpdate(ctx, typeCode, s.now); err != nil {
			return err
		}
		go func() {
			_, err := s.svc.Sequences.CreateSequence(s.ctx, dto.CreateSequenceRequest{
				TypeCode: typeCode, Series: "A", RangeStart: 11, RangeEnd: 20, Expiry: s.now.AddDate(1, 0, 0),
			}, "admin")
			created <- err
		}()
		select {
		case err := <-created:
			return fmt.Errorf("range created while %s was locked: %v", typeCode, err)
		case <-time.After(300 * time.Millisecond):
			return nil
		}
	})
	s.Require().NoError(err)
	s.NoError(<-created)
}

func (s *StoreIntegrationSuite) catalogID(code string) (string, error) {
	var id string
	err := s.store.WithinTx(s.ctx, func(ctx context.Context, tx portsrepo.Tx) error {
		item, err := tx.Catalog().FindByCode(ctx, code)
		if err != nil {
			return err
		}
		id = item.ID
		return nil
	})
	return id, err
}
