package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	"github.com/SscSPs/onda_backoffice/internal/dto"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"
)

type LedgerTestSuite struct {
	serviceFixture
}

func TestLedgerTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

func (suite *LedgerTestSuite) TestPayAndClose_ReconcilesToZero() {
	suite.seedSequence("B02", 1, 100)
	session := suite.openSession(operator)
	req, inv := suite.billRegistration()
	suite.True(inv.Total.Equal(suite.dec("1180")), "total %s", inv.Total)

	paid, err := suite.payCash(inv.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.InvoicePaid, paid.State)
	suite.Equal("B0200000001", *paid.FiscalNumber)
	suite.Equal(session.ID, *paid.CashSessionID)

	promoted, err := suite.svc.Workflow.GetRegistrationRequest(suite.ctx, req.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.RegistrationPaid, promoted.State)

	open, err := suite.svc.Cash.GetSession(suite.ctx, session.ID)
	suite.Require().NoError(err)
	suite.True(open.CollectedTotal.Equal(suite.dec("1180")))

	settlement, err := suite.svc.Cash.Close(suite.ctx, session.ID, suite.dec("1180"), "", operator)
	suite.Require().NoError(err)
	suite.True(settlement.Closure.Expected.Equal(suite.dec("1180")))
	suite.True(settlement.Closure.Variance.IsZero())
	suite.Equal(1, settlement.ReconciledCount)
	suite.Equal(domain.CashSessionClosed, settlement.Session.State)
	suite.Nil(settlement.Session.OperatorID)

	closed, err := suite.svc.Invoices.GetInvoice(suite.ctx, inv.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.InvoiceClosed, closed.State)
	suite.Equal(settlement.Closure.ID, *closed.ClosureID)
	suite.InDelta(1, testutil.ToFloat64(suite.metrics.InvoicesPaid.WithLabelValues("CASH")), 0)
	suite.InDelta(1, testutil.ToFloat64(suite.metrics.SessionsClosed), 0)
}

func (suite *LedgerTestSuite) TestClose_ReportsVarianceAndReleasesOpenInvoices() {
	suite.seedSequence("B02", 1, 100)
	session := suite.openSession(operator)
	_, paid := suite.billRegistration()
	_, pending := suite.billRegistration()
	_, err := suite.payCash(paid.ID)
	suite.Require().NoError(err)
	_, err = suite.svc.Cash.AttachInvoice(suite.ctx, session.ID, pending.ID, operator)
	suite.Require().NoError(err)

	settlement, err := suite.svc.Cash.Close(suite.ctx, session.ID, suite.dec("1100"), "short", operator)
	suite.Require().NoError(err)
	suite.True(settlement.Closure.Expected.Equal(suite.dec("1180")))
	suite.True(settlement.Closure.Variance.Equal(suite.dec("-80")), "variance %s", settlement.Closure.Variance)
	suite.Equal(1, settlement.ReconciledCount)

	released, err := suite.svc.Invoices.GetInvoice(suite.ctx, pending.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.InvoiceOpen, released.State)
	suite.Nil(released.CashSessionID)
	suite.Nil(released.ClosureID)
}

func (suite *LedgerTestSuite) TestClose_EmptySessionAndTwice() {
	session := suite.openSession(operator)

	settlement, err := suite.svc.Cash.Close(suite.ctx, session.ID, suite.dec("0"), "", operator)
	suite.Require().NoError(err)
	suite.True(settlement.Closure.Expected.IsZero())
	suite.Equal(0, settlement.ReconciledCount)

	_, err = suite.svc.Cash.Close(suite.ctx, session.ID, suite.dec("0"), "", operator)
	suite.ErrorIs(err, apperrors.ErrConflict)

	_, err = suite.svc.Cash.Close(suite.ctx, "1b4e28ba-2fa1-11d2-883f-0016d3cca427", suite.dec("0"), "", operator)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *LedgerTestSuite) TestOpen_SecondSessionConflicts() {
	first := suite.openSession(operator)
	suite.Equal("CAJA-20261016-0001", first.Code)

	_, _, err := suite.svc.Cash.Open(suite.ctx, operator, "again")
	suite.ErrorIs(err, apperrors.ErrConflict)

	other := suite.openSession("op-2")
	suite.Equal("CAJA-20261016-0002", other.Code)

	_, err = suite.svc.Cash.Close(suite.ctx, first.ID, suite.dec("0"), "", operator)
	suite.Require().NoError(err)
	reopened := suite.openSession(operator)
	suite.NotEqual(first.ID, reopened.ID)
}

func (suite *LedgerTestSuite) TestDailyCodes_FollowOfficeCalendar() {
	// 22:00 on Friday in Santo Domingo is already Saturday in UTC.
	suite.useLocation(time.FixedZone("AST", -4*60*60))
	suite.now = time.Date(2026, time.October, 17, 2, 0, 0, 0, time.UTC)

	session := suite.openSession(operator)
	suite.Equal("CAJA-20261016-0001", session.Code)

	_, inv := suite.billRegistration()
	suite.Equal("FAC-20261016-0001", inv.Code)

	// Midnight local starts the next day's counters.
	suite.now = time.Date(2026, time.October, 17, 4, 0, 0, 0, time.UTC)
	other := suite.openSession("op-2")
	suite.Equal("CAJA-20261017-0001", other.Code)
	_, next := suite.billRegistration()
	suite.Equal("FAC-20261017-0001", next.Code)
}

func (suite *LedgerTestSuite) TestPayInvoice_ReportsLowFiscalCapacity() {
	suite.seedSequence("B02", 1, 5)
	suite.openSession(operator)
	_, inv := suite.billRegistration()

	paid, err := suite.payCash(inv.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(paid.Reservation)
	suite.True(paid.Reservation.LowCapacity)

	resp := dto.ToInvoiceResponse(paid)
	suite.Require().NotNil(resp.FiscalWarning)
	suite.Equal("B02", resp.FiscalWarning.TypeCode)
	suite.Equal(int64(4), resp.FiscalWarning.Remaining)

	stored, err := suite.svc.Invoices.GetInvoice(suite.ctx, inv.ID)
	suite.Require().NoError(err)
	suite.Nil(dto.ToInvoiceResponse(stored).FiscalWarning)
}

func (suite *LedgerTestSuite) TestPayInvoice_WithoutOpenSession() {
	suite.seedSequence("B02", 1, 100)
	_, inv := suite.billRegistration()

	_, err := suite.payCash(inv.ID)
	suite.ErrorIs(err, apperrors.ErrPreconditionFailed)

	still, err := suite.svc.Invoices.GetInvoice(suite.ctx, inv.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.InvoiceOpen, still.State)
	suite.Nil(still.FiscalNumber)
}

func (suite *LedgerTestSuite) TestPayInvoice_ExhaustedSequenceRollsBack() {
	seq := suite.seedSequence("B02", 1, 5)
	session := suite.openSession(operator)
	for i := 0; i < 5; i++ {
		_, err := suite.svc.Sequences.ReserveNumber(suite.ctx, "B02")
		suite.Require().NoError(err)
	}
	req, inv := suite.billRegistration()

	_, err := suite.payCash(inv.ID)
	suite.ErrorIs(err, apperrors.ErrResourceExhausted)

	after, err := suite.svc.Sequences.GetSequence(suite.ctx, seq.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(5), after.Cursor)
	suite.False(after.Active)

	still, err := suite.svc.Invoices.GetInvoice(suite.ctx, inv.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.InvoiceOpen, still.State)
	pending, err := suite.svc.Workflow.GetRegistrationRequest(suite.ctx, req.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.RegistrationPending, pending.State)
	untouched, err := suite.svc.Cash.GetSession(suite.ctx, session.ID)
	suite.Require().NoError(err)
	suite.True(untouched.CollectedTotal.IsZero())
	suite.InDelta(1, testutil.ToFloat64(suite.metrics.FiscalExhausted.WithLabelValues("B02")), 0)
}

func (suite *LedgerTestSuite) TestPayInvoice_RejectsWhenBilledRecordCannotBePaid() {
	suite.seedSequence("B02", 1, 100)
	suite.openSession(operator)
	irc, err := suite.svc.Workflow.CreateCompanyRequest(suite.ctx, dto.CreateCompanyRequest{
		RequestType: domain.CompanyRequestNew,
		CompanyName: "Discos del Caribe SRL",
		TaxID:       "130-12345-6",
	}, operator)
	suite.Require().NoError(err)
	inv, err := suite.svc.Invoices.CreateInvoice(suite.ctx, dto.CreateInvoiceRequest{
		Items: []dto.InvoiceLineRequest{{CatalogItemID: suite.catalogID("IRC-NUEVO"), Quantity: 1}},
		Links: []dto.RecordLinkRequest{{Kind: domain.KindCompanyRequest, RecordID: irc.ID}},
	}, operator)
	suite.Require().NoError(err)

	_, err = suite.payCash(inv.ID)
	suite.ErrorIs(err, apperrors.ErrStateConflict)

	still, err := suite.svc.Invoices.GetInvoice(suite.ctx, inv.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.InvoiceOpen, still.State)
	res, err := suite.svc.Sequences.ReserveNumber(suite.ctx, "B02")
	suite.Require().NoError(err)
	suite.Equal("B0200000001", res.Number, "the failed payment must not consume a fiscal number")
}

func (suite *LedgerTestSuite) TestPayInvoice_TwiceIsStateConflict() {
	suite.seedSequence("B02", 1, 100)
	suite.openSession(operator)
	_, inv := suite.billRegistration()

	_, err := suite.payCash(inv.ID)
	suite.Require().NoError(err)
	_, err = suite.payCash(inv.ID)
	suite.ErrorIs(err, apperrors.ErrStateConflict)
}

func (suite *LedgerTestSuite) TestCancelInvoice() {
	session := suite.openSession(operator)
	_, inv := suite.billRegistration()
	_, err := suite.svc.Cash.AttachInvoice(suite.ctx, session.ID, inv.ID, operator)
	suite.Require().NoError(err)

	_, err = suite.svc.Invoices.CancelInvoice(suite.ctx, inv.ID, "  ", operator)
	suite.ErrorIs(err, apperrors.ErrValidation)

	cancelled, err := suite.svc.Invoices.CancelInvoice(suite.ctx, inv.ID, "duplicated", operator)
	suite.Require().NoError(err)
	suite.Equal(domain.InvoiceCancelled, cancelled.State)
	suite.Equal("duplicated", cancelled.CancelReason)
	suite.Nil(cancelled.CashSessionID)

	_, err = suite.svc.Invoices.CancelInvoice(suite.ctx, inv.ID, "again", operator)
	suite.ErrorIs(err, apperrors.ErrStateConflict)
}

func (suite *LedgerTestSuite) TestCreateInvoice_Validation() {
	_, err := suite.svc.Invoices.CreateInvoice(suite.ctx, dto.CreateInvoiceRequest{}, operator)
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.svc.Invoices.CreateInvoice(suite.ctx, dto.CreateInvoiceRequest{
		Items: []dto.InvoiceLineRequest{{CatalogItemID: "1b4e28ba-2fa1-11d2-883f-0016d3cca427", Quantity: 1}},
	}, operator)
	suite.ErrorIs(err, apperrors.ErrNotFound)

	_, err = suite.svc.Invoices.CreateInvoice(suite.ctx, dto.CreateInvoiceRequest{
		Items: []dto.InvoiceLineRequest{{CatalogItemID: suite.catalogID("DEN-TASA"), Quantity: 1}},
		Links: []dto.RecordLinkRequest{{Kind: domain.KindComplaint, RecordID: "1b4e28ba-2fa1-11d2-883f-0016d3cca427"}},
	}, operator)
	suite.ErrorIs(err, apperrors.ErrNotFound)

	inv, err := suite.svc.Invoices.CreateInvoice(suite.ctx, dto.CreateInvoiceRequest{
		Items: []dto.InvoiceLineRequest{
			{CatalogItemID: suite.catalogID("SOL-REG"), Quantity: 2},
			{CatalogItemID: suite.catalogID("DEN-TASA"), Quantity: 1},
		},
		Discount: suite.dec("100"),
	}, operator)
	suite.Require().NoError(err)
	suite.True(inv.Subtotal.Equal(suite.dec("2500")))
	suite.True(inv.Tax.Equal(suite.dec("360")))
	suite.True(inv.Total.Equal(suite.dec("2760")))
	suite.Equal("FAC-20261016-0001", inv.Code)
}

func (suite *LedgerTestSuite) TestCreateSequence_OverlapConflicts() {
	suite.seedSequence("B02", 1, 100)

	_, err := suite.svc.Sequences.CreateSequence(suite.ctx, dto.CreateSequenceRequest{
		TypeCode: "B02", RangeStart: 50, RangeEnd: 150, Expiry: suite.now.AddDate(1, 0, 0),
	}, "admin")
	suite.ErrorIs(err, apperrors.ErrConflict)

	_, err = suite.svc.Sequences.CreateSequence(suite.ctx, dto.CreateSequenceRequest{
		TypeCode: "B01", RangeStart: 50, RangeEnd: 150, Expiry: suite.now.AddDate(1, 0, 0),
	}, "admin")
	suite.NoError(err)

	_, err = suite.svc.Sequences.CreateSequence(suite.ctx, dto.CreateSequenceRequest{
		TypeCode: "B02", RangeStart: 101, RangeEnd: 200, Expiry: suite.now.AddDate(-1, 0, 0),
	}, "admin")
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerTestSuite) TestReserve_SkipsToNextRangeAndFlagsLowCapacity() {
	first := suite.seedSequence("B02", 1, 2)
	suite.seedSequence("B02", 3, 100)

	a, err := suite.svc.Sequences.ReserveNumber(suite.ctx, "B02")
	suite.Require().NoError(err)
	suite.Equal(first.ID, a.SequenceID)
	suite.True(a.LowCapacity)

	b, err := suite.svc.Sequences.ReserveNumber(suite.ctx, "B02")
	suite.Require().NoError(err)
	suite.Equal(int64(2), b.Value)
	suite.Equal(int64(0), b.Remaining)

	c, err := suite.svc.Sequences.ReserveNumber(suite.ctx, "B02")
	suite.Require().NoError(err)
	suite.Equal(int64(3), c.Value)
	suite.NotEqual(first.ID, c.SequenceID)
	suite.False(c.LowCapacity)
	suite.InDelta(2, testutil.ToFloat64(suite.metrics.FiscalLowCapacity.WithLabelValues("B02")), 0)

	deactivated, err := suite.svc.Sequences.DeactivateSequence(suite.ctx, c.SequenceID, "admin")
	suite.Require().NoError(err)
	suite.False(deactivated.Active)
	_, err = suite.svc.Sequences.ReserveNumber(suite.ctx, "B02")
	suite.ErrorIs(err, apperrors.ErrResourceExhausted)
}

// TestReserve_ConcurrentReservationsAreUnique checks the allocator against the memory store,
// which serializes every transaction. The Postgres locking path is covered by the
// integration-tagged pgsql store test.
func (suite *LedgerTestSuite) TestReserve_ConcurrentReservationsAreUnique() {
	suite.seedSequence("B01", 1, 100)

	var (
		mu      sync.Mutex
		numbers []string
	)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			res, err := suite.svc.Sequences.ReserveNumber(ctx, "B01")
			if err != nil {
				return err
			}
			mu.Lock()
			numbers = append(numbers, res.Number)
			mu.Unlock()
			return nil
		})
	}
	suite.Require().NoError(g.Wait())
	suite.Len(numbers, 20)
	suite.Len(lo.Uniq(numbers), 20)
	suite.Contains(numbers, "B0100000020")
}
