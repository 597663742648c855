package statemachine_test

import (
	"testing"
	"time"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	"github.com/SscSPs/onda_backoffice/internal/core/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.October, 16, 10, 0, 0, 0, time.UTC)

func newRegistration(state domain.State) *domain.RegistrationRequest {
	return &domain.RegistrationRequest{ID: "req-1", Code: "SOL-00000001", FormSequence: 1, Lifecycle: domain.NewLifecycle(state, now)}
}

func TestDefault_CanTransition(t *testing.T) {
	reg := statemachine.Default()

	tests := []struct {
		kind     domain.Kind
		from, to domain.State
		want     bool
	}{
		{domain.KindRegistrationRequest, domain.RegistrationPending, domain.RegistrationPaid, true},
		{domain.KindRegistrationRequest, domain.RegistrationPending, domain.RegistrationUnderReview, false},
		{domain.KindRegistrationRequest, domain.RegistrationReturned, domain.RegistrationUnderReview, true},
		{domain.KindRegistrationRequest, domain.RegistrationReturned, domain.RegistrationRegistered, false},
		{domain.KindCompanyRequest, domain.CompanyRequestPaid, domain.CompanyRequestAwaitingAaUCorrection, true},
		{domain.KindCompanyRequest, domain.CompanyRequestRecorded, domain.CompanyRequestAwaitingAaUCorrection, false},
		{domain.KindCompanyRequest, domain.CompanyRequestValidated, domain.CompanyRequestRecorded, false},
		{domain.KindInspectionCase, domain.InspectionAssigned, domain.InspectionClosed, true},
		{domain.KindInspectionCase, domain.InspectionAssigned, domain.InspectionReferredToLegal, false},
		{domain.KindInspectionCase, domain.InspectionReferredToLegal, domain.InspectionClosedByPayment, true},
		{domain.KindInspectionCase, domain.InspectionClosed, domain.InspectionClosedByPayment, false},
		{domain.KindLegalCase, domain.LegalReceived, domain.LegalClosed, false},
		{domain.KindComplaint, domain.ComplaintInPlanning, domain.ComplaintAssigned, true},
		{domain.KindComplaint, domain.ComplaintPendingPayment, domain.ComplaintAssigned, false},
		{domain.KindInvoice, domain.InvoicePaid, domain.InvoiceCancelled, false},
		{domain.KindCashSession, domain.CashSessionClosed, domain.CashSessionOpen, false},
		{domain.KindCompany, "ANY", "OTHER", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+" "+string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, reg.CanTransition(tt.kind, tt.from, tt.to))
		})
	}
}

func TestApply_IllegalTransitionLeavesRecordUnchanged(t *testing.T) {
	reg := statemachine.Default()
	rec := newRegistration(domain.RegistrationPending)
	before := *rec
	beforeDates := map[domain.State]time.Time{}
	for k, v := range rec.StateDates {
		beforeDates[k] = v
	}

	_, err := reg.Apply(rec, domain.RegistrationRegistered, statemachine.Context{Actor: "u1", At: now, RegistrationNumber: "x"})

	require.ErrorIs(t, err, apperrors.ErrStateConflict)
	assert.Equal(t, before.State, rec.State)
	assert.Equal(t, beforeDates, rec.StateDates)
	assert.Nil(t, rec.RegistrationNumber)
}

func TestApply_PreconditionFailed(t *testing.T) {
	reg := statemachine.Default()
	rec := newRegistration(domain.RegistrationPending)

	_, err := reg.Apply(rec, domain.RegistrationPaid, statemachine.Context{Actor: "u1", At: now})

	require.ErrorIs(t, err, apperrors.ErrPreconditionFailed)
	assert.Contains(t, err.Error(), "has not been paid")
	assert.Equal(t, domain.RegistrationPending, rec.State)
}

func TestApply_StaleExpectedState(t *testing.T) {
	reg := statemachine.Default()
	rec := newRegistration(domain.RegistrationPaid)

	_, err := reg.Apply(rec, domain.RegistrationUnderReview, statemachine.Context{At: now, ExpectedFrom: domain.RegistrationPending})

	assert.ErrorIs(t, err, apperrors.ErrStateConflict)
	assert.Equal(t, domain.RegistrationPaid, rec.State)
}

func TestApply_StampsStateAndReturnsTransition(t *testing.T) {
	reg := statemachine.Default()
	rec := newRegistration(domain.RegistrationPending)
	later := now.Add(time.Hour)

	tr, err := reg.Apply(rec, domain.RegistrationPaid, statemachine.Context{Actor: "cashier", At: later, InvoicesPaid: true})

	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationPaid, rec.State)
	at, ok := rec.ReachedAt(domain.RegistrationPaid)
	assert.True(t, ok)
	assert.Equal(t, later, at)
	assert.NotEmpty(t, tr.ID)
	assert.Equal(t, domain.StateTransition{
		ID: tr.ID, Kind: domain.KindRegistrationRequest, RecordID: "req-1",
		From: domain.RegistrationPending, To: domain.RegistrationPaid, At: later, Actor: "cashier",
	}, tr)
}

func TestRegistrationRequest_ReturnAndResubmitClearsCertificateState(t *testing.T) {
	reg := statemachine.Default()
	rec := newRegistration(domain.RegistrationUnderReview)
	ref := "certs/old.pdf"
	rec.CertificateFileRef = &ref

	_, err := reg.Apply(rec, domain.RegistrationReturned, statemachine.Context{At: now})
	require.ErrorIs(t, err, apperrors.ErrPreconditionFailed)

	_, err = reg.Apply(rec, domain.RegistrationReturned, statemachine.Context{At: now, Note: "missing annex"})
	require.NoError(t, err)
	require.NotNil(t, rec.RejectionNote)
	assert.Equal(t, "missing annex", *rec.RejectionNote)

	_, err = reg.Apply(rec, domain.RegistrationUnderReview, statemachine.Context{At: now})
	require.NoError(t, err)
	assert.Nil(t, rec.RejectionNote)
	assert.Nil(t, rec.CertificateFileRef)
	assert.Nil(t, rec.CertificateAt)
}

func TestInspectionCase_VisitPreconditions(t *testing.T) {
	reg := statemachine.Default()
	ic := &domain.InspectionCase{ID: "case-1", Lifecycle: domain.NewLifecycle(domain.InspectionAssigned, now)}
	infraction := domain.Acta{ID: "a1", CaseID: "case-1", Type: domain.ActaInfraction, VisitNumber: 1}
	deadline := now.AddDate(0, 0, 14)

	err := reg.Check(ic, domain.InspectionGracePeriod, statemachine.Context{Actas: []domain.Acta{infraction}})
	assert.ErrorIs(t, err, apperrors.ErrPreconditionFailed, "deadline is required")

	err = reg.Check(ic, domain.InspectionClosed, statemachine.Context{Actas: []domain.Acta{infraction}})
	assert.ErrorIs(t, err, apperrors.ErrPreconditionFailed, "closing needs a compliance acta")

	_, err = reg.Apply(ic, domain.InspectionGracePeriod, statemachine.Context{At: now, Actas: []domain.Acta{infraction}, Deadline: &deadline})
	require.NoError(t, err)
	require.NotNil(t, ic.CorrectionDeadline)
	assert.Equal(t, deadline, *ic.CorrectionDeadline)

	_, err = reg.Apply(ic, domain.InspectionReferredToLegal, statemachine.Context{At: now, Actas: []domain.Acta{infraction}})
	assert.ErrorIs(t, err, apperrors.ErrPreconditionFailed, "legal case must be opened first")

	_, err = reg.Apply(ic, domain.InspectionReferredToLegal, statemachine.Context{At: now, Actas: []domain.Acta{infraction}, SpawnedID: "legal-1"})
	require.NoError(t, err)
	assert.Equal(t, "legal-1", *ic.LegalCaseID)
	assert.Equal(t, domain.ResolutionReferredToLegal, *ic.Resolution)
}

func TestInspectionCase_ClosedByPaymentFromEveryOpenState(t *testing.T) {
	reg := statemachine.Default()
	for _, s := range reg.NonTerminal(domain.KindInspectionCase) {
		t.Run(string(s), func(t *testing.T) {
			ic := &domain.InspectionCase{ID: "c", Lifecycle: domain.NewLifecycle(s, now)}
			_, err := reg.Apply(ic, domain.InspectionClosedByPayment, statemachine.Context{At: now})
			require.NoError(t, err)
			assert.Equal(t, domain.ResolutionResolvedByPayment, *ic.Resolution)
		})
	}
}

func TestTerminalStatesHaveNoOutgoingEdges(t *testing.T) {
	reg := statemachine.Default()
	kinds := []domain.Kind{
		domain.KindRegistrationRequest, domain.KindCompanyRequest, domain.KindInspectionCase,
		domain.KindLegalCase, domain.KindComplaint, domain.KindInvoice, domain.KindCashSession, domain.KindClosure,
	}
	for _, k := range kinds {
		for _, e := range reg.Edges(k) {
			assert.False(t, reg.IsTerminal(k, e.From), "%s edge leaves terminal %s", k, e.From)
			assert.True(t, reg.HasState(k, e.To))
		}
	}
}

func TestNewRegistry_RejectsInvalidTables(t *testing.T) {
	tests := []struct {
		name   string
		tables []statemachine.Table
	}{
		{"undeclared initial", []statemachine.Table{{Kind: domain.KindLegalCase, Initial: "X", States: []domain.State{"A"}}}},
		{"undeclared edge state", []statemachine.Table{{
			Kind: domain.KindLegalCase, Initial: "A", States: []domain.State{"A"},
			Edges: []statemachine.Edge{{From: "A", To: "B"}},
		}}},
		{"edge out of terminal", []statemachine.Table{{
			Kind: domain.KindLegalCase, Initial: "A", States: []domain.State{"A", "B"}, Terminal: []domain.State{"B"},
			Edges: []statemachine.Edge{{From: "B", To: "A"}},
		}}},
		{"duplicate kind", []statemachine.Table{statemachine.LegalCaseTable(), statemachine.LegalCaseTable()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := statemachine.NewRegistry(tt.tables...)
			assert.ErrorIs(t, err, apperrors.ErrConfiguration)
		})
	}
}

func TestApply_UnknownKind(t *testing.T) {
	reg, err := statemachine.NewRegistry(statemachine.LegalCaseTable())
	require.NoError(t, err)
	_, err = reg.Apply(newRegistration(domain.RegistrationPending), domain.RegistrationPaid, statemachine.Context{InvoicesPaid: true})
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}
