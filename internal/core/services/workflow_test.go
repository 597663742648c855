package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	portssvc "github.com/SscSPs/onda_backoffice/internal/core/ports/services"
	"github.com/SscSPs/onda_backoffice/internal/core/services"
	"github.com/SscSPs/onda_backoffice/internal/core/statemachine"
	"github.com/SscSPs/onda_backoffice/internal/dto"
	"github.com/samber/lo"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockCertificateRenderer struct {
	mock.Mock
}

func (m *MockCertificateRenderer) RenderCompanyCertificate(ctx context.Context, req domain.CompanyRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type WorkflowTestSuite struct {
	serviceFixture
}

func TestWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(WorkflowTestSuite))
}

// SetupTest opens a session and a fiscal range so payments go through by default.
func (suite *WorkflowTestSuite) SetupTest() {
	suite.serviceFixture.SetupTest()
	suite.seedSequence("B02", 1, 1000)
	suite.openSession(operator)
}

func (suite *WorkflowTestSuite) assertHistoryFollowsRegistry(kind domain.Kind, h []domain.StateTransition) {
	registry := statemachine.Default()
	for _, t := range h {
		suite.True(registry.CanTransition(kind, t.From, t.To), "%s: %s -> %s is not declared", kind, t.From, t.To)
	}
}

func (suite *WorkflowTestSuite) TestRegistrationPipeline() {
	req, inv := suite.billRegistration()
	suite.Equal("SOL-00000001", req.Code)

	_, err := suite.svc.Workflow.SubmitToRegistry(suite.ctx, req.ID, "clerk")
	suite.ErrorIs(err, apperrors.ErrStateConflict, "an unpaid request cannot reach the registry")

	_, err = suite.payCash(inv.ID)
	suite.Require().NoError(err)

	_, err = suite.svc.Workflow.SubmitToRegistry(suite.ctx, req.ID, "clerk")
	suite.Require().NoError(err)
	_, err = suite.svc.Workflow.ReturnForCorrection(suite.ctx, req.ID, "", "registrar")
	suite.ErrorIs(err, apperrors.ErrPreconditionFailed)
	returned, err := suite.svc.Workflow.ReturnForCorrection(suite.ctx, req.ID, "missing lyrics sheet", "registrar")
	suite.Require().NoError(err)
	suite.Equal("missing lyrics sheet", *returned.RejectionNote)

	resubmitted, err := suite.svc.Workflow.CorrectAndResubmit(suite.ctx, req.ID, "clerk")
	suite.Require().NoError(err)
	suite.Nil(resubmitted.RejectionNote)

	registered, err := suite.svc.Workflow.Register(suite.ctx, req.ID, "registrar")
	suite.Require().NoError(err)
	suite.Equal("00000001/10/2026", *registered.RegistrationNumber)

	_, err = suite.svc.Workflow.DeliverRegistration(suite.ctx, req.ID, "clerk")
	suite.ErrorIs(err, apperrors.ErrStateConflict)
	_, err = suite.svc.Workflow.Certify(suite.ctx, req.ID, " ", "registrar")
	suite.ErrorIs(err, apperrors.ErrPreconditionFailed)
	certified, err := suite.svc.Workflow.Certify(suite.ctx, req.ID, "certificates/reg/SOL-00000001.pdf", "registrar")
	suite.Require().NoError(err)
	suite.Equal("certificates/reg/SOL-00000001.pdf", *certified.CertificateFileRef)

	delivered, err := suite.svc.Workflow.DeliverRegistration(suite.ctx, req.ID, "clerk")
	suite.Require().NoError(err)
	suite.Equal(domain.RegistrationDelivered, delivered.State)

	h := suite.history(domain.KindRegistrationRequest, req.ID)
	suite.Equal([]domain.State{
		domain.RegistrationPaid, domain.RegistrationUnderReview, domain.RegistrationReturned,
		domain.RegistrationUnderReview, domain.RegistrationRegistered, domain.RegistrationCertified,
		domain.RegistrationDelivered,
	}, lo.Map(h, func(t domain.StateTransition, _ int) domain.State { return t.To }))
	suite.Equal(domain.RegistrationPending, h[0].From)
	suite.Equal("missing lyrics sheet", h[2].Note)
	suite.assertHistoryFollowsRegistry(domain.KindRegistrationRequest, h)
}

func (suite *WorkflowTestSuite) TestRegistrationRequest_SplitBillingWaitsForEveryInvoice() {
	req, first := suite.billRegistration()
	second, err := suite.svc.Invoices.CreateInvoice(suite.ctx, dto.CreateInvoiceRequest{
		Items: []dto.InvoiceLineRequest{{CatalogItemID: suite.catalogID("DEN-TASA"), Quantity: 1}},
		Links: []dto.RecordLinkRequest{{Kind: domain.KindRegistrationRequest, RecordID: req.ID}},
	}, operator)
	suite.Require().NoError(err)

	_, err = suite.payCash(first.ID)
	suite.Require().NoError(err)
	waiting, err := suite.svc.Workflow.GetRegistrationRequest(suite.ctx, req.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.RegistrationPending, waiting.State)

	_, err = suite.payCash(second.ID)
	suite.Require().NoError(err)
	paid, err := suite.svc.Workflow.GetRegistrationRequest(suite.ctx, req.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.RegistrationPaid, paid.State)
}

func (suite *WorkflowTestSuite) TestMarkRequestsPaidByInvoice() {
	_, inv := suite.billRegistration()

	_, err := suite.svc.Workflow.MarkRequestsPaidByInvoice(suite.ctx, inv.ID, operator)
	suite.ErrorIs(err, apperrors.ErrPreconditionFailed)

	_, err = suite.payCash(inv.ID)
	suite.Require().NoError(err)
	promoted, err := suite.svc.Workflow.MarkRequestsPaidByInvoice(suite.ctx, inv.ID, operator)
	suite.Require().NoError(err)
	suite.Empty(promoted, "records promoted by the payment are not promoted twice")
}

func (suite *WorkflowTestSuite) TestDeleteRegistrationRequest() {
	req, err := suite.svc.Workflow.CreateRegistrationRequest(suite.ctx, dto.CreateRegistrationRequest{
		ApplicantName:     "Ana Rosa",
		ApplicantDocument: "001-0000000-2",
		WorkTitle:         "Bachata en la Calle",
		WorkType:          "MUSICAL",
	}, operator)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.svc.Workflow.DeleteRegistrationRequest(suite.ctx, req.ID, operator))
	_, err = suite.svc.Workflow.GetRegistrationRequest(suite.ctx, req.ID)
	suite.ErrorIs(err, apperrors.ErrNotFound)

	billed, inv := suite.billRegistration()
	err = suite.svc.Workflow.DeleteRegistrationRequest(suite.ctx, billed.ID, operator)
	suite.ErrorIs(err, apperrors.ErrPreconditionFailed)

	_, err = suite.payCash(inv.ID)
	suite.Require().NoError(err)
	err = suite.svc.Workflow.DeleteRegistrationRequest(suite.ctx, billed.ID, operator)
	suite.ErrorIs(err, apperrors.ErrStateConflict)
}

func (suite *WorkflowTestSuite) TestCompanyRequestPipeline() {
	req, err := suite.svc.Workflow.CreateCompanyRequest(suite.ctx, dto.CreateCompanyRequest{
		RequestType: domain.CompanyRequestNew,
		CompanyName: "Discos del Caribe SRL",
		TaxID:       "130-12345-6",
		Activity:    "record label",
	}, "clerk")
	suite.Require().NoError(err)
	suite.Equal("IRC-00000001", req.Code)

	validated, inv, err := suite.svc.Workflow.ValidateCompanyRequest(suite.ctx, req.ID, "clerk")
	suite.Require().NoError(err)
	suite.Equal(domain.CompanyRequestValidated, validated.State)
	suite.True(inv.Total.Equal(suite.dec("5900")), "total %s", inv.Total)
	suite.Equal([]domain.RecordLink{{Kind: domain.KindCompanyRequest, RecordID: req.ID}}, inv.Links)

	_, _, err = suite.svc.Workflow.RecordAsEntered(suite.ctx, req.ID, "registrar")
	suite.ErrorIs(err, apperrors.ErrStateConflict, "recording requires the fee to be paid")

	_, err = suite.payCash(inv.ID)
	suite.Require().NoError(err)

	_, err = suite.svc.Workflow.ReturnToAaU(suite.ctx, req.ID, "tax id does not match", "registrar")
	suite.Require().NoError(err)
	_, err = suite.svc.Workflow.ResubmitFromAaU(suite.ctx, req.ID, "clerk")
	suite.Require().NoError(err)

	recorded, company, err := suite.svc.Workflow.RecordAsEntered(suite.ctx, req.ID, "registrar")
	suite.Require().NoError(err)
	suite.Equal(domain.CompanyRequestRecorded, recorded.State)
	suite.Equal(company.ID, *recorded.CompanyID)
	suite.Equal("00000001/10/2026", company.RegistrationNumber)
	suite.Equal(suite.now.AddDate(1, 0, 0), company.ExpiresAt)
	suite.Equal(domain.ComplianceCurrent, company.ComplianceStatus)
	suite.Equal(domain.RenewalCurrent, company.RenewalStatus)

	pending, err := suite.svc.Workflow.GenerateCertificate(suite.ctx, req.ID, "registrar")
	suite.Require().NoError(err)
	suite.Equal("certificates/irc/IRC-00000001.pdf", *pending.CertificateFileRef)

	_, err = suite.svc.Workflow.DeliverCertificate(suite.ctx, req.ID, "clerk")
	suite.ErrorIs(err, apperrors.ErrStateConflict)
	_, err = suite.svc.Workflow.SignCertificate(suite.ctx, req.ID, "", "director")
	suite.ErrorIs(err, apperrors.ErrPreconditionFailed)
	_, err = suite.svc.Workflow.SignCertificate(suite.ctx, req.ID, "certificates/irc/IRC-00000001-signed.pdf", "director")
	suite.Require().NoError(err)

	delivered, err := suite.svc.Workflow.DeliverCertificate(suite.ctx, req.ID, "clerk")
	suite.Require().NoError(err)
	suite.Equal(domain.CompanyRequestDelivered, delivered.State)
	suite.NotNil(delivered.DeliveredAt)

	suite.assertHistoryFollowsRegistry(domain.KindCompanyRequest, suite.history(domain.KindCompanyRequest, req.ID))
}

func (suite *WorkflowTestSuite) TestGenerateCertificate_RendererFailureRollsBack() {
	renderer := new(MockCertificateRenderer)
	renderer.On("RenderCompanyCertificate", mock.Anything, mock.AnythingOfType("domain.CompanyRequest")).
		Return("", errors.New("storage unavailable")).Once()
	workflow := services.NewWorkflowCoordinator(suite.store, suite.cfg, services.CoordinatorDeps{
		Sequences:    suite.svc.Sequences,
		Cash:         suite.svc.Cash,
		Invoices:     suite.svc.Invoices,
		Certificates: renderer,
	}, services.WithClock(suite.clock))

	req := suite.recordedCompanyRequest(workflow)

	_, err := workflow.GenerateCertificate(suite.ctx, req.ID, "registrar")
	suite.Require().Error(err)
	suite.Contains(err.Error(), "storage unavailable")

	still, err := workflow.GetCompanyRequest(suite.ctx, req.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.CompanyRequestRecorded, still.State)
	suite.Nil(still.CertificateFileRef)
	renderer.AssertExpectations(suite.T())
}

func (suite *WorkflowTestSuite) recordedCompanyRequest(workflow portssvc.CoordinatorFacade) *domain.CompanyRequest {
	req, err := workflow.CreateCompanyRequest(suite.ctx, dto.CreateCompanyRequest{
		RequestType: domain.CompanyRequestNew,
		CompanyName: "Sonido Quisqueya SRL",
		TaxID:       "130-99999-1",
	}, "clerk")
	suite.Require().NoError(err)
	_, inv, err := workflow.ValidateCompanyRequest(suite.ctx, req.ID, "clerk")
	suite.Require().NoError(err)
	_, err = workflow.PayInvoice(suite.ctx, inv.ID, dto.PayInvoiceRequest{Method: domain.PaymentMethodCard, Reference: "AUTH-1"}, operator)
	suite.Require().NoError(err)
	recorded, _, err := workflow.RecordAsEntered(suite.ctx, req.ID, "registrar")
	suite.Require().NoError(err)
	return recorded
}

func (suite *WorkflowTestSuite) TestRenewalPaymentClosesOpenCases() {
	company := suite.seedCompany("Radio Cibao")
	ic, err := suite.svc.Workflow.CreateInspectionCase(suite.ctx, dto.CreateInspectionCaseRequest{
		CompanyID: company.ID, Reason: "expired registration",
	}, "inspections")
	suite.Require().NoError(err)
	_, err = suite.svc.Workflow.AssignInspector(suite.ctx, ic.ID, "insp-7", "inspections")
	suite.Require().NoError(err)

	req, err := suite.svc.Workflow.CreateCompanyRequest(suite.ctx, dto.CreateCompanyRequest{
		RequestType: domain.CompanyRequestRenewal,
		CompanyID:   &company.ID,
		CompanyName: company.Name,
		TaxID:       company.TaxID,
	}, "clerk")
	suite.Require().NoError(err)
	_, inv, err := suite.svc.Workflow.ValidateCompanyRequest(suite.ctx, req.ID, "clerk")
	suite.Require().NoError(err)
	suite.True(inv.Total.Equal(suite.dec("4130")), "total %s", inv.Total)
	suite.Len(inv.Links, 2)

	_, err = suite.payCash(inv.ID)
	suite.Require().NoError(err)

	closed, err := suite.svc.Workflow.GetInspectionCase(suite.ctx, ic.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.InspectionClosedByPayment, closed.State)
	suite.Equal(domain.ResolutionResolvedByPayment, *closed.Resolution)

	_, renewed, err := suite.svc.Workflow.RecordAsEntered(suite.ctx, req.ID, "registrar")
	suite.Require().NoError(err)
	suite.Equal(company.ID, renewed.ID)
	suite.Equal("00000009/01/2025", renewed.RegistrationNumber)
	suite.Equal(suite.now.AddDate(1, 0, 0), renewed.ExpiresAt)
	suite.Equal(domain.RenewalCurrent, renewed.RenewalStatus)
}

func (suite *WorkflowTestSuite) TestCloseCaseByPayment() {
	company := suite.seedCompany("Club Nocturno La Terraza")
	_, err := suite.svc.Workflow.CloseCaseByPayment(suite.ctx, company.ID, operator)
	suite.ErrorIs(err, apperrors.ErrNotFound)

	for _, reason := range []string{"public performance", "unlicensed broadcast"} {
		_, err := suite.svc.Workflow.CreateInspectionCase(suite.ctx, dto.CreateInspectionCaseRequest{
			CompanyID: company.ID, Reason: reason,
		}, "inspections")
		suite.Require().NoError(err)
	}

	closed, err := suite.svc.Workflow.CloseCaseByPayment(suite.ctx, company.ID, operator)
	suite.Require().NoError(err)
	suite.Len(closed, 2)
	for _, ic := range closed {
		suite.Equal(domain.InspectionClosedByPayment, ic.State)
	}

	_, err = suite.svc.Workflow.CloseCaseByPayment(suite.ctx, company.ID, operator)
	suite.ErrorIs(err, apperrors.ErrNotFound)

	current, err := suite.svc.Workflow.GetCompany(suite.ctx, company.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.RenewalCurrent, current.RenewalStatus)
}

func (suite *WorkflowTestSuite) TestInspection_GracePeriodAndLegalReferral() {
	company := suite.seedCompany("Colmado El Primo")
	ic, err := suite.svc.Workflow.CreateInspectionCase(suite.ctx, dto.CreateInspectionCaseRequest{
		CompanyID: company.ID, Reason: "routine",
	}, "inspections")
	suite.Require().NoError(err)
	suite.Equal("CASO-INSP-2026-0001", ic.Code)

	visit := dto.VisitReportRequest{Compliant: false, Findings: "music played without license", VisitDate: suite.now}
	_, err = suite.svc.Workflow.ReportFirstVisit(suite.ctx, ic.ID, visit, "insp-7")
	suite.ErrorIs(err, apperrors.ErrStateConflict, "visits need an assigned inspector")

	_, err = suite.svc.Workflow.AssignInspector(suite.ctx, ic.ID, "insp-7", "inspections")
	suite.Require().NoError(err)

	future := visit
	future.VisitDate = suite.now.AddDate(0, 0, 1)
	_, err = suite.svc.Workflow.ReportFirstVisit(suite.ctx, ic.ID, future, "insp-7")
	suite.ErrorIs(err, apperrors.ErrValidation)

	graced, err := suite.svc.Workflow.ReportFirstVisit(suite.ctx, ic.ID, visit, "insp-7")
	suite.Require().NoError(err)
	suite.Equal(domain.InspectionGracePeriod, graced.State)
	suite.Equal(time.Date(2026, time.October, 30, 0, 0, 0, 0, time.UTC), *graced.CorrectionDeadline)

	notified, err := suite.svc.Workflow.GetCompany(suite.ctx, company.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.ComplianceNotified, notified.ComplianceStatus)

	suite.now = time.Date(2026, time.October, 30, 16, 0, 0, 0, time.UTC)
	_, _, err = suite.svc.Workflow.ReferToLegal(suite.ctx, ic.ID, "deadline expired", "legal")
	suite.ErrorIs(err, apperrors.ErrPreconditionFailed, "the deadline day is not over yet")

	suite.now = time.Date(2026, time.October, 31, 0, 0, 0, 0, time.UTC)
	referred, legal, err := suite.svc.Workflow.ReferToLegal(suite.ctx, ic.ID, "deadline expired", "legal")
	suite.Require().NoError(err)
	suite.Equal(domain.InspectionReferredToLegal, referred.State)
	suite.Equal(legal.ID, *referred.LegalCaseID)
	suite.Equal("CASO-LEG-2026-0001", legal.Code)
	suite.Equal(domain.LegalReceived, legal.State)

	inLegal, err := suite.svc.Workflow.GetCompany(suite.ctx, company.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.ComplianceInLegal, inLegal.ComplianceStatus)

	_, err = suite.svc.Workflow.CloseLegalCase(suite.ctx, legal.ID, "settled", "legal")
	suite.ErrorIs(err, apperrors.ErrStateConflict)
	_, err = suite.svc.Workflow.AttendLegalCase(suite.ctx, legal.ID, "", "legal")
	suite.ErrorIs(err, apperrors.ErrPreconditionFailed)
	_, err = suite.svc.Workflow.AttendLegalCase(suite.ctx, legal.ID, "hearing scheduled", "legal")
	suite.Require().NoError(err)
	done, err := suite.svc.Workflow.CloseLegalCase(suite.ctx, legal.ID, "fine paid", "legal")
	suite.Require().NoError(err)
	suite.Equal(domain.LegalClosed, done.State)
	suite.Equal("fine paid", done.ClosingNotes)
}

func (suite *WorkflowTestSuite) TestInspection_SecondVisit() {
	company := suite.seedCompany("Bar La Esquina")
	open := func() string {
		ic, err := suite.svc.Workflow.CreateInspectionCase(suite.ctx, dto.CreateInspectionCaseRequest{
			CompanyID: company.ID, Reason: "routine",
		}, "inspections")
		suite.Require().NoError(err)
		_, err = suite.svc.Workflow.AssignInspector(suite.ctx, ic.ID, "insp-3", "inspections")
		suite.Require().NoError(err)
		_, err = suite.svc.Workflow.ReportFirstVisit(suite.ctx, ic.ID, dto.VisitReportRequest{
			Findings: "no license displayed", VisitDate: suite.now,
		}, "insp-3")
		suite.Require().NoError(err)
		return ic.ID
	}
	corrected, uncorrected := open(), open()
	suite.now = suite.now.AddDate(0, 0, 7)

	closed, legal, err := suite.svc.Workflow.ReportSecondVisit(suite.ctx, corrected, dto.VisitReportRequest{
		Compliant: true, Findings: "license obtained", VisitDate: suite.now,
	}, "insp-3")
	suite.Require().NoError(err)
	suite.Nil(legal)
	suite.Equal(domain.InspectionClosed, closed.State)
	suite.Equal(domain.ResolutionCorrectedOnSecondVisit, *closed.Resolution)

	referred, legal, err := suite.svc.Workflow.ReportSecondVisit(suite.ctx, uncorrected, dto.VisitReportRequest{
		Findings: "still no license", VisitDate: suite.now,
	}, "insp-3")
	suite.Require().NoError(err)
	suite.Require().NotNil(legal)
	suite.Equal(domain.InspectionReferredToLegal, referred.State)
	suite.Equal("still no license", legal.Notes)

	actas, err := suite.svc.Workflow.ListActas(suite.ctx, uncorrected)
	suite.Require().NoError(err)
	suite.Len(actas, 2)
	suite.Equal(legal.InfractionActaID, lo.Must(lo.Find(actas, func(a domain.Acta) bool { return a.VisitNumber == 2 })).ID)

	inLegal, err := suite.svc.Workflow.GetCompany(suite.ctx, company.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.ComplianceInLegal, inLegal.ComplianceStatus)
}

func (suite *WorkflowTestSuite) TestComplaintTrack() {
	company := suite.seedCompany("Hotel Playa Dorada")
	complaint, fee, err := suite.svc.Workflow.SubmitComplaint(suite.ctx, dto.SubmitComplaintRequest{
		CompanyID:           company.ID,
		ComplainantName:     "Sociedad de Autores",
		ComplainantDocument: "401-00000-1",
		Description:         "unlicensed live music every weekend",
	}, "clerk")
	suite.Require().NoError(err)
	suite.Equal("DEN-2026-0001", complaint.Code)
	suite.Equal(domain.ComplaintPendingPayment, complaint.State)
	suite.True(fee.Total.Equal(suite.dec("500")))

	_, err = suite.svc.Workflow.AssignInspector(suite.ctx, complaint.ID, "insp-1", "inspections")
	suite.ErrorIs(err, apperrors.ErrStateConflict, "an unpaid complaint cannot be assigned")

	paid, inv, err := suite.svc.Workflow.PayComplaintFee(suite.ctx, complaint.ID, dto.PayInvoiceRequest{Method: domain.PaymentMethodCash}, operator)
	suite.Require().NoError(err)
	suite.Equal(domain.ComplaintPaid, paid.State)
	suite.Equal(fee.ID, inv.ID)
	suite.Equal(domain.InvoicePaid, inv.State)

	_, _, err = suite.svc.Workflow.PayComplaintFee(suite.ctx, complaint.ID, dto.PayInvoiceRequest{Method: domain.PaymentMethodCash}, operator)
	suite.ErrorIs(err, apperrors.ErrStateConflict)

	_, err = suite.svc.Workflow.PlanComplaint(suite.ctx, complaint.ID, "inspections")
	suite.Require().NoError(err)

	ic, err := suite.svc.Workflow.AssignInspector(suite.ctx, complaint.ID, "insp-1", "inspections")
	suite.Require().NoError(err)
	suite.Equal(domain.InspectionAssigned, ic.State)
	suite.Equal(complaint.ID, *ic.ComplaintID)
	suite.Equal("insp-1", *ic.InspectorID)

	assigned, err := suite.svc.Workflow.GetComplaint(suite.ctx, complaint.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.ComplaintAssigned, assigned.State)
	suite.Equal(ic.ID, *assigned.InspectionCaseID)

	h := suite.history(domain.KindComplaint, complaint.ID)
	suite.Len(h, 3)
	suite.assertHistoryFollowsRegistry(domain.KindComplaint, h)
}

func (suite *WorkflowTestSuite) TestGetHistory_Validation() {
	_, err := suite.svc.Workflow.GetHistory(suite.ctx, domain.KindCompany, "1b4e28ba-2fa1-11d2-883f-0016d3cca427")
	suite.ErrorIs(err, apperrors.ErrValidation)
	_, err = suite.svc.Workflow.GetHistory(suite.ctx, domain.Kind("PLAYLIST"), "1b4e28ba-2fa1-11d2-883f-0016d3cca427")
	suite.ErrorIs(err, apperrors.ErrValidation)
	_, err = suite.svc.Workflow.GetHistory(suite.ctx, domain.KindInvoice, "not-a-uuid")
	suite.ErrorIs(err, apperrors.ErrValidation)
}
