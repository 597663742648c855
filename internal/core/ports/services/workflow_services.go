package services

import (
	"context"

	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	"github.com/SscSPs/onda_backoffice/internal/dto"
)

// PaymentWorkflowSvc drives payments and their propagation to billed records.
type PaymentWorkflowSvc interface {
	// PayInvoice pays an open invoice at the actor's open session and promotes every billed record.
	// Any failure leaves the invoice open and nothing written.
	PayInvoice(ctx context.Context, invoiceID string, req dto.PayInvoiceRequest, actor string) (*domain.Invoice, error)

	// MarkRequestsPaidByInvoice promotes the records billed by an already paid invoice.
	MarkRequestsPaidByInvoice(ctx context.Context, invoiceID, actor string) ([]domain.RecordLink, error)

	// CloseCaseByPayment closes the open inspection cases of a company after a renewal payment.
	// With nothing open it returns apperrors.ErrNotFound and writes nothing.
	CloseCaseByPayment(ctx context.Context, companyID, actor string) ([]domain.InspectionCase, error)
}

// RegistrationWorkflowSvc is the copyright registration pipeline.
type RegistrationWorkflowSvc interface {
	CreateRegistrationRequest(ctx context.Context, req dto.CreateRegistrationRequest, actor string) (*domain.RegistrationRequest, error)
	GetRegistrationRequest(ctx context.Context, id string) (*domain.RegistrationRequest, error)
	SubmitToRegistry(ctx context.Context, id, actor string) (*domain.RegistrationRequest, error)
	ReturnForCorrection(ctx context.Context, id, note, actor string) (*domain.RegistrationRequest, error)
	CorrectAndResubmit(ctx context.Context, id, actor string) (*domain.RegistrationRequest, error)
	Register(ctx context.Context, id, actor string) (*domain.RegistrationRequest, error)
	Certify(ctx context.Context, id, fileRef, actor string) (*domain.RegistrationRequest, error)
	DeliverRegistration(ctx context.Context, id, actor string) (*domain.RegistrationRequest, error)
	// DeleteRegistrationRequest is only allowed while pending and unbilled.
	DeleteRegistrationRequest(ctx context.Context, id, actor string) error
}

// CompanyWorkflowSvc is the IRC company registration pipeline.
type CompanyWorkflowSvc interface {
	CreateCompanyRequest(ctx context.Context, req dto.CreateCompanyRequest, actor string) (*domain.CompanyRequest, error)
	GetCompanyRequest(ctx context.Context, id string) (*domain.CompanyRequest, error)
	GetCompany(ctx context.Context, id string) (*domain.Company, error)
	// ValidateCompanyRequest validates the request and bills its fee.
	ValidateCompanyRequest(ctx context.Context, id, actor string) (*domain.CompanyRequest, *domain.Invoice, error)
	ReturnToAaU(ctx context.Context, id, note, actor string) (*domain.CompanyRequest, error)
	ResubmitFromAaU(ctx context.Context, id, actor string) (*domain.CompanyRequest, error)
	// RecordAsEntered creates the company (first registration) or extends it by one year (renewal).
	RecordAsEntered(ctx context.Context, id, actor string) (*domain.CompanyRequest, *domain.Company, error)
	GenerateCertificate(ctx context.Context, id, actor string) (*domain.CompanyRequest, error)
	SignCertificate(ctx context.Context, id, signedFileRef, actor string) (*domain.CompanyRequest, error)
	DeliverCertificate(ctx context.Context, id, actor string) (*domain.CompanyRequest, error)
}

// InspectionWorkflowSvc is the inspection and legal referral track.
type InspectionWorkflowSvc interface {
	CreateInspectionCase(ctx context.Context, req dto.CreateInspectionCaseRequest, actor string) (*domain.InspectionCase, error)
	GetInspectionCase(ctx context.Context, id string) (*domain.InspectionCase, error)
	ListActas(ctx context.Context, caseID string) ([]domain.Acta, error)
	// AssignInspector accepts a pending inspection case id or a paid complaint id.
	AssignInspector(ctx context.Context, caseOrComplaintID, inspectorID, actor string) (*domain.InspectionCase, error)
	ReportFirstVisit(ctx context.Context, caseID string, req dto.VisitReportRequest, actor string) (*domain.InspectionCase, error)
	// ReportSecondVisit returns the legal case opened when the infraction was not corrected.
	ReportSecondVisit(ctx context.Context, caseID string, req dto.VisitReportRequest, actor string) (*domain.InspectionCase, *domain.LegalCase, error)
	ReferToLegal(ctx context.Context, caseID, note, actor string) (*domain.InspectionCase, *domain.LegalCase, error)
	GetLegalCase(ctx context.Context, id string) (*domain.LegalCase, error)
	AttendLegalCase(ctx context.Context, id, note, actor string) (*domain.LegalCase, error)
	CloseLegalCase(ctx context.Context, id, note, actor string) (*domain.LegalCase, error)
}

// ComplaintWorkflowSvc is the complaint track.
type ComplaintWorkflowSvc interface {
	// SubmitComplaint files the complaint together with its fee invoice.
	SubmitComplaint(ctx context.Context, req dto.SubmitComplaintRequest, actor string) (*domain.Complaint, *domain.Invoice, error)
	GetComplaint(ctx context.Context, id string) (*domain.Complaint, error)
	PayComplaintFee(ctx context.Context, complaintID string, req dto.PayInvoiceRequest, actor string) (*domain.Complaint, *domain.Invoice, error)
	PlanComplaint(ctx context.Context, id, actor string) (*domain.Complaint, error)
}

// HistorySvc reads the transition log.
type HistorySvc interface {
	GetHistory(ctx context.Context, kind domain.Kind, recordID string) ([]domain.StateTransition, error)
}

// CoordinatorFacade combines every cross-aggregate workflow operation.
type CoordinatorFacade interface {
	PaymentWorkflowSvc
	RegistrationWorkflowSvc
	CompanyWorkflowSvc
	InspectionWorkflowSvc
	ComplaintWorkflowSvc
	HistorySvc
}

// CertificateRenderer produces the certificate document of a record and returns its file reference.
type CertificateRenderer interface {
	RenderCompanyCertificate(ctx context.Context, req domain.CompanyRequest) (string, error)
}
