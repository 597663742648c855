package domain

import "time"

// IRC company registration request states.
const (
	CompanyRequestPending               State = "PENDING"
	CompanyRequestValidated             State = "VALIDATED"
	CompanyRequestPaid                  State = "PAID"
	CompanyRequestAwaitingAaUCorrection State = "AWAITING_AAU_CORRECTION"
	CompanyRequestRecorded              State = "RECORDED"
	CompanyRequestPendingSignature      State = "PENDING_SIGNATURE"
	CompanyRequestSigned                State = "SIGNED"
	CompanyRequestDelivered             State = "DELIVERED"
)

// CompanyRequestType distinguishes a first registration from a renewal.
type CompanyRequestType string

const (
	CompanyRequestNew     CompanyRequestType = "NEW"
	CompanyRequestRenewal CompanyRequestType = "RENEWAL"
)

// IsValid checks if the request type is valid
func (t CompanyRequestType) IsValid() bool {
	return t == CompanyRequestNew || t == CompanyRequestRenewal
}

// CompanyRequest is an IRC registration (or renewal) of an import/distribution business.
type CompanyRequest struct {
	ID                       string             `json:"id"`
	Code                     string             `json:"code"` // IRC-NNNNNNNN
	FormSequence             int64              `json:"formSequence"`
	RequestType              CompanyRequestType `json:"requestType"`
	CompanyID                *string            `json:"companyID,omitempty"`
	CompanyName              string             `json:"companyName"`
	TaxID                    string             `json:"taxID"`
	Address                  string             `json:"address"`
	Activity                 string             `json:"activity"`
	RegistrationNumber       *string            `json:"registrationNumber,omitempty"`
	CertificateFileRef       *string            `json:"certificateFileRef,omitempty"`
	SignedCertificateFileRef *string            `json:"signedCertificateFileRef,omitempty"`
	ReturnNote               *string            `json:"returnNote,omitempty"`
	DeliveredAt              *time.Time         `json:"deliveredAt,omitempty"`
	Lifecycle
	AuditFields
}

func (r *CompanyRequest) RecordKind() Kind { return KindCompanyRequest }
func (r *CompanyRequest) RecordID() string { return r.ID }
