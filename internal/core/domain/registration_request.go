package domain

import "time"

// Copyright registration form states.
const (
	RegistrationPending     State = "PENDING"
	RegistrationPaid        State = "PAID"
	RegistrationUnderReview State = "UNDER_REVIEW"
	RegistrationReturned    State = "RETURNED"
	RegistrationRegistered  State = "REGISTERED"
	RegistrationCertified   State = "CERTIFIED"
	RegistrationDelivered   State = "DELIVERED"
)

// RegistrationRequest is a copyright registration application.
type RegistrationRequest struct {
	ID                 string     `json:"id"`
	Code               string     `json:"code"` // SOL-NNNNNNNN
	FormSequence       int64      `json:"formSequence"`
	ApplicantName      string     `json:"applicantName"`
	ApplicantDocument  string     `json:"applicantDocument"`
	WorkTitle          string     `json:"workTitle"`
	WorkType           string     `json:"workType"`
	RegistrationNumber *string    `json:"registrationNumber,omitempty"`
	CertificateFileRef *string    `json:"certificateFileRef,omitempty"`
	CertificateAt      *time.Time `json:"certificateAt,omitempty"`
	RejectionNote      *string    `json:"rejectionNote,omitempty"`
	Lifecycle
	AuditFields
}

func (r *RegistrationRequest) RecordKind() Kind { return KindRegistrationRequest }
func (r *RegistrationRequest) RecordID() string { return r.ID }
