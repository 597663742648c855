package domain

import "time"

// Inspection case states.
const (
	InspectionPendingAssignment State = "PENDING_ASSIGNMENT"
	InspectionAssigned          State = "ASSIGNED"
	InspectionGracePeriod       State = "GRACE_PERIOD"
	InspectionReferredToLegal   State = "REFERRED_TO_LEGAL"
	InspectionClosed            State = "CLOSED"
	InspectionClosedByPayment   State = "CLOSED_BY_PAYMENT"
)

// Resolution explains how an inspection case ended.
type Resolution string

const (
	ResolutionCorrectedOnFirstVisit  Resolution = "CORRECTED_ON_FIRST_VISIT"
	ResolutionCorrectedOnSecondVisit Resolution = "CORRECTED_ON_SECOND_VISIT"
	ResolutionReferredToLegal        Resolution = "REFERRED_TO_LEGAL"
	ResolutionResolvedByPayment      Resolution = "RESOLVED_BY_PAYMENT"
)

// InspectionCase follows one company through visits until it complies, pays or goes to legal.
type InspectionCase struct {
	ID                 string      `json:"id"`
	Code               string      `json:"code"` // CASO-INSP-YYYY-NNNN
	CompanyID          string      `json:"companyID"`
	ComplaintID        *string     `json:"complaintID,omitempty"`
	Reason             string      `json:"reason"`
	InspectorID        *string     `json:"inspectorID,omitempty"`
	AssignedAt         *time.Time  `json:"assignedAt,omitempty"`
	AssignedBy         *string     `json:"assignedBy,omitempty"`
	CorrectionDeadline *time.Time  `json:"correctionDeadline,omitempty"`
	Resolution         *Resolution `json:"resolution,omitempty"`
	LegalCaseID        *string     `json:"legalCaseID,omitempty"`
	Lifecycle
	AuditFields
}

func (c *InspectionCase) RecordKind() Kind { return KindInspectionCase }
func (c *InspectionCase) RecordID() string { return c.ID }

// IsTerminal reports whether the case can no longer move.
func (c *InspectionCase) IsTerminal() bool {
	return c.State == InspectionClosed || c.State == InspectionClosedByPayment
}

// Resolve stamps the resolution.
func (c *InspectionCase) Resolve(r Resolution) {
	c.Resolution = &r
}
