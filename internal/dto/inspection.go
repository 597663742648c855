package dto

import "time"

// CreateInspectionCaseRequest opens an inspection case against a company.
type CreateInspectionCaseRequest struct {
	CompanyID string `json:"companyId" binding:"required,uuid"`
	Reason    string `json:"reason" binding:"required,max=1000"`
}

// AssignInspectorRequest assigns an inspector to a case or a paid complaint.
type AssignInspectorRequest struct {
	InspectorID string `json:"inspectorId" binding:"required"`
}

// VisitReportRequest reports the outcome of an inspection visit.
type VisitReportRequest struct {
	// Compliant means the company complies (first visit) or has corrected the infraction (second visit).
	Compliant bool      `json:"compliant"`
	Findings  string    `json:"findings" binding:"required,max=4000"`
	VisitDate time.Time `json:"visitDate" binding:"required"`
}

// SubmitComplaintRequest files a complaint against a company.
type SubmitComplaintRequest struct {
	CompanyID           string `json:"companyId" binding:"required,uuid"`
	ComplainantName     string `json:"complainantName" binding:"required,max=200"`
	ComplainantDocument string `json:"complainantDocument" binding:"required,max=30"`
	Description         string `json:"description" binding:"required,max=4000"`
}
