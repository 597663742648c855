package domain

// Complaint (denuncia) states.
const (
	ComplaintPendingPayment State = "PENDING_PAYMENT"
	ComplaintPaid           State = "PAID"
	ComplaintInPlanning     State = "IN_PLANNING"
	ComplaintAssigned       State = "ASSIGNED"
)

// Complaint is a third-party denunciation against a company. It unlocks an inspection once its fee is paid.
type Complaint struct {
	ID                  string  `json:"id"`
	Code                string  `json:"code"` // DEN-YYYY-NNNN
	CompanyID           string  `json:"companyID"`
	ComplainantName     string  `json:"complainantName"`
	ComplainantDocument string  `json:"complainantDocument"`
	Description         string  `json:"description"`
	InspectionCaseID    *string `json:"inspectionCaseID,omitempty"`
	Lifecycle
	AuditFields
}

func (c *Complaint) RecordKind() Kind { return KindComplaint }
func (c *Complaint) RecordID() string { return c.ID }
