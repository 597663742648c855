package domain

// Legal case states.
const (
	LegalReceived    State = "RECEIVED"
	LegalInAttention State = "IN_ATTENTION"
	LegalClosed      State = "CLOSED"
)

// LegalCase is a referral of an unresolved infraction to the legal department.
type LegalCase struct {
	ID               string `json:"id"`
	Code             string `json:"code"` // CASO-LEG-YYYY-NNNN
	InspectionCaseID string `json:"inspectionCaseID"`
	InfractionActaID string `json:"infractionActaID"`
	CompanyID        string `json:"companyID"`
	Notes            string `json:"notes,omitempty"`
	ClosingNotes     string `json:"closingNotes,omitempty"`
	Lifecycle
	AuditFields
}

func (c *LegalCase) RecordKind() Kind { return KindLegalCase }
func (c *LegalCase) RecordID() string { return c.ID }
