package domain

import "time"

// ActaType classifies a visit report.
type ActaType string

const (
	ActaCompliance ActaType = "COMPLIANCE"
	ActaInfraction ActaType = "INFRACTION"
)

// Acta is the signed report of one inspection visit. Actas are never updated.
type Acta struct {
	ID          string    `json:"id"`
	CaseID      string    `json:"caseID"`
	Type        ActaType  `json:"type"`
	VisitNumber int       `json:"visitNumber"`
	Findings    string    `json:"findings"`
	VisitDate   time.Time `json:"visitDate"`
	InspectorID string    `json:"inspectorID"`
	CreatedAt   time.Time `json:"createdAt"`
	CreatedBy   string    `json:"createdBy"`
}

// FindActa returns the first acta of the given type and visit number.
func FindActa(actas []Acta, t ActaType, visit int) (Acta, bool) {
	for _, a := range actas {
		if a.Type == t && a.VisitNumber == visit {
			return a, true
		}
	}
	return Acta{}, false
}
