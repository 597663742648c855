package domain

import "time"

// ComplianceStatus tracks where a company stands with the inspection track.
type ComplianceStatus string

const (
	ComplianceCurrent  ComplianceStatus = "CURRENT"
	ComplianceNotified ComplianceStatus = "NOTIFIED"
	ComplianceInLegal  ComplianceStatus = "IN_LEGAL"
)

// RenewalStatus tracks whether the registration is still in force.
type RenewalStatus string

const (
	RenewalCurrent RenewalStatus = "CURRENT"
	RenewalExpired RenewalStatus = "EXPIRED"
)

// Company is a registered import/distribution business. It has no lifecycle of its own.
type Company struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	TaxID              string           `json:"taxID"`
	Address            string           `json:"address"`
	Activity           string           `json:"activity"`
	RegistrationNumber string           `json:"registrationNumber"`
	RegisteredAt       time.Time        `json:"registeredAt"`
	ExpiresAt          time.Time        `json:"expiresAt"`
	ComplianceStatus   ComplianceStatus `json:"complianceStatus"`
	RenewalStatus      RenewalStatus    `json:"renewalStatus"`
	LastInspectionAt   *time.Time       `json:"lastInspectionAt,omitempty"`
	AuditFields
}

// ExtendRegistration renews the registration for exactly one year from the action date.
func (c *Company) ExtendRegistration(at time.Time) {
	c.ExpiresAt = at.AddDate(1, 0, 0)
	c.RenewalStatus = RenewalCurrent
}

// MarkCurrent resets compliance and renewal to current.
func (c *Company) MarkCurrent() {
	c.ComplianceStatus = ComplianceCurrent
	c.RenewalStatus = RenewalCurrent
}
