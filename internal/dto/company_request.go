package dto

import "github.com/SscSPs/onda_backoffice/internal/core/domain"

// CreateCompanyRequest files an IRC registration or renewal.
type CreateCompanyRequest struct {
	RequestType domain.CompanyRequestType `json:"requestType" binding:"required,oneof=NEW RENEWAL"`
	// CompanyID is required for renewals.
	CompanyID   *string `json:"companyId" binding:"required_if=RequestType RENEWAL,omitempty,uuid"`
	CompanyName string  `json:"companyName" binding:"required,max=200"`
	TaxID       string  `json:"taxId" binding:"required,max=20"`
	Address     string  `json:"address" binding:"max=300"`
	Activity    string  `json:"activity" binding:"max=200"`
}
