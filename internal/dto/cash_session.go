package dto

import (
	"time"

	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	"github.com/shopspring/decimal"
)

// OpenCashSessionRequest opens a session for the authenticated operator.
type OpenCashSessionRequest struct {
	Description string `json:"description" binding:"max=255"`
}

// CloseCashSessionRequest closes a session with the amount counted in the drawer.
type CloseCashSessionRequest struct {
	DeclaredAmount decimal.Decimal `json:"declaredAmount" binding:"decimalgte0"`
	Notes          string          `json:"notes" binding:"max=1000"`
}

// AttachInvoiceRequest attaches an open invoice to a session before payment.
type AttachInvoiceRequest struct {
	InvoiceID string `json:"invoiceId" binding:"required,uuid"`
}

// CashSessionResponse mirrors domain.CashSession.
type CashSessionResponse struct {
	ID             string           `json:"id"`
	Code           string           `json:"code"`
	OperatorID     *string          `json:"operatorID,omitempty"`
	OpenedBy       string           `json:"openedBy"`
	Description    string           `json:"description"`
	State          domain.State     `json:"state"`
	OpeningBalance decimal.Decimal  `json:"openingBalance"`
	CollectedTotal decimal.Decimal  `json:"collectedTotal"`
	DeclaredAmount *decimal.Decimal `json:"declaredAmount,omitempty"`
	ExpectedAmount *decimal.Decimal `json:"expectedAmount,omitempty"`
	Variance       *decimal.Decimal `json:"variance,omitempty"`
	ClosureID      string           `json:"closureID"`
	OpenedAt       time.Time        `json:"openedAt"`
	ClosedAt       *time.Time       `json:"closedAt,omitempty"`
}

// ClosureResponse mirrors domain.Closure.
type ClosureResponse struct {
	ID            string           `json:"id"`
	CashSessionID string           `json:"cashSessionID"`
	State         domain.State     `json:"state"`
	Expected      *decimal.Decimal `json:"expected,omitempty"`
	Declared      *decimal.Decimal `json:"declared,omitempty"`
	Variance      *decimal.Decimal `json:"variance,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	ClosedAt      *time.Time       `json:"closedAt,omitempty"`
	ClosedBy      string           `json:"closedBy,omitempty"`
}

// OpenCashSessionResponse is returned when a session is opened.
type OpenCashSessionResponse struct {
	Session CashSessionResponse `json:"session"`
	Closure ClosureResponse     `json:"closure"`
}

// CloseCashSessionResponse is returned when a session is closed.
type CloseCashSessionResponse struct {
	Session         CashSessionResponse `json:"session"`
	Closure         ClosureResponse     `json:"closure"`
	ReconciledCount int                 `json:"reconciledCount"`
}

// ToCashSessionResponse converts a domain.CashSession to CashSessionResponse
func ToCashSessionResponse(s *domain.CashSession) CashSessionResponse {
	return CashSessionResponse{
		ID:             s.ID,
		Code:           s.Code,
		OperatorID:     s.OperatorID,
		OpenedBy:       s.OpenedBy,
		Description:    s.Description,
		State:          s.State,
		OpeningBalance: s.OpeningBalance,
		CollectedTotal: s.CollectedTotal,
		DeclaredAmount: s.DeclaredAmount,
		ExpectedAmount: s.ExpectedAmount,
		Variance:       s.Variance,
		ClosureID:      s.ClosureID,
		OpenedAt:       s.OpenedAt,
		ClosedAt:       s.ClosedAt,
	}
}

// ToClosureResponse converts a domain.Closure to ClosureResponse
func ToClosureResponse(c *domain.Closure) ClosureResponse {
	return ClosureResponse{
		ID:            c.ID,
		CashSessionID: c.CashSessionID,
		State:         c.State,
		Expected:      c.Expected,
		Declared:      c.Declared,
		Variance:      c.Variance,
		Notes:         c.Notes,
		ClosedAt:      c.ClosedAt,
		ClosedBy:      c.ClosedBy,
	}
}

// ToCloseCashSessionResponse converts a settlement to its response.
func ToCloseCashSessionResponse(s *domain.SessionSettlement) CloseCashSessionResponse {
	return CloseCashSessionResponse{
		Session:         ToCashSessionResponse(&s.Session),
		Closure:         ToClosureResponse(&s.Closure),
		ReconciledCount: s.ReconciledCount,
	}
}
