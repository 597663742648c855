package domain

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	CashSessionOpen   State = "OPEN"
	CashSessionClosed State = "CLOSED"

	ClosureOpen   State = "OPEN"
	ClosureClosed State = "CLOSED"
)

// CashSession is one operator's cash-register shift.
type CashSession struct {
	ID          string `json:"id"`
	Code        string `json:"code"` // CAJA-YYYYMMDD-NNNN
	// OperatorID holds the owner while the session is open and is cleared on close.
	OperatorID     *string          `json:"operatorID,omitempty"`
	OpenedBy       string           `json:"openedBy"`
	Description    string           `json:"description"`
	OpeningBalance decimal.Decimal  `json:"openingBalance"`
	CollectedTotal decimal.Decimal  `json:"collectedTotal"`
	DeclaredAmount *decimal.Decimal `json:"declaredAmount,omitempty"`
	ExpectedAmount *decimal.Decimal `json:"expectedAmount,omitempty"`
	Variance       *decimal.Decimal `json:"variance,omitempty"`
	ClosureID      string           `json:"closureID"`
	Notes          string           `json:"notes,omitempty"`
	OpenedAt       time.Time        `json:"openedAt"`
	ClosedAt       *time.Time       `json:"closedAt,omitempty"`
	Lifecycle
	AuditFields
}

func (s *CashSession) RecordKind() Kind { return KindCashSession }
func (s *CashSession) RecordID() string { return s.ID }

// IsOpen reports whether invoices may still be attached.
func (s *CashSession) IsOpen() bool {
	return s.State == CashSessionOpen
}

// Closure is the settlement record of one cash session.
type Closure struct {
	ID            string           `json:"id"`
	CashSessionID string           `json:"cashSessionID"`
	Expected      *decimal.Decimal `json:"expected,omitempty"`
	Declared      *decimal.Decimal `json:"declared,omitempty"`
	Variance      *decimal.Decimal `json:"variance,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	OpenedAt      time.Time        `json:"openedAt"`
	ClosedAt      *time.Time       `json:"closedAt,omitempty"`
	ClosedBy      string           `json:"closedBy,omitempty"`
	Lifecycle
}

func (c *Closure) RecordKind() Kind { return KindClosure }
func (c *Closure) RecordID() string { return c.ID }

// Reconciliation is the outcome of matching a session's invoices against the declared amount.
type Reconciliation struct {
	Expected decimal.Decimal
	Declared decimal.Decimal
	Variance decimal.Decimal
	// Settled are the invoices the closure takes ownership of.
	Settled []*Invoice
	// Detached are still-open invoices released from the session.
	Detached []*Invoice
}

// Reconcile computes expected and variance over the invoices of a session.
// Invoices already owned by a closure are ignored. Variance is never adjusted.
func Reconcile(invoices []*Invoice, declared decimal.Decimal) Reconciliation {
	pending := lo.Filter(invoices, func(inv *Invoice, _ int) bool {
		return inv.ClosureID == nil
	})
	settled, detached := lo.FilterReject(pending, func(inv *Invoice, _ int) bool {
		return inv.State != InvoiceOpen
	})
	expected := lo.Reduce(settled, func(acc decimal.Decimal, inv *Invoice, _ int) decimal.Decimal {
		return acc.Add(inv.Total)
	}, decimal.Zero)
	return Reconciliation{
		Expected: expected,
		Declared: declared,
		Variance: declared.Sub(expected),
		Settled:  settled,
		Detached: detached,
	}
}

// SessionSettlement is the result of closing a cash session.
type SessionSettlement struct {
	Session         CashSession `json:"session"`
	Closure         Closure     `json:"closure"`
	ReconciledCount int         `json:"reconciledCount"`
}
