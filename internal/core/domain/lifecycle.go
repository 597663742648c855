package domain

import "time"

// Kind identifies a record type with a declared lifecycle.
type Kind string

const (
	KindRegistrationRequest Kind = "REGISTRATION_REQUEST"
	KindCompanyRequest      Kind = "COMPANY_REQUEST"
	KindInspectionCase      Kind = "INSPECTION_CASE"
	KindLegalCase           Kind = "LEGAL_CASE"
	KindComplaint           Kind = "COMPLAINT"
	KindInvoice             Kind = "INVOICE"
	KindCashSession         Kind = "CASH_SESSION"
	KindClosure             Kind = "CLOSURE"
	// KindCompany has no lifecycle; it only appears as an invoice link target.
	KindCompany Kind = "COMPANY"
)

// IsValid checks if the kind is known.
func (k Kind) IsValid() bool {
	switch k {
	case KindRegistrationRequest, KindCompanyRequest, KindInspectionCase, KindLegalCase,
		KindComplaint, KindInvoice, KindCashSession, KindClosure, KindCompany:
		return true
	}
	return false
}

// String returns the string representation of Kind
func (k Kind) String() string {
	return string(k)
}

// State is a lifecycle state. Values are only meaningful together with a Kind.
type State string

// String returns the string representation of State
func (s State) String() string {
	return string(s)
}

// Lifecycle is embedded by every record that moves through a transition table.
type Lifecycle struct {
	State      State               `json:"state"`
	StateDates map[State]time.Time `json:"stateDates"` // First time each state was reached
}

// NewLifecycle starts a lifecycle in the given initial state.
func NewLifecycle(initial State, at time.Time) Lifecycle {
	return Lifecycle{State: initial, StateDates: map[State]time.Time{initial: at}}
}

// CurrentState returns the state the record is in.
func (l *Lifecycle) CurrentState() State {
	return l.State
}

// SetState moves the record to s and stamps the time it was reached.
func (l *Lifecycle) SetState(s State, at time.Time) {
	l.State = s
	if l.StateDates == nil {
		l.StateDates = make(map[State]time.Time)
	}
	l.StateDates[s] = at
}

// ReachedAt returns when the record entered s, if it ever did.
func (l *Lifecycle) ReachedAt(s State) (time.Time, bool) {
	at, ok := l.StateDates[s]
	return at, ok
}

// Record is implemented by every aggregate the state machine registry can move.
type Record interface {
	RecordKind() Kind
	RecordID() string
	CurrentState() State
	SetState(s State, at time.Time)
}

// StateTransition is one applied edge of a record's transition table.
type StateTransition struct {
	ID       string    `json:"id"`
	Kind     Kind      `json:"kind"`
	RecordID string    `json:"recordID"`
	From     State     `json:"from"`
	To       State     `json:"to"`
	At       time.Time `json:"at"`
	Actor    string    `json:"actor"`
	Note     string    `json:"note,omitempty"`
}

// RecordLink is a typed reference from an invoice to a record it bills.
type RecordLink struct {
	Kind     Kind   `json:"kind"`
	RecordID string `json:"recordID"`
}
