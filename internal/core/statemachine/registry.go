// Package statemachine holds the transition tables of every record kind and applies them.
package statemachine

import (
	"fmt"
	"time"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	"github.com/google/uuid"
)

// Context carries the facts a transition may depend on. Preconditions only read it.
type Context struct {
	Actor string
	At    time.Time
	Note  string

	// ExpectedFrom, when set, is the state the caller read before deciding to transition.
	// A record that has moved since fails with a state conflict.
	ExpectedFrom domain.State

	Actas              []domain.Acta
	InvoicesPaid       bool
	FileRef            string
	Deadline           *time.Time
	InspectorID        string
	CompanyID          string
	RegistrationNumber string
	// SpawnedID is the id of a record created as part of the transition (legal case, inspection case).
	SpawnedID string
}

// Precondition is a side-effect free business rule guarding an edge.
type Precondition struct {
	Reason string
	Holds  func(rec domain.Record, c Context) bool
}

// Edge is one legal transition.
type Edge struct {
	From          domain.State
	To            domain.State
	Preconditions []Precondition
	// Effect updates the record's own fields once every precondition holds.
	Effect func(rec domain.Record, c Context)
}

// Table is the declared lifecycle of one record kind.
type Table struct {
	Kind     domain.Kind
	Initial  domain.State
	States   []domain.State
	Terminal []domain.State
	Edges    []Edge
}

type compiledTable struct {
	Table
	states   map[domain.State]struct{}
	terminal map[domain.State]struct{}
	edges    map[domain.State]map[domain.State]Edge
}

// Registry answers and applies transitions for every registered kind.
type Registry struct {
	tables map[domain.Kind]*compiledTable
}

// NewRegistry validates and compiles the given tables.
func NewRegistry(tables ...Table) (*Registry, error) {
	r := &Registry{tables: make(map[domain.Kind]*compiledTable, len(tables))}
	for _, t := range tables {
		if _, dup := r.tables[t.Kind]; dup {
			return nil, fmt.Errorf("%w: duplicate transition table for %s", apperrors.ErrConfiguration, t.Kind)
		}
		ct, err := compile(t)
		if err != nil {
			return nil, err
		}
		r.tables[t.Kind] = ct
	}
	return r, nil
}

func compile(t Table) (*compiledTable, error) {
	ct := &compiledTable{
		Table:    t,
		states:   make(map[domain.State]struct{}, len(t.States)),
		terminal: make(map[domain.State]struct{}, len(t.Terminal)),
		edges:    make(map[domain.State]map[domain.State]Edge),
	}
	for _, s := range t.States {
		ct.states[s] = struct{}{}
	}
	if _, ok := ct.states[t.Initial]; !ok {
		return nil, fmt.Errorf("%w: %s initial state %s is not declared", apperrors.ErrConfiguration, t.Kind, t.Initial)
	}
	for _, s := range t.Terminal {
		if _, ok := ct.states[s]; !ok {
			return nil, fmt.Errorf("%w: %s terminal state %s is not declared", apperrors.ErrConfiguration, t.Kind, s)
		}
		ct.terminal[s] = struct{}{}
	}
	for _, e := range t.Edges {
		_, fromOK := ct.states[e.From]
		_, toOK := ct.states[e.To]
		if !fromOK || !toOK {
			return nil, fmt.Errorf("%w: %s edge %s -> %s uses an undeclared state", apperrors.ErrConfiguration, t.Kind, e.From, e.To)
		}
		if _, term := ct.terminal[e.From]; term {
			return nil, fmt.Errorf("%w: %s terminal state %s has an outgoing edge", apperrors.ErrConfiguration, t.Kind, e.From)
		}
		if ct.edges[e.From] == nil {
			ct.edges[e.From] = make(map[domain.State]Edge)
		}
		if _, dup := ct.edges[e.From][e.To]; dup {
			return nil, fmt.Errorf("%w: %s edge %s -> %s declared twice", apperrors.ErrConfiguration, t.Kind, e.From, e.To)
		}
		ct.edges[e.From][e.To] = e
	}
	return ct, nil
}

func (r *Registry) table(kind domain.Kind) (*compiledTable, error) {
	t, ok := r.tables[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no transition table for %s", apperrors.ErrConfiguration, kind)
	}
	return t, nil
}

// CanTransition reports whether the table of kind has an edge from -> to.
func (r *Registry) CanTransition(kind domain.Kind, from, to domain.State) bool {
	t, ok := r.tables[kind]
	if !ok {
		return false
	}
	_, ok = t.edges[from][to]
	return ok
}

// Initial returns the state new records of kind start in.
func (r *Registry) Initial(kind domain.Kind) (domain.State, error) {
	t, err := r.table(kind)
	if err != nil {
		return "", err
	}
	return t.Initial, nil
}

// IsTerminal reports whether s is a terminal state of kind.
func (r *Registry) IsTerminal(kind domain.Kind, s domain.State) bool {
	t, ok := r.tables[kind]
	if !ok {
		return false
	}
	_, term := t.terminal[s]
	return term
}

// HasState reports whether s is declared for kind.
func (r *Registry) HasState(kind domain.Kind, s domain.State) bool {
	t, ok := r.tables[kind]
	if !ok {
		return false
	}
	_, ok = t.states[s]
	return ok
}

// NonTerminal lists the declared states of kind that still allow transitions.
func (r *Registry) NonTerminal(kind domain.Kind) []domain.State {
	t, ok := r.tables[kind]
	if !ok {
		return nil
	}
	var out []domain.State
	for _, s := range t.States {
		if _, term := t.terminal[s]; !term {
			out = append(out, s)
		}
	}
	return out
}

// Check validates a transition without touching the record.
func (r *Registry) Check(rec domain.Record, to domain.State, c Context) error {
	_, err := r.edgeFor(rec, to, c)
	return err
}

func (r *Registry) edgeFor(rec domain.Record, to domain.State, c Context) (Edge, error) {
	t, err := r.table(rec.RecordKind())
	if err != nil {
		return Edge{}, err
	}
	from := rec.CurrentState()
	if c.ExpectedFrom != "" && c.ExpectedFrom != from {
		return Edge{}, fmt.Errorf("%w: %s %s is %s, expected %s", apperrors.ErrStateConflict, rec.RecordKind(), rec.RecordID(), from, c.ExpectedFrom)
	}
	e, ok := t.edges[from][to]
	if !ok {
		return Edge{}, fmt.Errorf("%w: %s %s cannot move from %s to %s", apperrors.ErrStateConflict, rec.RecordKind(), rec.RecordID(), from, to)
	}
	for _, p := range e.Preconditions {
		if !p.Holds(rec, c) {
			return Edge{}, fmt.Errorf("%w: %s %s -> %s: %s", apperrors.ErrPreconditionFailed, rec.RecordKind(), rec.RecordID(), to, p.Reason)
		}
	}
	return e, nil
}

// Apply moves rec to the target state and returns the transition to log.
// On error the record is left untouched.
func (r *Registry) Apply(rec domain.Record, to domain.State, c Context) (domain.StateTransition, error) {
	e, err := r.edgeFor(rec, to, c)
	if err != nil {
		return domain.StateTransition{}, err
	}
	at := c.At
	if at.IsZero() {
		at = time.Now().UTC()
		c.At = at
	}
	from := rec.CurrentState()
	if e.Effect != nil {
		e.Effect(rec, c)
	}
	rec.SetState(to, at)
	return domain.StateTransition{
		ID:       uuid.NewString(),
		Kind:     rec.RecordKind(),
		RecordID: rec.RecordID(),
		From:     from,
		To:       to,
		At:       at,
		Actor:    c.Actor,
		Note:     c.Note,
	}, nil
}

// Edges returns a copy of the declared edges of kind.
func (r *Registry) Edges(kind domain.Kind) []Edge {
	t, ok := r.tables[kind]
	if !ok {
		return nil
	}
	return append([]Edge(nil), t.Table.Edges...)
}
