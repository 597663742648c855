package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
	"github.com/SscSPs/onda_backoffice/internal/core/domain"
)

// records is an in-memory table of T keyed by id. Rows are copied on every read and write
// so callers never alias stored state.
type records[T any] struct {
	name  string
	rows  map[string]T
	id    func(*T) string
	state func(*T) domain.State // nil for records without a lifecycle
	copy  func(T) T
}

func newRecords[T any](name string, id func(*T) string, state func(*T) domain.State, cp func(T) T) *records[T] {
	return &records[T]{name: name, rows: make(map[string]T), id: id, state: state, copy: cp}
}

func (r *records[T]) clone() *records[T] {
	c := &records[T]{name: r.name, rows: make(map[string]T, len(r.rows)), id: r.id, state: r.state, copy: r.copy}
	for k, v := range r.rows {
		c.rows[k] = r.copy(v)
	}
	return c
}

func (r *records[T]) FindByID(_ context.Context, id string) (*T, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", r.name, id, apperrors.ErrNotFound)
	}
	c := r.copy(row)
	return &c, nil
}

// FindByIDForUpdate needs no row lock: the store serializes whole transactions.
func (r *records[T]) FindByIDForUpdate(ctx context.Context, id string) (*T, error) {
	return r.FindByID(ctx, id)
}

func (r *records[T]) Save(_ context.Context, rec T) error {
	id := r.id(&rec)
	if _, exists := r.rows[id]; exists {
		return fmt.Errorf("%s %s: %w", r.name, id, apperrors.ErrDuplicate)
	}
	r.rows[id] = r.copy(rec)
	return nil
}

func (r *records[T]) Update(_ context.Context, rec T, from domain.State) error {
	id := r.id(&rec)
	cur, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("%s %s: %w", r.name, id, apperrors.ErrNotFound)
	}
	if r.state != nil && r.state(&cur) != from {
		return fmt.Errorf("%w: %s %s is %s, not %s", apperrors.ErrStateConflict, r.name, id, r.state(&cur), from)
	}
	r.rows[id] = r.copy(rec)
	return nil
}

func (r *records[T]) put(rec T) error {
	id := r.id(&rec)
	if _, ok := r.rows[id]; !ok {
		return fmt.Errorf("%s %s: %w", r.name, id, apperrors.ErrNotFound)
	}
	r.rows[id] = r.copy(rec)
	return nil
}

// filter returns copies of the matching rows ordered by id.
func (r *records[T]) filter(match func(*T) bool) []T {
	ids := make([]string, 0, len(r.rows))
	for id, row := range r.rows {
		if match(&row) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.copy(r.rows[id]))
	}
	return out
}

func copyLifecycle(l domain.Lifecycle) domain.Lifecycle {
	dates := make(map[domain.State]time.Time, len(l.StateDates))
	for k, v := range l.StateDates {
		dates[k] = v
	}
	return domain.Lifecycle{State: l.State, StateDates: dates}
}

func identity[T any](v T) T { return v }
