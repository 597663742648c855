package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	portsrepo "github.com/SscSPs/onda_backoffice/internal/core/ports/repositories"
	"github.com/SscSPs/onda_backoffice/internal/core/statemachine"
	"github.com/google/uuid"
)

// auditedRecord is a pointer to a lifecycle record carrying audit fields.
type auditedRecord[T any] interface {
	*T
	domain.Record
	Touch(actor string, at time.Time)
}

// moveRecord locks the record, lets prepare gather the facts of the transition, applies it
// and writes the record back guarded by the state it was read in.
func moveRecord[T any, P auditedRecord[T]](
	ctx context.Context,
	s *BaseService,
	tx portsrepo.Tx,
	repo portsrepo.LifecycleRepository[T],
	id string,
	to domain.State,
	c statemachine.Context,
	prepare func(rec P, c *statemachine.Context) error,
) (*T, error) {
	rec, err := repo.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	p := P(rec)
	from := p.CurrentState()
	if c.At.IsZero() {
		c.At = s.now()
	}
	if err := s.ensureCanMove(p, to, c); err != nil {
		return nil, err
	}
	if prepare != nil {
		if err := prepare(p, &c); err != nil {
			return nil, err
		}
	}
	if err := s.transition(ctx, tx, p, to, c); err != nil {
		return nil, err
	}
	p.Touch(c.Actor, c.At)
	if err := repo.Update(ctx, *rec, from); err != nil {
		return nil, err
	}
	return rec, nil
}

func stateConflict(rec domain.Record, to domain.State) error {
	return fmt.Errorf("%w: %s %s cannot move from %s to %s",
		apperrors.ErrStateConflict, rec.RecordKind(), rec.RecordID(), rec.CurrentState(), to)
}

func requireID(name, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %s is required", apperrors.ErrValidation, name)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s %q is not a valid id", apperrors.ErrValidation, name, id)
	}
	return nil
}

func requireText(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", apperrors.ErrValidation, name)
	}
	return nil
}

// nextCode draws the next value of a code series inside tx.
func nextCode(ctx context.Context, tx portsrepo.Tx, series domain.CodeSeries) (string, int64, error) {
	n, err := tx.Codes().Next(ctx, series.Scope)
	if err != nil {
		return "", 0, fmt.Errorf("failed to draw code %s: %w", series.Scope, err)
	}
	return series.Format(n), n, nil
}
