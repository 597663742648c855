package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	portsrepo "github.com/SscSPs/onda_backoffice/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/onda_backoffice/internal/core/ports/services"
	"github.com/SscSPs/onda_backoffice/internal/dto"
	"github.com/google/uuid"
)

// sequenceService allocates fiscal numbers from the ranges granted by the tax authority.
type sequenceService struct {
	BaseService
	uow          portsrepo.UnitOfWork
	lowThreshold int64
}

// NewSequenceService creates the fiscal sequence allocator.
// A reservation leaving fewer than lowThreshold numbers in its range is flagged.
func NewSequenceService(uow portsrepo.UnitOfWork, lowThreshold int64, opts ...Option) portssvc.SequenceSvcFacade {
	return &sequenceService{
		BaseService:  newBaseService(opts),
		uow:          uow,
		lowThreshold: lowThreshold,
	}
}

var _ portssvc.SequenceSvcFacade = (*sequenceService)(nil)

func (s *sequenceService) GetSequence(ctx context.Context, id string) (*domain.FiscalSequence, error) {
	if err := requireID("sequence id", id); err != nil {
		return nil, err
	}
	var seq *domain.FiscalSequence
	err := s.runTx(ctx, s.uow, "GetSequence", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		seq, err = tx.Sequences().FindByID(ctx, id)
		return err
	})
	return seq, err
}

func (s *sequenceService) CreateSequence(ctx context.Context, req dto.CreateSequenceRequest, actor string) (*domain.FiscalSequence, error) {
	now := s.now()
	seq, err := domain.NewFiscalSequence(uuid.NewString(), req.TypeCode, req.Series, req.RangeStart, req.RangeEnd, req.Expiry, actor, now)
	if err != nil {
		return nil, err
	}

	err = s.runTx(ctx, s.uow, "CreateSequence", func(ctx context.Context, tx portsrepo.Tx) error {
		active, err := tx.Sequences().ListActiveForUpdate(ctx, seq.TypeCode, seq.Series)
		if err != nil {
			return fmt.Errorf("failed to list active sequences: %w", err)
		}
		for _, other := range active {
			if seq.Overlaps(other) {
				return fmt.Errorf("%w: range %d-%d overlaps active sequence %s (%d-%d)",
					apperrors.ErrConflict, seq.RangeStart, seq.RangeEnd, other.ID, other.RangeStart, other.RangeEnd)
			}
		}
		return tx.Sequences().Save(ctx, seq)
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Fiscal sequence created",
		slog.String("sequence_id", seq.ID),
		slog.String("type_code", seq.TypeCode),
		slog.String("series", seq.Series),
		slog.Int64("range_start", seq.RangeStart),
		slog.Int64("range_end", seq.RangeEnd))
	return &seq, nil
}

func (s *sequenceService) DeactivateSequence(ctx context.Context, id string, actor string) (*domain.FiscalSequence, error) {
	if err := requireID("sequence id", id); err != nil {
		return nil, err
	}
	var seq *domain.FiscalSequence
	err := s.runTx(ctx, s.uow, "DeactivateSequence", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		seq, err = tx.Sequences().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !seq.Active {
			return nil
		}
		seq.Active = false
		seq.Touch(actor, s.now())
		return tx.Sequences().Update(ctx, *seq)
	})
	if err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Fiscal sequence deactivated", slog.String("sequence_id", id))
	return seq, nil
}

func (s *sequenceService) ReserveNumber(ctx context.Context, typeCode string) (*domain.FiscalReservation, error) {
	var res domain.FiscalReservation
	err := s.runTx(ctx, s.uow, "ReserveNumber", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		res, err = s.Reserve(ctx, tx, typeCode)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Reserve locks the usable sequence with the lowest cursor and advances it by one.
// Concurrent reservations of the same type serialize on that row lock.
func (s *sequenceService) Reserve(ctx context.Context, tx portsrepo.Tx, typeCode string) (domain.FiscalReservation, error) {
	if err := requireText("fiscal type", typeCode); err != nil {
		return domain.FiscalReservation{}, err
	}
	now := s.now()

	seq, err := tx.Sequences().NextUsableForUpdate(ctx, typeCode, now)
	if errors.Is(err, apperrors.ErrNotFound) {
		s.metrics.IncrementExhausted(typeCode)
		s.LogWarn(ctx, "No usable fiscal sequence", slog.String("type_code", typeCode))
		return domain.FiscalReservation{}, fmt.Errorf("%w: no usable fiscal sequence for type %s", apperrors.ErrResourceExhausted, typeCode)
	}
	if err != nil {
		return domain.FiscalReservation{}, fmt.Errorf("failed to lock fiscal sequence: %w", err)
	}

	n, err := seq.Advance()
	if err != nil {
		s.metrics.IncrementExhausted(typeCode)
		return domain.FiscalReservation{}, err
	}
	seq.LastUpdatedAt = now
	if err := tx.Sequences().Update(ctx, *seq); err != nil {
		return domain.FiscalReservation{}, fmt.Errorf("failed to advance fiscal sequence %s: %w", seq.ID, err)
	}

	remaining := seq.Remaining()
	low := remaining < s.lowThreshold
	if low {
		s.LogWarn(ctx, "Fiscal sequence running low",
			slog.String("sequence_id", seq.ID),
			slog.String("type_code", seq.TypeCode),
			slog.String("series", seq.Series),
			slog.Int64("remaining", remaining))
	}
	s.metrics.ObserveReservation(seq.TypeCode, seq.Series, remaining, low)

	return domain.FiscalReservation{
		Number:      domain.FiscalNumber(seq.TypeCode, seq.Series, n),
		SequenceID:  seq.ID,
		TypeCode:    seq.TypeCode,
		Series:      seq.Series,
		Value:       n,
		Remaining:   remaining,
		LowCapacity: low,
	}, nil
}
