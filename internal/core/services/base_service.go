package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	portsrepo "github.com/SscSPs/onda_backoffice/internal/core/ports/repositories"
	"github.com/SscSPs/onda_backoffice/internal/core/statemachine"
	"github.com/SscSPs/onda_backoffice/internal/middleware"
	"github.com/SscSPs/onda_backoffice/internal/platform/metrics"
)

// BaseService provides common functionality for all services
type BaseService struct {
	registry *statemachine.Registry
	metrics  *metrics.Metrics
	clock    func() time.Time
	location *time.Location
}

// Option is a functional option shared by every service constructor.
type Option func(*BaseService)

// WithClock overrides the time source. Tests use it to pin dates.
func WithClock(clock func() time.Time) Option {
	return func(s *BaseService) {
		s.clock = clock
	}
}

// WithLocation sets the zone whose calendar day stamps daily codes. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *BaseService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithMetrics records domain metrics. Services work without it.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *BaseService) {
		s.metrics = m
	}
}

// WithRegistry replaces the default transition tables.
func WithRegistry(r *statemachine.Registry) Option {
	return func(s *BaseService) {
		s.registry = r
	}
}

func newBaseService(opts []Option) BaseService {
	b := BaseService{
		registry: statemachine.Default(),
		clock:    func() time.Time { return time.Now().UTC() },
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (s *BaseService) now() time.Time {
	return s.clock()
}

// local moves t into the configured zone so daily counters follow the office calendar.
func (s *BaseService) local(t time.Time) time.Time {
	return t.In(s.location)
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	logger := middleware.GetLoggerFromCtx(ctx)
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn(msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Debug(msg, keyvals...)
}

// runTx runs fn in one transaction of uow. Transition metrics are only counted once the
// transaction commits. Server faults are logged at error level, caller mistakes at debug.
func (s *BaseService) runTx(ctx context.Context, uow portsrepo.UnitOfWork, op string, fn func(ctx context.Context, tx portsrepo.Tx) error) error {
	start := time.Now()
	var applied []domain.StateTransition
	err := uow.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Tx) error {
		applied = applied[:0]
		return fn(ctx, &journaledTx{Tx: tx, applied: &applied})
	})
	s.metrics.ObserveOperation(op, start, err)
	if err != nil {
		if apperrors.IsServerFault(err) {
			s.LogError(ctx, err, op+" failed", slog.String("kind", apperrors.Kind(err)))
		} else {
			s.LogDebug(ctx, op+" rejected", slog.String("error", err.Error()), slog.String("kind", apperrors.Kind(err)))
		}
		return err
	}
	for _, t := range applied {
		s.metrics.IncrementTransition(t.Kind.String(), t.To.String())
	}
	return nil
}

// transition applies the edge to rec and appends it to the log of tx.
// The caller persists rec with a guarded update afterwards.
func (s *BaseService) transition(ctx context.Context, tx portsrepo.Tx, rec domain.Record, to domain.State, c statemachine.Context) error {
	if c.At.IsZero() {
		c.At = s.now()
	}
	t, err := s.registry.Apply(rec, to, c)
	if err != nil {
		return err
	}
	return tx.Transitions().Append(ctx, t)
}

// ensureCanMove rejects an illegal edge before the caller starts writing related records.
// Preconditions are left to transition, once their facts exist.
func (s *BaseService) ensureCanMove(rec domain.Record, to domain.State, c statemachine.Context) error {
	from := rec.CurrentState()
	if c.ExpectedFrom != "" && c.ExpectedFrom != from {
		return stateConflict(rec, to)
	}
	if !s.registry.CanTransition(rec.RecordKind(), from, to) {
		return stateConflict(rec, to)
	}
	return nil
}

// journaledTx remembers the transitions appended through it.
type journaledTx struct {
	portsrepo.Tx
	applied *[]domain.StateTransition
}

func (t *journaledTx) Transitions() portsrepo.TransitionRepository {
	return journaledTransitions{TransitionRepository: t.Tx.Transitions(), applied: t.applied}
}

type journaledTransitions struct {
	portsrepo.TransitionRepository
	applied *[]domain.StateTransition
}

func (j journaledTransitions) Append(ctx context.Context, transitions ...domain.StateTransition) error {
	if err := j.TransitionRepository.Append(ctx, transitions...); err != nil {
		return err
	}
	*j.applied = append(*j.applied, transitions...)
	return nil
}
