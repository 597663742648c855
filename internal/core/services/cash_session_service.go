package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	portsrepo "github.com/SscSPs/onda_backoffice/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/onda_backoffice/internal/core/ports/services"
	"github.com/SscSPs/onda_backoffice/internal/core/statemachine"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// cashSessionService is the cash-session reconciliation ledger.
type cashSessionService struct {
	BaseService
	uow portsrepo.UnitOfWork
}

// NewCashSessionService creates the cash session ledger.
func NewCashSessionService(uow portsrepo.UnitOfWork, opts ...Option) portssvc.CashSessionSvcFacade {
	return &cashSessionService{
		BaseService: newBaseService(opts),
		uow:         uow,
	}
}

var _ portssvc.CashSessionSvcFacade = (*cashSessionService)(nil)

func (s *cashSessionService) GetSession(ctx context.Context, id string) (*domain.CashSession, error) {
	if err := requireID("cash session id", id); err != nil {
		return nil, err
	}
	var session *domain.CashSession
	err := s.runTx(ctx, s.uow, "GetSession", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		session, err = tx.CashSessions().FindByID(ctx, id)
		return err
	})
	return session, err
}

func (s *cashSessionService) GetClosure(ctx context.Context, id string) (*domain.Closure, error) {
	if err := requireID("closure id", id); err != nil {
		return nil, err
	}
	var closure *domain.Closure
	err := s.runTx(ctx, s.uow, "GetClosure", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		closure, err = tx.CashSessions().FindClosureByID(ctx, id)
		return err
	})
	return closure, err
}

// Open creates the session together with the closure that will settle it.
func (s *cashSessionService) Open(ctx context.Context, operatorID, description string) (*domain.CashSession, *domain.Closure, error) {
	if err := requireText("operator id", operatorID); err != nil {
		return nil, nil, err
	}
	now := s.now()
	session := domain.CashSession{
		ID:             uuid.NewString(),
		OperatorID:     &operatorID,
		OpenedBy:       operatorID,
		Description:    description,
		OpeningBalance: decimal.Zero,
		CollectedTotal: decimal.Zero,
		OpenedAt:       now,
		Lifecycle:      domain.NewLifecycle(domain.CashSessionOpen, now),
		AuditFields:    domain.NewAuditFields(operatorID, now),
	}
	closure := domain.Closure{
		ID:            uuid.NewString(),
		CashSessionID: session.ID,
		OpenedAt:      now,
		Lifecycle:     domain.NewLifecycle(domain.ClosureOpen, now),
	}
	session.ClosureID = closure.ID

	err := s.runTx(ctx, s.uow, "OpenCashSession", func(ctx context.Context, tx portsrepo.Tx) error {
		existing, err := tx.CashSessions().FindOpenByOperatorForUpdate(ctx, operatorID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: operator %s already has open cash session %s", apperrors.ErrConflict, operatorID, existing.Code)
		case !errors.Is(err, apperrors.ErrNotFound):
			return fmt.Errorf("failed to look up open cash session: %w", err)
		}

		code, _, err := nextCode(ctx, tx, domain.CashSessionCodes(s.local(now)))
		if err != nil {
			return err
		}
		session.Code = code
		if err := tx.CashSessions().Save(ctx, session); err != nil {
			return err
		}
		return tx.CashSessions().SaveClosure(ctx, closure)
	})
	if err != nil {
		return nil, nil, err
	}

	s.metrics.IncrementSessionOpened()
	s.LogInfo(ctx, "Cash session opened",
		slog.String("cash_session_id", session.ID),
		slog.String("code", session.Code),
		slog.String("operator_id", operatorID))
	return &session, &closure, nil
}

// AttachInvoice links an open invoice to an open session ahead of its payment.
func (s *cashSessionService) AttachInvoice(ctx context.Context, sessionID, invoiceID, actor string) (*domain.Invoice, error) {
	if err := requireID("cash session id", sessionID); err != nil {
		return nil, err
	}
	if err := requireID("invoice id", invoiceID); err != nil {
		return nil, err
	}
	var inv *domain.Invoice
	err := s.runTx(ctx, s.uow, "AttachInvoice", func(ctx context.Context, tx portsrepo.Tx) error {
		session, err := tx.CashSessions().FindByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if !session.IsOpen() {
			return fmt.Errorf("%w: cash session %s is closed", apperrors.ErrConflict, session.Code)
		}
		inv, err = tx.Invoices().FindByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.State != domain.InvoiceOpen {
			return fmt.Errorf("%w: invoice %s is %s and can no longer be attached", apperrors.ErrStateConflict, inv.Code, inv.State)
		}
		inv.CashSessionID = &session.ID
		inv.Touch(actor, s.now())
		return tx.Invoices().Update(ctx, *inv, domain.InvoiceOpen)
	})
	if err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Invoice attached to cash session",
		slog.String("invoice_id", invoiceID),
		slog.String("cash_session_id", sessionID))
	return inv, nil
}

// Close reconciles the session. Invoices already settled take the closure, still-open ones
// are released, and session and closure are closed together.
func (s *cashSessionService) Close(ctx context.Context, sessionID string, declared decimal.Decimal, notes, actor string) (*domain.SessionSettlement, error) {
	if err := requireID("cash session id", sessionID); err != nil {
		return nil, err
	}
	if declared.IsNegative() {
		return nil, fmt.Errorf("%w: declared amount cannot be negative", apperrors.ErrValidation)
	}

	var settlement domain.SessionSettlement
	err := s.runTx(ctx, s.uow, "CloseCashSession", func(ctx context.Context, tx portsrepo.Tx) error {
		now := s.now()
		session, err := tx.CashSessions().FindByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if !session.IsOpen() {
			return fmt.Errorf("%w: cash session %s is already closed", apperrors.ErrConflict, session.Code)
		}
		closure, err := tx.CashSessions().FindClosureByIDForUpdate(ctx, session.ClosureID)
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: cash session %s has no active closure", apperrors.ErrPreconditionFailed, session.Code)
		}
		if err != nil {
			return err
		}
		if closure.State != domain.ClosureOpen {
			return fmt.Errorf("%w: closure of cash session %s is not open", apperrors.ErrPreconditionFailed, session.Code)
		}

		invoices, err := tx.Invoices().ListBySessionForUpdate(ctx, session.ID)
		if err != nil {
			return fmt.Errorf("failed to lock session invoices: %w", err)
		}
		rec := domain.Reconcile(lo.ToSlicePtr(invoices), declared)

		if err := s.settle(ctx, tx, rec.Settled, closure.ID, actor, now); err != nil {
			return err
		}
		if len(rec.Detached) > 0 {
			detached := make([]domain.Invoice, 0, len(rec.Detached))
			for _, inv := range rec.Detached {
				inv.CashSessionID = nil
				inv.Touch(actor, now)
				detached = append(detached, *inv)
			}
			if err := tx.Invoices().UpdateMany(ctx, detached, domain.InvoiceOpen); err != nil {
				return fmt.Errorf("failed to release open invoices: %w", err)
			}
		}

		c := statemachine.Context{Actor: actor, At: now, Note: notes}
		closure.Expected = &rec.Expected
		closure.Declared = &rec.Declared
		closure.Variance = &rec.Variance
		closure.Notes = notes
		closure.ClosedAt = &now
		closure.ClosedBy = actor
		if err := s.transition(ctx, tx, closure, domain.ClosureClosed, c); err != nil {
			return err
		}
		if err := tx.CashSessions().UpdateClosure(ctx, *closure, domain.ClosureOpen); err != nil {
			return err
		}

		session.ExpectedAmount = &rec.Expected
		session.DeclaredAmount = &rec.Declared
		session.Variance = &rec.Variance
		session.Notes = notes
		session.ClosedAt = &now
		session.OperatorID = nil
		if err := s.transition(ctx, tx, session, domain.CashSessionClosed, c); err != nil {
			return err
		}
		session.Touch(actor, now)
		if err := tx.CashSessions().Update(ctx, *session, domain.CashSessionOpen); err != nil {
			return err
		}

		settlement = domain.SessionSettlement{
			Session:         *session,
			Closure:         *closure,
			ReconciledCount: len(rec.Settled),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	variance := *settlement.Closure.Variance
	s.metrics.ObserveSessionClosed(variance)
	attrs := []any{
		slog.String("cash_session_id", sessionID),
		slog.String("expected", settlement.Closure.Expected.StringFixed(2)),
		slog.String("declared", declared.StringFixed(2)),
		slog.String("variance", variance.StringFixed(2)),
		slog.Int("reconciled", settlement.ReconciledCount),
	}
	if variance.IsZero() {
		s.LogInfo(ctx, "Cash session closed", attrs...)
	} else {
		s.LogWarn(ctx, "Cash session closed with variance", attrs...)
	}
	return &settlement, nil
}

// settle hands the settled invoices to the closure. Paid invoices close with it.
func (s *cashSessionService) settle(ctx context.Context, tx portsrepo.Tx, settled []*domain.Invoice, closureID, actor string, now time.Time) error {
	byState := lo.GroupBy(settled, func(inv *domain.Invoice) domain.State {
		return inv.State
	})
	for from, group := range byState {
		batch := make([]domain.Invoice, 0, len(group))
		for _, inv := range group {
			inv.ClosureID = &closureID
			if from == domain.InvoicePaid {
				if err := s.transition(ctx, tx, inv, domain.InvoiceClosed, statemachine.Context{Actor: actor, At: now}); err != nil {
					return err
				}
			}
			inv.Touch(actor, now)
			batch = append(batch, *inv)
		}
		if err := tx.Invoices().UpdateMany(ctx, batch, from); err != nil {
			return fmt.Errorf("failed to settle %s invoices: %w", from, err)
		}
	}
	return nil
}

// OpenSessionOf locks the operator's open session.
func (s *cashSessionService) OpenSessionOf(ctx context.Context, tx portsrepo.Tx, operatorID string) (*domain.CashSession, error) {
	session, err := tx.CashSessions().FindOpenByOperatorForUpdate(ctx, operatorID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: operator %s has no open cash session", apperrors.ErrPreconditionFailed, operatorID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock open cash session: %w", err)
	}
	return session, nil
}

// Collect adds a received amount to the session's running total.
func (s *cashSessionService) Collect(ctx context.Context, tx portsrepo.Tx, session *domain.CashSession, amount decimal.Decimal, actor string) error {
	if !session.IsOpen() {
		return fmt.Errorf("%w: cash session %s is closed", apperrors.ErrConflict, session.Code)
	}
	session.CollectedTotal = session.CollectedTotal.Add(amount)
	session.Touch(actor, s.now())
	return tx.CashSessions().Update(ctx, *session, domain.CashSessionOpen)
}
