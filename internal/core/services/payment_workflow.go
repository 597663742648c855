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
	"github.com/SscSPs/onda_backoffice/internal/core/statemachine"
	"github.com/SscSPs/onda_backoffice/internal/dto"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// PayInvoice collects the invoice at the actor's open session, stamps a fiscal number and
// promotes every billed record in the same transaction.
func (w *workflowCoordinator) PayInvoice(ctx context.Context, invoiceID string, req dto.PayInvoiceRequest, actor string) (*domain.Invoice, error) {
	if err := requireID("invoice id", invoiceID); err != nil {
		return nil, err
	}
	var (
		paid     *domain.Invoice
		promoted []domain.RecordLink
	)
	err := w.runTx(ctx, w.uow, "PayInvoice", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		paid, promoted, err = w.payInvoice(ctx, tx, invoiceID, req, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	w.metrics.IncrementInvoicePaid(string(paid.PaymentMethod))
	w.LogInfo(ctx, "Invoice paid",
		slog.String("invoice_id", paid.ID),
		slog.String("fiscal_number", lo.FromPtr(paid.FiscalNumber)),
		slog.String("cash_session_id", lo.FromPtr(paid.CashSessionID)),
		slog.Int("promoted", len(promoted)))
	return paid, nil
}

func (w *workflowCoordinator) payInvoice(ctx context.Context, tx portsrepo.Tx, invoiceID string, req dto.PayInvoiceRequest, actor string) (*domain.Invoice, []domain.RecordLink, error) {
	if !req.Method.IsValid() {
		return nil, nil, fmt.Errorf("%w: unknown payment method %q", apperrors.ErrValidation, req.Method)
	}
	session, err := w.cash.OpenSessionOf(ctx, tx, actor)
	if err != nil {
		return nil, nil, err
	}
	inv, err := tx.Invoices().FindByIDForUpdate(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	if inv.State != domain.InvoiceOpen {
		return nil, nil, stateConflict(inv, domain.InvoicePaid)
	}
	if err := inv.CheckTotals(); err != nil {
		return nil, nil, err
	}

	fiscalType := req.FiscalType
	if fiscalType == "" {
		fiscalType = w.cfg.DefaultFiscalType
	}
	reservation, err := w.sequences.Reserve(ctx, tx, fiscalType)
	if err != nil {
		return nil, nil, err
	}

	now := w.now()
	inv.FiscalNumber = &reservation.Number
	inv.CashSessionID = &session.ID
	inv.PaymentMethod = req.Method
	inv.PaymentReference = req.Reference
	inv.PaidAt = &now
	inv.PaidBy = actor
	if err := w.transition(ctx, tx, inv, domain.InvoicePaid, statemachine.Context{Actor: actor, At: now, ExpectedFrom: domain.InvoiceOpen}); err != nil {
		return nil, nil, err
	}
	inv.Touch(actor, now)
	if err := tx.Invoices().Update(ctx, *inv, domain.InvoiceOpen); err != nil {
		return nil, nil, err
	}
	payment := domain.Payment{
		ID:            uuid.NewString(),
		InvoiceID:     inv.ID,
		CashSessionID: session.ID,
		Amount:        inv.Total,
		Method:        req.Method,
		Reference:     req.Reference,
		ReceivedBy:    actor,
		ReceivedAt:    now,
	}
	if err := tx.Invoices().SavePayment(ctx, payment); err != nil {
		return nil, nil, err
	}
	if err := w.cash.Collect(ctx, tx, session, inv.Total, actor); err != nil {
		return nil, nil, err
	}

	promoted, err := w.propagatePayment(ctx, tx, inv, actor, now)
	if err != nil {
		return nil, nil, err
	}
	inv.Reservation = &reservation
	return inv, promoted, nil
}

// MarkRequestsPaidByInvoice replays the propagation of an already paid invoice.
// Records that already moved past payment are left alone.
func (w *workflowCoordinator) MarkRequestsPaidByInvoice(ctx context.Context, invoiceID, actor string) ([]domain.RecordLink, error) {
	if err := requireID("invoice id", invoiceID); err != nil {
		return nil, err
	}
	var promoted []domain.RecordLink
	err := w.runTx(ctx, w.uow, "MarkRequestsPaidByInvoice", func(ctx context.Context, tx portsrepo.Tx) error {
		inv, err := tx.Invoices().FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if !inv.IsSettled() {
			return fmt.Errorf("%w: invoice %s has not been paid", apperrors.ErrPreconditionFailed, inv.Code)
		}
		promoted, err = w.propagatePayment(ctx, tx, inv, actor, w.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	w.LogInfo(ctx, "Payment propagated", slog.String("invoice_id", invoiceID), slog.Int("promoted", len(promoted)))
	return promoted, nil
}

// propagatePayment promotes every record billed by inv that is still waiting for payment.
// A billed record that cannot accept the payment rejects the whole transaction.
func (w *workflowCoordinator) propagatePayment(ctx context.Context, tx portsrepo.Tx, inv *domain.Invoice, actor string, now time.Time) ([]domain.RecordLink, error) {
	var promoted []domain.RecordLink
	for _, link := range inv.Links {
		moved, err := w.promoteLink(ctx, tx, link, actor, now)
		if err != nil {
			return nil, fmt.Errorf("invoice %s cannot settle %s %s: %w", inv.Code, link.Kind, link.RecordID, err)
		}
		if moved {
			promoted = append(promoted, link)
		}
	}
	return promoted, nil
}

func (w *workflowCoordinator) promoteLink(ctx context.Context, tx portsrepo.Tx, link domain.RecordLink, actor string, now time.Time) (bool, error) {
	switch link.Kind {
	case domain.KindRegistrationRequest:
		return promoteIfWaiting[domain.RegistrationRequest](ctx, w, tx, tx.RegistrationRequests(), link,
			[]domain.State{domain.RegistrationPending}, domain.RegistrationPaid, actor, now)
	case domain.KindCompanyRequest:
		// A request still pending validation cannot be paid; the payment is rejected.
		return promoteIfWaiting[domain.CompanyRequest](ctx, w, tx, tx.CompanyRequests(), link,
			[]domain.State{domain.CompanyRequestPending, domain.CompanyRequestValidated}, domain.CompanyRequestPaid, actor, now)
	case domain.KindComplaint:
		return promoteIfWaiting[domain.Complaint](ctx, w, tx, tx.Complaints(), link,
			[]domain.State{domain.ComplaintPendingPayment}, domain.ComplaintPaid, actor, now)
	case domain.KindCompany:
		_, err := w.closeCasesByPayment(ctx, tx, link.RecordID, actor, now)
		if errors.Is(err, apperrors.ErrNotFound) {
			w.LogDebug(ctx, "No open inspection case to close by payment", slog.String("company_id", link.RecordID))
			return false, nil
		}
		return err == nil, err
	default:
		return false, fmt.Errorf("%w: invoices cannot bill a %s", apperrors.ErrIntegrity, link.Kind)
	}
}

// promoteIfWaiting moves a billed record to its paid state once every invoice billing it is settled.
// Records outside waiting have already been promoted and are skipped.
func promoteIfWaiting[T any, P auditedRecord[T]](
	ctx context.Context,
	w *workflowCoordinator,
	tx portsrepo.Tx,
	repo portsrepo.LifecycleRepository[T],
	link domain.RecordLink,
	waiting []domain.State,
	paid domain.State,
	actor string,
	now time.Time,
) (bool, error) {
	rec, err := repo.FindByIDForUpdate(ctx, link.RecordID)
	if err != nil {
		return false, err
	}
	p := P(rec)
	from := p.CurrentState()
	if !lo.Contains(waiting, from) {
		return false, nil
	}
	allPaid, err := billedInFull(ctx, tx, link)
	if err != nil {
		return false, err
	}
	if !allPaid {
		w.LogDebug(ctx, "Billed record still has unpaid invoices",
			slog.String("kind", link.Kind.String()), slog.String("record_id", link.RecordID))
		return false, nil
	}
	c := statemachine.Context{Actor: actor, At: now, InvoicesPaid: true}
	if err := w.transition(ctx, tx, p, paid, c); err != nil {
		return false, err
	}
	p.Touch(actor, now)
	if err := repo.Update(ctx, *rec, from); err != nil {
		return false, err
	}
	return true, nil
}

// billedInFull reports whether every non-cancelled invoice of the record is settled.
func billedInFull(ctx context.Context, tx portsrepo.Tx, link domain.RecordLink) (bool, error) {
	invoices, err := tx.Invoices().ListByLink(ctx, link.Kind, link.RecordID)
	if err != nil {
		return false, fmt.Errorf("failed to list invoices of %s %s: %w", link.Kind, link.RecordID, err)
	}
	live := lo.Filter(invoices, func(inv domain.Invoice, _ int) bool {
		return inv.State != domain.InvoiceCancelled
	})
	return len(live) > 0 && lo.EveryBy(live, func(inv domain.Invoice) bool { return inv.IsSettled() }), nil
}

// CloseCaseByPayment closes the company's open inspection cases after a renewal payment.
func (w *workflowCoordinator) CloseCaseByPayment(ctx context.Context, companyID, actor string) ([]domain.InspectionCase, error) {
	if err := requireID("company id", companyID); err != nil {
		return nil, err
	}
	var closed []domain.InspectionCase
	err := w.runTx(ctx, w.uow, "CloseCaseByPayment", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		closed, err = w.closeCasesByPayment(ctx, tx, companyID, actor, w.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	w.LogInfo(ctx, "Inspection cases closed by payment",
		slog.String("company_id", companyID),
		slog.Int("cases", len(closed)))
	return closed, nil
}

func (w *workflowCoordinator) closeCasesByPayment(ctx context.Context, tx portsrepo.Tx, companyID, actor string, now time.Time) ([]domain.InspectionCase, error) {
	company, err := tx.Companies().FindByIDForUpdate(ctx, companyID)
	if err != nil {
		return nil, err
	}
	open, err := tx.InspectionCases().ListByCompanyInStatesForUpdate(ctx, companyID, w.registry.NonTerminal(domain.KindInspectionCase))
	if err != nil {
		return nil, fmt.Errorf("failed to lock inspection cases: %w", err)
	}
	if len(open) == 0 {
		return nil, fmt.Errorf("%w: company %s has no open inspection case", apperrors.ErrNotFound, company.Name)
	}
	for i := range open {
		ic := &open[i]
		from := ic.State
		if err := w.transition(ctx, tx, ic, domain.InspectionClosedByPayment, statemachine.Context{Actor: actor, At: now}); err != nil {
			return nil, err
		}
		ic.Touch(actor, now)
		if err := tx.InspectionCases().Update(ctx, *ic, from); err != nil {
			return nil, err
		}
	}
	company.MarkCurrent()
	company.Touch(actor, now)
	if err := tx.Companies().Update(ctx, *company); err != nil {
		return nil, err
	}
	return open, nil
}
