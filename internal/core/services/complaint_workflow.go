package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	portsrepo "github.com/SscSPs/onda_backoffice/internal/core/ports/repositories"
	"github.com/SscSPs/onda_backoffice/internal/core/statemachine"
	"github.com/SscSPs/onda_backoffice/internal/dto"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// SubmitComplaint files a complaint and bills the complaint fee in one transaction.
func (w *workflowCoordinator) SubmitComplaint(ctx context.Context, req dto.SubmitComplaintRequest, actor string) (*domain.Complaint, *domain.Invoice, error) {
	if err := requireID("company id", req.CompanyID); err != nil {
		return nil, nil, err
	}
	if err := requireText("complainant name", req.ComplainantName); err != nil {
		return nil, nil, err
	}
	if err := requireText("description", req.Description); err != nil {
		return nil, nil, err
	}

	now := w.now()
	complaint := domain.Complaint{
		ID:                  uuid.NewString(),
		CompanyID:           req.CompanyID,
		ComplainantName:     strings.TrimSpace(req.ComplainantName),
		ComplainantDocument: strings.TrimSpace(req.ComplainantDocument),
		Description:         strings.TrimSpace(req.Description),
		Lifecycle:           domain.NewLifecycle(domain.ComplaintPendingPayment, now),
		AuditFields:         domain.NewAuditFields(actor, now),
	}
	var inv *domain.Invoice
	err := w.runTx(ctx, w.uow, "SubmitComplaint", func(ctx context.Context, tx portsrepo.Tx) error {
		if _, err := tx.Companies().FindByID(ctx, req.CompanyID); err != nil {
			return fmt.Errorf("company: %w", err)
		}
		var err error
		complaint.Code, _, err = nextCode(ctx, tx, domain.ComplaintCodes(now.In(w.cfg.Location)))
		if err != nil {
			return err
		}
		if err := tx.Complaints().Save(ctx, complaint); err != nil {
			return err
		}
		inv, err = w.invoices.IssueForItemCode(ctx, tx, w.cfg.ComplaintFeeItemCode, actor,
			domain.RecordLink{Kind: domain.KindComplaint, RecordID: complaint.ID})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	w.LogInfo(ctx, "Complaint submitted",
		slog.String("complaint_id", complaint.ID),
		slog.String("code", complaint.Code),
		slog.String("invoice_id", inv.ID))
	return &complaint, inv, nil
}

func (w *workflowCoordinator) GetComplaint(ctx context.Context, id string) (*domain.Complaint, error) {
	if err := requireID("complaint id", id); err != nil {
		return nil, err
	}
	var complaint *domain.Complaint
	err := w.runTx(ctx, w.uow, "GetComplaint", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		complaint, err = tx.Complaints().FindByID(ctx, id)
		return err
	})
	return complaint, err
}

// PayComplaintFee pays the open fee invoice of the complaint. The payment promotes the complaint.
func (w *workflowCoordinator) PayComplaintFee(ctx context.Context, complaintID string, req dto.PayInvoiceRequest, actor string) (*domain.Complaint, *domain.Invoice, error) {
	if err := requireID("complaint id", complaintID); err != nil {
		return nil, nil, err
	}
	var (
		complaint *domain.Complaint
		paid      *domain.Invoice
	)
	err := w.runTx(ctx, w.uow, "PayComplaintFee", func(ctx context.Context, tx portsrepo.Tx) error {
		current, err := tx.Complaints().FindByID(ctx, complaintID)
		if err != nil {
			return err
		}
		if current.State != domain.ComplaintPendingPayment {
			return stateConflict(current, domain.ComplaintPaid)
		}
		invoices, err := tx.Invoices().ListByLink(ctx, domain.KindComplaint, complaintID)
		if err != nil {
			return err
		}
		fee, ok := lo.Find(invoices, func(inv domain.Invoice) bool { return inv.State == domain.InvoiceOpen })
		if !ok {
			return fmt.Errorf("%w: complaint %s has no open fee invoice", apperrors.ErrPreconditionFailed, current.Code)
		}
		paid, _, err = w.payInvoice(ctx, tx, fee.ID, req, actor)
		if err != nil {
			return err
		}
		complaint, err = tx.Complaints().FindByID(ctx, complaintID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	w.metrics.IncrementInvoicePaid(string(paid.PaymentMethod))
	w.LogInfo(ctx, "Complaint fee paid",
		slog.String("complaint_id", complaintID),
		slog.String("invoice_id", paid.ID),
		slog.String("state", complaint.State.String()))
	return complaint, paid, nil
}

func (w *workflowCoordinator) PlanComplaint(ctx context.Context, id, actor string) (*domain.Complaint, error) {
	if err := requireID("complaint id", id); err != nil {
		return nil, err
	}
	var complaint *domain.Complaint
	err := w.runTx(ctx, w.uow, "PlanComplaint", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		complaint, err = moveRecord[domain.Complaint](ctx, &w.BaseService, tx, tx.Complaints(), id,
			domain.ComplaintInPlanning, statemachine.Context{Actor: actor}, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	w.LogInfo(ctx, "Complaint planned", slog.String("complaint_id", id))
	return complaint, nil
}
