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
)

func (w *workflowCoordinator) CreateRegistrationRequest(ctx context.Context, req dto.CreateRegistrationRequest, actor string) (*domain.RegistrationRequest, error) {
	for name, v := range map[string]string{
		"applicant name":     req.ApplicantName,
		"applicant document": req.ApplicantDocument,
		"work title":         req.WorkTitle,
		"work type":          req.WorkType,
	} {
		if err := requireText(name, v); err != nil {
			return nil, err
		}
	}

	now := w.now()
	rec := domain.RegistrationRequest{
		ID:                uuid.NewString(),
		ApplicantName:     strings.TrimSpace(req.ApplicantName),
		ApplicantDocument: strings.TrimSpace(req.ApplicantDocument),
		WorkTitle:         strings.TrimSpace(req.WorkTitle),
		WorkType:          strings.TrimSpace(req.WorkType),
		Lifecycle:         domain.NewLifecycle(domain.RegistrationPending, now),
		AuditFields:       domain.NewAuditFields(actor, now),
	}
	err := w.runTx(ctx, w.uow, "CreateRegistrationRequest", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		rec.Code, rec.FormSequence, err = nextCode(ctx, tx, domain.RegistrationRequestCodes())
		if err != nil {
			return err
		}
		return tx.RegistrationRequests().Save(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	w.LogInfo(ctx, "Registration request created", slog.String("request_id", rec.ID), slog.String("code", rec.Code))
	return &rec, nil
}

func (w *workflowCoordinator) GetRegistrationRequest(ctx context.Context, id string) (*domain.RegistrationRequest, error) {
	if err := requireID("registration request id", id); err != nil {
		return nil, err
	}
	var rec *domain.RegistrationRequest
	err := w.runTx(ctx, w.uow, "GetRegistrationRequest", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		rec, err = tx.RegistrationRequests().FindByID(ctx, id)
		return err
	})
	return rec, err
}

// moveRegistration runs one step of the copyright pipeline in its own transaction.
func (w *workflowCoordinator) moveRegistration(ctx context.Context, op, id string, to domain.State, c statemachine.Context,
	prepare func(*domain.RegistrationRequest, *statemachine.Context) error) (*domain.RegistrationRequest, error) {
	if err := requireID("registration request id", id); err != nil {
		return nil, err
	}
	var rec *domain.RegistrationRequest
	err := w.runTx(ctx, w.uow, op, func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		rec, err = moveRecord[domain.RegistrationRequest](ctx, &w.BaseService, tx, tx.RegistrationRequests(), id, to, c, prepare)
		return err
	})
	if err != nil {
		return nil, err
	}
	w.LogInfo(ctx, "Registration request moved",
		slog.String("request_id", id),
		slog.String("code", rec.Code),
		slog.String("state", rec.State.String()))
	return rec, nil
}

func (w *workflowCoordinator) SubmitToRegistry(ctx context.Context, id, actor string) (*domain.RegistrationRequest, error) {
	return w.moveRegistration(ctx, "SubmitToRegistry", id, domain.RegistrationUnderReview,
		statemachine.Context{Actor: actor, ExpectedFrom: domain.RegistrationPaid}, nil)
}

func (w *workflowCoordinator) ReturnForCorrection(ctx context.Context, id, note, actor string) (*domain.RegistrationRequest, error) {
	return w.moveRegistration(ctx, "ReturnForCorrection", id, domain.RegistrationReturned,
		statemachine.Context{Actor: actor, Note: note}, nil)
}

func (w *workflowCoordinator) CorrectAndResubmit(ctx context.Context, id, actor string) (*domain.RegistrationRequest, error) {
	return w.moveRegistration(ctx, "CorrectAndResubmit", id, domain.RegistrationUnderReview,
		statemachine.Context{Actor: actor, ExpectedFrom: domain.RegistrationReturned}, nil)
}

// Register assigns the registration number derived from the form sequence and the current month.
func (w *workflowCoordinator) Register(ctx context.Context, id, actor string) (*domain.RegistrationRequest, error) {
	return w.moveRegistration(ctx, "Register", id, domain.RegistrationRegistered,
		statemachine.Context{Actor: actor},
		func(rec *domain.RegistrationRequest, c *statemachine.Context) error {
			c.RegistrationNumber = domain.RegistrationNumber(rec.FormSequence, c.At.In(w.cfg.Location))
			return nil
		})
}

func (w *workflowCoordinator) Certify(ctx context.Context, id, fileRef, actor string) (*domain.RegistrationRequest, error) {
	return w.moveRegistration(ctx, "Certify", id, domain.RegistrationCertified,
		statemachine.Context{Actor: actor, FileRef: strings.TrimSpace(fileRef)}, nil)
}

func (w *workflowCoordinator) DeliverRegistration(ctx context.Context, id, actor string) (*domain.RegistrationRequest, error) {
	return w.moveRegistration(ctx, "DeliverRegistration", id, domain.RegistrationDelivered,
		statemachine.Context{Actor: actor}, nil)
}

// DeleteRegistrationRequest removes a form filed by mistake. Once billed it has to go through cancellation.
func (w *workflowCoordinator) DeleteRegistrationRequest(ctx context.Context, id, actor string) error {
	if err := requireID("registration request id", id); err != nil {
		return err
	}
	err := w.runTx(ctx, w.uow, "DeleteRegistrationRequest", func(ctx context.Context, tx portsrepo.Tx) error {
		rec, err := tx.RegistrationRequests().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if rec.State != domain.RegistrationPending {
			return fmt.Errorf("%w: registration request %s is %s and can no longer be deleted",
				apperrors.ErrStateConflict, rec.Code, rec.State)
		}
		invoices, err := tx.Invoices().ListByLink(ctx, domain.KindRegistrationRequest, id)
		if err != nil {
			return err
		}
		if len(invoices) > 0 {
			return fmt.Errorf("%w: registration request %s has been billed", apperrors.ErrPreconditionFailed, rec.Code)
		}
		return tx.RegistrationRequests().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	w.LogInfo(ctx, "Registration request deleted", slog.String("request_id", id), slog.String("actor", actor))
	return nil
}
