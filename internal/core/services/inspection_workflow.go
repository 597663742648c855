package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	portsrepo "github.com/SscSPs/onda_backoffice/internal/core/ports/repositories"
	"github.com/SscSPs/onda_backoffice/internal/core/statemachine"
	"github.com/SscSPs/onda_backoffice/internal/dto"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

func (w *workflowCoordinator) CreateInspectionCase(ctx context.Context, req dto.CreateInspectionCaseRequest, actor string) (*domain.InspectionCase, error) {
	if err := requireID("company id", req.CompanyID); err != nil {
		return nil, err
	}
	if err := requireText("reason", req.Reason); err != nil {
		return nil, err
	}
	var ic domain.InspectionCase
	err := w.runTx(ctx, w.uow, "CreateInspectionCase", func(ctx context.Context, tx portsrepo.Tx) error {
		if _, err := tx.Companies().FindByID(ctx, req.CompanyID); err != nil {
			return fmt.Errorf("company: %w", err)
		}
		var err error
		ic, err = w.openInspectionCase(ctx, tx, req.CompanyID, nil, req.Reason, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	w.LogInfo(ctx, "Inspection case opened", slog.String("case_id", ic.ID), slog.String("code", ic.Code))
	return &ic, nil
}

func (w *workflowCoordinator) openInspectionCase(ctx context.Context, tx portsrepo.Tx, companyID string, complaintID *string, reason, actor string) (domain.InspectionCase, error) {
	now := w.now()
	code, _, err := nextCode(ctx, tx, domain.InspectionCaseCodes(now.In(w.cfg.Location)))
	if err != nil {
		return domain.InspectionCase{}, err
	}
	ic := domain.InspectionCase{
		ID:          uuid.NewString(),
		Code:        code,
		CompanyID:   companyID,
		ComplaintID: complaintID,
		Reason:      strings.TrimSpace(reason),
		Lifecycle:   domain.NewLifecycle(domain.InspectionPendingAssignment, now),
		AuditFields: domain.NewAuditFields(actor, now),
	}
	if err := tx.InspectionCases().Save(ctx, ic); err != nil {
		return domain.InspectionCase{}, err
	}
	return ic, nil
}

func (w *workflowCoordinator) GetInspectionCase(ctx context.Context, id string) (*domain.InspectionCase, error) {
	if err := requireID("inspection case id", id); err != nil {
		return nil, err
	}
	var ic *domain.InspectionCase
	err := w.runTx(ctx, w.uow, "GetInspectionCase", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		ic, err = tx.InspectionCases().FindByID(ctx, id)
		return err
	})
	return ic, err
}

func (w *workflowCoordinator) ListActas(ctx context.Context, caseID string) ([]domain.Acta, error) {
	if err := requireID("inspection case id", caseID); err != nil {
		return nil, err
	}
	var actas []domain.Acta
	err := w.runTx(ctx, w.uow, "ListActas", func(ctx context.Context, tx portsrepo.Tx) error {
		if _, err := tx.InspectionCases().FindByID(ctx, caseID); err != nil {
			return err
		}
		var err error
		actas, err = tx.Actas().ListByCase(ctx, caseID)
		return err
	})
	return actas, err
}

// AssignInspector assigns a pending case. Given a paid complaint instead, it opens the
// inspection case of the complaint first and marks the complaint assigned.
func (w *workflowCoordinator) AssignInspector(ctx context.Context, caseOrComplaintID, inspectorID, actor string) (*domain.InspectionCase, error) {
	if err := requireID("case or complaint id", caseOrComplaintID); err != nil {
		return nil, err
	}
	if err := requireText("inspector id", inspectorID); err != nil {
		return nil, err
	}
	var ic *domain.InspectionCase
	err := w.runTx(ctx, w.uow, "AssignInspector", func(ctx context.Context, tx portsrepo.Tx) error {
		caseID := caseOrComplaintID
		_, err := tx.InspectionCases().FindByID(ctx, caseOrComplaintID)
		if errors.Is(err, apperrors.ErrNotFound) {
			caseID, err = w.spawnFromComplaint(ctx, tx, caseOrComplaintID, actor)
		}
		if err != nil {
			return err
		}
		ic, err = moveRecord[domain.InspectionCase](ctx, &w.BaseService, tx, tx.InspectionCases(), caseID,
			domain.InspectionAssigned, statemachine.Context{Actor: actor, InspectorID: inspectorID}, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	w.LogInfo(ctx, "Inspector assigned",
		slog.String("case_id", ic.ID),
		slog.String("inspector_id", inspectorID))
	return ic, nil
}

func (w *workflowCoordinator) spawnFromComplaint(ctx context.Context, tx portsrepo.Tx, complaintID, actor string) (string, error) {
	complaint, err := tx.Complaints().FindByIDForUpdate(ctx, complaintID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return "", fmt.Errorf("%w: no inspection case or complaint %s", apperrors.ErrNotFound, complaintID)
	}
	if err != nil {
		return "", err
	}
	if err := w.ensureCanMove(complaint, domain.ComplaintAssigned, statemachine.Context{}); err != nil {
		return "", err
	}
	ic, err := w.openInspectionCase(ctx, tx, complaint.CompanyID, &complaint.ID,
		fmt.Sprintf("Complaint %s: %s", complaint.Code, complaint.Description), actor)
	if err != nil {
		return "", err
	}
	now := w.now()
	from := complaint.State
	if err := w.transition(ctx, tx, complaint, domain.ComplaintAssigned, statemachine.Context{Actor: actor, At: now, SpawnedID: ic.ID}); err != nil {
		return "", err
	}
	complaint.Touch(actor, now)
	if err := tx.Complaints().Update(ctx, *complaint, from); err != nil {
		return "", err
	}
	return ic.ID, nil
}

// ReportFirstVisit files the first acta. A compliant company closes the case; otherwise the
// company gets a correction deadline counted in business days from the visit.
func (w *workflowCoordinator) ReportFirstVisit(ctx context.Context, caseID string, req dto.VisitReportRequest, actor string) (*domain.InspectionCase, error) {
	if err := w.validateVisit(caseID, req); err != nil {
		return nil, err
	}
	var ic *domain.InspectionCase
	err := w.runTx(ctx, w.uow, "ReportFirstVisit", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		ic, err = moveRecord[domain.InspectionCase](ctx, &w.BaseService, tx, tx.InspectionCases(), caseID,
			lo.Ternary(req.Compliant, domain.InspectionClosed, domain.InspectionGracePeriod),
			statemachine.Context{Actor: actor, ExpectedFrom: domain.InspectionAssigned},
			func(ic *domain.InspectionCase, c *statemachine.Context) error {
				visitDate := w.visitDay(req.VisitDate)
				actas, err := w.fileActa(ctx, tx, ic, 1, req, visitDate, actor, c.At)
				if err != nil {
					return err
				}
				c.Actas = actas
				status := domain.ComplianceCurrent
				if !req.Compliant {
					deadline := w.cfg.Holidays.AddBusinessDays(visitDate, w.cfg.GracePeriodBusinessDays)
					c.Deadline = &deadline
					status = domain.ComplianceNotified
				}
				return w.updateCompliance(ctx, tx, ic.CompanyID, status, &visitDate, actor, c.At)
			})
		return err
	})
	if err != nil {
		return nil, err
	}
	attrs := []any{slog.String("case_id", ic.ID), slog.Bool("compliant", req.Compliant)}
	if ic.CorrectionDeadline != nil {
		attrs = append(attrs, slog.Time("correction_deadline", *ic.CorrectionDeadline))
	}
	w.LogInfo(ctx, "First visit reported", attrs...)
	return ic, nil
}

// ReportSecondVisit files the follow-up acta. An uncorrected infraction opens a legal case.
func (w *workflowCoordinator) ReportSecondVisit(ctx context.Context, caseID string, req dto.VisitReportRequest, actor string) (*domain.InspectionCase, *domain.LegalCase, error) {
	if err := w.validateVisit(caseID, req); err != nil {
		return nil, nil, err
	}
	var (
		ic    *domain.InspectionCase
		legal *domain.LegalCase
	)
	err := w.runTx(ctx, w.uow, "ReportSecondVisit", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		ic, err = moveRecord[domain.InspectionCase](ctx, &w.BaseService, tx, tx.InspectionCases(), caseID,
			lo.Ternary(req.Compliant, domain.InspectionClosed, domain.InspectionReferredToLegal),
			statemachine.Context{Actor: actor, ExpectedFrom: domain.InspectionGracePeriod},
			func(ic *domain.InspectionCase, c *statemachine.Context) error {
				visitDate := w.visitDay(req.VisitDate)
				actas, err := w.fileActa(ctx, tx, ic, 2, req, visitDate, actor, c.At)
				if err != nil {
					return err
				}
				c.Actas = actas
				if req.Compliant {
					return w.updateCompliance(ctx, tx, ic.CompanyID, domain.ComplianceCurrent, &visitDate, actor, c.At)
				}
				infraction, _ := domain.FindActa(actas, domain.ActaInfraction, 2)
				legal, err = w.openLegalCase(ctx, tx, ic, infraction, req.Findings, actor, c.At)
				if err != nil {
					return err
				}
				c.SpawnedID = legal.ID
				return w.updateCompliance(ctx, tx, ic.CompanyID, domain.ComplianceInLegal, &visitDate, actor, c.At)
			})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	attrs := []any{slog.String("case_id", ic.ID), slog.Bool("compliant", req.Compliant)}
	if legal != nil {
		attrs = append(attrs, slog.String("legal_case_id", legal.ID))
	}
	w.LogInfo(ctx, "Second visit reported", attrs...)
	return ic, legal, nil
}

// ReferToLegal refers a case whose correction deadline passed without a second visit.
func (w *workflowCoordinator) ReferToLegal(ctx context.Context, caseID, note, actor string) (*domain.InspectionCase, *domain.LegalCase, error) {
	if err := requireID("inspection case id", caseID); err != nil {
		return nil, nil, err
	}
	var (
		ic    *domain.InspectionCase
		legal *domain.LegalCase
	)
	err := w.runTx(ctx, w.uow, "ReferToLegal", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		ic, err = moveRecord[domain.InspectionCase](ctx, &w.BaseService, tx, tx.InspectionCases(), caseID,
			domain.InspectionReferredToLegal,
			statemachine.Context{Actor: actor, Note: note, ExpectedFrom: domain.InspectionGracePeriod},
			func(ic *domain.InspectionCase, c *statemachine.Context) error {
				if !w.deadlinePassed(ic.CorrectionDeadline, c.At) {
					return fmt.Errorf("%w: correction deadline of case %s has not passed", apperrors.ErrPreconditionFailed, ic.Code)
				}
				actas, err := tx.Actas().ListByCase(ctx, ic.ID)
				if err != nil {
					return err
				}
				c.Actas = actas
				infraction, ok := domain.FindActa(actas, domain.ActaInfraction, 1)
				if !ok {
					return fmt.Errorf("%w: case %s has no infraction acta", apperrors.ErrPreconditionFailed, ic.Code)
				}
				legal, err = w.openLegalCase(ctx, tx, ic, infraction, note, actor, c.At)
				if err != nil {
					return err
				}
				c.SpawnedID = legal.ID
				return w.updateCompliance(ctx, tx, ic.CompanyID, domain.ComplianceInLegal, nil, actor, c.At)
			})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	w.LogInfo(ctx, "Inspection case referred to legal",
		slog.String("case_id", ic.ID),
		slog.String("legal_case_id", legal.ID))
	return ic, legal, nil
}

// deadlinePassed reports whether the whole deadline day is over in the office's timezone.
func (w *workflowCoordinator) deadlinePassed(deadline *time.Time, at time.Time) bool {
	if deadline == nil {
		return false
	}
	d := deadline.In(w.cfg.Location)
	endOfDay := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, w.cfg.Location).AddDate(0, 0, 1)
	return !at.Before(endOfDay)
}

func (w *workflowCoordinator) validateVisit(caseID string, req dto.VisitReportRequest) error {
	if err := requireID("inspection case id", caseID); err != nil {
		return err
	}
	if err := requireText("findings", req.Findings); err != nil {
		return err
	}
	if req.VisitDate.IsZero() {
		return fmt.Errorf("%w: visit date is required", apperrors.ErrValidation)
	}
	if w.visitDay(req.VisitDate).After(w.localNow()) {
		return fmt.Errorf("%w: visit date is in the future", apperrors.ErrValidation)
	}
	return nil
}

// visitDay truncates a visit timestamp to its calendar day in the office's timezone.
func (w *workflowCoordinator) visitDay(t time.Time) time.Time {
	t = t.In(w.cfg.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, w.cfg.Location)
}

// fileActa stores the visit report and returns every acta of the case.
func (w *workflowCoordinator) fileActa(ctx context.Context, tx portsrepo.Tx, ic *domain.InspectionCase, visit int, req dto.VisitReportRequest, visitDate time.Time, actor string, at time.Time) ([]domain.Acta, error) {
	if ic.InspectorID == nil {
		return nil, fmt.Errorf("%w: case %s has no inspector", apperrors.ErrPreconditionFailed, ic.Code)
	}
	acta := domain.Acta{
		ID:          uuid.NewString(),
		CaseID:      ic.ID,
		Type:        lo.Ternary(req.Compliant, domain.ActaCompliance, domain.ActaInfraction),
		VisitNumber: visit,
		Findings:    strings.TrimSpace(req.Findings),
		VisitDate:   visitDate,
		InspectorID: *ic.InspectorID,
		CreatedAt:   at,
		CreatedBy:   actor,
	}
	if err := tx.Actas().Save(ctx, acta); err != nil {
		return nil, err
	}
	return tx.Actas().ListByCase(ctx, ic.ID)
}

func (w *workflowCoordinator) updateCompliance(ctx context.Context, tx portsrepo.Tx, companyID string, status domain.ComplianceStatus, inspectedAt *time.Time, actor string, at time.Time) error {
	company, err := tx.Companies().FindByIDForUpdate(ctx, companyID)
	if err != nil {
		return fmt.Errorf("company of inspection case: %w", err)
	}
	company.ComplianceStatus = status
	if inspectedAt != nil {
		company.LastInspectionAt = inspectedAt
	}
	company.Touch(actor, at)
	return tx.Companies().Update(ctx, *company)
}

func (w *workflowCoordinator) openLegalCase(ctx context.Context, tx portsrepo.Tx, ic *domain.InspectionCase, infraction domain.Acta, notes, actor string, at time.Time) (*domain.LegalCase, error) {
	code, _, err := nextCode(ctx, tx, domain.LegalCaseCodes(at.In(w.cfg.Location)))
	if err != nil {
		return nil, err
	}
	legal := domain.LegalCase{
		ID:               uuid.NewString(),
		Code:             code,
		InspectionCaseID: ic.ID,
		InfractionActaID: infraction.ID,
		CompanyID:        ic.CompanyID,
		Notes:            strings.TrimSpace(notes),
		Lifecycle:        domain.NewLifecycle(domain.LegalReceived, at),
		AuditFields:      domain.NewAuditFields(actor, at),
	}
	if err := tx.LegalCases().Save(ctx, legal); err != nil {
		return nil, err
	}
	return &legal, nil
}

func (w *workflowCoordinator) GetLegalCase(ctx context.Context, id string) (*domain.LegalCase, error) {
	if err := requireID("legal case id", id); err != nil {
		return nil, err
	}
	var legal *domain.LegalCase
	err := w.runTx(ctx, w.uow, "GetLegalCase", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		legal, err = tx.LegalCases().FindByID(ctx, id)
		return err
	})
	return legal, err
}

func (w *workflowCoordinator) moveLegalCase(ctx context.Context, op, id string, to domain.State, c statemachine.Context) (*domain.LegalCase, error) {
	if err := requireID("legal case id", id); err != nil {
		return nil, err
	}
	var legal *domain.LegalCase
	err := w.runTx(ctx, w.uow, op, func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		legal, err = moveRecord[domain.LegalCase](ctx, &w.BaseService, tx, tx.LegalCases(), id, to, c, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	w.LogInfo(ctx, "Legal case moved", slog.String("legal_case_id", id), slog.String("state", legal.State.String()))
	return legal, nil
}

func (w *workflowCoordinator) AttendLegalCase(ctx context.Context, id, note, actor string) (*domain.LegalCase, error) {
	return w.moveLegalCase(ctx, "AttendLegalCase", id, domain.LegalInAttention, statemachine.Context{Actor: actor, Note: note})
}

func (w *workflowCoordinator) CloseLegalCase(ctx context.Context, id, note, actor string) (*domain.LegalCase, error) {
	return w.moveLegalCase(ctx, "CloseLegalCase", id, domain.LegalClosed, statemachine.Context{Actor: actor, Note: note})
}
