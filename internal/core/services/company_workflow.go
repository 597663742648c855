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

func (w *workflowCoordinator) CreateCompanyRequest(ctx context.Context, req dto.CreateCompanyRequest, actor string) (*domain.CompanyRequest, error) {
	if !req.RequestType.IsValid() {
		return nil, fmt.Errorf("%w: unknown request type %q", apperrors.ErrValidation, req.RequestType)
	}
	if err := requireText("company name", req.CompanyName); err != nil {
		return nil, err
	}
	if err := requireText("tax id", req.TaxID); err != nil {
		return nil, err
	}
	companyID := lo.FromPtr(req.CompanyID)
	if req.RequestType == domain.CompanyRequestRenewal {
		if err := requireID("company id", companyID); err != nil {
			return nil, err
		}
	}

	now := w.now()
	rec := domain.CompanyRequest{
		ID:          uuid.NewString(),
		RequestType: req.RequestType,
		CompanyName: strings.TrimSpace(req.CompanyName),
		TaxID:       strings.TrimSpace(req.TaxID),
		Address:     req.Address,
		Activity:    req.Activity,
		Lifecycle:   domain.NewLifecycle(domain.CompanyRequestPending, now),
		AuditFields: domain.NewAuditFields(actor, now),
	}
	err := w.runTx(ctx, w.uow, "CreateCompanyRequest", func(ctx context.Context, tx portsrepo.Tx) error {
		if rec.RequestType == domain.CompanyRequestRenewal {
			company, err := tx.Companies().FindByID(ctx, companyID)
			if err != nil {
				return fmt.Errorf("company to renew: %w", err)
			}
			rec.CompanyID = &company.ID
		}
		var err error
		rec.Code, rec.FormSequence, err = nextCode(ctx, tx, domain.CompanyRequestCodes())
		if err != nil {
			return err
		}
		return tx.CompanyRequests().Save(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	w.LogInfo(ctx, "Company request created",
		slog.String("request_id", rec.ID),
		slog.String("code", rec.Code),
		slog.String("type", string(rec.RequestType)))
	return &rec, nil
}

func (w *workflowCoordinator) GetCompanyRequest(ctx context.Context, id string) (*domain.CompanyRequest, error) {
	if err := requireID("company request id", id); err != nil {
		return nil, err
	}
	var rec *domain.CompanyRequest
	err := w.runTx(ctx, w.uow, "GetCompanyRequest", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		rec, err = tx.CompanyRequests().FindByID(ctx, id)
		return err
	})
	return rec, err
}

func (w *workflowCoordinator) GetCompany(ctx context.Context, id string) (*domain.Company, error) {
	if err := requireID("company id", id); err != nil {
		return nil, err
	}
	var company *domain.Company
	err := w.runTx(ctx, w.uow, "GetCompany", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		company, err = tx.Companies().FindByID(ctx, id)
		return err
	})
	return company, err
}

func (w *workflowCoordinator) moveCompanyRequest(ctx context.Context, op, id string, to domain.State, c statemachine.Context,
	prepare func(*domain.CompanyRequest, *statemachine.Context) error) (*domain.CompanyRequest, error) {
	if err := requireID("company request id", id); err != nil {
		return nil, err
	}
	var rec *domain.CompanyRequest
	err := w.runTx(ctx, w.uow, op, func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		rec, err = moveRecord[domain.CompanyRequest](ctx, &w.BaseService, tx, tx.CompanyRequests(), id, to, c, prepare)
		return err
	})
	if err != nil {
		return nil, err
	}
	w.LogInfo(ctx, "Company request moved",
		slog.String("request_id", id),
		slog.String("code", rec.Code),
		slog.String("state", rec.State.String()))
	return rec, nil
}

// ValidateCompanyRequest accepts the documents and bills the registration or renewal fee.
func (w *workflowCoordinator) ValidateCompanyRequest(ctx context.Context, id, actor string) (*domain.CompanyRequest, *domain.Invoice, error) {
	if err := requireID("company request id", id); err != nil {
		return nil, nil, err
	}
	var (
		rec *domain.CompanyRequest
		inv *domain.Invoice
	)
	err := w.runTx(ctx, w.uow, "ValidateCompanyRequest", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		rec, err = moveRecord[domain.CompanyRequest](ctx, &w.BaseService, tx, tx.CompanyRequests(), id,
			domain.CompanyRequestValidated, statemachine.Context{Actor: actor, ExpectedFrom: domain.CompanyRequestPending}, nil)
		if err != nil {
			return err
		}
		feeCode := w.cfg.IRCNewFeeItemCode
		links := []domain.RecordLink{{Kind: domain.KindCompanyRequest, RecordID: rec.ID}}
		if rec.RequestType == domain.CompanyRequestRenewal {
			// Paying a renewal also settles the company's open inspection cases.
			feeCode = w.cfg.IRCRenewalFeeItemCode
			links = append(links, domain.RecordLink{Kind: domain.KindCompany, RecordID: lo.FromPtr(rec.CompanyID)})
		}
		inv, err = w.invoices.IssueForItemCode(ctx, tx, feeCode, actor, links...)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	w.LogInfo(ctx, "Company request validated",
		slog.String("request_id", id),
		slog.String("invoice_id", inv.ID))
	return rec, inv, nil
}

func (w *workflowCoordinator) ReturnToAaU(ctx context.Context, id, note, actor string) (*domain.CompanyRequest, error) {
	return w.moveCompanyRequest(ctx, "ReturnToAaU", id, domain.CompanyRequestAwaitingAaUCorrection,
		statemachine.Context{Actor: actor, Note: note}, nil)
}

func (w *workflowCoordinator) ResubmitFromAaU(ctx context.Context, id, actor string) (*domain.CompanyRequest, error) {
	return w.moveCompanyRequest(ctx, "ResubmitFromAaU", id, domain.CompanyRequestPaid,
		statemachine.Context{Actor: actor, ExpectedFrom: domain.CompanyRequestAwaitingAaUCorrection}, nil)
}

// RecordAsEntered creates the company of a first registration or extends the registration
// of a renewal by one year from today.
func (w *workflowCoordinator) RecordAsEntered(ctx context.Context, id, actor string) (*domain.CompanyRequest, *domain.Company, error) {
	if err := requireID("company request id", id); err != nil {
		return nil, nil, err
	}
	var (
		rec     *domain.CompanyRequest
		company *domain.Company
	)
	err := w.runTx(ctx, w.uow, "RecordAsEntered", func(ctx context.Context, tx portsrepo.Tx) error {
		var err error
		rec, err = moveRecord[domain.CompanyRequest](ctx, &w.BaseService, tx, tx.CompanyRequests(), id,
			domain.CompanyRequestRecorded, statemachine.Context{Actor: actor},
			func(r *domain.CompanyRequest, c *statemachine.Context) error {
				var err error
				company, err = w.enterCompany(ctx, tx, r, actor, c)
				if err != nil {
					return err
				}
				c.CompanyID = company.ID
				c.RegistrationNumber = company.RegistrationNumber
				return nil
			})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	w.LogInfo(ctx, "Company recorded",
		slog.String("request_id", id),
		slog.String("company_id", company.ID),
		slog.String("registration_number", company.RegistrationNumber),
		slog.Time("expires_at", company.ExpiresAt))
	return rec, company, nil
}

func (w *workflowCoordinator) enterCompany(ctx context.Context, tx portsrepo.Tx, r *domain.CompanyRequest, actor string, c *statemachine.Context) (*domain.Company, error) {
	local := c.At.In(w.cfg.Location)
	if r.RequestType == domain.CompanyRequestRenewal {
		company, err := tx.Companies().FindByIDForUpdate(ctx, lo.FromPtr(r.CompanyID))
		if err != nil {
			return nil, fmt.Errorf("company to renew: %w", err)
		}
		company.ExtendRegistration(c.At)
		if company.RegistrationNumber == "" {
			company.RegistrationNumber = domain.RegistrationNumber(r.FormSequence, local)
		}
		company.Touch(actor, c.At)
		if err := tx.Companies().Update(ctx, *company); err != nil {
			return nil, err
		}
		return company, nil
	}

	company := domain.Company{
		ID:                 uuid.NewString(),
		Name:               r.CompanyName,
		TaxID:              r.TaxID,
		Address:            r.Address,
		Activity:           r.Activity,
		RegistrationNumber: domain.RegistrationNumber(r.FormSequence, local),
		RegisteredAt:       c.At,
		ComplianceStatus:   domain.ComplianceCurrent,
		AuditFields:        domain.NewAuditFields(actor, c.At),
	}
	company.ExtendRegistration(c.At)
	if err := tx.Companies().Save(ctx, company); err != nil {
		return nil, err
	}
	return &company, nil
}

// GenerateCertificate renders the IRC certificate and leaves it waiting for signature.
func (w *workflowCoordinator) GenerateCertificate(ctx context.Context, id, actor string) (*domain.CompanyRequest, error) {
	return w.moveCompanyRequest(ctx, "GenerateCertificate", id, domain.CompanyRequestPendingSignature,
		statemachine.Context{Actor: actor},
		func(r *domain.CompanyRequest, c *statemachine.Context) error {
			ref, err := w.certificates.RenderCompanyCertificate(ctx, *r)
			if err != nil {
				return fmt.Errorf("failed to render certificate of %s: %w", r.Code, err)
			}
			c.FileRef = ref
			return nil
		})
}

func (w *workflowCoordinator) SignCertificate(ctx context.Context, id, signedFileRef, actor string) (*domain.CompanyRequest, error) {
	return w.moveCompanyRequest(ctx, "SignCertificate", id, domain.CompanyRequestSigned,
		statemachine.Context{Actor: actor, FileRef: strings.TrimSpace(signedFileRef)}, nil)
}

func (w *workflowCoordinator) DeliverCertificate(ctx context.Context, id, actor string) (*domain.CompanyRequest, error) {
	return w.moveCompanyRequest(ctx, "DeliverCertificate", id, domain.CompanyRequestDelivered,
		statemachine.Context{Actor: actor}, nil)
}
