package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	portssvc "github.com/SscSPs/onda_backoffice/internal/core/ports/services"
	"github.com/SscSPs/onda_backoffice/internal/dto"
	"github.com/SscSPs/onda_backoffice/internal/middleware"
	"github.com/gin-gonic/gin"
)

// companyHandler handles the IRC company registration pipeline.
type companyHandler struct {
	workflow portssvc.CompanyWorkflowSvc
}

// validatedCompanyRequest is returned when validation bills the request.
type validatedCompanyRequest struct {
	Request *domain.CompanyRequest `json:"request"`
	Invoice dto.InvoiceResponse    `json:"invoice"`
}

// recordedCompanyRequest is returned when the request is entered in the registry.
type recordedCompanyRequest struct {
	Request *domain.CompanyRequest `json:"request"`
	Company *domain.Company        `json:"company"`
}

// registerCompanyRoutes registers routes related to company requests and companies.
func registerCompanyRoutes(rg *gin.RouterGroup, workflow portssvc.CompanyWorkflowSvc) {
	h := &companyHandler{workflow: workflow}

	requests := rg.Group("/company-requests")
	{
		requests.POST("", h.createRequest)
		requests.GET("/:id", h.getRequest)
		requests.PUT("/:id/validate", h.validate)
		requests.PUT("/:id/return-to-aau", h.returnToAaU)
		requests.PUT("/:id/resubmit", h.resubmit)
		requests.PUT("/:id/asentar", h.recordAsEntered)
		requests.PUT("/:id/generar-certificado", h.generateCertificate)
		requests.PUT("/:id/firmar", h.signCertificate)
		requests.PUT("/:id/entregar", h.deliverCertificate)
	}
	rg.GET("/companies/:id", h.getCompany)
}

// createRequest godoc
// @Summary File an IRC registration or renewal
// @Tags company-requests
// @Accept  json
// @Produce  json
// @Param   request body dto.CreateCompanyRequest true "Company details"
// @Success 201 {object} domain.CompanyRequest
// @Failure 400 {object} dto.ErrorResponse "Invalid input format or validation error"
// @Failure 404 {object} dto.ErrorResponse "Company to renew not found"
// @Security BearerAuth
// @Router /company-requests [post]
func (h *companyHandler) createRequest(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateCompanyRequest
	if !bindJSON(c, &req, "CreateCompanyRequest") {
		return
	}
	operator, ok := operatorID(c)
	if !ok {
		return
	}

	created, err := h.workflow.CreateCompanyRequest(c.Request.Context(), req, operator)
	if err != nil {
		respondError(c, err, "Failed to create company request")
		return
	}

	logger.Info("Company request created",
		slog.String("request_id", created.ID),
		slog.String("code", created.Code),
		slog.String("type", string(req.RequestType)))
	c.JSON(http.StatusCreated, created)
}

// getRequest godoc
// @Summary Get a company request by ID
// @Tags company-requests
// @Produce  json
// @Param   id path string true "Request ID"
// @Success 200 {object} domain.CompanyRequest
// @Failure 404 {object} dto.ErrorResponse "Request not found"
// @Security BearerAuth
// @Router /company-requests/{id} [get]
func (h *companyHandler) getRequest(c *gin.Context) {
	req, err := h.workflow.GetCompanyRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get company request")
		return
	}
	c.JSON(http.StatusOK, req)
}

// getCompany godoc
// @Summary Get a registered company by ID
// @Tags company-requests
// @Produce  json
// @Param   id path string true "Company ID"
// @Success 200 {object} domain.Company
// @Failure 404 {object} dto.ErrorResponse "Company not found"
// @Security BearerAuth
// @Router /companies/{id} [get]
func (h *companyHandler) getCompany(c *gin.Context) {
	company, err := h.workflow.GetCompany(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get company")
		return
	}
	c.JSON(http.StatusOK, company)
}

// validate godoc
// @Summary Validate a company request
// @Description Validates the request and bills its fee in an open invoice
// @Tags company-requests
// @Produce  json
// @Param   id path string true "Request ID"
// @Success 200 {object} validatedCompanyRequest
// @Failure 409 {object} dto.ErrorResponse "Request is not pending"
// @Failure 500 {object} dto.ErrorResponse "Fee item is not configured"
// @Security BearerAuth
// @Router /company-requests/{id}/validate [put]
func (h *companyHandler) validate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	operator, ok := operatorID(c)
	if !ok {
		return
	}

	req, inv, err := h.workflow.ValidateCompanyRequest(c.Request.Context(), c.Param("id"), operator)
	if err != nil {
		respondError(c, err, "Failed to validate company request")
		return
	}

	logger.Info("Company request validated", slog.String("request_id", req.ID), slog.String("invoice_id", inv.ID))
	c.JSON(http.StatusOK, validatedCompanyRequest{Request: req, Invoice: dto.ToInvoiceResponse(inv)})
}

// returnToAaU godoc
// @Summary Return a request to the applicant for correction
// @Tags company-requests
// @Accept  json
// @Produce  json
// @Param   id path string true "Request ID"
// @Param   note body dto.NoteRequest true "Reason"
// @Success 200 {object} domain.CompanyRequest
// @Failure 409 {object} dto.ErrorResponse "Request is not paid"
// @Security BearerAuth
// @Router /company-requests/{id}/return-to-aau [put]
func (h *companyHandler) returnToAaU(c *gin.Context) {
	applyNoteTransition(c, "return to applicant", h.workflow.ReturnToAaU)
}

// resubmit godoc
// @Summary Resubmit a corrected request
// @Tags company-requests
// @Produce  json
// @Param   id path string true "Request ID"
// @Success 200 {object} domain.CompanyRequest
// @Failure 409 {object} dto.ErrorResponse "Request is not awaiting correction"
// @Security BearerAuth
// @Router /company-requests/{id}/resubmit [put]
func (h *companyHandler) resubmit(c *gin.Context) {
	applyTransition(c, "resubmit company request", h.workflow.ResubmitFromAaU)
}

// recordAsEntered godoc
// @Summary Enter the request in the registry
// @Description Creates the company for a first registration or extends its expiry by one year for a renewal
// @Tags company-requests
// @Produce  json
// @Param   id path string true "Request ID"
// @Success 200 {object} recordedCompanyRequest
// @Failure 409 {object} dto.ErrorResponse "Request is not paid"
// @Security BearerAuth
// @Router /company-requests/{id}/asentar [put]
func (h *companyHandler) recordAsEntered(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	operator, ok := operatorID(c)
	if !ok {
		return
	}

	req, company, err := h.workflow.RecordAsEntered(c.Request.Context(), c.Param("id"), operator)
	if err != nil {
		respondError(c, err, "Failed to record company request")
		return
	}

	logger.Info("Company request recorded", slog.String("request_id", req.ID), slog.String("company_id", company.ID))
	c.JSON(http.StatusOK, recordedCompanyRequest{Request: req, Company: company})
}

// generateCertificate godoc
// @Summary Generate the IRC certificate
// @Tags company-requests
// @Produce  json
// @Param   id path string true "Request ID"
// @Success 200 {object} domain.CompanyRequest
// @Failure 409 {object} dto.ErrorResponse "Request is not recorded"
// @Security BearerAuth
// @Router /company-requests/{id}/generar-certificado [put]
func (h *companyHandler) generateCertificate(c *gin.Context) {
	applyTransition(c, "generate certificate", h.workflow.GenerateCertificate)
}

// signCertificate godoc
// @Summary Attach the signed certificate
// @Tags company-requests
// @Accept  json
// @Produce  json
// @Param   id path string true "Request ID"
// @Param   file body dto.FileRefRequest true "Signed certificate file"
// @Success 200 {object} domain.CompanyRequest
// @Failure 400 {object} dto.ErrorResponse "File reference is required"
// @Failure 409 {object} dto.ErrorResponse "Certificate is not pending signature"
// @Security BearerAuth
// @Router /company-requests/{id}/firmar [put]
func (h *companyHandler) signCertificate(c *gin.Context) {
	var req dto.FileRefRequest
	if !bindJSON(c, &req, "SignCertificate") {
		return
	}
	applyTransition(c, "sign certificate", func(ctx context.Context, id, actor string) (*domain.CompanyRequest, error) {
		return h.workflow.SignCertificate(ctx, id, req.FileRef, actor)
	})
}

// deliverCertificate godoc
// @Summary Deliver the signed certificate
// @Tags company-requests
// @Produce  json
// @Param   id path string true "Request ID"
// @Success 200 {object} domain.CompanyRequest
// @Failure 409 {object} dto.ErrorResponse "Certificate is not signed"
// @Security BearerAuth
// @Router /company-requests/{id}/entregar [put]
func (h *companyHandler) deliverCertificate(c *gin.Context) {
	applyTransition(c, "deliver certificate", h.workflow.DeliverCertificate)
}
