package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	portssvc "github.com/SscSPs/onda_backoffice/internal/core/ports/services"
	"github.com/SscSPs/onda_backoffice/internal/dto"
	"github.com/SscSPs/onda_backoffice/internal/middleware"
	"github.com/gin-gonic/gin"
)

// inspectionHandler handles inspection cases and their legal referrals.
type inspectionHandler struct {
	workflow portssvc.InspectionWorkflowSvc
}

// escalatedCase is returned by operations that may open a legal case.
type escalatedCase struct {
	Case      *domain.InspectionCase `json:"case"`
	LegalCase *domain.LegalCase      `json:"legalCase,omitempty"`
}

// registerInspectionRoutes registers routes related to inspections and legal cases.
func registerInspectionRoutes(rg *gin.RouterGroup, workflow portssvc.InspectionWorkflowSvc) {
	h := &inspectionHandler{workflow: workflow}

	cases := rg.Group("/inspection-cases")
	{
		cases.POST("", h.createCase)
		cases.GET("/:id", h.getCase)
		cases.GET("/:id/actas", h.listActas)
		cases.POST("/:id/assign", h.assignInspector)
		cases.POST("/:id/first-visit", h.reportFirstVisit)
		cases.POST("/:id/second-visit", h.reportSecondVisit)
		cases.POST("/:id/refer-legal", h.referToLegal)
	}

	legal := rg.Group("/legal-cases")
	{
		legal.GET("/:id", h.getLegalCase)
		legal.POST("/:id/attend", h.attendLegalCase)
		legal.POST("/:id/close", h.closeLegalCase)
	}
}

// createCase godoc
// @Summary Open an inspection case
// @Tags inspection-cases
// @Accept  json
// @Produce  json
// @Param   case body dto.CreateInspectionCaseRequest true "Company and reason"
// @Success 201 {object} domain.InspectionCase
// @Failure 400 {object} dto.ErrorResponse "Invalid input format or validation error"
// @Failure 404 {object} dto.ErrorResponse "Company not found"
// @Security BearerAuth
// @Router /inspection-cases [post]
func (h *inspectionHandler) createCase(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateInspectionCaseRequest
	if !bindJSON(c, &req, "CreateInspectionCase") {
		return
	}
	operator, ok := operatorID(c)
	if !ok {
		return
	}

	ic, err := h.workflow.CreateInspectionCase(c.Request.Context(), req, operator)
	if err != nil {
		respondError(c, err, "Failed to create inspection case")
		return
	}

	logger.Info("Inspection case created", slog.String("case_id", ic.ID), slog.String("code", ic.Code))
	c.JSON(http.StatusCreated, ic)
}

// getCase godoc
// @Summary Get an inspection case by ID
// @Tags inspection-cases
// @Produce  json
// @Param   id path string true "Case ID"
// @Success 200 {object} domain.InspectionCase
// @Failure 404 {object} dto.ErrorResponse "Case not found"
// @Security BearerAuth
// @Router /inspection-cases/{id} [get]
func (h *inspectionHandler) getCase(c *gin.Context) {
	ic, err := h.workflow.GetInspectionCase(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get inspection case")
		return
	}
	c.JSON(http.StatusOK, ic)
}

// listActas godoc
// @Summary List the actas of an inspection case
// @Tags inspection-cases
// @Produce  json
// @Param   id path string true "Case ID"
// @Success 200 {array} domain.Acta
// @Failure 404 {object} dto.ErrorResponse "Case not found"
// @Security BearerAuth
// @Router /inspection-cases/{id}/actas [get]
func (h *inspectionHandler) listActas(c *gin.Context) {
	actas, err := h.workflow.ListActas(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to list actas")
		return
	}
	if actas == nil {
		actas = []domain.Acta{}
	}
	c.JSON(http.StatusOK, actas)
}

// assignInspector godoc
// @Summary Assign an inspector
// @Description Accepts a pending inspection case or a paid complaint; a complaint gets its inspection case created
// @Tags inspection-cases
// @Accept  json
// @Produce  json
// @Param   id path string true "Case or complaint ID"
// @Param   inspector body dto.AssignInspectorRequest true "Inspector"
// @Success 200 {object} domain.InspectionCase
// @Failure 404 {object} dto.ErrorResponse "Neither a case nor a complaint"
// @Failure 409 {object} dto.ErrorResponse "Record cannot be assigned in its state"
// @Security BearerAuth
// @Router /inspection-cases/{id}/assign [post]
func (h *inspectionHandler) assignInspector(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.AssignInspectorRequest
	if !bindJSON(c, &req, "AssignInspector") {
		return
	}
	operator, ok := operatorID(c)
	if !ok {
		return
	}

	ic, err := h.workflow.AssignInspector(c.Request.Context(), c.Param("id"), req.InspectorID, operator)
	if err != nil {
		respondError(c, err, "Failed to assign inspector")
		return
	}

	logger.Info("Inspector assigned", slog.String("case_id", ic.ID), slog.String("inspector_id", req.InspectorID))
	c.JSON(http.StatusOK, ic)
}

// reportFirstVisit godoc
// @Summary Report the first inspection visit
// @Description A non-compliant visit notifies the company and opens the correction grace period
// @Tags inspection-cases
// @Accept  json
// @Produce  json
// @Param   id path string true "Case ID"
// @Param   visit body dto.VisitReportRequest true "Visit outcome"
// @Success 200 {object} domain.InspectionCase
// @Failure 409 {object} dto.ErrorResponse "Case is not assigned"
// @Security BearerAuth
// @Router /inspection-cases/{id}/first-visit [post]
func (h *inspectionHandler) reportFirstVisit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.VisitReportRequest
	if !bindJSON(c, &req, "ReportFirstVisit") {
		return
	}
	operator, ok := operatorID(c)
	if !ok {
		return
	}

	ic, err := h.workflow.ReportFirstVisit(c.Request.Context(), c.Param("id"), req, operator)
	if err != nil {
		respondError(c, err, "Failed to report first visit")
		return
	}

	logger.Info("First visit reported", slog.String("case_id", ic.ID), slog.Bool("compliant", req.Compliant))
	c.JSON(http.StatusOK, ic)
}

// reportSecondVisit godoc
// @Summary Report the follow-up visit
// @Description An uncorrected infraction refers the case to legal
// @Tags inspection-cases
// @Accept  json
// @Produce  json
// @Param   id path string true "Case ID"
// @Param   visit body dto.VisitReportRequest true "Visit outcome"
// @Success 200 {object} escalatedCase
// @Failure 409 {object} dto.ErrorResponse "Case is not in its grace period"
// @Security BearerAuth
// @Router /inspection-cases/{id}/second-visit [post]
func (h *inspectionHandler) reportSecondVisit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.VisitReportRequest
	if !bindJSON(c, &req, "ReportSecondVisit") {
		return
	}
	operator, ok := operatorID(c)
	if !ok {
		return
	}

	ic, legal, err := h.workflow.ReportSecondVisit(c.Request.Context(), c.Param("id"), req, operator)
	if err != nil {
		respondError(c, err, "Failed to report second visit")
		return
	}

	logger.Info("Second visit reported", slog.String("case_id", ic.ID), slog.Bool("referred", legal != nil))
	c.JSON(http.StatusOK, escalatedCase{Case: ic, LegalCase: legal})
}

// referToLegal godoc
// @Summary Refer a case to legal
// @Description Manual referral once the correction deadline has passed
// @Tags inspection-cases
// @Accept  json
// @Produce  json
// @Param   id path string true "Case ID"
// @Param   note body dto.NoteRequest true "Referral notes"
// @Success 200 {object} escalatedCase
// @Failure 409 {object} dto.ErrorResponse "Case is not in its grace period"
// @Failure 422 {object} dto.ErrorResponse "Correction deadline has not passed"
// @Security BearerAuth
// @Router /inspection-cases/{id}/refer-legal [post]
func (h *inspectionHandler) referToLegal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.NoteRequest
	if !bindJSON(c, &req, "ReferToLegal") {
		return
	}
	operator, ok := operatorID(c)
	if !ok {
		return
	}

	ic, legal, err := h.workflow.ReferToLegal(c.Request.Context(), c.Param("id"), req.Note, operator)
	if err != nil {
		respondError(c, err, "Failed to refer case to legal")
		return
	}

	logger.Info("Case referred to legal", slog.String("case_id", ic.ID), slog.String("legal_case_id", legal.ID))
	c.JSON(http.StatusOK, escalatedCase{Case: ic, LegalCase: legal})
}

// getLegalCase godoc
// @Summary Get a legal case by ID
// @Tags legal-cases
// @Produce  json
// @Param   id path string true "Legal case ID"
// @Success 200 {object} domain.LegalCase
// @Failure 404 {object} dto.ErrorResponse "Legal case not found"
// @Security BearerAuth
// @Router /legal-cases/{id} [get]
func (h *inspectionHandler) getLegalCase(c *gin.Context) {
	lc, err := h.workflow.GetLegalCase(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get legal case")
		return
	}
	c.JSON(http.StatusOK, lc)
}

// attendLegalCase godoc
// @Summary Start attending a legal case
// @Tags legal-cases
// @Accept  json
// @Produce  json
// @Param   id path string true "Legal case ID"
// @Param   note body dto.NoteRequest true "Notes"
// @Success 200 {object} domain.LegalCase
// @Failure 409 {object} dto.ErrorResponse "Legal case is not received"
// @Security BearerAuth
// @Router /legal-cases/{id}/attend [post]
func (h *inspectionHandler) attendLegalCase(c *gin.Context) {
	applyNoteTransition(c, "attend legal case", h.workflow.AttendLegalCase)
}

// closeLegalCase godoc
// @Summary Close a legal case
// @Tags legal-cases
// @Accept  json
// @Produce  json
// @Param   id path string true "Legal case ID"
// @Param   note body dto.NoteRequest true "Notes"
// @Success 200 {object} domain.LegalCase
// @Failure 409 {object} dto.ErrorResponse "Legal case is not in attention"
// @Security BearerAuth
// @Router /legal-cases/{id}/close [post]
func (h *inspectionHandler) closeLegalCase(c *gin.Context) {
	applyNoteTransition(c, "close legal case", h.workflow.CloseLegalCase)
}
