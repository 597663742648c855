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

type complaintHandler struct {
	workflow portssvc.CoordinatorFacade
}

// billedComplaint pairs a complaint with its fee invoice.
type billedComplaint struct {
	Complaint *domain.Complaint   `json:"complaint"`
	Invoice   dto.InvoiceResponse `json:"invoice"`
}

// registerComplaintRoutes registers routes related to complaints.
func registerComplaintRoutes(rg *gin.RouterGroup, workflow portssvc.CoordinatorFacade) {
	h := &complaintHandler{workflow: workflow}

	complaints := rg.Group("/complaints")
	{
		complaints.POST("", h.submitComplaint)
		complaints.GET("/:id", h.getComplaint)
		complaints.POST("/:id/pay", h.payFee)
		complaints.POST("/:id/plan", h.planComplaint)
		complaints.POST("/:id/assign", h.assignInspector)
	}
}

// submitComplaint godoc
// @Summary File a complaint
// @Description Files the complaint together with its open fee invoice
// @Tags complaints
// @Accept  json
// @Produce  json
// @Param   complaint body dto.SubmitComplaintRequest true "Complaint"
// @Success 201 {object} billedComplaint
// @Failure 400 {object} dto.ErrorResponse "Invalid input format or validation error"
// @Failure 404 {object} dto.ErrorResponse "Company not found"
// @Failure 500 {object} dto.ErrorResponse "Fee item is not configured"
// @Security BearerAuth
// @Router /complaints [post]
func (h *complaintHandler) submitComplaint(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SubmitComplaintRequest
	if !bindJSON(c, &req, "SubmitComplaint") {
		return
	}
	operator, ok := operatorID(c)
	if !ok {
		return
	}

	complaint, inv, err := h.workflow.SubmitComplaint(c.Request.Context(), req, operator)
	if err != nil {
		respondError(c, err, "Failed to submit complaint")
		return
	}

	logger.Info("Complaint submitted", slog.String("complaint_id", complaint.ID), slog.String("code", complaint.Code))
	c.JSON(http.StatusCreated, billedComplaint{Complaint: complaint, Invoice: dto.ToInvoiceResponse(inv)})
}

// getComplaint godoc
// @Summary Get a complaint by ID
// @Tags complaints
// @Produce  json
// @Param   id path string true "Complaint ID"
// @Success 200 {object} domain.Complaint
// @Failure 404 {object} dto.ErrorResponse "Complaint not found"
// @Security BearerAuth
// @Router /complaints/{id} [get]
func (h *complaintHandler) getComplaint(c *gin.Context) {
	complaint, err := h.workflow.GetComplaint(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get complaint")
		return
	}
	c.JSON(http.StatusOK, complaint)
}

// payFee godoc
// @Summary Pay the complaint fee
// @Tags complaints
// @Accept  json
// @Produce  json
// @Param   id path string true "Complaint ID"
// @Param   payment body dto.PayInvoiceRequest true "Payment details"
// @Success 200 {object} billedComplaint
// @Failure 409 {object} dto.ErrorResponse "Complaint is not pending payment"
// @Failure 422 {object} dto.ErrorResponse "Operator has no open cash session"
// @Security BearerAuth
// @Router /complaints/{id}/pay [post]
func (h *complaintHandler) payFee(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.PayInvoiceRequest
	if !bindJSON(c, &req, "PayComplaintFee") {
		return
	}
	operator, ok := operatorID(c)
	if !ok {
		return
	}

	complaint, inv, err := h.workflow.PayComplaintFee(c.Request.Context(), c.Param("id"), req, operator)
	if err != nil {
		respondError(c, err, "Failed to pay complaint fee")
		return
	}

	logger.Info("Complaint fee paid", slog.String("complaint_id", complaint.ID), slog.String("invoice_id", inv.ID))
	c.JSON(http.StatusOK, billedComplaint{Complaint: complaint, Invoice: dto.ToInvoiceResponse(inv)})
}

// planComplaint godoc
// @Summary Plan the inspection of a complaint
// @Tags complaints
// @Produce  json
// @Param   id path string true "Complaint ID"
// @Success 200 {object} domain.Complaint
// @Failure 409 {object} dto.ErrorResponse "Complaint is not paid"
// @Security BearerAuth
// @Router /complaints/{id}/plan [post]
func (h *complaintHandler) planComplaint(c *gin.Context) {
	applyTransition(c, "plan complaint", h.workflow.PlanComplaint)
}

// assignInspector godoc
// @Summary Assign an inspector to a complaint
// @Description Creates the inspection case of a paid or planned complaint
// @Tags complaints
// @Accept  json
// @Produce  json
// @Param   id path string true "Complaint ID"
// @Param   inspector body dto.AssignInspectorRequest true "Inspector"
// @Success 200 {object} domain.InspectionCase
// @Failure 409 {object} dto.ErrorResponse "Complaint cannot be assigned in its state"
// @Security BearerAuth
// @Router /complaints/{id}/assign [post]
func (h *complaintHandler) assignInspector(c *gin.Context) {
	var req dto.AssignInspectorRequest
	if !bindJSON(c, &req, "AssignComplaintInspector") {
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
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Complaint assigned",
		slog.String("complaint_id", c.Param("id")), slog.String("case_id", ic.ID))
	c.JSON(http.StatusOK, ic)
}
