package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	portssvc "github.com/SscSPs/onda_backoffice/internal/core/ports/services"
	"github.com/SscSPs/onda_backoffice/internal/dto"
	"github.com/SscSPs/onda_backoffice/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// webhookHandler exposes the propagation entry points called by the payment subsystem.
type webhookHandler struct {
	workflow portssvc.PaymentWorkflowSvc
}

func registerWebhookRoutes(rg *gin.RouterGroup, workflow portssvc.PaymentWorkflowSvc) {
	h := &webhookHandler{workflow: workflow}

	hooks := rg.Group("/webhooks")
	{
		hooks.POST("/cash-payment-closes-case", h.cashPaymentClosesCase)
		hooks.POST("/invoice-marks-request-paid", h.invoiceMarksRequestPaid)
	}
}

// cashPaymentClosesCase godoc
// @Summary Close inspection cases after a renewal payment
// @Description Closes every non-terminal inspection case of the company
// @Tags webhooks
// @Accept  json
// @Produce  json
// @Param   payload body dto.CashPaymentClosesCaseRequest true "Company"
// @Success 200 {object} dto.PropagationResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input format or validation error"
// @Failure 404 {object} dto.ErrorResponse "No open case for the company"
// @Security BearerAuth
// @Router /webhooks/cash-payment-closes-case [post]
func (h *webhookHandler) cashPaymentClosesCase(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CashPaymentClosesCaseRequest
	if !bindJSON(c, &req, "CashPaymentClosesCase") {
		return
	}
	operator, ok := operatorID(c)
	if !ok {
		return
	}

	closed, err := h.workflow.CloseCaseByPayment(c.Request.Context(), req.CompanyID, operator)
	if err != nil {
		respondError(c, err, "Failed to close cases by payment")
		return
	}

	ids := lo.Map(closed, func(ic domain.InspectionCase, _ int) string { return ic.ID })
	logger.Info("Cases closed by payment", slog.String("company_id", req.CompanyID), slog.Int("count", len(ids)))
	c.JSON(http.StatusOK, dto.PropagationResponse{Updated: ids})
}

// invoiceMarksRequestPaid godoc
// @Summary Promote the records billed by a paid invoice
// @Tags webhooks
// @Accept  json
// @Produce  json
// @Param   payload body dto.InvoiceMarksRequestPaidRequest true "Invoice"
// @Success 200 {object} dto.PropagationResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input format or validation error"
// @Failure 404 {object} dto.ErrorResponse "Invoice not found"
// @Failure 409 {object} dto.ErrorResponse "Invoice is not paid"
// @Security BearerAuth
// @Router /webhooks/invoice-marks-request-paid [post]
func (h *webhookHandler) invoiceMarksRequestPaid(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.InvoiceMarksRequestPaidRequest
	if !bindJSON(c, &req, "InvoiceMarksRequestPaid") {
		return
	}
	operator, ok := operatorID(c)
	if !ok {
		return
	}

	links, err := h.workflow.MarkRequestsPaidByInvoice(c.Request.Context(), req.InvoiceID, operator)
	if err != nil {
		respondError(c, err, "Failed to propagate invoice payment")
		return
	}

	ids := lo.Map(links, func(l domain.RecordLink, _ int) string { return l.RecordID })
	logger.Info("Invoice payment propagated", slog.String("invoice_id", req.InvoiceID), slog.Int("count", len(ids)))
	c.JSON(http.StatusOK, dto.PropagationResponse{Updated: ids})
}
