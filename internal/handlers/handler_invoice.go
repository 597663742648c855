package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/onda_backoffice/internal/core/ports/services"
	"github.com/SscSPs/onda_backoffice/internal/dto"
	"github.com/SscSPs/onda_backoffice/internal/middleware"
	"github.com/gin-gonic/gin"
)

// invoiceHandler handles HTTP requests related to invoices.
// Payment goes through the workflow coordinator so billed records move with the invoice.
type invoiceHandler struct {
	invoiceService  portssvc.InvoiceSvcFacade
	workflowService portssvc.PaymentWorkflowSvc
}

// registerInvoiceRoutes registers routes related to invoices.
func registerInvoiceRoutes(rg *gin.RouterGroup, invoiceService portssvc.InvoiceSvcFacade, workflowService portssvc.PaymentWorkflowSvc) {
	h := &invoiceHandler{invoiceService: invoiceService, workflowService: workflowService}

	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.createInvoice)
		invoices.GET("/:id", h.getInvoice)
		invoices.PUT("/:id/pay", h.payInvoice)
		invoices.PUT("/:id/cancel", h.cancelInvoice)
	}
}

// createInvoice godoc
// @Summary Create an invoice
// @Description Prices catalog items and stores an open invoice linked to the billed records
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   invoice body dto.CreateInvoiceRequest true "Invoice lines"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input format or validation error"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Catalog item or linked record not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to create invoice"
// @Security BearerAuth
// @Router /invoices [post]
func (h *invoiceHandler) createInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateInvoiceRequest
	if !bindJSON(c, &req, "CreateInvoice") {
		return
	}
	operator, ok := operatorID(c)
	if !ok {
		return
	}

	inv, err := h.invoiceService.CreateInvoice(c.Request.Context(), req, operator)
	if err != nil {
		respondError(c, err, "Failed to create invoice")
		return
	}

	logger.Info("Invoice created", slog.String("invoice_id", inv.ID), slog.String("total", inv.Total.String()))
	c.JSON(http.StatusCreated, dto.ToInvoiceResponse(inv))
}

// getInvoice godoc
// @Summary Get an invoice by ID
// @Tags invoices
// @Produce  json
// @Param   id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} dto.ErrorResponse "Invoice not found"
// @Security BearerAuth
// @Router /invoices/{id} [get]
func (h *invoiceHandler) getInvoice(c *gin.Context) {
	inv, err := h.invoiceService.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get invoice")
		return
	}
	c.JSON(http.StatusOK, dto.ToInvoiceResponse(inv))
}

// payInvoice godoc
// @Summary Pay an invoice
// @Description Pays an open invoice at the operator's open cash session, assigns its fiscal number and promotes every billed record.
// @Description fiscalWarning is set when the fiscal range used is nearly exhausted.
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   id path string true "Invoice ID"
// @Param   payment body dto.PayInvoiceRequest true "Payment details"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input format or validation error"
// @Failure 404 {object} dto.ErrorResponse "Invoice not found"
// @Failure 409 {object} dto.ErrorResponse "Invoice or a billed record is in the wrong state"
// @Failure 422 {object} dto.ErrorResponse "Operator has no open cash session"
// @Failure 503 {object} dto.ErrorResponse "No fiscal numbers left"
// @Security BearerAuth
// @Router /invoices/{id}/pay [put]
func (h *invoiceHandler) payInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.PayInvoiceRequest
	if !bindJSON(c, &req, "PayInvoice") {
		return
	}
	operator, ok := operatorID(c)
	if !ok {
		return
	}

	inv, err := h.workflowService.PayInvoice(c.Request.Context(), c.Param("id"), req, operator)
	if err != nil {
		respondError(c, err, "Failed to pay invoice")
		return
	}

	resp := dto.ToInvoiceResponse(inv)
	if resp.FiscalWarning != nil {
		logger.Warn("Fiscal range running low",
			slog.String("type_code", resp.FiscalWarning.TypeCode),
			slog.Int64("remaining", resp.FiscalWarning.Remaining))
	}
	logger.Info("Invoice paid", slog.String("invoice_id", inv.ID), slog.String("method", string(req.Method)))
	c.JSON(http.StatusOK, resp)
}

// cancelInvoice godoc
// @Summary Cancel an invoice
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   id path string true "Invoice ID"
// @Param   cancel body dto.CancelInvoiceRequest true "Cancellation reason"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input format or validation error"
// @Failure 404 {object} dto.ErrorResponse "Invoice not found"
// @Failure 409 {object} dto.ErrorResponse "Invoice is not open"
// @Security BearerAuth
// @Router /invoices/{id}/cancel [put]
func (h *invoiceHandler) cancelInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CancelInvoiceRequest
	if !bindJSON(c, &req, "CancelInvoice") {
		return
	}
	operator, ok := operatorID(c)
	if !ok {
		return
	}

	inv, err := h.invoiceService.CancelInvoice(c.Request.Context(), c.Param("id"), req.Reason, operator)
	if err != nil {
		respondError(c, err, "Failed to cancel invoice")
		return
	}

	logger.Info("Invoice cancelled", slog.String("invoice_id", inv.ID))
	c.JSON(http.StatusOK, dto.ToInvoiceResponse(inv))
}
