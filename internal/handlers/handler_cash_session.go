package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/onda_backoffice/internal/core/ports/services"
	"github.com/SscSPs/onda_backoffice/internal/dto"
	"github.com/SscSPs/onda_backoffice/internal/middleware"
	"github.com/gin-gonic/gin"
)

// cashSessionHandler handles HTTP requests related to cash sessions and closures.
type cashSessionHandler struct {
	cashService portssvc.CashSessionSvcFacade
}

// registerCashSessionRoutes registers routes related to cash sessions.
func registerCashSessionRoutes(rg *gin.RouterGroup, cashService portssvc.CashSessionSvcFacade) {
	h := &cashSessionHandler{cashService: cashService}

	sessions := rg.Group("/cash-sessions")
	{
		sessions.POST("/open", h.openSession)
		sessions.GET("/:id", h.getSession)
		sessions.POST("/:id/invoices", h.attachInvoice)
		sessions.POST("/:id/close", h.closeSession)
	}
	rg.GET("/closures/:id", h.getClosure)
}

// openSession godoc
// @Summary Open a cash session
// @Description Opens a cash session and its paired closure for the authenticated operator
// @Tags cash-sessions
// @Accept  json
// @Produce  json
// @Param   session body dto.OpenCashSessionRequest false "Session description"
// @Success 201 {object} dto.OpenCashSessionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input format or validation error"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 409 {object} dto.ErrorResponse "Operator already owns an open session"
// @Failure 500 {object} dto.ErrorResponse "Failed to open session"
// @Security BearerAuth
// @Router /cash-sessions/open [post]
func (h *cashSessionHandler) openSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.OpenCashSessionRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req, "OpenCashSession") {
		return
	}
	operator, ok := operatorID(c)
	if !ok {
		return
	}

	session, closure, err := h.cashService.Open(c.Request.Context(), operator, req.Description)
	if err != nil {
		respondError(c, err, "Failed to open cash session")
		return
	}

	logger.Info("Cash session opened", slog.String("session_id", session.ID), slog.String("code", session.Code))
	c.JSON(http.StatusCreated, dto.OpenCashSessionResponse{
		Session: dto.ToCashSessionResponse(session),
		Closure: dto.ToClosureResponse(closure),
	})
}

// getSession godoc
// @Summary Get a cash session by ID
// @Tags cash-sessions
// @Produce  json
// @Param   id path string true "Session ID"
// @Success 200 {object} dto.CashSessionResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Security BearerAuth
// @Router /cash-sessions/{id} [get]
func (h *cashSessionHandler) getSession(c *gin.Context) {
	session, err := h.cashService.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get cash session")
		return
	}
	c.JSON(http.StatusOK, dto.ToCashSessionResponse(session))
}

// attachInvoice godoc
// @Summary Attach an invoice to a cash session
// @Description Attaches an open invoice to an open session ahead of payment
// @Tags cash-sessions
// @Accept  json
// @Produce  json
// @Param   id path string true "Session ID"
// @Param   invoice body dto.AttachInvoiceRequest true "Invoice to attach"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input format or validation error"
// @Failure 404 {object} dto.ErrorResponse "Session or invoice not found"
// @Failure 409 {object} dto.ErrorResponse "Session or invoice not open"
// @Security BearerAuth
// @Router /cash-sessions/{id}/invoices [post]
func (h *cashSessionHandler) attachInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.AttachInvoiceRequest
	if !bindJSON(c, &req, "AttachInvoice") {
		return
	}
	operator, ok := operatorID(c)
	if !ok {
		return
	}

	inv, err := h.cashService.AttachInvoice(c.Request.Context(), c.Param("id"), req.InvoiceID, operator)
	if err != nil {
		respondError(c, err, "Failed to attach invoice")
		return
	}

	logger.Info("Invoice attached to cash session", slog.String("session_id", c.Param("id")), slog.String("invoice_id", inv.ID))
	c.JSON(http.StatusOK, dto.ToInvoiceResponse(inv))
}

// closeSession godoc
// @Summary Close a cash session
// @Description Reconciles the session against the declared amount, closes its closure and settles its paid invoices
// @Tags cash-sessions
// @Accept  json
// @Produce  json
// @Param   id path string true "Session ID"
// @Param   closing body dto.CloseCashSessionRequest true "Declared amount"
// @Success 200 {object} dto.CloseCashSessionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input format or validation error"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "Session not open"
// @Failure 422 {object} dto.ErrorResponse "Open invoices still attached"
// @Security BearerAuth
// @Router /cash-sessions/{id}/close [post]
func (h *cashSessionHandler) closeSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CloseCashSessionRequest
	if !bindJSON(c, &req, "CloseCashSession") {
		return
	}
	operator, ok := operatorID(c)
	if !ok {
		return
	}

	settlement, err := h.cashService.Close(c.Request.Context(), c.Param("id"), req.DeclaredAmount, req.Notes, operator)
	if err != nil {
		respondError(c, err, "Failed to close cash session")
		return
	}

	logger.Info("Cash session closed",
		slog.String("session_id", settlement.Session.ID),
		slog.String("variance", settlement.Closure.Variance.String()),
		slog.Int("reconciled", settlement.ReconciledCount))
	c.JSON(http.StatusOK, dto.ToCloseCashSessionResponse(settlement))
}

// getClosure godoc
// @Summary Get a closure by ID
// @Tags cash-sessions
// @Produce  json
// @Param   id path string true "Closure ID"
// @Success 200 {object} dto.ClosureResponse
// @Failure 404 {object} dto.ErrorResponse "Closure not found"
// @Security BearerAuth
// @Router /closures/{id} [get]
func (h *cashSessionHandler) getClosure(c *gin.Context) {
	closure, err := h.cashService.GetClosure(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get closure")
		return
	}
	c.JSON(http.StatusOK, dto.ToClosureResponse(closure))
}
