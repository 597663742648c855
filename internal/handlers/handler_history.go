package handlers

import (
	"net/http"

	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	portssvc "github.com/SscSPs/onda_backoffice/internal/core/ports/services"
	"github.com/SscSPs/onda_backoffice/internal/dto"
	"github.com/gin-gonic/gin"
)

type historyHandler struct {
	history portssvc.HistorySvc
}

func registerHistoryRoutes(rg *gin.RouterGroup, history portssvc.HistorySvc) {
	h := &historyHandler{history: history}
	rg.GET("/history/:kind/:id", h.getHistory)
}

// getHistory godoc
// @Summary Get the transition log of a record
// @Tags history
// @Produce  json
// @Param   kind path string true "Record kind" Enums(REGISTRATION_REQUEST, COMPANY_REQUEST, INSPECTION_CASE, LEGAL_CASE, COMPLAINT, INVOICE, CASH_SESSION, CLOSURE)
// @Param   id path string true "Record ID"
// @Success 200 {array} domain.StateTransition
// @Failure 400 {object} dto.ErrorResponse "Unknown record kind"
// @Security BearerAuth
// @Router /history/{kind}/{id} [get]
func (h *historyHandler) getHistory(c *gin.Context) {
	kind := domain.Kind(c.Param("kind"))
	if !kind.IsValid() {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "unknown record kind " + kind.String(), Kind: "VALIDATION_ERROR"})
		return
	}

	history, err := h.history.GetHistory(c.Request.Context(), kind, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get history")
		return
	}
	if history == nil {
		history = []domain.StateTransition{}
	}
	c.JSON(http.StatusOK, history)
}
