package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/onda_backoffice/internal/core/ports/services"
	"github.com/SscSPs/onda_backoffice/internal/dto"
	"github.com/SscSPs/onda_backoffice/internal/middleware"
	"github.com/gin-gonic/gin"
)

type sequenceHandler struct {
	sequenceService portssvc.SequenceSvcFacade
}

// registerSequenceRoutes registers routes related to fiscal sequences.
func registerSequenceRoutes(rg *gin.RouterGroup, sequenceService portssvc.SequenceSvcFacade) {
	h := &sequenceHandler{sequenceService: sequenceService}

	sequences := rg.Group("/fiscal-sequences")
	{
		sequences.POST("", h.createSequence)
		sequences.POST("/reserve", h.reserveNumber)
		sequences.GET("/:id", h.getSequence)
		sequences.PUT("/:id/deactivate", h.deactivateSequence)
	}
}

// createSequence godoc
// @Summary Register a fiscal sequence
// @Description Registers a numbering range granted by the tax authority
// @Tags fiscal-sequences
// @Accept  json
// @Produce  json
// @Param   sequence body dto.CreateSequenceRequest true "Range details"
// @Success 201 {object} domain.FiscalSequence
// @Failure 400 {object} dto.ErrorResponse "Invalid input format or validation error"
// @Failure 409 {object} dto.ErrorResponse "Overlaps an active range"
// @Security BearerAuth
// @Router /fiscal-sequences [post]
func (h *sequenceHandler) createSequence(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateSequenceRequest
	if !bindJSON(c, &req, "CreateSequence") {
		return
	}
	operator, ok := operatorID(c)
	if !ok {
		return
	}

	seq, err := h.sequenceService.CreateSequence(c.Request.Context(), req, operator)
	if err != nil {
		respondError(c, err, "Failed to create fiscal sequence")
		return
	}

	logger.Info("Fiscal sequence created",
		slog.String("sequence_id", seq.ID),
		slog.String("type_code", seq.TypeCode),
		slog.Int64("range_start", seq.RangeStart),
		slog.Int64("range_end", seq.RangeEnd))
	c.JSON(http.StatusCreated, seq)
}

// getSequence godoc
// @Summary Get a fiscal sequence by ID
// @Tags fiscal-sequences
// @Produce  json
// @Param   id path string true "Sequence ID"
// @Success 200 {object} domain.FiscalSequence
// @Failure 404 {object} dto.ErrorResponse "Sequence not found"
// @Security BearerAuth
// @Router /fiscal-sequences/{id} [get]
func (h *sequenceHandler) getSequence(c *gin.Context) {
	seq, err := h.sequenceService.GetSequence(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get fiscal sequence")
		return
	}
	c.JSON(http.StatusOK, seq)
}

// deactivateSequence godoc
// @Summary Deactivate a fiscal sequence
// @Tags fiscal-sequences
// @Produce  json
// @Param   id path string true "Sequence ID"
// @Success 200 {object} domain.FiscalSequence
// @Failure 404 {object} dto.ErrorResponse "Sequence not found"
// @Security BearerAuth
// @Router /fiscal-sequences/{id}/deactivate [put]
func (h *sequenceHandler) deactivateSequence(c *gin.Context) {
	operator, ok := operatorID(c)
	if !ok {
		return
	}
	seq, err := h.sequenceService.DeactivateSequence(c.Request.Context(), c.Param("id"), operator)
	if err != nil {
		respondError(c, err, "Failed to deactivate fiscal sequence")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Fiscal sequence deactivated", slog.String("sequence_id", seq.ID))
	c.JSON(http.StatusOK, seq)
}

// reserveNumber godoc
// @Summary Reserve a fiscal number
// @Description Issues the next fiscal number of a document type outside of any payment
// @Tags fiscal-sequences
// @Accept  json
// @Produce  json
// @Param   reservation body dto.ReserveNumberRequest true "Document type"
// @Success 200 {object} domain.FiscalReservation
// @Failure 400 {object} dto.ErrorResponse "Invalid input format or validation error"
// @Failure 503 {object} dto.ErrorResponse "No usable range left"
// @Security BearerAuth
// @Router /fiscal-sequences/reserve [post]
func (h *sequenceHandler) reserveNumber(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ReserveNumberRequest
	if !bindJSON(c, &req, "ReserveNumber") {
		return
	}

	res, err := h.sequenceService.ReserveNumber(c.Request.Context(), req.TypeCode)
	if err != nil {
		respondError(c, err, "Failed to reserve fiscal number")
		return
	}

	if res.LowCapacity {
		logger.Warn("Fiscal range close to exhaustion", slog.String("type_code", res.TypeCode), slog.Int64("remaining", res.Remaining))
	}
	c.JSON(http.StatusOK, res)
}
