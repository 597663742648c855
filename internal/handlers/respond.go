package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
	"github.com/SscSPs/onda_backoffice/internal/dto"
	"github.com/SscSPs/onda_backoffice/internal/middleware"
	"github.com/gin-gonic/gin"
)

// respondError writes err as a dto.ErrorResponse with the status of its kind.
// Server faults are logged at Error level and their details are not leaked.
func respondError(c *gin.Context, err error, msg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	status := apperrors.HTTPStatus(err)
	kind := apperrors.Kind(err)
	_ = c.Error(err)

	if apperrors.IsServerFault(err) {
		logger.Error(msg, slog.String("error", err.Error()), slog.String("kind", kind))
		c.JSON(status, dto.ErrorResponse{Error: msg, Kind: kind})
		return
	}
	logger.Warn(msg, slog.String("error", err.Error()), slog.String("kind", kind))
	c.JSON(status, dto.ErrorResponse{Error: err.Error(), Kind: kind})
}

// bindJSON decodes and validates the request body. It answers 400 itself on failure.
func bindJSON(c *gin.Context, req any, op string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind JSON for "+op, slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request format: " + err.Error(), Kind: "VALIDATION_ERROR"})
		return false
	}
	return true
}

// operatorID returns the authenticated operator. It answers 401 itself when missing.
func operatorID(c *gin.Context) (string, bool) {
	id, ok := middleware.GetOperatorIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Operator ID not found in context")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized", Kind: "UNAUTHORIZED"})
	}
	return id, ok
}

// applyTransition runs a single-record transition addressed by the :id path parameter
// and answers 200 with the updated record.
func applyTransition[T any](c *gin.Context, action string, op func(ctx context.Context, id, actor string) (T, error)) {
	operator, ok := operatorID(c)
	if !ok {
		return
	}
	id := c.Param("id")
	rec, err := op(c.Request.Context(), id, operator)
	if err != nil {
		respondError(c, err, "Failed to "+action)
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Transition applied", slog.String("action", action), slog.String("record_id", id))
	c.JSON(http.StatusOK, rec)
}

// applyNoteTransition is applyTransition for operations that require a note.
func applyNoteTransition[T any](c *gin.Context, action string, op func(ctx context.Context, id, note, actor string) (T, error)) {
	var req dto.NoteRequest
	if !bindJSON(c, &req, action) {
		return
	}
	applyTransition(c, action, func(ctx context.Context, id, actor string) (T, error) {
		return op(ctx, id, req.Note, actor)
	})
}
