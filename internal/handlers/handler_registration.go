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

// registrationHandler handles the copyright registration pipeline.
type registrationHandler struct {
	workflow portssvc.RegistrationWorkflowSvc
}

// registerRegistrationRoutes registers routes related to copyright registration requests.
func registerRegistrationRoutes(rg *gin.RouterGroup, workflow portssvc.RegistrationWorkflowSvc) {
	h := &registrationHandler{workflow: workflow}

	requests := rg.Group("/registration-requests")
	{
		requests.POST("", h.createRequest)
		requests.GET("/:id", h.getRequest)
		requests.DELETE("/:id", h.deleteRequest)
		requests.POST("/:id/submit-to-registry", h.submitToRegistry)
		requests.POST("/:id/return", h.returnForCorrection)
		requests.POST("/:id/correct-and-resubmit", h.correctAndResubmit)
		requests.POST("/:id/register", h.register)
		requests.POST("/:id/certify", h.certify)
		requests.POST("/:id/deliver", h.deliver)
	}
}

// createRequest godoc
// @Summary File a copyright registration request
// @Tags registration-requests
// @Accept  json
// @Produce  json
// @Param   request body dto.CreateRegistrationRequest true "Applicant and work"
// @Success 201 {object} domain.RegistrationRequest
// @Failure 400 {object} dto.ErrorResponse "Invalid input format or validation error"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /registration-requests [post]
func (h *registrationHandler) createRequest(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateRegistrationRequest
	if !bindJSON(c, &req, "CreateRegistrationRequest") {
		return
	}
	operator, ok := operatorID(c)
	if !ok {
		return
	}

	created, err := h.workflow.CreateRegistrationRequest(c.Request.Context(), req, operator)
	if err != nil {
		respondError(c, err, "Failed to create registration request")
		return
	}

	logger.Info("Registration request created", slog.String("request_id", created.ID), slog.String("code", created.Code))
	c.JSON(http.StatusCreated, created)
}

// getRequest godoc
// @Summary Get a registration request by ID
// @Tags registration-requests
// @Produce  json
// @Param   id path string true "Request ID"
// @Success 200 {object} domain.RegistrationRequest
// @Failure 404 {object} dto.ErrorResponse "Request not found"
// @Security BearerAuth
// @Router /registration-requests/{id} [get]
func (h *registrationHandler) getRequest(c *gin.Context) {
	req, err := h.workflow.GetRegistrationRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get registration request")
		return
	}
	c.JSON(http.StatusOK, req)
}

// deleteRequest godoc
// @Summary Delete a registration request
// @Description Only pending requests that were never billed can be deleted
// @Tags registration-requests
// @Param   id path string true "Request ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse "Request not found"
// @Failure 409 {object} dto.ErrorResponse "Request is no longer pending"
// @Failure 422 {object} dto.ErrorResponse "Request has been billed"
// @Security BearerAuth
// @Router /registration-requests/{id} [delete]
func (h *registrationHandler) deleteRequest(c *gin.Context) {
	operator, ok := operatorID(c)
	if !ok {
		return
	}
	if err := h.workflow.DeleteRegistrationRequest(c.Request.Context(), c.Param("id"), operator); err != nil {
		respondError(c, err, "Failed to delete registration request")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Registration request deleted", slog.String("request_id", c.Param("id")))
	c.Status(http.StatusNoContent)
}

// submitToRegistry godoc
// @Summary Submit a paid request for review
// @Tags registration-requests
// @Produce  json
// @Param   id path string true "Request ID"
// @Success 200 {object} domain.RegistrationRequest
// @Failure 404 {object} dto.ErrorResponse "Request not found"
// @Failure 409 {object} dto.ErrorResponse "Request is not paid"
// @Security BearerAuth
// @Router /registration-requests/{id}/submit-to-registry [post]
func (h *registrationHandler) submitToRegistry(c *gin.Context) {
	applyTransition(c, "submit to registry", h.workflow.SubmitToRegistry)
}

// returnForCorrection godoc
// @Summary Return a request to the applicant
// @Tags registration-requests
// @Accept  json
// @Produce  json
// @Param   id path string true "Request ID"
// @Param   note body dto.NoteRequest true "Reason"
// @Success 200 {object} domain.RegistrationRequest
// @Failure 400 {object} dto.ErrorResponse "Note is required"
// @Failure 409 {object} dto.ErrorResponse "Request is not under review"
// @Security BearerAuth
// @Router /registration-requests/{id}/return [post]
func (h *registrationHandler) returnForCorrection(c *gin.Context) {
	applyNoteTransition(c, "return for correction", h.workflow.ReturnForCorrection)
}

// correctAndResubmit godoc
// @Summary Resubmit a corrected request
// @Tags registration-requests
// @Produce  json
// @Param   id path string true "Request ID"
// @Success 200 {object} domain.RegistrationRequest
// @Failure 409 {object} dto.ErrorResponse "Request was not returned"
// @Security BearerAuth
// @Router /registration-requests/{id}/correct-and-resubmit [post]
func (h *registrationHandler) correctAndResubmit(c *gin.Context) {
	applyTransition(c, "correct and resubmit", h.workflow.CorrectAndResubmit)
}

// register godoc
// @Summary Register the work
// @Description Assigns the registration number of the request
// @Tags registration-requests
// @Produce  json
// @Param   id path string true "Request ID"
// @Success 200 {object} domain.RegistrationRequest
// @Failure 409 {object} dto.ErrorResponse "Request is not under review"
// @Security BearerAuth
// @Router /registration-requests/{id}/register [post]
func (h *registrationHandler) register(c *gin.Context) {
	applyTransition(c, "register", h.workflow.Register)
}

// certify godoc
// @Summary Attach the registration certificate
// @Tags registration-requests
// @Accept  json
// @Produce  json
// @Param   id path string true "Request ID"
// @Param   file body dto.FileRefRequest true "Certificate file"
// @Success 200 {object} domain.RegistrationRequest
// @Failure 400 {object} dto.ErrorResponse "File reference is required"
// @Failure 409 {object} dto.ErrorResponse "Request is not registered"
// @Security BearerAuth
// @Router /registration-requests/{id}/certify [post]
func (h *registrationHandler) certify(c *gin.Context) {
	var req dto.FileRefRequest
	if !bindJSON(c, &req, "Certify") {
		return
	}
	applyTransition(c, "certify", func(ctx context.Context, id, actor string) (*domain.RegistrationRequest, error) {
		return h.workflow.Certify(ctx, id, req.FileRef, actor)
	})
}

// deliver godoc
// @Summary Deliver the certificate to the applicant
// @Tags registration-requests
// @Produce  json
// @Param   id path string true "Request ID"
// @Success 200 {object} domain.RegistrationRequest
// @Failure 409 {object} dto.ErrorResponse "Request is not certified"
// @Security BearerAuth
// @Router /registration-requests/{id}/deliver [post]
func (h *registrationHandler) deliver(c *gin.Context) {
	applyTransition(c, "deliver registration", h.workflow.DeliverRegistration)
}
