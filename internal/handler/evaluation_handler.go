package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pedago-hub/campus-api/internal/service"
	appErrors "github.com/pedago-hub/campus-api/pkg/errors"
	"github.com/pedago-hub/campus-api/pkg/response"
)

// EvaluationHandler wires HTTP endpoints to the evaluation service.
type EvaluationHandler struct {
	service *service.EvaluationService
}

// NewEvaluationHandler creates a new handler.
func NewEvaluationHandler(svc *service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{service: svc}
}

// Evaluate godoc
// @Summary Grade a submission
// @Description Record the one-shot evaluation of a submission
// @Tags Evaluations
// @Accept json
// @Produce json
// @Param payload body service.EvaluateRequest true "Evaluation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /evaluations [post]
func (h *EvaluationHandler) Evaluate(c *gin.Context) {
	var req service.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid evaluation payload"))
		return
	}

	res, err := h.service.Evaluate(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// ListForAssignment godoc
// @Summary List evaluations of an assignment
// @Description List every recorded evaluation for an assignment
// @Tags Evaluations
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /assignments/{id}/evaluations [get]
func (h *EvaluationHandler) ListForAssignment(c *gin.Context) {
	res, err := h.service.ListForAssignment(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}
