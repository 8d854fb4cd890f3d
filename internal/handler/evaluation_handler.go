package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/service"
	appErrors "github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/errors"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/response"
)

// EvaluationHandler exposes document grading endpoints.
type EvaluationHandler struct {
	evaluations *service.EvaluationService
}

// NewEvaluationHandler constructs EvaluationHandler.
func NewEvaluationHandler(evaluations *service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluations: evaluations}
}

// Create godoc
// @Summary Grade a practice document
// @Tags Evaluations
// @Accept json
// @Produce json
// @Param payload body service.CreateEvaluationRequest true "Evaluation payload"
// @Success 201 {object} response.Envelope
// @Router /evaluaciones [post]
func (h *EvaluationHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	eval, err := h.evaluations.Grade(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, eval)
}

// GetByDocument godoc
// @Summary Get the evaluation of a document
// @Tags Evaluations
// @Produce json
// @Param documentoId path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /evaluaciones/documento/{documentoId} [get]
func (h *EvaluationHandler) GetByDocument(c *gin.Context) {
	eval, err := h.evaluations.GetByDocument(c.Request.Context(), c.Param("documentoId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, eval, nil)
}
