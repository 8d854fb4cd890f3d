package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/service"
	appErrors "github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/errors"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/response"
)

// FinalGradeHandler exposes the final grade pipeline endpoints.
type FinalGradeHandler struct {
	finals *service.FinalGradeService
}

// NewFinalGradeHandler constructs FinalGradeHandler.
func NewFinalGradeHandler(finals *service.FinalGradeService) *FinalGradeHandler {
	return &FinalGradeHandler{finals: finals}
}

// Calculate godoc
// @Summary Calculate and persist the student's final grade
// @Tags FinalGrades
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /notas-finales/calcular [post]
func (h *FinalGradeHandler) Calculate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	grade, err := h.finals.CalculateFinalGrade(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grade)
}

// CheckPrerequisites godoc
// @Summary Check final grade prerequisites without persisting anything
// @Tags FinalGrades
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notas-finales/requisitos [get]
func (h *FinalGradeHandler) CheckPrerequisites(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	status, err := h.finals.ValidatePrerequisites(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// GetMine godoc
// @Summary Get the authenticated student's final grade
// @Tags FinalGrades
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notas-finales/mia [get]
func (h *FinalGradeHandler) GetMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	grade, err := h.finals.GetByStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// GetByPractice godoc
// @Summary Get the final grade of a practice
// @Tags FinalGrades
// @Produce json
// @Param practicaId path string true "Practice ID"
// @Success 200 {object} response.Envelope
// @Router /notas-finales/practica/{practicaId} [get]
func (h *FinalGradeHandler) GetByPractice(c *gin.Context) {
	grade, err := h.finals.GetByPractice(c.Request.Context(), c.Param("practicaId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}
