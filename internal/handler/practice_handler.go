package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/models"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/service"
	appErrors "github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/errors"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/response"
)

// PracticeHandler exposes internship endpoints.
type PracticeHandler struct {
	practices *service.PracticeService
}

// NewPracticeHandler constructs PracticeHandler.
func NewPracticeHandler(practices *service.PracticeService) *PracticeHandler {
	return &PracticeHandler{practices: practices}
}

// List godoc
// @Summary List practices
// @Tags Practices
// @Produce json
// @Param estudiante query string false "Filter by student"
// @Param docente query string false "Filter by teacher"
// @Param estado query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /practicas [get]
func (h *PracticeHandler) List(c *gin.Context) {
	var filter models.PracticeFilter
	filter.StudentID = c.Query("estudiante")
	filter.TeacherID = c.Query("docente")
	if estado := c.Query("estado"); estado != "" {
		status := models.PracticeStatus(estado)
		filter.Status = &status
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	practices, pagination, err := h.practices.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, practices, pagination)
}

// Get godoc
// @Summary Get practice detail
// @Tags Practices
// @Produce json
// @Param id path string true "Practice ID"
// @Success 200 {object} response.Envelope
// @Router /practicas/{id} [get]
func (h *PracticeHandler) Get(c *gin.Context) {
	practice, err := h.practices.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, practice, nil)
}

// GetMine godoc
// @Summary Get current student's open practice
// @Tags Practices
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /practicas/mia [get]
func (h *PracticeHandler) GetMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	practice, err := h.practices.GetCurrentForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, practice, nil)
}

// Create godoc
// @Summary Register a practice
// @Tags Practices
// @Accept json
// @Produce json
// @Param payload body service.CreatePracticeRequest true "Practice payload"
// @Success 201 {object} response.Envelope
// @Router /practicas [post]
func (h *PracticeHandler) Create(c *gin.Context) {
	var req service.CreatePracticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims != nil && claims.Role == models.RoleStudent {
		// students register for themselves
		req.StudentID = claims.UserID
	}
	practice, err := h.practices.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, practice)
}

// UpdateStatus godoc
// @Summary Transition practice lifecycle state
// @Tags Practices
// @Accept json
// @Produce json
// @Param id path string true "Practice ID"
// @Param payload body service.UpdatePracticeStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /practicas/{id}/estado [patch]
func (h *PracticeHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdatePracticeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	actorID := ""
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}
	practice, err := h.practices.UpdateStatus(c.Request.Context(), c.Param("id"), req, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, practice, nil)
}

// AssignTeacher godoc
// @Summary Assign supervising teacher
// @Tags Practices
// @Accept json
// @Produce json
// @Param id path string true "Practice ID"
// @Param payload body service.AssignTeacherRequest true "Teacher payload"
// @Success 200 {object} response.Envelope
// @Router /practicas/{id}/docente [patch]
func (h *PracticeHandler) AssignTeacher(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.AssignTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	// teachers can only assign themselves
	if claims.Role == models.RoleTeacher {
		req.TeacherID = claims.UserID
	}
	practice, err := h.practices.AssignTeacher(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, practice, nil)
}
