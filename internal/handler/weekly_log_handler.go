package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/models"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/service"
	appErrors "github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/errors"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/response"
)

// WeeklyLogHandler exposes bitácora endpoints.
type WeeklyLogHandler struct {
	logs *service.WeeklyLogService
}

// NewWeeklyLogHandler constructs WeeklyLogHandler.
func NewWeeklyLogHandler(logs *service.WeeklyLogService) *WeeklyLogHandler {
	return &WeeklyLogHandler{logs: logs}
}

// Create godoc
// @Summary Submit a weekly log
// @Tags WeeklyLogs
// @Accept json
// @Produce json
// @Param payload body service.CreateWeeklyLogRequest true "Weekly log payload"
// @Success 201 {object} response.Envelope
// @Router /bitacoras [post]
func (h *WeeklyLogHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateWeeklyLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	log, err := h.logs.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, log)
}

// List godoc
// @Summary List weekly logs for a practice
// @Tags WeeklyLogs
// @Produce json
// @Param practica query string true "Practice ID"
// @Param estado query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Router /bitacoras [get]
func (h *WeeklyLogHandler) List(c *gin.Context) {
	practiceID := c.Query("practica")
	if practiceID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "practica query parameter required"))
		return
	}
	filter := models.WeeklyLogFilter{PracticeID: practiceID}
	if estado := c.Query("estado"); estado != "" {
		status := models.WeeklyLogStatus(estado)
		filter.Status = &status
	}
	logs, err := h.logs.ListByPractice(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}

// Get godoc
// @Summary Get weekly log detail
// @Tags WeeklyLogs
// @Produce json
// @Param id path string true "Weekly log ID"
// @Success 200 {object} response.Envelope
// @Router /bitacoras/{id} [get]
func (h *WeeklyLogHandler) Get(c *gin.Context) {
	log, err := h.logs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, log, nil)
}

// Review godoc
// @Summary Review a weekly log
// @Tags WeeklyLogs
// @Accept json
// @Produce json
// @Param id path string true "Weekly log ID"
// @Param payload body service.ReviewWeeklyLogRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Router /bitacoras/{id}/revision [patch]
func (h *WeeklyLogHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.ReviewWeeklyLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	log, err := h.logs.Review(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, log, nil)
}

// Delete godoc
// @Summary Delete a weekly log
// @Tags WeeklyLogs
// @Param id path string true "Weekly log ID"
// @Success 204 {object} response.Envelope
// @Router /bitacoras/{id} [delete]
func (h *WeeklyLogHandler) Delete(c *gin.Context) {
	actorID := ""
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}
	if err := h.logs.Delete(c.Request.Context(), c.Param("id"), actorID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
