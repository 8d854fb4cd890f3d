package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/models"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/service"
	appErrors "github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/errors"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/response"
)

// DocumentHandler exposes practice document endpoints.
type DocumentHandler struct {
	documents *service.DocumentService
}

// NewDocumentHandler constructs DocumentHandler.
func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Upload godoc
// @Summary Upload a practice document
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param practica_id formData string true "Practice ID"
// @Param tipo formData string true "Document type"
// @Param archivo formData file true "File"
// @Success 201 {object} response.Envelope
// @Router /documentos [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	fileHeader, err := c.FormFile("archivo")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "archivo file field required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close()

	req := service.UploadDocumentRequest{
		PracticeID: c.PostForm("practica_id"),
		Type:       models.DocumentType(c.PostForm("tipo")),
		Filename:   fileHeader.Filename,
		SizeBytes:  fileHeader.Size,
	}
	doc, err := h.documents.Upload(c.Request.Context(), claims.UserID, req, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// List godoc
// @Summary List documents for a practice
// @Tags Documents
// @Produce json
// @Param practica query string true "Practice ID"
// @Param tipo query string false "Filter by type"
// @Success 200 {object} response.Envelope
// @Router /documentos [get]
func (h *DocumentHandler) List(c *gin.Context) {
	practiceID := c.Query("practica")
	if practiceID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "practica query parameter required"))
		return
	}
	filter := models.DocumentFilter{PracticeID: practiceID}
	if tipo := c.Query("tipo"); tipo != "" {
		docType := models.DocumentType(tipo)
		filter.Type = &docType
	}
	docs, err := h.documents.ListByPractice(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, nil)
}

// Get godoc
// @Summary Get document metadata
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documentos/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// Review godoc
// @Summary Review a document
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body service.ReviewDocumentRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Router /documentos/{id}/revision [patch]
func (h *DocumentHandler) Review(c *gin.Context) {
	var req service.ReviewDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	doc, err := h.documents.Review(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}
