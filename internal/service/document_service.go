package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/models"
	appErrors "github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/errors"
)

type documentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, id string) (*models.Document, error)
	FindByPracticeAndType(ctx context.Context, practiceID string, docType models.DocumentType) (*models.Document, error)
	List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error)
	UpdateReview(ctx context.Context, id string, status models.DocumentReviewStatus, grade *float64, comment *string) error
}

type documentPracticeReader interface {
	FindByID(ctx context.Context, id string) (*models.Practice, error)
}

type fileStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Delete(filename string) error
}

// UploadDocumentRequest carries the metadata of a multipart upload.
type UploadDocumentRequest struct {
	PracticeID string              `validate:"required,uuid4"`
	Type       models.DocumentType `validate:"required"`
	Filename   string              `validate:"required"`
	SizeBytes  int64               `validate:"required,gt=0"`
}

// ReviewDocumentRequest holds a teacher's review of a document.
type ReviewDocumentRequest struct {
	Grade   *float64 `json:"nota" validate:"omitempty,gte=1,lte=7"`
	Comment *string  `json:"comentario"`
}

// DocumentService handles practice document uploads and reviews.
type DocumentService struct {
	repo           documentRepository
	practices      documentPracticeReader
	files          fileStore
	maxSizeBytes   int64
	allowedFormats map[string]struct{}
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewDocumentService constructs the document service.
func NewDocumentService(repo documentRepository, practices documentPracticeReader, files fileStore, maxSizeBytes int64, allowedFormats []string, validate *validator.Validate, logger *zap.Logger) *DocumentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	formats := make(map[string]struct{}, len(allowedFormats))
	for _, f := range allowedFormats {
		formats[strings.ToLower(strings.TrimSpace(f))] = struct{}{}
	}
	return &DocumentService{
		repo:           repo,
		practices:      practices,
		files:          files,
		maxSizeBytes:   maxSizeBytes,
		allowedFormats: formats,
		validator:      validate,
		logger:         logger,
	}
}

// Upload stores the file on disk and records its metadata. Each practice may
// hold at most one document per type, except the catch-all "otro" type.
func (s *DocumentService) Upload(ctx context.Context, userID string, req UploadDocumentRequest, content io.Reader) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document payload")
	}
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown document type")
	}
	if req.SizeBytes > s.maxSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d MB limit", s.maxSizeBytes/(1024*1024)))
	}
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(req.Filename), "."))
	if _, ok := s.allowedFormats[format]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file format not allowed")
	}

	practice, err := s.practices.FindByID(ctx, req.PracticeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "practice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load practice")
	}
	if practice.Status == models.PracticeStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "practice is cancelled")
	}

	if req.Type != models.DocumentTypeOther {
		if _, err := s.repo.FindByPracticeAndType(ctx, req.PracticeID, req.Type); err == nil {
			return nil, appErrors.Clone(appErrors.ErrConflict, "document of this type already uploaded")
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing documents")
		}
	}

	storedName := fmt.Sprintf("%s_%s_%d.%s", req.PracticeID, req.Type, time.Now().Unix(), format)
	path, err := s.files.SaveStream(storedName, content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}

	doc := &models.Document{
		ID:           uuid.NewString(),
		PracticeID:   req.PracticeID,
		UserID:       userID,
		Type:         req.Type,
		Filename:     req.Filename,
		StoragePath:  path,
		Format:       format,
		SizeMB:       float64(req.SizeBytes) / (1024 * 1024),
		ReviewStatus: models.DocumentReviewPending,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		if delErr := s.files.Delete(storedName); delErr != nil {
			s.logger.Warn("failed to remove orphan file", zap.String("file", storedName), zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create document")
	}
	return doc, nil
}

// Get returns one document by id.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	return doc, nil
}

// ListByPractice returns the documents of a practice.
func (s *DocumentService) ListByPractice(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error) {
	docs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return docs, nil
}

// Review marks a document as reviewed with an optional grade and comment.
func (s *DocumentService) Review(ctx context.Context, id string, req ReviewDocumentRequest) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	if err := s.repo.UpdateReview(ctx, id, models.DocumentReviewReviewed, req.Grade, req.Comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review document")
	}
	doc.ReviewStatus = models.DocumentReviewReviewed
	doc.Grade = req.Grade
	doc.Comment = req.Comment
	return doc, nil
}
