package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/models"
	appErrors "github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/errors"
)

type evaluationRepository interface {
	Upsert(ctx context.Context, eval *models.Evaluation) error
	FindByDocument(ctx context.Context, documentID string) (*models.Evaluation, error)
}

type evaluationDocumentReader interface {
	FindByID(ctx context.Context, id string) (*models.Document, error)
}

// CreateEvaluationRequest holds payload for grading a document.
type CreateEvaluationRequest struct {
	DocumentID   string              `json:"documento_id" validate:"required,uuid4"`
	DocumentType models.DocumentType `json:"tipo_documento" validate:"required,oneof=informe autoevaluacion"`
	Grade        float64             `json:"nota" validate:"required,gte=1,lte=7"`
	Comment      *string             `json:"comentario"`
}

// EvaluationService handles teacher grading of reports and self-assessments.
type EvaluationService struct {
	repo      evaluationRepository
	documents evaluationDocumentReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEvaluationService constructs the evaluation service.
func NewEvaluationService(repo evaluationRepository, documents evaluationDocumentReader, validate *validator.Validate, logger *zap.Logger) *EvaluationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationService{repo: repo, documents: documents, validator: validate, logger: logger}
}

// Grade records or replaces the evaluation of a document. The declared
// document type must match the stored document.
func (s *EvaluationService) Grade(ctx context.Context, teacherID string, req CreateEvaluationRequest) (*models.Evaluation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}

	doc, err := s.documents.FindByID(ctx, req.DocumentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	if doc.Type != req.DocumentType {
		return nil, appErrors.Clone(appErrors.ErrValidation, "document type mismatch")
	}

	eval := &models.Evaluation{
		DocumentID:   req.DocumentID,
		DocumentType: req.DocumentType,
		Grade:        req.Grade,
		Comment:      req.Comment,
		TeacherID:    teacherID,
	}
	if err := s.repo.Upsert(ctx, eval); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save evaluation")
	}
	s.logger.Info("document evaluated",
		zap.String("document_id", req.DocumentID),
		zap.String("document_type", string(req.DocumentType)),
		zap.Float64("grade", req.Grade),
	)
	return eval, nil
}

// GetByDocument returns the evaluation of a document, if any.
func (s *EvaluationService) GetByDocument(ctx context.Context, documentID string) (*models.Evaluation, error) {
	eval, err := s.repo.FindByDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evaluation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation")
	}
	return eval, nil
}
