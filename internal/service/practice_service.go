package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/models"
	appErrors "github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/errors"
)

type practiceRepository interface {
	Create(ctx context.Context, practice *models.Practice) error
	FindByID(ctx context.Context, id string) (*models.Practice, error)
	FindOpenByStudent(ctx context.Context, studentID string) (*models.Practice, error)
	List(ctx context.Context, filter models.PracticeFilter) ([]models.Practice, int, error)
	UpdateStatus(ctx context.Context, id string, status models.PracticeStatus) error
	AssignTeacher(ctx context.Context, id, teacherID string) error
}

type practiceUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreatePracticeRequest holds payload for registering an internship.
type CreatePracticeRequest struct {
	StudentID     string    `json:"id_estudiante" validate:"required,uuid4"`
	Company       string    `json:"empresa" validate:"required,min=2"`
	Description   *string   `json:"descripcion"`
	StartDate     time.Time `json:"fecha_inicio" validate:"required"`
	EndDate       time.Time `json:"fecha_termino" validate:"required"`
	TotalHours    float64   `json:"horas_totales" validate:"required,gt=0"`
	DurationWeeks int       `json:"duracion_semanas" validate:"required,min=1,max=20"`
}

// UpdatePracticeStatusRequest holds payload for a lifecycle transition.
type UpdatePracticeStatusRequest struct {
	Status models.PracticeStatus `json:"estado" validate:"required"`
}

// AssignTeacherRequest holds payload for assigning a supervising teacher.
type AssignTeacherRequest struct {
	TeacherID string `json:"id_docente" validate:"required,uuid4"`
}

// PracticeService handles internship lifecycle use-cases.
type PracticeService struct {
	repo      practiceRepository
	users     practiceUserReader
	audit     auditWriter
	cache     resultCache
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPracticeService constructs the practice service. cache may be nil.
func NewPracticeService(repo practiceRepository, users practiceUserReader, audit auditWriter, cache resultCache, validate *validator.Validate, logger *zap.Logger) *PracticeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PracticeService{repo: repo, users: users, audit: audit, cache: cache, validator: validate, logger: logger}
}

// Create registers a new internship for a student. A student may hold at most
// one non-terminal practice at a time.
func (s *PracticeService) Create(ctx context.Context, req CreatePracticeRequest) (*models.Practice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid practice payload")
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must be after start date")
	}

	student, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user is not a student")
	}

	if _, err := s.repo.FindOpenByStudent(ctx, req.StudentID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already has an open practice")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check open practices")
	}

	practice := &models.Practice{
		StudentID:     req.StudentID,
		Company:       req.Company,
		Description:   req.Description,
		Status:        models.PracticeStatusActive,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		TotalHours:    req.TotalHours,
		DurationWeeks: req.DurationWeeks,
	}
	if err := s.repo.Create(ctx, practice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create practice")
	}
	s.invalidateListCache(ctx)
	return practice, nil
}

// Get returns one practice by id.
func (s *PracticeService) Get(ctx context.Context, id string) (*models.Practice, error) {
	practice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "practice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load practice")
	}
	return practice, nil
}

// GetCurrentForStudent returns the student's open practice.
func (s *PracticeService) GetCurrentForStudent(ctx context.Context, studentID string) (*models.Practice, error) {
	practice, err := s.repo.FindOpenByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no open practice")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load practice")
	}
	return practice, nil
}

// List returns practices and pagination metadata.
func (s *PracticeService) List(ctx context.Context, filter models.PracticeFilter) ([]models.Practice, *models.Pagination, error) {
	practices, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list practices")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return practices, pagination, nil
}

// UpdateStatus applies a lifecycle transition. Terminal states are immutable
// and every transition must follow the allowed graph.
func (s *PracticeService) UpdateStatus(ctx context.Context, id string, req UpdatePracticeStatusRequest, actorID string) (*models.Practice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown practice status")
	}

	practice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "practice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load practice")
	}
	if practice.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "practice is in a terminal state")
	}
	if !allowedTransition(practice.Status, req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid status transition")
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update practice status")
	}
	s.writeAudit(ctx, actorID, models.AuditActionPracticeState, id, string(practice.Status)+" -> "+string(req.Status))
	s.invalidateListCache(ctx)

	practice.Status = req.Status
	return practice, nil
}

// AssignTeacher links a supervising teacher to the practice.
func (s *PracticeService) AssignTeacher(ctx context.Context, id string, req AssignTeacherRequest) (*models.Practice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	practice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "practice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load practice")
	}
	if practice.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "practice is in a terminal state")
	}

	teacher, err := s.users.FindByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if teacher.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user is not a teacher")
	}

	if err := s.repo.AssignTeacher(ctx, id, req.TeacherID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign teacher")
	}
	s.invalidateListCache(ctx)

	practice.TeacherID = &teacher.ID
	return practice, nil
}

// allowedTransition encodes the practice lifecycle graph. Cancellation is
// reachable from any non-terminal state.
func allowedTransition(from, to models.PracticeStatus) bool {
	if to == models.PracticeStatusCancelled {
		return true
	}
	switch from {
	case models.PracticeStatusActive:
		return to == models.PracticeStatusInProgress
	case models.PracticeStatusInProgress:
		return to == models.PracticeStatusPendingReview || to == models.PracticeStatusFinished
	case models.PracticeStatusPendingReview:
		return to == models.PracticeStatusFinished || to == models.PracticeStatusInProgress
	default:
		return false
	}
}

func (s *PracticeService) writeAudit(ctx context.Context, actorID, action, entityID, detail string) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "practica",
		ResourceID: &entityID,
		NewValues:  []byte(`{"change":"` + detail + `"}`),
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *PracticeService) invalidateListCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "practices:*"); err != nil {
		s.logger.Warn("failed to invalidate practice cache", zap.Error(err))
	}
}
