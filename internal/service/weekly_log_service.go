package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/models"
	appErrors "github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/errors"
)

type weeklyLogRepository interface {
	Create(ctx context.Context, log *models.WeeklyLog) error
	FindByID(ctx context.Context, id string) (*models.WeeklyLog, error)
	List(ctx context.Context, filter models.WeeklyLogFilter) ([]models.WeeklyLog, error)
	MaxWeekNumber(ctx context.Context, practiceID string) (int, error)
	UpdateReview(ctx context.Context, id string, status models.WeeklyLogStatus, grade *float64, comment *string, reviewerID string) error
	Delete(ctx context.Context, id string) error
}

type weeklyLogPracticeReader interface {
	FindByID(ctx context.Context, id string) (*models.Practice, error)
}

// CreateWeeklyLogRequest holds payload for submitting a bitácora entry.
type CreateWeeklyLogRequest struct {
	PracticeID string  `json:"practica_id" validate:"required,uuid4"`
	WeekNumber int     `json:"numero_semana" validate:"required"`
	Hours      float64 `json:"horas" validate:"required"`
	Activities string  `json:"actividades" validate:"required"`
	Learnings  string  `json:"aprendizajes" validate:"required"`
	DocumentID *string `json:"documento_id" validate:"omitempty,uuid4"`
}

// ReviewWeeklyLogRequest holds payload for a teacher's review decision.
type ReviewWeeklyLogRequest struct {
	Status  models.WeeklyLogStatus `json:"estado" validate:"required,oneof=aprobada rechazada"`
	Grade   *float64               `json:"nota" validate:"omitempty,gte=1,lte=7"`
	Comment *string                `json:"comentario"`
}

// WeeklyLogService handles bitácora submission and review.
type WeeklyLogService struct {
	repo      weeklyLogRepository
	practices weeklyLogPracticeReader
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWeeklyLogService constructs the weekly log service.
func NewWeeklyLogService(repo weeklyLogRepository, practices weeklyLogPracticeReader, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *WeeklyLogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeeklyLogService{repo: repo, practices: practices, audit: audit, validator: validate, logger: logger}
}

// Create validates and stores a bitácora entry. Content rules are checked
// together so the student sees every problem in one response.
func (s *WeeklyLogService) Create(ctx context.Context, studentID string, req CreateWeeklyLogRequest) (*models.WeeklyLog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid weekly log payload")
	}

	practice, err := s.practices.FindByID(ctx, req.PracticeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "practice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load practice")
	}
	if practice.StudentID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "practice belongs to another student")
	}
	if practice.Status != models.PracticeStatusActive && practice.Status != models.PracticeStatusInProgress {
		return nil, appErrors.Clone(appErrors.ErrConflict, "practice does not accept weekly logs")
	}

	lastWeek, err := s.repo.MaxWeekNumber(ctx, req.PracticeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve last week number")
	}

	if problems := validateWeeklyLogContent(req, practice.DurationWeeks, lastWeek); len(problems) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, strings.Join(problems, "; "))
	}

	log := &models.WeeklyLog{
		PracticeID: req.PracticeID,
		WeekNumber: req.WeekNumber,
		Hours:      req.Hours,
		Activities: strings.TrimSpace(req.Activities),
		Learnings:  strings.TrimSpace(req.Learnings),
		Status:     models.WeeklyLogStatusPending,
		DocumentID: req.DocumentID,
	}
	if err := s.repo.Create(ctx, log); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create weekly log")
	}
	return log, nil
}

// validateWeeklyLogContent applies every submission rule and reports all
// violations at once.
func validateWeeklyLogContent(req CreateWeeklyLogRequest, durationWeeks, lastWeek int) []string {
	var problems []string

	maxWeek := models.WeeklyLogMaxWeek
	if durationWeeks > 0 && durationWeeks < maxWeek {
		maxWeek = durationWeeks
	}
	switch {
	case req.WeekNumber < models.WeeklyLogMinWeek || req.WeekNumber > maxWeek:
		problems = append(problems, fmt.Sprintf("week number must be between %d and %d", models.WeeklyLogMinWeek, maxWeek))
	case req.WeekNumber <= lastWeek:
		problems = append(problems, fmt.Sprintf("week number must be greater than %d", lastWeek))
	case lastWeek > 0 && req.WeekNumber-lastWeek > models.WeeklyLogMaxWeekGap:
		problems = append(problems, fmt.Sprintf("week number may not skip more than %d weeks", models.WeeklyLogMaxWeekGap))
	}

	if req.Hours < models.WeeklyLogMinHours || req.Hours > models.WeeklyLogMaxHours {
		problems = append(problems, fmt.Sprintf("hours must be between %.0f and %.0f", models.WeeklyLogMinHours, models.WeeklyLogMaxHours))
	} else if !isHalfHourIncrement(req.Hours) {
		problems = append(problems, "hours must be in half-hour increments")
	}

	if significantLength(req.Activities) < models.WeeklyLogMinActivities {
		problems = append(problems, fmt.Sprintf("activities must contain at least %d significant characters", models.WeeklyLogMinActivities))
	}
	if significantLength(req.Learnings) < models.WeeklyLogMinLearnings {
		problems = append(problems, fmt.Sprintf("learnings must contain at least %d significant characters", models.WeeklyLogMinLearnings))
	}
	return problems
}

func isHalfHourIncrement(hours float64) bool {
	scaled := hours / models.WeeklyLogHoursIncrement
	return math.Abs(scaled-math.Round(scaled)) < 1e-9
}

// significantLength counts non-whitespace runes.
func significantLength(s string) int {
	count := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			count++
		}
	}
	return count
}

// Get returns one weekly log.
func (s *WeeklyLogService) Get(ctx context.Context, id string) (*models.WeeklyLog, error) {
	log, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "weekly log not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly log")
	}
	return log, nil
}

// ListByPractice returns a practice's weekly logs ordered by week number.
func (s *WeeklyLogService) ListByPractice(ctx context.Context, filter models.WeeklyLogFilter) ([]models.WeeklyLog, error) {
	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list weekly logs")
	}
	return logs, nil
}

// Review records a teacher's decision on a bitácora entry. Approval requires
// a grade, rejection requires a comment.
func (s *WeeklyLogService) Review(ctx context.Context, id string, req ReviewWeeklyLogRequest, reviewerID string) (*models.WeeklyLog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	if req.Status == models.WeeklyLogStatusApproved && req.Grade == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "approval requires a grade")
	}
	if req.Status == models.WeeklyLogStatusRejected && (req.Comment == nil || strings.TrimSpace(*req.Comment) == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection requires a comment")
	}

	log, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "weekly log not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly log")
	}
	if log.Status == models.WeeklyLogStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "weekly log already approved")
	}

	if err := s.repo.UpdateReview(ctx, id, req.Status, req.Grade, req.Comment, reviewerID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review weekly log")
	}

	log.Status = req.Status
	log.Grade = req.Grade
	log.Comment = req.Comment
	log.ReviewerID = &reviewerID
	return log, nil
}

// Delete removes a weekly log entry and leaves an audit trail.
func (s *WeeklyLogService) Delete(ctx context.Context, id, actorID string) error {
	log, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "weekly log not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly log")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete weekly log")
	}
	if s.audit != nil {
		entry := &models.AuditLog{
			UserID:     &actorID,
			Action:     models.AuditActionWeeklyLogDelete,
			Resource:   "bitacora",
			ResourceID: &id,
			OldValues:  []byte(fmt.Sprintf(`{"practica_id":%q,"numero_semana":%d}`, log.PracticeID, log.WeekNumber)),
		}
		if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("failed to write audit log", zap.Error(err))
		}
	}
	return nil
}
