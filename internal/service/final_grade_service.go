package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/models"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/repository"
	appErrors "github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/errors"
)

// Weights of the three sub-scores in the final grade formula.
const (
	WeightWeeklyLogs     = 0.5
	WeightReport         = 0.3
	WeightSelfAssessment = 0.2
)

type finalGradePracticeReader interface {
	FindByStudentAndStatus(ctx context.Context, studentID string, status models.PracticeStatus) (*models.Practice, error)
}

type finalGradeLogReader interface {
	List(ctx context.Context, filter models.WeeklyLogFilter) ([]models.WeeklyLog, error)
	CountApprovedGraded(ctx context.Context, practiceID string) (int, error)
}

type finalGradeDocumentReader interface {
	FindByPracticeAndType(ctx context.Context, practiceID string, docType models.DocumentType) (*models.Document, error)
}

type finalGradeEvaluationReader interface {
	FindByDocument(ctx context.Context, documentID string) (*models.Evaluation, error)
}

type finalGradeStore interface {
	Create(ctx context.Context, grade *models.FinalGrade) error
	FindByPractice(ctx context.Context, practiceID string) (*models.FinalGrade, error)
	FindByStudent(ctx context.Context, studentID string) (*models.FinalGrade, error)
}

// FinalGradeService validates prerequisites and computes the single final
// grade for a finished practice.
type FinalGradeService struct {
	practices   finalGradePracticeReader
	logs        finalGradeLogReader
	documents   finalGradeDocumentReader
	evaluations finalGradeEvaluationReader
	finals      finalGradeStore
	cache       resultCache
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewFinalGradeService constructs the service. cache may be nil.
func NewFinalGradeService(practices finalGradePracticeReader, logs finalGradeLogReader, documents finalGradeDocumentReader, evaluations finalGradeEvaluationReader, finals finalGradeStore, cache resultCache, cacheTTL time.Duration, logger *zap.Logger) *FinalGradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &FinalGradeService{
		practices:   practices,
		logs:        logs,
		documents:   documents,
		evaluations: evaluations,
		finals:      finals,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// ComputeFinalScore combines the three weighted sub-scores into the final
// score, rounded half-up to one decimal and clamped to [1.0, 7.0]. Pure and
// total over finite inputs.
func ComputeFinalScore(weeklyLogAverage, reportGrade, selfAssessmentGrade float64) float64 {
	raw := weeklyLogAverage*WeightWeeklyLogs + reportGrade*WeightReport + selfAssessmentGrade*WeightSelfAssessment
	rounded := roundHalfUp1(raw)
	if rounded < models.GradeMin {
		return models.GradeMin
	}
	if rounded > models.GradeMax {
		return models.GradeMax
	}
	return rounded
}

// roundHalfUp1 rounds to one decimal, half up. All grades are positive, so
// this matches half-away-from-zero.
func roundHalfUp1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

// ValidatePrerequisites checks, without side effects, whether a final grade
// may be computed for the student. Every failure is a structured business
// error carrying a specific reason, never a server error.
func (s *FinalGradeService) ValidatePrerequisites(ctx context.Context, studentID string) (*models.PrerequisiteStatus, error) {
	practice, err := s.practices.FindByStudentAndStatus(ctx, studentID, models.PracticeStatusFinished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no finished practice")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load practice")
	}

	count, err := s.logs.CountApprovedGraded(ctx, practice.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count weekly logs")
	}
	if count == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no graded approved weekly logs")
	}

	report, err := s.findDocument(ctx, practice.ID, models.DocumentTypeReport)
	if err != nil {
		return nil, err
	}
	selfAssessment, err := s.findDocument(ctx, practice.ID, models.DocumentTypeSelfAssessment)
	if err != nil {
		return nil, err
	}
	if report == nil || selfAssessment == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "missing report or self-assessment")
	}

	if _, err := s.findEvaluation(ctx, report.ID, "missing evaluation for report"); err != nil {
		return nil, err
	}
	if _, err := s.findEvaluation(ctx, selfAssessment.ID, "missing evaluation for self-assessment"); err != nil {
		return nil, err
	}

	return &models.PrerequisiteStatus{
		PracticeID:              practice.ID,
		ApprovedGradedLogs:      count,
		ReportEvaluated:         true,
		SelfAssessmentEvaluated: true,
	}, nil
}

// CalculateFinalGrade runs the full compute-and-persist workflow for the
// student: prerequisite checks, weighted formula, then exactly one insert.
func (s *FinalGradeService) CalculateFinalGrade(ctx context.Context, studentID string) (*models.FinalGrade, error) {
	practice, err := s.practices.FindByStudentAndStatus(ctx, studentID, models.PracticeStatusFinished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no finished practice")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load practice")
	}

	if _, err := s.finals.FindByPractice(ctx, practice.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "final grade already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check final grade")
	}

	approved := models.WeeklyLogStatusApproved
	logs, err := s.logs.List(ctx, models.WeeklyLogFilter{PracticeID: practice.ID, Status: &approved, GradedOnly: true})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly logs")
	}
	if len(logs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no approved graded weekly logs")
	}

	sum := 0.0
	detail := make([]string, 0, len(logs))
	for _, log := range logs {
		sum += *log.Grade
		detail = append(detail, fmt.Sprintf("Semana %d: %.1f", log.WeekNumber, *log.Grade))
	}
	average := sum / float64(len(logs))

	report, err := s.findReviewedDocument(ctx, practice.ID, models.DocumentTypeReport)
	if err != nil {
		return nil, err
	}
	selfAssessment, err := s.findReviewedDocument(ctx, practice.ID, models.DocumentTypeSelfAssessment)
	if err != nil {
		return nil, err
	}
	if report == nil || selfAssessment == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "missing reviewed report or self-assessment")
	}

	reportEval, err := s.findEvaluation(ctx, report.ID, "missing evaluation for report")
	if err != nil {
		return nil, err
	}
	selfEval, err := s.findEvaluation(ctx, selfAssessment.ID, "missing evaluation for self-assessment")
	if err != nil {
		return nil, err
	}

	finalScore := ComputeFinalScore(average, reportEval.Grade, selfEval.Grade)

	grade := &models.FinalGrade{
		PracticeID:          practice.ID,
		StudentID:           practice.StudentID,
		TeacherID:           practice.TeacherID,
		FinalScore:          finalScore,
		Status:              models.FinalGradeStatusCalculated,
		WeeklyLogAverage:    roundHalfUp1(average),
		ReportGrade:         reportEval.Grade,
		SelfAssessmentGrade: selfEval.Grade,
		WeeklyLogDetail:     detail,
		CalculatedAt:        time.Now().UTC(),
	}
	if err := s.finals.Create(ctx, grade); err != nil {
		if errors.Is(err, repository.ErrFinalGradeExists) {
			// A concurrent caller won the insert race; surface the same
			// business error as the pre-check.
			return nil, appErrors.Clone(appErrors.ErrConflict, "final grade already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist final grade")
	}

	s.invalidateCache(ctx, practice.ID, practice.StudentID)
	s.logger.Info("final grade calculated",
		zap.String("practice_id", practice.ID),
		zap.String("student_id", practice.StudentID),
		zap.Float64("final_score", finalScore),
	)
	return grade, nil
}

// GetByStudent returns the student's computed final grade, using the cache
// when configured.
func (s *FinalGradeService) GetByStudent(ctx context.Context, studentID string) (*models.FinalGrade, error) {
	if s.cache != nil {
		var cached models.FinalGrade
		if err := s.cache.Get(ctx, finalGradeStudentKey(studentID), &cached); err == nil {
			return &cached, nil
		}
	}
	grade, err := s.finals.FindByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "final grade not calculated")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load final grade")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, finalGradeStudentKey(studentID), grade, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache final grade", zap.Error(err))
		}
	}
	return grade, nil
}

// GetByPractice returns the computed final grade for a practice.
func (s *FinalGradeService) GetByPractice(ctx context.Context, practiceID string) (*models.FinalGrade, error) {
	grade, err := s.finals.FindByPractice(ctx, practiceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "final grade not calculated")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load final grade")
	}
	return grade, nil
}

func (s *FinalGradeService) findDocument(ctx context.Context, practiceID string, docType models.DocumentType) (*models.Document, error) {
	doc, err := s.documents.FindByPracticeAndType(ctx, practiceID, docType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	return doc, nil
}

func (s *FinalGradeService) findReviewedDocument(ctx context.Context, practiceID string, docType models.DocumentType) (*models.Document, error) {
	doc, err := s.findDocument(ctx, practiceID, docType)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.ReviewStatus != models.DocumentReviewReviewed {
		return nil, nil
	}
	return doc, nil
}

func (s *FinalGradeService) findEvaluation(ctx context.Context, documentID, missingReason string) (*models.Evaluation, error) {
	eval, err := s.evaluations.FindByDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, missingReason)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation")
	}
	return eval, nil
}

func (s *FinalGradeService) invalidateCache(ctx context.Context, practiceID, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "final_grade:*"); err != nil {
		s.logger.Warn("failed to invalidate final grade cache",
			zap.String("practice_id", practiceID),
			zap.String("student_id", studentID),
			zap.Error(err),
		)
	}
}

func finalGradeStudentKey(studentID string) string {
	return "final_grade:student:" + studentID
}
