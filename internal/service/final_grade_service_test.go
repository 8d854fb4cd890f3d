package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/models"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/repository"
	appErrors "github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/errors"
)

type stubPracticeReader struct {
	practices map[string]*models.Practice
}

func (m *stubPracticeReader) FindByStudentAndStatus(ctx context.Context, studentID string, status models.PracticeStatus) (*models.Practice, error) {
	p, ok := m.practices[studentID]
	if !ok || p.Status != status {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

type stubLogReader struct {
	logs []models.WeeklyLog
}

func (m *stubLogReader) List(ctx context.Context, filter models.WeeklyLogFilter) ([]models.WeeklyLog, error) {
	var result []models.WeeklyLog
	for _, l := range m.logs {
		if l.PracticeID != filter.PracticeID {
			continue
		}
		if filter.Status != nil && l.Status != *filter.Status {
			continue
		}
		if filter.GradedOnly && l.Grade == nil {
			continue
		}
		result = append(result, l)
	}
	return result, nil
}

func (m *stubLogReader) CountApprovedGraded(ctx context.Context, practiceID string) (int, error) {
	count := 0
	for _, l := range m.logs {
		if l.PracticeID == practiceID && l.Status == models.WeeklyLogStatusApproved && l.Grade != nil {
			count++
		}
	}
	return count, nil
}

type stubDocumentReader struct {
	docs map[string]*models.Document
}

func docKey(practiceID string, docType models.DocumentType) string {
	return practiceID + "/" + string(docType)
}

func (m *stubDocumentReader) FindByPracticeAndType(ctx context.Context, practiceID string, docType models.DocumentType) (*models.Document, error) {
	if d, ok := m.docs[docKey(practiceID, docType)]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

type stubEvaluationReader struct {
	evals map[string]*models.Evaluation
}

func (m *stubEvaluationReader) FindByDocument(ctx context.Context, documentID string) (*models.Evaluation, error) {
	if e, ok := m.evals[documentID]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

type stubFinalGradeStore struct {
	grades    map[string]*models.FinalGrade
	createErr error
}

func (m *stubFinalGradeStore) Create(ctx context.Context, grade *models.FinalGrade) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.grades == nil {
		m.grades = make(map[string]*models.FinalGrade)
	}
	if _, ok := m.grades[grade.PracticeID]; ok {
		return repository.ErrFinalGradeExists
	}
	grade.ID = "fg-" + grade.PracticeID
	m.grades[grade.PracticeID] = grade
	return nil
}

func (m *stubFinalGradeStore) FindByPractice(ctx context.Context, practiceID string) (*models.FinalGrade, error) {
	if g, ok := m.grades[practiceID]; ok {
		return g, nil
	}
	return nil, sql.ErrNoRows
}

func (m *stubFinalGradeStore) FindByStudent(ctx context.Context, studentID string) (*models.FinalGrade, error) {
	for _, g := range m.grades {
		if g.StudentID == studentID {
			return g, nil
		}
	}
	return nil, sql.ErrNoRows
}

func gradedLog(practiceID string, week int, grade float64) models.WeeklyLog {
	g := grade
	return models.WeeklyLog{
		ID:         "wl",
		PracticeID: practiceID,
		WeekNumber: week,
		Status:     models.WeeklyLogStatusApproved,
		Grade:      &g,
	}
}

func reviewedDoc(practiceID string, docType models.DocumentType, id string) *models.Document {
	return &models.Document{
		ID:           id,
		PracticeID:   practiceID,
		Type:         docType,
		ReviewStatus: models.DocumentReviewReviewed,
	}
}

type finalGradeFixture struct {
	practices *stubPracticeReader
	logs      *stubLogReader
	docs      *stubDocumentReader
	evals     *stubEvaluationReader
	finals    *stubFinalGradeStore
	service   *FinalGradeService
}

func newFinalGradeFixture() *finalGradeFixture {
	teacherID := "doc-1"
	f := &finalGradeFixture{
		practices: &stubPracticeReader{practices: map[string]*models.Practice{
			"stu-1": {
				ID:        "pr-1",
				StudentID: "stu-1",
				TeacherID: &teacherID,
				Status:    models.PracticeStatusFinished,
			},
		}},
		logs: &stubLogReader{logs: []models.WeeklyLog{
			gradedLog("pr-1", 1, 6.0),
			gradedLog("pr-1", 2, 5.0),
			gradedLog("pr-1", 3, 6.5),
		}},
		docs: &stubDocumentReader{docs: map[string]*models.Document{
			docKey("pr-1", models.DocumentTypeReport):         reviewedDoc("pr-1", models.DocumentTypeReport, "doc-informe"),
			docKey("pr-1", models.DocumentTypeSelfAssessment): reviewedDoc("pr-1", models.DocumentTypeSelfAssessment, "doc-auto"),
		}},
		evals: &stubEvaluationReader{evals: map[string]*models.Evaluation{
			"doc-informe": {ID: "ev-1", DocumentID: "doc-informe", DocumentType: models.DocumentTypeReport, Grade: 6.0},
			"doc-auto":    {ID: "ev-2", DocumentID: "doc-auto", DocumentType: models.DocumentTypeSelfAssessment, Grade: 5.5},
		}},
		finals: &stubFinalGradeStore{},
	}
	f.service = NewFinalGradeService(f.practices, f.logs, f.docs, f.evals, f.finals, nil, 0, nil)
	return f
}

func TestComputeFinalScore(t *testing.T) {
	cases := []struct {
		name     string
		logs     float64
		report   float64
		self     float64
		expected float64
	}{
		{"weighted average", 6.0, 6.0, 6.0, 6.0},
		{"mixed grades", 5.0, 6.0, 7.0, 5.7},
		{"rounds half up", 5.5, 6.0, 6.5, 5.9},
		{"rounds 5.95 up to 6.0", 5.9, 6.0, 6.0, 6.0},
		{"clamps at lower bound", 1.0, 1.0, 1.0, 1.0},
		{"clamps at upper bound", 7.0, 7.0, 7.0, 7.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, ComputeFinalScore(tc.logs, tc.report, tc.self), 1e-9)
		})
	}
}

func TestComputeFinalScoreOrderIndependentAverage(t *testing.T) {
	// The weekly log average itself is computed by the caller; the formula
	// must give identical results for equal inputs.
	a := ComputeFinalScore((6.0+5.0+6.5)/3, 6.0, 5.5)
	b := ComputeFinalScore((6.5+6.0+5.0)/3, 6.0, 5.5)
	assert.Equal(t, a, b)
}

func TestCalculateFinalGradeHappyPath(t *testing.T) {
	f := newFinalGradeFixture()

	grade, err := f.service.CalculateFinalGrade(context.Background(), "stu-1")
	require.NoError(t, err)

	// avg = (6.0+5.0+6.5)/3 = 5.8333 -> stored rounded to 5.8
	// raw = 5.8333*0.5 + 6.0*0.3 + 5.5*0.2 = 5.8167 -> 5.8
	assert.Equal(t, "pr-1", grade.PracticeID)
	assert.Equal(t, "stu-1", grade.StudentID)
	require.NotNil(t, grade.TeacherID)
	assert.Equal(t, "doc-1", *grade.TeacherID)
	assert.Equal(t, models.FinalGradeStatusCalculated, grade.Status)
	assert.InDelta(t, 5.8, grade.WeeklyLogAverage, 1e-9)
	assert.InDelta(t, 6.0, grade.ReportGrade, 1e-9)
	assert.InDelta(t, 5.5, grade.SelfAssessmentGrade, 1e-9)
	assert.InDelta(t, 5.8, grade.FinalScore, 1e-9)
	assert.Equal(t, []string{"Semana 1: 6.0", "Semana 2: 5.0", "Semana 3: 6.5"}, []string(grade.WeeklyLogDetail))
	assert.False(t, grade.CalculatedAt.IsZero())

	stored, err := f.finals.FindByPractice(context.Background(), "pr-1")
	require.NoError(t, err)
	assert.Equal(t, grade.FinalScore, stored.FinalScore)
}

func TestCalculateFinalGradeRoundsBoundaryUpward(t *testing.T) {
	f := newFinalGradeFixture()
	f.logs.logs = []models.WeeklyLog{
		gradedLog("pr-1", 1, 5.0),
		gradedLog("pr-1", 2, 6.0),
		gradedLog("pr-1", 3, 7.0),
	}
	f.evals.evals["doc-informe"].Grade = 5.5
	f.evals.evals["doc-auto"].Grade = 6.5

	grade, err := f.service.CalculateFinalGrade(context.Background(), "stu-1")
	require.NoError(t, err)

	// avg = (5.0+6.0+7.0)/3 = 6.0; raw = 6.0*0.5 + 5.5*0.3 + 6.5*0.2 = 5.95 -> 6.0
	assert.InDelta(t, 6.0, grade.WeeklyLogAverage, 1e-9)
	assert.InDelta(t, 5.5, grade.ReportGrade, 1e-9)
	assert.InDelta(t, 6.5, grade.SelfAssessmentGrade, 1e-9)
	assert.InDelta(t, 6.0, grade.FinalScore, 1e-9)
}

func TestCalculateFinalGradeNoFinishedPractice(t *testing.T) {
	f := newFinalGradeFixture()
	f.practices.practices["stu-1"].Status = models.PracticeStatusInProgress

	_, err := f.service.CalculateFinalGrade(context.Background(), "stu-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Equal(t, "no finished practice", appErr.Message)
}

func TestCalculateFinalGradeAlreadyExists(t *testing.T) {
	f := newFinalGradeFixture()
	_, err := f.service.CalculateFinalGrade(context.Background(), "stu-1")
	require.NoError(t, err)

	_, err = f.service.CalculateFinalGrade(context.Background(), "stu-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "final grade already exists", appErr.Message)
}

func TestCalculateFinalGradeLostInsertRace(t *testing.T) {
	f := newFinalGradeFixture()
	// The pre-check passes but a concurrent insert wins; the unique
	// constraint violation must surface as the same business conflict.
	f.finals.createErr = repository.ErrFinalGradeExists

	_, err := f.service.CalculateFinalGrade(context.Background(), "stu-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "final grade already exists", appErr.Message)
}

func TestCalculateFinalGradeNoApprovedGradedLogs(t *testing.T) {
	f := newFinalGradeFixture()
	for i := range f.logs.logs {
		f.logs.logs[i].Status = models.WeeklyLogStatusPending
	}

	_, err := f.service.CalculateFinalGrade(context.Background(), "stu-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Equal(t, "no approved graded weekly logs", appErr.Message)
}

func TestCalculateFinalGradeIgnoresUngradedApprovedLogs(t *testing.T) {
	f := newFinalGradeFixture()
	f.logs.logs = append(f.logs.logs, models.WeeklyLog{
		PracticeID: "pr-1",
		WeekNumber: 4,
		Status:     models.WeeklyLogStatusApproved,
	})

	grade, err := f.service.CalculateFinalGrade(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Len(t, grade.WeeklyLogDetail, 3)
}

func TestCalculateFinalGradeUnreviewedReport(t *testing.T) {
	f := newFinalGradeFixture()
	f.docs.docs[docKey("pr-1", models.DocumentTypeReport)].ReviewStatus = models.DocumentReviewPending

	_, err := f.service.CalculateFinalGrade(context.Background(), "stu-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Equal(t, "missing reviewed report or self-assessment", appErr.Message)
}

func TestCalculateFinalGradeMissingSelfAssessmentDocument(t *testing.T) {
	f := newFinalGradeFixture()
	delete(f.docs.docs, docKey("pr-1", models.DocumentTypeSelfAssessment))

	_, err := f.service.CalculateFinalGrade(context.Background(), "stu-1")
	require.Error(t, err)
	assert.Equal(t, "missing reviewed report or self-assessment", appErrors.FromError(err).Message)
}

func TestCalculateFinalGradeMissingReportEvaluation(t *testing.T) {
	f := newFinalGradeFixture()
	delete(f.evals.evals, "doc-informe")

	_, err := f.service.CalculateFinalGrade(context.Background(), "stu-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Equal(t, "missing evaluation for report", appErr.Message)
}

func TestCalculateFinalGradeMissingSelfAssessmentEvaluation(t *testing.T) {
	f := newFinalGradeFixture()
	delete(f.evals.evals, "doc-auto")

	_, err := f.service.CalculateFinalGrade(context.Background(), "stu-1")
	require.Error(t, err)
	assert.Equal(t, "missing evaluation for self-assessment", appErrors.FromError(err).Message)
}

func TestValidatePrerequisitesSuccess(t *testing.T) {
	f := newFinalGradeFixture()

	status, err := f.service.ValidatePrerequisites(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "pr-1", status.PracticeID)
	assert.Equal(t, 3, status.ApprovedGradedLogs)
	assert.True(t, status.ReportEvaluated)
	assert.True(t, status.SelfAssessmentEvaluated)
}

func TestValidatePrerequisitesNoGradedLogs(t *testing.T) {
	f := newFinalGradeFixture()
	f.logs.logs = nil

	_, err := f.service.ValidatePrerequisites(context.Background(), "stu-1")
	require.Error(t, err)
	assert.Equal(t, "no graded approved weekly logs", appErrors.FromError(err).Message)
}

func TestValidatePrerequisitesMissingDocument(t *testing.T) {
	f := newFinalGradeFixture()
	delete(f.docs.docs, docKey("pr-1", models.DocumentTypeReport))

	_, err := f.service.ValidatePrerequisites(context.Background(), "stu-1")
	require.Error(t, err)
	assert.Equal(t, "missing report or self-assessment", appErrors.FromError(err).Message)
}

func TestValidatePrerequisitesDoesNotPersist(t *testing.T) {
	f := newFinalGradeFixture()

	_, err := f.service.ValidatePrerequisites(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Empty(t, f.finals.grades)
}

func TestGetByStudentNotCalculated(t *testing.T) {
	f := newFinalGradeFixture()

	_, err := f.service.GetByStudent(context.Background(), "stu-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "final grade not calculated", appErr.Message)
}

func TestGetByStudentReturnsPersistedGrade(t *testing.T) {
	f := newFinalGradeFixture()
	_, err := f.service.CalculateFinalGrade(context.Background(), "stu-1")
	require.NoError(t, err)

	grade, err := f.service.GetByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "pr-1", grade.PracticeID)
}
