package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/models"
	appErrors "github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/errors"
)

type mockWeeklyLogRepo struct {
	logs    map[string]*models.WeeklyLog
	deleted []string
	nextID  int
}

func (m *mockWeeklyLogRepo) Create(ctx context.Context, log *models.WeeklyLog) error {
	if m.logs == nil {
		m.logs = make(map[string]*models.WeeklyLog)
	}
	m.nextID++
	log.ID = "wl-" + string(rune('0'+m.nextID))
	m.logs[log.ID] = log
	return nil
}

func (m *mockWeeklyLogRepo) FindByID(ctx context.Context, id string) (*models.WeeklyLog, error) {
	if l, ok := m.logs[id]; ok {
		return l, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockWeeklyLogRepo) List(ctx context.Context, filter models.WeeklyLogFilter) ([]models.WeeklyLog, error) {
	var result []models.WeeklyLog
	for _, l := range m.logs {
		if l.PracticeID == filter.PracticeID {
			result = append(result, *l)
		}
	}
	return result, nil
}

func (m *mockWeeklyLogRepo) MaxWeekNumber(ctx context.Context, practiceID string) (int, error) {
	max := 0
	for _, l := range m.logs {
		if l.PracticeID == practiceID && l.WeekNumber > max {
			max = l.WeekNumber
		}
	}
	return max, nil
}

func (m *mockWeeklyLogRepo) UpdateReview(ctx context.Context, id string, status models.WeeklyLogStatus, grade *float64, comment *string, reviewerID string) error {
	l := m.logs[id]
	l.Status = status
	l.Grade = grade
	l.Comment = comment
	l.ReviewerID = &reviewerID
	return nil
}

func (m *mockWeeklyLogRepo) Delete(ctx context.Context, id string) error {
	delete(m.logs, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type stubPracticeByID struct {
	practice *models.Practice
}

func (m *stubPracticeByID) FindByID(ctx context.Context, id string) (*models.Practice, error) {
	if m.practice == nil || m.practice.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.practice, nil
}

func validLogRequest() CreateWeeklyLogRequest {
	return CreateWeeklyLogRequest{
		PracticeID: "11111111-2222-4333-8444-555555555555",
		WeekNumber: 1,
		Hours:      20,
		Activities: strings.Repeat("desarrollo de modulo de reportes ", 3),
		Learnings:  strings.Repeat("aprendi sobre sqlx y gin ", 2),
	}
}

func newWeeklyLogFixture() (*WeeklyLogService, *mockWeeklyLogRepo, *stubPracticeByID) {
	repo := &mockWeeklyLogRepo{}
	practices := &stubPracticeByID{practice: &models.Practice{
		ID:            "11111111-2222-4333-8444-555555555555",
		StudentID:     "stu-1",
		Status:        models.PracticeStatusInProgress,
		DurationWeeks: 12,
	}}
	svc := NewWeeklyLogService(repo, practices, nil, nil, nil)
	return svc, repo, practices
}

func TestWeeklyLogCreateSuccess(t *testing.T) {
	svc, repo, _ := newWeeklyLogFixture()

	log, err := svc.Create(context.Background(), "stu-1", validLogRequest())
	require.NoError(t, err)
	assert.Equal(t, models.WeeklyLogStatusPending, log.Status)
	assert.Equal(t, 1, log.WeekNumber)
	assert.Len(t, repo.logs, 1)
}

func TestWeeklyLogCreateForeignPractice(t *testing.T) {
	svc, _, _ := newWeeklyLogFixture()

	_, err := svc.Create(context.Background(), "stu-2", validLogRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestWeeklyLogCreateFinishedPractice(t *testing.T) {
	svc, _, practices := newWeeklyLogFixture()
	practices.practice.Status = models.PracticeStatusFinished

	_, err := svc.Create(context.Background(), "stu-1", validLogRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestWeeklyLogCreateReportsAllContentProblems(t *testing.T) {
	svc, _, _ := newWeeklyLogFixture()
	req := validLogRequest()
	req.Hours = 12.25
	req.Activities = "corto"
	req.Learnings = "poco"

	_, err := svc.Create(context.Background(), "stu-1", req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "half-hour increments")
	assert.Contains(t, appErr.Message, "activities")
	assert.Contains(t, appErr.Message, "learnings")
}

func TestWeeklyLogCreateWeekSequence(t *testing.T) {
	svc, _, _ := newWeeklyLogFixture()

	first := validLogRequest()
	first.WeekNumber = 3
	_, err := svc.Create(context.Background(), "stu-1", first)
	require.NoError(t, err)

	// repeating or going back in time is rejected
	repeat := validLogRequest()
	repeat.WeekNumber = 3
	_, err = svc.Create(context.Background(), "stu-1", repeat)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "greater than 3")

	// skipping more than the allowed gap is rejected
	skipped := validLogRequest()
	skipped.WeekNumber = 9
	_, err = svc.Create(context.Background(), "stu-1", skipped)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "skip")

	// within the gap is accepted
	next := validLogRequest()
	next.WeekNumber = 8
	_, err = svc.Create(context.Background(), "stu-1", next)
	require.NoError(t, err)
}

func TestWeeklyLogCreateWeekBeyondDuration(t *testing.T) {
	svc, _, practices := newWeeklyLogFixture()
	practices.practice.DurationWeeks = 4
	req := validLogRequest()
	req.WeekNumber = 5

	_, err := svc.Create(context.Background(), "stu-1", req)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "between 1 and 4")
}

func TestWeeklyLogCreateHoursBounds(t *testing.T) {
	svc, _, _ := newWeeklyLogFixture()

	req := validLogRequest()
	req.Hours = 41
	_, err := svc.Create(context.Background(), "stu-1", req)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "between 1 and 40")

	ok := validLogRequest()
	ok.Hours = 39.5
	_, err = svc.Create(context.Background(), "stu-1", ok)
	require.NoError(t, err)
}

func TestWeeklyLogReviewApproveRequiresGrade(t *testing.T) {
	svc, repo, _ := newWeeklyLogFixture()
	log := &models.WeeklyLog{ID: "wl-1", PracticeID: "pr-1", Status: models.WeeklyLogStatusPending}
	repo.logs = map[string]*models.WeeklyLog{"wl-1": log}

	_, err := svc.Review(context.Background(), "wl-1", ReviewWeeklyLogRequest{Status: models.WeeklyLogStatusApproved}, "doc-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestWeeklyLogReviewRejectRequiresComment(t *testing.T) {
	svc, repo, _ := newWeeklyLogFixture()
	repo.logs = map[string]*models.WeeklyLog{"wl-1": {ID: "wl-1", Status: models.WeeklyLogStatusPending}}

	_, err := svc.Review(context.Background(), "wl-1", ReviewWeeklyLogRequest{Status: models.WeeklyLogStatusRejected}, "doc-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestWeeklyLogReviewApprove(t *testing.T) {
	svc, repo, _ := newWeeklyLogFixture()
	repo.logs = map[string]*models.WeeklyLog{"wl-1": {ID: "wl-1", Status: models.WeeklyLogStatusPending}}
	grade := 6.5

	log, err := svc.Review(context.Background(), "wl-1", ReviewWeeklyLogRequest{Status: models.WeeklyLogStatusApproved, Grade: &grade}, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, models.WeeklyLogStatusApproved, log.Status)
	require.NotNil(t, log.Grade)
	assert.Equal(t, 6.5, *log.Grade)
	require.NotNil(t, log.ReviewerID)
	assert.Equal(t, "doc-1", *log.ReviewerID)
}

func TestWeeklyLogReviewAlreadyApproved(t *testing.T) {
	svc, repo, _ := newWeeklyLogFixture()
	grade := 6.0
	repo.logs = map[string]*models.WeeklyLog{"wl-1": {ID: "wl-1", Status: models.WeeklyLogStatusApproved, Grade: &grade}}

	_, err := svc.Review(context.Background(), "wl-1", ReviewWeeklyLogRequest{Status: models.WeeklyLogStatusApproved, Grade: &grade}, "doc-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestWeeklyLogDelete(t *testing.T) {
	svc, repo, _ := newWeeklyLogFixture()
	repo.logs = map[string]*models.WeeklyLog{"wl-1": {ID: "wl-1", PracticeID: "pr-1", WeekNumber: 2}}

	err := svc.Delete(context.Background(), "wl-1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"wl-1"}, repo.deleted)

	err = svc.Delete(context.Background(), "wl-1", "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
