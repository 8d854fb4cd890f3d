package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/models"
	appErrors "github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/errors"
)

type mockPracticeRepo struct {
	practices map[string]*models.Practice
	nextID    int
}

func (m *mockPracticeRepo) Create(ctx context.Context, practice *models.Practice) error {
	if m.practices == nil {
		m.practices = make(map[string]*models.Practice)
	}
	m.nextID++
	practice.ID = "pr-" + string(rune('0'+m.nextID))
	m.practices[practice.ID] = practice
	return nil
}

func (m *mockPracticeRepo) FindByID(ctx context.Context, id string) (*models.Practice, error) {
	if p, ok := m.practices[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPracticeRepo) FindOpenByStudent(ctx context.Context, studentID string) (*models.Practice, error) {
	for _, p := range m.practices {
		if p.StudentID == studentID && !p.Status.Terminal() {
			return p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockPracticeRepo) List(ctx context.Context, filter models.PracticeFilter) ([]models.Practice, int, error) {
	var result []models.Practice
	for _, p := range m.practices {
		result = append(result, *p)
	}
	return result, len(result), nil
}

func (m *mockPracticeRepo) UpdateStatus(ctx context.Context, id string, status models.PracticeStatus) error {
	m.practices[id].Status = status
	return nil
}

func (m *mockPracticeRepo) AssignTeacher(ctx context.Context, id, teacherID string) error {
	m.practices[id].TeacherID = &teacherID
	return nil
}

type mockUserReader struct {
	users map[string]*models.User
}

func (m *mockUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

type mockAuditWriter struct {
	entries []models.AuditLog
}

func (m *mockAuditWriter) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.entries = append(m.entries, *log)
	return nil
}

const (
	testStudentID = "aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee"
	testTeacherID = "bbbbbbbb-cccc-4ddd-8eee-ffffffffffff"
)

func newPracticeFixture() (*PracticeService, *mockPracticeRepo, *mockAuditWriter) {
	repo := &mockPracticeRepo{}
	users := &mockUserReader{users: map[string]*models.User{
		testStudentID: {ID: testStudentID, Role: models.RoleStudent, Active: true},
		testTeacherID: {ID: testTeacherID, Role: models.RoleTeacher, Active: true},
	}}
	audit := &mockAuditWriter{}
	svc := NewPracticeService(repo, users, audit, nil, nil, nil)
	return svc, repo, audit
}

func validPracticeRequest() CreatePracticeRequest {
	return CreatePracticeRequest{
		StudentID:     testStudentID,
		Company:       "Acme Ltda",
		StartDate:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		TotalHours:    320,
		DurationWeeks: 12,
	}
}

func TestPracticeCreateSuccess(t *testing.T) {
	svc, repo, _ := newPracticeFixture()

	practice, err := svc.Create(context.Background(), validPracticeRequest())
	require.NoError(t, err)
	assert.Equal(t, models.PracticeStatusActive, practice.Status)
	assert.Len(t, repo.practices, 1)
}

func TestPracticeCreateRejectsSecondOpenPractice(t *testing.T) {
	svc, _, _ := newPracticeFixture()
	_, err := svc.Create(context.Background(), validPracticeRequest())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validPracticeRequest())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "student already has an open practice", appErr.Message)
}

func TestPracticeCreateRejectsInvertedDates(t *testing.T) {
	svc, _, _ := newPracticeFixture()
	req := validPracticeRequest()
	req.StartDate, req.EndDate = req.EndDate, req.StartDate

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPracticeCreateRejectsNonStudent(t *testing.T) {
	svc, _, _ := newPracticeFixture()
	req := validPracticeRequest()
	req.StudentID = testTeacherID

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, "user is not a student", appErrors.FromError(err).Message)
}

func TestPracticeStatusTransitions(t *testing.T) {
	svc, repo, audit := newPracticeFixture()
	created, err := svc.Create(context.Background(), validPracticeRequest())
	require.NoError(t, err)

	// activa -> finalizada is not a legal jump
	_, err = svc.UpdateStatus(context.Background(), created.ID, UpdatePracticeStatusRequest{Status: models.PracticeStatusFinished}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, "invalid status transition", appErrors.FromError(err).Message)

	_, err = svc.UpdateStatus(context.Background(), created.ID, UpdatePracticeStatusRequest{Status: models.PracticeStatusInProgress}, "admin-1")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), created.ID, UpdatePracticeStatusRequest{Status: models.PracticeStatusFinished}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.PracticeStatusFinished, repo.practices[created.ID].Status)
	assert.Len(t, audit.entries, 2)

	// terminal states are immutable
	_, err = svc.UpdateStatus(context.Background(), created.ID, UpdatePracticeStatusRequest{Status: models.PracticeStatusInProgress}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestPracticeCancelFromAnyOpenState(t *testing.T) {
	svc, repo, _ := newPracticeFixture()
	created, err := svc.Create(context.Background(), validPracticeRequest())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), created.ID, UpdatePracticeStatusRequest{Status: models.PracticeStatusCancelled}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.PracticeStatusCancelled, repo.practices[created.ID].Status)
}

func TestPracticeAssignTeacher(t *testing.T) {
	svc, repo, _ := newPracticeFixture()
	created, err := svc.Create(context.Background(), validPracticeRequest())
	require.NoError(t, err)

	updated, err := svc.AssignTeacher(context.Background(), created.ID, AssignTeacherRequest{TeacherID: testTeacherID})
	require.NoError(t, err)
	require.NotNil(t, updated.TeacherID)
	assert.Equal(t, testTeacherID, *updated.TeacherID)
	assert.Equal(t, testTeacherID, *repo.practices[created.ID].TeacherID)
}

func TestPracticeAssignTeacherRejectsStudent(t *testing.T) {
	svc, _, _ := newPracticeFixture()
	created, err := svc.Create(context.Background(), validPracticeRequest())
	require.NoError(t, err)

	_, err = svc.AssignTeacher(context.Background(), created.ID, AssignTeacherRequest{TeacherID: testStudentID})
	require.Error(t, err)
	assert.Equal(t, "user is not a teacher", appErrors.FromError(err).Message)
}

func TestPracticeGetCurrentForStudent(t *testing.T) {
	svc, _, _ := newPracticeFixture()
	_, err := svc.GetCurrentForStudent(context.Background(), testStudentID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	created, err := svc.Create(context.Background(), validPracticeRequest())
	require.NoError(t, err)

	current, err := svc.GetCurrentForStudent(context.Background(), testStudentID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, current.ID)
}
