package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/models"
)

func newWeeklyLogRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestWeeklyLogRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newWeeklyLogRepoMock(t)
	defer cleanup()

	repo := NewWeeklyLogRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bitacoras")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	log := &models.WeeklyLog{
		PracticeID: "pr-1",
		WeekNumber: 1,
		Hours:      20,
		Activities: "actividades de la semana",
		Learnings:  "aprendizajes de la semana",
		Status:     models.WeeklyLogStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), log))
	require.NotEmpty(t, log.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWeeklyLogRepositoryListGradedApproved(t *testing.T) {
	db, mock, cleanup := newWeeklyLogRepoMock(t)
	defer cleanup()

	repo := NewWeeklyLogRepository(db)
	rows := sqlmock.NewRows([]string{"id", "practica_id", "numero_semana", "horas", "actividades", "aprendizajes", "estado", "nota", "comentario", "documento_id", "id_revisor", "created_at", "updated_at"}).
		AddRow("wl-1", "pr-1", 1, 20.0, "a", "b", "aprobada", 6.0, nil, nil, "doc-1", time.Now(), time.Now()).
		AddRow("wl-2", "pr-1", 2, 18.5, "a", "b", "aprobada", 5.5, nil, nil, "doc-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("nota IS NOT NULL ORDER BY numero_semana ASC")).
		WithArgs("pr-1", "aprobada").
		WillReturnRows(rows)

	approved := models.WeeklyLogStatusApproved
	logs, err := repo.List(context.Background(), models.WeeklyLogFilter{
		PracticeID: "pr-1",
		Status:     &approved,
		GradedOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, 1, logs[0].WeekNumber)
	require.Equal(t, 2, logs[1].WeekNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWeeklyLogRepositoryMaxWeekNumberEmpty(t *testing.T) {
	db, mock, cleanup := newWeeklyLogRepoMock(t)
	defer cleanup()

	repo := NewWeeklyLogRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(MAX(numero_semana), 0)")).
		WithArgs("pr-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

	week, err := repo.MaxWeekNumber(context.Background(), "pr-1")
	require.NoError(t, err)
	require.Equal(t, 0, week)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWeeklyLogRepositoryCountApprovedGraded(t *testing.T) {
	db, mock, cleanup := newWeeklyLogRepoMock(t)
	defer cleanup()

	repo := NewWeeklyLogRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bitacoras")).
		WithArgs("pr-1", "aprobada").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountApprovedGraded(context.Background(), "pr-1")
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWeeklyLogRepositoryUpdateReview(t *testing.T) {
	db, mock, cleanup := newWeeklyLogRepoMock(t)
	defer cleanup()

	repo := NewWeeklyLogRepository(db)
	grade := 6.5
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bitacoras SET estado")).
		WithArgs("wl-1", "aprobada", grade, nil, "doc-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateReview(context.Background(), "wl-1", models.WeeklyLogStatusApproved, &grade, nil, "doc-1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWeeklyLogRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newWeeklyLogRepoMock(t)
	defer cleanup()

	repo := NewWeeklyLogRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bitacoras")).
		WithArgs("wl-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "wl-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
