package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/models"
)

func newFinalGradeRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sampleFinalGrade() *models.FinalGrade {
	teacherID := "doc-1"
	return &models.FinalGrade{
		PracticeID:          "pr-1",
		StudentID:           "stu-1",
		TeacherID:           &teacherID,
		FinalScore:          5.8,
		Status:              models.FinalGradeStatusCalculated,
		WeeklyLogAverage:    5.8,
		ReportGrade:         6.0,
		SelfAssessmentGrade: 5.5,
		WeeklyLogDetail:     pq.StringArray{"Semana 1: 6.0", "Semana 2: 5.5"},
	}
}

func TestFinalGradeRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newFinalGradeRepoMock(t)
	defer cleanup()

	repo := NewFinalGradeRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notas_finales")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	grade := sampleFinalGrade()
	require.NoError(t, repo.Create(context.Background(), grade))
	require.NotEmpty(t, grade.ID)
	require.False(t, grade.CalculatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalGradeRepositoryCreateUniqueViolation(t *testing.T) {
	db, mock, cleanup := newFinalGradeRepoMock(t)
	defer cleanup()

	repo := NewFinalGradeRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notas_finales")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "notas_finales_practica_id_key"})

	err := repo.Create(context.Background(), sampleFinalGrade())
	require.ErrorIs(t, err, ErrFinalGradeExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalGradeRepositoryFindByPractice(t *testing.T) {
	db, mock, cleanup := newFinalGradeRepoMock(t)
	defer cleanup()

	repo := NewFinalGradeRepository(db)
	rows := sqlmock.NewRows([]string{"id", "practica_id", "id_estudiante", "id_docente", "nota_final", "estado", "promedio_bitacoras", "nota_informe", "nota_autoevaluacion", "detalle_bitacoras", "fecha_calculo"}).
		AddRow("fg-1", "pr-1", "stu-1", "doc-1", 5.8, "calculada", 5.8, 6.0, 5.5, pq.StringArray{"Semana 1: 6.0"}, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, practica_id, id_estudiante")).
		WithArgs("pr-1").
		WillReturnRows(rows)

	grade, err := repo.FindByPractice(context.Background(), "pr-1")
	require.NoError(t, err)
	require.Equal(t, "fg-1", grade.ID)
	require.Equal(t, models.FinalGradeStatusCalculated, grade.Status)
	require.Equal(t, pq.StringArray{"Semana 1: 6.0"}, grade.WeeklyLogDetail)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalGradeRepositoryFindByPracticeNoRows(t *testing.T) {
	db, mock, cleanup := newFinalGradeRepoMock(t)
	defer cleanup()

	repo := NewFinalGradeRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, practica_id, id_estudiante")).
		WithArgs("pr-404").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByPractice(context.Background(), "pr-404")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalGradeRepositoryListAllScopesTeacher(t *testing.T) {
	db, mock, cleanup := newFinalGradeRepoMock(t)
	defer cleanup()

	repo := NewFinalGradeRepository(db)
	rows := sqlmock.NewRows([]string{"id", "practica_id", "id_estudiante", "id_docente", "nota_final", "estado", "promedio_bitacoras", "nota_informe", "nota_autoevaluacion", "detalle_bitacoras", "fecha_calculo"}).
		AddRow("fg-1", "pr-1", "stu-1", "doc-1", 5.8, "calculada", 5.8, 6.0, 5.5, pq.StringArray{}, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id_docente = $1")).
		WithArgs("doc-1").
		WillReturnRows(rows)

	grades, err := repo.ListAll(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, grades, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
