package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/models"
)

// ErrFinalGradeExists reports a violation of the one-final-grade-per-practice
// constraint. The notas_finales table carries UNIQUE(practica_id), so a losing
// concurrent writer gets this error instead of producing a duplicate row.
var ErrFinalGradeExists = errors.New("final grade already exists for practice")

const finalGradeColumns = `id, practica_id, id_estudiante, id_docente, nota_final, estado, promedio_bitacoras, nota_informe, nota_autoevaluacion, detalle_bitacoras, fecha_calculo`

// FinalGradeRepository manages computed final grade persistence.
type FinalGradeRepository struct {
	db *sqlx.DB
}

// NewFinalGradeRepository constructs the repository.
func NewFinalGradeRepository(db *sqlx.DB) *FinalGradeRepository {
	return &FinalGradeRepository{db: db}
}

// Create inserts the single final grade row for a practice. There is no
// update path: recomputation is rejected by design.
func (r *FinalGradeRepository) Create(ctx context.Context, grade *models.FinalGrade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	if grade.CalculatedAt.IsZero() {
		grade.CalculatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO notas_finales (id, practica_id, id_estudiante, id_docente, nota_final, estado, promedio_bitacoras, nota_informe, nota_autoevaluacion, detalle_bitacoras, fecha_calculo)
        VALUES (:id, :practica_id, :id_estudiante, :id_docente, :nota_final, :estado, :promedio_bitacoras, :nota_informe, :nota_autoevaluacion, :detalle_bitacoras, :fecha_calculo)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrFinalGradeExists
		}
		return fmt.Errorf("create final grade: %w", err)
	}
	return nil
}

// FindByPractice returns the final grade for a practice, if computed.
func (r *FinalGradeRepository) FindByPractice(ctx context.Context, practiceID string) (*models.FinalGrade, error) {
	query := fmt.Sprintf(`SELECT %s FROM notas_finales WHERE practica_id = $1 LIMIT 1`, finalGradeColumns)
	var grade models.FinalGrade
	if err := r.db.GetContext(ctx, &grade, query, practiceID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find final grade by practice: %w", err)
	}
	return &grade, nil
}

// FindByStudent returns the student's final grade, if computed.
func (r *FinalGradeRepository) FindByStudent(ctx context.Context, studentID string) (*models.FinalGrade, error) {
	query := fmt.Sprintf(`SELECT %s FROM notas_finales WHERE id_estudiante = $1 ORDER BY fecha_calculo DESC LIMIT 1`, finalGradeColumns)
	var grade models.FinalGrade
	if err := r.db.GetContext(ctx, &grade, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find final grade by student: %w", err)
	}
	return &grade, nil
}

// ListAll returns every computed final grade, optionally scoped to a teacher.
// Used by the report export worker.
func (r *FinalGradeRepository) ListAll(ctx context.Context, teacherID string) ([]models.FinalGrade, error) {
	var grades []models.FinalGrade
	if teacherID != "" {
		query := fmt.Sprintf(`SELECT %s FROM notas_finales WHERE id_docente = $1 ORDER BY fecha_calculo ASC`, finalGradeColumns)
		if err := r.db.SelectContext(ctx, &grades, query, teacherID); err != nil {
			return nil, fmt.Errorf("list final grades by teacher: %w", err)
		}
		return grades, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM notas_finales ORDER BY fecha_calculo ASC`, finalGradeColumns)
	if err := r.db.SelectContext(ctx, &grades, query); err != nil {
		return nil, fmt.Errorf("list final grades: %w", err)
	}
	return grades, nil
}
