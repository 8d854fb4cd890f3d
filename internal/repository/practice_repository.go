package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/models"
)

const practiceColumns = `id, id_estudiante, id_docente, empresa, descripcion, estado, fecha_inicio, fecha_termino, horas_totales, duracion_semanas, created_at, updated_at`

// PracticeRepository manages internship practice persistence.
type PracticeRepository struct {
	db *sqlx.DB
}

// NewPracticeRepository constructs the repository.
func NewPracticeRepository(db *sqlx.DB) *PracticeRepository {
	return &PracticeRepository{db: db}
}

// Create inserts a practice row.
func (r *PracticeRepository) Create(ctx context.Context, practice *models.Practice) error {
	if practice.ID == "" {
		practice.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if practice.CreatedAt.IsZero() {
		practice.CreatedAt = now
	}
	practice.UpdatedAt = now

	const query = `INSERT INTO practicas (id, id_estudiante, id_docente, empresa, descripcion, estado, fecha_inicio, fecha_termino, horas_totales, duracion_semanas, created_at, updated_at)
        VALUES (:id, :id_estudiante, :id_docente, :empresa, :descripcion, :estado, :fecha_inicio, :fecha_termino, :horas_totales, :duracion_semanas, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, practice); err != nil {
		return fmt.Errorf("create practice: %w", err)
	}
	return nil
}

// FindByID returns a practice by identifier.
func (r *PracticeRepository) FindByID(ctx context.Context, id string) (*models.Practice, error) {
	query := fmt.Sprintf(`SELECT %s FROM practicas WHERE id = $1 LIMIT 1`, practiceColumns)
	var practice models.Practice
	if err := r.db.GetContext(ctx, &practice, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find practice by id: %w", err)
	}
	return &practice, nil
}

// FindByStudentAndStatus returns the student's practice in the given state, if any.
func (r *PracticeRepository) FindByStudentAndStatus(ctx context.Context, studentID string, status models.PracticeStatus) (*models.Practice, error) {
	query := fmt.Sprintf(`SELECT %s FROM practicas WHERE id_estudiante = $1 AND estado = $2 ORDER BY created_at DESC LIMIT 1`, practiceColumns)
	var practice models.Practice
	if err := r.db.GetContext(ctx, &practice, query, studentID, status); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find practice by student and status: %w", err)
	}
	return &practice, nil
}

// FindOpenByStudent returns the student's non-terminal practice, if any.
func (r *PracticeRepository) FindOpenByStudent(ctx context.Context, studentID string) (*models.Practice, error) {
	query := fmt.Sprintf(`SELECT %s FROM practicas WHERE id_estudiante = $1 AND estado NOT IN ($2, $3) ORDER BY created_at DESC LIMIT 1`, practiceColumns)
	var practice models.Practice
	if err := r.db.GetContext(ctx, &practice, query, studentID, models.PracticeStatusFinished, models.PracticeStatusCancelled); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find open practice: %w", err)
	}
	return &practice, nil
}

// List returns practices matching the filter with a total count.
func (r *PracticeRepository) List(ctx context.Context, filter models.PracticeFilter) ([]models.Practice, int, error) {
	baseQuery := `FROM practicas WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("id_estudiante = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("id_docente = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("estado = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", practiceColumns, baseQuery, pageSize, offset)

	var practices []models.Practice
	if err := r.db.SelectContext(ctx, &practices, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list practices: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count practices: %w", err)
	}

	return practices, total, nil
}

// UpdateStatus transitions a practice to a new lifecycle state.
func (r *PracticeRepository) UpdateStatus(ctx context.Context, id string, status models.PracticeStatus) error {
	const query = `UPDATE practicas SET estado = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update practice status: %w", err)
	}
	return nil
}

// AssignTeacher sets the supervising teacher for a practice.
func (r *PracticeRepository) AssignTeacher(ctx context.Context, id, teacherID string) error {
	const query = `UPDATE practicas SET id_docente = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, teacherID, time.Now().UTC()); err != nil {
		return fmt.Errorf("assign practice teacher: %w", err)
	}
	return nil
}
