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

const weeklyLogColumns = `id, practica_id, numero_semana, horas, actividades, aprendizajes, estado, nota, comentario, documento_id, id_revisor, created_at, updated_at`

// WeeklyLogRepository manages bitácora persistence.
type WeeklyLogRepository struct {
	db *sqlx.DB
}

// NewWeeklyLogRepository constructs the repository.
func NewWeeklyLogRepository(db *sqlx.DB) *WeeklyLogRepository {
	return &WeeklyLogRepository{db: db}
}

// Create inserts a weekly log row.
func (r *WeeklyLogRepository) Create(ctx context.Context, log *models.WeeklyLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if log.CreatedAt.IsZero() {
		log.CreatedAt = now
	}
	log.UpdatedAt = now

	const query = `INSERT INTO bitacoras (id, practica_id, numero_semana, horas, actividades, aprendizajes, estado, nota, comentario, documento_id, id_revisor, created_at, updated_at)
        VALUES (:id, :practica_id, :numero_semana, :horas, :actividades, :aprendizajes, :estado, :nota, :comentario, :documento_id, :id_revisor, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create weekly log: %w", err)
	}
	return nil
}

// FindByID returns a weekly log by identifier.
func (r *WeeklyLogRepository) FindByID(ctx context.Context, id string) (*models.WeeklyLog, error) {
	query := fmt.Sprintf(`SELECT %s FROM bitacoras WHERE id = $1 LIMIT 1`, weeklyLogColumns)
	var log models.WeeklyLog
	if err := r.db.GetContext(ctx, &log, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find weekly log by id: %w", err)
	}
	return &log, nil
}

// List returns weekly logs for a practice ordered by week ascending.
func (r *WeeklyLogRepository) List(ctx context.Context, filter models.WeeklyLogFilter) ([]models.WeeklyLog, error) {
	baseQuery := `FROM bitacoras WHERE practica_id = $1`
	args := []interface{}{filter.PracticeID}
	var conditions []string

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("estado = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.GradedOnly {
		conditions = append(conditions, "nota IS NOT NULL")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY numero_semana ASC", weeklyLogColumns, baseQuery)
	var logs []models.WeeklyLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("list weekly logs: %w", err)
	}
	return logs, nil
}

// MaxWeekNumber returns the highest submitted week for a practice, 0 when none.
func (r *WeeklyLogRepository) MaxWeekNumber(ctx context.Context, practiceID string) (int, error) {
	const query = `SELECT COALESCE(MAX(numero_semana), 0) FROM bitacoras WHERE practica_id = $1`
	var week int
	if err := r.db.GetContext(ctx, &week, query, practiceID); err != nil {
		return 0, fmt.Errorf("max week number: %w", err)
	}
	return week, nil
}

// CountApprovedGraded counts approved weekly logs carrying a grade.
func (r *WeeklyLogRepository) CountApprovedGraded(ctx context.Context, practiceID string) (int, error) {
	const query = `SELECT COUNT(*) FROM bitacoras WHERE practica_id = $1 AND estado = $2 AND nota IS NOT NULL`
	var count int
	if err := r.db.GetContext(ctx, &count, query, practiceID, models.WeeklyLogStatusApproved); err != nil {
		return 0, fmt.Errorf("count approved graded logs: %w", err)
	}
	return count, nil
}

// UpdateReview sets review state, grade and comment for a weekly log.
func (r *WeeklyLogRepository) UpdateReview(ctx context.Context, id string, status models.WeeklyLogStatus, grade *float64, comment *string, reviewerID string) error {
	const query = `UPDATE bitacoras SET estado = $2, nota = $3, comentario = $4, id_revisor = $5, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, grade, comment, reviewerID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update weekly log review: %w", err)
	}
	return nil
}

// Delete removes a weekly log row.
func (r *WeeklyLogRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM bitacoras WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete weekly log: %w", err)
	}
	return nil
}
