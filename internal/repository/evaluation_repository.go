package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/models"
)

// EvaluationRepository manages document evaluation persistence.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository constructs the repository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// Upsert inserts an evaluation or updates the existing one for the document.
// evaluaciones carries UNIQUE(documento_id, tipo_documento), so re-grading
// replaces the previous record instead of accumulating rows.
func (r *EvaluationRepository) Upsert(ctx context.Context, eval *models.Evaluation) error {
	if eval.ID == "" {
		eval.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if eval.CreatedAt.IsZero() {
		eval.CreatedAt = now
	}
	eval.UpdatedAt = now

	const query = `INSERT INTO evaluaciones (id, documento_id, tipo_documento, nota, comentario, id_docente, created_at, updated_at)
        VALUES (:id, :documento_id, :tipo_documento, :nota, :comentario, :id_docente, :created_at, :updated_at)
        ON CONFLICT (documento_id, tipo_documento)
        DO UPDATE SET nota = EXCLUDED.nota, comentario = EXCLUDED.comentario, id_docente = EXCLUDED.id_docente, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, eval); err != nil {
		return fmt.Errorf("upsert evaluation: %w", err)
	}
	return nil
}

// FindByDocument returns the evaluation for a document, if any.
func (r *EvaluationRepository) FindByDocument(ctx context.Context, documentID string) (*models.Evaluation, error) {
	const query = `SELECT id, documento_id, tipo_documento, nota, comentario, id_docente, created_at, updated_at FROM evaluaciones WHERE documento_id = $1 LIMIT 1`
	var eval models.Evaluation
	if err := r.db.GetContext(ctx, &eval, query, documentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find evaluation by document: %w", err)
	}
	return &eval, nil
}
