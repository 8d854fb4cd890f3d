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

const documentColumns = `id, practica_id, user_id, tipo, nombre_archivo, ruta, formato, tamano_mb, estado_revision, nota, comentario, created_at, updated_at`

// DocumentRepository manages practice document persistence.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a document row.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = now
	}
	doc.UpdatedAt = now

	const query = `INSERT INTO documentos (id, practica_id, user_id, tipo, nombre_archivo, ruta, formato, tamano_mb, estado_revision, nota, comentario, created_at, updated_at)
        VALUES (:id, :practica_id, :user_id, :tipo, :nombre_archivo, :ruta, :formato, :tamano_mb, :estado_revision, :nota, :comentario, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// FindByID returns a document by identifier.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documentos WHERE id = $1 LIMIT 1`, documentColumns)
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find document by id: %w", err)
	}
	return &doc, nil
}

// FindByPracticeAndType returns the single document of a type for a practice.
func (r *DocumentRepository) FindByPracticeAndType(ctx context.Context, practiceID string, docType models.DocumentType) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documentos WHERE practica_id = $1 AND tipo = $2 LIMIT 1`, documentColumns)
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, practiceID, docType); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find document by practice and type: %w", err)
	}
	return &doc, nil
}

// List returns documents for a practice matching the filter.
func (r *DocumentRepository) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error) {
	baseQuery := `FROM documentos WHERE practica_id = $1`
	args := []interface{}{filter.PracticeID}
	var conditions []string

	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("tipo = $%d", len(args)+1))
		args = append(args, *filter.Type)
	}
	if filter.ReviewStatus != nil {
		conditions = append(conditions, fmt.Sprintf("estado_revision = $%d", len(args)+1))
		args = append(args, *filter.ReviewStatus)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at ASC", documentColumns, baseQuery)
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// UpdateReview sets the review state, grade and comment for a document.
func (r *DocumentRepository) UpdateReview(ctx context.Context, id string, status models.DocumentReviewStatus, grade *float64, comment *string) error {
	const query = `UPDATE documentos SET estado_revision = $2, nota = $3, comentario = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, grade, comment, time.Now().UTC()); err != nil {
		return fmt.Errorf("update document review: %w", err)
	}
	return nil
}
