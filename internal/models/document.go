package models

import "time"

// DocumentType classifies an uploaded practice document.
type DocumentType string

const (
	DocumentTypeReport         DocumentType = "informe"
	DocumentTypeSelfAssessment DocumentType = "autoevaluacion"
	DocumentTypeAgreement      DocumentType = "convenio"
	DocumentTypeOther          DocumentType = "otro"
)

// Valid reports whether the type is a known document type.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTypeReport, DocumentTypeSelfAssessment, DocumentTypeAgreement, DocumentTypeOther:
		return true
	default:
		return false
	}
}

// DocumentReviewStatus tracks the review state of a document.
type DocumentReviewStatus string

const (
	DocumentReviewPending  DocumentReviewStatus = "pendiente"
	DocumentReviewReviewed DocumentReviewStatus = "revisado"
)

// Document is a file submission tied to a practice.
type Document struct {
	ID           string               `db:"id" json:"id"`
	PracticeID   string               `db:"practica_id" json:"practica_id"`
	UserID       string               `db:"user_id" json:"user_id"`
	Type         DocumentType         `db:"tipo" json:"tipo"`
	Filename     string               `db:"nombre_archivo" json:"nombre_archivo"`
	StoragePath  string               `db:"ruta" json:"-"`
	Format       string               `db:"formato" json:"formato"`
	SizeMB       float64              `db:"tamano_mb" json:"tamano_mb"`
	ReviewStatus DocumentReviewStatus `db:"estado_revision" json:"estado_revision"`
	Grade        *float64             `db:"nota" json:"nota,omitempty"`
	Comment      *string              `db:"comentario" json:"comentario,omitempty"`
	UploadedAt   time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time            `db:"updated_at" json:"updated_at"`
}

// DocumentFilter scopes listing queries.
type DocumentFilter struct {
	PracticeID   string
	Type         *DocumentType
	ReviewStatus *DocumentReviewStatus
}
