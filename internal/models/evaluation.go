package models

import "time"

// Grade bounds shared by weekly logs, evaluations and final grades.
const (
	GradeMin = 1.0
	GradeMax = 7.0
)

// Evaluation is a teacher's grading record for exactly one document.
type Evaluation struct {
	ID           string       `db:"id" json:"id"`
	DocumentID   string       `db:"documento_id" json:"documento_id"`
	DocumentType DocumentType `db:"tipo_documento" json:"tipo_documento"`
	Grade        float64      `db:"nota" json:"nota"`
	Comment      *string      `db:"comentario" json:"comentario,omitempty"`
	TeacherID    string       `db:"id_docente" json:"id_docente"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}
