package models

import "time"

// PracticeStatus models the lifecycle of an internship record.
type PracticeStatus string

const (
	PracticeStatusActive        PracticeStatus = "activa"
	PracticeStatusInProgress    PracticeStatus = "en_curso"
	PracticeStatusFinished      PracticeStatus = "finalizada"
	PracticeStatusCancelled     PracticeStatus = "anulada"
	PracticeStatusPendingReview PracticeStatus = "pendiente_revision"
)

// Terminal reports whether the status ends the practice lifecycle.
func (s PracticeStatus) Terminal() bool {
	return s == PracticeStatusFinished || s == PracticeStatusCancelled
}

// Valid reports whether the status is one of the known lifecycle states.
func (s PracticeStatus) Valid() bool {
	switch s {
	case PracticeStatusActive, PracticeStatusInProgress, PracticeStatusFinished,
		PracticeStatusCancelled, PracticeStatusPendingReview:
		return true
	default:
		return false
	}
}

// Practice represents one student's internship instance.
type Practice struct {
	ID            string         `db:"id" json:"id"`
	StudentID     string         `db:"id_estudiante" json:"id_estudiante"`
	TeacherID     *string        `db:"id_docente" json:"id_docente,omitempty"`
	Company       string         `db:"empresa" json:"empresa"`
	Description   *string        `db:"descripcion" json:"descripcion,omitempty"`
	Status        PracticeStatus `db:"estado" json:"estado"`
	StartDate     time.Time      `db:"fecha_inicio" json:"fecha_inicio"`
	EndDate       time.Time      `db:"fecha_termino" json:"fecha_termino"`
	TotalHours    float64        `db:"horas_totales" json:"horas_totales"`
	DurationWeeks int            `db:"duracion_semanas" json:"duracion_semanas"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// PracticeFilter encapsulates allowed search parameters for listing practices.
type PracticeFilter struct {
	StudentID string
	TeacherID string
	Status    *PracticeStatus
	Page      int
	PageSize  int
}
