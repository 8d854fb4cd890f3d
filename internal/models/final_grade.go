package models

import (
	"time"

	"github.com/lib/pq"
)

// FinalGradeStatus labels a computed final grade record.
type FinalGradeStatus string

const (
	// FinalGradeStatusCalculated marks the single computed record per practice.
	FinalGradeStatusCalculated FinalGradeStatus = "calculada"
)

// FinalGrade is the computed end-of-internship score for one practice.
// The wire shape (practica_id, nota_final, ...) is consumed by downstream
// reporting and must stay stable.
type FinalGrade struct {
	ID                  string           `db:"id" json:"id"`
	PracticeID          string           `db:"practica_id" json:"practica_id"`
	StudentID           string           `db:"id_estudiante" json:"id_estudiante"`
	TeacherID           *string          `db:"id_docente" json:"id_docente,omitempty"`
	FinalScore          float64          `db:"nota_final" json:"nota_final"`
	Status              FinalGradeStatus `db:"estado" json:"estado"`
	WeeklyLogAverage    float64          `db:"promedio_bitacoras" json:"promedio_bitacoras"`
	ReportGrade         float64          `db:"nota_informe" json:"nota_informe"`
	SelfAssessmentGrade float64          `db:"nota_autoevaluacion" json:"nota_autoevaluacion"`
	WeeklyLogDetail     pq.StringArray   `db:"detalle_bitacoras" json:"detalle_bitacoras"`
	CalculatedAt        time.Time        `db:"fecha_calculo" json:"fecha_calculo"`
}

// PrerequisiteStatus summarises a successful prerequisite check.
type PrerequisiteStatus struct {
	PracticeID              string `json:"practica_id"`
	ApprovedGradedLogs      int    `json:"bitacoras_aprobadas"`
	ReportEvaluated         bool   `json:"informe_evaluado"`
	SelfAssessmentEvaluated bool   `json:"autoevaluacion_evaluada"`
}
