package models

import "time"

// WeeklyLogStatus tracks the review lifecycle of a bitácora.
type WeeklyLogStatus string

const (
	WeeklyLogStatusInProgress WeeklyLogStatus = "en_proceso"
	WeeklyLogStatusPending    WeeklyLogStatus = "pendiente"
	WeeklyLogStatusApproved   WeeklyLogStatus = "aprobada"
	WeeklyLogStatusRejected   WeeklyLogStatus = "rechazada"
	WeeklyLogStatusCompleted  WeeklyLogStatus = "completada"
)

// Submission limits for weekly logs.
const (
	WeeklyLogMinWeek        = 1
	WeeklyLogMaxWeek        = 20
	WeeklyLogMaxWeekGap     = 5
	WeeklyLogMinHours       = 1.0
	WeeklyLogMaxHours       = 40.0
	WeeklyLogHoursIncrement = 0.5
	WeeklyLogMinActivities  = 50
	WeeklyLogMinLearnings   = 25
)

// WeeklyLog is one bitácora entry for a week of an internship.
type WeeklyLog struct {
	ID         string          `db:"id" json:"id"`
	PracticeID string          `db:"practica_id" json:"practica_id"`
	WeekNumber int             `db:"numero_semana" json:"numero_semana"`
	Hours      float64         `db:"horas" json:"horas"`
	Activities string          `db:"actividades" json:"actividades"`
	Learnings  string          `db:"aprendizajes" json:"aprendizajes"`
	Status     WeeklyLogStatus `db:"estado" json:"estado"`
	Grade      *float64        `db:"nota" json:"nota,omitempty"`
	Comment    *string         `db:"comentario" json:"comentario,omitempty"`
	DocumentID *string         `db:"documento_id" json:"documento_id,omitempty"`
	ReviewerID *string         `db:"id_revisor" json:"id_revisor,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// WeeklyLogFilter scopes listing queries.
type WeeklyLogFilter struct {
	PracticeID string
	Status     *WeeklyLogStatus
	GradedOnly bool
}
