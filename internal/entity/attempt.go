package entity

import "time"

type AttemptStatus string

const (
	AttemptStarted    AttemptStatus = "INICIADO"
	AttemptInProgress AttemptStatus = "EN_PROGRESO"
	AttemptFinished   AttemptStatus = "FINALIZADO"
	AttemptExpelled   AttemptStatus = "EXPULSADO"
)

// Terminal reports whether the attempt can no longer accept escalation
// mutations. EXPULSADO is terminal; FINALIZADO is terminal too but never
// set by this service.
func (s AttemptStatus) Terminal() bool {
	return s == AttemptFinished || s == AttemptExpelled
}

// ExamAttempt is the projection of the attempt entity owned by the exam
// domain. The monitoring core reads it and performs exactly one mutation:
// the transition to EXPULSADO.
type ExamAttempt struct {
	ID               string        `json:"id"`
	StudentID        string        `json:"student_id"`
	StudentName      string        `json:"student_name"`
	ExamID           string        `json:"exam_id"`
	ExamTitle        string        `json:"exam_title"`
	Status           AttemptStatus `json:"status"`
	StartedAt        time.Time     `json:"started_at"`
	EndedAt          *time.Time    `json:"ended_at,omitempty"`
	TotalTimeSeconds int           `json:"total_time_seconds"`
}
