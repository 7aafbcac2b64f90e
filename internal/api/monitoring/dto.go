package monitoring

import "ProctorGolang/internal/entity"

type ReportEventRequest struct {
	AttemptID   string                 `json:"attempt_id" validate:"required"`
	StudentID   string                 `json:"student_id" validate:"required"`
	Kind        string                 `json:"kind" validate:"required"`
	Confidence  float64                `json:"confidence" validate:"gte=0,lte=100"`
	Details     map[string]interface{} `json:"details"`
	EvidenceURL string                 `json:"evidence_url"`
	DurationMs  int                    `json:"duration_ms" validate:"gte=0"`
}

// StepError identifies which escalation step failed. Guard no-ops are not
// errors; only persistence failures appear here.
type StepError struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// EscalationOutcome is the structured result of one HandleEvent call. All
// fields may be zero: an event that maps to no warning category, arrives
// inside the dedup window, or targets a terminal attempt is a no-op.
type EscalationOutcome struct {
	WarningCreated   *entity.Warning   `json:"warning_created"`
	ExpulsionCreated *entity.Expulsion `json:"expulsion_created"`
	AttemptMutated   bool              `json:"attempt_mutated"`
	Errors           []StepError       `json:"errors"`
}

type ReportEventResponse struct {
	Event            entity.MonitoringEvent `json:"event"`
	WarningCreated   *entity.Warning        `json:"warning_created"`
	ExpulsionCreated *entity.Expulsion      `json:"expulsion_created"`
	AttemptMutated   bool                   `json:"attempt_mutated"`
	Errors           []StepError            `json:"errors"`
}

type WarningFilter struct {
	AttemptID string
	StudentID string
	Resolved  *bool
}

type WarningListResponse struct {
	Total    int              `json:"total"`
	Warnings []entity.Warning `json:"warnings"`
}

type ResolveWarningRequest struct {
	Notes string `json:"notes"`
}

type AttemptSummaryResponse struct {
	AttemptID          string         `json:"attempt_id"`
	TotalEvents        int            `json:"total_events"`
	TotalWarnings      int            `json:"total_warnings"`
	EventsByKind       map[string]int `json:"events_by_kind"`
	WarningsByCategory map[string]int `json:"warnings_by_category"`
	Expelled           bool           `json:"expelled"`
	ExpulsionReason    string         `json:"expulsion_reason,omitempty"`
}

type UpsertConfigRequest struct {
	ExamID                 string  `json:"exam_id" validate:"required"`
	MaxWarnings            int     `json:"max_warnings" validate:"omitempty,gte=1,lte=10"`
	DedupWindowSeconds     int     `json:"dedup_window_seconds" validate:"omitempty,gte=1"`
	MinConfidence          float64 `json:"min_confidence" validate:"gte=0,lte=100"`
	MaxSecondsNoFace       int     `json:"max_seconds_no_face" validate:"gte=0"`
	MaxSecondsGazeDeviated int     `json:"max_seconds_gaze_deviated" validate:"gte=0"`
	AllowMultiplePeople    bool    `json:"allow_multiple_people"`
	PeriodicCapture        bool    `json:"periodic_capture"`
	CaptureIntervalSeconds int     `json:"capture_interval_seconds" validate:"gte=0"`
	RequireFullscreen      bool    `json:"require_fullscreen"`
}

type ConfigListResponse struct {
	Total   int                       `json:"total"`
	Configs []entity.MonitoringConfig `json:"configs"`
}
