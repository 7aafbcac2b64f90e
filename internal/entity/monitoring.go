package entity

import "time"

type EventKind string

const (
	EventSessionStart       EventKind = "SESSION_START"
	EventFrameProcessed     EventKind = "FRAME_PROCESSED"
	EventFaceDetected       EventKind = "FACE_DETECTED"
	EventNoFace             EventKind = "NO_FACE"
	EventOutOfFrame         EventKind = "OUT_OF_FRAME"
	EventMultipleFaces      EventKind = "MULTIPLE_FACES"
	EventGazeDeviated       EventKind = "GAZE_DEVIATED"
	EventEyesClosed         EventKind = "EYES_CLOSED"
	EventTabChange          EventKind = "TAB_CHANGE"
	EventFullscreenExit     EventKind = "FULLSCREEN_EXIT"
	EventConnectionLost     EventKind = "CONNECTION_LOST"
	EventConnectionRestored EventKind = "CONNECTION_RESTORED"
	EventSessionEnd         EventKind = "SESSION_END"
	EventExpulsion          EventKind = "EXPULSION"
)

type WarningCategory string

const (
	CategoryAbsence            WarningCategory = "ABSENCE"
	CategoryOutOfFrame         WarningCategory = "OUT_OF_FRAME"
	CategoryMultiplePeople     WarningCategory = "MULTIPLE_PEOPLE"
	CategoryGazeDeviated       WarningCategory = "GAZE_DEVIATED"
	CategoryEyesClosed         WarningCategory = "EYES_CLOSED"
	CategoryUnauthorizedObject WarningCategory = "UNAUTHORIZED_OBJECT"
	CategoryWindowChange       WarningCategory = "WINDOW_CHANGE"
	CategoryConnectionLost     WarningCategory = "CONNECTION_LOST"
	CategoryCameraBlocked      WarningCategory = "CAMERA_BLOCKED"
	CategorySuspiciousBehavior WarningCategory = "SUSPICIOUS_BEHAVIOR"
)

type SeverityTier string

const (
	TierLight    SeverityTier = "LEVE"
	TierModerate SeverityTier = "MODERADO"
	TierSevere   SeverityTier = "GRAVE"
)

type ExpulsionReason string

const (
	ReasonMaxWarnings      ExpulsionReason = "MAX_WARNINGS"
	ReasonFraud            ExpulsionReason = "FRAUDE"
	ReasonRulesViolation   ExpulsionReason = "VIOLACION_NORMAS"
	ReasonTechnicalFailure ExpulsionReason = "FALLO_TECNICO"
	ReasonManual           ExpulsionReason = "MANUAL"
)

// MonitoringEvent is one entry of the append-only per-attempt event log.
// Vision-derived kinds come from the frame analyzer, behavioral kinds from
// the exam client. Immutable once stored.
type MonitoringEvent struct {
	ID          string                 `json:"id"`
	AttemptID   string                 `json:"attempt_id"`
	StudentID   string                 `json:"student_id"`
	Kind        EventKind              `json:"kind"`
	Confidence  float64                `json:"confidence"`
	Details     map[string]interface{} `json:"details,omitempty"`
	EvidenceURL string                 `json:"evidence_url,omitempty"`
	DurationMs  int                    `json:"duration_ms,omitempty"`
	OccurredAt  time.Time              `json:"occurred_at"`
}

type Warning struct {
	ID              string                 `json:"id"`
	AttemptID       string                 `json:"attempt_id"`
	StudentID       string                 `json:"student_id"`
	StudentName     string                 `json:"student_name"`
	Category        WarningCategory        `json:"category"`
	Tier            SeverityTier           `json:"tier"`
	Description     string                 `json:"description"`
	Confidence      float64                `json:"confidence"`
	EvidenceURL     string                 `json:"evidence_url,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	Resolved        bool                   `json:"resolved"`
	ResolutionNotes string                 `json:"resolution_notes,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

// Expulsion records the terminal removal of an attempt. At most one exists
// per attempt, enforced by a unique index on attempt_id.
type Expulsion struct {
	ID              string          `json:"id"`
	AttemptID       string          `json:"attempt_id"`
	StudentID       string          `json:"student_id"`
	StudentName     string          `json:"student_name"`
	ExamID          string          `json:"exam_id"`
	ExamTitle       string          `json:"exam_title"`
	Reason          ExpulsionReason `json:"reason"`
	Description     string          `json:"description"`
	PriorWarnings   int             `json:"prior_warnings"`
	Evidence        []string        `json:"evidence"`
	TeacherNotified bool            `json:"teacher_notified"`
	AdminNotified   bool            `json:"admin_notified"`
	AssignedGrade   float64         `json:"assigned_grade"`
	CreatedAt       time.Time       `json:"created_at"`
}

type MonitoringConfig struct {
	ID                     string    `json:"id"`
	ExamID                 string    `json:"exam_id"`
	MaxWarnings            int       `json:"max_warnings"`
	DedupWindowSeconds     int       `json:"dedup_window_seconds"`
	MinConfidence          float64   `json:"min_confidence"`
	MaxSecondsNoFace       int       `json:"max_seconds_no_face"`
	MaxSecondsGazeDeviated int       `json:"max_seconds_gaze_deviated"`
	AllowMultiplePeople    bool      `json:"allow_multiple_people"`
	PeriodicCapture        bool      `json:"periodic_capture"`
	CaptureIntervalSeconds int       `json:"capture_interval_seconds"`
	RequireFullscreen      bool      `json:"require_fullscreen"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

const (
	DefaultMaxWarnings        = 3
	DefaultDedupWindowSeconds = 20
	DefaultMinConfidence      = 70
)
