package entity

type Severity string

const (
	SeverityOK     Severity = "OK"
	SeverityOKInfo Severity = "OK_INFO"
	SeverityWarn   Severity = "WARN"
	SeverityBad    Severity = "BAD"
)

// FrameMeasurement holds the derived metrics for one detected face.
// Angles are degrees, face width and gaze are normalized to frame width.
type FrameMeasurement struct {
	FaceWidthNorm float64 `json:"face_width_norm"`
	Yaw           float64 `json:"yaw"`
	Pitch         float64 `json:"pitch"`
	Roll          float64 `json:"roll"`
	GazeX         float64 `json:"gaze_x"`
	EAR           float64 `json:"ear"`
	EyesOpen      bool    `json:"eyes_open"`
}

// FrameAnalysisResult is the per-frame output of the analyzer. It is built
// fresh for every frame and never mutated afterwards; degraded frames
// (undecodable, empty) still produce a populated result.
type FrameAnalysisResult struct {
	NumFaces     int                `json:"num_faces"`
	Faces        []FrameMeasurement `json:"faces"`
	Primary      *FrameMeasurement  `json:"primary"`
	Events       []EventKind        `json:"events"`
	Severity     Severity           `json:"severity"`
	StatusText   string             `json:"status_text"`
	Confidence   float64            `json:"confidence"`
	YawPct       float64            `json:"yaw_pct"`
	ProcessingMs float64            `json:"processing_ms,omitempty"`
}
