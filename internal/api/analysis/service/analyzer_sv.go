package analysisService

import (
	"ProctorGolang/internal/api/analysis"
	"ProctorGolang/internal/entity"
	contextPkg "ProctorGolang/pkg/context"
	"ProctorGolang/pkg/utils"
	"ProctorGolang/pkg/vision"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

func (s *analysisService) AnalyzeFrame(ctx context.Context, frame []byte) (entity.FrameAnalysisResult, error) {
	requestID := contextPkg.GetRequestID(ctx)
	start := time.Now()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(frame))
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Frame could not be decoded")
		return finishResult(entity.FrameAnalysisResult{
			Faces:      []entity.FrameMeasurement{},
			Events:     []entity.EventKind{entity.EventOutOfFrame},
			Severity:   entity.SeverityBad,
			StatusText: "Frame could not be decoded",
			Confidence: 0.0,
		}, start), nil
	}

	faceSets, err := s.provider.Detect(frame)
	if err != nil {
		if errors.Is(err, vision.ErrNotInitialized) {
			return entity.FrameAnalysisResult{}, analysis.ErrModelNotLoaded
		}
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Landmark detection failed")
		return entity.FrameAnalysisResult{}, analysis.ErrDetectionFailed
	}

	if len(faceSets) == 0 {
		return finishResult(entity.FrameAnalysisResult{
			Faces:      []entity.FrameMeasurement{},
			Events:     []entity.EventKind{entity.EventNoFace},
			Severity:   entity.SeverityBad,
			StatusText: "No face detected",
			Confidence: 0.85,
		}, start), nil
	}

	measurements := make([]entity.FrameMeasurement, len(faceSets))
	primaryIdx := 0
	for i, lms := range faceSets {
		measurements[i] = measureFace(lms, cfg.Width, cfg.Height)
		if measurements[i].FaceWidthNorm > measurements[primaryIdx].FaceWidthNorm {
			primaryIdx = i
		}
	}
	primary := measurements[primaryIdx]

	// Severity is decided by the yaw/gaze rules alone; extra faces and
	// closed eyes add events and lower confidence without touching it.
	confidence := 1.0
	severity := entity.SeverityOK
	events := make([]entity.EventKind, 0, 3)
	status := ""

	if len(measurements) >= 2 {
		events = append(events, entity.EventMultipleFaces)
		confidence -= 0.1
		status = fmt.Sprintf("%d people detected in frame", len(measurements))
	}

	// A face this small means the subject backed away or left; it overrides
	// every other signal.
	if primary.FaceWidthNorm < vision.MinFaceScale {
		return finishResult(entity.FrameAnalysisResult{
			NumFaces:   len(measurements),
			Faces:      measurements,
			Primary:    &primary,
			Events:     []entity.EventKind{entity.EventOutOfFrame},
			Severity:   entity.SeverityBad,
			StatusText: "Face too small, student out of frame",
			Confidence: 0.70,
			YawPct:     utils.RoundTo(vision.YawToPercent(math.Abs(primary.Yaw)), 1),
		}, start), nil
	}

	if !primary.EyesOpen {
		events = append(events, entity.EventEyesClosed)
		confidence -= 0.4
		status = "Eyes closed"
	}

	yawPct := vision.YawToPercent(math.Abs(primary.Yaw))
	switch {
	case yawPct >= vision.YawPctBad:
		severity = entity.SeverityBad
		events = append(events, entity.EventGazeDeviated)
		confidence -= 0.5
		side := "left"
		if primary.Yaw > 0 {
			side = "right"
		}
		status = fmt.Sprintf("Head turned %s (%.1f%%)", side, yawPct)
	case yawPct >= vision.YawPctInfoLow:
		// Informative band: worth reporting in the status, not punishable.
		severity = entity.SeverityOKInfo
		status = fmt.Sprintf("Head slightly turned (%.1f%%)", yawPct)
	default:
		if math.Abs(primary.GazeX) > vision.GazeThreshold {
			severity = entity.SeverityWarn
			events = append(events, entity.EventGazeDeviated)
			confidence -= 0.2
			status = "Gaze deviated from screen"
		} else if status == "" {
			status = "Student focused"
		}
	}

	confidence = math.Max(0.0, math.Min(1.0, confidence))

	return finishResult(entity.FrameAnalysisResult{
		NumFaces:   len(measurements),
		Faces:      measurements,
		Primary:    &primary,
		Events:     events,
		Severity:   severity,
		StatusText: status,
		Confidence: confidence,
		YawPct:     utils.RoundTo(yawPct, 1),
	}, start), nil
}

func measureFace(lms []vision.Landmark, frameW, frameH int) entity.FrameMeasurement {
	pitch, yaw, roll := vision.HeadPose(lms, frameW, frameH)

	leftEAR := vision.EyeAspectRatio(lms, vision.LeftEye)
	rightEAR := vision.EyeAspectRatio(lms, vision.RightEye)
	ear := (leftEAR + rightEAR) / 2.0

	return entity.FrameMeasurement{
		FaceWidthNorm: utils.RoundTo(vision.FaceWidthNorm(lms), 4),
		Yaw:           utils.RoundTo(yaw, 2),
		Pitch:         utils.RoundTo(pitch, 2),
		Roll:          utils.RoundTo(roll, 2),
		GazeX:         utils.RoundTo(vision.GazeOffset(lms), 4),
		EAR:           utils.RoundTo(ear, 4),
		EyesOpen:      ear >= vision.EarClosed,
	}
}

func finishResult(result entity.FrameAnalysisResult, start time.Time) entity.FrameAnalysisResult {
	result.Confidence = utils.RoundTo(result.Confidence, 2)
	result.ProcessingMs = utils.RoundTo(float64(time.Since(start).Microseconds())/1000.0, 2)
	return result
}
