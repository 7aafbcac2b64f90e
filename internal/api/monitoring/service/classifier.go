package monitoringService

import "ProctorGolang/internal/entity"

// WarningMapping pairs the category and tier a raw event kind escalates
// into, plus the human description stored on the warning.
type WarningMapping struct {
	Category    entity.WarningCategory
	Tier        entity.SeverityTier
	Description string
}

// warningMappings is the full escalation table. Kinds absent here
// (SESSION_START, FRAME_PROCESSED, FACE_DETECTED, CONNECTION_RESTORED,
// SESSION_END, EXPULSION) never produce a warning.
var warningMappings = map[entity.EventKind]WarningMapping{
	entity.EventNoFace: {
		Category:    entity.CategoryAbsence,
		Tier:        entity.TierModerate,
		Description: "No face detected in front of the camera",
	},
	entity.EventOutOfFrame: {
		Category:    entity.CategoryOutOfFrame,
		Tier:        entity.TierModerate,
		Description: "Student moved out of the camera frame",
	},
	entity.EventMultipleFaces: {
		Category:    entity.CategoryMultiplePeople,
		Tier:        entity.TierSevere,
		Description: "Multiple people detected in the camera frame",
	},
	entity.EventGazeDeviated: {
		Category:    entity.CategoryGazeDeviated,
		Tier:        entity.TierModerate,
		Description: "Gaze deviated away from the screen",
	},
	entity.EventEyesClosed: {
		Category:    entity.CategoryEyesClosed,
		Tier:        entity.TierLight,
		Description: "Eyes closed for a sustained period",
	},
	entity.EventTabChange: {
		Category:    entity.CategoryWindowChange,
		Tier:        entity.TierModerate,
		Description: "Browser tab or window change detected",
	},
	entity.EventFullscreenExit: {
		Category:    entity.CategorySuspiciousBehavior,
		Tier:        entity.TierSevere,
		Description: "Exited fullscreen mode during the exam",
	},
	entity.EventConnectionLost: {
		Category:    entity.CategoryConnectionLost,
		Tier:        entity.TierLight,
		Description: "Connection to the monitoring channel lost",
	},
}

// ClassifyEvent maps a raw event kind to its warning mapping. The second
// return is false for kinds that never escalate.
func ClassifyEvent(kind entity.EventKind) (WarningMapping, bool) {
	mapping, ok := warningMappings[kind]
	return mapping, ok
}

var knownEventKinds = map[entity.EventKind]struct{}{
	entity.EventSessionStart:       {},
	entity.EventFrameProcessed:     {},
	entity.EventFaceDetected:       {},
	entity.EventNoFace:             {},
	entity.EventOutOfFrame:         {},
	entity.EventMultipleFaces:      {},
	entity.EventGazeDeviated:       {},
	entity.EventEyesClosed:         {},
	entity.EventTabChange:          {},
	entity.EventFullscreenExit:     {},
	entity.EventConnectionLost:     {},
	entity.EventConnectionRestored: {},
	entity.EventSessionEnd:         {},
	entity.EventExpulsion:          {},
}

// KnownEventKind reports whether the kind is part of the event vocabulary.
func KnownEventKind(kind entity.EventKind) bool {
	_, ok := knownEventKinds[kind]
	return ok
}
