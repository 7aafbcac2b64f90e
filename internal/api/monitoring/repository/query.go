package monitoringRepository

const (
	queryAdvisoryLockAttempt = `
SELECT pg_advisory_xact_lock(hashtext(:attempt_id))`

	queryCreateEvent = `
INSERT INTO monitoring_events (id, attempt_id, student_id, kind, confidence, details, evidence_url, duration_ms, occurred_at)
VALUES (:id, :attempt_id, :student_id, :kind, :confidence, :details, :evidence_url, :duration_ms, :occurred_at)`

	queryCountEventsByKind = `
SELECT kind, COUNT(*) AS total
FROM monitoring_events
    WHERE attempt_id = :attempt_id
GROUP BY kind`

	queryCountEvents = `
SELECT COUNT(*) FROM monitoring_events
    WHERE attempt_id = :attempt_id`

	queryCreateWarning = `
INSERT INTO warnings (id, attempt_id, student_id, student_name, category, tier, description, confidence, evidence_url, metadata, resolved, resolution_notes, created_at)
VALUES (:id, :attempt_id, :student_id, :student_name, :category, :tier, :description, :confidence, :evidence_url, :metadata, :resolved, :resolution_notes, :created_at)`

	queryWarningExistsRecent = `
SELECT EXISTS (
    SELECT 1 FROM warnings
    WHERE attempt_id = :attempt_id
      AND category = :category
      AND created_at >= :since
)`

	queryCountWarnings = `
SELECT COUNT(*) FROM warnings
    WHERE attempt_id = :attempt_id`

	queryCountWarningsByCategory = `
SELECT category, COUNT(*) AS total
FROM warnings
    WHERE attempt_id = :attempt_id
GROUP BY category`

	queryRecentEvidence = `
SELECT evidence_url FROM warnings
    WHERE attempt_id = :attempt_id AND evidence_url <> ''
ORDER BY created_at DESC
LIMIT :limit`

	queryGetWarningByID = `
SELECT id, attempt_id, student_id, student_name, category, tier, description, confidence, evidence_url, metadata, resolved, resolution_notes, created_at
FROM warnings
    WHERE id = :id`

	queryResolveWarning = `
UPDATE warnings
SET resolved = TRUE,
    resolution_notes = :resolution_notes
WHERE id = :id`

	queryCreateExpulsion = `
INSERT INTO expulsions (id, attempt_id, student_id, student_name, exam_id, exam_title, reason, description, prior_warnings, evidence, teacher_notified, admin_notified, assigned_grade, created_at)
VALUES (:id, :attempt_id, :student_id, :student_name, :exam_id, :exam_title, :reason, :description, :prior_warnings, :evidence, :teacher_notified, :admin_notified, :assigned_grade, :created_at)`

	queryGetExpulsionByAttempt = `
SELECT id, attempt_id, student_id, student_name, exam_id, exam_title, reason, description, prior_warnings, evidence, teacher_notified, admin_notified, assigned_grade, created_at
FROM expulsions
    WHERE attempt_id = :attempt_id`

	queryMarkExpulsionNotified = `
UPDATE expulsions
SET teacher_notified = :teacher_notified, admin_notified = :admin_notified
WHERE id = :id`

	queryGetAttemptByID = `
SELECT id, student_id, student_name, exam_id, exam_title, status, started_at, ended_at, total_time_seconds
FROM exam_attempts
    WHERE id = :id`

	queryMarkAttemptExpelled = `
UPDATE exam_attempts
SET status = :status,
    ended_at = :ended_at,
    total_time_seconds = :total_time_seconds
WHERE id = :id`

	queryCreateConfig = `
INSERT INTO monitoring_configs (id, exam_id, max_warnings, dedup_window_seconds, min_confidence, max_seconds_no_face, max_seconds_gaze_deviated, allow_multiple_people, periodic_capture, capture_interval_seconds, require_fullscreen, created_at, updated_at)
VALUES (:id, :exam_id, :max_warnings, :dedup_window_seconds, :min_confidence, :max_seconds_no_face, :max_seconds_gaze_deviated, :allow_multiple_people, :periodic_capture, :capture_interval_seconds, :require_fullscreen, :created_at, :updated_at)`

	queryGetConfigByExam = `
SELECT id, exam_id, max_warnings, dedup_window_seconds, min_confidence, max_seconds_no_face, max_seconds_gaze_deviated, allow_multiple_people, periodic_capture, capture_interval_seconds, require_fullscreen, created_at, updated_at
FROM monitoring_configs
    WHERE exam_id = :exam_id`

	queryGetConfigByID = `
SELECT id, exam_id, max_warnings, dedup_window_seconds, min_confidence, max_seconds_no_face, max_seconds_gaze_deviated, allow_multiple_people, periodic_capture, capture_interval_seconds, require_fullscreen, created_at, updated_at
FROM monitoring_configs
    WHERE id = :id`

	queryListConfigs = `
SELECT id, exam_id, max_warnings, dedup_window_seconds, min_confidence, max_seconds_no_face, max_seconds_gaze_deviated, allow_multiple_people, periodic_capture, capture_interval_seconds, require_fullscreen, created_at, updated_at
FROM monitoring_configs
ORDER BY created_at DESC`

	queryUpdateConfig = `
UPDATE monitoring_configs
SET max_warnings = :max_warnings,
    dedup_window_seconds = :dedup_window_seconds,
    min_confidence = :min_confidence,
    max_seconds_no_face = :max_seconds_no_face,
    max_seconds_gaze_deviated = :max_seconds_gaze_deviated,
    allow_multiple_people = :allow_multiple_people,
    periodic_capture = :periodic_capture,
    capture_interval_seconds = :capture_interval_seconds,
    require_fullscreen = :require_fullscreen,
    updated_at = :updated_at
WHERE id = :id`

	queryDeleteConfig = `
DELETE FROM monitoring_configs
WHERE id = :id`
)
