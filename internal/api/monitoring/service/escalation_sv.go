package monitoringService

import (
	"ProctorGolang/internal/api/monitoring"
	monitoringRepository "ProctorGolang/internal/api/monitoring/repository"
	"ProctorGolang/internal/entity"
	contextPkg "ProctorGolang/pkg/context"
	"errors"
	"mime/multipart"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const (
	evidenceLimit  = 3
	configCacheTTL = 60 * time.Second
)

// ReportEvent persists the raw event and runs it through the escalation
// engine. An optional snapshot upload becomes the event's evidence URL.
func (s *escalationDomainImpl) ReportEvent(ctx context.Context, req monitoring.ReportEventRequest, snapshot *multipart.FileHeader) (monitoring.ReportEventResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	kind := entity.EventKind(req.Kind)
	if !KnownEventKind(kind) {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"kind":       req.Kind,
		}).Warn("Rejected event with unknown kind")
		return monitoring.ReportEventResponse{}, monitoring.ErrUnknownEventKind
	}

	evidenceURL := req.EvidenceURL
	if snapshot != nil {
		if err := s.utils.ValidateFrameFile(snapshot); err != nil {
			return monitoring.ReportEventResponse{}, err
		}

		url, err := s.s3Client.UploadFile(snapshot)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Error("Failed to upload evidence snapshot")
			return monitoring.ReportEventResponse{}, err
		}
		evidenceURL = url
	}

	ULID, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate ULID")
		return monitoring.ReportEventResponse{}, err
	}

	event := entity.MonitoringEvent{
		ID:          ULID,
		AttemptID:   req.AttemptID,
		StudentID:   req.StudentID,
		Kind:        kind,
		Confidence:  req.Confidence,
		Details:     req.Details,
		EvidenceURL: evidenceURL,
		DurationMs:  req.DurationMs,
		OccurredAt:  time.Now(),
	}

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return monitoring.ReportEventResponse{}, err
	}

	if _, err := repo.Attempts.GetByID(ctx, event.AttemptID); err != nil {
		return monitoring.ReportEventResponse{}, err
	}

	if err := repo.Events.Create(ctx, event); err != nil {
		return monitoring.ReportEventResponse{}, err
	}

	outcome, err := s.HandleEvent(ctx, event)
	if err != nil {
		return monitoring.ReportEventResponse{}, err
	}

	return monitoring.ReportEventResponse{
		Event:            event,
		WarningCreated:   outcome.WarningCreated,
		ExpulsionCreated: outcome.ExpulsionCreated,
		AttemptMutated:   outcome.AttemptMutated,
		Errors:           outcome.Errors,
	}, nil
}

// HandleEvent runs the escalation ladder for one event. All state checks
// and writes happen inside a single transaction whose first statement takes
// a per-attempt advisory lock, so two concurrent calls for the same attempt
// serialize and the warning-count threshold can never double-fire.
func (s *escalationDomainImpl) HandleEvent(ctx context.Context, event entity.MonitoringEvent) (monitoring.EscalationOutcome, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.repo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return monitoring.EscalationOutcome{}, err
	}

	committed := false
	defer func() {
		if !committed {
			if err := repo.Rollback(); err != nil {
				s.log.WithFields(logrus.Fields{
					"request_id": requestID,
					"error":      err.Error(),
				}).Error("Failed to rollback escalation transaction")
			}
		}
	}()

	if err := repo.Attempts.LockForEscalation(ctx, event.AttemptID); err != nil {
		return monitoring.EscalationOutcome{}, err
	}

	// Replayed or duplicate delivery after an expulsion is a no-op that
	// hands back the existing record.
	existing, err := repo.Expulsions.GetByAttempt(ctx, event.AttemptID)
	if err == nil {
		return monitoring.EscalationOutcome{ExpulsionCreated: &existing}, nil
	}
	if !errors.Is(err, monitoring.ErrExpulsionNotFound) {
		return monitoring.EscalationOutcome{}, err
	}

	attempt, err := repo.Attempts.GetByID(ctx, event.AttemptID)
	if err != nil {
		return monitoring.EscalationOutcome{}, err
	}

	if attempt.Status.Terminal() {
		return monitoring.EscalationOutcome{}, nil
	}

	mapping, ok := ClassifyEvent(event.Kind)
	if !ok {
		return monitoring.EscalationOutcome{}, nil
	}

	config := s.effectiveConfig(ctx, attempt.ExamID)

	dedupWindow := time.Duration(config.DedupWindowSeconds) * time.Second
	duplicate, err := repo.Warnings.ExistsRecent(ctx, event.AttemptID, mapping.Category, time.Now().Add(-dedupWindow))
	if err != nil {
		return monitoring.EscalationOutcome{}, err
	}
	if duplicate {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"attempt_id": event.AttemptID,
			"category":   mapping.Category,
		}).Debug("Warning suppressed by dedup window")
		return monitoring.EscalationOutcome{}, nil
	}

	ULID, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		return monitoring.EscalationOutcome{}, err
	}

	warning := entity.Warning{
		ID:          ULID,
		AttemptID:   attempt.ID,
		StudentID:   attempt.StudentID,
		StudentName: attempt.StudentName,
		Category:    mapping.Category,
		Tier:        mapping.Tier,
		Description: mapping.Description,
		Confidence:  event.Confidence,
		EvidenceURL: event.EvidenceURL,
		Metadata: map[string]interface{}{
			"source_event_id": event.ID,
			"event_kind":      string(event.Kind),
			"duration_ms":     event.DurationMs,
		},
		CreatedAt: time.Now(),
	}

	if err := repo.Warnings.Create(ctx, warning); err != nil {
		return monitoring.EscalationOutcome{}, err
	}

	count, err := repo.Warnings.Count(ctx, attempt.ID)
	if err != nil {
		return monitoring.EscalationOutcome{}, err
	}

	if count < config.MaxWarnings {
		if err := repo.Commit(); err != nil {
			return monitoring.EscalationOutcome{}, err
		}
		committed = true
		return monitoring.EscalationOutcome{WarningCreated: &warning}, nil
	}

	expulsion, err := s.expel(ctx, repo, attempt, count)
	if err != nil {
		if errors.Is(err, monitoring.ErrExpulsionExists) {
			// Lost a race despite the lock (e.g. lock bypassed by a manual
			// insert); surface the winner's record. The warning rolls back
			// with the rest of the transaction, so it is not reported.
			return s.existingExpulsion(ctx, attempt.ID)
		}
		return monitoring.EscalationOutcome{}, err
	}

	if err := repo.Commit(); err != nil {
		return monitoring.EscalationOutcome{}, err
	}
	committed = true

	outcome := monitoring.EscalationOutcome{
		WarningCreated:   &warning,
		ExpulsionCreated: &expulsion,
		AttemptMutated:   true,
	}

	if err := s.notifyExpulsion(ctx, expulsion); err != nil {
		outcome.Errors = append(outcome.Errors, monitoring.StepError{
			Step:    "notify",
			Message: err.Error(),
		})
	}

	return outcome, nil
}

// expel performs the terminal transition inside the caller's transaction:
// attempt mutation, expulsion record, and the EXPULSION log event.
func (s *escalationDomainImpl) expel(ctx context.Context, repo monitoringRepository.Client, attempt entity.ExamAttempt, warningCount int) (entity.Expulsion, error) {
	requestID := contextPkg.GetRequestID(ctx)

	now := time.Now()
	totalSeconds := int(now.Sub(attempt.StartedAt).Seconds())
	if totalSeconds < 0 {
		totalSeconds = 0
	}

	if err := repo.Attempts.MarkExpelled(ctx, attempt.ID, now, totalSeconds); err != nil {
		return entity.Expulsion{}, err
	}

	evidence, err := repo.Warnings.RecentEvidence(ctx, attempt.ID, evidenceLimit)
	if err != nil {
		return entity.Expulsion{}, err
	}

	ULID, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		return entity.Expulsion{}, err
	}

	expulsion := entity.Expulsion{
		ID:            ULID,
		AttemptID:     attempt.ID,
		StudentID:     attempt.StudentID,
		StudentName:   attempt.StudentName,
		ExamID:        attempt.ExamID,
		ExamTitle:     attempt.ExamTitle,
		Reason:        entity.ReasonMaxWarnings,
		Description:   "Warning threshold reached during exam monitoring",
		PriorWarnings: warningCount,
		Evidence:      evidence,
		CreatedAt:     now,
	}

	if err := repo.Expulsions.Create(ctx, expulsion); err != nil {
		return entity.Expulsion{}, err
	}

	eventULID, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		return entity.Expulsion{}, err
	}

	expulsionEvent := entity.MonitoringEvent{
		ID:         eventULID,
		AttemptID:  attempt.ID,
		StudentID:  attempt.StudentID,
		Kind:       entity.EventExpulsion,
		Confidence: 100,
		Details: map[string]interface{}{
			"reason":         string(entity.ReasonMaxWarnings),
			"prior_warnings": warningCount,
		},
		OccurredAt: now,
	}

	if err := repo.Events.Create(ctx, expulsionEvent); err != nil {
		return entity.Expulsion{}, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"attempt_id": attempt.ID,
		"warnings":   warningCount,
	}).Warn("Attempt expelled after reaching warning threshold")

	return expulsion, nil
}

func (s *escalationDomainImpl) existingExpulsion(ctx context.Context, attemptID string) (monitoring.EscalationOutcome, error) {
	repo, err := s.repo.NewClient(false)
	if err != nil {
		return monitoring.EscalationOutcome{}, err
	}

	existing, err := repo.Expulsions.GetByAttempt(ctx, attemptID)
	if err != nil {
		return monitoring.EscalationOutcome{}, err
	}

	return monitoring.EscalationOutcome{ExpulsionCreated: &existing}, nil
}

// effectiveConfig reads the per-exam config through the Redis cache,
// falling back to the database and finally to defaults when the exam has
// no configuration row.
func (s *escalationDomainImpl) effectiveConfig(ctx context.Context, examID string) entity.MonitoringConfig {
	defaults := entity.MonitoringConfig{
		ExamID:             examID,
		MaxWarnings:        entity.DefaultMaxWarnings,
		DedupWindowSeconds: entity.DefaultDedupWindowSeconds,
		MinConfidence:      entity.DefaultMinConfidence,
	}

	if examID == "" {
		return defaults
	}

	if cached, err := s.redisServer.GetMonitoringConfig(ctx, examID); err == nil {
		return normalizeConfig(cached)
	}

	repo, err := s.repo.NewClient(false)
	if err != nil {
		return defaults
	}

	config, err := repo.Configs.GetByExam(ctx, examID)
	if err != nil {
		return defaults
	}

	config = normalizeConfig(config)
	if err := s.redisServer.SetMonitoringConfig(ctx, examID, config, configCacheTTL); err != nil {
		s.log.WithFields(logrus.Fields{
			"exam_id": examID,
			"error":   err.Error(),
		}).Warn("Failed to cache monitoring config")
	}

	return config
}

func normalizeConfig(config entity.MonitoringConfig) entity.MonitoringConfig {
	if config.MaxWarnings <= 0 {
		config.MaxWarnings = entity.DefaultMaxWarnings
	}
	if config.DedupWindowSeconds <= 0 {
		config.DedupWindowSeconds = entity.DefaultDedupWindowSeconds
	}
	if config.MinConfidence <= 0 {
		config.MinConfidence = entity.DefaultMinConfidence
	}
	return config
}

// notifyExpulsion mails the configured reviewers. Best effort: a failure
// is reported in the outcome's errors list, never rolled back.
func (s *escalationDomainImpl) notifyExpulsion(ctx context.Context, expulsion entity.Expulsion) error {
	recipients := alertRecipients()
	if len(recipients) == 0 {
		return nil
	}

	if err := s.smtpMailer.SendExpulsionNotice(recipients, expulsion); err != nil {
		s.log.WithFields(logrus.Fields{
			"attempt_id": expulsion.AttemptID,
			"error":      err.Error(),
		}).Error("Failed to send expulsion notice")
		return err
	}

	repo, err := s.repo.NewClient(false)
	if err != nil {
		return nil
	}
	if err := repo.Expulsions.MarkNotified(ctx, expulsion.ID, true, true); err != nil {
		s.log.WithFields(logrus.Fields{
			"expulsion_id": expulsion.ID,
			"error":        err.Error(),
		}).Warn("Failed to mark expulsion as notified")
	}

	return nil
}

func alertRecipients() []string {
	raw := os.Getenv("MONITOR_ALERT_EMAILS")
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	recipients := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			recipients = append(recipients, trimmed)
		}
	}
	return recipients
}
