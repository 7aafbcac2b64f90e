package monitoringService

import (
	"ProctorGolang/internal/api/monitoring"
	"ProctorGolang/internal/entity"
	contextPkg "ProctorGolang/pkg/context"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func (s *reviewDomainImpl) ListWarnings(ctx context.Context, filter monitoring.WarningFilter) (monitoring.WarningListResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return monitoring.WarningListResponse{}, err
	}

	warnings, err := repo.Warnings.List(ctx, filter)
	if err != nil {
		return monitoring.WarningListResponse{}, err
	}

	return monitoring.WarningListResponse{
		Total:    len(warnings),
		Warnings: warnings,
	}, nil
}

func (s *reviewDomainImpl) ResolveWarning(ctx context.Context, id string, notes string) (entity.Warning, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return entity.Warning{}, err
	}

	if err := repo.Warnings.Resolve(ctx, id, notes); err != nil {
		if errors.Is(err, monitoring.ErrWarningNotFound) {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"warning_id": id,
			}).Warn("Warning not found")
			return entity.Warning{}, monitoring.ErrWarningNotFound
		}
		return entity.Warning{}, err
	}

	return repo.Warnings.GetByID(ctx, id)
}

// AttemptSummary aggregates the monitoring trail of one attempt: event
// counts by kind, warning counts by category, and the expulsion, if any.
func (s *reviewDomainImpl) AttemptSummary(ctx context.Context, attemptID string) (monitoring.AttemptSummaryResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return monitoring.AttemptSummaryResponse{}, err
	}

	if _, err := repo.Attempts.GetByID(ctx, attemptID); err != nil {
		return monitoring.AttemptSummaryResponse{}, err
	}

	eventCounts, err := repo.Events.CountByKind(ctx, attemptID)
	if err != nil {
		return monitoring.AttemptSummaryResponse{}, err
	}

	warningCounts, err := repo.Warnings.CountByCategory(ctx, attemptID)
	if err != nil {
		return monitoring.AttemptSummaryResponse{}, err
	}

	totalEvents := 0
	for _, n := range eventCounts {
		totalEvents += n
	}
	totalWarnings := 0
	for _, n := range warningCounts {
		totalWarnings += n
	}

	summary := monitoring.AttemptSummaryResponse{
		AttemptID:          attemptID,
		TotalEvents:        totalEvents,
		TotalWarnings:      totalWarnings,
		EventsByKind:       eventCounts,
		WarningsByCategory: warningCounts,
	}

	expulsion, err := repo.Expulsions.GetByAttempt(ctx, attemptID)
	if err == nil {
		summary.Expelled = true
		summary.ExpulsionReason = string(expulsion.Reason)
	} else if !errors.Is(err, monitoring.ErrExpulsionNotFound) {
		return monitoring.AttemptSummaryResponse{}, err
	}

	return summary, nil
}
