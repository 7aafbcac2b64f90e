package monitoringService

import (
	"ProctorGolang/internal/api/monitoring"
	"ProctorGolang/internal/entity"
	contextPkg "ProctorGolang/pkg/context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func (s *configDomainImpl) CreateConfig(ctx context.Context, req monitoring.UpsertConfigRequest) (entity.MonitoringConfig, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return entity.MonitoringConfig{}, err
	}

	ULID, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		return entity.MonitoringConfig{}, err
	}

	now := time.Now()
	config := normalizeConfig(entity.MonitoringConfig{
		ID:                     ULID,
		ExamID:                 req.ExamID,
		MaxWarnings:            req.MaxWarnings,
		DedupWindowSeconds:     req.DedupWindowSeconds,
		MinConfidence:          req.MinConfidence,
		MaxSecondsNoFace:       req.MaxSecondsNoFace,
		MaxSecondsGazeDeviated: req.MaxSecondsGazeDeviated,
		AllowMultiplePeople:    req.AllowMultiplePeople,
		PeriodicCapture:        req.PeriodicCapture,
		CaptureIntervalSeconds: req.CaptureIntervalSeconds,
		RequireFullscreen:      req.RequireFullscreen,
		CreatedAt:              now,
		UpdatedAt:              now,
	})

	if err := repo.Configs.Create(ctx, config); err != nil {
		return entity.MonitoringConfig{}, err
	}

	if err := s.redisServer.InvalidateMonitoringConfig(ctx, config.ExamID); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"exam_id":    config.ExamID,
		}).Warn("Failed to invalidate config cache")
	}

	return config, nil
}

func (s *configDomainImpl) GetConfigByExam(ctx context.Context, examID string) (entity.MonitoringConfig, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return entity.MonitoringConfig{}, err
	}

	return repo.Configs.GetByExam(ctx, examID)
}

func (s *configDomainImpl) ListConfigs(ctx context.Context) (monitoring.ConfigListResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return monitoring.ConfigListResponse{}, err
	}

	configs, err := repo.Configs.List(ctx)
	if err != nil {
		return monitoring.ConfigListResponse{}, err
	}

	return monitoring.ConfigListResponse{
		Total:   len(configs),
		Configs: configs,
	}, nil
}

func (s *configDomainImpl) UpdateConfig(ctx context.Context, id string, req monitoring.UpsertConfigRequest) (entity.MonitoringConfig, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return entity.MonitoringConfig{}, err
	}

	current, err := repo.Configs.GetByID(ctx, id)
	if err != nil {
		return entity.MonitoringConfig{}, err
	}

	updated := normalizeConfig(entity.MonitoringConfig{
		ID:                     current.ID,
		ExamID:                 current.ExamID,
		MaxWarnings:            req.MaxWarnings,
		DedupWindowSeconds:     req.DedupWindowSeconds,
		MinConfidence:          req.MinConfidence,
		MaxSecondsNoFace:       req.MaxSecondsNoFace,
		MaxSecondsGazeDeviated: req.MaxSecondsGazeDeviated,
		AllowMultiplePeople:    req.AllowMultiplePeople,
		PeriodicCapture:        req.PeriodicCapture,
		CaptureIntervalSeconds: req.CaptureIntervalSeconds,
		RequireFullscreen:      req.RequireFullscreen,
		CreatedAt:              current.CreatedAt,
		UpdatedAt:              time.Now(),
	})

	if err := repo.Configs.Update(ctx, updated); err != nil {
		return entity.MonitoringConfig{}, err
	}

	if err := s.redisServer.InvalidateMonitoringConfig(ctx, updated.ExamID); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"exam_id":    updated.ExamID,
		}).Warn("Failed to invalidate config cache")
	}

	return updated, nil
}

func (s *configDomainImpl) DeleteConfig(ctx context.Context, id string) error {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return err
	}

	config, err := repo.Configs.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := repo.Configs.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.redisServer.InvalidateMonitoringConfig(ctx, config.ExamID); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"exam_id":    config.ExamID,
		}).Warn("Failed to invalidate config cache")
	}

	return nil
}
