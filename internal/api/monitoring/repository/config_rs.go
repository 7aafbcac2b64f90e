package monitoringRepository

import (
	"ProctorGolang/internal/api/monitoring"
	"ProctorGolang/internal/entity"
	contextPkg "ProctorGolang/pkg/context"
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type ConfigDB struct {
	ID                     sql.NullString  `db:"id"`
	ExamID                 sql.NullString  `db:"exam_id"`
	MaxWarnings            sql.NullInt64   `db:"max_warnings"`
	DedupWindowSeconds     sql.NullInt64   `db:"dedup_window_seconds"`
	MinConfidence          sql.NullFloat64 `db:"min_confidence"`
	MaxSecondsNoFace       sql.NullInt64   `db:"max_seconds_no_face"`
	MaxSecondsGazeDeviated sql.NullInt64   `db:"max_seconds_gaze_deviated"`
	AllowMultiplePeople    bool            `db:"allow_multiple_people"`
	PeriodicCapture        bool            `db:"periodic_capture"`
	CaptureIntervalSeconds sql.NullInt64   `db:"capture_interval_seconds"`
	RequireFullscreen      bool            `db:"require_fullscreen"`
	CreatedAt              sql.NullTime    `db:"created_at"`
	UpdatedAt              sql.NullTime    `db:"updated_at"`
}

func (r *configRepository) Create(ctx context.Context, config entity.MonitoringConfig) error {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(queryCreateConfig, r.configArgs(config))
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for Create config")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505":
				r.log.WithFields(logrus.Fields{
					"request_id": requestID,
					"exam_id":    config.ExamID,
				}).Warn("Config already exists for exam")
				return monitoring.ErrConfigExists
			}
		}

		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating config")
		return err
	}

	return nil
}

func (r *configRepository) GetByExam(ctx context.Context, examID string) (entity.MonitoringConfig, error) {
	return r.getOne(ctx, queryGetConfigByExam, map[string]interface{}{"exam_id": examID})
}

func (r *configRepository) GetByID(ctx context.Context, id string) (entity.MonitoringConfig, error) {
	return r.getOne(ctx, queryGetConfigByID, map[string]interface{}{"id": id})
}

func (r *configRepository) getOne(ctx context.Context, namedQuery string, argsKV map[string]interface{}) (entity.MonitoringConfig, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var config ConfigDB

	query, args, err := sqlx.Named(namedQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Config named query preparation err")
		return entity.MonitoringConfig{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&config); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.MonitoringConfig{}, monitoring.ErrConfigNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Config query execution err")
		return entity.MonitoringConfig{}, err
	}

	return r.makeConfig(config), nil
}

func (r *configRepository) List(ctx context.Context) ([]entity.MonitoringConfig, error) {
	requestID := contextPkg.GetRequestID(ctx)

	rows, err := r.q.QueryxContext(ctx, r.q.Rebind(queryListConfigs))
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("List execution err")
		return nil, err
	}
	defer rows.Close()

	configs := make([]entity.MonitoringConfig, 0)
	for rows.Next() {
		var row ConfigDB
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		configs = append(configs, r.makeConfig(row))
	}

	return configs, rows.Err()
}

func (r *configRepository) Update(ctx context.Context, config entity.MonitoringConfig) error {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(queryUpdateConfig, r.configArgs(config))
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Update named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Update execution err")
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return monitoring.ErrConfigNotFound
	}

	return nil
}

func (r *configRepository) Delete(ctx context.Context, id string) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id": id,
	}

	query, args, err := sqlx.Named(queryDeleteConfig, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Delete named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Delete execution err")
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return monitoring.ErrConfigNotFound
	}

	return nil
}

func (r *configRepository) configArgs(config entity.MonitoringConfig) map[string]interface{} {
	return map[string]interface{}{
		"id":                        config.ID,
		"exam_id":                   config.ExamID,
		"max_warnings":              config.MaxWarnings,
		"dedup_window_seconds":      config.DedupWindowSeconds,
		"min_confidence":            config.MinConfidence,
		"max_seconds_no_face":       config.MaxSecondsNoFace,
		"max_seconds_gaze_deviated": config.MaxSecondsGazeDeviated,
		"allow_multiple_people":     config.AllowMultiplePeople,
		"periodic_capture":          config.PeriodicCapture,
		"capture_interval_seconds":  config.CaptureIntervalSeconds,
		"require_fullscreen":        config.RequireFullscreen,
		"created_at":                config.CreatedAt,
		"updated_at":                config.UpdatedAt,
	}
}

func (r *configRepository) makeConfig(config ConfigDB) entity.MonitoringConfig {
	var createdAt, updatedAt time.Time
	if config.CreatedAt.Valid {
		createdAt = config.CreatedAt.Time
	}
	if config.UpdatedAt.Valid {
		updatedAt = config.UpdatedAt.Time
	}

	return entity.MonitoringConfig{
		ID:                     config.ID.String,
		ExamID:                 config.ExamID.String,
		MaxWarnings:            int(config.MaxWarnings.Int64),
		DedupWindowSeconds:     int(config.DedupWindowSeconds.Int64),
		MinConfidence:          config.MinConfidence.Float64,
		MaxSecondsNoFace:       int(config.MaxSecondsNoFace.Int64),
		MaxSecondsGazeDeviated: int(config.MaxSecondsGazeDeviated.Int64),
		AllowMultiplePeople:    config.AllowMultiplePeople,
		PeriodicCapture:        config.PeriodicCapture,
		CaptureIntervalSeconds: int(config.CaptureIntervalSeconds.Int64),
		RequireFullscreen:      config.RequireFullscreen,
		CreatedAt:              createdAt,
		UpdatedAt:              updatedAt,
	}
}
