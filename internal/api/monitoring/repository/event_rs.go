package monitoringRepository

import (
	"ProctorGolang/internal/entity"
	contextPkg "ProctorGolang/pkg/context"
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type kindCountDB struct {
	Kind  sql.NullString `db:"kind"`
	Total sql.NullInt64  `db:"total"`
}

func (r *eventRepository) Create(ctx context.Context, event entity.MonitoringEvent) error {
	requestID := contextPkg.GetRequestID(ctx)

	details, err := marshalJSONMap(event.Details)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Create event details marshal err")
		return err
	}

	argsKV := map[string]interface{}{
		"id":           event.ID,
		"attempt_id":   event.AttemptID,
		"student_id":   event.StudentID,
		"kind":         string(event.Kind),
		"confidence":   event.Confidence,
		"details":      details,
		"evidence_url": event.EvidenceURL,
		"duration_ms":  event.DurationMs,
		"occurred_at":  event.OccurredAt,
	}

	query, args, err := sqlx.Named(queryCreateEvent, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for Create event")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"attempt_id": event.AttemptID,
			"kind":       event.Kind,
			"error":      err.Error(),
		}).Error("Database error when creating monitoring event")
		return err
	}

	return nil
}

func (r *eventRepository) Count(ctx context.Context, attemptID string) (int, error) {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"attempt_id": attemptID,
	}

	query, args, err := sqlx.Named(queryCountEvents, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Count named query preparation err")
		return 0, err
	}
	query = r.q.Rebind(query)

	var total int
	if err := r.q.QueryRowxContext(ctx, query, args...).Scan(&total); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Count execution err")
		return 0, err
	}

	return total, nil
}

func (r *eventRepository) CountByKind(ctx context.Context, attemptID string) (map[string]int, error) {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"attempt_id": attemptID,
	}

	query, args, err := sqlx.Named(queryCountEventsByKind, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountByKind named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	rows, err := r.q.QueryxContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountByKind execution err")
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var row kindCountDB
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		counts[row.Kind.String] = int(row.Total.Int64)
	}

	return counts, rows.Err()
}

func marshalJSONMap(m map[string]interface{}) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}
