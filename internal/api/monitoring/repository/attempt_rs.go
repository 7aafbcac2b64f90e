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
	"github.com/sirupsen/logrus"
)

type AttemptDB struct {
	ID               sql.NullString `db:"id"`
	StudentID        sql.NullString `db:"student_id"`
	StudentName      sql.NullString `db:"student_name"`
	ExamID           sql.NullString `db:"exam_id"`
	ExamTitle        sql.NullString `db:"exam_title"`
	Status           sql.NullString `db:"status"`
	StartedAt        sql.NullTime   `db:"started_at"`
	EndedAt          sql.NullTime   `db:"ended_at"`
	TotalTimeSeconds sql.NullInt64  `db:"total_time_seconds"`
}

func (r *attemptRepository) LockForEscalation(ctx context.Context, attemptID string) error {
	requestID := contextPkg.GetRequestID(ctx)
	argsKV := map[string]interface{}{
		"attempt_id": attemptID,
	}

	query, args, err := sqlx.Named(queryAdvisoryLockAttempt, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("LockForEscalation named query preparation err")
		return err
	}

	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"attempt_id": attemptID,
			"error":      err.Error(),
		}).Error("LockForEscalation execution err")
		return err
	}

	return nil
}

func (r *attemptRepository) GetByID(ctx context.Context, id string) (entity.ExamAttempt, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var attempt AttemptDB

	argsKV := map[string]interface{}{
		"id": id,
	}

	query, args, err := sqlx.Named(queryGetAttemptByID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetByID named query preparation err")
		return entity.ExamAttempt{}, err
	}

	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&attempt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"attempt_id": id,
			}).Warn("GetByID no attempt found")
			return entity.ExamAttempt{}, monitoring.ErrAttemptNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetByID execution err")
		return entity.ExamAttempt{}, err
	}

	return r.makeAttempt(attempt), nil
}

func (r *attemptRepository) MarkExpelled(ctx context.Context, id string, endedAt time.Time, totalTimeSeconds int) error {
	requestID := contextPkg.GetRequestID(ctx)
	argsKV := map[string]interface{}{
		"id":                 id,
		"status":             string(entity.AttemptExpelled),
		"ended_at":           endedAt,
		"total_time_seconds": totalTimeSeconds,
	}

	query, args, err := sqlx.Named(queryMarkAttemptExpelled, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("MarkExpelled named query preparation err")
		return err
	}

	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"attempt_id": id,
			"error":      err.Error(),
		}).Error("MarkExpelled execution err")
		return err
	}

	return nil
}

func (r *attemptRepository) makeAttempt(attempt AttemptDB) entity.ExamAttempt {
	var startedAt time.Time
	if attempt.StartedAt.Valid {
		startedAt = attempt.StartedAt.Time
	}

	var endedAt *time.Time
	if attempt.EndedAt.Valid {
		t := attempt.EndedAt.Time
		endedAt = &t
	}

	return entity.ExamAttempt{
		ID:               attempt.ID.String,
		StudentID:        attempt.StudentID.String,
		StudentName:      attempt.StudentName.String,
		ExamID:           attempt.ExamID.String,
		ExamTitle:        attempt.ExamTitle.String,
		Status:           entity.AttemptStatus(attempt.Status.String),
		StartedAt:        startedAt,
		EndedAt:          endedAt,
		TotalTimeSeconds: int(attempt.TotalTimeSeconds.Int64),
	}
}
