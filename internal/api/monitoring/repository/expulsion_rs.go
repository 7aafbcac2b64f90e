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

type ExpulsionDB struct {
	ID              sql.NullString  `db:"id"`
	AttemptID       sql.NullString  `db:"attempt_id"`
	StudentID       sql.NullString  `db:"student_id"`
	StudentName     sql.NullString  `db:"student_name"`
	ExamID          sql.NullString  `db:"exam_id"`
	ExamTitle       sql.NullString  `db:"exam_title"`
	Reason          sql.NullString  `db:"reason"`
	Description     sql.NullString  `db:"description"`
	PriorWarnings   sql.NullInt64   `db:"prior_warnings"`
	Evidence        []byte          `db:"evidence"`
	TeacherNotified bool            `db:"teacher_notified"`
	AdminNotified   bool            `db:"admin_notified"`
	AssignedGrade   sql.NullFloat64 `db:"assigned_grade"`
	CreatedAt       sql.NullTime    `db:"created_at"`
}

func (r *expulsionRepository) Create(ctx context.Context, expulsion entity.Expulsion) error {
	requestID := contextPkg.GetRequestID(ctx)

	evidence := expulsion.Evidence
	if evidence == nil {
		evidence = []string{}
	}
	evidenceJSON, err := json.Marshal(evidence)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Create expulsion evidence marshal err")
		return err
	}

	argsKV := map[string]interface{}{
		"id":               expulsion.ID,
		"attempt_id":       expulsion.AttemptID,
		"student_id":       expulsion.StudentID,
		"student_name":     expulsion.StudentName,
		"exam_id":          expulsion.ExamID,
		"exam_title":       expulsion.ExamTitle,
		"reason":           string(expulsion.Reason),
		"description":      expulsion.Description,
		"prior_warnings":   expulsion.PriorWarnings,
		"evidence":         evidenceJSON,
		"teacher_notified": expulsion.TeacherNotified,
		"admin_notified":   expulsion.AdminNotified,
		"assigned_grade":   expulsion.AssignedGrade,
		"created_at":       expulsion.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateExpulsion, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for Create expulsion")
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
					"attempt_id": expulsion.AttemptID,
				}).Warn("Expulsion already exists for attempt")
				return monitoring.ErrExpulsionExists
			}
		}

		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"attempt_id": expulsion.AttemptID,
			"error":      err.Error(),
		}).Error("Database error when creating expulsion")
		return err
	}

	return nil
}

func (r *expulsionRepository) GetByAttempt(ctx context.Context, attemptID string) (entity.Expulsion, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var expulsion ExpulsionDB

	argsKV := map[string]interface{}{
		"attempt_id": attemptID,
	}

	query, args, err := sqlx.Named(queryGetExpulsionByAttempt, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetByAttempt named query preparation err")
		return entity.Expulsion{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&expulsion); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Expulsion{}, monitoring.ErrExpulsionNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetByAttempt execution err")
		return entity.Expulsion{}, err
	}

	return r.makeExpulsion(expulsion), nil
}

func (r *expulsionRepository) MarkNotified(ctx context.Context, id string, teacher, admin bool) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":               id,
		"teacher_notified": teacher,
		"admin_notified":   admin,
	}

	query, args, err := sqlx.Named(queryMarkExpulsionNotified, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("MarkNotified named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("MarkNotified execution err")
		return err
	}

	return nil
}

func (r *expulsionRepository) makeExpulsion(expulsion ExpulsionDB) entity.Expulsion {
	var createdAt time.Time
	if expulsion.CreatedAt.Valid {
		createdAt = expulsion.CreatedAt.Time
	}

	evidence := []string{}
	if len(expulsion.Evidence) > 0 {
		_ = json.Unmarshal(expulsion.Evidence, &evidence)
	}

	return entity.Expulsion{
		ID:              expulsion.ID.String,
		AttemptID:       expulsion.AttemptID.String,
		StudentID:       expulsion.StudentID.String,
		StudentName:     expulsion.StudentName.String,
		ExamID:          expulsion.ExamID.String,
		ExamTitle:       expulsion.ExamTitle.String,
		Reason:          entity.ExpulsionReason(expulsion.Reason.String),
		Description:     expulsion.Description.String,
		PriorWarnings:   int(expulsion.PriorWarnings.Int64),
		Evidence:        evidence,
		TeacherNotified: expulsion.TeacherNotified,
		AdminNotified:   expulsion.AdminNotified,
		AssignedGrade:   expulsion.AssignedGrade.Float64,
		CreatedAt:       createdAt,
	}
}
