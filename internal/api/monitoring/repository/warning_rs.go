package monitoringRepository

import (
	"ProctorGolang/internal/api/monitoring"
	"ProctorGolang/internal/entity"
	contextPkg "ProctorGolang/pkg/context"
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type WarningDB struct {
	ID              sql.NullString  `db:"id"`
	AttemptID       sql.NullString  `db:"attempt_id"`
	StudentID       sql.NullString  `db:"student_id"`
	StudentName     sql.NullString  `db:"student_name"`
	Category        sql.NullString  `db:"category"`
	Tier            sql.NullString  `db:"tier"`
	Description     sql.NullString  `db:"description"`
	Confidence      sql.NullFloat64 `db:"confidence"`
	EvidenceURL     sql.NullString  `db:"evidence_url"`
	Metadata        []byte          `db:"metadata"`
	Resolved        bool            `db:"resolved"`
	ResolutionNotes sql.NullString  `db:"resolution_notes"`
	CreatedAt       sql.NullTime    `db:"created_at"`
}

type categoryCountDB struct {
	Category sql.NullString `db:"category"`
	Total    sql.NullInt64  `db:"total"`
}

func (r *warningRepository) Create(ctx context.Context, warning entity.Warning) error {
	requestID := contextPkg.GetRequestID(ctx)

	metadata, err := marshalJSONMap(warning.Metadata)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Create warning metadata marshal err")
		return err
	}

	argsKV := map[string]interface{}{
		"id":               warning.ID,
		"attempt_id":       warning.AttemptID,
		"student_id":       warning.StudentID,
		"student_name":     warning.StudentName,
		"category":         string(warning.Category),
		"tier":             string(warning.Tier),
		"description":      warning.Description,
		"confidence":       warning.Confidence,
		"evidence_url":     warning.EvidenceURL,
		"metadata":         metadata,
		"resolved":         warning.Resolved,
		"resolution_notes": warning.ResolutionNotes,
		"created_at":       warning.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateWarning, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for Create warning")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"attempt_id": warning.AttemptID,
			"category":   warning.Category,
			"error":      err.Error(),
		}).Error("Database error when creating warning")
		return err
	}

	return nil
}

func (r *warningRepository) ExistsRecent(ctx context.Context, attemptID string, category entity.WarningCategory, since time.Time) (bool, error) {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"attempt_id": attemptID,
		"category":   string(category),
		"since":      since,
	}

	query, args, err := sqlx.Named(queryWarningExistsRecent, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ExistsRecent named query preparation err")
		return false, err
	}
	query = r.q.Rebind(query)

	var exists bool
	if err := r.q.QueryRowxContext(ctx, query, args...).Scan(&exists); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ExistsRecent execution err")
		return false, err
	}

	return exists, nil
}

func (r *warningRepository) Count(ctx context.Context, attemptID string) (int, error) {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"attempt_id": attemptID,
	}

	query, args, err := sqlx.Named(queryCountWarnings, argsKV)
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

func (r *warningRepository) CountByCategory(ctx context.Context, attemptID string) (map[string]int, error) {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"attempt_id": attemptID,
	}

	query, args, err := sqlx.Named(queryCountWarningsByCategory, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountByCategory named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	rows, err := r.q.QueryxContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountByCategory execution err")
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var row categoryCountDB
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		counts[row.Category.String] = int(row.Total.Int64)
	}

	return counts, rows.Err()
}

func (r *warningRepository) RecentEvidence(ctx context.Context, attemptID string, limit int) ([]string, error) {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"attempt_id": attemptID,
		"limit":      limit,
	}

	query, args, err := sqlx.Named(queryRecentEvidence, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("RecentEvidence named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	rows, err := r.q.QueryxContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("RecentEvidence execution err")
		return nil, err
	}
	defer rows.Close()

	urls := make([]string, 0, limit)
	for rows.Next() {
		var url sql.NullString
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		if url.String != "" {
			urls = append(urls, url.String)
		}
	}

	return urls, rows.Err()
}

func (r *warningRepository) GetByID(ctx context.Context, id string) (entity.Warning, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var warning WarningDB

	argsKV := map[string]interface{}{
		"id": id,
	}

	query, args, err := sqlx.Named(queryGetWarningByID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetByID named query preparation err")
		return entity.Warning{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&warning); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"warning_id": id,
			}).Warn("GetByID no warning found")
			return entity.Warning{}, monitoring.ErrWarningNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetByID execution err")
		return entity.Warning{}, err
	}

	return r.makeWarning(warning), nil
}

func (r *warningRepository) List(ctx context.Context, filter monitoring.WarningFilter) ([]entity.Warning, error) {
	requestID := contextPkg.GetRequestID(ctx)

	conditions := make([]string, 0, 3)
	argsKV := map[string]interface{}{}

	if filter.AttemptID != "" {
		conditions = append(conditions, "attempt_id = :attempt_id")
		argsKV["attempt_id"] = filter.AttemptID
	}
	if filter.StudentID != "" {
		conditions = append(conditions, "student_id = :student_id")
		argsKV["student_id"] = filter.StudentID
	}
	if filter.Resolved != nil {
		conditions = append(conditions, "resolved = :resolved")
		argsKV["resolved"] = *filter.Resolved
	}

	queryList := `
SELECT id, attempt_id, student_id, student_name, category, tier, description, confidence, evidence_url, metadata, resolved, resolution_notes, created_at
FROM warnings`
	if len(conditions) > 0 {
		queryList += "\n    WHERE " + strings.Join(conditions, " AND ")
	}
	queryList += "\nORDER BY created_at DESC"

	query, args, err := sqlx.Named(queryList, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("List named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	rows, err := r.q.QueryxContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("List execution err")
		return nil, err
	}
	defer rows.Close()

	warnings := make([]entity.Warning, 0)
	for rows.Next() {
		var row WarningDB
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		warnings = append(warnings, r.makeWarning(row))
	}

	return warnings, rows.Err()
}

func (r *warningRepository) Resolve(ctx context.Context, id string, notes string) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":               id,
		"resolution_notes": notes,
	}

	query, args, err := sqlx.Named(queryResolveWarning, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Resolve named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"warning_id": id,
			"error":      err.Error(),
		}).Error("Resolve execution err")
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"warning_id": id,
		}).Warn("Resolve no warning found")
		return monitoring.ErrWarningNotFound
	}

	return nil
}

func (r *warningRepository) makeWarning(warning WarningDB) entity.Warning {
	var createdAt time.Time
	if warning.CreatedAt.Valid {
		createdAt = warning.CreatedAt.Time
	}

	var metadata map[string]interface{}
	if len(warning.Metadata) > 0 {
		_ = json.Unmarshal(warning.Metadata, &metadata)
	}

	return entity.Warning{
		ID:              warning.ID.String,
		AttemptID:       warning.AttemptID.String,
		StudentID:       warning.StudentID.String,
		StudentName:     warning.StudentName.String,
		Category:        entity.WarningCategory(warning.Category.String),
		Tier:            entity.SeverityTier(warning.Tier.String),
		Description:     warning.Description.String,
		Confidence:      warning.Confidence.Float64,
		EvidenceURL:     warning.EvidenceURL.String,
		Metadata:        metadata,
		Resolved:        warning.Resolved,
		ResolutionNotes: warning.ResolutionNotes.String,
		CreatedAt:       createdAt,
	}
}
