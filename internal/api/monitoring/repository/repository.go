package monitoringRepository

import (
	"ProctorGolang/internal/api/monitoring"
	"ProctorGolang/internal/entity"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{
		DB:  db,
		log: log,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
}

type Repository interface {
	NewClient(tx bool) (Client, error)
}

func (r *repository) NewClient(tx bool) (Client, error) {
	var db sqlx.ExtContext
	var commitFunc, rollbackFunc func() error

	db = r.DB

	if tx {
		var err error
		txx, err := r.DB.Beginx()
		if err != nil {
			return Client{}, err
		}

		db = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		Attempts:   &attemptRepository{q: db, log: r.log},
		Events:     &eventRepository{q: db, log: r.log},
		Warnings:   &warningRepository{q: db, log: r.log},
		Expulsions: &expulsionRepository{q: db, log: r.log},
		Configs:    &configRepository{q: db, log: r.log},
		Commit:     commitFunc,
		Rollback:   rollbackFunc,
	}, nil
}

type Client struct {
	Attempts interface {
		// LockForEscalation serializes concurrent escalations for one
		// attempt. Only meaningful inside a transaction client; the lock
		// releases on commit or rollback.
		LockForEscalation(ctx context.Context, attemptID string) error
		GetByID(ctx context.Context, id string) (entity.ExamAttempt, error)
		MarkExpelled(ctx context.Context, id string, endedAt time.Time, totalTimeSeconds int) error
	}

	Events interface {
		Create(ctx context.Context, event entity.MonitoringEvent) error
		Count(ctx context.Context, attemptID string) (int, error)
		CountByKind(ctx context.Context, attemptID string) (map[string]int, error)
	}

	Warnings interface {
		Create(ctx context.Context, warning entity.Warning) error
		ExistsRecent(ctx context.Context, attemptID string, category entity.WarningCategory, since time.Time) (bool, error)
		Count(ctx context.Context, attemptID string) (int, error)
		CountByCategory(ctx context.Context, attemptID string) (map[string]int, error)
		RecentEvidence(ctx context.Context, attemptID string, limit int) ([]string, error)
		GetByID(ctx context.Context, id string) (entity.Warning, error)
		List(ctx context.Context, filter monitoring.WarningFilter) ([]entity.Warning, error)
		Resolve(ctx context.Context, id string, notes string) error
	}

	Expulsions interface {
		Create(ctx context.Context, expulsion entity.Expulsion) error
		GetByAttempt(ctx context.Context, attemptID string) (entity.Expulsion, error)
		MarkNotified(ctx context.Context, id string, teacher, admin bool) error
	}

	Configs interface {
		Create(ctx context.Context, config entity.MonitoringConfig) error
		GetByExam(ctx context.Context, examID string) (entity.MonitoringConfig, error)
		GetByID(ctx context.Context, id string) (entity.MonitoringConfig, error)
		List(ctx context.Context) ([]entity.MonitoringConfig, error)
		Update(ctx context.Context, config entity.MonitoringConfig) error
		Delete(ctx context.Context, id string) error
	}

	Commit   func() error
	Rollback func() error
}

type attemptRepository struct {
	q   sqlx.ExtContext
	log *logrus.Logger
}

type eventRepository struct {
	q   sqlx.ExtContext
	log *logrus.Logger
}

type warningRepository struct {
	q   sqlx.ExtContext
	log *logrus.Logger
}

type expulsionRepository struct {
	q   sqlx.ExtContext
	log *logrus.Logger
}

type configRepository struct {
	q   sqlx.ExtContext
	log *logrus.Logger
}
