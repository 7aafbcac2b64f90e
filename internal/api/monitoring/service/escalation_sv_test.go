package monitoringService

import (
	"ProctorGolang/internal/api/monitoring"
	monitoringRepository "ProctorGolang/internal/api/monitoring/repository"
	"ProctorGolang/internal/entity"
	"ProctorGolang/pkg/redis"
	"ProctorGolang/pkg/utils"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"
)

// memStore backs the fake repository. A per-attempt mutex taken by
// LockForEscalation and released on Commit/Rollback mirrors the advisory
// lock serialization of the real repository.
type memStore struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex

	attempts   map[string]entity.ExamAttempt
	events     []entity.MonitoringEvent
	warnings   []entity.Warning
	expulsions map[string]entity.Expulsion
	configs    map[string]entity.MonitoringConfig

	// raceExpulsion, when set, lands in the store right before the next
	// expulsion insert, standing in for a competing writer that slipped
	// past the per-attempt lock.
	raceExpulsion *entity.Expulsion
}

func newMemStore() *memStore {
	return &memStore{
		locks:      map[string]*sync.Mutex{},
		attempts:   map[string]entity.ExamAttempt{},
		expulsions: map[string]entity.Expulsion{},
		configs:    map[string]entity.MonitoringConfig{},
	}
}

func (s *memStore) attemptMutex(attemptID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locks[attemptID]; !ok {
		s.locks[attemptID] = &sync.Mutex{}
	}
	return s.locks[attemptID]
}

func (s *memStore) warningCount(attemptID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.warnings {
		if w.AttemptID == attemptID {
			n++
		}
	}
	return n
}

func (s *memStore) eventKinds(attemptID string) []entity.EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]entity.EventKind, 0, len(s.events))
	for _, e := range s.events {
		if e.AttemptID == attemptID {
			kinds = append(kinds, e.Kind)
		}
	}
	return kinds
}

type fakeRepo struct {
	store *memStore
}

func (f *fakeRepo) NewClient(tx bool) (monitoringRepository.Client, error) {
	state := &fakeTxnState{}
	return monitoringRepository.Client{
		Attempts:   &fakeAttempts{store: f.store, tx: tx, state: state},
		Events:     &fakeEvents{store: f.store},
		Warnings:   &fakeWarnings{store: f.store},
		Expulsions: &fakeExpulsions{store: f.store},
		Configs:    &fakeConfigs{store: f.store},
		Commit:     state.finish,
		Rollback:   state.finish,
	}, nil
}

type fakeTxnState struct {
	held []*sync.Mutex
}

func (t *fakeTxnState) finish() error {
	for _, m := range t.held {
		m.Unlock()
	}
	t.held = nil
	return nil
}

type fakeAttempts struct {
	store *memStore
	tx    bool
	state *fakeTxnState
}

func (f *fakeAttempts) LockForEscalation(ctx context.Context, attemptID string) error {
	if !f.tx {
		return nil
	}
	m := f.store.attemptMutex(attemptID)
	m.Lock()
	f.state.held = append(f.state.held, m)
	return nil
}

func (f *fakeAttempts) GetByID(ctx context.Context, id string) (entity.ExamAttempt, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	attempt, ok := f.store.attempts[id]
	if !ok {
		return entity.ExamAttempt{}, monitoring.ErrAttemptNotFound
	}
	return attempt, nil
}

func (f *fakeAttempts) MarkExpelled(ctx context.Context, id string, endedAt time.Time, totalTimeSeconds int) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	attempt, ok := f.store.attempts[id]
	if !ok {
		return monitoring.ErrAttemptNotFound
	}
	attempt.Status = entity.AttemptExpelled
	attempt.EndedAt = &endedAt
	attempt.TotalTimeSeconds = totalTimeSeconds
	f.store.attempts[id] = attempt
	return nil
}

type fakeEvents struct {
	store *memStore
}

func (f *fakeEvents) Create(ctx context.Context, event entity.MonitoringEvent) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	f.store.events = append(f.store.events, event)
	return nil
}

func (f *fakeEvents) Count(ctx context.Context, attemptID string) (int, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	n := 0
	for _, e := range f.store.events {
		if e.AttemptID == attemptID {
			n++
		}
	}
	return n, nil
}

func (f *fakeEvents) CountByKind(ctx context.Context, attemptID string) (map[string]int, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	counts := map[string]int{}
	for _, e := range f.store.events {
		if e.AttemptID == attemptID {
			counts[string(e.Kind)]++
		}
	}
	return counts, nil
}

type fakeWarnings struct {
	store *memStore
}

func (f *fakeWarnings) Create(ctx context.Context, warning entity.Warning) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	f.store.warnings = append(f.store.warnings, warning)
	return nil
}

func (f *fakeWarnings) ExistsRecent(ctx context.Context, attemptID string, category entity.WarningCategory, since time.Time) (bool, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, w := range f.store.warnings {
		if w.AttemptID == attemptID && w.Category == category && !w.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeWarnings) Count(ctx context.Context, attemptID string) (int, error) {
	return f.store.warningCount(attemptID), nil
}

func (f *fakeWarnings) CountByCategory(ctx context.Context, attemptID string) (map[string]int, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	counts := map[string]int{}
	for _, w := range f.store.warnings {
		if w.AttemptID == attemptID {
			counts[string(w.Category)]++
		}
	}
	return counts, nil
}

func (f *fakeWarnings) RecentEvidence(ctx context.Context, attemptID string, limit int) ([]string, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	evidence := make([]string, 0, limit)
	for i := len(f.store.warnings) - 1; i >= 0 && len(evidence) < limit; i-- {
		w := f.store.warnings[i]
		if w.AttemptID == attemptID && w.EvidenceURL != "" {
			evidence = append(evidence, w.EvidenceURL)
		}
	}
	return evidence, nil
}

func (f *fakeWarnings) GetByID(ctx context.Context, id string) (entity.Warning, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, w := range f.store.warnings {
		if w.ID == id {
			return w, nil
		}
	}
	return entity.Warning{}, monitoring.ErrWarningNotFound
}

func (f *fakeWarnings) List(ctx context.Context, filter monitoring.WarningFilter) ([]entity.Warning, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	matched := make([]entity.Warning, 0, len(f.store.warnings))
	for i := len(f.store.warnings) - 1; i >= 0; i-- {
		w := f.store.warnings[i]
		if filter.AttemptID != "" && w.AttemptID != filter.AttemptID {
			continue
		}
		if filter.StudentID != "" && w.StudentID != filter.StudentID {
			continue
		}
		if filter.Resolved != nil && w.Resolved != *filter.Resolved {
			continue
		}
		matched = append(matched, w)
	}
	return matched, nil
}

func (f *fakeWarnings) Resolve(ctx context.Context, id string, notes string) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for i, w := range f.store.warnings {
		if w.ID == id {
			f.store.warnings[i].Resolved = true
			f.store.warnings[i].ResolutionNotes = notes
			return nil
		}
	}
	return monitoring.ErrWarningNotFound
}

type fakeExpulsions struct {
	store *memStore
}

func (f *fakeExpulsions) Create(ctx context.Context, expulsion entity.Expulsion) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if f.store.raceExpulsion != nil {
		f.store.expulsions[f.store.raceExpulsion.AttemptID] = *f.store.raceExpulsion
		f.store.raceExpulsion = nil
	}
	if _, ok := f.store.expulsions[expulsion.AttemptID]; ok {
		return monitoring.ErrExpulsionExists
	}
	f.store.expulsions[expulsion.AttemptID] = expulsion
	return nil
}

func (f *fakeExpulsions) GetByAttempt(ctx context.Context, attemptID string) (entity.Expulsion, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	expulsion, ok := f.store.expulsions[attemptID]
	if !ok {
		return entity.Expulsion{}, monitoring.ErrExpulsionNotFound
	}
	return expulsion, nil
}

func (f *fakeExpulsions) MarkNotified(ctx context.Context, id string, teacher, admin bool) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for attemptID, e := range f.store.expulsions {
		if e.ID == id {
			e.TeacherNotified = teacher
			e.AdminNotified = admin
			f.store.expulsions[attemptID] = e
			return nil
		}
	}
	return monitoring.ErrExpulsionNotFound
}

type fakeConfigs struct {
	store *memStore
}

func (f *fakeConfigs) Create(ctx context.Context, config entity.MonitoringConfig) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, c := range f.store.configs {
		if c.ExamID == config.ExamID {
			return monitoring.ErrConfigExists
		}
	}
	f.store.configs[config.ID] = config
	return nil
}

func (f *fakeConfigs) GetByExam(ctx context.Context, examID string) (entity.MonitoringConfig, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, c := range f.store.configs {
		if c.ExamID == examID {
			return c, nil
		}
	}
	return entity.MonitoringConfig{}, monitoring.ErrConfigNotFound
}

func (f *fakeConfigs) GetByID(ctx context.Context, id string) (entity.MonitoringConfig, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	config, ok := f.store.configs[id]
	if !ok {
		return entity.MonitoringConfig{}, monitoring.ErrConfigNotFound
	}
	return config, nil
}

func (f *fakeConfigs) List(ctx context.Context) ([]entity.MonitoringConfig, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	configs := make([]entity.MonitoringConfig, 0, len(f.store.configs))
	for _, c := range f.store.configs {
		configs = append(configs, c)
	}
	return configs, nil
}

func (f *fakeConfigs) Update(ctx context.Context, config entity.MonitoringConfig) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if _, ok := f.store.configs[config.ID]; !ok {
		return monitoring.ErrConfigNotFound
	}
	f.store.configs[config.ID] = config
	return nil
}

func (f *fakeConfigs) Delete(ctx context.Context, id string) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if _, ok := f.store.configs[id]; !ok {
		return monitoring.ErrConfigNotFound
	}
	delete(f.store.configs, id)
	return nil
}

type fakeRedis struct {
	mu      sync.Mutex
	configs map[string]entity.MonitoringConfig
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{configs: map[string]entity.MonitoringConfig{}}
}

func (r *fakeRedis) SetMonitoringConfig(ctx context.Context, examID string, cfg entity.MonitoringConfig, expiration time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[examID] = cfg
	return nil
}

func (r *fakeRedis) GetMonitoringConfig(ctx context.Context, examID string) (entity.MonitoringConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.configs[examID]
	if !ok {
		return entity.MonitoringConfig{}, redis.ErrConfigNotCached
	}
	return cfg, nil
}

func (r *fakeRedis) InvalidateMonitoringConfig(ctx context.Context, examID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.configs, examID)
	return nil
}

type fakeSMTP struct {
	mu   sync.Mutex
	sent [][]string
	err  error
}

func (f *fakeSMTP) SendExpulsionNotice(recipients []string, expulsion entity.Expulsion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, recipients)
	return nil
}

type escalationFixture struct {
	store *memStore
	redis *fakeRedis
	smtp  *fakeSMTP
	svc   MonitoringService
	esc   EscalationDomain
}

func newEscalationFixture() *escalationFixture {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	store := newMemStore()
	fredis := newFakeRedis()
	fsmtp := &fakeSMTP{}

	svc := New(log, &fakeRepo{store: store}, fredis, fsmtp, nil, utils.New())
	return &escalationFixture{
		store: store,
		redis: fredis,
		smtp:  fsmtp,
		svc:   svc,
		esc:   svc.Escalation(),
	}
}

func (f *escalationFixture) seedAttempt(status entity.AttemptStatus) {
	f.store.attempts["att-1"] = entity.ExamAttempt{
		ID:          "att-1",
		StudentID:   "stu-1",
		StudentName: "Jane Roe",
		ExamID:      "exam-1",
		ExamTitle:   "Algebra Final",
		Status:      status,
		StartedAt:   time.Now().Add(-10 * time.Minute),
	}
}

func (f *escalationFixture) seedWarning(category entity.WarningCategory, createdAt time.Time) {
	f.store.warnings = append(f.store.warnings, entity.Warning{
		ID:          fmt.Sprintf("warn-seed-%d", len(f.store.warnings)),
		AttemptID:   "att-1",
		StudentID:   "stu-1",
		Category:    category,
		Tier:        entity.TierModerate,
		EvidenceURL: fmt.Sprintf("https://cdn.example.com/evidence/seed-%d.jpg", len(f.store.warnings)),
		CreatedAt:   createdAt,
	})
}

func testEvent(kind entity.EventKind, id string) entity.MonitoringEvent {
	return entity.MonitoringEvent{
		ID:          id,
		AttemptID:   "att-1",
		StudentID:   "stu-1",
		Kind:        kind,
		Confidence:  92.5,
		EvidenceURL: "https://cdn.example.com/evidence/" + id + ".jpg",
		OccurredAt:  time.Now(),
	}
}

func TestHandleEventGuards(t *testing.T) {
	Convey("Given a finished attempt", t, func() {
		f := newEscalationFixture()
		f.seedAttempt(entity.AttemptFinished)

		outcome, err := f.esc.HandleEvent(context.Background(), testEvent(entity.EventNoFace, "ev-1"))

		Convey("Then the event is a no-op", func() {
			So(err, ShouldBeNil)
			So(outcome.WarningCreated, ShouldBeNil)
			So(outcome.ExpulsionCreated, ShouldBeNil)
			So(f.store.warningCount("att-1"), ShouldEqual, 0)
		})
	})

	Convey("Given a lifecycle event kind with no escalation mapping", t, func() {
		f := newEscalationFixture()
		f.seedAttempt(entity.AttemptInProgress)

		outcome, err := f.esc.HandleEvent(context.Background(), testEvent(entity.EventSessionStart, "ev-1"))

		Convey("Then no warning is created", func() {
			So(err, ShouldBeNil)
			So(outcome.WarningCreated, ShouldBeNil)
			So(f.store.warningCount("att-1"), ShouldEqual, 0)
		})
	})

	Convey("Given an unknown attempt", t, func() {
		f := newEscalationFixture()

		_, err := f.esc.HandleEvent(context.Background(), testEvent(entity.EventNoFace, "ev-1"))

		Convey("Then the lookup error surfaces", func() {
			So(err, ShouldEqual, monitoring.ErrAttemptNotFound)
		})
	})
}

func TestHandleEventDedupWindow(t *testing.T) {
	Convey("Given a same-category warning created 5 seconds ago", t, func() {
		f := newEscalationFixture()
		f.seedAttempt(entity.AttemptInProgress)
		f.seedWarning(entity.CategoryAbsence, time.Now().Add(-5*time.Second))

		outcome, err := f.esc.HandleEvent(context.Background(), testEvent(entity.EventNoFace, "ev-1"))

		Convey("Then the new warning is suppressed", func() {
			So(err, ShouldBeNil)
			So(outcome.WarningCreated, ShouldBeNil)
			So(f.store.warningCount("att-1"), ShouldEqual, 1)
		})
	})

	Convey("Given a same-category warning older than the 20 second window", t, func() {
		f := newEscalationFixture()
		f.seedAttempt(entity.AttemptInProgress)
		f.seedWarning(entity.CategoryAbsence, time.Now().Add(-21*time.Second))

		outcome, err := f.esc.HandleEvent(context.Background(), testEvent(entity.EventNoFace, "ev-1"))

		Convey("Then a second warning is created", func() {
			So(err, ShouldBeNil)
			So(outcome.WarningCreated, ShouldNotBeNil)
			So(f.store.warningCount("att-1"), ShouldEqual, 2)
		})
	})

	Convey("Given a recent warning of a different category", t, func() {
		f := newEscalationFixture()
		f.seedAttempt(entity.AttemptInProgress)
		f.seedWarning(entity.CategoryAbsence, time.Now().Add(-5*time.Second))

		outcome, err := f.esc.HandleEvent(context.Background(), testEvent(entity.EventTabChange, "ev-1"))

		Convey("Then the window does not suppress it", func() {
			So(err, ShouldBeNil)
			So(outcome.WarningCreated, ShouldNotBeNil)
			So(outcome.WarningCreated.Category, ShouldEqual, entity.CategoryWindowChange)
			So(f.store.warningCount("att-1"), ShouldEqual, 2)
		})
	})
}

func TestHandleEventThreshold(t *testing.T) {
	Convey("Given an in-progress attempt and the default threshold of 3", t, func() {
		f := newEscalationFixture()
		f.seedAttempt(entity.AttemptInProgress)
		ctx := context.Background()

		first, err := f.esc.HandleEvent(ctx, testEvent(entity.EventNoFace, "ev-1"))
		So(err, ShouldBeNil)
		second, err := f.esc.HandleEvent(ctx, testEvent(entity.EventTabChange, "ev-2"))
		So(err, ShouldBeNil)

		Convey("Then the first two events create warnings without expelling", func() {
			So(first.WarningCreated, ShouldNotBeNil)
			So(first.AttemptMutated, ShouldBeFalse)
			So(second.WarningCreated, ShouldNotBeNil)
			So(second.ExpulsionCreated, ShouldBeNil)
		})

		Convey("When the third distinct-category event arrives", func() {
			third, err := f.esc.HandleEvent(ctx, testEvent(entity.EventMultipleFaces, "ev-3"))

			Convey("Then the attempt is expelled in the same escalation", func() {
				So(err, ShouldBeNil)
				So(third.WarningCreated, ShouldNotBeNil)
				So(third.ExpulsionCreated, ShouldNotBeNil)
				So(third.AttemptMutated, ShouldBeTrue)

				expulsion := *third.ExpulsionCreated
				So(expulsion.Reason, ShouldEqual, entity.ReasonMaxWarnings)
				So(expulsion.PriorWarnings, ShouldEqual, 3)
				So(len(expulsion.Evidence), ShouldEqual, 3)

				attempt := f.store.attempts["att-1"]
				So(attempt.Status, ShouldEqual, entity.AttemptExpelled)
				So(attempt.EndedAt, ShouldNotBeNil)
				So(attempt.TotalTimeSeconds, ShouldBeGreaterThan, 0)

				So(f.store.eventKinds("att-1"), ShouldContain, entity.EventExpulsion)
			})

			Convey("And a fourth event is an idempotent no-op returning the same expulsion", func() {
				fourth, err := f.esc.HandleEvent(ctx, testEvent(entity.EventEyesClosed, "ev-4"))

				So(err, ShouldBeNil)
				So(fourth.WarningCreated, ShouldBeNil)
				So(fourth.AttemptMutated, ShouldBeFalse)
				So(fourth.ExpulsionCreated, ShouldNotBeNil)
				So(fourth.ExpulsionCreated.ID, ShouldEqual, third.ExpulsionCreated.ID)
				So(f.store.warningCount("att-1"), ShouldEqual, 3)
			})
		})
	})
}

func TestHandleEventCustomConfig(t *testing.T) {
	Convey("Given an exam configured with a threshold of 2", t, func() {
		f := newEscalationFixture()
		f.seedAttempt(entity.AttemptInProgress)
		f.store.configs["cfg-1"] = entity.MonitoringConfig{
			ID:                 "cfg-1",
			ExamID:             "exam-1",
			MaxWarnings:        2,
			DedupWindowSeconds: 20,
			MinConfidence:      70,
		}
		ctx := context.Background()

		first, err := f.esc.HandleEvent(ctx, testEvent(entity.EventNoFace, "ev-1"))
		So(err, ShouldBeNil)
		second, err := f.esc.HandleEvent(ctx, testEvent(entity.EventTabChange, "ev-2"))
		So(err, ShouldBeNil)

		Convey("Then the second warning already expels", func() {
			So(first.ExpulsionCreated, ShouldBeNil)
			So(second.ExpulsionCreated, ShouldNotBeNil)
			So(second.AttemptMutated, ShouldBeTrue)
			So(second.ExpulsionCreated.PriorWarnings, ShouldEqual, 2)
		})

		Convey("And the config was cached after the database read", func() {
			cached, err := f.redis.GetMonitoringConfig(ctx, "exam-1")
			So(err, ShouldBeNil)
			So(cached.MaxWarnings, ShouldEqual, 2)
		})
	})
}

func TestHandleEventConcurrentThreshold(t *testing.T) {
	Convey("Given an attempt one warning short of the threshold", t, func() {
		f := newEscalationFixture()
		f.seedAttempt(entity.AttemptInProgress)
		old := time.Now().Add(-10 * time.Minute)
		f.seedWarning(entity.CategoryAbsence, old)
		f.seedWarning(entity.CategoryEyesClosed, old)

		Convey("When two threshold-crossing events race", func() {
			outcomes := make([]monitoring.EscalationOutcome, 2)
			errs := make([]error, 2)

			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				outcomes[0], errs[0] = f.esc.HandleEvent(context.Background(), testEvent(entity.EventMultipleFaces, "ev-a"))
			}()
			go func() {
				defer wg.Done()
				outcomes[1], errs[1] = f.esc.HandleEvent(context.Background(), testEvent(entity.EventFullscreenExit, "ev-b"))
			}()
			wg.Wait()

			Convey("Then exactly one escalation expels and the loser sees the winner's record", func() {
				So(errs[0], ShouldBeNil)
				So(errs[1], ShouldBeNil)

				mutations := 0
				for _, o := range outcomes {
					So(o.ExpulsionCreated, ShouldNotBeNil)
					if o.AttemptMutated {
						mutations++
					}
				}
				So(mutations, ShouldEqual, 1)
				So(outcomes[0].ExpulsionCreated.ID, ShouldEqual, outcomes[1].ExpulsionCreated.ID)

				So(len(f.store.expulsions), ShouldEqual, 1)
				So(f.store.warningCount("att-1"), ShouldEqual, 3)
			})
		})
	})
}

func TestHandleEventExpulsionInsertRace(t *testing.T) {
	Convey("Given a competing expulsion committed between the guard check and the insert", t, func() {
		f := newEscalationFixture()
		f.seedAttempt(entity.AttemptInProgress)
		old := time.Now().Add(-10 * time.Minute)
		f.seedWarning(entity.CategoryAbsence, old)
		f.seedWarning(entity.CategoryEyesClosed, old)
		f.store.raceExpulsion = &entity.Expulsion{
			ID:        "exp-winner",
			AttemptID: "att-1",
			StudentID: "stu-1",
			ExamID:    "exam-1",
			Reason:    entity.ReasonMaxWarnings,
		}

		outcome, err := f.esc.HandleEvent(context.Background(), testEvent(entity.EventMultipleFaces, "ev-1"))

		Convey("Then the outcome carries the winner's record and no rolled-back warning", func() {
			So(err, ShouldBeNil)
			So(outcome.WarningCreated, ShouldBeNil)
			So(outcome.AttemptMutated, ShouldBeFalse)
			So(outcome.ExpulsionCreated, ShouldNotBeNil)
			So(outcome.ExpulsionCreated.ID, ShouldEqual, "exp-winner")
			So(len(f.store.expulsions), ShouldEqual, 1)
		})
	})
}

func TestHandleEventNotification(t *testing.T) {
	t.Setenv("MONITOR_ALERT_EMAILS", "teacher@example.com, admin@example.com")

	Convey("Given configured alert recipients and a delivered notice", t, func() {
		f := newEscalationFixture()
		f.seedAttempt(entity.AttemptInProgress)
		f.seedWarning(entity.CategoryAbsence, time.Now().Add(-10*time.Minute))
		f.seedWarning(entity.CategoryEyesClosed, time.Now().Add(-10*time.Minute))

		outcome, err := f.esc.HandleEvent(context.Background(), testEvent(entity.EventMultipleFaces, "ev-1"))

		Convey("Then the expulsion is marked notified and no step error is reported", func() {
			So(err, ShouldBeNil)
			So(outcome.AttemptMutated, ShouldBeTrue)
			So(outcome.Errors, ShouldBeEmpty)
			So(len(f.smtp.sent), ShouldEqual, 1)
			So(len(f.smtp.sent[0]), ShouldEqual, 2)

			stored := f.store.expulsions["att-1"]
			So(stored.TeacherNotified, ShouldBeTrue)
			So(stored.AdminNotified, ShouldBeTrue)
		})
	})

	Convey("Given configured alert recipients and a failing mailer", t, func() {
		f := newEscalationFixture()
		f.smtp.err = errors.New("smtp unreachable")
		f.seedAttempt(entity.AttemptInProgress)
		f.seedWarning(entity.CategoryAbsence, time.Now().Add(-10*time.Minute))
		f.seedWarning(entity.CategoryEyesClosed, time.Now().Add(-10*time.Minute))

		outcome, err := f.esc.HandleEvent(context.Background(), testEvent(entity.EventMultipleFaces, "ev-1"))

		Convey("Then the expulsion still commits and the failure surfaces as a step error", func() {
			So(err, ShouldBeNil)
			So(outcome.AttemptMutated, ShouldBeTrue)
			So(len(outcome.Errors), ShouldEqual, 1)
			So(outcome.Errors[0].Step, ShouldEqual, "notify")
			So(f.store.expulsions["att-1"].TeacherNotified, ShouldBeFalse)
		})
	})
}

func TestReportEvent(t *testing.T) {
	Convey("Given an event with an unknown kind", t, func() {
		f := newEscalationFixture()
		f.seedAttempt(entity.AttemptInProgress)

		_, err := f.esc.ReportEvent(context.Background(), monitoring.ReportEventRequest{
			AttemptID: "att-1",
			StudentID: "stu-1",
			Kind:      "PHONE_DETECTED",
		}, nil)

		Convey("Then it is rejected before any persistence", func() {
			So(err, ShouldEqual, monitoring.ErrUnknownEventKind)
			So(len(f.store.events), ShouldEqual, 0)
		})
	})

	Convey("Given an event for a missing attempt", t, func() {
		f := newEscalationFixture()

		_, err := f.esc.ReportEvent(context.Background(), monitoring.ReportEventRequest{
			AttemptID: "att-1",
			StudentID: "stu-1",
			Kind:      string(entity.EventNoFace),
		}, nil)

		Convey("Then the attempt lookup error surfaces", func() {
			So(err, ShouldEqual, monitoring.ErrAttemptNotFound)
		})
	})

	Convey("Given a valid escalating event", t, func() {
		f := newEscalationFixture()
		f.seedAttempt(entity.AttemptInProgress)

		resp, err := f.esc.ReportEvent(context.Background(), monitoring.ReportEventRequest{
			AttemptID:  "att-1",
			StudentID:  "stu-1",
			Kind:       string(entity.EventNoFace),
			Confidence: 88,
		}, nil)

		Convey("Then the event is persisted and escalated in one call", func() {
			So(err, ShouldBeNil)
			So(resp.Event.ID, ShouldNotBeEmpty)
			So(resp.Event.Kind, ShouldEqual, entity.EventNoFace)
			So(resp.WarningCreated, ShouldNotBeNil)
			So(resp.WarningCreated.Category, ShouldEqual, entity.CategoryAbsence)
			So(resp.WarningCreated.Confidence, ShouldEqual, 88)
			So(len(f.store.events), ShouldEqual, 1)
		})
	})

	Convey("Given a valid lifecycle event", t, func() {
		f := newEscalationFixture()
		f.seedAttempt(entity.AttemptInProgress)

		resp, err := f.esc.ReportEvent(context.Background(), monitoring.ReportEventRequest{
			AttemptID: "att-1",
			StudentID: "stu-1",
			Kind:      string(entity.EventSessionStart),
		}, nil)

		Convey("Then the event is logged without escalation", func() {
			So(err, ShouldBeNil)
			So(resp.WarningCreated, ShouldBeNil)
			So(len(f.store.events), ShouldEqual, 1)
			So(f.store.warningCount("att-1"), ShouldEqual, 0)
		})
	})
}
