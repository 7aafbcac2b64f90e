package monitoringService

import (
	"ProctorGolang/internal/api/monitoring"
	"ProctorGolang/internal/entity"
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestListWarnings(t *testing.T) {
	Convey("Given warnings for two attempts", t, func() {
		f := newEscalationFixture()
		f.seedAttempt(entity.AttemptInProgress)
		f.seedWarning(entity.CategoryAbsence, time.Now().Add(-2*time.Minute))
		f.seedWarning(entity.CategoryWindowChange, time.Now().Add(-1*time.Minute))
		f.store.warnings = append(f.store.warnings, entity.Warning{
			ID:        "warn-other",
			AttemptID: "att-2",
			StudentID: "stu-2",
			Category:  entity.CategoryAbsence,
			CreatedAt: time.Now(),
		})
		review := f.svc.Review()

		Convey("When filtering by attempt", func() {
			resp, err := review.ListWarnings(context.Background(), monitoring.WarningFilter{AttemptID: "att-1"})

			Convey("Then only that attempt's warnings come back", func() {
				So(err, ShouldBeNil)
				So(resp.Total, ShouldEqual, 2)
				for _, w := range resp.Warnings {
					So(w.AttemptID, ShouldEqual, "att-1")
				}
			})
		})

		Convey("When filtering by resolution state", func() {
			resolved := true
			resp, err := review.ListWarnings(context.Background(), monitoring.WarningFilter{Resolved: &resolved})

			Convey("Then unresolved warnings are excluded", func() {
				So(err, ShouldBeNil)
				So(resp.Total, ShouldEqual, 0)
			})
		})
	})
}

func TestResolveWarning(t *testing.T) {
	Convey("Given an open warning", t, func() {
		f := newEscalationFixture()
		f.seedAttempt(entity.AttemptInProgress)
		f.seedWarning(entity.CategoryAbsence, time.Now())
		id := f.store.warnings[0].ID
		review := f.svc.Review()

		Convey("When resolving it with notes", func() {
			warning, err := review.ResolveWarning(context.Background(), id, "student was fetching an allowed calculator")

			Convey("Then the stored warning carries the resolution", func() {
				So(err, ShouldBeNil)
				So(warning.Resolved, ShouldBeTrue)
				So(warning.ResolutionNotes, ShouldEqual, "student was fetching an allowed calculator")
			})
		})

		Convey("When resolving a missing warning", func() {
			_, err := review.ResolveWarning(context.Background(), "warn-nope", "")

			Convey("Then the not-found error surfaces", func() {
				So(err, ShouldEqual, monitoring.ErrWarningNotFound)
			})
		})
	})
}

func TestAttemptSummary(t *testing.T) {
	Convey("Given an attempt that was escalated to expulsion", t, func() {
		f := newEscalationFixture()
		f.seedAttempt(entity.AttemptInProgress)
		ctx := context.Background()

		for i, kind := range []entity.EventKind{entity.EventNoFace, entity.EventTabChange, entity.EventMultipleFaces} {
			_, err := f.esc.HandleEvent(ctx, testEvent(kind, "ev-"+string(rune('1'+i))))
			So(err, ShouldBeNil)
		}

		Convey("When summarizing the attempt", func() {
			summary, err := f.svc.Review().AttemptSummary(ctx, "att-1")

			Convey("Then counts and the expulsion flag line up", func() {
				So(err, ShouldBeNil)
				So(summary.AttemptID, ShouldEqual, "att-1")
				So(summary.TotalWarnings, ShouldEqual, 3)
				So(summary.WarningsByCategory[string(entity.CategoryAbsence)], ShouldEqual, 1)
				So(summary.EventsByKind[string(entity.EventExpulsion)], ShouldEqual, 1)
				So(summary.TotalEvents, ShouldEqual, 1)
				So(summary.Expelled, ShouldBeTrue)
				So(summary.ExpulsionReason, ShouldEqual, string(entity.ReasonMaxWarnings))
			})
		})
	})

	Convey("Given an unknown attempt", t, func() {
		f := newEscalationFixture()

		_, err := f.svc.Review().AttemptSummary(context.Background(), "att-404")

		Convey("Then the lookup error surfaces", func() {
			So(err, ShouldEqual, monitoring.ErrAttemptNotFound)
		})
	})
}
