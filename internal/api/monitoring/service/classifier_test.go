package monitoringService

import (
	"ProctorGolang/internal/entity"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClassifyEvent(t *testing.T) {
	Convey("Given the escalation table", t, func() {
		cases := []struct {
			kind     entity.EventKind
			category entity.WarningCategory
			tier     entity.SeverityTier
		}{
			{entity.EventNoFace, entity.CategoryAbsence, entity.TierModerate},
			{entity.EventOutOfFrame, entity.CategoryOutOfFrame, entity.TierModerate},
			{entity.EventMultipleFaces, entity.CategoryMultiplePeople, entity.TierSevere},
			{entity.EventGazeDeviated, entity.CategoryGazeDeviated, entity.TierModerate},
			{entity.EventEyesClosed, entity.CategoryEyesClosed, entity.TierLight},
			{entity.EventTabChange, entity.CategoryWindowChange, entity.TierModerate},
			{entity.EventFullscreenExit, entity.CategorySuspiciousBehavior, entity.TierSevere},
			{entity.EventConnectionLost, entity.CategoryConnectionLost, entity.TierLight},
		}

		for _, tc := range cases {
			Convey("Then "+string(tc.kind)+" escalates to "+string(tc.category), func() {
				mapping, ok := ClassifyEvent(tc.kind)
				So(ok, ShouldBeTrue)
				So(mapping.Category, ShouldEqual, tc.category)
				So(mapping.Tier, ShouldEqual, tc.tier)
				So(mapping.Description, ShouldNotBeEmpty)
			})
		}
	})

	Convey("Given lifecycle kinds that never escalate", t, func() {
		for _, kind := range []entity.EventKind{
			entity.EventSessionStart,
			entity.EventFrameProcessed,
			entity.EventFaceDetected,
			entity.EventConnectionRestored,
			entity.EventSessionEnd,
			entity.EventExpulsion,
		} {
			Convey("Then "+string(kind)+" has no mapping", func() {
				_, ok := ClassifyEvent(kind)
				So(ok, ShouldBeFalse)
			})
		}
	})
}

func TestKnownEventKind(t *testing.T) {
	Convey("Given the event vocabulary", t, func() {
		So(KnownEventKind(entity.EventTabChange), ShouldBeTrue)
		So(KnownEventKind(entity.EventExpulsion), ShouldBeTrue)
		So(KnownEventKind(entity.EventKind("PHONE_DETECTED")), ShouldBeFalse)
		So(KnownEventKind(entity.EventKind("")), ShouldBeFalse)
	})
}
