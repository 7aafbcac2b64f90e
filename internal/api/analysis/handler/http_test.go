package analysisHandler

import (
	"ProctorGolang/internal/entity"
	"ProctorGolang/internal/middleware"
	"ProctorGolang/pkg/utils"
	"ProctorGolang/pkg/vision"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"
)

type stubAnalysisService struct{}

func (stubAnalysisService) AnalyzeFrame(ctx context.Context, frame []byte) (entity.FrameAnalysisResult, error) {
	return entity.FrameAnalysisResult{}, nil
}

func (stubAnalysisService) Health() vision.Status {
	return vision.Status{Initialized: true, Backend: "tasks"}
}

func TestAnalysisRoutesRequireToken(t *testing.T) {
	Convey("Given the mounted analysis routes", t, func() {
		log := logrus.New()
		log.SetLevel(logrus.PanicLevel)

		app := fiber.New()
		h := New(log, validator.New(), middleware.New(log), stubAnalysisService{}, utils.New())
		h.Start(app)

		Convey("Then requests without a bearer token are rejected", func() {
			routes := []struct {
				method string
				path   string
			}{
				{fiber.MethodPost, "/analysis/frame"},
				{fiber.MethodGet, "/analysis/health"},
				{fiber.MethodGet, "/analysis/ws"},
			}

			for _, route := range routes {
				resp, err := app.Test(httptest.NewRequest(route.method, route.path, nil))
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, fiber.StatusUnauthorized)
			}
		})
	})
}
