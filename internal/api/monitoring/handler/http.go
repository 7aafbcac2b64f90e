package monitoringHandler

import (
	monitoringService "ProctorGolang/internal/api/monitoring/service"
	"ProctorGolang/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type MonitoringHandler struct {
	log               *logrus.Logger
	monitoringService monitoringService.MonitoringService
	validator         *validator.Validate
	middleware        middleware.Middleware
}

func New(
	log *logrus.Logger,
	ms monitoringService.MonitoringService,
	validate *validator.Validate,
	middleware middleware.Middleware) *MonitoringHandler {
	return &MonitoringHandler{
		log:               log,
		monitoringService: ms,
		validator:         validate,
		middleware:        middleware,
	}
}

func (h *MonitoringHandler) Start(srv fiber.Router) {
	monitoring := srv.Group("/monitoring")
	monitoring.Post("/events", h.middleware.NewTokenMiddleware, h.HandleReportEvent)
	monitoring.Get("/warnings", h.middleware.NewTokenMiddleware, h.HandleListWarnings)
	monitoring.Patch("/warnings/:id/resolve", h.middleware.NewTokenMiddleware, h.HandleResolveWarning)
	monitoring.Get("/attempts/:id/summary", h.middleware.NewTokenMiddleware, h.HandleAttemptSummary)

	configs := monitoring.Group("/configs")
	configs.Post("/", h.middleware.NewTokenMiddleware, h.HandleCreateConfig)
	configs.Get("/", h.middleware.NewTokenMiddleware, h.HandleListConfigs)
	configs.Get("/exam/:examId", h.middleware.NewTokenMiddleware, h.HandleGetConfigByExam)
	configs.Patch("/:id", h.middleware.NewTokenMiddleware, h.HandleUpdateConfig)
	configs.Delete("/:id", h.middleware.NewTokenMiddleware, h.HandleDeleteConfig)
}
