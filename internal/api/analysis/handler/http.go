package analysisHandler

import (
	analysisService "ProctorGolang/internal/api/analysis/service"
	"ProctorGolang/internal/middleware"
	"ProctorGolang/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type AnalysisHandler struct {
	log             *logrus.Logger
	validator       *validator.Validate
	middleware      middleware.Middleware
	analysisService analysisService.IAnalysisService
	utils           utils.IUtils
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	as analysisService.IAnalysisService,
	utils utils.IUtils,
) *AnalysisHandler {
	return &AnalysisHandler{
		log:             log,
		validator:       validator,
		middleware:      middleware,
		analysisService: as,
		utils:           utils,
	}
}

func (h *AnalysisHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	analysis := srv.Group("/analysis")
	analysis.Post("/frame", h.middleware.NewTokenMiddleware, h.HandleAnalyzeFrame)
	analysis.Get("/health", h.middleware.NewTokenMiddleware, h.HandleHealth)
	analysis.Use("/ws", h.middleware.NewTokenMiddleware, wsMiddleware)
	analysis.Get("/ws", websocket.New(h.handleFrameWebSocket))
}
