package monitoringHandler

import (
	"ProctorGolang/internal/api/monitoring"
	contextPkg "ProctorGolang/pkg/context"
	"ProctorGolang/pkg/handlerUtil"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *MonitoringHandler) HandleCreateConfig(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req monitoring.UpsertConfigRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	config, err := h.monitoringService.Config().CreateConfig(c, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "create_config")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, config)
	}
}

func (h *MonitoringHandler) HandleListConfigs(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	result, err := h.monitoringService.Config().ListConfigs(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_configs")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

func (h *MonitoringHandler) HandleGetConfigByExam(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	config, err := h.monitoringService.Config().GetConfigByExam(c, ctx.Params("examId"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_config_by_exam")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, config)
	}
}

func (h *MonitoringHandler) HandleUpdateConfig(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req monitoring.UpsertConfigRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	config, err := h.monitoringService.Config().UpdateConfig(c, ctx.Params("id"), req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "update_config")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, config)
	}
}

func (h *MonitoringHandler) HandleDeleteConfig(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	if err := h.monitoringService.Config().DeleteConfig(c, ctx.Params("id")); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "delete_config")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, nil)
	}
}
