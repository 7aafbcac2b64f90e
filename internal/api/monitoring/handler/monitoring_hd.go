package monitoringHandler

import (
	"ProctorGolang/internal/api/monitoring"
	contextPkg "ProctorGolang/pkg/context"
	"ProctorGolang/pkg/handlerUtil"
	"ProctorGolang/pkg/log"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *MonitoringHandler) HandleReportEvent(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 15*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing monitoring event report")

	var req monitoring.ReportEventRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	// Snapshot evidence is optional; events may also carry a pre-uploaded
	// evidence_url instead.
	snapshot, err := ctx.FormFile("snapshot")
	if err != nil {
		snapshot = nil
	}

	result, err := h.monitoringService.Escalation().ReportEvent(c, req, snapshot)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "report_event")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, result)
	}
}

func (h *MonitoringHandler) HandleListWarnings(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	filter := monitoring.WarningFilter{
		AttemptID: ctx.Query("attempt_id"),
		StudentID: ctx.Query("student_id"),
	}

	if resolved := ctx.Query("resolved"); resolved != "" {
		value := resolved == "true"
		filter.Resolved = &value
	}

	result, err := h.monitoringService.Review().ListWarnings(c, filter)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_warnings")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

func (h *MonitoringHandler) HandleResolveWarning(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req monitoring.ResolveWarningRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
	}

	warning, err := h.monitoringService.Review().ResolveWarning(c, ctx.Params("id"), req.Notes)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "resolve_warning")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, warning)
	}
}

func (h *MonitoringHandler) HandleAttemptSummary(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing attempt summary request")

	summary, err := h.monitoringService.Review().AttemptSummary(c, ctx.Params("id"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "attempt_summary")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, summary)
	}
}
