package handlerUtil

import (
	"ProctorGolang/internal/api/analysis"
	"ProctorGolang/internal/api/monitoring"
	"ProctorGolang/pkg/log"
	"ProctorGolang/pkg/response"
	utilsPkg "ProctorGolang/pkg/utils"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	// Monitoring domain errors
	if errors.Is(err, monitoring.ErrAttemptNotFound) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Exam attempt not found")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Exam attempt not found",
			"code":    "ATTEMPT_NOT_FOUND",
		})
	}

	if errors.Is(err, monitoring.ErrWarningNotFound) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Warning not found")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Warning not found",
			"code":    "WARNING_NOT_FOUND",
		})
	}

	if errors.Is(err, monitoring.ErrConfigNotFound) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Monitoring config not found")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Monitoring config not found",
			"code":    "CONFIG_NOT_FOUND",
		})
	}

	if errors.Is(err, monitoring.ErrConfigExists) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Monitoring config already exists")
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Monitoring config already exists for this exam",
			"code":    "CONFIG_ALREADY_EXISTS",
		})
	}

	if errors.Is(err, monitoring.ErrUnknownEventKind) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Unknown event kind")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Unknown event kind",
			"code":    "UNKNOWN_EVENT_KIND",
		})
	}

	// Analysis domain errors
	if errors.Is(err, analysis.ErrModelNotLoaded) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Error("Landmark model not loaded")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"message": "Landmark model not loaded",
			"code":    "MODEL_NOT_LOADED",
		})
	}

	if errors.Is(err, analysis.ErrDetectionFailed) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Error("Landmark detection failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "Landmark detection failed",
			"code":    "DETECTION_FAILED",
		})
	}

	// Upload validation errors
	if errors.Is(err, utilsPkg.ErrFrameTooLarge) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Frame too large")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Frame too large. Maximum size is 2MB.",
		})
	}

	if errors.Is(err, utilsPkg.ErrUnsupportedImageType) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Unsupported image type")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unsupported image type. Only JPEG and PNG are allowed.",
		})
	}

	// Any other coded domain error keeps its status.
	var respErr *response.Error
	if errors.As(err, &respErr) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"code":       respErr.Code,
			"path":       path,
			"operation":  operation,
		}).Warn("Operation failed with error response")
		return c.Status(respErr.Code).JSON(fiber.Map{"error": err.Error()})
	}

	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}).Error("Unexpected error")

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "An unexpected error occurred",
	})
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Validation failed: " + err.Error(),
		"code":  "VALIDATION_ERROR",
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(utils.StatusMessage(fiber.StatusRequestTimeout))
}

func (h *ErrorHandler) HandleUnauthorized(c *fiber.Ctx, requestID string, message string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"path":       c.Path(),
		"message":    message,
	}).Warn("Unauthorized access")

	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": message,
		"code":  "UNAUTHORIZED",
	})
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
