package analysisHandler

import (
	"ProctorGolang/internal/api/analysis"
	contextPkg "ProctorGolang/pkg/context"
	"ProctorGolang/pkg/handlerUtil"
	"ProctorGolang/pkg/log"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/net/context"
)

func (h *AnalysisHandler) HandleAnalyzeFrame(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 15*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing frame analysis request")

	file, err := ctx.FormFile("frame")
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_form_file")
	}

	if err := h.utils.ValidateFrameFile(file); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "validate_frame_file")
	}

	src, err := file.Open()
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "open_file")
	}
	defer src.Close()

	frame, err := io.ReadAll(src)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_file")
	}

	result, err := h.analysisService.AnalyzeFrame(c, frame)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "analyze_frame")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

func (h *AnalysisHandler) HandleHealth(ctx *fiber.Ctx) error {
	status := h.analysisService.Health()

	resp := analysis.HealthResponse{
		Initialized: status.Initialized,
		Backend:     status.Backend,
		Error:       status.Error,
	}

	code := fiber.StatusOK
	if !status.Initialized {
		code = fiber.StatusServiceUnavailable
	}

	errHandler := handlerUtil.New(h.log)
	return errHandler.HandleSuccess(ctx, code, resp)
}

// handleFrameWebSocket analyzes a stream of binary frames, answering each
// with the JSON analysis result. Non-binary messages are ignored.
func (h *AnalysisHandler) handleFrameWebSocket(c *websocket.Conn) {
	h.log.Info("Frame analysis WebSocket client connected")
	defer h.log.Info("Frame analysis WebSocket client disconnected")

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	maxReadTimeout := 60 * time.Second

	for {
		if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
			h.log.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Errorf("Frame analysis WebSocket error: %v", err)
			} else {
				h.log.Info("Frame analysis WebSocket connection closed")
			}
			break
		}

		if messageType != websocket.BinaryMessage {
			h.log.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		result, err := h.analysisService.AnalyzeFrame(context.Background(), message)
		if err != nil {
			if writeErr := c.WriteJSON(map[string]string{"error": err.Error()}); writeErr != nil {
				h.log.Errorf("Error sending error response: %v", writeErr)
				break
			}
			continue
		}

		if err := c.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
			h.log.Errorf("Error setting write deadline: %v", err)
			break
		}

		if err := c.WriteJSON(result); err != nil {
			h.log.Errorf("Error writing JSON response: %v", err)
			break
		}

		if err := c.SetWriteDeadline(time.Time{}); err != nil {
			h.log.Errorf("Error resetting write deadline: %v", err)
			break
		}
	}
}
