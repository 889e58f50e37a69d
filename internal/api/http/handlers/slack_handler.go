package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/nixolabs/triage-service/internal/service"
	"github.com/nixolabs/triage-service/internal/slack"
	"github.com/nixolabs/triage-service/internal/worker"
	apperrors "github.com/nixolabs/triage-service/pkg/util"
)

// SlackHandler receives Events API webhooks. Slack expects an acknowledgement
// within 3 seconds, so message events are enqueued for async processing and
// the request returns immediately.
type SlackHandler struct {
	worker *worker.GroupingWorker
	logger *zap.Logger
}

// NewSlackHandler constructs handler.
func NewSlackHandler(groupingWorker *worker.GroupingWorker, logger *zap.Logger) *SlackHandler {
	return &SlackHandler{worker: groupingWorker, logger: logger}
}

// Events POST /slack/events.
func (h *SlackHandler) Events(c *fiber.Ctx) error {
	var envelope slack.Envelope
	if err := json.Unmarshal(c.Body(), &envelope); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	switch envelope.Type {
	case slack.TypeURLVerification:
		return c.JSON(fiber.Map{"challenge": envelope.Challenge})
	case slack.TypeEventCallback:
		h.handleEvent(envelope.Event)
		return c.SendStatus(fiber.StatusOK)
	default:
		return c.SendStatus(fiber.StatusOK)
	}
}

func (h *SlackHandler) handleEvent(event *slack.MessageEvent) {
	if !event.IsUserMessage() {
		return
	}
	msg := service.InboundMessage{
		Text:      event.Text,
		ChannelID: event.Channel,
		UserID:    event.User,
		TS:        event.TS,
	}
	if event.ThreadTS != "" {
		threadTS := event.ThreadTS
		msg.ThreadTS = &threadTS
	}
	h.worker.Enqueue(msg)
}
