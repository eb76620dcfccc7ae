package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/contractintel/backend/internal/webhook"
)

type WebhookHandler struct {
	dispatcher *webhook.Dispatcher
}

func NewWebhookHandler(dispatcher *webhook.Dispatcher) *WebhookHandler {
	return &WebhookHandler{dispatcher: dispatcher}
}

// TriggerEvent queues asynchronous delivery of an event to the configured
// URL and returns immediately with the queued payload. Without a configured
// URL this is a no-op message, not an error.
func (h *WebhookHandler) TriggerEvent(c *fiber.Ctx) error {
	eventType := c.Query("event_type")
	documentID := c.Query("document_id")

	if !h.dispatcher.Configured() {
		return c.JSON(fiber.Map{
			"message": "Webhook URL not configured",
		})
	}

	var data map[string]any
	if len(c.Body()) > 0 {
		// A malformed payload body degrades to an empty payload.
		_ = json.Unmarshal(c.Body(), &data)
	}

	event := h.dispatcher.NewEvent(eventType, documentID, data)
	h.dispatcher.Dispatch(event)

	return c.JSON(fiber.Map{
		"message": "Webhook event queued",
		"payload": event,
	})
}
