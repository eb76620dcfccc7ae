package webhook

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/contractintel/backend/internal/metrics"
	"github.com/contractintel/backend/internal/storage/models"
	"github.com/contractintel/backend/pkg/logger"
)

// Dispatcher delivers events to a configured URL, fire and forget: one POST
// with a short timeout, no retry, failures logged and never surfaced to the
// request that queued them.
type Dispatcher struct {
	url    string
	client *http.Client
}

func NewDispatcher(url string, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether a delivery URL is set.
func (d *Dispatcher) Configured() bool {
	return d.url != ""
}

// NewEvent stamps an event with an id and timestamp.
func (d *Dispatcher) NewEvent(eventType, documentID string, data map[string]any) models.WebhookEvent {
	if data == nil {
		data = map[string]any{}
	}
	return models.WebhookEvent{
		ID:         uuid.NewString(),
		EventType:  eventType,
		DocumentID: documentID,
		Timestamp:  time.Now().Format(time.RFC3339),
		Data:       data,
	}
}

// Dispatch queues asynchronous delivery and returns immediately.
func (d *Dispatcher) Dispatch(event models.WebhookEvent) {
	go d.deliver(event)
}

func (d *Dispatcher) deliver(event models.WebhookEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal webhook event", zap.String("event_id", event.ID), zap.Error(err))
		metrics.WebhookDeliveries.WithLabelValues("error").Inc()
		return
	}

	resp, err := d.client.Post(d.url, "application/json", bytes.NewReader(body))
	if err != nil {
		logger.Error("Webhook delivery failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.EventType),
			zap.Error(err),
		)
		metrics.WebhookDeliveries.WithLabelValues("error").Inc()
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		logger.Error("Webhook delivery rejected",
			zap.String("event_id", event.ID),
			zap.Int("status", resp.StatusCode),
		)
		metrics.WebhookDeliveries.WithLabelValues("error").Inc()
		return
	}

	logger.Debug("Webhook delivered", zap.String("event_id", event.ID))
	metrics.WebhookDeliveries.WithLabelValues("ok").Inc()
}
