// Package tasks defines the asynq task types the worker processes and
// the glue that turns domain events into queued work.
package tasks

import (
	"encoding/json"
	"time"

	"github.com/dukaan-labs/backend-dukaan/internal/events"
)

// Task type identifiers, namespaced by concern.
const (
	TypeWebhookDeliver = "webhook:deliver"
)

// Queue names. Webhook traffic runs on its own queue so a slow endpoint
// cannot starve other work.
const (
	QueueWebhooks = "webhooks"
	QueueDefault  = "default"
)

// WebhookDeliverPayload carries everything a delivery attempt needs so
// the worker never has to re-read the events table.
type WebhookDeliverPayload struct {
	EndpointID  string          `json:"endpoint_id"`
	EventID     int64           `json:"event_id"`
	Topic       string          `json:"topic"`
	AggregateID string          `json:"aggregate_id"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// Event rebuilds the domain event the payload was derived from.
func (p WebhookDeliverPayload) Event() events.Event {
	return events.Event{
		ID:          p.EventID,
		Topic:       p.Topic,
		AggregateID: p.AggregateID,
		Payload:     p.Payload,
		OccurredAt:  p.OccurredAt,
	}
}
