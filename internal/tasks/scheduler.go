package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dukaan-labs/backend-dukaan/internal/events"
	"github.com/dukaan-labs/backend-dukaan/internal/repo"
)

// EndpointLister resolves the endpoints subscribed to a topic.
// repo.WebhooksRepo satisfies it.
type EndpointLister interface {
	ListActiveForTopic(ctx context.Context, topic string) ([]repo.WebhookEndpoint, error)
}

// Enqueuer is the slice of asynq.Client the scheduler uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Scheduler implements events.DeliveryScheduler: each emitted event
// fans out to one queued delivery task per subscribed endpoint. The
// task id makes the fan-out idempotent per endpoint and event.
type Scheduler struct {
	Client      Enqueuer
	Endpoints   EndpointLister
	MaxAttempts int
}

// Schedule enqueues delivery tasks for all endpoints subscribed to the
// event's topic. Vendor-owned endpoints only receive events carrying
// their own vendor id.
func (s Scheduler) Schedule(ctx context.Context, ev events.Event) error {
	if s.Client == nil || s.Endpoints == nil {
		return nil
	}
	endpoints, err := s.Endpoints.ListActiveForTopic(ctx, ev.Topic)
	if err != nil {
		return err
	}
	maxAttempts := s.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 6
	}
	var joined error
	for _, ep := range endpoints {
		if ep.VendorID != "" && !vendorMatches(ep.VendorID, ev.Payload) {
			continue
		}
		payload, err := json.Marshal(WebhookDeliverPayload{
			EndpointID:  ep.ID,
			EventID:     ev.ID,
			Topic:       ev.Topic,
			AggregateID: ev.AggregateID,
			Payload:     ev.Payload,
			OccurredAt:  ev.OccurredAt,
		})
		if err != nil {
			joined = errors.Join(joined, err)
			continue
		}
		_, err = s.Client.EnqueueContext(ctx, asynq.NewTask(TypeWebhookDeliver, payload),
			asynq.Queue(QueueWebhooks),
			asynq.MaxRetry(maxAttempts-1),
			asynq.TaskID(fmt.Sprintf("wh:%s:%d", ep.ID, ev.ID)),
			asynq.Retention(24*time.Hour),
		)
		if err != nil {
			if errors.Is(err, asynq.ErrTaskIDConflict) {
				continue
			}
			joined = errors.Join(joined, fmt.Errorf("enqueue delivery for %s: %w", ep.ID, err))
		}
	}
	return joined
}

func vendorMatches(vendorID string, payload json.RawMessage) bool {
	var p struct {
		VendorID string `json:"vendor_id"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return false
	}
	return p.VendorID == vendorID
}
