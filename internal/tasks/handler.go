package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/dukaan-labs/backend-dukaan/internal/notify"
	"github.com/dukaan-labs/backend-dukaan/internal/obs"
	"github.com/dukaan-labs/backend-dukaan/internal/repo"
)

// EndpointGetter loads a single endpoint. repo.WebhooksRepo satisfies it.
type EndpointGetter interface {
	Get(ctx context.Context, id string) (repo.WebhookEndpoint, error)
}

// WebhookDeliverHandler processes webhook delivery tasks. Returning an
// error hands the task back to asynq for retry with backoff; exhausted
// tasks land in the archive.
type WebhookDeliverHandler struct {
	Endpoints  EndpointGetter
	Dispatcher *notify.Dispatcher
	Log        zerolog.Logger
}

// ProcessTask implements asynq.Handler.
func (h WebhookDeliverHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p WebhookDeliverPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode webhook payload: %v: %w", err, asynq.SkipRetry)
	}
	ep, err := h.Endpoints.Get(ctx, p.EndpointID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("endpoint %s gone: %w", p.EndpointID, asynq.SkipRetry)
		}
		return err
	}
	if !ep.Active {
		h.Log.Debug().Str("endpoint_id", ep.ID).Msg("skipping delivery to deactivated endpoint")
		return nil
	}
	start := time.Now()
	status, err := h.Dispatcher.Deliver(ctx, ep, p.Event())
	result := "delivered"
	if err != nil {
		result = "failed"
	}
	if obs.WebhookDeliveriesTotal != nil {
		obs.WebhookDeliveriesTotal.WithLabelValues(result).Inc()
	}
	if obs.WebhookAttemptLatency != nil {
		obs.WebhookAttemptLatency.WithLabelValues(result).Observe(obs.DurationMillis(time.Since(start)))
	}
	if err != nil {
		h.Log.Warn().
			Err(err).
			Str("endpoint_id", ep.ID).
			Str("topic", p.Topic).
			Int("status", status).
			Msg("webhook delivery failed")
		return err
	}
	return nil
}

// NewServeMux wires the worker's task handlers.
func NewServeMux(webhooks WebhookDeliverHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeWebhookDeliver, webhooks)
	return mux
}
