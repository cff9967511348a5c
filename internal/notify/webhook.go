package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dukaan-labs/backend-dukaan/internal/events"
	"github.com/dukaan-labs/backend-dukaan/internal/repo"
)

// ErrEndpointRejected is returned when the endpoint answered with a
// non-2xx status. Callers treat it as retryable.
var ErrEndpointRejected = errors.New("endpoint rejected delivery")

// Dispatcher delivers domain events to webhook endpoints. Retries and
// dead-lettering are the task queue's concern; Deliver performs exactly
// one signed attempt.
type Dispatcher struct {
	Client    *http.Client
	UserAgent string
}

// Deliver posts the event to the endpoint. The response status is
// returned alongside ErrEndpointRejected for non-2xx answers so callers
// can record it.
func (d *Dispatcher) Deliver(ctx context.Context, ep repo.WebhookEndpoint, ev events.Event) (int, error) {
	if d.Client == nil {
		d.Client = HTTPClient(5 * time.Second)
	}
	ctx, span := otel.Tracer("notify.Dispatcher").Start(ctx, "Dispatcher.Deliver")
	defer span.End()
	span.SetAttributes(
		attribute.String("webhook.endpoint_id", ep.ID),
		attribute.String("webhook.topic", ev.Topic),
		attribute.Int64("webhook.event_id", ev.ID),
	)
	if err := ValidateURL(ep.URL); err != nil {
		span.RecordError(err)
		return 0, err
	}
	occurred := ev.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	body, err := json.Marshal(struct {
		EventID    int64           `json:"event_id"`
		Topic      string          `json:"topic"`
		Data       json.RawMessage `json:"data"`
		OccurredAt time.Time       `json:"occurred_at"`
	}{
		EventID:    ev.ID,
		Topic:      ev.Topic,
		Data:       ev.Payload,
		OccurredAt: occurred,
	})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	ts := time.Now().Unix()
	eventID := strconv.FormatInt(ev.ID, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	agent := d.UserAgent
	if agent == "" {
		agent = "dukaan-webhooks/1.0"
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", agent)
	req.Header.Set("X-Event-ID", eventID)
	req.Header.Set("X-Timestamp", strconv.FormatInt(ts, 10))
	req.Header.Set("X-Signature", ComputeSignature(ep.Secret, ts, eventID, body))
	resp, err := d.Client.Do(req)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("%w: status %d", ErrEndpointRejected, resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// ValidateURL rejects endpoint URLs the dispatcher will not post to.
// Plain http is allowed only for loopback targets.
func ValidateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid endpoint url: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return errors.New("webhook url must be http or https")
	}
	if parsed.Host == "" {
		return errors.New("webhook url must include host")
	}
	if parsed.Scheme == "http" {
		host := parsed.Hostname()
		if host != "localhost" && host != "127.0.0.1" {
			return errors.New("http webhook only allowed for localhost")
		}
	}
	return nil
}

// ComputeSignature calculates the webhook signature for the provided
// payload: HMAC-SHA256 over "<ts>.<eventID>.<body>" with the endpoint
// secret, hex encoded.
func ComputeSignature(secret string, ts int64, eventID string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(strconv.FormatInt(ts, 10)))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write([]byte(eventID))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// HTTPClient returns an HTTP client configured for webhook delivery.
func HTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}
