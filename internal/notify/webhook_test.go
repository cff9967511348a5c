package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dukaan-labs/backend-dukaan/internal/events"
	"github.com/dukaan-labs/backend-dukaan/internal/repo"
)

func testEvent() events.Event {
	return events.Event{
		ID:          42,
		Topic:       events.TopicOrderCreated,
		AggregateID: "order-1",
		Payload:     json.RawMessage(`{"order_id":"order-1","total":107625}`),
		OccurredAt:  time.Now(),
	}
}

func TestDeliverSignsPayload(t *testing.T) {
	var (
		gotSignature string
		gotTimestamp string
		gotEventID   string
		gotBody      []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Signature")
		gotTimestamp = r.Header.Get("X-Timestamp")
		gotEventID = r.Header.Get("X-Event-ID")
		body, _ := io.ReadAll(r.Body)
		gotBody = body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := &Dispatcher{Client: srv.Client()}
	ep := repo.WebhookEndpoint{ID: "ep-1", URL: srv.URL, Secret: "s3cret"}
	status, err := d.Deliver(context.Background(), ep, testEvent())
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, status)
	require.Equal(t, "42", gotEventID)
	require.NotEmpty(t, gotTimestamp)

	var ts int64
	require.NoError(t, json.Unmarshal([]byte(gotTimestamp), &ts))
	require.Equal(t, ComputeSignature("s3cret", ts, "42", gotBody), gotSignature)

	var envelope struct {
		EventID int64           `json:"event_id"`
		Topic   string          `json:"topic"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &envelope))
	require.Equal(t, int64(42), envelope.EventID)
	require.Equal(t, events.TopicOrderCreated, envelope.Topic)
}

func TestDeliverNon2xxIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := &Dispatcher{Client: srv.Client()}
	ep := repo.WebhookEndpoint{ID: "ep-1", URL: srv.URL, Secret: "s3cret"}
	status, err := d.Deliver(context.Background(), ep, testEvent())
	require.ErrorIs(t, err, ErrEndpointRejected)
	require.Equal(t, http.StatusInternalServerError, status)
}

func TestValidateURL(t *testing.T) {
	cases := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://example.com/hooks", false},
		{"http localhost", "http://localhost:9000/hooks", false},
		{"http loopback", "http://127.0.0.1/hooks", false},
		{"http public", "http://example.com/hooks", true},
		{"no host", "https://", true},
		{"bad scheme", "ftp://example.com", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateURL(tc.url)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestComputeSignatureStable(t *testing.T) {
	body := []byte(`{"a":1}`)
	first := ComputeSignature("secret", 1700000000, "7", body)
	second := ComputeSignature("secret", 1700000000, "7", body)
	require.Equal(t, first, second)
	require.NotEqual(t, first, ComputeSignature("other", 1700000000, "7", body))
	require.NotEqual(t, first, ComputeSignature("secret", 1700000001, "7", body))
}
