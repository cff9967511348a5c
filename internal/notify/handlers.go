package notify

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dukaan-labs/backend-dukaan/internal/common"
	"github.com/dukaan-labs/backend-dukaan/internal/events"
	"github.com/dukaan-labs/backend-dukaan/internal/repo"
)

// Store is the endpoint persistence the handlers need. repo.WebhooksRepo
// satisfies it.
type Store interface {
	Create(ctx context.Context, vendorID, url, secret string, topics []string) (string, error)
	ListByVendor(ctx context.Context, vendorID string) ([]repo.WebhookEndpoint, error)
	Deactivate(ctx context.Context, id, vendorID string) error
}

// Handler serves vendor webhook endpoint management.
type Handler struct {
	Store Store
}

type createEndpointRequest struct {
	URL    string   `json:"url"`
	Secret string   `json:"secret"`
	Topics []string `json:"topics"`
}

// Create handles POST /api/v1/vendor/webhooks. When no secret is given
// one is generated and returned once; it is never shown again.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	var req createEndpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := ValidateURL(req.URL); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
		return
	}
	topics := req.Topics
	if len(topics) == 0 {
		topics = events.DefaultTopics()
	}
	if unknown := unknownTopics(topics); len(unknown) > 0 {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "unknown topics", map[string]any{"topics": unknown})
		return
	}
	secret := req.Secret
	if secret == "" {
		generated, err := generateSecret()
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to generate secret", nil)
			return
		}
		secret = generated
	}
	id, err := h.Store.Create(r.Context(), vendorID, req.URL, secret, topics)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to register endpoint", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{
		"id":     id,
		"url":    req.URL,
		"secret": secret,
		"topics": topics,
	}})
}

// List handles GET /api/v1/vendor/webhooks.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	endpoints, err := h.Store.ListByVendor(r.Context(), vendorID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list endpoints", nil)
		return
	}
	out := make([]map[string]any, 0, len(endpoints))
	for _, ep := range endpoints {
		out = append(out, map[string]any{
			"id":         ep.ID,
			"url":        ep.URL,
			"topics":     ep.Topics,
			"active":     ep.Active,
			"created_at": ep.CreatedAt,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Deactivate handles DELETE /api/v1/vendor/webhooks/{webhookID}.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	err := h.Store.Deactivate(r.Context(), chi.URLParam(r, "webhookID"), vendorID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "endpoint not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to deactivate endpoint", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func unknownTopics(topics []string) []string {
	known := map[string]bool{}
	for _, t := range events.DefaultTopics() {
		known[t] = true
	}
	var unknown []string
	for _, t := range topics {
		if !known[t] {
			unknown = append(unknown, t)
		}
	}
	return unknown
}

func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
