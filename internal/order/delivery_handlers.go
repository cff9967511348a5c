package order

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dukaan-labs/backend-dukaan/internal/common"
	"github.com/dukaan-labs/backend-dukaan/internal/repo"
)

// DeliveryHandler serves the courier-facing delivery endpoints.
type DeliveryHandler struct {
	Service *Service
}

// Unassigned handles GET /api/v1/deliveries/unassigned.
func (h *DeliveryHandler) Unassigned(w http.ResponseWriter, r *http.Request) {
	page, perPage := listParams(r)
	deliveries, err := h.Service.UnassignedDeliveries(r.Context(), perPage, (page-1)*perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       deliveryViews(deliveries),
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: len(deliveries)},
	})
}

// Mine handles GET /api/v1/deliveries.
func (h *DeliveryHandler) Mine(w http.ResponseWriter, r *http.Request) {
	courierID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	page, perPage := listParams(r)
	deliveries, err := h.Service.CourierDeliveries(r.Context(), courierID, perPage, (page-1)*perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       deliveryViews(deliveries),
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: len(deliveries)},
	})
}

// Claim handles POST /api/v1/deliveries/{deliveryID}/claim.
func (h *DeliveryHandler) Claim(w http.ResponseWriter, r *http.Request) {
	courierID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	d, err := h.Service.ClaimDelivery(r.Context(), courierID, chi.URLParam(r, "deliveryID"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": deliveryView(d)})
}

// PatchStatus handles PATCH /api/v1/deliveries/{deliveryID}/status.
func (h *DeliveryHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	courierID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	var req patchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	d, err := h.Service.SetDeliveryStatus(r.Context(), courierID, chi.URLParam(r, "deliveryID"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": deliveryView(d)})
}

func deliveryViews(deliveries []repo.Delivery) []map[string]any {
	out := make([]map[string]any, 0, len(deliveries))
	for _, d := range deliveries {
		out = append(out, deliveryView(d))
	}
	return out
}

func deliveryView(d repo.Delivery) map[string]any {
	return map[string]any{
		"id":           d.ID,
		"order_id":     d.OrderID,
		"courier_id":   d.CourierID,
		"status":       d.Status,
		"assigned_at":  d.AssignedAt,
		"delivered_at": d.DeliveredAt,
		"created_at":   d.CreatedAt,
	}
}
