package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dukaan-labs/backend-dukaan/internal/common"
	"github.com/dukaan-labs/backend-dukaan/internal/repo"
)

// Handler serves the customer-facing order endpoints.
type Handler struct {
	Service *Service
}

// List handles GET /api/v1/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	customerID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	page, perPage := listParams(r)
	orders, err := h.Service.ListForCustomer(r.Context(), customerID, perPage, (page-1)*perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       orderViews(orders),
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: len(orders)},
	})
}

// Get handles GET /api/v1/orders/{orderID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	customerID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	o, err := h.Service.GetForCustomer(r.Context(), customerID, chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": orderView(o)})
}

// Cancel handles POST /api/v1/orders/{orderID}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	customerID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	o, err := h.Service.Cancel(r.Context(), customerID, chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": orderView(o)})
}

// VendorHandler serves the vendor-facing order endpoints.
type VendorHandler struct {
	Service *Service
}

// List handles GET /api/v1/vendor/orders.
func (h *VendorHandler) List(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	page, perPage := listParams(r)
	orders, err := h.Service.ListForVendor(r.Context(), vendorID, perPage, (page-1)*perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       orderViews(orders),
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: len(orders)},
	})
}

// Get handles GET /api/v1/vendor/orders/{orderID}.
func (h *VendorHandler) Get(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	o, err := h.Service.GetForVendor(r.Context(), vendorID, chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": orderView(o)})
}

type patchStatusRequest struct {
	Status string `json:"status"`
}

// PatchStatus handles PATCH /api/v1/vendor/orders/{orderID}/status.
func (h *VendorHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	var req patchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	o, err := h.Service.SetStatus(r.Context(), vendorID, chi.URLParam(r, "orderID"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": orderView(o)})
}

// Payout handles GET /api/v1/vendor/payouts?from=...&to=...
// Dates are RFC 3339; the window defaults to the trailing 30 days.
func (h *VendorHandler) Payout(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	from, to, err := payoutWindow(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	summary, err := h.Service.Payout(r.Context(), vendorID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": summary})
}

func payoutWindow(r *http.Request) (from, to time.Time, err error) {
	to = time.Now().UTC()
	from = to.AddDate(0, 0, -30)
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, errors.New("from must be an RFC 3339 timestamp")
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, errors.New("to must be an RFC 3339 timestamp")
		}
	}
	return from, to, nil
}

func listParams(r *http.Request) (page, perPage int) {
	page, perPage = common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	return
}

func orderViews(orders []repo.Order) []map[string]any {
	out := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderView(o))
	}
	return out
}

func orderView(o repo.Order) map[string]any {
	items := make([]map[string]any, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, map[string]any{
			"id":              item.ID,
			"product_id":      item.ProductID,
			"name":            item.Name,
			"qty":             item.Qty,
			"list_unit_price": item.ListUnitPrice,
			"unit_price":      item.UnitPrice,
			"line_total":      item.LineTotal,
		})
	}
	return map[string]any{
		"id":          o.ID,
		"checkout_id": o.CheckoutID,
		"customer_id": o.CustomerID,
		"vendor_id":   o.VendorID,
		"status":      o.Status,
		"currency":    o.Currency,
		"breakdown":   o.Breakdown,
		"items":       items,
		"created_at":  o.CreatedAt,
		"updated_at":  o.UpdatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = "INTERNAL"
		}
		common.JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
