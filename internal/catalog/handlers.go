package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/dukaan-labs/backend-dukaan/internal/common"
	"github.com/dukaan-labs/backend-dukaan/internal/pricing"
	"github.com/dukaan-labs/backend-dukaan/internal/repo"
)

// Handler exposes catalog endpoints for customers and vendors.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

type productRequest struct {
	Name             string `json:"name" validate:"required"`
	Description      string `json:"description"`
	BasePrice        int64  `json:"base_price" validate:"gte=0"`
	DiscountedPrice  *int64 `json:"discounted_price" validate:"omitempty,gte=0"`
	BulkPrice        *int64 `json:"bulk_price" validate:"omitempty,gte=0"`
	BulkMinUnits     *int   `json:"bulk_min_units" validate:"omitempty,gte=1"`
	LargeQtyPrice    *int64 `json:"large_qty_price" validate:"omitempty,gte=0"`
	LargeQtyMinUnits *int   `json:"large_qty_min_units" validate:"omitempty,gte=1"`
	Stock            int    `json:"stock" validate:"gte=0"`
}

// Products handles GET /api/v1/products.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	page, limit := common.ParsePagination(r, 0)
	result, err := h.Service.ListProducts(r.Context(), page, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       result.Items,
		"pagination": common.Pagination{Page: result.Page, PerPage: result.Limit, TotalItems: len(result.Items)},
	})
}

// ProductDetail handles GET /api/v1/products/{id}. An optional qty query
// parameter prices the tier table at that quantity.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	qty := common.AtoiDefault(r.URL.Query().Get("qty"), 1)
	detail, err := h.Service.GetProductDetail(r.Context(), id, qty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": detail})
}

// VendorProducts handles GET /api/v1/vendor/products.
func (h *Handler) VendorProducts(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	page, limit := common.ParsePagination(r, 0)
	result, err := h.Service.ListVendorProducts(r.Context(), vendorID, page, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       result.Items,
		"pagination": common.Pagination{Page: result.Page, PerPage: result.Limit, TotalItems: len(result.Items)},
	})
}

// CreateProduct handles POST /api/v1/vendor/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	input, ok := h.decodeProduct(w, r, vendorID)
	if !ok {
		return
	}
	detail, err := h.Service.CreateProduct(r.Context(), input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": detail})
}

// UpdateProduct handles PUT /api/v1/vendor/products/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	input, ok := h.decodeProduct(w, r, vendorID)
	if !ok {
		return
	}
	detail, err := h.Service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": detail})
}

func (h *Handler) decodeProduct(w http.ResponseWriter, r *http.Request, vendorID string) (repo.NewProductInput, bool) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return repo.NewProductInput{}, false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "invalid product payload", validationDetails(err))
			return repo.NewProductInput{}, false
		}
	}
	return repo.NewProductInput{
		VendorID:         vendorID,
		Name:             req.Name,
		Description:      req.Description,
		BasePrice:        pricing.Money(req.BasePrice),
		DiscountedPrice:  moneyPtr(req.DiscountedPrice),
		BulkPrice:        moneyPtr(req.BulkPrice),
		BulkMinUnits:     req.BulkMinUnits,
		LargeQtyPrice:    moneyPtr(req.LargeQtyPrice),
		LargeQtyMinUnits: req.LargeQtyMinUnits,
		Stock:            req.Stock,
	}, true
}

func moneyPtr(v *int64) *pricing.Money {
	if v == nil {
		return nil
	}
	m := pricing.Money(*v)
	return &m
}

func validationDetails(err error) any {
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return nil
	}
	fields := make(map[string]string, len(invalid))
	for _, fe := range invalid {
		fields[fe.Field()] = fe.Tag()
	}
	return map[string]any{"fields": fields}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
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
		message := appErr.Message
		if message == "" {
			message = "internal error"
		}
		common.JSONError(w, status, code, message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
