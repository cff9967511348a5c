package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dukaan-labs/backend-dukaan/internal/common"
)

func newTestRouter(t *testing.T, store Store, vendorID string) *chi.Mux {
	t.Helper()
	svc := newTestService(t, store)
	h := &Handler{Service: svc, Validate: validator.New()}

	r := chi.NewRouter()
	r.Get("/api/v1/products", h.Products)
	r.Get("/api/v1/products/{id}", h.ProductDetail)
	r.Route("/api/v1/vendor/products", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := common.WithUserID(req.Context(), vendorID)
				ctx = common.WithRole(ctx, common.RoleVendor)
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
		r.Get("/", h.VendorProducts)
		r.Post("/", h.CreateProduct)
		r.Put("/{id}", h.UpdateProduct)
	})
	return r
}

func TestProductDetailEndpoint(t *testing.T) {
	store := newFakeStore()
	row := tieredRow(uuid.NewString())
	store.add(row)
	router := newTestRouter(t, store, row.VendorID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+row.ID+"?qty=50", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data ProductDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, int64(7000), int64(body.Data.UnitPrice))
	require.Len(t, body.Data.Tiers, 3)
}

func TestProductDetailNotFound(t *testing.T) {
	router := newTestRouter(t, newFakeStore(), uuid.NewString())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+uuid.NewString(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateProductEndpoint(t *testing.T) {
	store := newFakeStore()
	vendorID := uuid.NewString()
	router := newTestRouter(t, store, vendorID)

	payload := `{"name":"Toor Dal 1kg","base_price":14000,"discounted_price":12500,"bulk_price":11000,"bulk_min_units":20,"stock":100}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vendor/products", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var body struct {
		Data ProductDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, vendorID, body.Data.VendorID)
	require.True(t, body.Data.HasTiers)

	stored, err := store.Get(context.Background(), body.Data.ID)
	require.NoError(t, err)
	require.Equal(t, "Toor Dal 1kg", stored.Name)
}

func TestCreateProductValidation(t *testing.T) {
	router := newTestRouter(t, newFakeStore(), uuid.NewString())

	payload := `{"name":"","base_price":-5}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vendor/products", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}
