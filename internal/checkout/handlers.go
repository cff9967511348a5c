package checkout

import (
	"errors"
	"net/http"

	"github.com/dukaan-labs/backend-dukaan/internal/common"
)

// Handler exposes the checkout endpoint.
type Handler struct {
	Service *Service
}

// Create handles POST /api/v1/checkout. The cart itself is the request;
// no body is read. A partial failure still returns the orders that were
// placed, with 409 signalling that at least one vendor was not.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	customerID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	result, err := h.Service.Create(r.Context(), customerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	status := http.StatusCreated
	if result.Failed != nil {
		status = http.StatusConflict
	}
	common.JSON(w, status, map[string]any{"data": result})
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
		common.JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
