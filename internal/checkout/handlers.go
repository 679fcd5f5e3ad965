package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/novincode/irannahal-api/internal/common"
)

// Handler exposes checkout over HTTP. Both endpoints require auth.
type Handler struct {
	Svc *Service
}

// Checkout places an order. Invalid carts come back as 422 with the Persian
// message list; a valid one returns 201 with the order summary.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var payload Input
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	out, err := h.Svc.Checkout(r.Context(), userID, payload)
	if err != nil {
		if errors.Is(err, ErrInvalid) {
			common.JSONError(w, http.StatusUnprocessableEntity, "UNPROCESSABLE", "checkout validation failed", out.Validation.Errors)
			return
		}
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, out)
}

// ValidateCheckout runs the pre-flight validation without creating anything.
func (h *Handler) ValidateCheckout(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var payload Input
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	validation, err := h.Svc.ValidateOnly(r.Context(), payload)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, validation)
}
