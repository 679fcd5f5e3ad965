package cart

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/novincode/irannahal-api/internal/common"
	"github.com/novincode/irannahal-api/internal/pricing"
	"github.com/novincode/irannahal-api/internal/repo"
)

// ProductLookup resolves canonical product data for cart mutations.
type ProductLookup interface {
	GetByID(ctx context.Context, id pgtype.UUID) (repo.Product, error)
}

// Handler exposes cart sessions over HTTP.
type Handler struct {
	Store    *Store
	Products ProductLookup
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CreateCart opens a new session.
func (h *Handler) CreateCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	c := h.Store.Create(r.Context(), userID)
	common.Data(w, http.StatusCreated, c)
}

// GetCart returns the session state.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c)
}

// AddItem adds a product line, merging quantities on re-add.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if req.Quantity < 1 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "quantity must be at least 1", nil)
		return
	}
	info, err := h.lookup(r.Context(), req.ProductID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	c, err := h.Store.AddItem(r.Context(), chi.URLParam(r, "id"), info, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c)
}

// UpdateQuantity sets a line's quantity.
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	c, err := h.Store.UpdateQuantity(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "productId"), req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c)
}

// RemoveItem drops a line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.RemoveItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "productId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c)
}

// ClearCart removes the whole session.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Clear(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Totals aggregates the session.
func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.Store.Totals(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, totals)
}

func (h *Handler) lookup(ctx context.Context, productID string) (ProductInfo, error) {
	uid, err := repo.ToUUID(productID)
	if err != nil {
		return ProductInfo{}, ErrInvalidInput
	}
	p, err := h.Products.GetByID(ctx, uid)
	if err != nil {
		return ProductInfo{}, err
	}
	return ProductInfo{
		ID:         repo.UUIDString(p.ID),
		Title:      p.Title,
		Price:      p.Price,
		Conditions: pricing.ConditionsFromMeta(p.Meta),
	}, nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case errors.Is(err, ErrLineNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart line not found", nil)
	case errors.Is(err, repo.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid input", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart operation failed", nil)
	}
}
