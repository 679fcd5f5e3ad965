package catalog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/novincode/irannahal-api/internal/common"
)

// Handler wires the catalog service to HTTP.
type Handler struct {
	Service *Service
}

// Products lists published products with pagination.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	page, perPage := common.ParsePagination(r, h.Service.DefaultLimit())
	items, pagination, err := h.Service.List(r.Context(), page, perPage)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to list products", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": pagination,
	})
}

// ProductDetail returns one product by slug.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	detail, err := h.Service.Detail(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load product", nil)
		return
	}
	common.Data(w, http.StatusOK, detail)
}

// Price previews the display price for a product at the requested quantity.
func (h *Handler) Price(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	quantity := common.QueryInt(r, "qty", 1)
	if quantity < 1 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "qty must be at least 1", nil)
		return
	}
	price, err := h.Service.Price(r.Context(), chi.URLParam(r, "slug"), quantity)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to compute price", nil)
		return
	}
	common.Data(w, http.StatusOK, price)
}
