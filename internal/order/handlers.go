package order

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/novincode/irannahal-api/internal/common"
	"github.com/novincode/irannahal-api/internal/repo"
)

// OrderSource reads persisted orders.
type OrderSource interface {
	GetForUser(ctx context.Context, id, userID pgtype.UUID) (repo.Order, error)
	ListForUser(ctx context.Context, userID pgtype.UUID, limit, offset int32) ([]repo.Order, error)
	ListItems(ctx context.Context, orderID pgtype.UUID) ([]repo.OrderItem, error)
}

// Handler exposes the caller's orders. All routes require auth.
type Handler struct {
	Orders OrderSource
}

// View is the JSON shape of one order.
type View struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	AddressID    string     `json:"addressId"`
	Subtotal     float64    `json:"subtotal"`
	Discount     float64    `json:"discount"`
	ShippingCost float64    `json:"shippingCost"`
	Total        float64    `json:"total"`
	CreatedAt    time.Time  `json:"createdAt"`
	Items        []ItemView `json:"items,omitempty"`
}

// ItemView is one frozen line on an order.
type ItemView struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Quantity  int32   `json:"quantity"`
	BasePrice float64 `json:"basePrice"`
	UnitPrice float64 `json:"unitPrice"`
	Subtotal  float64 `json:"subtotal"`
}

func toView(o repo.Order) View {
	return View{
		ID:           repo.UUIDString(o.ID),
		Status:       o.Status,
		AddressID:    o.AddressID,
		Subtotal:     o.Subtotal,
		Discount:     o.Discount,
		ShippingCost: o.ShippingCost,
		Total:        o.Total,
		CreatedAt:    o.CreatedAt.Time,
	}
}

// List returns the caller's orders, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Orders == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order source not configured", nil)
		return
	}
	uid, ok := h.callerID(w, r)
	if !ok {
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	orders, err := h.Orders.ListForUser(r.Context(), uid, int32(perPage), int32((page-1)*perPage))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	views := make([]View, 0, len(orders))
	for _, o := range orders {
		views = append(views, toView(o))
	}
	common.Data(w, http.StatusOK, views)
}

// Get returns one order with its lines.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Orders == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order source not configured", nil)
		return
	}
	uid, ok := h.callerID(w, r)
	if !ok {
		return
	}
	oid, err := repo.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	o, err := h.Orders.GetForUser(r.Context(), oid, uid)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	items, err := h.Orders.ListItems(r.Context(), oid)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order items", nil)
		return
	}
	view := toView(o)
	view.Items = make([]ItemView, 0, len(items))
	for _, it := range items {
		view.Items = append(view.Items, ItemView{
			ProductID: repo.UUIDString(it.ProductID),
			Title:     it.Title,
			Quantity:  it.Quantity,
			BasePrice: it.BasePrice,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		})
	}
	common.Data(w, http.StatusOK, view)
}

func (h *Handler) callerID(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return pgtype.UUID{}, false
	}
	uid, err := repo.ToUUID(userID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return pgtype.UUID{}, false
	}
	return uid, true
}
