package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/novincode/irannahal-api/internal/repo"
)

type fakeProducts struct {
	bySlug map[string]repo.Product
	list   []repo.Product
	err    error
}

func (f *fakeProducts) GetBySlug(_ context.Context, slug string) (repo.Product, error) {
	if f.err != nil {
		return repo.Product{}, f.err
	}
	p, ok := f.bySlug[slug]
	if !ok {
		return repo.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (f *fakeProducts) List(_ context.Context, limit, offset int32) ([]repo.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	if int(offset) >= len(f.list) {
		return nil, nil
	}
	end := int(offset) + int(limit)
	if end > len(f.list) {
		end = len(f.list)
	}
	return f.list[offset:end], nil
}

func (f *fakeProducts) Count(_ context.Context) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.list)), nil
}

func tieredMeta(t *testing.T) map[string]json.RawMessage {
	t.Helper()
	raw, err := json.Marshal([]map[string]any{
		{"minQuantity": 2, "type": "percentage", "value": 10},
		{"minQuantity": 5, "type": "fixed", "value": 20000},
	})
	require.NoError(t, err)
	return map[string]json.RawMessage{"discountConditions": raw}
}

func newTestHandler(t *testing.T, src *fakeProducts) *Handler {
	t.Helper()
	svc, err := NewService(ServiceConfig{Products: src, DefaultLimit: 20, MaxLimit: 100})
	require.NoError(t, err)
	return &Handler{Service: svc}
}

func newTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/products", h.Products)
	r.Get("/products/{slug}", h.ProductDetail)
	r.Get("/products/{slug}/price", h.Price)
	return r
}

func TestProductsList(t *testing.T) {
	src := &fakeProducts{list: []repo.Product{
		{ID: repo.NewUUID(), Slug: "kettle", Title: "کتری برقی", Price: 100000, Meta: tieredMeta(t)},
		{ID: repo.NewUUID(), Slug: "mug", Title: "ماگ", Price: 50000},
	}}
	router := newTestRouter(newTestHandler(t, src))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data       []ProductSummary `json:"data"`
		Pagination struct {
			Page       int `json:"page"`
			PerPage    int `json:"per_page"`
			TotalItems int `json:"total_items"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	require.Equal(t, 2, body.Pagination.TotalItems)

	// Quantity-1 previews never apply tiered discounts.
	require.Equal(t, float64(100000), body.Data[0].DisplayPrice)
	require.False(t, body.Data[0].HasDiscount)
}

func TestProductDetail(t *testing.T) {
	src := &fakeProducts{bySlug: map[string]repo.Product{
		"kettle": {ID: repo.NewUUID(), Slug: "kettle", Title: "کتری برقی", Price: 100000, Meta: tieredMeta(t)},
	}}
	router := newTestRouter(newTestHandler(t, src))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/kettle", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data ProductDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "kettle", body.Data.Slug)
	require.Len(t, body.Data.Conditions, 2)
}

func TestProductDetailNotFound(t *testing.T) {
	router := newTestRouter(newTestHandler(t, &fakeProducts{}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestPricePreview(t *testing.T) {
	src := &fakeProducts{bySlug: map[string]repo.Product{
		"kettle": {ID: repo.NewUUID(), Slug: "kettle", Title: "کتری برقی", Price: 100000, Meta: tieredMeta(t)},
	}}
	router := newTestRouter(newTestHandler(t, src))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/kettle/price?qty=3", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data DisplayPrice `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 3, body.Data.Quantity)
	require.True(t, body.Data.HasDiscount)
	require.Equal(t, float64(90000), body.Data.EffectivePrice)
	require.Equal(t, float64(30000), body.Data.PricePerUnit)
	require.Equal(t, "٪10 تخفیف برای خرید 2 عدد به بالا", body.Data.Preview)
}

func TestPriceRejectsBadQuantity(t *testing.T) {
	router := newTestRouter(newTestHandler(t, &fakeProducts{}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/kettle/price?qty=0", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
