package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/novincode/irannahal-api/internal/common"
	"github.com/novincode/irannahal-api/internal/pricing"
	"github.com/novincode/irannahal-api/internal/repo"
)

// ErrNotFound indicates the requested product does not exist.
var ErrNotFound = errors.New("product not found")

type productSource interface {
	GetBySlug(ctx context.Context, slug string) (repo.Product, error)
	List(ctx context.Context, limit, offset int32) ([]repo.Product, error)
	Count(ctx context.Context) (int64, error)
}

// Service orchestrates product reads, price previews, and caching.
type Service struct {
	products     productSource
	cache        *Cache
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Products     productSource
	Cache        *Cache
	DefaultLimit int
	MaxLimit     int
}

// NewService validates dependencies and returns a catalog service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Products == nil {
		return nil, errors.New("catalog: product source is required")
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	return &Service{
		products:     cfg.Products,
		cache:        cfg.Cache,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
	}, nil
}

// ProductSummary is one entry in list responses. The price fields preview
// the quantity-1 display price so product cards render without a second
// round trip.
type ProductSummary struct {
	ID           string  `json:"id"`
	Slug         string  `json:"slug"`
	Title        string  `json:"title"`
	Price        float64 `json:"price"`
	DisplayPrice float64 `json:"displayPrice"`
	HasDiscount  bool    `json:"hasDiscount"`
}

// ProductDetail is the full detail payload including the discount tiers so
// the product page can preview prices at any chosen quantity.
type ProductDetail struct {
	ProductSummary
	Conditions []pricing.Condition `json:"discountConditions,omitempty"`
}

// DisplayPrice is the quantity-aware price preview for a product.
type DisplayPrice struct {
	Quantity int    `json:"quantity"`
	Preview  string `json:"preview,omitempty"`
	pricing.ItemPricing
}

// DefaultLimit exposes the configured page size.
func (s *Service) DefaultLimit() int { return s.defaultLimit }

func (s *Service) clampLimit(limit int) int32 {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	return int32(limit)
}

func summarize(p repo.Product) ProductSummary {
	conditions := pricing.ConditionsFromMeta(p.Meta)
	preview := pricing.PriceItem(p.Price, 1, conditions)
	return ProductSummary{
		ID:           repo.UUIDString(p.ID),
		Slug:         p.Slug,
		Title:        p.Title,
		Price:        p.Price,
		DisplayPrice: preview.PricePerUnit,
		HasDiscount:  preview.HasDiscount,
	}
}

// List returns a page of products plus pagination metadata.
func (s *Service) List(ctx context.Context, page, limit int) ([]ProductSummary, common.Pagination, error) {
	if page < 1 {
		page = 1
	}
	perPage := s.clampLimit(limit)
	cacheKey := fmt.Sprintf("catalog:list:%d:%d", page, perPage)

	type cached struct {
		Items      []ProductSummary  `json:"items"`
		Pagination common.Pagination `json:"pagination"`
	}
	var hit cached
	if ok, err := s.cache.GetJSON(ctx, cacheKey, &hit); err == nil && ok {
		return hit.Items, hit.Pagination, nil
	}

	offset := int32(page-1) * perPage
	products, err := s.products.List(ctx, perPage, offset)
	if err != nil {
		return nil, common.Pagination{}, err
	}
	total, err := s.products.Count(ctx)
	if err != nil {
		return nil, common.Pagination{}, err
	}

	items := make([]ProductSummary, 0, len(products))
	for _, p := range products {
		items = append(items, summarize(p))
	}
	pagination := common.Pagination{Page: page, PerPage: int(perPage), TotalItems: int(total)}
	_ = s.cache.SetJSON(ctx, cacheKey, cached{Items: items, Pagination: pagination})
	return items, pagination, nil
}

// Detail returns one product with its discount tiers.
func (s *Service) Detail(ctx context.Context, slug string) (ProductDetail, error) {
	cacheKey := "catalog:detail:" + slug
	var hit ProductDetail
	if ok, err := s.cache.GetJSON(ctx, cacheKey, &hit); err == nil && ok {
		return hit, nil
	}

	p, err := s.products.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ProductDetail{}, ErrNotFound
		}
		return ProductDetail{}, err
	}
	detail := ProductDetail{
		ProductSummary: summarize(p),
		Conditions:     pricing.ConditionsFromMeta(p.Meta),
	}
	_ = s.cache.SetJSON(ctx, cacheKey, detail)
	return detail, nil
}

// Price previews the effective price of a product at the given quantity,
// including the Persian discount summary shown next to the quantity picker.
func (s *Service) Price(ctx context.Context, slug string, quantity int) (DisplayPrice, error) {
	if quantity < 1 {
		quantity = 1
	}
	p, err := s.products.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return DisplayPrice{}, ErrNotFound
		}
		return DisplayPrice{}, err
	}
	conditions := pricing.ConditionsFromMeta(p.Meta)
	return DisplayPrice{
		Quantity:    quantity,
		Preview:     pricing.PreviewText(p.Price, quantity, conditions),
		ItemPricing: pricing.PriceItem(p.Price, quantity, conditions),
	}, nil
}
