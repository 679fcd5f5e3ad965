package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/novincode/irannahal-api/internal/cart"
	"github.com/novincode/irannahal-api/internal/common"
	"github.com/novincode/irannahal-api/internal/jobs"
	"github.com/novincode/irannahal-api/internal/obs"
	"github.com/novincode/irannahal-api/internal/pricing"
	"github.com/novincode/irannahal-api/internal/repo"
)

// ErrInvalid marks a checkout rejected by domain validation. The Persian
// messages travel alongside in Output.Validation.
var ErrInvalid = errors.New("checkout validation failed")

// ProductSource loads canonical product rows. Checkout is a trust boundary:
// every price is re-derived from this source, never from the client.
type ProductSource interface {
	GetByID(ctx context.Context, id pgtype.UUID) (repo.Product, error)
}

// OrderWriter persists the order and its lines atomically.
type OrderWriter interface {
	CreateWithItems(ctx context.Context, order repo.Order, items []repo.OrderItem) (repo.Order, error)
}

// CartSource reads and clears cart sessions.
type CartSource interface {
	Get(ctx context.Context, id string) (cart.Cart, error)
	Clear(ctx context.Context, id string) error
}

// Enqueuer schedules post-checkout background work.
type Enqueuer interface {
	EnqueueOrderCreated(ctx context.Context, p jobs.OrderCreatedPayload) error
}

// ItemInput is one client-sent line. Only the product reference and the
// quantity are trusted.
type ItemInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Input is the checkout payload. Lines come either from a server-held cart
// session (CartID) or inline (Items); CartID wins when both are present.
type Input struct {
	CartID       string      `json:"cartId" validate:"omitempty,uuid"`
	AddressID    string      `json:"addressId"`
	ShippingCost float64     `json:"shippingCost" validate:"omitempty,gte=0"`
	Items        []ItemInput `json:"items" validate:"max=100"`
}

// Output is the created order summary.
type Output struct {
	OrderID    string                  `json:"orderId"`
	Status     string                  `json:"status"`
	Summary    pricing.CheckoutSummary `json:"summary"`
	Validation pricing.Validation      `json:"validation"`
}

// Service places orders.
type Service struct {
	Products ProductSource
	Orders   OrderWriter
	Carts    CartSource
	Jobs     Enqueuer
	Validate *validator.Validate
	Log      zerolog.Logger
}

// ValidateOnly runs domain validation without touching the database, for
// the pre-flight endpoint the storefront calls before confirming.
func (s *Service) ValidateOnly(ctx context.Context, in Input) (pricing.Validation, error) {
	lines, err := s.gather(ctx, in)
	if err != nil {
		return pricing.Validation{}, err
	}
	return pricing.ValidateCheckout(pricing.CheckoutData{Items: lines, AddressID: in.AddressID}), nil
}

// Checkout validates, re-prices server-side, persists the order, enqueues
// the confirmation task, and clears the cart session.
func (s *Service) Checkout(ctx context.Context, userID string, in Input) (Output, error) {
	if s.Products == nil || s.Orders == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	if s.Validate != nil {
		if err := s.Validate.Struct(in); err != nil {
			return Output{}, common.NewAppError("BAD_REQUEST", "invalid checkout payload", http.StatusBadRequest, err)
		}
	}

	lines, err := s.gather(ctx, in)
	if err != nil {
		return Output{}, err
	}
	validation := pricing.ValidateCheckout(pricing.CheckoutData{Items: lines, AddressID: in.AddressID})
	if !validation.IsValid {
		incCheckout("invalid")
		return Output{Validation: validation}, ErrInvalid
	}

	priced, err := s.reprice(ctx, lines)
	if err != nil {
		incCheckout("error")
		return Output{}, err
	}
	summary := pricing.CheckoutTotals(priced, in.ShippingCost)

	uid, err := repo.ToUUID(userID)
	if err != nil {
		return Output{}, fmt.Errorf("invalid user id: %w", err)
	}
	order := repo.Order{
		UserID:       uid,
		Status:       repo.OrderStatusPending,
		AddressID:    in.AddressID,
		Subtotal:     summary.SubtotalBeforeDiscount,
		Discount:     summary.TotalDiscount,
		ShippingCost: summary.ShippingCost,
		Total:        summary.Total,
	}
	items := make([]repo.OrderItem, 0, len(summary.Items))
	for _, lr := range summary.Items {
		pid, err := repo.ToUUID(lr.Line.ProductID)
		if err != nil {
			return Output{}, fmt.Errorf("invalid product id %q: %w", lr.Line.ProductID, err)
		}
		items = append(items, repo.OrderItem{
			ProductID: pid,
			Title:     lr.Line.Title,
			Quantity:  int32(lr.Line.Quantity),
			BasePrice: lr.Line.BasePrice,
			UnitPrice: lr.Discount.FinalPrice / pricing.Amount(lr.Line.Quantity),
			Subtotal:  lr.Subtotal,
		})
	}

	created, err := s.Orders.CreateWithItems(ctx, order, items)
	if err != nil {
		incCheckout("error")
		return Output{}, err
	}
	incCheckout("ok")

	if s.Jobs != nil {
		if err := s.Jobs.EnqueueOrderCreated(ctx, jobs.OrderCreatedPayload{
			OrderID: repo.UUIDString(created.ID),
			UserID:  userID,
			Total:   created.Total,
		}); err != nil {
			s.Log.Warn().Err(err).Str("order_id", repo.UUIDString(created.ID)).Msg("enqueue order created failed")
		}
	}
	if in.CartID != "" && s.Carts != nil {
		if err := s.Carts.Clear(ctx, in.CartID); err != nil && !errors.Is(err, cart.ErrNotFound) {
			s.Log.Warn().Err(err).Str("cart_id", in.CartID).Msg("clear cart after checkout failed")
		}
	}

	return Output{
		OrderID:    repo.UUIDString(created.ID),
		Status:     created.Status,
		Summary:    summary,
		Validation: validation,
	}, nil
}

// gather assembles the raw lines to validate, before any repricing.
func (s *Service) gather(ctx context.Context, in Input) ([]pricing.Line, error) {
	if in.CartID != "" && s.Carts != nil {
		c, err := s.Carts.Get(ctx, in.CartID)
		if err != nil {
			if errors.Is(err, cart.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		lines := make([]pricing.Line, 0, len(c.Lines))
		for _, l := range c.Lines {
			lines = append(lines, pricing.Line{
				ProductID: l.ProductID,
				Title:     l.Title,
				Quantity:  l.Quantity,
				UnitPrice: l.UnitPrice,
				BasePrice: l.BasePrice,
			})
		}
		return lines, nil
	}
	lines := make([]pricing.Line, 0, len(in.Items))
	for _, it := range in.Items {
		lines = append(lines, pricing.Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines, nil
}

// reprice replaces every line's pricing inputs with the canonical catalog
// row, discarding whatever the client or the cart snapshot carried.
func (s *Service) reprice(ctx context.Context, lines []pricing.Line) ([]pricing.Line, error) {
	out := make([]pricing.Line, 0, len(lines))
	for _, l := range lines {
		pid, err := repo.ToUUID(l.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product id %q: %w", l.ProductID, err)
		}
		p, err := s.Products.GetByID(ctx, pid)
		if err != nil {
			return nil, fmt.Errorf("load product %s: %w", l.ProductID, err)
		}
		conditions := pricing.ConditionsFromMeta(p.Meta)
		l.Title = p.Title
		l.BasePrice = p.Price
		l.UnitPrice = p.Price
		l.Conditions = conditions

		if res := pricing.Resolve(p.Price, l.Quantity, conditions); res.Applied != nil && obs.DiscountAppliedTotal != nil {
			obs.DiscountAppliedTotal.WithLabelValues(string(res.Applied.Type)).Inc()
		}
		out = append(out, l)
	}
	return out, nil
}

func incCheckout(result string) {
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues(result).Inc()
	}
}
