package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/novincode/irannahal-api/internal/cart"
	"github.com/novincode/irannahal-api/internal/jobs"
	"github.com/novincode/irannahal-api/internal/pricing"
	"github.com/novincode/irannahal-api/internal/repo"
)

type stubProducts struct {
	byID map[string]repo.Product
}

func (s *stubProducts) GetByID(_ context.Context, id pgtype.UUID) (repo.Product, error) {
	p, ok := s.byID[repo.UUIDString(id)]
	if !ok {
		return repo.Product{}, repo.ErrNotFound
	}
	return p, nil
}

type stubOrders struct {
	created *repo.Order
	items   []repo.OrderItem
	err     error
}

func (s *stubOrders) CreateWithItems(_ context.Context, order repo.Order, items []repo.OrderItem) (repo.Order, error) {
	if s.err != nil {
		return repo.Order{}, s.err
	}
	order.ID = repo.NewUUID()
	order.CreatedAt = pgtype.Timestamptz{Valid: true}
	s.created = &order
	s.items = items
	return order, nil
}

type stubCarts struct {
	carts   map[string]cart.Cart
	cleared []string
}

func (s *stubCarts) Get(_ context.Context, id string) (cart.Cart, error) {
	c, ok := s.carts[id]
	if !ok {
		return cart.Cart{}, cart.ErrNotFound
	}
	return c, nil
}

func (s *stubCarts) Clear(_ context.Context, id string) error {
	s.cleared = append(s.cleared, id)
	delete(s.carts, id)
	return nil
}

type stubJobs struct {
	enqueued []jobs.OrderCreatedPayload
	err      error
}

func (s *stubJobs) EnqueueOrderCreated(_ context.Context, p jobs.OrderCreatedPayload) error {
	if s.err != nil {
		return s.err
	}
	s.enqueued = append(s.enqueued, p)
	return nil
}

func discountedProduct(t *testing.T) repo.Product {
	t.Helper()
	raw, err := json.Marshal([]pricing.Condition{
		{MinQuantity: 2, Type: pricing.Percentage, Value: 10},
	})
	require.NoError(t, err)
	return repo.Product{
		ID:    repo.NewUUID(),
		Slug:  "kettle",
		Title: "کتری برقی",
		Price: 100000,
		Meta:  map[string]json.RawMessage{pricing.MetaKeyDiscountConditions: raw},
	}
}

func newService(products *stubProducts, orders *stubOrders, carts *stubCarts, queue *stubJobs) *Service {
	svc := &Service{
		Products: products,
		Orders:   orders,
		Validate: validator.New(),
		Log:      zerolog.Nop(),
	}
	if carts != nil {
		svc.Carts = carts
	}
	if queue != nil {
		svc.Jobs = queue
	}
	return svc
}

const userID = "0d9c8b7a-6f5e-4d3c-2b1a-098765432100"

func TestCheckoutFromInlineItems(t *testing.T) {
	p := discountedProduct(t)
	orders := &stubOrders{}
	queue := &stubJobs{}
	svc := newService(&stubProducts{byID: map[string]repo.Product{repo.UUIDString(p.ID): p}}, orders, nil, queue)

	out, err := svc.Checkout(context.Background(), userID, Input{
		AddressID:    "addr-1",
		ShippingCost: 50000,
		Items:        []ItemInput{{ProductID: repo.UUIDString(p.ID), Quantity: 3}},
	})
	require.NoError(t, err)
	require.True(t, out.Validation.IsValid)
	require.Equal(t, "PENDING_PAYMENT", out.Status)

	// 3 × 100000 with the 10% tier resolved once against the base price.
	require.Equal(t, float64(300000), out.Summary.SubtotalBeforeDiscount)
	require.Equal(t, float64(10000), out.Summary.TotalDiscount)
	require.Equal(t, float64(290000), out.Summary.SubtotalAfterDiscount)
	require.Equal(t, float64(340000), out.Summary.Total)

	require.NotNil(t, orders.created)
	require.Equal(t, float64(340000), orders.created.Total)
	require.Len(t, orders.items, 1)
	require.Equal(t, int32(3), orders.items[0].Quantity)
	require.Equal(t, float64(100000), orders.items[0].BasePrice)

	require.Len(t, queue.enqueued, 1)
	require.Equal(t, out.OrderID, queue.enqueued[0].OrderID)
}

func TestCheckoutIgnoresClientPrices(t *testing.T) {
	p := discountedProduct(t)
	orders := &stubOrders{}
	carts := &stubCarts{carts: map[string]cart.Cart{
		"11111111-2222-3333-4444-555555555555": {
			ID: "11111111-2222-3333-4444-555555555555",
			Lines: []cart.Line{{
				ProductID: repo.UUIDString(p.ID),
				Title:     "tampered",
				Quantity:  2,
				UnitPrice: 1, // stale or forged snapshot
				BasePrice: 1,
			}},
		},
	}}
	svc := newService(&stubProducts{byID: map[string]repo.Product{repo.UUIDString(p.ID): p}}, orders, carts, nil)

	out, err := svc.Checkout(context.Background(), userID, Input{
		CartID:    "11111111-2222-3333-4444-555555555555",
		AddressID: "addr-1",
	})
	require.NoError(t, err)

	// Totals come from the canonical 100000 base, not the forged snapshot.
	require.Equal(t, float64(200000), out.Summary.SubtotalBeforeDiscount)
	require.Equal(t, float64(10000), out.Summary.TotalDiscount)
	require.Equal(t, "کتری برقی", orders.items[0].Title)

	require.Equal(t, []string{"11111111-2222-3333-4444-555555555555"}, carts.cleared)
}

func TestCheckoutEmptyCartRejected(t *testing.T) {
	svc := newService(&stubProducts{}, &stubOrders{}, &stubCarts{carts: map[string]cart.Cart{}}, nil)

	out, err := svc.Checkout(context.Background(), userID, Input{AddressID: "addr-1"})
	require.ErrorIs(t, err, ErrInvalid)
	require.False(t, out.Validation.IsValid)
	require.Contains(t, out.Validation.Errors, pricing.MsgCartEmpty)
}

func TestCheckoutMissingAddressRejected(t *testing.T) {
	p := discountedProduct(t)
	svc := newService(&stubProducts{byID: map[string]repo.Product{repo.UUIDString(p.ID): p}}, &stubOrders{}, nil, nil)

	out, err := svc.Checkout(context.Background(), userID, Input{
		Items: []ItemInput{{ProductID: repo.UUIDString(p.ID), Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrInvalid)
	require.Contains(t, out.Validation.Errors, pricing.MsgAddressMissing)
}

func TestCheckoutCollectsRowErrors(t *testing.T) {
	svc := newService(&stubProducts{}, &stubOrders{}, nil, nil)

	out, err := svc.Checkout(context.Background(), userID, Input{
		AddressID: "addr-1",
		Items: []ItemInput{
			{ProductID: "p-1", Quantity: 0},
			{ProductID: "", Quantity: 2},
		},
	})
	require.ErrorIs(t, err, ErrInvalid)
	require.Contains(t, out.Validation.Errors, pricing.MsgInvalidQuantity(1))
	require.Contains(t, out.Validation.Errors, pricing.MsgInvalidProduct(2))
}

func TestCheckoutRejectsNegativeShipping(t *testing.T) {
	svc := newService(&stubProducts{}, &stubOrders{}, nil, nil)

	_, err := svc.Checkout(context.Background(), userID, Input{
		AddressID:    "addr-1",
		ShippingCost: -1,
		Items:        []ItemInput{{ProductID: "p-1", Quantity: 1}},
	})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalid)
}

func TestCheckoutSurvivesEnqueueFailure(t *testing.T) {
	p := discountedProduct(t)
	orders := &stubOrders{}
	queue := &stubJobs{err: errors.New("broker down")}
	svc := newService(&stubProducts{byID: map[string]repo.Product{repo.UUIDString(p.ID): p}}, orders, nil, queue)

	_, err := svc.Checkout(context.Background(), userID, Input{
		AddressID: "addr-1",
		Items:     []ItemInput{{ProductID: repo.UUIDString(p.ID), Quantity: 1}},
	})
	require.NoError(t, err)
	require.NotNil(t, orders.created)
}

func TestValidateOnly(t *testing.T) {
	svc := newService(&stubProducts{}, &stubOrders{}, nil, nil)

	v, err := svc.ValidateOnly(context.Background(), Input{})
	require.NoError(t, err)
	require.False(t, v.IsValid)
	require.Contains(t, v.Errors, pricing.MsgCartEmpty)
	require.Contains(t, v.Errors, pricing.MsgAddressMissing)
}
