package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/novincode/irannahal-api/internal/obs"
	"github.com/novincode/irannahal-api/internal/pricing"
)

// ErrNotFound indicates the requested cart session does not exist.
var ErrNotFound = errors.New("cart not found")

// ErrLineNotFound indicates the cart has no line for the given product.
var ErrLineNotFound = errors.New("cart line not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Line is one product row inside a cart session. UnitPrice is the snapshot
// price captured when the line last changed; BasePrice is the canonical
// catalog price the checkout re-derives discounts from.
type Line struct {
	ProductID  string              `json:"productId"`
	Title      string              `json:"title"`
	Quantity   int                 `json:"quantity"`
	UnitPrice  pricing.Amount      `json:"unitPrice"`
	BasePrice  pricing.Amount      `json:"basePrice"`
	Conditions []pricing.Condition `json:"discountConditions,omitempty"`
}

// Cart is one session's state.
type Cart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProductInfo is the canonical product data a caller supplies when adding a
// line. The store never trusts client-sent prices; handlers look the product
// up first and pass it here.
type ProductInfo struct {
	ID         string
	Title      string
	Price      pricing.Amount
	Conditions []pricing.Condition
}

// Persister mirrors cart sessions to a durable store. Saves are
// fire-and-forget: a failing persister must never fail a cart mutation.
type Persister interface {
	Save(ctx context.Context, c Cart) error
	Load(ctx context.Context, id string) (Cart, bool, error)
	Delete(ctx context.Context, id string) error
}

// Store manages cart sessions in memory, keyed by cart id. All mutations
// hold the mutex; the optional persister runs outside it.
type Store struct {
	mu        sync.Mutex
	carts     map[string]*Cart
	persister Persister
	log       zerolog.Logger
	now       func() time.Time
}

// NewStore constructs a session store. persister may be nil.
func NewStore(persister Persister, log zerolog.Logger) *Store {
	return &Store{
		carts:     make(map[string]*Cart),
		persister: persister,
		log:       log,
		now:       time.Now,
	}
}

// Create opens a new session and returns its snapshot.
func (s *Store) Create(ctx context.Context, userID string) Cart {
	c := &Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		Lines:     []Line{},
		UpdatedAt: s.now(),
	}
	s.mu.Lock()
	s.carts[c.ID] = c
	snapshot := cloneCart(c)
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	return snapshot
}

// Get returns a copy of the session, restoring it from the persister when
// this process no longer holds it in memory.
func (s *Store) Get(ctx context.Context, id string) (Cart, error) {
	s.mu.Lock()
	if c, ok := s.carts[id]; ok {
		snapshot := cloneCart(c)
		s.mu.Unlock()
		return snapshot, nil
	}
	s.mu.Unlock()

	if s.persister != nil {
		restored, ok, err := s.persister.Load(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Str("cart_id", id).Msg("cart restore failed")
		} else if ok {
			s.mu.Lock()
			c := restored
			s.carts[id] = &c
			snapshot := cloneCart(&c)
			s.mu.Unlock()
			return snapshot, nil
		}
	}
	return Cart{}, ErrNotFound
}

// AddItem appends a line, or merges quantities when the product is already
// in the cart. The snapshot price is recomputed at the combined quantity.
func (s *Store) AddItem(ctx context.Context, id string, p ProductInfo, quantity int) (Cart, error) {
	if p.ID == "" || quantity < 1 {
		return Cart{}, ErrInvalidInput
	}

	s.mu.Lock()
	c, ok := s.carts[id]
	if !ok {
		s.mu.Unlock()
		return Cart{}, ErrNotFound
	}
	merged := false
	for i := range c.Lines {
		if c.Lines[i].ProductID == p.ID {
			c.Lines[i].Quantity += quantity
			c.Lines[i].Title = p.Title
			c.Lines[i].BasePrice = p.Price
			c.Lines[i].Conditions = p.Conditions
			c.Lines[i].UnitPrice = pricing.PriceItem(p.Price, c.Lines[i].Quantity, p.Conditions).PricePerUnit
			merged = true
			break
		}
	}
	if !merged {
		c.Lines = append(c.Lines, Line{
			ProductID:  p.ID,
			Title:      p.Title,
			Quantity:   quantity,
			UnitPrice:  pricing.PriceItem(p.Price, quantity, p.Conditions).PricePerUnit,
			BasePrice:  p.Price,
			Conditions: p.Conditions,
		})
	}
	c.UpdatedAt = s.now()
	snapshot := cloneCart(c)
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	return snapshot, nil
}

// UpdateQuantity sets a line's quantity and recomputes its snapshot price.
func (s *Store) UpdateQuantity(ctx context.Context, id, productID string, quantity int) (Cart, error) {
	if quantity < 1 {
		return Cart{}, ErrInvalidInput
	}

	s.mu.Lock()
	c, ok := s.carts[id]
	if !ok {
		s.mu.Unlock()
		return Cart{}, ErrNotFound
	}
	found := false
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity = quantity
			c.Lines[i].UnitPrice = pricing.PriceItem(c.Lines[i].BasePrice, quantity, c.Lines[i].Conditions).PricePerUnit
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return Cart{}, ErrLineNotFound
	}
	c.UpdatedAt = s.now()
	snapshot := cloneCart(c)
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	return snapshot, nil
}

// RemoveItem drops a line from the cart.
func (s *Store) RemoveItem(ctx context.Context, id, productID string) (Cart, error) {
	s.mu.Lock()
	c, ok := s.carts[id]
	if !ok {
		s.mu.Unlock()
		return Cart{}, ErrNotFound
	}
	kept := c.Lines[:0]
	found := false
	for _, line := range c.Lines {
		if line.ProductID == productID {
			found = true
			continue
		}
		kept = append(kept, line)
	}
	if !found {
		s.mu.Unlock()
		return Cart{}, ErrLineNotFound
	}
	c.Lines = kept
	c.UpdatedAt = s.now()
	snapshot := cloneCart(c)
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	return snapshot, nil
}

// Clear removes the session entirely.
func (s *Store) Clear(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.carts[id]
	delete(s.carts, id)
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	if s.persister != nil {
		go func() {
			dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := s.persister.Delete(dctx, id); err != nil {
				s.log.Warn().Err(err).Str("cart_id", id).Msg("cart mirror delete failed")
				incCartSync("error")
				return
			}
			incCartSync("ok")
		}()
	}
	return nil
}

// Totals aggregates the session through the pricing core.
func (s *Store) Totals(ctx context.Context, id string) (pricing.Totals, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return pricing.Totals{}, err
	}
	lines := make([]pricing.Line, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, pricing.Line{
			ProductID:  l.ProductID,
			Title:      l.Title,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			BasePrice:  l.BasePrice,
			Conditions: l.Conditions,
		})
	}
	return pricing.CartTotals(lines), nil
}

// persist mirrors the snapshot without blocking or failing the caller.
func (s *Store) persist(ctx context.Context, snapshot Cart) {
	if s.persister == nil {
		return
	}
	go func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.persister.Save(sctx, snapshot); err != nil {
			s.log.Warn().Err(err).Str("cart_id", snapshot.ID).Msg("cart mirror sync failed")
			incCartSync("error")
			return
		}
		incCartSync("ok")
	}()
}

func incCartSync(result string) {
	if obs.CartSyncTotal != nil {
		obs.CartSyncTotal.WithLabelValues(result).Inc()
	}
}

func cloneCart(c *Cart) Cart {
	out := *c
	out.Lines = make([]Line, len(c.Lines))
	copy(out.Lines, c.Lines)
	return out
}
