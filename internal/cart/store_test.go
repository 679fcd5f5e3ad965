package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/novincode/irannahal-api/internal/pricing"
)

var tieredConditions = []pricing.Condition{
	{MinQuantity: 2, Type: pricing.Percentage, Value: 10},
	{MinQuantity: 5, Type: pricing.Fixed, Value: 20000},
}

func kettle() ProductInfo {
	return ProductInfo{ID: "p-kettle", Title: "کتری برقی", Price: 100000, Conditions: tieredConditions}
}

type recordingPersister struct {
	mu      sync.Mutex
	saves   []Cart
	deletes []string
	saveErr error
	done    chan struct{}
}

func newRecordingPersister(buffer int) *recordingPersister {
	return &recordingPersister{done: make(chan struct{}, buffer)}
}

func (p *recordingPersister) Save(_ context.Context, c Cart) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { p.done <- struct{}{} }()
	if p.saveErr != nil {
		return p.saveErr
	}
	p.saves = append(p.saves, c)
	return nil
}

func (p *recordingPersister) Load(_ context.Context, _ string) (Cart, bool, error) {
	return Cart{}, false, nil
}

func (p *recordingPersister) Delete(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { p.done <- struct{}{} }()
	p.deletes = append(p.deletes, id)
	return nil
}

func (p *recordingPersister) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		<-p.done
	}
}

func newTestStore(p Persister) *Store {
	return NewStore(p, zerolog.Nop())
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(nil)
	ctx := context.Background()

	c := s.Create(ctx, "user-1")
	if c.ID == "" {
		t.Fatal("expected a cart id")
	}
	got, err := s.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.UserID != "user-1" || len(got.Lines) != 0 {
		t.Fatalf("unexpected cart: %+v", got)
	}
}

func TestGetUnknownCart(t *testing.T) {
	s := newTestStore(nil)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddItemSnapshotsDiscountedUnitPrice(t *testing.T) {
	s := newTestStore(nil)
	ctx := context.Background()
	c := s.Create(ctx, "")

	got, err := s.AddItem(ctx, c.ID, kettle(), 3)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if len(got.Lines) != 1 {
		t.Fatalf("expected one line, got %d", len(got.Lines))
	}
	line := got.Lines[0]
	if line.Quantity != 3 {
		t.Fatalf("quantity = %d", line.Quantity)
	}
	// 10% off 100000 spread over 3 units.
	if line.UnitPrice != 30000 {
		t.Fatalf("unit price = %v", line.UnitPrice)
	}
	if line.BasePrice != 100000 {
		t.Fatalf("base price = %v", line.BasePrice)
	}
}

func TestAddItemMergesQuantities(t *testing.T) {
	s := newTestStore(nil)
	ctx := context.Background()
	c := s.Create(ctx, "")

	if _, err := s.AddItem(ctx, c.ID, kettle(), 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	got, err := s.AddItem(ctx, c.ID, kettle(), 1)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if len(got.Lines) != 1 {
		t.Fatalf("expected merged line, got %d lines", len(got.Lines))
	}
	line := got.Lines[0]
	if line.Quantity != 2 {
		t.Fatalf("quantity = %d", line.Quantity)
	}
	// Crossing the 2-unit tier recomputes the snapshot at the merged quantity.
	if line.UnitPrice != 45000 {
		t.Fatalf("unit price = %v", line.UnitPrice)
	}
}

func TestUpdateQuantityRecomputesSnapshot(t *testing.T) {
	s := newTestStore(nil)
	ctx := context.Background()
	c := s.Create(ctx, "")
	if _, err := s.AddItem(ctx, c.ID, kettle(), 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	got, err := s.UpdateQuantity(ctx, c.ID, "p-kettle", 5)
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	// Fixed 20000 off 100000 spread over 5 units.
	if got.Lines[0].UnitPrice != 16000 {
		t.Fatalf("unit price = %v", got.Lines[0].UnitPrice)
	}

	if _, err := s.UpdateQuantity(ctx, c.ID, "p-kettle", 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := s.UpdateQuantity(ctx, c.ID, "missing", 2); !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("expected ErrLineNotFound, got %v", err)
	}
}

func TestRemoveItem(t *testing.T) {
	s := newTestStore(nil)
	ctx := context.Background()
	c := s.Create(ctx, "")
	if _, err := s.AddItem(ctx, c.ID, kettle(), 2); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	got, err := s.RemoveItem(ctx, c.ID, "p-kettle")
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if len(got.Lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(got.Lines))
	}
	if _, err := s.RemoveItem(ctx, c.ID, "p-kettle"); !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("expected ErrLineNotFound, got %v", err)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(nil)
	ctx := context.Background()
	c := s.Create(ctx, "")

	if err := s.Clear(ctx, c.ID); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := s.Get(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after clear, got %v", err)
	}
	if err := s.Clear(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTotalsUseCanonicalBasePrice(t *testing.T) {
	s := newTestStore(nil)
	ctx := context.Background()
	c := s.Create(ctx, "")
	if _, err := s.AddItem(ctx, c.ID, kettle(), 3); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	totals, err := s.Totals(ctx, c.ID)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if totals.SubtotalBeforeDiscount != 300000 {
		t.Fatalf("subtotal before = %v", totals.SubtotalBeforeDiscount)
	}
	if totals.TotalDiscount != 10000 {
		t.Fatalf("total discount = %v", totals.TotalDiscount)
	}
	if totals.SubtotalAfterDiscount != 290000 {
		t.Fatalf("subtotal after = %v", totals.SubtotalAfterDiscount)
	}
	if !totals.HasDiscount {
		t.Fatal("expected HasDiscount")
	}
}

func TestMutationsMirrorToPersister(t *testing.T) {
	p := newRecordingPersister(8)
	s := newTestStore(p)
	ctx := context.Background()

	c := s.Create(ctx, "")
	p.wait(t, 1)
	if _, err := s.AddItem(ctx, c.ID, kettle(), 2); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	p.wait(t, 1)
	if err := s.Clear(ctx, c.ID); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	p.wait(t, 1)

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.saves) != 2 {
		t.Fatalf("expected 2 saves, got %d", len(p.saves))
	}
	if len(p.saves[1].Lines) != 1 {
		t.Fatalf("expected mirrored line, got %+v", p.saves[1])
	}
	if len(p.deletes) != 1 || p.deletes[0] != c.ID {
		t.Fatalf("expected delete of %s, got %v", c.ID, p.deletes)
	}
}

func TestPersisterFailureNeverFailsMutation(t *testing.T) {
	p := newRecordingPersister(8)
	p.saveErr = errors.New("redis down")
	s := newTestStore(p)
	ctx := context.Background()

	c := s.Create(ctx, "")
	p.wait(t, 1)
	got, err := s.AddItem(ctx, c.ID, kettle(), 2)
	if err != nil {
		t.Fatalf("AddItem must not fail on persister error: %v", err)
	}
	p.wait(t, 1)
	if len(got.Lines) != 1 {
		t.Fatalf("mutation lost: %+v", got)
	}
}
