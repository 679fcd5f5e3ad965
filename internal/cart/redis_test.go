package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisPersisterRoundTrip(t *testing.T) {
	p := &RedisPersister{R: newTestRedis(t), TTL: time.Hour}
	ctx := context.Background()

	saved := Cart{
		ID:     "cart-1",
		UserID: "user-1",
		Lines: []Line{{
			ProductID: "p-1",
			Title:     "کتری برقی",
			Quantity:  3,
			UnitPrice: 30000,
			BasePrice: 100000,
		}},
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, p.Save(ctx, saved))

	got, ok, err := p.Load(ctx, "cart-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, saved.ID, got.ID)
	require.Equal(t, saved.Lines, got.Lines)

	require.NoError(t, p.Delete(ctx, "cart-1"))
	_, ok, err = p.Load(ctx, "cart-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisPersisterMissingKey(t *testing.T) {
	p := &RedisPersister{R: newTestRedis(t)}
	_, ok, err := p.Load(context.Background(), "absent")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreRestoresFromMirror(t *testing.T) {
	p := &RedisPersister{R: newTestRedis(t), TTL: time.Hour}
	ctx := context.Background()

	require.NoError(t, p.Save(ctx, Cart{ID: "cart-9", Lines: []Line{{ProductID: "p-1", Quantity: 1, UnitPrice: 5000, BasePrice: 5000}}}))

	s := newTestStore(p)
	got, err := s.Get(ctx, "cart-9")
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	require.Equal(t, "p-1", got.Lines[0].ProductID)
}
