package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "cart:"

// RedisPersister mirrors cart sessions into Redis as JSON blobs so a session
// survives process restarts.
type RedisPersister struct {
	R   *redis.Client
	TTL time.Duration
}

func (p *RedisPersister) ttl() time.Duration {
	if p.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return p.TTL
}

// Save writes the session snapshot, refreshing its TTL.
func (p *RedisPersister) Save(ctx context.Context, c Cart) error {
	if p == nil || p.R == nil {
		return errors.New("cart: redis persister not configured")
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return p.R.Set(ctx, keyPrefix+c.ID, data, p.ttl()).Err()
}

// Load reads a mirrored session, reporting whether it existed.
func (p *RedisPersister) Load(ctx context.Context, id string) (Cart, bool, error) {
	if p == nil || p.R == nil {
		return Cart{}, false, errors.New("cart: redis persister not configured")
	}
	data, err := p.R.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Cart{}, false, nil
		}
		return Cart{}, false, err
	}
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return Cart{}, false, err
	}
	return c, true, nil
}

// Delete removes the mirrored session.
func (p *RedisPersister) Delete(ctx context.Context, id string) error {
	if p == nil || p.R == nil {
		return errors.New("cart: redis persister not configured")
	}
	return p.R.Del(ctx, keyPrefix+id).Err()
}
