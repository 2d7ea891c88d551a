package methodstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	catalog "github.com/dmehra2102/UniPay/internal/catalog/domain"
)

const DefaultTTL = 24 * time.Hour

// Redis keeps the method under checkout:<session>:method_1 and lets it expire
// with the session.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{rdb: rdb, ttl: ttl}
}

func Key(session string) string {
	return "checkout:" + session + ":method_1"
}

func (r *Redis) Save(ctx context.Context, session string, method catalog.Method) error {
	return r.rdb.Set(ctx, Key(session), string(method), r.ttl).Err()
}

func (r *Redis) Load(ctx context.Context, session string) (catalog.Method, bool, error) {
	v, err := r.rdb.Get(ctx, Key(session)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return catalog.Method(v), true, nil
}

func (r *Redis) Clear(ctx context.Context, session string) error {
	return r.rdb.Del(ctx, Key(session)).Err()
}
