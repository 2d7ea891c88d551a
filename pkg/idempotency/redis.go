package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// OffsetKey identifies a consumed Kafka message.
func OffsetKey(topic string, partition int, offset int64) string {
	return fmt.Sprintf("idem:%s:%d:%d", topic, partition, offset)
}

func (s *RedisStore) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func requestKey(key string) string {
	return "idem:req:" + key
}

func (s *RedisStore) Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (Reservation, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	pending, err := json.Marshal(Record{Fingerprint: fingerprint, Status: StatusPending})
	if err != nil {
		return Reservation{}, err
	}
	ok, err := s.rdb.SetNX(ctx, requestKey(key), pending, ttl).Result()
	if err != nil {
		return Reservation{}, err
	}
	if ok {
		return Reservation{State: ReservationNew}, nil
	}

	raw, err := s.rdb.Get(ctx, requestKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between SetNX and Get; treat as in flight and let the client retry.
		return Reservation{State: ReservationPending}, nil
	}
	if err != nil {
		return Reservation{}, err
	}
	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return Reservation{}, err
	}
	return resolve(record, fingerprint)
}

func (s *RedisStore) SaveResponse(ctx context.Context, key, fingerprint string, resp Response, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.ttl
	}
	raw, err := json.Marshal(completed(fingerprint, resp))
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, requestKey(key), raw, ttl).Err()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, requestKey(key)).Err()
}
