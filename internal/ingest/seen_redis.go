package ingest

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key prefix for processed message ids.
const seenKeyPrefix = "accessgate:seen:"

// defaultSeenTTL bounds how long dedupe markers live. Mail sources rarely
// re-serve messages older than this, and expiry keeps the keyspace flat.
const defaultSeenTTL = 30 * 24 * time.Hour

// RedisSeenStore shares dedupe state across instances. SET NX gives the
// atomic check-and-mark.
type RedisSeenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisSeenStoreOption configures a RedisSeenStore.
type RedisSeenStoreOption func(*RedisSeenStore)

// WithSeenTTL overrides the marker lifetime.
func WithSeenTTL(ttl time.Duration) RedisSeenStoreOption {
	return func(s *RedisSeenStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func NewRedisSeenStore(client *redis.Client, opts ...RedisSeenStoreOption) *RedisSeenStore {
	s := &RedisSeenStore{client: client, ttl: defaultSeenTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisSeenStore) MarkSeen(ctx context.Context, messageID string) (bool, error) {
	key := seenKeyPrefix + messageID
	// Key existence is the marker; "1" is arbitrary.
	return s.client.SetNX(ctx, key, "1", s.ttl).Result()
}
