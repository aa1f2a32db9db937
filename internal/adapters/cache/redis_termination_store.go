package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisTerminationStore stores terminated-session markers with TTL.
type RedisTerminationStore struct {
	client *redis.Client
}

// NewRedisTerminationStore creates the termination marker cache adapter.
func NewRedisTerminationStore(client *redis.Client) *RedisTerminationStore {
	return &RedisTerminationStore{client: client}
}

func (s *RedisTerminationStore) MarkTerminated(ctx context.Context, sessionID uuid.UUID, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = time.Hour
	}
	return s.client.Set(ctx, "guard:terminated:"+sessionID.String(), "1", ttl).Err()
}

func (s *RedisTerminationStore) IsTerminated(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	n, err := s.client.Exists(ctx, "guard:terminated:"+sessionID.String()).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
