package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/docukeep/session-guard/internal/ports"
)

// RedisReverifyStore stores one-time reverification challenges in Redis.
// Keys are token fingerprints, never raw tokens.
type RedisReverifyStore struct {
	client *redis.Client
}

// NewRedisReverifyStore creates the reverification challenge cache adapter.
func NewRedisReverifyStore(client *redis.Client) *RedisReverifyStore {
	return &RedisReverifyStore{client: client}
}

func (s *RedisReverifyStore) Put(ctx context.Context, token string, challenge ports.ReverifyChallenge, ttl time.Duration) error {
	raw, err := json.Marshal(challenge)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, "guard:reverify:"+token, raw, ttl).Err()
}

func (s *RedisReverifyStore) Get(ctx context.Context, token string) (*ports.ReverifyChallenge, error) {
	raw, err := s.client.Get(ctx, "guard:reverify:"+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var out ports.ReverifyChallenge
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RedisReverifyStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, "guard:reverify:"+token).Err()
}
