package curriculum

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "curriculum:module:"

// cacheClient is the subset of *redis.Client used by CachedStore.
type cacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// CachedStore is a read-through Redis cache in front of another Store.
// Cache errors are logged and the inner store is used instead.
type CachedStore struct {
	next   Store
	client cacheClient
	ttl    time.Duration
}

// NewCachedStore wraps next with a Redis cache. A zero ttl keeps entries
// until evicted.
func NewCachedStore(next Store, client cacheClient, ttl time.Duration) *CachedStore {
	return &CachedStore{next: next, client: client, ttl: ttl}
}

func (s *CachedStore) GetModule(ctx context.Context, key ModuleKey) (*Module, error) {
	cacheKey := cacheKeyPrefix + key.Slug()

	data, err := s.client.Get(ctx, cacheKey).Bytes()
	switch {
	case err == nil:
		var m Module
		if err := json.Unmarshal(data, &m); err == nil {
			return &m, nil
		}
		slog.Warn("discarding undecodable cached module", "key", cacheKey)
	case !errors.Is(err, redis.Nil):
		slog.Warn("module cache read failed", "key", cacheKey, "error", err)
	}

	m, err := s.next.GetModule(ctx, key)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(m)
	if err != nil {
		slog.Warn("module cache encode failed", "key", cacheKey, "error", err)
		return m, nil
	}
	if err := s.client.Set(ctx, cacheKey, encoded, s.ttl).Err(); err != nil {
		slog.Warn("module cache write failed", "key", cacheKey, "error", err)
	}
	return m, nil
}
