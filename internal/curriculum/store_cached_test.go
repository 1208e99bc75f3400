package curriculum_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spinkonweb-dotcom/booxclash-pro/internal/curriculum"
)

type fakeCache struct {
	data    map[string]string
	getErr  error
	setErr  error
	setTTLs []time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (c *fakeCache) Get(_ context.Context, key string) *redis.StringCmd {
	if c.getErr != nil {
		return redis.NewStringResult("", c.getErr)
	}
	v, ok := c.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (c *fakeCache) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	if c.setErr != nil {
		return redis.NewStatusResult("", c.setErr)
	}
	c.data[key] = string(value.([]byte))
	c.setTTLs = append(c.setTTLs, ttl)
	return redis.NewStatusResult("OK", nil)
}

type countingStore struct {
	modules map[string]*curriculum.Module
	calls   int
}

func (s *countingStore) GetModule(_ context.Context, key curriculum.ModuleKey) (*curriculum.Module, error) {
	s.calls++
	m, ok := s.modules[key.Slug()]
	if !ok {
		return nil, curriculum.ErrModuleNotFound
	}
	return m, nil
}

var mathsKey = curriculum.ModuleKey{Country: "Zambia", Grade: "8", Subject: "Mathematics"}

func mathsStore() *countingStore {
	return &countingStore{modules: map[string]*curriculum.Module{
		mathsKey.Slug(): {Topics: []curriculum.Topic{{
			ID:        "1",
			Title:     "Sets",
			SubTopics: []curriculum.Subtopic{{ID: "1.1", Title: "Describing sets", Competences: []string{"List elements"}}},
		}}},
	}}
}

func TestCachedStore_ReadThrough(t *testing.T) {
	inner := mathsStore()
	cache := newFakeCache()
	store := curriculum.NewCachedStore(inner, cache, time.Hour)

	for i := 0; i < 3; i++ {
		m, err := store.GetModule(t.Context(), mathsKey)
		if err != nil {
			t.Fatalf("GetModule() error = %v", err)
		}
		if got := m.Topics[0].SubTopics[0].Title; got != "Describing sets" {
			t.Errorf("Title = %q, want Describing sets", got)
		}
	}

	if inner.calls != 1 {
		t.Errorf("inner store calls = %d, want 1", inner.calls)
	}
	if _, ok := cache.data["curriculum:module:zambia_grade8_mathematics"]; !ok {
		t.Error("module was not written to cache")
	}
	if len(cache.setTTLs) != 1 || cache.setTTLs[0] != time.Hour {
		t.Errorf("Set TTLs = %v, want [1h]", cache.setTTLs)
	}
}

func TestCachedStore_NotFoundIsNotCached(t *testing.T) {
	inner := mathsStore()
	cache := newFakeCache()
	store := curriculum.NewCachedStore(inner, cache, time.Hour)

	missing := curriculum.ModuleKey{Country: "Zambia", Grade: "9", Subject: "Art"}
	for i := 0; i < 2; i++ {
		if _, err := store.GetModule(t.Context(), missing); !errors.Is(err, curriculum.ErrModuleNotFound) {
			t.Fatalf("GetModule() error = %v, want ErrModuleNotFound", err)
		}
	}

	if inner.calls != 2 {
		t.Errorf("inner store calls = %d, want 2", inner.calls)
	}
	if len(cache.data) != 0 {
		t.Errorf("cache holds %d entries, want 0", len(cache.data))
	}
}

func TestCachedStore_CacheFailuresFallThrough(t *testing.T) {
	inner := mathsStore()
	cache := newFakeCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	store := curriculum.NewCachedStore(inner, cache, time.Minute)

	m, err := store.GetModule(t.Context(), mathsKey)
	if err != nil {
		t.Fatalf("GetModule() error = %v", err)
	}
	if len(m.Topics) != 1 {
		t.Errorf("Topics = %d, want 1", len(m.Topics))
	}
}

func TestCachedStore_CorruptEntryIsReplaced(t *testing.T) {
	inner := mathsStore()
	cache := newFakeCache()
	cache.data["curriculum:module:zambia_grade8_mathematics"] = "not json"
	store := curriculum.NewCachedStore(inner, cache, time.Minute)

	if _, err := store.GetModule(t.Context(), mathsKey); err != nil {
		t.Fatalf("GetModule() error = %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner store calls = %d, want 1", inner.calls)
	}
	if cache.data["curriculum:module:zambia_grade8_mathematics"] == "not json" {
		t.Error("corrupt cache entry was not replaced")
	}
}
