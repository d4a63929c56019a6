package traffic

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/aliiexe/AmbuGo/internal/geo"
)

type mapStore struct {
	data   map[string]string
	getErr error
	sets   int
	ttl    time.Duration
}

func (m *mapStore) Get(_ context.Context, key string) *redis.StringCmd {
	if m.getErr != nil {
		return redis.NewStringResult("", m.getErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mapStore) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	m.sets++
	m.ttl = ttl
	m.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

type countingSource struct {
	calls  int
	sample Sample
	err    error
}

func (c *countingSource) Sample(context.Context, geo.Point) (Sample, error) {
	c.calls++
	return c.sample, c.err
}

func TestRedisCache_ReadThrough(t *testing.T) {
	store := &mapStore{data: map[string]string{}}
	src := &countingSource{sample: Sample{CurrentSpeed: 40, FreeFlowSpeed: 50}}
	cache := newRedisCache(src, store, time.Minute, zerolog.Nop())

	p := geo.Point{Latitude: 33.57312, Longitude: -7.58984}
	for i := 0; i < 3; i++ {
		s, err := cache.Sample(context.Background(), p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.CurrentSpeed != 40 {
			t.Errorf("unexpected sample %+v", s)
		}
	}
	if src.calls != 1 {
		t.Errorf("expected a single upstream call, got %d", src.calls)
	}
	if store.ttl != time.Minute {
		t.Errorf("expected ttl 1m, got %s", store.ttl)
	}
	if _, ok := store.data["traffic:33.573,-7.590"]; !ok {
		t.Errorf("expected rounded key, got %v", store.data)
	}
}

func TestRedisCache_DoesNotCacheErrors(t *testing.T) {
	store := &mapStore{data: map[string]string{}}
	src := &countingSource{err: ErrNoData}
	cache := newRedisCache(src, store, time.Minute, zerolog.Nop())

	if _, err := cache.Sample(context.Background(), geo.Point{}); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if store.sets != 0 {
		t.Error("errors must not be cached")
	}
}

func TestRedisCache_StoreFailureFallsThrough(t *testing.T) {
	store := &mapStore{data: map[string]string{}, getErr: errors.New("connection refused")}
	src := &countingSource{sample: Sample{CurrentSpeed: 10, FreeFlowSpeed: 50}}
	cache := newRedisCache(src, store, time.Minute, zerolog.Nop())

	s, err := cache.Sample(context.Background(), geo.Point{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.CurrentSpeed != 10 || src.calls != 1 {
		t.Errorf("expected upstream sample, got %+v after %d calls", s, src.calls)
	}
}

func TestRedisCache_MalformedEntry(t *testing.T) {
	p := geo.Point{Latitude: 1, Longitude: 2}
	store := &mapStore{data: map[string]string{cacheKey(p): "not json"}}
	src := &countingSource{sample: Sample{CurrentSpeed: 5, FreeFlowSpeed: 50}}
	cache := newRedisCache(src, store, time.Minute, zerolog.Nop())

	s, err := cache.Sample(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var cached Sample
	json.Unmarshal([]byte(store.data[cacheKey(p)]), &cached)
	if s.CurrentSpeed != 5 || cached.CurrentSpeed != 5 {
		t.Errorf("expected malformed entry to be replaced, got %+v / %+v", s, cached)
	}
}
