package cache_test

import (
	"context"
	"errors"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torquex/rental-api/internal/cache"
)

// memStore is an in-memory Store for tests. Setting connected to
// false makes every operation behave like a degraded backend.
type memStore struct {
	connected bool
	data      map[string][]byte
	purged    []string
}

func newMemStore() *memStore {
	return &memStore{connected: true, data: make(map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool) {
	if !m.connected {
		return nil, false
	}
	b, ok := m.data[key]
	return b, ok
}

func (m *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) bool {
	if !m.connected {
		return false
	}
	m.data[key] = value
	return true
}

func (m *memStore) DeletePattern(_ context.Context, pattern string) bool {
	if !m.connected {
		return false
	}
	m.purged = append(m.purged, pattern)
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.data, k)
		}
	}
	return true
}

func (m *memStore) IsConnected() bool { return m.connected }

var _ cache.Store = (*memStore)(nil)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestReadThroughHitSkipsLoader(t *testing.T) {
	store := newMemStore()
	store.data["k"] = []byte(`{"name":"van","count":3}`)

	calls := 0
	got, err := cache.ReadThrough(context.Background(), store, "k", time.Minute, func(context.Context) (payload, error) {
		calls++
		return payload{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, payload{Name: "van", Count: 3}, got)
	assert.Zero(t, calls)
}

func TestReadThroughMissLoadsAndCaches(t *testing.T) {
	store := newMemStore()

	calls := 0
	loader := func(context.Context) (payload, error) {
		calls++
		return payload{Name: "camper", Count: 1}, nil
	}

	got, err := cache.ReadThrough(context.Background(), store, "k", time.Minute, loader)
	require.NoError(t, err)
	assert.Equal(t, "camper", got.Name)
	assert.Equal(t, 1, calls)

	// Second read must be served from the cache.
	got, err = cache.ReadThrough(context.Background(), store, "k", time.Minute, loader)
	require.NoError(t, err)
	assert.Equal(t, "camper", got.Name)
	assert.Equal(t, 1, calls)
}

func TestReadThroughLoaderErrorPropagatesUncached(t *testing.T) {
	store := newMemStore()
	boom := errors.New("db down")

	_, err := cache.ReadThrough(context.Background(), store, "k", time.Minute, func(context.Context) (payload, error) {
		return payload{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.data)
}

func TestReadThroughDegradedStoreFallsThrough(t *testing.T) {
	store := newMemStore()
	store.connected = false

	calls := 0
	loader := func(context.Context) (payload, error) {
		calls++
		return payload{Name: "suv"}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := cache.ReadThrough(context.Background(), store, "k", time.Minute, loader)
		require.NoError(t, err)
		assert.Equal(t, "suv", got.Name)
	}
	// Degraded store means every read goes to the source.
	assert.Equal(t, 3, calls)
	assert.Empty(t, store.data)
}

func TestReadThroughUndecodableEntryIsAMiss(t *testing.T) {
	store := newMemStore()
	store.data["k"] = []byte(`not json`)

	got, err := cache.ReadThrough(context.Background(), store, "k", time.Minute, func(context.Context) (payload, error) {
		return payload{Name: "fresh"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Name)
	// The bad entry was overwritten with the fresh value.
	assert.JSONEq(t, `{"name":"fresh","count":0}`, string(store.data["k"]))
}
