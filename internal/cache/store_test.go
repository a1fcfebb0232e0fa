package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/torquex/rental-api/internal/cache"
)

// A nil client models Redis being unreachable at boot. Every
// operation must degrade silently instead of erroring or panicking.
func TestRedisStoreNilClientFailsOpen(t *testing.T) {
	store := cache.NewRedisStore(nil)
	ctx := context.Background()

	assert.False(t, store.IsConnected())

	val, ok := store.Get(ctx, "vehicle:detail:1")
	assert.Nil(t, val)
	assert.False(t, ok)

	assert.False(t, store.Set(ctx, "vehicle:detail:1", []byte(`{}`), time.Minute))
	assert.False(t, store.DeletePattern(ctx, "vehicles:*"))
	assert.False(t, store.Ping(ctx))
}

var _ cache.Store = (*cache.RedisStore)(nil)
