package cache_test

import (
	"context"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/torquex/rental-api/internal/cache"
)

func purgedBy(t *testing.T, ev cache.Event) []string {
	t.Helper()
	store := newMemStore()
	cache.NewInvalidator(store).OnEvent(context.Background(), ev)
	return store.purged
}

func TestBookingEventsPurgeUserListing(t *testing.T) {
	for _, evType := range []cache.EventType{cache.BookingCreated, cache.BookingCancelled} {
		patterns := purgedBy(t, cache.Event{Type: evType, UserID: 7})
		assert.Equal(t, []string{cache.UserBookingsKey(7)}, patterns, "event %s", evType)
	}
}

func TestConfirmationEventsAlsoPurgeDashboard(t *testing.T) {
	for _, evType := range []cache.EventType{cache.BookingConfirmed, cache.BookingActivated, cache.BookingCompleted} {
		patterns := purgedBy(t, cache.Event{Type: evType, UserID: 7})
		assert.Contains(t, patterns, cache.UserBookingsKey(7), "event %s", evType)
		assert.Contains(t, patterns, "admin:dashboard:*", "event %s", evType)
	}
}

// A vehicle mutation must purge every key the vehicle read paths
// actually write, or the next read serves the pre-mutation state
// until the TTL saves it.
func TestVehicleChangedCoversVehicleReadKeys(t *testing.T) {
	patterns := purgedBy(t, cache.Event{Type: cache.VehicleChanged, VehicleID: 42})

	detailCovered := false
	dashboardCovered := false
	for _, p := range patterns {
		if ok, _ := path.Match(p, cache.VehicleDetailKey(42)); ok {
			detailCovered = true
		}
		if ok, _ := path.Match(p, cache.DashboardKey); ok {
			dashboardCovered = true
		}
	}
	assert.True(t, detailCovered, "vehicle:detail key not covered by %v", patterns)
	assert.True(t, dashboardCovered, "dashboard key not covered by %v", patterns)
	assert.Contains(t, patterns, "vehicles:*")
}

func TestDealChangedCoversActiveDeals(t *testing.T) {
	patterns := purgedBy(t, cache.Event{Type: cache.DealChanged})
	covered := false
	for _, p := range patterns {
		if ok, _ := path.Match(p, cache.ActiveDealsKey); ok {
			covered = true
		}
	}
	assert.True(t, covered, "deals:active not covered by %v", patterns)
}

func TestReviewCreatedPurgesItsVehicleOnly(t *testing.T) {
	patterns := purgedBy(t, cache.Event{Type: cache.ReviewCreated, VehicleID: 42})
	assert.Contains(t, patterns, cache.VehicleDetailKey(42))
	assert.NotContains(t, patterns, cache.VehicleDetailKey(43))
}

// End to end through a real store map: a write event deletes the
// entry a prior read cached, so the next read misses.
func TestReadAfterWriteInvalidation(t *testing.T) {
	store := newMemStore()
	store.data[cache.VehicleDetailKey(42)] = []byte(`{"stale":true}`)
	store.data[cache.UserBookingsKey(7)] = []byte(`[]`)

	cache.NewInvalidator(store).OnEvent(context.Background(), cache.Event{Type: cache.VehicleChanged, VehicleID: 42})

	_, ok := store.Get(context.Background(), cache.VehicleDetailKey(42))
	assert.False(t, ok, "stale vehicle detail survived invalidation")
	_, ok = store.Get(context.Background(), cache.UserBookingsKey(7))
	assert.True(t, ok, "unrelated entry was purged")
}
