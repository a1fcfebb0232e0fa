package cache

import (
	"encoding/json"
	"fmt"
)

// Key builders. Centralizing key construction keeps the read paths
// and the invalidation table (invalidator.go) pointing at the same
// strings; a purge pattern that drifts from the key actually
// written silently serves stale data.

// VehicleDetailKey caches a single vehicle with its reviews.
func VehicleDetailKey(vehicleID uint64) string {
	return fmt.Sprintf("vehicle:detail:%d", vehicleID)
}

// UserBookingsKey caches one user's booking list.
func UserBookingsKey(userID uint64) string {
	return fmt.Sprintf("bookings:user:%d", userID)
}

// ActiveDealsKey caches the public list of running promotions.
const ActiveDealsKey = "deals:active"

// DashboardKey caches the admin dashboard aggregates.
const DashboardKey = "admin:dashboard:stats"

// VehicleListKey caches a filtered vehicle listing. The filter is
// JSON-encoded into the key so that distinct queries can never
// collide; Go's encoding/json writes struct fields in declaration
// order, which makes the encoding deterministic for a fixed filter
// type.
func VehicleListKey(filter any) string {
	b, err := json.Marshal(filter)
	if err != nil {
		// Unmarshalable filters would alias each other under a
		// constant key; keep them cacheable but mutually distinct
		// by falling back to the verbose Go representation.
		return fmt.Sprintf("vehicles:list:%+v", filter)
	}
	return "vehicles:list:" + string(b)
}
