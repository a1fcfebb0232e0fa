package config

import (
	"os"
	"time"
)

// CacheConfig defines TTLs for the domain cache. Each TTL covers one
// read path; entries expire on their own even if an invalidation is
// missed, so these values bound how stale a read can ever get. When
// Enabled is false or no Redis client could be constructed, every
// read falls through to the database.
type CacheConfig struct {
	Enabled      bool
	VehicleList  time.Duration // vehicles:* list keys
	VehicleTTL   time.Duration // vehicle:detail:{id}
	UserBookings time.Duration // bookings:user:{id}
	ActiveDeals  time.Duration // deals:active
	Dashboard    time.Duration // admin:dashboard:stats
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults match the read paths they cover: volatile aggregates get
// short TTLs, the vehicle catalogue a longer one.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      getenv("CACHE_ENABLED", "true") == "true",
		VehicleList:  parseDur(getenv("CACHE_VEHICLE_LIST_TTL", "5m")),
		VehicleTTL:   parseDur(getenv("CACHE_VEHICLE_DETAIL_TTL", "2m")),
		UserBookings: parseDur(getenv("CACHE_USER_BOOKINGS_TTL", "2m")),
		ActiveDeals:  parseDur(getenv("CACHE_ACTIVE_DEALS_TTL", "10m")),
		Dashboard:    parseDur(getenv("CACHE_DASHBOARD_TTL", "2m")),
	}
}

// Helper functions shared with redis.go.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Second
	}
	return d
}
