package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthPinger re-checks a backend's reachability. Satisfied by
// cache.RedisStore.
type HealthPinger interface {
	Ping(ctx context.Context) bool
}

// Health returns the liveness probe used by load balancers. Each probe
// also re-pings the cache backend, which is how the store's connected
// flag recovers after an outage. The cache is fail-open, so the probe
// reports ok regardless of the ping's outcome.
func Health(cache HealthPinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if cache != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second)
			cache.Ping(ctx)
			cancel()
		}
		return c.String(http.StatusOK, "ok")
	}
}
