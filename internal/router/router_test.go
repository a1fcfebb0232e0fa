package router_test

import (
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/torquex/rental-api/internal/router"
)

func TestRegisterMountsRoutes(t *testing.T) {
	e := echo.New()
	router.Register(e, router.Handlers{}, "secret")

	mounted := make(map[string]bool)
	for _, r := range e.Routes() {
		mounted[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"GET /healthz",
		"POST /v1/auth/register",
		"POST /v1/auth/login",
		"POST /v1/auth/refresh",
		"POST /v1/auth/logout",
		"POST /v1/auth/logout-all",
		"GET /v1/vehicles",
		"GET /v1/vehicles/:id",
		"GET /v1/deals/active",
		"GET /v1/me",
		"POST /v1/bookings",
		"GET /v1/bookings",
		"GET /v1/bookings/:id",
		"POST /v1/bookings/:id/payment",
		"POST /v1/bookings/:id/confirm",
		"POST /v1/bookings/:id/cancel",
		"POST /v1/deals/validate",
		"POST /v1/reviews",
		"GET /v1/admin/dashboard",
		"POST /v1/admin/vehicles",
		"PUT /v1/admin/vehicles/:id",
		"DELETE /v1/admin/vehicles/:id",
		"GET /v1/admin/deals",
		"POST /v1/admin/deals",
		"PUT /v1/admin/deals/:id",
		"DELETE /v1/admin/deals/:id",
		"POST /v1/admin/bookings/:id/activate",
		"POST /v1/admin/bookings/:id/complete",
	} {
		assert.True(t, mounted[want], want)
	}
}
