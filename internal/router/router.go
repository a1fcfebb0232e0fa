// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/torquex/rental-api/internal/handler"
	"github.com/torquex/rental-api/internal/middleware"
	"github.com/torquex/rental-api/internal/model"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Vehicles *handler.VehicleHandler
	Bookings *handler.BookingHandler
	Deals    *handler.DealHandler
	Reviews  *handler.ReviewHandler
	Admin    *handler.AdminHandler

	// Cache is pinged from the health endpoint so the store's
	// connected flag recovers after a Redis outage.
	Cache handler.HealthPinger
}

// Register mounts all routes: the public surface, the authenticated
// customer surface under /v1, and the admin surface under /v1/admin.
func Register(e *echo.Echo, h Handlers, jwtSecret string) {
	e.GET("/healthz", handler.Health(h.Cache))

	// Unauthenticated.
	auth := e.Group("/v1/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	e.GET("/v1/vehicles", h.Vehicles.List)
	e.GET("/v1/vehicles/:id", h.Vehicles.Get)
	e.GET("/v1/deals/active", h.Deals.Active)

	// Authenticated customers and admins.
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))
	v1.Use(middleware.RequireRole(model.RoleUser, model.RoleAdmin))
	v1.GET("/me", h.Auth.Me)
	v1.POST("/auth/logout-all", h.Auth.LogoutAll)
	v1.POST("/bookings", h.Bookings.Create)
	v1.GET("/bookings", h.Bookings.List)
	v1.GET("/bookings/:id", h.Bookings.Get)
	v1.POST("/bookings/:id/payment", h.Bookings.PaymentIntent)
	v1.POST("/bookings/:id/confirm", h.Bookings.Confirm)
	v1.POST("/bookings/:id/cancel", h.Bookings.Cancel)
	v1.POST("/deals/validate", h.Deals.Validate)
	v1.POST("/reviews", h.Reviews.Create)

	// Admin only.
	admin := e.Group("/v1/admin")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.GET("/dashboard", h.Admin.Dashboard)
	admin.POST("/vehicles", h.Admin.CreateVehicle)
	admin.PUT("/vehicles/:id", h.Admin.UpdateVehicle)
	admin.DELETE("/vehicles/:id", h.Admin.DeleteVehicle)
	admin.GET("/deals", h.Admin.ListDeals)
	admin.POST("/deals", h.Admin.CreateDeal)
	admin.PUT("/deals/:id", h.Admin.UpdateDeal)
	admin.DELETE("/deals/:id", h.Admin.DeleteDeal)
	admin.POST("/bookings/:id/activate", h.Admin.ActivateBooking)
	admin.POST("/bookings/:id/complete", h.Admin.CompleteBooking)
}
