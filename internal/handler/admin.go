package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/torquex/rental-api/internal/booking"
	"github.com/torquex/rental-api/internal/cache"
	"github.com/torquex/rental-api/internal/config"
	"github.com/torquex/rental-api/internal/model"
	"github.com/torquex/rental-api/internal/repository"
	"github.com/torquex/rental-api/internal/utils"
)

// AdminHandler groups the endpoints behind the ADMIN role: the
// dashboard, fleet and deal management, and rental hand-over
// transitions.
type AdminHandler struct {
	Vehicles *repository.VehicleRepo
	Deals    *repository.DealRepo
	Stats    *repository.StatsRepo
	Svc      *booking.Service
	Store    cache.Store
	TTL      config.CacheConfig
	Events   *cache.Invalidator
}

func NewAdminHandler(v *repository.VehicleRepo, d *repository.DealRepo, s *repository.StatsRepo, svc *booking.Service, store cache.Store, ttl config.CacheConfig, events *cache.Invalidator) *AdminHandler {
	return &AdminHandler{Vehicles: v, Deals: d, Stats: s, Svc: svc, Store: store, TTL: ttl, Events: events}
}

// Dashboard returns the aggregate snapshot, served through the
// admin:dashboard:stats cache entry.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	stats, err := cache.ReadThrough(ctx, h.Store, cache.DashboardKey, h.TTL.Dashboard, func(ctx context.Context) (*repository.DashboardStats, error) {
		return h.Stats.Collect(ctx)
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "dashboard failed"})
	}
	return c.JSON(http.StatusOK, stats)
}

// ----- vehicles -----

type vehicleReq struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	PricePerDayCents int64  `json:"price_per_day_cents"`
	Description      string `json:"description"`
	Availability     *bool  `json:"availability"`
}

func (r *vehicleReq) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	r.Type = strings.TrimSpace(r.Type)
	switch {
	case r.Name == "":
		return "name required"
	case r.Type == "":
		return "type required"
	case r.PricePerDayCents <= 0:
		return "price_per_day_cents must be positive"
	}
	return ""
}

// CreateVehicle adds a vehicle to the fleet.
func (h *AdminHandler) CreateVehicle(c echo.Context) error {
	var req vehicleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	avail := true
	if req.Availability != nil {
		avail = *req.Availability
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	v := &model.Vehicle{
		Name:             req.Name,
		Type:             req.Type,
		PricePerDayCents: req.PricePerDayCents,
		Description:      req.Description,
		Availability:     avail,
	}
	if err := h.Vehicles.Create(ctx, v); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create vehicle failed"})
	}
	h.Events.OnEvent(ctx, cache.Event{Type: cache.VehicleChanged, VehicleID: v.ID})
	return c.JSON(http.StatusCreated, v)
}

// UpdateVehicle rewrites a vehicle's attributes.
func (h *AdminHandler) UpdateVehicle(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vehicle id"})
	}
	var req vehicleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	cur, err := h.Vehicles.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrVehicleNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update vehicle failed"})
	}
	cur.Name = req.Name
	cur.Type = req.Type
	cur.PricePerDayCents = req.PricePerDayCents
	cur.Description = req.Description
	if req.Availability != nil {
		cur.Availability = *req.Availability
	}
	if err := h.Vehicles.Update(ctx, cur); err != nil {
		if err == repository.ErrVehicleNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update vehicle failed"})
	}
	h.Events.OnEvent(ctx, cache.Event{Type: cache.VehicleChanged, VehicleID: id})
	return c.JSON(http.StatusOK, cur)
}

// DeleteVehicle removes a vehicle. Vehicles with booking or review
// history cannot be deleted; mark them unavailable instead.
func (h *AdminHandler) DeleteVehicle(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vehicle id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Vehicles.Delete(ctx, id); err != nil {
		switch err {
		case repository.ErrVehicleNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "vehicle has booking history; set availability to false instead"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete vehicle failed"})
	}
	h.Events.OnEvent(ctx, cache.Event{Type: cache.VehicleChanged, VehicleID: id})
	return c.NoContent(http.StatusNoContent)
}

// ----- deals -----

type dealReq struct {
	Code             string    `json:"code"`
	Description      string    `json:"description"`
	DiscountType     string    `json:"discount_type"` // PERCENT | FIXED
	DiscountValue    int64     `json:"discount_value"`
	MinPurchaseCents int64     `json:"min_purchase_cents"`
	ValidFrom        time.Time `json:"valid_from"`
	ValidUntil       time.Time `json:"valid_until"`
	IsActive         bool      `json:"is_active"`
	UsageLimit       *uint32   `json:"usage_limit"`
}

func (r *dealReq) validate() string {
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	r.DiscountType = strings.ToUpper(strings.TrimSpace(r.DiscountType))
	switch {
	case r.Code == "":
		return "code required"
	case r.DiscountType != model.DiscountPercent && r.DiscountType != model.DiscountFixed:
		return "discount_type must be PERCENT or FIXED"
	case r.DiscountValue <= 0:
		return "discount_value must be positive"
	case r.DiscountType == model.DiscountPercent && r.DiscountValue > 100:
		return "percent discount cannot exceed 100"
	case r.MinPurchaseCents < 0:
		return "min_purchase_cents cannot be negative"
	case !r.ValidUntil.After(r.ValidFrom):
		return "valid_until must be after valid_from"
	}
	return ""
}

// ListDeals returns every deal, including inactive ones.
func (h *AdminHandler) ListDeals(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	deals, err := h.Deals.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list deals failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"deals": deals})
}

// CreateDeal adds a promotional deal.
func (h *AdminHandler) CreateDeal(c echo.Context) error {
	var req dealReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	d := &model.Deal{
		Code:             req.Code,
		CodeHash:         utils.HashPromoCode(req.Code),
		Description:      req.Description,
		DiscountType:     req.DiscountType,
		DiscountValue:    req.DiscountValue,
		MinPurchaseCents: req.MinPurchaseCents,
		ValidFrom:        req.ValidFrom.UTC(),
		ValidUntil:       req.ValidUntil.UTC(),
		IsActive:         req.IsActive,
		UsageLimit:       req.UsageLimit,
	}
	if err := h.Deals.Create(ctx, d); err != nil {
		if err == repository.ErrCodeTaken {
			return c.JSON(http.StatusConflict, echo.Map{"error": "deal code already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create deal failed"})
	}
	h.Events.OnEvent(ctx, cache.Event{Type: cache.DealChanged})
	return c.JSON(http.StatusCreated, d)
}

// UpdateDeal rewrites a deal's attributes. The code itself is
// immutable; create a new deal to change it.
func (h *AdminHandler) UpdateDeal(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid deal id"})
	}
	var req dealReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Code == "" {
		// Code is not updatable; skip its validation by reusing the
		// stored value below.
		req.Code = "-"
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Deals.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrDealNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "deal not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update deal failed"})
	}
	d.Description = req.Description
	d.DiscountType = req.DiscountType
	d.DiscountValue = req.DiscountValue
	d.MinPurchaseCents = req.MinPurchaseCents
	d.ValidFrom = req.ValidFrom.UTC()
	d.ValidUntil = req.ValidUntil.UTC()
	d.IsActive = req.IsActive
	d.UsageLimit = req.UsageLimit
	if err := h.Deals.Update(ctx, d); err != nil {
		if err == repository.ErrDealNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "deal not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update deal failed"})
	}
	h.Events.OnEvent(ctx, cache.Event{Type: cache.DealChanged})
	return c.JSON(http.StatusOK, d)
}

// DeleteDeal removes a deal.
func (h *AdminHandler) DeleteDeal(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid deal id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Deals.Delete(ctx, id); err != nil {
		if err == repository.ErrDealNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "deal not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete deal failed"})
	}
	h.Events.OnEvent(ctx, cache.Event{Type: cache.DealChanged})
	return c.NoContent(http.StatusNoContent)
}

// ----- booking transitions -----

// ActivateBooking marks a CONFIRMED rental as picked up.
func (h *AdminHandler) ActivateBooking(c echo.Context) error {
	return h.transition(c, h.Svc.Activate)
}

// CompleteBooking marks an ACTIVE rental as returned.
func (h *AdminHandler) CompleteBooking(c echo.Context) error {
	return h.transition(c, h.Svc.Complete)
}

func (h *AdminHandler) transition(c echo.Context, op func(context.Context, uint64) error) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := op(ctx, id); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
