package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/torquex/rental-api/internal/cache"
	"github.com/torquex/rental-api/internal/config"
	"github.com/torquex/rental-api/internal/model"
	"github.com/torquex/rental-api/internal/repository"
)

// VehicleHandler serves the public vehicle catalogue. Listings and
// details are cached behind the shared store; both fall through to
// the database when the cache is degraded.
type VehicleHandler struct {
	Vehicles *repository.VehicleRepo
	Reviews  *repository.ReviewRepo
	Store    cache.Store
	TTL      config.CacheConfig
}

func NewVehicleHandler(v *repository.VehicleRepo, r *repository.ReviewRepo, store cache.Store, ttl config.CacheConfig) *VehicleHandler {
	return &VehicleHandler{Vehicles: v, Reviews: r, Store: store, TTL: ttl}
}

type vehicleListResp struct {
	Vehicles []model.Vehicle `json:"vehicles"`
	Types    []string        `json:"types"`
}

// vehicleDetailResp is the detail payload cached under
// vehicle:detail:{id}.
type vehicleDetailResp struct {
	Vehicle       model.Vehicle             `json:"vehicle"`
	AverageRating float64                   `json:"average_rating"`
	ReviewCount   int                       `json:"review_count"`
	Reviews       []repository.ReviewDetail `json:"reviews"`
}

// List returns the catalogue filtered by query parameters. The filter
// is part of the cache key so each distinct filter combination caches
// independently.
func (h *VehicleHandler) List(c echo.Context) error {
	filter, err := parseVehicleFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	resp, err := cache.ReadThrough(ctx, h.Store, cache.VehicleListKey(filter), h.TTL.VehicleList, func(ctx context.Context) (vehicleListResp, error) {
		vehicles, err := h.Vehicles.List(ctx, filter)
		if err != nil {
			return vehicleListResp{}, err
		}
		types, err := h.Vehicles.Types(ctx)
		if err != nil {
			return vehicleListResp{}, err
		}
		return vehicleListResp{Vehicles: vehicles, Types: types}, nil
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list vehicles failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Get returns one vehicle with its reviews and rating summary.
func (h *VehicleHandler) Get(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vehicle id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	resp, err := cache.ReadThrough(ctx, h.Store, cache.VehicleDetailKey(id), h.TTL.VehicleTTL, func(ctx context.Context) (vehicleDetailResp, error) {
		v, err := h.Vehicles.GetByID(ctx, id)
		if err != nil {
			return vehicleDetailResp{}, err
		}
		reviews, err := h.Reviews.ListByVehicle(ctx, id)
		if err != nil {
			return vehicleDetailResp{}, err
		}
		avg, count, err := h.Reviews.AverageRating(ctx, id)
		if err != nil {
			return vehicleDetailResp{}, err
		}
		return vehicleDetailResp{Vehicle: *v, AverageRating: avg, ReviewCount: count, Reviews: reviews}, nil
	})
	if err != nil {
		if err == repository.ErrVehicleNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get vehicle failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

func parseVehicleFilter(c echo.Context) (repository.VehicleFilter, error) {
	var f repository.VehicleFilter
	f.Type = strings.TrimSpace(c.QueryParam("type"))
	if s := c.QueryParam("min_price_cents"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return f, errInvalidFilter("min_price_cents")
		}
		f.MinPriceCents = n
	}
	if s := c.QueryParam("max_price_cents"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return f, errInvalidFilter("max_price_cents")
		}
		f.MaxPriceCents = n
	}
	if s := c.QueryParam("available"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return f, errInvalidFilter("available")
		}
		f.AvailableOnly = b
	}
	return f, nil
}

type errInvalidFilter string

func (e errInvalidFilter) Error() string { return "invalid query parameter: " + string(e) }
