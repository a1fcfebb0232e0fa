package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/torquex/rental-api/internal/booking"
	"github.com/torquex/rental-api/internal/cache"
	"github.com/torquex/rental-api/internal/config"
	"github.com/torquex/rental-api/internal/model"
	"github.com/torquex/rental-api/internal/repository"
)

// BookingHandler exposes the booking lifecycle over HTTP. Writes go
// through the booking service; the per-user listing is served through
// the cache.
type BookingHandler struct {
	Svc      *booking.Service
	Bookings *repository.BookingRepo
	Store    cache.Store
	TTL      config.CacheConfig
}

func NewBookingHandler(svc *booking.Service, b *repository.BookingRepo, store cache.Store, ttl config.CacheConfig) *BookingHandler {
	return &BookingHandler{Svc: svc, Bookings: b, Store: store, TTL: ttl}
}

type createBookingReq struct {
	VehicleID uint64 `json:"vehicle_id"`
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD, exclusive
}

// Create books a vehicle for [start_date, end_date). The new booking
// starts PENDING and must be paid and confirmed before it holds.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.VehicleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "vehicle_id required"})
	}
	rng, err := booking.ParseRange(req.StartDate, req.EndDate, time.Now())
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Svc.Create(ctx, currentUser(c), req.VehicleID, rng)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

type userBookingsResp struct {
	Upcoming []repository.BookingDetail `json:"upcoming"`
	Active   []repository.BookingDetail `json:"active"`
	Past     []repository.BookingDetail `json:"past"`
}

// List returns the caller's bookings bucketed into upcoming, active
// and past, served through the bookings:user:{id} cache entry. The
// raw rows are what gets cached; bucketing happens per request since
// it depends on the clock.
func (h *BookingHandler) List(c echo.Context) error {
	uid := currentUser(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, err := cache.ReadThrough(ctx, h.Store, cache.UserBookingsKey(uid), h.TTL.UserBookings, func(ctx context.Context) ([]repository.BookingDetail, error) {
		return h.Bookings.ListByUser(ctx, uid)
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
	}
	return c.JSON(http.StatusOK, bucketBookings(rows, time.Now().UTC()))
}

func bucketBookings(rows []repository.BookingDetail, now time.Time) userBookingsResp {
	resp := userBookingsResp{
		Upcoming: make([]repository.BookingDetail, 0),
		Active:   make([]repository.BookingDetail, 0),
		Past:     make([]repository.BookingDetail, 0),
	}
	for _, d := range rows {
		switch {
		case d.Status == model.BookingCancelled || d.Status == model.BookingCompleted || !now.Before(d.EndDate):
			resp.Past = append(resp.Past, d)
		case d.Status == model.BookingActive || !now.Before(d.StartDate):
			resp.Active = append(resp.Active, d)
		default:
			resp.Upcoming = append(resp.Upcoming, d)
		}
	}
	return resp
}

// Get returns one booking. Non-admin callers only see their own.
func (h *BookingHandler) Get(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		return bookingError(c, err)
	}
	if b.UserID != currentUser(c) && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, b)
}

// PaymentIntent creates (or returns the existing) payment intent for
// a PENDING booking.
func (h *BookingHandler) PaymentIntent(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	in, err := h.Svc.PaymentIntent(ctx, currentUser(c), id)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, in)
}

// Confirm verifies the booking's payment and moves it
// PENDING -> CONFIRMED.
func (h *BookingHandler) Confirm(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Svc.Confirm(ctx, currentUser(c), id)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Cancel releases a PENDING or CONFIRMED booking. The cancellation
// cut-off applies to admins too; being staff does not reopen a
// window the customer already lost.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Svc.Cancel(ctx, id, currentUser(c), isAdmin(c)); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// bookingError translates domain and repository sentinels into HTTP
// responses. Unrecognized errors become opaque 500s.
func bookingError(c echo.Context, err error) error {
	var (
		overlap    *repository.OverlapError
		incomplete *booking.PaymentIncompleteError
	)
	switch {
	case errors.Is(err, booking.ErrInvalidDateRange):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrVehicleNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, booking.ErrVehicleUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "vehicle unavailable"})
	case errors.As(err, &overlap):
		return c.JSON(http.StatusConflict, echo.Map{"error": "dates unavailable", "conflicting_booking_id": overlap.BookingID})
	case errors.Is(err, booking.ErrCancellationWindowClosed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "cancellation window closed"})
	case errors.Is(err, booking.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking state does not allow this operation"})
	case errors.As(err, &incomplete):
		return c.JSON(http.StatusConflict, echo.Map{"error": "payment incomplete", "payment_status": incomplete.Status})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking operation failed"})
}
