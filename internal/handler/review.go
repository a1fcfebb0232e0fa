package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/torquex/rental-api/internal/cache"
	"github.com/torquex/rental-api/internal/model"
	"github.com/torquex/rental-api/internal/repository"
)

// ReviewHandler creates vehicle reviews. Listing happens through the
// vehicle detail endpoint.
type ReviewHandler struct {
	Reviews  *repository.ReviewRepo
	Bookings *repository.BookingRepo
	Events   *cache.Invalidator
}

func NewReviewHandler(r *repository.ReviewRepo, b *repository.BookingRepo, events *cache.Invalidator) *ReviewHandler {
	return &ReviewHandler{Reviews: r, Bookings: b, Events: events}
}

type createReviewReq struct {
	BookingID uint64 `json:"booking_id"`
	Rating    int    `json:"rating"`
	Title     string `json:"title"`
	Comment   string `json:"comment"`
}

// Create posts a review. Only the booking's owner may review, only
// after the rental COMPLETED, and only once per booking.
func (h *ReviewHandler) Create(c echo.Context) error {
	var req createReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Comment = strings.TrimSpace(req.Comment)
	if req.BookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id required"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}
	if n := len(req.Comment); n < 10 || n > 500 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "comment must be 10-500 characters"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		if err == repository.ErrBookingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create review failed"})
	}
	if b.UserID != currentUser(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if b.Status != model.BookingCompleted {
		return c.JSON(http.StatusConflict, echo.Map{"error": "only completed rentals can be reviewed"})
	}
	// The unique index on booking_id still backstops a concurrent
	// duplicate at insert time.
	taken, err := h.Reviews.ExistsForBooking(ctx, b.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create review failed"})
	}
	if taken {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking already reviewed"})
	}

	rv := &model.Review{
		BookingID: b.ID,
		UserID:    b.UserID,
		VehicleID: b.VehicleID,
		Rating:    uint8(req.Rating),
		Title:     req.Title,
		Comment:   req.Comment,
	}
	if err := h.Reviews.Create(ctx, rv); err != nil {
		if err == repository.ErrReviewExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking already reviewed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create review failed"})
	}

	h.Events.OnEvent(ctx, cache.Event{Type: cache.ReviewCreated, VehicleID: b.VehicleID})
	return c.JSON(http.StatusCreated, rv)
}
