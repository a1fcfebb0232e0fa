package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/torquex/rental-api/internal/booking"
	"github.com/torquex/rental-api/internal/model"
)

func TestCanTransition(t *testing.T) {
	legal := [][2]string{
		{model.BookingPending, model.BookingConfirmed},
		{model.BookingPending, model.BookingCancelled},
		{model.BookingConfirmed, model.BookingActive},
		{model.BookingConfirmed, model.BookingCancelled},
		{model.BookingActive, model.BookingCompleted},
	}
	for _, tr := range legal {
		assert.True(t, booking.CanTransition(tr[0], tr[1]), "%s -> %s should be legal", tr[0], tr[1])
	}

	illegal := [][2]string{
		{model.BookingCancelled, model.BookingConfirmed},
		{model.BookingCancelled, model.BookingPending},
		{model.BookingCompleted, model.BookingActive},
		{model.BookingCompleted, model.BookingCancelled},
		{model.BookingActive, model.BookingCancelled},
		{model.BookingActive, model.BookingConfirmed},
		{model.BookingConfirmed, model.BookingPending},
		{model.BookingPending, model.BookingActive},
		{model.BookingPending, model.BookingCompleted},
		{"", model.BookingPending},
	}
	for _, tr := range illegal {
		assert.False(t, booking.CanTransition(tr[0], tr[1]), "%s -> %s should be illegal", tr[0], tr[1])
	}
}

func TestCancellable(t *testing.T) {
	assert.True(t, booking.Cancellable(model.BookingPending))
	assert.True(t, booking.Cancellable(model.BookingConfirmed))
	assert.False(t, booking.Cancellable(model.BookingActive))
	assert.False(t, booking.Cancellable(model.BookingCompleted))
	assert.False(t, booking.Cancellable(model.BookingCancelled))
}

func TestWithinCancellationWindow(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	// 48 hours of lead time is comfortably inside the window.
	assert.True(t, booking.WithinCancellationWindow(now.Add(48*time.Hour), now))
	// 12 hours is past the cut-off.
	assert.False(t, booking.WithinCancellationWindow(now.Add(12*time.Hour), now))
	// Exactly 24 hours is too late: the window requires strictly
	// more lead time than the cut-off.
	assert.False(t, booking.WithinCancellationWindow(now.Add(24*time.Hour), now))
	assert.True(t, booking.WithinCancellationWindow(now.Add(24*time.Hour+time.Second), now))
	// A rental already started cannot be cancelled.
	assert.False(t, booking.WithinCancellationWindow(now.Add(-time.Hour), now))
}
