package booking

import (
	"time"

	"github.com/torquex/rental-api/internal/model"
)

// CancellationWindow is the minimum lead time before the rental
// start at which a user (or admin) may still cancel.
const CancellationWindow = 24 * time.Hour

// transitions is the complete lifecycle table. Anything absent is
// illegal: CANCELLED and COMPLETED are terminal, and nothing ever
// moves backwards.
var transitions = map[string][]string{
	model.BookingPending:   {model.BookingConfirmed, model.BookingCancelled},
	model.BookingConfirmed: {model.BookingActive, model.BookingCancelled},
	model.BookingActive:    {model.BookingCompleted},
}

// CanTransition reports whether from → to is a legal status change.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Cancellable reports whether a booking in the given status may be
// cancelled at all, independent of the time window.
func Cancellable(status string) bool {
	return CanTransition(status, model.BookingCancelled)
}

// WithinCancellationWindow reports whether now is still early enough
// to cancel a booking starting at start.
func WithinCancellationWindow(start, now time.Time) bool {
	return start.Sub(now) > CancellationWindow
}
