package booking

import (
	"errors"
	"fmt"

	"github.com/torquex/rental-api/internal/repository"
)

// Sentinel errors surfaced by the availability check and the
// lifecycle state machine. Handlers map them onto HTTP statuses;
// none of them carries another user's data.
var (
	// ErrVehicleUnavailable: the vehicle's manual availability flag
	// is off. Checked before any overlap query. Unknown vehicle and
	// booking ids surface as the repository's not-found sentinels.
	ErrVehicleUnavailable = errors.New("vehicle is not available for booking")

	// ErrInvalidDateRange: the requested window failed validation
	// (format, past start, inverted range or span over the cap).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidTransition: the requested status change is not in
	// the transition table. Rejected without side effects.
	ErrInvalidTransition = errors.New("invalid booking status transition")

	// ErrCancellationWindowClosed: cancellation was requested less
	// than CancellationWindow before the rental starts.
	ErrCancellationWindowClosed = errors.New("cancellation window closed")
)

// PaymentIncompleteError reports a payment confirmation attempt
// whose intent is not in the succeeded state. The gateway status is
// included so the client can distinguish "needs another step" from
// "failed".
type PaymentIncompleteError struct {
	Status string
}

func (e *PaymentIncompleteError) Error() string {
	return fmt.Sprintf("payment not completed: intent status %q", e.Status)
}

// overlapErr builds the shared conflict error so the checker's
// optimistic read and the repository's write-time guard surface the
// same type to callers.
func overlapErr(bookingID uint64) error {
	return &repository.OverlapError{BookingID: bookingID}
}
