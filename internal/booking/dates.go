// Package booking holds the availability check, the lifecycle state
// machine and the service tying them to persistence, payment and
// cache invalidation.
package booking

import (
	"fmt"
	"time"
)

// MaxRentalDays caps the span of a single booking.
const MaxRentalDays = 30

// DateLayout is the wire format for booking dates. Rentals are
// priced per whole day, so the API deals in calendar dates, not
// timestamps.
const DateLayout = "2006-01-02"

// DateRange is a half-open interval [Start, End) of whole days.
// Both endpoints are UTC midnight; normalizing at the boundary keeps
// day arithmetic exact regardless of the server's zone or DST.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseRange parses and validates a requested rental window.
// Rules, checked in order before any availability query runs:
// the dates must parse, Start must be strictly after now, End must
// be strictly after Start, and the span must not exceed
// MaxRentalDays. Violations come back as ErrInvalidDateRange with
// the reason attached.
func ParseRange(start, end string, now time.Time) (DateRange, error) {
	s, err := time.ParseInLocation(DateLayout, start, time.UTC)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: start date must be %s", ErrInvalidDateRange, DateLayout)
	}
	e, err := time.ParseInLocation(DateLayout, end, time.UTC)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: end date must be %s", ErrInvalidDateRange, DateLayout)
	}
	r := DateRange{Start: s, End: e}
	if !s.After(now.UTC()) {
		return DateRange{}, fmt.Errorf("%w: start date must be in the future", ErrInvalidDateRange)
	}
	if !e.After(s) {
		return DateRange{}, fmt.Errorf("%w: end date must be after start date", ErrInvalidDateRange)
	}
	if r.Days() > MaxRentalDays {
		return DateRange{}, fmt.Errorf("%w: maximum rental period is %d days", ErrInvalidDateRange, MaxRentalDays)
	}
	return r, nil
}

// Days returns the rental duration in whole days. Both endpoints
// are UTC midnight, so the division is exact.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start) / (24 * time.Hour))
}

// Overlaps reports whether two half-open ranges intersect. Back to
// back bookings, where one ends exactly when the other begins, do
// not overlap.
func (r DateRange) Overlaps(o DateRange) bool {
	return r.Start.Before(o.End) && r.End.After(o.Start)
}
