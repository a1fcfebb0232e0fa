// Package repository defines error values that are reused across
// multiple repositories. These sentinels let higher layers such as
// services and handlers distinguish failure scenarios: ErrForbidden
// means the caller does not own the resource, ErrConflict means the
// operation is blocked by dependent records (e.g. deleting a vehicle
// that still has bookings).
package repository

import (
	"errors"
	"fmt"
)

// ErrForbidden is returned when the caller attempts an operation on
// a resource they do not own. Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot proceed because of
// conflicting state, such as deleting a vehicle that still has
// bookings or reviews, or redeeming a deal past its usage limit.
// Handlers translate this into 409.
var ErrConflict = errors.New("conflict")

// ErrStaleStatus is returned by guarded status updates when the row
// was no longer in the expected source status, meaning another
// request transitioned the booking first.
var ErrStaleStatus = errors.New("booking status changed concurrently")

// OverlapError reports that a requested booking range intersects an
// existing PENDING or CONFIRMED booking for the same vehicle. Only
// the conflicting booking's id is exposed; it is enough for
// diagnostics and leaks nothing about the other customer.
type OverlapError struct {
	BookingID uint64
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("date range overlaps booking %d", e.BookingID)
}
