package booking

import (
	"context"
	"time"

	"github.com/torquex/rental-api/internal/model"
)

// VehicleStore is the slice of the vehicle repository the checker
// needs. Implementations return repository.ErrVehicleNotFound for
// unknown ids.
type VehicleStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Vehicle, error)
}

// OverlapFinder locates a PENDING or CONFIRMED booking for the
// vehicle whose half-open range intersects [start, end). A nil
// booking with nil error means no conflict.
type OverlapFinder interface {
	FindOverlapping(ctx context.Context, vehicleID uint64, start, end time.Time) (*model.Booking, error)
}

// Checker decides whether a vehicle can be booked for a date range.
// Its read is an optimization and early exit only — under
// concurrency the authoritative no-overlap guarantee is the
// write-time check inside BookingRepo.Create's transaction.
type Checker struct {
	vehicles VehicleStore
	bookings OverlapFinder
}

// NewChecker wires a Checker to its stores.
func NewChecker(vehicles VehicleStore, bookings OverlapFinder) *Checker {
	return &Checker{vehicles: vehicles, bookings: bookings}
}

// Check verifies the vehicle exists, is manually available and has
// no conflicting booking over rng. Callers must have validated rng
// already (ParseRange). On success the vehicle is returned so the
// caller can price the booking without a second fetch; on conflict
// the error is a *repository.OverlapError carrying the conflicting
// booking id.
func (c *Checker) Check(ctx context.Context, vehicleID uint64, rng DateRange) (*model.Vehicle, error) {
	v, err := c.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if !v.Availability {
		return nil, ErrVehicleUnavailable
	}
	conflict, err := c.bookings.FindOverlapping(ctx, vehicleID, rng.Start, rng.End)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, overlapErr(conflict.ID)
	}
	return v, nil
}
