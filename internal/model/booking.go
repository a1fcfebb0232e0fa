package model

import "time"

// Booking status values. A booking starts PENDING, moves to
// CONFIRMED once payment succeeds, to ACTIVE while the rental is in
// progress and to COMPLETED when it ends. CANCELLED is reachable
// from PENDING or CONFIRMED only. Bookings are never deleted;
// cancellation is a status change.
const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingActive    = "ACTIVE"
	BookingCompleted = "COMPLETED"
	BookingCancelled = "CANCELLED"
)

// Booking records a user's rental of a vehicle over a half-open
// date range [StartDate, EndDate). UserID and VehicleID are
// immutable after creation; status transitions are the only
// permitted mutation.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – user who made the booking.
//  VehicleID       – vehicle being rented.
//  StartDate       – first rental day (UTC midnight, inclusive).
//  EndDate         – day the rental ends (UTC midnight, exclusive).
//  Status          – state of the booking (see constants above).
//  TotalPriceCents – price computed at creation: days × daily price.
//  PaymentRef      – external payment-intent reference, if any.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Booking struct {
	ID              uint64    // bookings.id
	UserID          uint64    // bookings.user_id
	VehicleID       uint64    // bookings.vehicle_id
	StartDate       time.Time // bookings.start_date
	EndDate         time.Time // bookings.end_date
	Status          string    // bookings.status
	TotalPriceCents int64     // bookings.total_price_cents
	PaymentRef      *string   // bookings.payment_ref (nullable)
	CreatedAt       time.Time // bookings.created_at
	UpdatedAt       time.Time // bookings.updated_at
}
