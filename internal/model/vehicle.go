package model

import "time"

// Vehicle represents a rentable vehicle as stored in the `vehicles`
// table. Availability is the owner-settable flag and is independent
// of bookings: a vehicle with Availability=false is never offered,
// while an available vehicle may still be fully booked for a given
// date range.
//
// Fields:
//  ID               – primary key identifier.
//  Name             – display name (e.g. "Toyota Corolla 2022").
//  Type             – category used for filtering (SUV, Sedan, ...).
//  PricePerDayCents – daily rental price in cents.
//  Description      – free-text description shown on the detail page.
//  Availability     – manual on/off switch set by admins.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Vehicle struct {
	ID               uint64    // vehicles.id
	Name             string    // vehicles.name
	Type             string    // vehicles.type
	PricePerDayCents int64     // vehicles.price_per_day_cents
	Description      string    // vehicles.description
	Availability     bool      // vehicles.availability
	CreatedAt        time.Time // vehicles.created_at
	UpdatedAt        time.Time // vehicles.updated_at
}
