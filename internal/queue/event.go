// Package queue defines message payloads exchanged over the message
// broker and the background consumer that processes them.
package queue

// BookingConfirmedEvent is published when a booking's payment
// succeeds and it transitions to CONFIRMED. It carries enough for
// downstream consumers to log, notify or feed analytics without
// querying the primary database.
type BookingConfirmedEvent struct {
	BookingID       uint64 `json:"booking_id"`
	UserID          uint64 `json:"user_id"`
	VehicleID       uint64 `json:"vehicle_id"`
	VehicleName     string `json:"vehicle_name"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	TotalPriceCents int64  `json:"total_price_cents"`
	PaymentRef      string `json:"payment_ref"`
	ConfirmedAt     string `json:"confirmed_at"`
}
