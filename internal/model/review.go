package model

import "time"

// Review is a user's rating of a vehicle, tied to the completed
// booking that makes them eligible to write it. One review per
// booking.
//
// Fields:
//  ID        – primary key identifier.
//  BookingID – completed booking being reviewed (unique).
//  UserID    – author of the review.
//  VehicleID – vehicle the review applies to.
//  Rating    – 1..5 stars.
//  Title     – short headline.
//  Comment   – review body.
//  CreatedAt – creation timestamp.
type Review struct {
	ID        uint64    // reviews.id
	BookingID uint64    // reviews.booking_id
	UserID    uint64    // reviews.user_id
	VehicleID uint64    // reviews.vehicle_id
	Rating    uint8     // reviews.rating
	Title     string    // reviews.title
	Comment   string    // reviews.comment
	CreatedAt time.Time // reviews.created_at
}
