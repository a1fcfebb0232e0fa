package repository

import (
	"context"
	"database/sql"
)

// DashboardStats is the aggregate snapshot behind the admin
// dashboard. It is JSON-encoded into the cache, so field tags matter.
type DashboardStats struct {
	Users            int64            `json:"users"`
	Vehicles         int64            `json:"vehicles"`
	Bookings         int64            `json:"bookings"`
	BookingsByStatus map[string]int64 `json:"bookings_by_status"`
	RevenueCents     int64            `json:"revenue_cents"`
	VehiclesByType   []TypeCount      `json:"vehicles_by_type"`
	RecentBookings   []RecentBooking  `json:"recent_bookings"`
}

// TypeCount is a vehicle type with its fleet size.
type TypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// RecentBooking is a dashboard row for the latest activity feed.
type RecentBooking struct {
	ID              uint64 `json:"id"`
	UserEmail       string `json:"user_email"`
	VehicleName     string `json:"vehicle_name"`
	Status          string `json:"status"`
	TotalPriceCents int64  `json:"total_price_cents"`
}

// StatsRepo computes the admin dashboard aggregates.
type StatsRepo struct {
	db *sql.DB
}

// NewStatsRepo returns a StatsRepo bound to the given database.
func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// Collect runs every dashboard aggregate and assembles the snapshot.
// Revenue counts bookings whose payment went through: CONFIRMED and
// COMPLETED rows (ACTIVE is a transient state between the two, so it
// is counted as well to keep the sum monotonic over a booking's life).
func (r *StatsRepo) Collect(ctx context.Context) (*DashboardStats, error) {
	s := &DashboardStats{
		BookingsByStatus: make(map[string]int64),
		VehiclesByType:   make([]TypeCount, 0),
		RecentBookings:   make([]RecentBooking, 0),
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&s.Users); err != nil {
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vehicles`).Scan(&s.Vehicles); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM bookings GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		s.BookingsByStatus[status] = n
		s.Bookings += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const revQ = `SELECT COALESCE(SUM(total_price_cents), 0) FROM bookings
		WHERE status IN ('CONFIRMED', 'ACTIVE', 'COMPLETED')`
	if err := r.db.QueryRowContext(ctx, revQ).Scan(&s.RevenueCents); err != nil {
		return nil, err
	}

	typeRows, err := r.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM vehicles GROUP BY type ORDER BY type`)
	if err != nil {
		return nil, err
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var tc TypeCount
		if err := typeRows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, err
		}
		s.VehiclesByType = append(s.VehiclesByType, tc)
	}
	if err := typeRows.Err(); err != nil {
		return nil, err
	}

	const recentQ = `SELECT b.id, u.email, v.name, b.status, b.total_price_cents
		FROM bookings b
		JOIN users u ON u.id = b.user_id
		JOIN vehicles v ON v.id = b.vehicle_id
		ORDER BY b.id DESC LIMIT 5`
	recentRows, err := r.db.QueryContext(ctx, recentQ)
	if err != nil {
		return nil, err
	}
	defer recentRows.Close()
	for recentRows.Next() {
		var rb RecentBooking
		if err := recentRows.Scan(&rb.ID, &rb.UserEmail, &rb.VehicleName, &rb.Status, &rb.TotalPriceCents); err != nil {
			return nil, err
		}
		s.RecentBookings = append(s.RecentBookings, rb)
	}
	return s, recentRows.Err()
}
