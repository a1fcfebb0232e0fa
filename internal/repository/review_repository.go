package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/torquex/rental-api/internal/model"
)

// ErrReviewExists is returned when a booking already carries a review.
var ErrReviewExists = errors.New("booking already reviewed")

// ReviewRepo persists vehicle reviews. Each booking may be reviewed
// at most once, enforced by a unique index on booking_id.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo returns a ReviewRepo bound to the given database.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Create inserts a review. A duplicate booking_id is reported as
// ErrReviewExists.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	const q = `INSERT INTO reviews (booking_id, user_id, vehicle_id, rating, title, comment)
		VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, rv.BookingID, rv.UserID, rv.VehicleID, rv.Rating, rv.Title, rv.Comment)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDupEntry {
			return ErrReviewExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	const sel = `SELECT created_at FROM reviews WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, rv.ID).Scan(&rv.CreatedAt)
}

// ExistsForBooking reports whether a booking already has a review.
func (r *ReviewRepo) ExistsForBooking(ctx context.Context, bookingID uint64) (bool, error) {
	var id uint64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM reviews WHERE booking_id = ?`, bookingID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ReviewDetail is a review joined with the reviewer's display name.
type ReviewDetail struct {
	model.Review
	ReviewerName string `json:"reviewer_name"`
}

// ListByVehicle returns a vehicle's reviews, newest first.
func (r *ReviewRepo) ListByVehicle(ctx context.Context, vehicleID uint64) ([]ReviewDetail, error) {
	const q = `SELECT r.id, r.booking_id, r.user_id, r.vehicle_id, r.rating, r.title, r.comment,
			r.created_at, u.name
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.vehicle_id = ?
		ORDER BY r.created_at DESC, r.id DESC`
	rows, err := r.db.QueryContext(ctx, q, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ReviewDetail, 0)
	for rows.Next() {
		var d ReviewDetail
		err := rows.Scan(&d.ID, &d.BookingID, &d.UserID, &d.VehicleID, &d.Rating, &d.Title,
			&d.Comment, &d.CreatedAt, &d.ReviewerName)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// AverageRating returns the mean rating for a vehicle and the number
// of reviews it is based on. A vehicle with no reviews yields (0, 0).
func (r *ReviewRepo) AverageRating(ctx context.Context, vehicleID uint64) (float64, int, error) {
	const q = `SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE vehicle_id = ?`
	var (
		avg   float64
		count int
	)
	if err := r.db.QueryRowContext(ctx, q, vehicleID).Scan(&avg, &count); err != nil {
		return 0, 0, err
	}
	return avg, count, nil
}
