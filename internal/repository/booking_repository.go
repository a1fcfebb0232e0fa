package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/torquex/rental-api/internal/model"
)

// ErrBookingNotFound is returned when a booking id does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// blockingStatuses are the statuses that make a booking occupy its
// date range. CANCELLED and COMPLETED rows release the range; ACTIVE
// rows start in the past, so a valid new range (which must start in
// the future) can never intersect one.
const blockingStatuses = `'PENDING', 'CONFIRMED'`

// BookingRepo persists bookings and enforces the no-overlap rule at
// write time.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, user_id, vehicle_id, start_date, end_date, status, total_price_cents, payment_ref, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var (
		b   model.Booking
		ref sql.NullString
	)
	err := row.Scan(&b.ID, &b.UserID, &b.VehicleID, &b.StartDate, &b.EndDate, &b.Status, &b.TotalPriceCents, &ref, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if ref.Valid {
		b.PaymentRef = &ref.String
	}
	return &b, nil
}

// FindOverlapping returns one booking whose [start_date, end_date)
// range intersects [start, end) for the vehicle, or nil when the
// range is free. Only range-blocking statuses count.
func (r *BookingRepo) FindOverlapping(ctx context.Context, vehicleID uint64, start, end time.Time) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
		WHERE vehicle_id = ? AND status IN (` + blockingStatuses + `)
		  AND start_date < ? AND end_date > ?
		ORDER BY start_date LIMIT 1`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, vehicleID, end, start))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Create inserts a booking. The overlap check and the insert run in a
// single serializable transaction so two concurrent requests for the
// same vehicle and range cannot both commit: the loser either blocks
// on the locking read and then sees the winner's row, or aborts with
// a serialization failure. A detected conflict is reported as
// *OverlapError carrying the id of the booking already holding the
// range.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const lockQ = `SELECT id FROM bookings
		WHERE vehicle_id = ? AND status IN (` + blockingStatuses + `)
		  AND start_date < ? AND end_date > ?
		ORDER BY start_date LIMIT 1 FOR UPDATE`
	var holder uint64
	err = tx.QueryRowContext(ctx, lockQ, b.VehicleID, b.EndDate, b.StartDate).Scan(&holder)
	if err == nil {
		return &OverlapError{BookingID: holder}
	}
	if err != sql.ErrNoRows {
		return err
	}

	const insQ = `INSERT INTO bookings (user_id, vehicle_id, start_date, end_date, status, total_price_cents)
		VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, insQ, b.UserID, b.VehicleID, b.StartDate, b.EndDate, b.Status, b.TotalPriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	const selQ = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	if err := tx.QueryRowContext(ctx, selQ, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID fetches a booking. Returns ErrBookingNotFound when the id
// is unknown.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// UpdateStatus moves a booking from one status to another in a single
// guarded statement. When paymentRef is non-nil it is written
// alongside the new status. If the row exists but is no longer in the
// expected source status the update matches nothing and
// ErrStaleStatus is returned, so racing transitions cannot both win.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, from, to string, paymentRef *string) error {
	var (
		res sql.Result
		err error
	)
	if paymentRef != nil {
		const q = `UPDATE bookings SET status = ?, payment_ref = ? WHERE id = ? AND status = ?`
		res, err = r.db.ExecContext(ctx, q, to, *paymentRef, id, from)
	} else {
		const q = `UPDATE bookings SET status = ? WHERE id = ? AND status = ?`
		res, err = r.db.ExecContext(ctx, q, to, id, from)
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var cur string
		err := r.db.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ?`, id).Scan(&cur)
		if err == sql.ErrNoRows {
			return ErrBookingNotFound
		}
		if err != nil {
			return err
		}
		return ErrStaleStatus
	}
	return nil
}

// SetPaymentRef attaches a payment reference to a booking without
// touching its status.
func (r *BookingRepo) SetPaymentRef(ctx context.Context, id uint64, ref string) error {
	const q = `UPDATE bookings SET payment_ref = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, ref, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists uint64
		if err := r.db.QueryRowContext(ctx, `SELECT id FROM bookings WHERE id = ?`, id).Scan(&exists); err == sql.ErrNoRows {
			return ErrBookingNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}

// BookingDetail is a booking joined with the vehicle it reserves,
// used for the per-user listing.
type BookingDetail struct {
	model.Booking
	VehicleName string `json:"vehicle_name"`
	VehicleType string `json:"vehicle_type"`
}

// ListByUser returns all bookings belonging to a user together with
// the reserved vehicle's name and type, most recent start first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	const q = `SELECT b.id, b.user_id, b.vehicle_id, b.start_date, b.end_date, b.status,
			b.total_price_cents, b.payment_ref, b.created_at, b.updated_at, v.name, v.type
		FROM bookings b
		JOIN vehicles v ON v.id = b.vehicle_id
		WHERE b.user_id = ?
		ORDER BY b.start_date DESC, b.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]BookingDetail, 0)
	for rows.Next() {
		var (
			d   BookingDetail
			ref sql.NullString
		)
		err := rows.Scan(&d.ID, &d.UserID, &d.VehicleID, &d.StartDate, &d.EndDate, &d.Status,
			&d.TotalPriceCents, &ref, &d.CreatedAt, &d.UpdatedAt, &d.VehicleName, &d.VehicleType)
		if err != nil {
			return nil, err
		}
		if ref.Valid {
			d.PaymentRef = &ref.String
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
