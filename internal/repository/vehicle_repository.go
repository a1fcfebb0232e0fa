package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/torquex/rental-api/internal/model"
)

// ErrVehicleNotFound is returned when a vehicle id does not exist.
var ErrVehicleNotFound = errors.New("vehicle not found")

// mysqlFKViolation is the server error number for "cannot delete or
// update a parent row" (foreign key constraint fails).
const mysqlFKViolation = 1451

// VehicleRepo provides CRUD operations over the vehicles table.
type VehicleRepo struct {
	db *sql.DB
}

// NewVehicleRepo returns a VehicleRepo bound to the given database.
func NewVehicleRepo(db *sql.DB) *VehicleRepo { return &VehicleRepo{db: db} }

const vehicleColumns = `id, name, type, price_per_day_cents, description, availability, created_at, updated_at`

func scanVehicle(row interface{ Scan(...any) error }) (*model.Vehicle, error) {
	var v model.Vehicle
	err := row.Scan(&v.ID, &v.Name, &v.Type, &v.PricePerDayCents, &v.Description, &v.Availability, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetByID fetches a single vehicle. Returns ErrVehicleNotFound when
// the id is unknown.
func (r *VehicleRepo) GetByID(ctx context.Context, id uint64) (*model.Vehicle, error) {
	const q = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = ?`
	v, err := scanVehicle(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrVehicleNotFound
	}
	return v, err
}

// VehicleFilter narrows the public vehicle listing. The zero value
// matches everything. The struct is JSON-encoded into the cache key
// for the listing, so every field that affects the query result must
// live here.
type VehicleFilter struct {
	Type          string `json:"type,omitempty"`
	MinPriceCents int64  `json:"min_price_cents,omitempty"`
	MaxPriceCents int64  `json:"max_price_cents,omitempty"`
	AvailableOnly bool   `json:"available_only,omitempty"`
}

// List returns vehicles matching the filter, newest first.
func (r *VehicleRepo) List(ctx context.Context, f VehicleFilter) ([]model.Vehicle, error) {
	var (
		where []string
		args  []any
	)
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}
	if f.MinPriceCents > 0 {
		where = append(where, "price_per_day_cents >= ?")
		args = append(args, f.MinPriceCents)
	}
	if f.MaxPriceCents > 0 {
		where = append(where, "price_per_day_cents <= ?")
		args = append(args, f.MaxPriceCents)
	}
	if f.AvailableOnly {
		where = append(where, "availability = TRUE")
	}
	q := `SELECT ` + vehicleColumns + ` FROM vehicles`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Vehicle, 0)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// Types returns the distinct vehicle types currently on offer, used
// to populate the public filter UI.
func (r *VehicleRepo) Types(ctx context.Context) ([]string, error) {
	const q = `SELECT DISTINCT type FROM vehicles ORDER BY type`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts a vehicle and populates the generated ID and
// timestamps on the provided record.
func (r *VehicleRepo) Create(ctx context.Context, v *model.Vehicle) error {
	const q = `INSERT INTO vehicles (name, type, price_per_day_cents, description, availability) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, v.Name, v.Type, v.PricePerDayCents, v.Description, v.Availability)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	// Read the row back to pick up DB-assigned timestamps.
	const sel = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = ?`
	got, err := scanVehicle(r.db.QueryRowContext(ctx, sel, v.ID))
	if err != nil {
		return err
	}
	*v = *got
	return nil
}

// Update rewrites every mutable column of an existing vehicle.
// Returns ErrVehicleNotFound when the id is unknown.
func (r *VehicleRepo) Update(ctx context.Context, v *model.Vehicle) error {
	const q = `UPDATE vehicles SET name = ?, type = ?, price_per_day_cents = ?, description = ?, availability = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, v.Name, v.Type, v.PricePerDayCents, v.Description, v.Availability, v.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is also 0 for a no-op update of an existing
		// row; distinguish by probing for the row.
		var exists uint64
		if err := r.db.QueryRowContext(ctx, `SELECT id FROM vehicles WHERE id = ?`, v.ID).Scan(&exists); err == sql.ErrNoRows {
			return ErrVehicleNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a vehicle. Deletion is blocked while bookings or
// reviews still reference it; the database's foreign key violation
// is translated into ErrConflict so handlers never leak the raw
// constraint error.
func (r *VehicleRepo) Delete(ctx context.Context, id uint64) error {
	const q = `DELETE FROM vehicles WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlFKViolation {
			return ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVehicleNotFound
	}
	return nil
}
