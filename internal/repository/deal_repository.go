package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/torquex/rental-api/internal/model"
)

// Sentinel errors for promotional deals.
var (
	ErrDealNotFound = errors.New("deal not found")
	ErrCodeTaken    = errors.New("deal code already exists")
)

// DealRepo persists promotional deals. Codes are looked up by their
// SHA-256 hash; the plaintext code is stored only for admin display.
type DealRepo struct {
	db *sql.DB
}

// NewDealRepo returns a DealRepo bound to the given database.
func NewDealRepo(db *sql.DB) *DealRepo { return &DealRepo{db: db} }

const dealColumns = `id, code, code_hash, description, discount_type, discount_value,
	min_purchase_cents, valid_from, valid_until, is_active, usage_limit, current_usage,
	created_at, updated_at`

func scanDeal(row interface{ Scan(...any) error }) (*model.Deal, error) {
	var (
		d     model.Deal
		limit sql.NullInt64
	)
	err := row.Scan(&d.ID, &d.Code, &d.CodeHash, &d.Description, &d.DiscountType, &d.DiscountValue,
		&d.MinPurchaseCents, &d.ValidFrom, &d.ValidUntil, &d.IsActive, &limit, &d.CurrentUsage,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if limit.Valid {
		v := uint32(limit.Int64)
		d.UsageLimit = &v
	}
	return &d, nil
}

func dealLimitArg(d *model.Deal) any {
	if d.UsageLimit == nil {
		return nil
	}
	return *d.UsageLimit
}

// Create inserts a deal. The code_hash column is unique; a duplicate
// is reported as ErrCodeTaken.
func (r *DealRepo) Create(ctx context.Context, d *model.Deal) error {
	const q = `INSERT INTO deals (code, code_hash, description, discount_type, discount_value,
			min_purchase_cents, valid_from, valid_until, is_active, usage_limit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, d.Code, d.CodeHash, d.Description, d.DiscountType,
		d.DiscountValue, d.MinPurchaseCents, d.ValidFrom, d.ValidUntil, d.IsActive, dealLimitArg(d))
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDupEntry {
			return ErrCodeTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM deals WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, d.ID).Scan(&d.CreatedAt, &d.UpdatedAt)
}

// Update rewrites every mutable column of an existing deal.
func (r *DealRepo) Update(ctx context.Context, d *model.Deal) error {
	const q = `UPDATE deals SET description = ?, discount_type = ?, discount_value = ?,
			min_purchase_cents = ?, valid_from = ?, valid_until = ?, is_active = ?, usage_limit = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, d.Description, d.DiscountType, d.DiscountValue,
		d.MinPurchaseCents, d.ValidFrom, d.ValidUntil, d.IsActive, dealLimitArg(d), d.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists uint64
		if err := r.db.QueryRowContext(ctx, `SELECT id FROM deals WHERE id = ?`, d.ID).Scan(&exists); err == sql.ErrNoRows {
			return ErrDealNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a deal.
func (r *DealRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDealNotFound
	}
	return nil
}

// GetByID fetches a deal regardless of its active state.
func (r *DealRepo) GetByID(ctx context.Context, id uint64) (*model.Deal, error) {
	const q = `SELECT ` + dealColumns + ` FROM deals WHERE id = ?`
	d, err := scanDeal(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrDealNotFound
	}
	return d, err
}

// GetByCodeHash fetches a deal by the hash of its promo code, for
// checkout validation. Inactive and out-of-window deals still match;
// eligibility is the caller's decision.
func (r *DealRepo) GetByCodeHash(ctx context.Context, codeHash string) (*model.Deal, error) {
	const q = `SELECT ` + dealColumns + ` FROM deals WHERE code_hash = ?`
	d, err := scanDeal(r.db.QueryRowContext(ctx, q, codeHash))
	if err == sql.ErrNoRows {
		return nil, ErrDealNotFound
	}
	return d, err
}

// ListActive returns deals currently redeemable: active, inside their
// validity window, and not exhausted.
func (r *DealRepo) ListActive(ctx context.Context, now time.Time) ([]model.Deal, error) {
	const q = `SELECT ` + dealColumns + ` FROM deals
		WHERE is_active = TRUE AND valid_from <= ? AND valid_until >= ?
		  AND (usage_limit IS NULL OR current_usage < usage_limit)
		ORDER BY valid_until, id`
	return r.listDeals(ctx, q, now, now)
}

// ListAll returns every deal for the admin console, newest first.
func (r *DealRepo) ListAll(ctx context.Context) ([]model.Deal, error) {
	const q = `SELECT ` + dealColumns + ` FROM deals ORDER BY created_at DESC, id DESC`
	return r.listDeals(ctx, q)
}

func (r *DealRepo) listDeals(ctx context.Context, q string, args ...any) ([]model.Deal, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Deal, 0)
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// IncrementUsage consumes one redemption. The guard in the WHERE
// clause makes the increment atomic: once the limit is reached
// concurrent redeemers all fail with ErrStaleStatus instead of
// pushing current_usage past usage_limit.
func (r *DealRepo) IncrementUsage(ctx context.Context, id uint64) error {
	const q = `UPDATE deals SET current_usage = current_usage + 1
		WHERE id = ? AND (usage_limit IS NULL OR current_usage < usage_limit)`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists uint64
		if err := r.db.QueryRowContext(ctx, `SELECT id FROM deals WHERE id = ?`, id).Scan(&exists); err == sql.ErrNoRows {
			return ErrDealNotFound
		} else if err != nil {
			return err
		}
		return ErrStaleStatus
	}
	return nil
}
