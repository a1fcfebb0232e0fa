package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/torquex/rental-api/internal/model"
)

// ErrTokenNotFound is returned when a refresh token hash is unknown,
// expired, or already revoked.
var ErrTokenNotFound = errors.New("refresh token not found")

// TokenRepo stores hashed refresh tokens. Raw token values never
// touch the database.
type TokenRepo struct {
	db *sql.DB
}

// NewTokenRepo returns a TokenRepo bound to the given database.
func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// Store records a refresh token hash for a user.
func (r *TokenRepo) Store(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
	const q = `INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, userID, tokenHash, expiresAt)
	return err
}

// FindValid returns the live token record for a hash. Expired and
// revoked tokens are treated the same as unknown ones.
func (r *TokenRepo) FindValid(ctx context.Context, tokenHash string, now time.Time) (*model.RefreshToken, error) {
	const q = `SELECT id, user_id, token_hash, expires_at, revoked_at, created_at
		FROM refresh_tokens
		WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > ?`
	var (
		t       model.RefreshToken
		revoked sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, tokenHash, now).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &revoked, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	if revoked.Valid {
		t.RevokedAt = &revoked.Time
	}
	return &t, nil
}

// Revoke marks a single token as revoked. Revoking an already-revoked
// or unknown hash is a no-op.
func (r *TokenRepo) Revoke(ctx context.Context, tokenHash string, now time.Time) error {
	const q = `UPDATE refresh_tokens SET revoked_at = ? WHERE token_hash = ? AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, q, now, tokenHash)
	return err
}

// RevokeAllForUser invalidates every live refresh token a user holds.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64, now time.Time) error {
	const q = `UPDATE refresh_tokens SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, q, now, userID)
	return err
}

// DeleteExpired prunes rows whose expiry is in the past, keeping the
// table from growing without bound.
func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `DELETE FROM refresh_tokens WHERE expires_at <= ?`
	res, err := r.db.ExecContext(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
