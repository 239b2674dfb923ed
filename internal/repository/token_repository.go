package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrRefreshInvalid is returned for unknown, expired or revoked refresh tokens.
var ErrRefreshInvalid = errors.New("refresh token invalid")

// TokenRepo persists the single active refresh token of each user on the
// users row (refresh_token_hash, refresh_token_expires_at).  Only the
// SHA-256 of the raw token is stored.
type TokenRepo struct{ DB DBTX }

func NewTokenRepo(db DBTX) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh records the hash of the user's current refresh token,
// replacing any previous one.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=?, refresh_token_expires_at=? WHERE id=?",
		tokenHash, exp.UTC(), userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ValidateRefresh returns the owner of tokenHash if it is current.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	var (
		userID    string
		expiresAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, refresh_token_expires_at FROM users WHERE refresh_token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrRefreshInvalid
	}
	if err != nil {
		return "", err
	}
	if !expiresAt.Valid || !now.Before(expiresAt.Time) {
		return "", ErrRefreshInvalid
	}
	return userID, nil
}

// Revoke clears the stored refresh token of userID.
func (r *TokenRepo) Revoke(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=NULL, refresh_token_expires_at=NULL WHERE id=?",
		userID)
	return err
}
