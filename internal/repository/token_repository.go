package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"
)

// ErrRefreshInvalid covers unknown, revoked and expired refresh tokens.
var ErrRefreshInvalid = errors.New("refresh token invalid")

const (
    insertRefresh = "INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)"
    revokeRefresh = "UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE revoked_at IS NULL AND "
)

// TokenRepo stores organizer refresh tokens by their SHA-256 hash.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
    _, err := r.DB.ExecContext(ctx, insertRefresh, userID, tokenHash, exp.UTC())
    return err
}

// ValidateRefresh returns the owner of a live token, or ErrRefreshInvalid.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
    var (
        userID  uint64
        expires time.Time
        revoked sql.NullTime
    )
    err := r.DB.QueryRowContext(ctx,
        "SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
        tokenHash).Scan(&userID, &expires, &revoked)
    switch {
    case errors.Is(err, sql.ErrNoRows):
        return 0, ErrRefreshInvalid
    case err != nil:
        return 0, err
    case revoked.Valid || !time.Now().UTC().Before(expires):
        return 0, ErrRefreshInvalid
    }
    return userID, nil
}

// Rotate swaps oldHash for newHash in one transaction.
func (r *TokenRepo) Rotate(ctx context.Context, userID uint64, oldHash, newHash string, exp time.Time) (err error) {
    tx, err := r.DB.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer func() {
        if err != nil {
            _ = tx.Rollback()
        }
    }()
    if err = revoke(ctx, tx, "token_hash=?", oldHash); err != nil {
        return err
    }
    if _, err = tx.ExecContext(ctx, insertRefresh, userID, newHash, exp.UTC()); err != nil {
        return err
    }
    return tx.Commit()
}

func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
    return revoke(ctx, r.DB, "token_hash=?", tokenHash)
}

// RevokeAllForUser signs the user out everywhere.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
    return revoke(ctx, r.DB, "user_id=?", userID)
}

func revoke(ctx context.Context, ex execer, cond string, arg any) error {
    _, err := ex.ExecContext(ctx, revokeRefresh+cond, arg)
    return err
}
