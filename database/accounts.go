package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var ErrBadCredentials = errors.New("invalid credentials")

// EnsureAdmin creates a staff account, or resets the password and staff flag
// of an existing one.
func EnsureAdmin(ctx context.Context, db *sql.DB, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO user (username, password_hash, is_staff) VALUES (?, ?, 1)
		ON CONFLICT (username) DO UPDATE SET
			password_hash = excluded.password_hash,
			is_staff = 1`,
		username,
		hash,
	)
	return errors.Wrap(err, "upsert admin")
}

// Authenticate checks a password against the stored hash. Unknown users and
// wrong passwords both give ErrBadCredentials.
func Authenticate(ctx context.Context, db *sql.DB, username, password string) error {
	var hash []byte
	err := db.QueryRowContext(ctx, `SELECT password_hash FROM user WHERE username = ?`, username).Scan(&hash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrBadCredentials
	case err != nil:
		return errors.Wrap(err, "query user")
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return ErrBadCredentials
	}
	return nil
}

func IsStaff(ctx context.Context, db *sql.DB, username string) (staff bool, err error) {
	err = db.QueryRowContext(ctx, `SELECT is_staff FROM user WHERE username = ?`, username).Scan(&staff)
	return staff, errors.Wrap(err, "query staff flag")
}

// RefreshGrant identifies one issued token pair.
type RefreshGrant struct {
	Username       string
	TokenID        string
	RefreshTokenID string
}

func StoreRefreshGrant(ctx context.Context, db *sql.DB, g RefreshGrant, expires time.Time) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO token (username, token_id, refresh_token_id, expiration) VALUES (?, ?, ?, ?)`,
		g.Username,
		g.TokenID,
		g.RefreshTokenID,
		expires.Unix(),
	)
	return errors.Wrap(err, "insert token")
}

// ConsumeRefreshGrant removes a stored grant so it can be used only once. It
// gives ErrBadCredentials when the grant is unknown or expired at now.
func ConsumeRefreshGrant(ctx context.Context, db *sql.DB, g RefreshGrant, now time.Time) error {
	var expiration int64
	err := db.QueryRowContext(ctx, `
		DELETE FROM token
		WHERE username = ?
			AND token_id = ?
			AND refresh_token_id = ?
		RETURNING expiration`,
		g.Username,
		g.TokenID,
		g.RefreshTokenID,
	).Scan(&expiration)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrBadCredentials
	case err != nil:
		return errors.Wrap(err, "delete token")
	}
	if expiration < now.Unix() {
		return ErrBadCredentials
	}
	return nil
}
