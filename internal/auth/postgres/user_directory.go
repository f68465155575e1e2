// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

// Package postgres implements auth.UserDirectory on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/keyward/keyward/internal/auth"
	"github.com/keyward/keyward/internal/store"
)

const userColumns = `id, email, password_hash, created_at, verified, verification_token`

// emailConstraint is the case-insensitive unique index on users.email.
const emailConstraint = "users_email_lower_key"

// UserDirectory implements auth.UserDirectory using PostgreSQL.
type UserDirectory struct {
	pool store.Pool
}

// NewUserDirectory creates a new UserDirectory.
func NewUserDirectory(pool store.Pool) *UserDirectory {
	return &UserDirectory{pool: pool}
}

// Insert stores a new unverified user.
func (d *UserDirectory) Insert(ctx context.Context, email, passwordHash, verificationToken string) (*auth.User, error) {
	row := d.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, verification_token)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		email, passwordHash, verificationToken)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			cause := auth.ErrConflict
			if pgErr.ConstraintName == emailConstraint {
				cause = auth.ErrEmailConflict
			}
			return nil, oops.Code("USER_INSERT_CONFLICT").
				With("constraint", pgErr.ConstraintName).
				Wrap(cause)
		}
		return nil, oops.Code("USER_INSERT_FAILED").With("operation", "insert user").Wrap(err)
	}
	return user, nil
}

// FindByEmail retrieves a user by email, ignoring case.
func (d *UserDirectory) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email)
	return d.find(row, "find user by email")
}

// FindByVerificationToken retrieves the user holding token.
func (d *UserDirectory) FindByVerificationToken(ctx context.Context, token string) (*auth.User, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE verification_token = $1
	`, token)
	return d.find(row, "find user by verification token")
}

// FindByID retrieves a user by ID.
func (d *UserDirectory) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)
	user, err := d.find(row, "find user by id")
	if err != nil && !errors.Is(err, auth.ErrNotFound) {
		return nil, oops.With("user_id", id).Wrap(err)
	}
	return user, err
}

// Update persists the verified flag and verification token. Rows that are
// already verified are not touched and report auth.ErrNotFound.
func (d *UserDirectory) Update(ctx context.Context, user *auth.User) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE users
		SET verified = $2, verification_token = $3
		WHERE id = $1 AND NOT verified
	`, user.ID, user.Verified, user.VerificationToken)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("user_id", user.ID).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrNotFound
	}
	return nil
}

// ExistsByEmail reports whether a user with the email exists, ignoring case.
func (d *UserDirectory) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := d.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))
	`, email).Scan(&exists)
	if err != nil {
		return false, oops.Code("USER_QUERY_FAILED").With("operation", "check email exists").Wrap(err)
	}
	return exists, nil
}

func (d *UserDirectory) find(row pgx.Row, operation string) (*auth.User, error) {
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("USER_QUERY_FAILED").With("operation", operation).Wrap(err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var u auth.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.Verified, &u.VerificationToken); err != nil {
		return nil, err //nolint:wrapcheck // callers classify and wrap
	}
	return &u, nil
}

// Compile-time interface check.
var _ auth.UserDirectory = (*UserDirectory)(nil)
