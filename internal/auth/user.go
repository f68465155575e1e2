// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package auth

import (
	"context"
	"strings"
	"time"
)

// User is a persisted account record.
//
// Invariant: Verified implies VerificationToken == nil. Only MarkVerified
// moves a record from unverified to verified.
type User struct {
	ID                int64
	Email             string
	PasswordHash      string
	CreatedAt         time.Time
	Verified          bool
	VerificationToken *string
}

// MarkVerified performs the one-way Unverified -> Verified transition and
// destroys the verification token.
func (u *User) MarkVerified() {
	u.Verified = true
	u.VerificationToken = nil
}

// PendingVerification reports whether the user still holds a verification token.
func (u *User) PendingVerification() bool {
	return !u.Verified && u.VerificationToken != nil && *u.VerificationToken != ""
}

// NormalizeEmail trims surrounding whitespace. Case is preserved; lookups
// in the directory are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// UserDirectory is the persisted store of user records.
type UserDirectory interface {
	// Insert stores a new unverified user. Returns ErrEmailConflict if the
	// email is taken and ErrConflict for any other uniqueness violation.
	Insert(ctx context.Context, email, passwordHash, verificationToken string) (*User, error)

	// FindByEmail retrieves a user by email (case-insensitive).
	// Returns ErrNotFound if no user has the given email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByVerificationToken retrieves the user holding token.
	// Returns ErrNotFound if no user holds it.
	FindByVerificationToken(ctx context.Context, token string) (*User, error)

	// FindByID retrieves a user by ID.
	FindByID(ctx context.Context, id int64) (*User, error)

	// Update persists the mutable fields (verified flag and verification token)
	// of a user that is still unverified. Returns ErrNotFound if no unverified
	// user has the ID, so concurrent verifications consume a token once.
	Update(ctx context.Context, user *User) error

	// ExistsByEmail reports whether a user with the email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
