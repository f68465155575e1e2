// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned by a UserDirectory when a uniqueness constraint
// (email or verification token) rejects a write.
var ErrConflict = errors.New("conflict")

// ErrEmailConflict is the ErrConflict raised by the email uniqueness
// constraint. errors.Is(ErrEmailConflict, ErrConflict) holds.
var ErrEmailConflict = fmt.Errorf("email %w", ErrConflict)

// Kind classifies every error that crosses the Service boundary. The same
// string is used as the oops code of the wrapped error.
type Kind string

// Error kinds returned by the auth package.
const (
	KindUnknown               Kind = ""
	KindValidation            Kind = "AUTH_VALIDATION_FAILED"
	KindWeakPassword          Kind = "AUTH_WEAK_PASSWORD"
	KindEmailAlreadyExists    Kind = "AUTH_EMAIL_ALREADY_EXISTS"
	KindWrongCredentials      Kind = "AUTH_WRONG_CREDENTIALS"
	KindEmailNotVerified      Kind = "AUTH_EMAIL_NOT_VERIFIED"
	KindInvalidOrExpiredToken Kind = "AUTH_INVALID_OR_EXPIRED_TOKEN"
	KindInvalidToken          Kind = "AUTH_INVALID_TOKEN"
	KindHashing               Kind = "AUTH_HASHING_FAILED"
	KindTokenCreation         Kind = "AUTH_TOKEN_CREATION_FAILED"
	KindPersistence           Kind = "AUTH_PERSISTENCE_FAILED"
	KindNotification          Kind = "AUTH_NOTIFICATION_FAILED"
	KindUserNotFound          Kind = "AUTH_USER_NOT_FOUND"
)

// Error is the error type returned across the package boundary. It pins a
// Kind to an oops error so the kind survives further wrapping: oops reports
// the deepest code in a chain, while callers need the outermost one.
type Error struct {
	kind Kind
	err  error
}

func (e *Error) Error() string {
	return e.err.Error()
}

// Unwrap exposes the oops error (and through it, the lower-layer cause).
func (e *Error) Unwrap() error {
	return e.err
}

// Kind returns the error kind.
func (e *Error) Kind() Kind {
	return e.kind
}

// ErrorCode returns the kind as a string code for errutil.
func (e *Error) ErrorCode() string {
	return string(e.kind)
}

func newError(kind Kind, format string, args ...any) error {
	return &Error{kind: kind, err: oops.Code(string(kind)).Errorf(format, args...)}
}

func wrapError(kind Kind, err error, kv ...any) error {
	return &Error{kind: kind, err: oops.Code(string(kind)).With(kv...).Wrap(err)}
}

// KindOf returns the outermost Kind attached to err, or KindUnknown when err
// did not come from this package.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var kerr *Error
	if errors.As(err, &kerr) {
		return kerr.kind
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return KindValidation
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// FieldViolation describes one failed validation rule.
type FieldViolation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError collects every rule a set of credentials violated.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}
