// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/keyward/keyward/internal/auth"
	"github.com/keyward/keyward/pkg/errutil"
)

// CodeBadRequest is reported when the request body cannot be decoded.
const CodeBadRequest = "BAD_REQUEST"

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error      string                `json:"error"`
	Code       string                `json:"code,omitempty"`
	Violations []auth.FieldViolation `json:"violations,omitempty"`
	RequestID  string                `json:"request_id,omitempty"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind auth.Kind) int {
	switch kind {
	case auth.KindValidation, auth.KindWeakPassword, auth.KindInvalidOrExpiredToken:
		return http.StatusBadRequest
	case auth.KindEmailAlreadyExists:
		return http.StatusConflict
	case auth.KindWrongCredentials, auth.KindInvalidToken:
		return http.StatusUnauthorized
	case auth.KindEmailNotVerified:
		return http.StatusForbidden
	case auth.KindUserNotFound:
		return http.StatusNotFound
	case auth.KindNotification:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageFor is the client-facing text for a kind. Infrastructure kinds
// share a generic message so internals never leak.
func messageFor(kind auth.Kind) string {
	switch kind {
	case auth.KindValidation:
		return "validation failed"
	case auth.KindWeakPassword:
		return "password is too weak"
	case auth.KindEmailAlreadyExists:
		return "email already registered"
	case auth.KindWrongCredentials:
		return "invalid email or password"
	case auth.KindEmailNotVerified:
		return "email not verified"
	case auth.KindInvalidOrExpiredToken:
		return "invalid or expired token"
	case auth.KindInvalidToken:
		return "invalid token"
	case auth.KindUserNotFound:
		return "user not found"
	case auth.KindNotification:
		return "failed to send verification email"
	default:
		return "internal server error"
	}
}

// writeError renders err as an ErrorBody with the status of its kind.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := auth.KindOf(err)
	status := StatusFor(kind)

	body := ErrorBody{
		Error:     messageFor(kind),
		Code:      string(kind),
		RequestID: middleware.GetReqID(r.Context()),
	}
	var verr *auth.ValidationError
	if errors.As(err, &verr) {
		body.Violations = verr.Violations
	}

	if status >= http.StatusInternalServerError {
		errutil.LogError(r.Context(), logger, "request failed", err)
		if kind == auth.KindUnknown {
			body.Code = ""
		}
	}

	writeJSON(w, r, logger, status, body)
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string) {
	writeJSON(w, r, logger, http.StatusBadRequest, ErrorBody{
		Error:     msg,
		Code:      CodeBadRequest,
		RequestID: middleware.GetReqID(r.Context()),
	})
}
