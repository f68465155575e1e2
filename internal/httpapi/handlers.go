// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/keyward/keyward/internal/auth"
	"github.com/keyward/keyward/internal/authgate"
)

// AuthService is the part of auth.Service the handlers call.
type AuthService interface {
	Register(ctx context.Context, creds auth.Credentials) error
	Login(ctx context.Context, creds auth.Credentials) (auth.SignedToken, error)
	VerifyEmail(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, claims *auth.IdentityClaims) (*auth.User, error)
}

// Operation names reported to the Recorder.
const (
	OpRegister    = "register"
	OpLogin       = "login"
	OpVerifyEmail = "verify_email"
	OpCurrentUser = "current_user"
)

// ResultOK is the result label of a successful operation.
const ResultOK = "ok"

// MessageBody is the JSON shape of a plain acknowledgement.
type MessageBody struct {
	Message string `json:"message"`
}

// UserBody is the public view of a user. The hash and the verification
// token are never exposed.
type UserBody struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	Verified  bool      `json:"verified"`
}

type handlers struct {
	svc      AuthService
	logger   *slog.Logger
	recorder Recorder
}

func (h *handlers) record(op string, err error) {
	result := ResultOK
	if err != nil {
		result = string(auth.KindOf(err))
		if result == "" {
			result = "unknown"
		}
	}
	h.recorder.RecordAuthOperation(op, result)
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		writeBadRequest(w, r, h.logger, err.Error())
		return
	}

	err := h.svc.Register(r.Context(), creds)
	h.record(OpRegister, err)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, h.logger, http.StatusCreated, MessageBody{Message: "User registered successfully"})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		writeBadRequest(w, r, h.logger, err.Error())
		return
	}

	token, err := h.svc.Login(r.Context(), creds)
	h.record(OpLogin, err)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, r, h.logger, http.StatusOK, token)
}

func (h *handlers) verifyEmail(w http.ResponseWriter, r *http.Request) {
	err := h.svc.VerifyEmail(r.Context(), r.URL.Query().Get("token"))
	h.record(OpVerifyEmail, err)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, MessageBody{Message: "Email verified successfully"})
}

func (h *handlers) currentUser(w http.ResponseWriter, r *http.Request) {
	claims, _ := authgate.ClaimsFromContext(r.Context())

	user, err := h.svc.CurrentUser(r.Context(), claims)
	h.record(OpCurrentUser, err)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, UserBody{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		Verified:  user.Verified,
	})
}
