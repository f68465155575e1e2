// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

// Package authgate admits requests that carry a valid bearer token and
// exposes the verified claims to downstream handlers.
package authgate

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/oops"

	"github.com/keyward/keyward/internal/auth"
)

// ErrUnauthorized is returned for every rejected credential. The cause is
// logged at debug level but never distinguished to the caller.
var ErrUnauthorized = errors.New("unauthorized")

// Transport names used when recording decisions.
const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

// DecisionRecorder observes gate outcomes.
type DecisionRecorder interface {
	RecordGateDecision(transport string, allowed bool)
}

type noopRecorder struct{}

func (noopRecorder) RecordGateDecision(string, bool) {}

// Gate verifies bearer tokens.
type Gate struct {
	verifier auth.TokenVerifier
	logger   *slog.Logger
	recorder DecisionRecorder
	public   map[string]struct{}
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger used for rejected requests.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithRecorder reports every decision to r.
func WithRecorder(r DecisionRecorder) Option {
	return func(g *Gate) {
		if r != nil {
			g.recorder = r
		}
	}
}

// WithPublicMethods lists full gRPC method names that skip authentication.
func WithPublicMethods(methods ...string) Option {
	return func(g *Gate) {
		for _, m := range methods {
			g.public[m] = struct{}{}
		}
	}
}

// New creates a Gate backed by verifier.
func New(verifier auth.TokenVerifier, opts ...Option) (*Gate, error) {
	if verifier == nil {
		return nil, oops.Code("AUTHGATE_INVALID").Errorf("token verifier is required")
	}
	g := &Gate{
		verifier: verifier,
		logger:   slog.Default(),
		recorder: noopRecorder{},
		public:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Authenticate parses an Authorization value of the form "Bearer <token>"
// and verifies the token.
func (g *Gate) Authenticate(header string) (*auth.IdentityClaims, error) {
	token, ok := bearerToken(header)
	if !ok {
		return nil, oops.Code(string(auth.KindInvalidToken)).
			With("reason", "malformed authorization header").
			Wrap(ErrUnauthorized)
	}
	claims, err := g.verifier.Verify(token)
	if err != nil {
		return nil, oops.Code(string(auth.KindInvalidToken)).
			With("reason", "token rejected").
			With("cause", err.Error()).
			Wrap(ErrUnauthorized)
	}
	return claims, nil
}

func (g *Gate) authenticate(ctx context.Context, transport, header string) (*auth.IdentityClaims, error) {
	claims, err := g.Authenticate(header)
	g.recorder.RecordGateDecision(transport, err == nil)
	if err != nil {
		attrs := []any{"transport", transport}
		if oopsErr, ok := oops.AsOops(err); ok {
			attrs = append(attrs, "reason", oopsErr.Context()["reason"])
		}
		g.logger.DebugContext(ctx, "request rejected", attrs...)
		return nil, err
	}
	return claims, nil
}

// bearerToken extracts the token from "Bearer <token>". The scheme is
// case-insensitive and exactly one non-empty token must follow it.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, auth.TokenType) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

type claimsKey struct{}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *auth.IdentityClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims stored by the gate, if any.
func ClaimsFromContext(ctx context.Context) (*auth.IdentityClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*auth.IdentityClaims)
	return claims, ok && claims != nil
}
