// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

// Package httpapi is the JSON HTTP surface of Keyward: registration, login,
// email verification and the authenticated current-user endpoint.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/samber/oops"
)

// Recorder observes API traffic. observability.Metrics implements it.
type Recorder interface {
	RecordAuthOperation(operation, result string)
	RecordHTTPRequest(route, method string, status int, elapsed time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordAuthOperation(string, string)                   {}
func (noopRecorder) RecordHTTPRequest(string, string, int, time.Duration) {}

// RouterConfig holds the dependencies of the router.
type RouterConfig struct {
	Service AuthService
	// Authenticate guards /users routes, usually authgate.Gate.Middleware.
	Authenticate func(http.Handler) http.Handler
	Recorder     Recorder
	CORSOrigins  []string
	Logger       *slog.Logger
}

// NewRouter builds the API handler.
func NewRouter(cfg RouterConfig) (http.Handler, error) {
	if cfg.Service == nil {
		return nil, oops.Code("HTTPAPI_INVALID").Errorf("auth service is required")
	}
	if cfg.Authenticate == nil {
		return nil, oops.Code("HTTPAPI_INVALID").Errorf("authenticate middleware is required")
	}
	if cfg.Recorder == nil {
		cfg.Recorder = noopRecorder{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	h := &handlers{svc: cfg.Service, logger: cfg.Logger, recorder: cfg.Recorder}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(recoverer(cfg.Logger))
	r.Use(instrument(cfg.Recorder))

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, req, cfg.Logger, http.StatusNotFound, ErrorBody{
			Error:     "not found",
			RequestID: middleware.GetReqID(req.Context()),
		})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, req, cfg.Logger, http.StatusMethodNotAllowed, ErrorBody{
			Error:     "method not allowed",
			RequestID: middleware.GetReqID(req.Context()),
		})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Get("/verify", h.verifyEmail)
	})

	r.Group(func(r chi.Router) {
		r.Use(cfg.Authenticate)
		r.Get("/users/me", h.currentUser)
	})

	return r, nil
}

// instrument records status and latency per route pattern, so path values
// never become label values.
func instrument(rec Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			rec.RecordHTTPRequest(route, r.Method, status, time.Since(start))
		})
	}
}

// recoverer turns a handler panic into a logged 500.
func recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler { //nolint:errorlint // sentinel comparison is intended
						panic(rvr)
					}
					logger.ErrorContext(r.Context(), "handler panic",
						"panic", rvr,
						"method", r.Method,
						"path", r.URL.Path,
						"request_id", middleware.GetReqID(r.Context()),
					)
					writeJSON(w, r, logger, http.StatusInternalServerError, ErrorBody{
						Error:     "internal server error",
						RequestID: middleware.GetReqID(r.Context()),
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
