// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package authgate

import (
	"net/http"
)

const unauthorizedBody = `{"error":"unauthorized"}` + "\n"

// Middleware admits requests with a valid Authorization header and stores
// the claims in the request context. Any other request gets 401 and never
// reaches next.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := g.authenticate(r.Context(), TransportHTTP, r.Header.Get("Authorization"))
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("WWW-Authenticate", `Bearer realm="keyward"`)
			w.WriteHeader(http.StatusUnauthorized)
			//nolint:errcheck // client may have disconnected
			w.Write([]byte(unauthorizedBody))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}
