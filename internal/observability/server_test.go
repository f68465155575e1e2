// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startServer(t *testing.T, ready ReadinessChecker) *Server {
	t.Helper()
	server := NewServer("127.0.0.1:0", ready, quietLogger())
	_, err := server.Start()
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Stop(ctx)
	})
	require.NotEmpty(t, server.Addr())
	return server
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url) //nolint:noctx // test helper
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_Metrics(t *testing.T) {
	server := startServer(t, nil)
	server.Metrics().RecordAuthOperation("login", "ok")

	status, body := get(t, "http://"+server.Addr()+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "# HELP")
	assert.Contains(t, body, "go_")
	assert.Contains(t, body, "process_")
	assert.Contains(t, body, "keyward_auth_operations_total")
}

func TestServer_Liveness(t *testing.T) {
	server := startServer(t, func(context.Context) error { return errors.New("db down") })
	status, body := get(t, "http://"+server.Addr()+"/healthz/liveness")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok\n", body)
}

func TestServer_Readiness(t *testing.T) {
	tests := []struct {
		name   string
		ready  ReadinessChecker
		status int
		body   string
	}{
		{name: "ready", ready: func(context.Context) error { return nil }, status: http.StatusOK, body: "ok\n"},
		{name: "not ready", ready: func(context.Context) error { return errors.New("db down") }, status: http.StatusServiceUnavailable, body: "not ready\n"},
		{name: "nil checker", ready: nil, status: http.StatusOK, body: "ok\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := startServer(t, tt.ready)
			status, body := get(t, "http://"+server.Addr()+"/healthz/readiness")
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.body, body)
		})
	}
}

func TestServer_DoubleStartFails(t *testing.T) {
	server := startServer(t, nil)
	_, err := server.Start()
	assert.Error(t, err)
}

func TestServer_StopIdempotent(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil, quietLogger())
	assert.NoError(t, server.Stop(context.Background()))
}

func TestServer_ListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	server := NewServer(ln.Addr().String(), nil, quietLogger())
	_, err = server.Start()
	require.Error(t, err)

	// A failed start can be retried once the port is free.
	_ = ln.Close()
	errCh, err := server.Start()
	require.NoError(t, err)
	require.NoError(t, server.Stop(context.Background()))
	_, open := <-errCh
	assert.False(t, open)
}

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordAuthOperation("register", "ok")
	m.RecordAuthOperation("register", "AUTH_WEAK_PASSWORD")
	m.RecordAuthOperation("register", "AUTH_WEAK_PASSWORD")
	m.RecordGateDecision("http", true)
	m.RecordGateDecision("grpc", false)
	m.RecordHTTPRequest("/auth/login", http.MethodPost, http.StatusOK, 15*time.Millisecond)

	assert.InDelta(t, 1, testutil.ToFloat64(m.AuthOperations.WithLabelValues("register", "ok")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.AuthOperations.WithLabelValues("register", "AUTH_WEAK_PASSWORD")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.GateDecisions.WithLabelValues("http", "allowed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.GateDecisions.WithLabelValues("grpc", "denied")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/auth/login", "POST", "200")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPDuration))
}
