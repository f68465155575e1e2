// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package errutil_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/pkg/errutil"
)

type pinnedError struct {
	code string
	err  error
}

func (e *pinnedError) Error() string     { return e.err.Error() }
func (e *pinnedError) Unwrap() error     { return e.err }
func (e *pinnedError) ErrorCode() string { return e.code }

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	return logEntry
}

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("TEST_ERROR").
		With("key", "value").
		Errorf("something failed")

	errutil.LogError(context.Background(), logger, "operation failed", err)

	logEntry := decode(t, &buf)
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Equal(t, "operation failed", logEntry["msg"])
	assert.Equal(t, "TEST_ERROR", logEntry["code"])
	assert.Contains(t, logEntry, "context")
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(context.Background(), logger, "operation failed", errors.New("standard error"))

	logEntry := decode(t, &buf)
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Contains(t, logEntry["error"], "standard error")
	assert.NotContains(t, logEntry, "code")
}

func TestLogError_PrefersPinnedCode(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	inner := oops.Code("DB_DOWN").Errorf("connection refused")
	err := &pinnedError{code: "AUTH_PERSISTENCE_FAILED", err: oops.Code("AUTH_PERSISTENCE_FAILED").Wrap(inner)}

	errutil.LogError(context.Background(), logger, "operation failed", err)

	assert.Equal(t, "AUTH_PERSISTENCE_FAILED", decode(t, &buf)["code"])
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "standard error", err: errors.New("plain"), want: ""},
		{name: "oops error", err: oops.Code("X").Errorf("x"), want: "X"},
		{name: "oops chain reports deepest", err: oops.Code("OUTER").Wrap(oops.Code("INNER").Errorf("x")), want: "INNER"},
		{
			name: "pinned code wins when wrapped further",
			err:  fmt.Errorf("handler: %w", &pinnedError{code: "PINNED", err: oops.Code("INNER").Errorf("x")}),
			want: "PINNED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errutil.Code(tt.err))
		})
	}
}
