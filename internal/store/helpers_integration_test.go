// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

//go:build integration

package store_test

import (
	"io"
	"log/slog"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
