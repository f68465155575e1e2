// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package errutil

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// Coded is implemented by errors that pin a code above an oops chain.
// oops reports the deepest code in a chain; a Coded error overrides it.
type Coded interface {
	ErrorCode() string
}

// Code returns the outermost code carried by err: the code of the first
// Coded error in the chain, else the oops code. Returns "" if neither exists.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var coded Coded
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok {
			return code
		}
	}
	return ""
}

// LogError logs an error with structured context if it's an oops error.
// For oops errors, it extracts and logs the message, code and context.
// For standard errors, it logs the error string.
func LogError(ctx context.Context, logger *slog.Logger, msg string, err error) {
	attrs := []any{"error", err.Error()}
	if code := Code(err); code != "" {
		attrs = append(attrs, "code", code)
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		if c := oopsErr.Context(); len(c) > 0 {
			attrs = append(attrs, "context", c)
		}
	}
	logger.ErrorContext(ctx, msg, attrs...)
}
