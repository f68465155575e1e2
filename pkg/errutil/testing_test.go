// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package errutil_test

import (
	"testing"

	"github.com/samber/oops"

	"github.com/keyward/keyward/pkg/errutil"
)

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("MY_CODE").Errorf("test error")
	errutil.AssertErrorCode(t, err, "MY_CODE")
}

func TestAssertErrorCode_PinnedCode(t *testing.T) {
	err := &pinnedError{code: "OUTER", err: oops.Code("INNER").Errorf("test error")}
	errutil.AssertErrorCode(t, err, "OUTER")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("user_id", int64(123)).Errorf("test error")
	errutil.AssertErrorContext(t, err, "user_id", int64(123))
}
