// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package auth

import (
	"context"
	"net/url"

	"github.com/samber/oops"
)

// DefaultVerifyBaseURL is the verification endpoint linked from emails when
// none is configured.
const DefaultVerifyBaseURL = "http://localhost:3000/verify"

// Notifier delivers verification emails. Delivery is attempted at most once.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, email, link string) error
}

// VerificationLink builds "<base>?token=<token>", preserving any query
// parameters already present on base.
func VerificationLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", oops.Code("VERIFY_LINK_INVALID").With("base", base).Wrap(err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
