// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package auth_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/internal/auth"
)

var verificationTokenPattern = regexp.MustCompile(`^[A-Za-z0-9]{32}$`)

func TestRandomTokenIssuer_Generate(t *testing.T) {
	issuer := auth.NewRandomTokenIssuer()

	seen := make(map[string]struct{}, 200)
	for range 200 {
		token, err := issuer.Generate()
		require.NoError(t, err)
		assert.Regexp(t, verificationTokenPattern, token)
		_, dup := seen[token]
		assert.False(t, dup, "duplicate token %q", token)
		seen[token] = struct{}{}
	}
}

func TestVerificationLink(t *testing.T) {
	tests := []struct {
		name string
		base string
		want string
	}{
		{name: "default base", base: auth.DefaultVerifyBaseURL, want: "http://localhost:3000/verify?token=abc123"},
		{name: "existing query kept", base: "https://app.example.com/verify?lang=en", want: "https://app.example.com/verify?lang=en&token=abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := auth.VerificationLink(tt.base, "abc123")
			require.NoError(t, err)
			assert.Equal(t, tt.want, link)
		})
	}

	t.Run("unparseable base", func(t *testing.T) {
		_, err := auth.VerificationLink("http://[::1", "abc123")
		assert.Error(t, err)
	})
}

func TestUser_MarkVerified(t *testing.T) {
	token := "abc"
	u := &auth.User{ID: 1, Email: "a@example.com", VerificationToken: &token}
	assert.True(t, u.PendingVerification())

	u.MarkVerified()
	assert.True(t, u.Verified)
	assert.Nil(t, u.VerificationToken)
	assert.False(t, u.PendingVerification())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "Alice@Example.com", auth.NormalizeEmail("  Alice@Example.com\t"))
}
