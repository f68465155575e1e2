// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package auth

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/samber/oops"
)

// Verification token configuration.
const (
	VerificationTokenLength   = 32
	verificationTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// VerificationTokenIssuer generates one-time email verification tokens.
// Uniqueness is enforced by the UserDirectory, not here.
type VerificationTokenIssuer interface {
	Generate() (string, error)
}

// RandomTokenIssuer draws tokens uniformly from an alphanumeric alphabet.
type RandomTokenIssuer struct {
	entropy io.Reader
}

// NewRandomTokenIssuer creates a RandomTokenIssuer backed by crypto/rand.
func NewRandomTokenIssuer() *RandomTokenIssuer {
	return &RandomTokenIssuer{entropy: rand.Reader}
}

// Generate returns a VerificationTokenLength character token.
func (g *RandomTokenIssuer) Generate() (string, error) {
	alphabetLen := big.NewInt(int64(len(verificationTokenAlphabet)))
	buf := make([]byte, VerificationTokenLength)
	for i := range buf {
		n, err := rand.Int(g.entropy, alphabetLen)
		if err != nil {
			return "", oops.Code("VERIFICATION_TOKEN_GENERATE_FAILED").
				With("operation", "crypto/rand.Int").
				Wrap(err)
		}
		buf[i] = verificationTokenAlphabet[n.Int64()]
	}
	return string(buf), nil
}

var _ VerificationTokenIssuer = (*RandomTokenIssuer)(nil)
