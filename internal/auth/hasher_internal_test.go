// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package auth

import (
	"errors"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2idHasher_EntropyFailure(t *testing.T) {
	h := NewArgon2idHasher()
	h.entropy = iotest.ErrReader(errors.New("entropy exhausted"))

	hash, err := h.Hash("password123")
	require.Error(t, err)
	assert.Empty(t, hash)
	assert.Equal(t, KindHashing, KindOf(err))
	assert.Contains(t, err.Error(), "entropy exhausted")
}

func TestRandomTokenIssuer_EntropyFailure(t *testing.T) {
	g := &RandomTokenIssuer{entropy: iotest.ErrReader(errors.New("entropy exhausted"))}

	token, err := g.Generate()
	require.Error(t, err)
	assert.Empty(t, token)
}

func TestDummyPasswordHashIsWellFormed(t *testing.T) {
	ok, err := NewArgon2idHasher().Verify("anything", dummyPasswordHash)
	require.NoError(t, err)
	assert.False(t, ok)
}
