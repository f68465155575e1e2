// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/internal/auth"
	"github.com/keyward/keyward/pkg/errutil"
)

func TestZxcvbnPolicy_Score(t *testing.T) {
	policy := auth.NewZxcvbnPolicy()

	tests := []struct {
		name     string
		password string
		inputs   []string
		check    func(t *testing.T, level auth.StrengthLevel)
	}{
		{
			name:     "empty password is too guessable",
			password: "",
			check: func(t *testing.T, level auth.StrengthLevel) {
				assert.Equal(t, auth.StrengthTooGuessable, level)
			},
		},
		{
			name:     "common password is below minimum",
			password: "password1",
			check: func(t *testing.T, level auth.StrengthLevel) {
				assert.Less(t, level, auth.MinimumStrength)
			},
		},
		{
			name:     "keyboard walk is below minimum",
			password: "qwertyuiop",
			check: func(t *testing.T, level auth.StrengthLevel) {
				assert.Less(t, level, auth.MinimumStrength)
			},
		},
		{
			name:     "random mixed-class password meets minimum",
			password: "Gx9!vR2#mQ7$wL4z",
			check: func(t *testing.T, level auth.StrengthLevel) {
				assert.GreaterOrEqual(t, level, auth.MinimumStrength)
			},
		},
		{
			name:     "l33t passphrase meets minimum",
			password: "Sup3r$ecure!9",
			check: func(t *testing.T, level auth.StrengthLevel) {
				assert.GreaterOrEqual(t, level, auth.MinimumStrength)
			},
		},
		{
			name:     "password equal to email local part is penalised",
			password: "quixoticzebrafalcon",
			inputs:   []string{"quixoticzebrafalcon@example.com"},
			check: func(t *testing.T, level auth.StrengthLevel) {
				assert.Less(t, level, auth.MinimumStrength)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level := policy.Score(tt.password, tt.inputs...)
			assert.GreaterOrEqual(t, level, auth.StrengthTooGuessable)
			assert.LessOrEqual(t, level, auth.StrengthVeryUnguessable)
			tt.check(t, level)
		})
	}
}

func TestZxcvbnPolicy_CheckAcceptable(t *testing.T) {
	policy := auth.NewZxcvbnPolicy()

	t.Run("weak password rejected", func(t *testing.T) {
		err := policy.CheckAcceptable("password1")
		require.Error(t, err)
		assert.Equal(t, auth.KindWeakPassword, auth.KindOf(err))
		errutil.AssertErrorCode(t, err, string(auth.KindWeakPassword))
		errutil.AssertErrorContext(t, err, "minimum", int(auth.MinimumStrength))
	})

	t.Run("strong password accepted", func(t *testing.T) {
		assert.NoError(t, policy.CheckAcceptable("Gx9!vR2#mQ7$wL4z", "someone@example.com"))
	})
}

func TestZxcvbnPolicy_LongPasswordScoredQuickly(t *testing.T) {
	policy := auth.NewZxcvbnPolicy()
	long := strings.Repeat("aZ9$qwer", 64<<10)

	start := time.Now()
	level := policy.Score(long)
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 5*time.Second)
	prefix := string([]rune(long)[:auth.MaxScoredRunes])
	assert.Equal(t, policy.Score(prefix), level)
}

func TestZxcvbnPolicy_MultibytePrefix(t *testing.T) {
	policy := auth.NewZxcvbnPolicy()
	long := strings.Repeat("ü€", auth.MaxScoredRunes)

	prefix := string([]rune(long)[:auth.MaxScoredRunes])
	assert.Equal(t, policy.Score(prefix), policy.Score(long))
}

func TestMinimumStrength(t *testing.T) {
	assert.Equal(t, auth.StrengthLevel(3), auth.MinimumStrength)
}
