// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package auth

import (
	"strings"
	"unicode/utf8"

	"github.com/samber/oops"
	"github.com/trustelem/zxcvbn"
)

// StrengthLevel is an ordinal estimate (0-4) of how hard a password is to guess.
type StrengthLevel int

// Strength levels, weakest first.
const (
	StrengthTooGuessable StrengthLevel = iota
	StrengthVeryGuessable
	StrengthSomewhatGuessable
	StrengthSafelyUnguessable
	StrengthVeryUnguessable
)

// MaxScoredRunes bounds how much of a password is scored. Matching cost grows
// much faster than length, and the prefix alone already decides the level.
const MaxScoredRunes = 100

// MinimumStrength is the lowest level a new password may have. It is a fixed
// floor and intentionally not configurable.
const MinimumStrength = StrengthSafelyUnguessable

// StrengthPolicy rejects guessable passwords.
type StrengthPolicy interface {
	// Score estimates the password's strength. userInputs are words the
	// attacker is assumed to know (for example the account email).
	Score(password string, userInputs ...string) StrengthLevel

	// CheckAcceptable returns a WeakPassword error when the score is below
	// MinimumStrength.
	CheckAcceptable(password string, userInputs ...string) error
}

// ZxcvbnPolicy scores passwords with the zxcvbn 4 estimator (common-password,
// dictionary, keyboard-pattern, date, repeat and l33t matching).
type ZxcvbnPolicy struct{}

// NewZxcvbnPolicy creates a ZxcvbnPolicy.
func NewZxcvbnPolicy() *ZxcvbnPolicy {
	return &ZxcvbnPolicy{}
}

// Score returns the zxcvbn score of the first MaxScoredRunes runes, clamped
// to 0-4.
func (p *ZxcvbnPolicy) Score(password string, userInputs ...string) StrengthLevel {
	if password == "" {
		return StrengthTooGuessable
	}
	result := zxcvbn.PasswordStrength(scoredPrefix(password), expandUserInputs(userInputs))
	switch {
	case result.Score < int(StrengthTooGuessable):
		return StrengthTooGuessable
	case result.Score > int(StrengthVeryUnguessable):
		return StrengthVeryUnguessable
	default:
		return StrengthLevel(result.Score)
	}
}

// CheckAcceptable implements StrengthPolicy.
func (p *ZxcvbnPolicy) CheckAcceptable(password string, userInputs ...string) error {
	level := p.Score(password, userInputs...)
	if level < MinimumStrength {
		return &Error{
			kind: KindWeakPassword,
			err: oops.Code(string(KindWeakPassword)).
				With("score", int(level)).
				With("minimum", int(MinimumStrength)).
				Errorf("password is too weak"),
		}
	}
	return nil
}

func scoredPrefix(password string) string {
	if utf8.RuneCountInString(password) <= MaxScoredRunes {
		return password
	}
	n := 0
	for i := range password {
		if n == MaxScoredRunes {
			return password[:i]
		}
		n++
	}
	return password
}

// expandUserInputs adds the local part and domain labels of any email so a
// password derived from the user's own address is penalised.
func expandUserInputs(inputs []string) []string {
	out := make([]string, 0, len(inputs)*2)
	for _, in := range inputs {
		in = strings.ToLower(strings.TrimSpace(in))
		if in == "" {
			continue
		}
		out = append(out, in)
		if local, domain, ok := strings.Cut(in, "@"); ok {
			out = append(out, local)
			for _, label := range strings.Split(domain, ".") {
				if len(label) > 2 {
					out = append(out, label)
				}
			}
		}
	}
	return out
}

var _ StrengthPolicy = (*ZxcvbnPolicy)(nil)
