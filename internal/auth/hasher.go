// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Default argon2id cost. These match the reference argon2 defaults
// (19 MiB, two passes, one lane) so existing hashes keep verifying.
const (
	DefaultArgon2Time    = 2
	DefaultArgon2Memory  = 19 * 1024 // KiB
	DefaultArgon2Threads = 1
	argon2SaltLen        = 16
	argon2KeyLen         = 32
)

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a self-describing hash of the password.
	Hash(password string) (string, error)

	// Verify checks if the password matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid hash.
	Verify(password, hash string) (bool, error)
}

// Argon2Params is the tunable cost of an Argon2idHasher.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultArgon2Params returns the production cost.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Time:    DefaultArgon2Time,
		Memory:  DefaultArgon2Memory,
		Threads: DefaultArgon2Threads,
	}
}

// Argon2idHasher implements PasswordHasher using argon2id and PHC strings.
type Argon2idHasher struct {
	params  Argon2Params
	entropy io.Reader
}

// NewArgon2idHasher creates an Argon2idHasher with the default cost.
func NewArgon2idHasher() *Argon2idHasher {
	return NewArgon2idHasherWithParams(DefaultArgon2Params())
}

// NewArgon2idHasherWithParams creates an Argon2idHasher with a custom cost.
// Zero fields fall back to the defaults.
func NewArgon2idHasherWithParams(p Argon2Params) *Argon2idHasher {
	def := DefaultArgon2Params()
	if p.Time == 0 {
		p.Time = def.Time
	}
	if p.Memory == 0 {
		p.Memory = def.Memory
	}
	if p.Threads == 0 {
		p.Threads = def.Threads
	}
	return &Argon2idHasher{params: p, entropy: rand.Reader}
}

// Params returns the cost used for new hashes.
func (h *Argon2idHasher) Params() Argon2Params {
	return h.params
}

// Hash produces an argon2id hash of the password.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", newError(KindHashing, "password cannot be empty")
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := io.ReadFull(h.entropy, salt); err != nil {
		return "", wrapError(KindHashing, err, "operation", "read salt")
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, argon2KeyLen)

	// $argon2id$v=19$m=19456,t=2,p=1$<salt>$<hash>
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks if the password matches the hash.
func (h *Argon2idHasher) Verify(password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return false, newError(KindHashing, "invalid hash format")
	}
	if parts[1] != "argon2id" {
		return false, newError(KindHashing, "unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, wrapError(KindHashing, err, "field", "version")
	}
	if version != argon2.Version {
		return false, newError(KindHashing, "unsupported argon2 version: %d", version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, wrapError(KindHashing, err, "field", "params")
	}
	if threads == 0 || threads > 255 {
		return false, newError(KindHashing, "threads value %d out of range", threads)
	}
	if time == 0 || memory == 0 {
		return false, newError(KindHashing, "cost parameters must be positive")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, wrapError(KindHashing, err, "field", "salt")
	}

	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, wrapError(KindHashing, err, "field", "digest")
	}
	keyLen := len(expected)
	if keyLen == 0 || keyLen > 1<<10 {
		return false, newError(KindHashing, "invalid hash key length: %d", keyLen)
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(keyLen))

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

var _ PasswordHasher = (*Argon2idHasher)(nil)
