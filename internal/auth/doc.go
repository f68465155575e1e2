// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

// Package auth provides the credential lifecycle for Keyward.
//
// # Primitives
//
// The leaf components have no dependencies on each other:
//   - Argon2idHasher - salted argon2id hashing with PHC-encoded output
//   - ZxcvbnPolicy - rejects passwords scoring below MinimumStrength
//   - ValidateCredentials - email and password shape checks
//   - TokenService - HS256 identity tokens valid for TokenTTL
//   - RandomTokenIssuer - one-time email verification tokens
//
// # Services
//
// Service orchestrates the primitives against a UserDirectory and a
// Notifier:
//   - Register - create an unverified user and send a verification link
//   - Login - verify credentials and issue a signed token
//   - VerifyEmail - consume a verification token
//
// Every error returned by Service carries a Kind; use KindOf to classify it.
// Persistence, hashing, signing and notification failures are logged once by
// the Service before they are returned.
package auth
