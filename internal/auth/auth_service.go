// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/keyward/keyward/pkg/errutil"
)

// ServiceConfig holds the collaborators of a Service.
type ServiceConfig struct {
	Users         UserDirectory
	Hasher        PasswordHasher
	Strength      StrengthPolicy
	Tokens        TokenIssuer
	Verification  VerificationTokenIssuer
	Notifier      Notifier
	VerifyBaseURL string
	Logger        *slog.Logger
}

// Service orchestrates registration, login and email verification.
type Service struct {
	users         UserDirectory
	hasher        PasswordHasher
	strength      StrengthPolicy
	tokens        TokenIssuer
	verification  VerificationTokenIssuer
	notifier      Notifier
	verifyBaseURL string
	logger        *slog.Logger
}

// NewAuthService creates a new Service. Every collaborator is required; the
// logger defaults to slog.Default and the verify URL to DefaultVerifyBaseURL.
func NewAuthService(cfg ServiceConfig) (*Service, error) {
	switch {
	case cfg.Users == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("user directory is required")
	case cfg.Hasher == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	case cfg.Strength == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("strength policy is required")
	case cfg.Tokens == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("token issuer is required")
	case cfg.Verification == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("verification token issuer is required")
	case cfg.Notifier == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("notifier is required")
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.VerifyBaseURL == "" {
		cfg.VerifyBaseURL = DefaultVerifyBaseURL
	}

	return &Service{
		users:         cfg.Users,
		hasher:        cfg.Hasher,
		strength:      cfg.Strength,
		tokens:        cfg.Tokens,
		verification:  cfg.Verification,
		notifier:      cfg.Notifier,
		verifyBaseURL: cfg.VerifyBaseURL,
		logger:        cfg.Logger,
	}, nil
}

// dummyPasswordHash is verified when the email is unknown so that a missing
// account costs the same as a wrong password. It never matches any password.
//
//nolint:gosec // G101: not a credential
const dummyPasswordHash = "$argon2id$v=19$m=19456,t=2,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Register creates an unverified user and sends the verification email.
//
// A notification failure is returned as KindNotification but the created
// record is kept; the user stays unverified with no resend path.
func (s *Service) Register(ctx context.Context, creds Credentials) error {
	creds.Email = NormalizeEmail(creds.Email)

	if err := ValidateCredentials(creds); err != nil {
		return err
	}

	if err := s.strength.CheckAcceptable(creds.Password, creds.Email); err != nil {
		return wrapError(KindWeakPassword, err, "operation", "check password strength")
	}

	exists, err := s.users.ExistsByEmail(ctx, creds.Email)
	if err != nil {
		return s.fail(ctx, wrapError(KindPersistence, err, "operation", "check email exists"))
	}
	if exists {
		return newError(KindEmailAlreadyExists, "email already registered")
	}

	hash, err := s.hasher.Hash(creds.Password)
	if err != nil {
		return s.fail(ctx, wrapError(KindHashing, err, "operation", "hash password"))
	}

	token, err := s.verification.Generate()
	if err != nil {
		return s.fail(ctx, wrapError(KindTokenCreation, err, "operation", "generate verification token"))
	}

	user, err := s.users.Insert(ctx, creds.Email, hash, token)
	if err != nil {
		if errors.Is(err, ErrEmailConflict) {
			return wrapError(KindEmailAlreadyExists, err, "operation", "insert user")
		}
		return s.fail(ctx, wrapError(KindPersistence, err, "operation", "insert user"))
	}

	link, err := VerificationLink(s.verifyBaseURL, token)
	if err != nil {
		return s.fail(ctx, wrapError(KindNotification, err, "operation", "build verification link", "user_id", user.ID))
	}

	if err := s.notifier.SendVerificationEmail(ctx, user.Email, link); err != nil {
		return s.fail(ctx, wrapError(KindNotification, err, "operation", "send verification email", "user_id", user.ID))
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return nil
}

// Login verifies credentials and issues a signed token. An unknown email and
// a wrong password produce the same KindWrongCredentials error.
func (s *Service) Login(ctx context.Context, creds Credentials) (SignedToken, error) {
	email := NormalizeEmail(creds.Email)

	user, lookupErr := s.users.FindByEmail(ctx, email)

	targetHash := dummyPasswordHash
	userExists := false
	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return SignedToken{}, s.fail(ctx, wrapError(KindPersistence, lookupErr, "operation", "find user by email"))
		}
	} else {
		targetHash = user.PasswordHash
		userExists = true
	}

	// Always verify so response time does not reveal whether the email exists.
	valid, verifyErr := s.hasher.Verify(creds.Password, targetHash)
	if verifyErr != nil {
		if !userExists {
			return SignedToken{}, newError(KindWrongCredentials, "invalid email or password")
		}
		return SignedToken{}, s.fail(ctx, wrapError(KindHashing, verifyErr, "operation", "verify password", "user_id", user.ID))
	}

	if !userExists || !valid {
		return SignedToken{}, newError(KindWrongCredentials, "invalid email or password")
	}

	if !user.Verified {
		return SignedToken{}, &Error{
			kind: KindEmailNotVerified,
			err:  oops.Code(string(KindEmailNotVerified)).With("user_id", user.ID).Errorf("email not verified"),
		}
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return SignedToken{}, s.fail(ctx, wrapError(KindTokenCreation, err, "operation", "issue token", "user_id", user.ID))
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return token, nil
}

// VerifyEmail consumes a verification token and marks its owner verified.
// Verification tokens do not expire; an unknown token is the only failure.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return newError(KindInvalidOrExpiredToken, "invalid or expired token")
	}

	user, err := s.users.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return newError(KindInvalidOrExpiredToken, "invalid or expired token")
		}
		return s.fail(ctx, wrapError(KindPersistence, err, "operation", "find user by verification token"))
	}

	user.MarkVerified()

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, ErrNotFound) {
			return wrapError(KindInvalidOrExpiredToken, err, "user_id", user.ID)
		}
		return s.fail(ctx, wrapError(KindPersistence, err, "operation", "mark user verified", "user_id", user.ID))
	}

	s.logger.InfoContext(ctx, "email verified", "user_id", user.ID)
	return nil
}

// FindUserByEmail returns the user with the given email.
func (s *Service) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, wrapError(KindUserNotFound, err)
		}
		return nil, wrapError(KindPersistence, err, "operation", "find user by email")
	}
	return user, nil
}

// EmailExists reports whether an account uses the email.
func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	exists, err := s.users.ExistsByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return false, wrapError(KindPersistence, err, "operation", "check email exists")
	}
	return exists, nil
}

// CurrentUser loads the user named by verified claims.
func (s *Service) CurrentUser(ctx context.Context, claims *IdentityClaims) (*User, error) {
	if claims == nil {
		return nil, newError(KindInvalidToken, "missing claims")
	}
	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, wrapError(KindUserNotFound, err, "user_id", claims.Subject)
		}
		return nil, s.fail(ctx, wrapError(KindPersistence, err, "operation", "find user by id", "user_id", claims.Subject))
	}
	return user, nil
}

// fail logs infrastructure failures before they are returned.
func (s *Service) fail(ctx context.Context, err error) error {
	errutil.LogError(ctx, s.logger, "auth operation failed", err)
	return err
}
