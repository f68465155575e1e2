// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/keyward/keyward/internal/auth"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

func register(t testingT, m *mock.Mock) {
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
}

// MockPasswordHasher is a mock auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher.
func NewMockPasswordHasher(t testingT) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	register(t, &m.Mock)
	return m
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	ret := m.Called(password)
	return ret.String(0), ret.Error(1)
}

func (m *MockPasswordHasher) Verify(password, encoded string) (bool, error) {
	ret := m.Called(password, encoded)
	return ret.Bool(0), ret.Error(1)
}

// MockStrengthPolicy is a mock auth.StrengthPolicy.
type MockStrengthPolicy struct {
	mock.Mock
}

// NewMockStrengthPolicy creates a MockStrengthPolicy.
func NewMockStrengthPolicy(t testingT) *MockStrengthPolicy {
	m := &MockStrengthPolicy{}
	register(t, &m.Mock)
	return m
}

func (m *MockStrengthPolicy) Score(password string, userInputs ...string) auth.StrengthLevel {
	ret := m.Called(password, userInputs)
	return ret.Get(0).(auth.StrengthLevel)
}

func (m *MockStrengthPolicy) CheckAcceptable(password string, userInputs ...string) error {
	ret := m.Called(password, userInputs)
	return ret.Error(0)
}

// MockTokenIssuer is a mock auth.TokenIssuer.
type MockTokenIssuer struct {
	mock.Mock
}

// NewMockTokenIssuer creates a MockTokenIssuer.
func NewMockTokenIssuer(t testingT) *MockTokenIssuer {
	m := &MockTokenIssuer{}
	register(t, &m.Mock)
	return m
}

func (m *MockTokenIssuer) Issue(userID int64, label string) (auth.SignedToken, error) {
	ret := m.Called(userID, label)
	return ret.Get(0).(auth.SignedToken), ret.Error(1)
}

// MockTokenVerifier is a mock auth.TokenVerifier.
type MockTokenVerifier struct {
	mock.Mock
}

// NewMockTokenVerifier creates a MockTokenVerifier.
func NewMockTokenVerifier(t testingT) *MockTokenVerifier {
	m := &MockTokenVerifier{}
	register(t, &m.Mock)
	return m
}

func (m *MockTokenVerifier) Verify(token string) (*auth.IdentityClaims, error) {
	ret := m.Called(token)
	var claims *auth.IdentityClaims
	if v := ret.Get(0); v != nil {
		claims = v.(*auth.IdentityClaims)
	}
	return claims, ret.Error(1)
}

// MockVerificationTokenIssuer is a mock auth.VerificationTokenIssuer.
type MockVerificationTokenIssuer struct {
	mock.Mock
}

// NewMockVerificationTokenIssuer creates a MockVerificationTokenIssuer.
func NewMockVerificationTokenIssuer(t testingT) *MockVerificationTokenIssuer {
	m := &MockVerificationTokenIssuer{}
	register(t, &m.Mock)
	return m
}

func (m *MockVerificationTokenIssuer) Generate() (string, error) {
	ret := m.Called()
	return ret.String(0), ret.Error(1)
}

// MockNotifier is a mock auth.Notifier.
type MockNotifier struct {
	mock.Mock
}

// NewMockNotifier creates a MockNotifier.
func NewMockNotifier(t testingT) *MockNotifier {
	m := &MockNotifier{}
	register(t, &m.Mock)
	return m
}

func (m *MockNotifier) SendVerificationEmail(ctx context.Context, email, link string) error {
	ret := m.Called(ctx, email, link)
	return ret.Error(0)
}

var (
	_ auth.PasswordHasher          = (*MockPasswordHasher)(nil)
	_ auth.StrengthPolicy          = (*MockStrengthPolicy)(nil)
	_ auth.TokenIssuer             = (*MockTokenIssuer)(nil)
	_ auth.TokenVerifier           = (*MockTokenVerifier)(nil)
	_ auth.VerificationTokenIssuer = (*MockVerificationTokenIssuer)(nil)
	_ auth.Notifier                = (*MockNotifier)(nil)
)
