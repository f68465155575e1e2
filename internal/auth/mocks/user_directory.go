// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

// Package mocks provides testify mocks for the auth interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/keyward/keyward/internal/auth"
)

// MockUserDirectory is a mock auth.UserDirectory.
type MockUserDirectory struct {
	mock.Mock
}

// NewMockUserDirectory creates a MockUserDirectory whose expectations are
// asserted when the test ends.
func NewMockUserDirectory(t testingT) *MockUserDirectory {
	m := &MockUserDirectory{}
	register(t, &m.Mock)
	return m
}

func (m *MockUserDirectory) Insert(ctx context.Context, email, passwordHash, verificationToken string) (*auth.User, error) {
	ret := m.Called(ctx, email, passwordHash, verificationToken)
	return userResult(ret)
}

func (m *MockUserDirectory) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	ret := m.Called(ctx, email)
	return userResult(ret)
}

func (m *MockUserDirectory) FindByVerificationToken(ctx context.Context, token string) (*auth.User, error) {
	ret := m.Called(ctx, token)
	return userResult(ret)
}

func (m *MockUserDirectory) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	ret := m.Called(ctx, id)
	return userResult(ret)
}

func (m *MockUserDirectory) Update(ctx context.Context, user *auth.User) error {
	ret := m.Called(ctx, user)
	return ret.Error(0)
}

func (m *MockUserDirectory) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	ret := m.Called(ctx, email)
	return ret.Bool(0), ret.Error(1)
}

func userResult(ret mock.Arguments) (*auth.User, error) {
	var user *auth.User
	if v := ret.Get(0); v != nil {
		user = v.(*auth.User)
	}
	return user, ret.Error(1)
}

var _ auth.UserDirectory = (*MockUserDirectory)(nil)
