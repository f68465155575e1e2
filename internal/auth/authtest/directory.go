// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

// Package authtest provides in-memory fakes for exercising the auth service
// end to end without a database or mail transport.
package authtest

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/keyward/keyward/internal/auth"
)

// MemoryDirectory is a concurrency-safe in-memory auth.UserDirectory. It
// enforces the same uniqueness rules as the postgres directory.
type MemoryDirectory struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*auth.User
	now    func() time.Time
}

// NewMemoryDirectory creates an empty MemoryDirectory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		users: make(map[int64]*auth.User),
		now:   time.Now,
	}
}

// Insert implements auth.UserDirectory.
func (d *MemoryDirectory) Insert(_ context.Context, email, passwordHash, verificationToken string) (*auth.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, u := range d.users {
		if strings.EqualFold(u.Email, email) {
			return nil, auth.ErrEmailConflict
		}
		if u.VerificationToken != nil && *u.VerificationToken == verificationToken {
			return nil, auth.ErrConflict
		}
	}

	d.nextID++
	token := verificationToken
	u := &auth.User{
		ID:                d.nextID,
		Email:             email,
		PasswordHash:      passwordHash,
		CreatedAt:         d.now().UTC(),
		VerificationToken: &token,
	}
	d.users[u.ID] = u
	return clone(u), nil
}

// FindByEmail implements auth.UserDirectory.
func (d *MemoryDirectory) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if strings.EqualFold(u.Email, email) {
			return clone(u), nil
		}
	}
	return nil, auth.ErrNotFound
}

// FindByVerificationToken implements auth.UserDirectory.
func (d *MemoryDirectory) FindByVerificationToken(_ context.Context, token string) (*auth.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			return clone(u), nil
		}
	}
	return nil, auth.ErrNotFound
}

// FindByID implements auth.UserDirectory.
func (d *MemoryDirectory) FindByID(_ context.Context, id int64) (*auth.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return clone(u), nil
}

// Update implements auth.UserDirectory.
func (d *MemoryDirectory) Update(_ context.Context, user *auth.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[user.ID]
	if !ok || u.Verified {
		return auth.ErrNotFound
	}
	u.Verified = user.Verified
	u.VerificationToken = nil
	if user.VerificationToken != nil {
		token := *user.VerificationToken
		u.VerificationToken = &token
	}
	return nil
}

// ExistsByEmail implements auth.UserDirectory.
func (d *MemoryDirectory) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := d.FindByEmail(ctx, email)
	if errors.Is(err, auth.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Len returns the number of stored users.
func (d *MemoryDirectory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.users)
}

func clone(u *auth.User) *auth.User {
	c := *u
	if u.VerificationToken != nil {
		token := *u.VerificationToken
		c.VerificationToken = &token
	}
	return &c
}

// Outbox is an auth.Notifier that records every verification link instead of
// sending it. Err, when set, is returned from every send.
type Outbox struct {
	mu    sync.Mutex
	links map[string]string
	Err   error
}

// NewOutbox creates an empty Outbox.
func NewOutbox() *Outbox {
	return &Outbox{links: make(map[string]string)}
}

// SendVerificationEmail implements auth.Notifier.
func (o *Outbox) SendVerificationEmail(_ context.Context, email, link string) error {
	if o.Err != nil {
		return o.Err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.links[strings.ToLower(email)] = link
	return nil
}

// Link returns the last link sent to email.
func (o *Outbox) Link(email string) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	link, ok := o.links[strings.ToLower(email)]
	return link, ok
}

// Token extracts the token query parameter from the last link sent to email.
func (o *Outbox) Token(email string) string {
	link, ok := o.Link(email)
	if !ok {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Query().Get("token")
}

var (
	_ auth.UserDirectory = (*MemoryDirectory)(nil)
	_ auth.Notifier      = (*Outbox)(nil)
)
