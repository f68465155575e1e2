// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

// Package notify delivers verification emails.
//
// LogNotifier is a stub transport: it renders the message and writes it to
// the log instead of talking to a mail server. Nothing is retained after a
// send returns.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"

	"github.com/keyward/keyward/internal/auth"
)

// DefaultFrom is the sender address of verification emails.
const DefaultFrom = "noreply@keyward.local"

const verificationSubject = "Verify your email"

// Message is a rendered email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// VerificationMessage renders the verification email for to.
func VerificationMessage(from, to, link string) Message {
	return Message{
		From:    from,
		To:      to,
		Subject: verificationSubject,
		Body:    fmt.Sprintf("Click on the link to verify your email: %s", link),
	}
}

// LogNotifier logs messages instead of sending them.
type LogNotifier struct {
	from     string
	logger   *slog.Logger
	validate *validator.Validate
}

// Option configures a LogNotifier.
type Option func(*LogNotifier)

// WithFrom sets the sender address.
func WithFrom(from string) Option {
	return func(n *LogNotifier) {
		n.from = from
	}
}

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default.
func NewLogNotifier(logger *slog.Logger, opts ...Option) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	n := &LogNotifier{
		from:     DefaultFrom,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SendVerificationEmail renders and logs the verification email. The link
// carries the verification token, so it is only logged at debug level.
func (n *LogNotifier) SendVerificationEmail(ctx context.Context, email, link string) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("NOTIFY_CANCELED").Wrap(err)
	}
	if err := n.validate.Var(email, "required,email"); err != nil {
		return oops.Code("NOTIFY_INVALID_RECIPIENT").With("to", email).Wrap(err)
	}
	if link == "" {
		return oops.Code("NOTIFY_INVALID_MESSAGE").Errorf("verification link is empty")
	}

	msg := VerificationMessage(n.from, email, link)
	n.logger.InfoContext(ctx, "verification email sent", "from", msg.From, "to", msg.To, "subject", msg.Subject)
	n.logger.DebugContext(ctx, "verification email body", "to", msg.To, "body", msg.Body)
	return nil
}

var _ auth.Notifier = (*LogNotifier)(nil)
