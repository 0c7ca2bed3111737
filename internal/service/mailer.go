package service

import (
	"context"
	"log/slog"
)

// Mailer delivers account emails.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetLink string) error
}

// LogMailer writes emails to the log instead of sending them.
// It is the default until an SMTP provider is configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a mailer that logs.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendPasswordReset logs the reset link for to.
func (m *LogMailer) SendPasswordReset(_ context.Context, to, resetLink string) error {
	m.logger.Info("password reset email",
		"to", to,
		"link", resetLink,
	)
	return nil
}
