// Package mail defines the outbound email boundary. Delivery itself is an
// external collaborator; the default implementation only logs, which is what
// development and tests want.
package mail

import (
	"context"
	"log/slog"

	"zilean/internal/middleware"
	"zilean/internal/models"
)

// Mailer sends account lifecycle emails.
type Mailer interface {
	SendVerification(ctx context.Context, user *models.User, link string) error
	SendPasswordReset(ctx context.Context, user *models.User, link string) error
}

// LogMailer writes would-be emails to the structured log instead of sending.
type LogMailer struct {
	From string
}

// NewLogMailer returns a Mailer that logs deliveries.
func NewLogMailer(from string) *LogMailer {
	return &LogMailer{From: from}
}

func (m *LogMailer) SendVerification(ctx context.Context, user *models.User, link string) error {
	middleware.Logger.InfoContext(ctx, "verification email",
		slog.String("from", m.From),
		slog.String("to", user.Email),
		slog.String("link", link),
	)
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, user *models.User, link string) error {
	middleware.Logger.InfoContext(ctx, "password reset email",
		slog.String("from", m.From),
		slog.String("to", user.Email),
		slog.String("link", link),
	)
	return nil
}
