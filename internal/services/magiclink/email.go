package magiclink

import (
	"context"
	"log/slog"
)

// EmailSender delivers magic-link emails. Delivery is the only outbound
// I/O of the login flow; failures surface to the caller.
type EmailSender interface {
	SendMagicLink(ctx context.Context, email, url string) error
}

// ConsoleEmailSender logs the link instead of sending it. Default for
// local development.
type ConsoleEmailSender struct {
	logger *slog.Logger
}

// NewConsoleEmailSender creates a ConsoleEmailSender
func NewConsoleEmailSender(logger *slog.Logger) *ConsoleEmailSender {
	return &ConsoleEmailSender{logger: logger}
}

// SendMagicLink logs the magic link
func (s *ConsoleEmailSender) SendMagicLink(ctx context.Context, email, url string) error {
	s.logger.Info("magic link issued",
		slog.String("to", email),
		slog.String("url", url),
	)
	return nil
}
