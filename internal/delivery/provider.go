// Package delivery presents delivered notifications through providers (the
// system log and, when configured, email) and records every attempt.
package delivery

import (
	"context"
	"log/slog"

	"github.com/shaharia-lab/notifyd/internal/notification"
)

// LogProviderName identifies the LogProvider in the delivery log.
const LogProviderName = "log"

// Message is the content to be presented by a Provider.
type Message struct {
	NotificationID string
	Subject        string
	Body           string
	To             []string
	// Attachments are local file paths.
	Attachments []string
	Sound       string
	Urgency     string
	ThreadID    string
	// Content is the source content. Nil for messages not built from a
	// delivered notification.
	Content *notification.Content
}

// Provider is the interface for presentation backends.
type Provider interface {
	// Name returns the provider identifier (e.g. "smtp").
	Name() string
	// Send presents the message using the provider's transport.
	Send(ctx context.Context, msg Message) error
}

// LogProvider presents notifications as structured log records.
type LogProvider struct {
	logger *slog.Logger
}

// NewLogProvider returns a LogProvider writing to logger.
func NewLogProvider(logger *slog.Logger) *LogProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProvider{logger: logger}
}

// Name returns the provider identifier.
func (p *LogProvider) Name() string { return LogProviderName }

// Send logs msg. It never fails.
func (p *LogProvider) Send(ctx context.Context, msg Message) error {
	p.logger.InfoContext(ctx, "notification presented",
		"notification_id", msg.NotificationID,
		"subject", msg.Subject,
		"body", msg.Body,
		"sound", msg.Sound,
		"urgency", msg.Urgency,
		"thread_id", msg.ThreadID,
		"attachments", len(msg.Attachments),
	)
	return nil
}
