package notify

import (
	"context"
	"log/slog"
	"unicode/utf8"
)

// NoOpNotifier implements Notifier by logging discarded messages. It is used
// for dry runs and when no broadcast channel is configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards messages with a log line.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// Send logs and discards the message.
func (n *NoOpNotifier) Send(_ context.Context, text string) error {
	n.log.Info("notification discarded (no backend configured)",
		"chars", utf8.RuneCountInString(text),
		"body", text,
	)
	return nil
}
