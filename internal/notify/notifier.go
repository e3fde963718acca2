// Package notify defines the broadcast notification interface, its
// transports, and the message templates the watcher sends.
package notify

import (
	"context"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/donaldgifford/slot-watcher/internal/config"
)

// Notifier delivers a plain-text message to every subscriber of the
// configured channel.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// New builds the notifier selected by cfg.Backend.
func New(cfg *config.NotificationsConfig, log *slog.Logger) Notifier {
	client := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Backend {
	case config.BackendLINE:
		return NewLINENotifier(cfg.LINE.Token,
			WithLINEEndpoint(cfg.LINE.Endpoint),
			WithLINEHTTPClient(client),
		)
	case config.BackendDiscord:
		return NewDiscordNotifier(cfg.Discord.WebhookURL, WithHTTPClient(client))
	case config.BackendWebhook:
		return NewWebhookNotifier(cfg.Webhook.URL, cfg.Webhook.Headers, client)
	default:
		return NewNoOpNotifier(log)
	}
}

// truncate shortens text to at most limit runes, marking the cut with an
// ellipsis.
func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit-1]) + "…"
}
