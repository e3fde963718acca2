package notify

import (
	"context"
	"net/http"
)

// discordContentLimit is the maximum length of a webhook message body.
const discordContentLimit = 2000

// DiscordNotifier implements Notifier via Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Content string `json:"content"`
}

// Send posts text as the webhook message content.
func (d *DiscordNotifier) Send(ctx context.Context, text string) error {
	payload := discordWebhookPayload{Content: truncate(text, discordContentLimit)}
	return postJSON(ctx, d.client, "discord", d.webhookURL, nil, payload)
}
