package notify

import (
	"context"
	"net/http"
)

// WebhookNotifier implements Notifier by POSTing {"text": ...} to an
// arbitrary endpoint (Slack incoming webhooks accept the same shape).
type WebhookNotifier struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// NewWebhookNotifier creates a new WebhookNotifier. A nil client uses
// http.DefaultClient.
func NewWebhookNotifier(url string, headers map[string]string, client *http.Client) *WebhookNotifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookNotifier{url: url, headers: headers, client: client}
}

type webhookPayload struct {
	Text string `json:"text"`
}

// Send posts text to the webhook.
func (w *WebhookNotifier) Send(ctx context.Context, text string) error {
	return postJSON(ctx, w.client, "webhook", w.url, w.headers, webhookPayload{Text: text})
}
