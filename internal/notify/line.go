package notify

import (
	"context"
	"errors"
	"net/http"
)

const (
	defaultLINEEndpoint = "https://api.line.me/v2/bot/message/broadcast"

	// lineTextLimit is the LINE Messaging API cap for a text message.
	lineTextLimit = 5000
)

// LINENotifier implements Notifier with the LINE Messaging API broadcast
// endpoint, which delivers to every friend of the official account.
type LINENotifier struct {
	token    string
	endpoint string
	client   *http.Client
}

// LINEOption configures a LINENotifier.
type LINEOption func(*LINENotifier)

// WithLINEEndpoint overrides the broadcast URL.
func WithLINEEndpoint(url string) LINEOption {
	return func(n *LINENotifier) {
		if url != "" {
			n.endpoint = url
		}
	}
}

// WithLINEHTTPClient sets a custom HTTP client.
func WithLINEHTTPClient(c *http.Client) LINEOption {
	return func(n *LINENotifier) {
		n.client = c
	}
}

// NewLINENotifier creates a new LINENotifier for the channel access token.
func NewLINENotifier(token string, opts ...LINEOption) *LINENotifier {
	n := &LINENotifier{
		token:    token,
		endpoint: defaultLINEEndpoint,
		client:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type lineBroadcastPayload struct {
	Messages []lineMessage `json:"messages"`
}

type lineMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Send broadcasts text as a single LINE text message.
func (n *LINENotifier) Send(ctx context.Context, text string) error {
	if n.token == "" {
		return errors.New("line channel access token is not set")
	}
	payload := lineBroadcastPayload{
		Messages: []lineMessage{{Type: "text", Text: truncate(text, lineTextLimit)}},
	}
	return postJSON(ctx, n.client, "line", n.endpoint, map[string]string{
		"Authorization": "Bearer " + n.token,
	}, payload)
}
