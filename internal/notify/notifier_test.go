package notify

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/donaldgifford/slot-watcher/internal/config"
)

func TestNew_SelectsBackend(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	base := config.NotificationsConfig{
		Timeout: 15 * time.Second,
		LINE:    config.LINEConfig{Token: "t", Endpoint: "https://line.example.com"},
		Discord: config.DiscordConfig{WebhookURL: "https://discord.example.com"},
		Webhook: config.WebhookConfig{URL: "https://hooks.example.com"},
	}

	tests := []struct {
		backend string
		want    Notifier
	}{
		{backend: config.BackendLINE, want: &LINENotifier{}},
		{backend: config.BackendDiscord, want: &DiscordNotifier{}},
		{backend: config.BackendWebhook, want: &WebhookNotifier{}},
		{backend: config.BackendNoOp, want: &NoOpNotifier{}},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			t.Parallel()
			cfg := base
			cfg.Backend = tt.backend
			assert.IsType(t, tt.want, New(&cfg, log))
		})
	}
}

func TestNew_LINEUsesConfiguredTimeout(t *testing.T) {
	t.Parallel()

	cfg := config.NotificationsConfig{
		Backend: config.BackendLINE,
		Timeout: 7 * time.Second,
		LINE:    config.LINEConfig{Token: "t"},
	}
	n, ok := New(&cfg, slog.Default()).(*LINENotifier)
	assert.True(t, ok)
	assert.Equal(t, 7*time.Second, n.client.Timeout)
	assert.Equal(t, defaultLINEEndpoint, n.endpoint)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab…", truncate("abcd", 3))
	assert.Equal(t, "予約…", truncate("予約受付", 3))
}
