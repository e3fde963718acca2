package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/slot-watcher/internal/metrics"
)

func TestDiscordNotifier_Send(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		text       string
		statusCode int
		wantErr    bool
		errMsg     string
		wantLen    int
	}{
		{
			name:       "valid message",
			text:       "【速報】予約受付が開始されました！",
			statusCode: http.StatusNoContent,
			wantLen:    utf8.RuneCountInString("【速報】予約受付が開始されました！"),
		},
		{
			name:       "long message is truncated",
			text:       strings.Repeat("○", 2500),
			statusCode: http.StatusNoContent,
			wantLen:    discordContentLimit,
		},
		{
			name:       "rate limited",
			text:       "hello",
			statusCode: http.StatusTooManyRequests,
			wantErr:    true,
			errMsg:     "rate limited",
		},
		{
			name:       "server error",
			text:       "hello",
			statusCode: http.StatusInternalServerError,
			wantErr:    true,
			errMsg:     "discord returned 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got discordWebhookPayload
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				w.WriteHeader(tt.statusCode)
			}))
			defer srv.Close()

			d := NewDiscordNotifier(srv.URL)
			err := d.Send(context.Background(), tt.text)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, utf8.RuneCountInString(got.Content))
		})
	}
}

func TestDiscordNotifier_RateLimitIsDistinct(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewDiscordNotifier(srv.URL).Send(context.Background(), "x")
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestDiscordNotifier_InvalidURL(t *testing.T) {
	t.Parallel()

	d := NewDiscordNotifier("://not-a-valid-url")
	err := d.Send(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating discord request")
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	custom := &http.Client{}
	d := NewDiscordNotifier("https://example.com", WithHTTPClient(custom))
	assert.Same(t, custom, d.client)
}

func notificationSampleCount(t *testing.T, backend string) uint64 {
	t.Helper()
	h, ok := metrics.NotificationDuration.WithLabelValues(backend).(prometheus.Histogram)
	require.True(t, ok)
	pb := &dto.Metric{}
	require.NoError(t, h.Write(pb))
	return pb.GetHistogram().GetSampleCount()
}

func TestSend_ObservesNotificationDuration(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	before := notificationSampleCount(t, "discord")

	require.NoError(t, NewDiscordNotifier(srv.URL).Send(context.Background(), "test"))

	after := notificationSampleCount(t, "discord")
	assert.Greater(t, after, before, "NotificationDuration histogram sample count should increase")
}
