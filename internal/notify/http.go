package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/donaldgifford/slot-watcher/internal/metrics"
)

// ErrRateLimited is returned when a transport answers 429.
var ErrRateLimited = errors.New("rate limited (429)")

// postJSON sends payload to url and treats any non-2xx answer as an error.
// backend labels errors and the duration metric.
func postJSON(
	ctx context.Context,
	client *http.Client,
	backend string,
	url string,
	headers map[string]string,
	payload any,
) error {
	start := time.Now()
	defer func() {
		metrics.NotificationDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling %s payload: %w", backend, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", backend, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sending %s request: %w", backend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w", backend, ErrRateLimited)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr != nil {
			return fmt.Errorf("%s returned %d (body unreadable)", backend, resp.StatusCode)
		}
		return fmt.Errorf("%s returned %d: %s", backend, resp.StatusCode, respBody)
	}

	return nil
}
