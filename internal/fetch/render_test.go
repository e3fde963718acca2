package fetch

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/slot-watcher/internal/config"
)

func TestExtractScript(t *testing.T) {
	t.Parallel()

	script, err := extractScript([]string{".ui-datepicker", `table[aria-label*='予約']`})
	require.NoError(t, err)
	assert.Contains(t, script, `[".ui-datepicker","table[aria-label*='予約']"]`)
	assert.Contains(t, script, "outerHTML")
	assert.Contains(t, script, "innerText")

	script, err = extractScript(nil)
	require.NoError(t, err)
	assert.Contains(t, script, "for (const sel of [])")
}

func TestNewRenderer_Defaults(t *testing.T) {
	t.Parallel()

	r, err := NewRenderer(&config.FetchConfig{CalendarSelectors: []string{"#cal"}})
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, defaultRenderTimeout, r.timeout)
	assert.Contains(t, r.script, "#cal")
}

func TestIdleTracker(t *testing.T) {
	t.Parallel()

	tr := newIdleTracker()
	tr.observe(&network.EventRequestWillBeSent{RequestID: "1"})
	tr.observe(&network.EventRequestWillBeSent{RequestID: "2"})
	tr.observe("unrelated event")
	assert.False(t, tr.idle())

	tr.observe(&network.EventLoadingFinished{RequestID: "1"})
	tr.observe(&network.EventLoadingFailed{RequestID: "2"})

	// Idle only after the quiet period.
	assert.False(t, tr.idle())
	assert.True(t, tr.wait(context.Background(), 5*time.Second))
}

func TestIdleTracker_WaitTimesOut(t *testing.T) {
	t.Parallel()

	tr := newIdleTracker()
	tr.observe(&network.EventRequestWillBeSent{RequestID: "long-poll"})

	start := time.Now()
	assert.False(t, tr.wait(context.Background(), 150*time.Millisecond))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestIdleTracker_WaitCanceled(t *testing.T) {
	t.Parallel()

	tr := newIdleTracker()
	tr.observe(&network.EventRequestWillBeSent{RequestID: "x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, tr.wait(ctx, time.Minute))
}
