package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/slot-watcher/pkg/fingerprint"
	"github.com/donaldgifford/slot-watcher/pkg/slots"
	domain "github.com/donaldgifford/slot-watcher/pkg/types"
)

func TestEvaluateGate(t *testing.T) {
	t.Parallel()

	unopened := domain.NewMonitorState("a")
	opened := &domain.MonitorState{TargetID: "a", Phase: domain.PhaseOpened}

	tests := []struct {
		name   string
		prev   *domain.MonitorState
		marker string
		light  string
		want   gate
	}{
		{name: "marker shown, never opened", prev: unopened, marker: testMarker, light: closedPage, want: gateWaiting},
		{name: "marker gone, never opened", prev: unopened, marker: testMarker, light: openPage, want: gateFirstOpened},
		{name: "marker gone, already opened", prev: opened, marker: testMarker, light: openPage, want: gateOpen},
		{name: "marker back after opening", prev: opened, marker: testMarker, light: closedPage, want: gateMarkerReturned},
		{name: "no marker configured", prev: unopened, marker: "", light: closedPage, want: gateFirstOpened},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, evaluateGate(tt.prev, tt.marker, tt.light))
		})
	}
}

func TestGate_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "waiting", gateWaiting.String())
	assert.Equal(t, "marker_returned", gateMarkerReturned.String())
	assert.Equal(t, "first_opened", gateFirstOpened.String())
	assert.Equal(t, "open", gateOpen.String())
}

func TestWaitingState(t *testing.T) {
	t.Parallel()

	prev := &domain.MonitorState{TargetID: "a", Phase: domain.PhaseUnopened, Fingerprint: "old"}
	next := waitingState(prev, closedPage, testNow)

	assert.Equal(t, domain.PhaseUnopened, next.Phase)
	assert.Equal(t, fingerprint.Of(closedPage), next.Fingerprint)
	assert.Empty(t, next.Raw)
	assert.Equal(t, testNow, next.UpdatedAt)
	assert.Equal(t, "old", prev.Fingerprint, "previous state must not be mutated")
}

func TestAdvance(t *testing.T) {
	t.Parallel()

	prevSnap := slots.Parse("9/1 ○\n9/2 ×")
	opened := &domain.MonitorState{
		TargetID:    "a",
		Phase:       domain.PhaseOpened,
		Fingerprint: prevSnap.Fingerprint,
		Raw:         prevSnap.Raw,
	}

	tests := []struct {
		name         string
		prev         *domain.MonitorState
		current      string
		wantNotify   bool
		wantDegraded bool
		wantChanges  int
	}{
		{
			name:        "first calendar after waiting",
			prev:        &domain.MonitorState{TargetID: "a", Phase: domain.PhaseUnopened, Fingerprint: fingerprint.Of(closedPage)},
			current:     "9/1 ○",
			wantNotify:  true,
			wantChanges: 1,
		},
		{
			name:    "unchanged calendar",
			prev:    opened,
			current: "9/1 ○\n9/2 ×",
		},
		{
			name:        "slot freed up",
			prev:        opened,
			current:     "9/1 ○\n9/2 △",
			wantNotify:  true,
			wantChanges: 1,
		},
		{
			name:        "everything full",
			prev:        opened,
			current:     "9/1 ×\n9/2 ×",
			wantChanges: 1,
		},
		{
			name:         "nothing extracted",
			prev:         opened,
			current:      "",
			wantDegraded: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			current := slots.Parse(tt.current)
			st := advance(tt.prev, current, testNow)

			require.NotNil(t, st.next)
			assert.Equal(t, domain.PhaseOpened, st.next.Phase)
			assert.Equal(t, testNow, st.next.UpdatedAt)
			assert.Equal(t, tt.wantNotify, st.notify)
			assert.Equal(t, tt.wantDegraded, st.degraded)
			assert.Equal(t, tt.wantChanges, st.changes.Len())

			if tt.wantDegraded {
				assert.Equal(t, tt.prev.Fingerprint, st.next.Fingerprint)
				assert.Equal(t, tt.prev.Raw, st.next.Raw)
				return
			}
			assert.Equal(t, current.Fingerprint, st.next.Fingerprint)
			assert.Equal(t, current.Raw, st.next.Raw)
		})
	}
}

func TestAdvance_PhaseIsMonotonic(t *testing.T) {
	t.Parallel()

	st := domain.NewMonitorState("a")
	inputs := []string{"9/1 ○", "", "9/1 ×", "", "ご案内のみ", "9/2 △"}
	for _, in := range inputs {
		st = advance(st, slots.Parse(in), testNow).next
		require.Equal(t, domain.PhaseOpened, st.Phase, "after %q", in)
	}
	assert.Equal(t, "9/2 △", st.Raw)
}

func TestPreviousSnapshot_UsesStoredFingerprint(t *testing.T) {
	t.Parallel()

	prev := &domain.MonitorState{TargetID: "a", Fingerprint: "light-digest"}
	snap := previousSnapshot(prev)

	assert.True(t, snap.IsEmpty())
	assert.Equal(t, "light-digest", snap.Fingerprint)
}

func TestDegradedState(t *testing.T) {
	t.Parallel()

	prev := &domain.MonitorState{TargetID: "a", Phase: domain.PhaseUnopened, Fingerprint: "fp", Raw: ""}
	next := degradedState(prev, testNow)

	assert.Equal(t, domain.PhaseOpened, next.Phase)
	assert.Equal(t, "fp", next.Fingerprint)
	assert.Equal(t, domain.PhaseUnopened, prev.Phase)
}
