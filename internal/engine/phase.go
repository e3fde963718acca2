package engine

import (
	"strings"
	"time"

	"github.com/donaldgifford/slot-watcher/pkg/diff"
	"github.com/donaldgifford/slot-watcher/pkg/fingerprint"
	"github.com/donaldgifford/slot-watcher/pkg/slots"
	domain "github.com/donaldgifford/slot-watcher/pkg/types"
)

// gate is the outcome of checking the light page for the not-accepting marker.
type gate int

const (
	// gateWaiting: marker present and the target has never opened.
	gateWaiting gate = iota
	// gateMarkerReturned: marker present again after the target opened.
	// The phase never goes back, so the cycle is a no-op.
	gateMarkerReturned
	// gateFirstOpened: marker gone for the first time.
	gateFirstOpened
	// gateOpen: target already opened (or has no marker at all).
	gateOpen
)

func (g gate) String() string {
	switch g {
	case gateWaiting:
		return "waiting"
	case gateMarkerReturned:
		return "marker_returned"
	case gateFirstOpened:
		return "first_opened"
	default:
		return "open"
	}
}

// evaluateGate classifies light page content against the previous state.
func evaluateGate(prev *domain.MonitorState, marker, light string) gate {
	present := marker != "" && strings.Contains(light, marker)
	switch {
	case present && prev.Opened():
		return gateMarkerReturned
	case present:
		return gateWaiting
	case prev.Opened():
		return gateOpen
	default:
		return gateFirstOpened
	}
}

// waitingState is persisted while the page still shows the marker. The
// fingerprint tracks the light page so operators can see it changing; no
// slot text exists yet.
func waitingState(prev *domain.MonitorState, light string, now time.Time) *domain.MonitorState {
	return &domain.MonitorState{
		TargetID:    prev.TargetID,
		Phase:       domain.PhaseUnopened,
		Fingerprint: fingerprint.Of(light),
		UpdatedAt:   now,
	}
}

// step is the result of folding one rendered snapshot into the state.
type step struct {
	next     *domain.MonitorState
	previous domain.Snapshot
	changes  domain.ChangeSet
	notify   bool
	degraded bool
}

// previousSnapshot rebuilds the last persisted snapshot. The stored
// fingerprint wins over the re-parsed one: while unopened it is the light
// page digest, which must still count as "different" from the first
// calendar.
func previousSnapshot(prev *domain.MonitorState) domain.Snapshot {
	snap := slots.Parse(prev.Raw)
	snap.Fingerprint = prev.Fingerprint
	return snap
}

// advance applies a rendered snapshot. The result is always opened; an
// empty snapshot keeps the previous fingerprint and slot text.
func advance(prev *domain.MonitorState, current domain.Snapshot, now time.Time) step {
	previous := previousSnapshot(prev)

	if current.IsEmpty() {
		return step{
			next:     degradedState(prev, now),
			previous: previous,
			degraded: true,
		}
	}

	return step{
		next: &domain.MonitorState{
			TargetID:    prev.TargetID,
			Phase:       domain.PhaseOpened,
			Fingerprint: current.Fingerprint,
			Raw:         current.Raw,
			UpdatedAt:   now,
		},
		previous: previous,
		changes:  diff.Diff(previous, current),
		notify:   diff.ShouldNotify(previous, current),
	}
}

// degradedState marks the target opened without touching its snapshot.
func degradedState(prev *domain.MonitorState, now time.Time) *domain.MonitorState {
	next := *prev
	next.Phase = domain.PhaseOpened
	next.UpdatedAt = now
	return &next
}
