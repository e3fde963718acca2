// Package domain defines the core business types for the slot watcher.
package domain

import (
	"strings"
	"time"
)

// Status is the availability of a single reservation slot.
type Status string

// Status constants. The set is closed; parsers map anything they cannot
// classify to StatusUnknown.
const (
	StatusAvailable   Status = "available"
	StatusAlmostFull  Status = "almost-full"
	StatusFull        Status = "full"
	StatusUnavailable Status = "unavailable"
	StatusUnknown     Status = "unknown"
)

// Symbol returns the calendar glyph the reservation site uses for s.
func (s Status) Symbol() string {
	switch s {
	case StatusAvailable:
		return "○"
	case StatusAlmostFull:
		return "△"
	case StatusFull:
		return "×"
	case StatusUnavailable:
		return "-"
	default:
		return "?"
	}
}

// Open reports whether a slot with this status can still be booked.
func (s Status) Open() bool {
	return s == StatusAvailable || s == StatusAlmostFull
}

// Valid reports whether s is one of the known status constants.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusAlmostFull, StatusFull, StatusUnavailable, StatusUnknown:
		return true
	}
	return false
}

// Slot is a bookable date or period and its status.
type Slot struct {
	Key    string `json:"key"`
	Status Status `json:"status"`
}

// Line renders the slot as "<key> <symbol>".
func (s Slot) Line() string {
	return s.Key + " " + s.Status.Symbol()
}

// Snapshot is the ordered set of slots observed in one cycle.
// Fingerprint is the hex digest of Raw, the normalized slot text.
type Snapshot struct {
	Slots       []Slot `json:"slots"`
	Fingerprint string `json:"fingerprint"`
	Raw         string `json:"raw"`
}

// Len returns the number of slots.
func (s Snapshot) Len() int { return len(s.Slots) }

// IsEmpty reports whether no slots were extracted.
func (s Snapshot) IsEmpty() bool { return len(s.Slots) == 0 }

// Lookup returns the status for key.
func (s Snapshot) Lookup(key string) (Status, bool) {
	for _, sl := range s.Slots {
		if sl.Key == key {
			return sl.Status, true
		}
	}
	return "", false
}

// HasAvailability reports whether any slot is available or almost full.
func (s Snapshot) HasAvailability() bool {
	for _, sl := range s.Slots {
		if sl.Status.Open() {
			return true
		}
	}
	return false
}

// Available returns the slots that can still be booked.
func (s Snapshot) Available() []Slot {
	return s.filter(Status.Open)
}

// Full returns the slots that are fully booked.
func (s Snapshot) Full() []Slot {
	return s.filter(func(st Status) bool { return st == StatusFull })
}

func (s Snapshot) filter(keep func(Status) bool) []Slot {
	var out []Slot
	for _, sl := range s.Slots {
		if keep(sl.Status) {
			out = append(out, sl)
		}
	}
	return out
}

// Text renders the snapshot as one slot line per row.
func (s Snapshot) Text() string {
	lines := make([]string, 0, len(s.Slots))
	for _, sl := range s.Slots {
		lines = append(lines, sl.Line())
	}
	return strings.Join(lines, "\n")
}

// Phase is the coarse campaign state of a monitored target.
type Phase string

// Phase constants. The only transition is PhaseUnopened to PhaseOpened.
const (
	PhaseUnopened Phase = "unopened"
	PhaseOpened   Phase = "opened"
)

// MonitorState is the persisted record for one target.
type MonitorState struct {
	TargetID    string    `json:"target_id"`
	Phase       Phase     `json:"phase"`
	Fingerprint string    `json:"fingerprint"`
	Raw         string    `json:"raw_snapshot_text"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewMonitorState returns the initial state for a target that has never
// been checked.
func NewMonitorState(targetID string) *MonitorState {
	return &MonitorState{TargetID: targetID, Phase: PhaseUnopened}
}

// Opened reports whether the target has ever been seen accepting reservations.
func (m *MonitorState) Opened() bool {
	return m.Phase == PhaseOpened
}

// SlotChange is a slot whose status differs between two snapshots.
type SlotChange struct {
	Key    string `json:"key"`
	Before Status `json:"before"`
	After  Status `json:"after"`
}

// ChangeSet is the categorized difference between two snapshots.
// Truncated counts entries dropped by the display limit.
type ChangeSet struct {
	Added     []Slot       `json:"added"`
	Changed   []SlotChange `json:"changed"`
	Removed   []Slot       `json:"removed"`
	Truncated int          `json:"truncated"`
}

// Len returns the number of reported entries.
func (c ChangeSet) Len() int {
	return len(c.Added) + len(c.Changed) + len(c.Removed)
}

// IsEmpty reports whether no differences were reported or dropped.
func (c ChangeSet) IsEmpty() bool {
	return c.Len() == 0 && c.Truncated == 0
}

// NotificationKind identifies which message template was sent.
type NotificationKind string

// Notification kinds.
const (
	NotifyFirstOpened NotificationKind = "first-opened"
	NotifySlotUpdate  NotificationKind = "slot-update"
	NotifyError       NotificationKind = "error"
	NotifyTest        NotificationKind = "test"
)

// NotificationEvent records one dispatch decision. It is never persisted.
type NotificationEvent struct {
	Kind      NotificationKind `json:"kind"`
	Body      string           `json:"body"`
	Delivered bool             `json:"delivered"`
	Err       error            `json:"-"`
}

// TargetStatus is the API view of one monitored target.
type TargetStatus struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	URL            string     `json:"url"`
	Phase          Phase      `json:"phase"`
	Fingerprint    string     `json:"fingerprint,omitempty"`
	SlotCount      int        `json:"slot_count"`
	AvailableCount int        `json:"available_count"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
	NextCheck      *time.Time `json:"next_check,omitempty"`
	Notes          []string   `json:"notes,omitempty"`
	Slots          []Slot     `json:"slots,omitempty"`
}

// CheckResult is the API view of a manually triggered poll cycle. Error is
// set when the cycle failed after reaching the page.
type CheckResult struct {
	TargetID      string              `json:"target_id"`
	Phase         Phase               `json:"phase"`
	Outcome       string              `json:"outcome"`
	Degraded      bool                `json:"degraded"`
	Notifications []NotificationEvent `json:"notifications"`
	Changes       ChangeSet           `json:"changes"`
	SlotCount     int                 `json:"slot_count"`
	Error         string              `json:"error,omitempty"`
}
