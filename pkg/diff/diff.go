// Package diff compares two slot snapshots and decides whether the
// difference is worth announcing.
package diff

import (
	"fmt"

	domain "github.com/donaldgifford/slot-watcher/pkg/types"
)

// Limit is the maximum number of entries a ChangeSet reports. Entries past
// the limit are counted in ChangeSet.Truncated.
const Limit = 20

// Diff computes the changes from previous to current. Added and changed
// slots follow current order; removed slots follow previous order. When the
// total exceeds Limit, added entries are kept first, then changed, then
// removed.
func Diff(previous, current domain.Snapshot) domain.ChangeSet {
	var (
		added   []domain.Slot
		changed []domain.SlotChange
		removed []domain.Slot
	)

	for _, sl := range current.Slots {
		before, ok := previous.Lookup(sl.Key)
		switch {
		case !ok:
			added = append(added, sl)
		case before != sl.Status:
			changed = append(changed, domain.SlotChange{
				Key:    sl.Key,
				Before: before,
				After:  sl.Status,
			})
		}
	}

	for _, sl := range previous.Slots {
		if _, ok := current.Lookup(sl.Key); !ok {
			removed = append(removed, sl)
		}
	}

	room := Limit
	cs := domain.ChangeSet{
		Added:   take(added, &room),
		Changed: take(changed, &room),
		Removed: take(removed, &room),
	}
	cs.Truncated = len(added) + len(changed) + len(removed) - cs.Len()
	return cs
}

// take returns at most *room leading entries of s and charges them to room.
func take[T any](s []T, room *int) []T {
	n := min(len(s), *room)
	*room -= n
	if n == 0 {
		return nil
	}
	return s[:n]
}

// ShouldNotify reports whether a slot-update notification is due: the
// fingerprint moved and at least one slot can be booked. Losing
// availability never notifies.
func ShouldNotify(previous, current domain.Snapshot) bool {
	if current.IsEmpty() || current.Fingerprint == previous.Fingerprint {
		return false
	}
	return current.HasAvailability()
}

// Summary renders one display line per reported change.
func Summary(cs domain.ChangeSet) []string {
	lines := make([]string, 0, cs.Len()+1)
	for _, sl := range cs.Added {
		lines = append(lines, "【新規】 "+sl.Line())
	}
	for _, ch := range cs.Changed {
		lines = append(lines, fmt.Sprintf("【変更】 %s %s → %s", ch.Key, ch.Before.Symbol(), ch.After.Symbol()))
	}
	for _, sl := range cs.Removed {
		lines = append(lines, "【削除】 "+sl.Line())
	}
	if cs.Truncated > 0 {
		lines = append(lines, fmt.Sprintf("…ほか%d件", cs.Truncated))
	}
	return lines
}
