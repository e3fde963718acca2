// Package slots converts extracted reservation page content into a
// snapshot of slot statuses.
//
// Parse accepts either the outer HTML of a rendered calendar or plain page
// text. HTML calendars are read cell by cell using their status classes;
// anything else goes through a line filter that keeps date-like and
// status-bearing lines. Parsing never fails: unusable input yields an empty
// snapshot, which callers must treat as "extraction failed".
package slots

import (
	"regexp"
	"strings"

	"github.com/donaldgifford/slot-watcher/pkg/fingerprint"
	domain "github.com/donaldgifford/slot-watcher/pkg/types"
)

// UnknownMonth labels cells whose calendar carries no month header.
const UnknownMonth = "不明"

var dateLike = regexp.MustCompile(`\d+\s*月|\d+\s*日|\d{1,2}/\d{1,2}|20\d{2}\s*[-/年]`)

// statusTokens are exact whole-token matches, including the "?" symbol the
// snapshot text uses for unknown so persisted snapshots parse back cleanly.
var statusTokens = map[string]domain.Status{
	"○":    domain.StatusAvailable,
	"◯":    domain.StatusAvailable,
	"〇":    domain.StatusAvailable,
	"△":    domain.StatusAlmostFull,
	"×":    domain.StatusFull,
	"✕":    domain.StatusFull,
	"-":    domain.StatusUnavailable,
	"－":    domain.StatusUnavailable,
	"?":    domain.StatusUnknown,
	"余裕":   domain.StatusAvailable,
	"空き":   domain.StatusAvailable,
	"受付中":  domain.StatusAvailable,
	"残りわずか": domain.StatusAlmostFull,
	"満席":   domain.StatusFull,
	"受付終了": domain.StatusFull,
}

// statusWords are substring matches, longest first so that "まもなく満席"
// is not read as "満席".
var statusWords = []struct {
	word   string
	status domain.Status
}{
	{"まもなく満席", domain.StatusAlmostFull},
	{"残りわずか", domain.StatusAlmostFull},
	{"受付終了", domain.StatusFull},
	{"受付中", domain.StatusAvailable},
	{"満席", domain.StatusFull},
	{"余裕", domain.StatusAvailable},
	{"空き", domain.StatusAvailable},
	{"○", domain.StatusAvailable},
	{"△", domain.StatusAlmostFull},
	{"×", domain.StatusFull},
}

// Parse converts raw page content into a snapshot.
func Parse(raw string) domain.Snapshot {
	if strings.TrimSpace(raw) == "" {
		return domain.Snapshot{}
	}
	if looksLikeHTML(raw) {
		if snap, ok := ParseHTML(raw); ok {
			return snap
		}
		return ParseLines(strings.Join(htmlLines(raw), "\n"))
	}
	return ParseLines(raw)
}

// ParseLines applies the line-filter heuristic to plain text.
func ParseLines(text string) domain.Snapshot {
	var slots []domain.Slot
	for _, line := range strings.Split(text, "\n") {
		if sl, ok := parseLine(line); ok {
			slots = append(slots, sl)
		}
	}
	return New(slots)
}

// New builds a snapshot from slots, merging duplicate keys in place (the
// first position is kept, the last status wins) and fingerprinting the
// normalized text.
func New(slots []domain.Slot) domain.Snapshot {
	if len(slots) == 0 {
		return domain.Snapshot{}
	}

	index := make(map[string]int, len(slots))
	merged := make([]domain.Slot, 0, len(slots))
	for _, sl := range slots {
		if i, dup := index[sl.Key]; dup {
			merged[i].Status = sl.Status
			continue
		}
		index[sl.Key] = len(merged)
		merged = append(merged, sl)
	}

	snap := domain.Snapshot{Slots: merged}
	snap.Raw = snap.Text()
	snap.Fingerprint = fingerprint.Sum(snap.Raw)
	return snap
}

// StatusOf classifies a single whitespace-delimited token.
func StatusOf(token string) (domain.Status, bool) {
	st, ok := statusTokens[strings.TrimSpace(token)]
	return st, ok
}

func parseLine(line string) (domain.Slot, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return domain.Slot{}, false
	}
	normalized := strings.Join(fields, " ")
	hasDate := dateLike.MatchString(normalized)

	// "period day status": the key is everything before the status token.
	if len(fields) > 1 {
		if st, ok := StatusOf(fields[len(fields)-1]); ok {
			key := strings.Join(fields[:len(fields)-1], " ")
			if !hasDate && st != domain.StatusUnknown {
				return domain.Slot{Key: normalized, Status: domain.StatusUnknown}, true
			}
			return domain.Slot{Key: key, Status: st}, true
		}
	}

	for _, w := range statusWords {
		if !strings.Contains(normalized, w.word) {
			continue
		}
		if !hasDate {
			return domain.Slot{Key: normalized, Status: domain.StatusUnknown}, true
		}
		key := strings.Join(strings.Fields(strings.Replace(normalized, w.word, " ", 1)), " ")
		if key == "" {
			key = normalized
		}
		return domain.Slot{Key: key, Status: w.status}, true
	}

	if hasDate {
		return domain.Slot{Key: normalized, Status: domain.StatusUnknown}, true
	}
	return domain.Slot{}, false
}

func looksLikeHTML(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return strings.HasPrefix(trimmed, "<") && strings.Contains(trimmed, ">")
}
