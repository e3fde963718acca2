package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/donaldgifford/slot-watcher/internal/config"
	"github.com/donaldgifford/slot-watcher/pkg/diff"
	"github.com/donaldgifford/slot-watcher/pkg/slots"
	domain "github.com/donaldgifford/slot-watcher/pkg/types"
)

const (
	// TimeLayout is the timestamp format used in message bodies.
	TimeLayout = "2006-01-02 15:04:05"

	maxAvailableLines = 15
	maxFullLines      = 10

	legend     = "○：余裕あり △：まもなく満席 ×：満席"
	testPrefix = "【⚠️テスト】"
)

// Page identifies the watched page in message bodies.
type Page struct {
	Name  string
	URL   string
	Notes []string
}

// PageOf describes a configured target for message bodies.
func PageOf(t config.Target) Page {
	return Page{Name: t.DisplayName(), URL: t.URL, Notes: t.Notes}
}

// FirstOpenedMessage announces that the page started accepting reservations.
func FirstOpenedMessage(p Page, at time.Time) string {
	return firstOpened(p, at, "", nil)
}

// SlotUpdateMessage reports the current calendar. first selects the
// 予約枠情報 header used right after opening; later updates use 予約枠更新
// and list the changes.
func SlotUpdateMessage(p Page, snap domain.Snapshot, cs domain.ChangeSet, first bool, at time.Time) string {
	return slotUpdate(p, snap, cs, first, at, "", nil)
}

// ErrorMessage reports a cycle that gave up after exhausting its retries.
func ErrorMessage(p Page, err error, at time.Time) string {
	return strings.Join([]string{
		"【監視エラー】" + p.Name,
		at.Format(TimeLayout),
		"",
		fmt.Sprintf("エラー: %v", err),
		"",
		"監視システムが正常に動作していません。",
		"",
		"次回のチェックで再試行されます。",
	}, "\n")
}

// TestMessage is the operator connectivity check.
func TestMessage(p Page, at time.Time) string {
	return strings.Join([]string{
		"【テスト通知】" + p.Name + " 監視システム",
		"",
		"この通知は疎通確認用のテストメッセージです。",
		"通知が正常に動作しています。",
		"",
		"対象URL: " + p.URL,
		"送信時刻: " + at.Format(TimeLayout),
	}, "\n")
}

// SimulatedFirstOpenedMessage is FirstOpenedMessage marked as a drill.
func SimulatedFirstOpenedMessage(p Page, at time.Time) string {
	return firstOpened(p, at, testPrefix, []string{
		"※これはシミュレーションです（実際の受付開始ではありません）",
	})
}

// SimulatedUpdateMessage is a first calendar message built from
// SimulationSnapshot and marked as a drill.
func SimulatedUpdateMessage(p Page, at time.Time) string {
	return slotUpdate(p, SimulationSnapshot(), domain.ChangeSet{}, true, at, testPrefix, []string{
		"",
		"※これはシミュレーションです（ダミーデータ）",
	})
}

// SimulationSnapshot is the dummy calendar used by simulated notifications.
func SimulationSnapshot() domain.Snapshot {
	return slots.New([]domain.Slot{
		{Key: "3月 8日", Status: domain.StatusAvailable},
		{Key: "3月 9日", Status: domain.StatusAlmostFull},
		{Key: "3月 15日", Status: domain.StatusFull},
		{Key: "3月 16日", Status: domain.StatusAvailable},
		{Key: "3月 22日", Status: domain.StatusFull},
	})
}

func firstOpened(p Page, at time.Time, prefix string, extra []string) string {
	lines := []string{
		prefix + "【速報】" + p.Name,
		"予約受付が開始されました！",
		"",
		"今すぐアクセスしてください！",
		p.URL,
		"",
	}
	lines = append(lines, p.Notes...)
	lines = append(lines, "検知時刻: "+at.Format(TimeLayout), "")
	lines = append(lines, extra...)
	lines = append(lines, "※アクセス集中の可能性があります")
	return strings.Join(lines, "\n")
}

func slotUpdate(
	p Page,
	snap domain.Snapshot,
	cs domain.ChangeSet,
	first bool,
	at time.Time,
	prefix string,
	footer []string,
) string {
	header := "【予約枠更新】"
	if first {
		header = "【予約枠情報】"
	}
	lines := []string{prefix + header + p.Name, ""}

	if !first && !cs.IsEmpty() {
		lines = append(lines, "▼ 変更点:")
		lines = append(lines, diff.Summary(cs)...)
		lines = append(lines, "")
	}

	lines = append(lines, "▼ 現在の空き状況:", legend, "")

	if avail := snap.Available(); len(avail) > 0 {
		lines = append(lines, "【空きあり】")
		lines = append(lines, slotLines(avail, maxAvailableLines)...)
	} else {
		lines = append(lines, "現在、空き枠はありません")
	}

	full := snap.Full()
	if len(full) > 0 {
		lines = append(lines, "", "【満席】")
		lines = append(lines, slotLines(full, maxFullLines)...)
	}

	// The change list is capped, so the whole calendar is listed whenever
	// the sections above leave a slot out.
	shown := min(len(snap.Available()), maxAvailableLines) + min(len(full), maxFullLines)
	if shown < snap.Len() {
		lines = append(lines, "", "【全日程】", snap.Text())
	}

	lines = append(lines,
		"",
		"URL: "+p.URL,
		"確認時刻: "+at.Format(TimeLayout),
	)
	lines = append(lines, footer...)
	return strings.Join(lines, "\n")
}

func slotLines(ss []domain.Slot, limit int) []string {
	out := make([]string, 0, min(len(ss), limit)+1)
	for i, sl := range ss {
		if i == limit {
			out = append(out, fmt.Sprintf("…ほか%d件", len(ss)-limit))
			break
		}
		out = append(out, sl.Line())
	}
	return out
}
