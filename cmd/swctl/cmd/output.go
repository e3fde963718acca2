package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	domain "github.com/donaldgifford/slot-watcher/pkg/types"
)

const timeLayout = "2006-01-02 15:04:05"

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printTargetTable(w io.Writer, targets []domain.TargetStatus) error {
	tw := newTabWriter(w)
	tw.writef("ID\tNAME\tPHASE\tSLOTS\tOPEN\tUPDATED\tNEXT CHECK\n")
	for i := range targets {
		t := &targets[i]
		tw.writef("%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			t.ID,
			truncate(t.Name, 30),
			t.Phase,
			t.SlotCount,
			t.AvailableCount,
			formatTime(t.UpdatedAt),
			formatTime(t.NextCheck),
		)
	}
	return tw.finish()
}

func printTargetDetail(w io.Writer, t *domain.TargetStatus) error {
	tw := newTabWriter(w)
	tw.writef("ID:\t%s\n", t.ID)
	tw.writef("Name:\t%s\n", t.Name)
	tw.writef("URL:\t%s\n", t.URL)
	tw.writef("Phase:\t%s\n", t.Phase)
	if t.Fingerprint != "" {
		tw.writef("Fingerprint:\t%s\n", t.Fingerprint)
	}
	tw.writef("Updated:\t%s\n", formatTime(t.UpdatedAt))
	tw.writef("Next Check:\t%s\n", formatTime(t.NextCheck))
	tw.writef("Slots:\t%d (%d open)\n", t.SlotCount, t.AvailableCount)
	for _, n := range t.Notes {
		tw.writef("Note:\t%s\n", n)
	}
	if len(t.Slots) > 0 {
		tw.writef("\n")
		for _, s := range t.Slots {
			tw.writef("  %s\t%s\t%s\n", s.Key, s.Status.Symbol(), s.Status)
		}
	}
	return tw.finish()
}

func printCheckResult(w io.Writer, r *domain.CheckResult) error {
	tw := newTabWriter(w)
	tw.writef("Target:\t%s\n", r.TargetID)
	tw.writef("Phase:\t%s\n", r.Phase)
	tw.writef("Outcome:\t%s\n", r.Outcome)
	tw.writef("Slots:\t%d\n", r.SlotCount)
	if r.Degraded {
		tw.writef("Degraded:\tyes\n")
	}
	if !r.Changes.IsEmpty() {
		tw.writef("Changes:\t%d changed, %d added, %d removed\n",
			len(r.Changes.Changed), len(r.Changes.Added), len(r.Changes.Removed))
	}
	for _, n := range r.Notifications {
		status := "sent"
		if !n.Delivered {
			status = "failed"
		}
		tw.writef("Notification:\t%s (%s)\n", n.Kind, status)
	}
	if r.Error != "" {
		tw.writef("Error:\t%s\n", r.Error)
	}
	return tw.finish()
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
