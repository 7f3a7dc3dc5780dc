package usage

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// DateLayout is the ISO-8601 day format used for snapshot keys and report dates.
const DateLayout = "2006-01-02"

var (
	// ErrNotFound is returned by fetchers when no snapshot exists for a key.
	ErrNotFound = errors.New("snapshot not found")
	// ErrNothingToPublish is returned when a run collected no snapshots.
	ErrNothingToPublish = errors.New("no snapshots collected, nothing to publish")
)

// Mode selects how a snapshot's metric is labelled in the report.
type Mode string

const (
	ModeDaily        Mode = "daily"
	ModeMovingWindow Mode = "moving_window"
)

// ParseMode accepts the config/flag spelling of a mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "daily":
		return ModeDaily, nil
	case "moving_window", "moving-window", "window", "30d":
		return ModeMovingWindow, nil
	}
	return "", fmt.Errorf("unknown mode %q (want daily or moving_window)", s)
}

// Row is one raw line of a snapshot file before normalization.
type Row struct {
	Dataset string
	Users   string
}

// Entry is one dataset's metric inside a snapshot.
type Entry struct {
	Dataset string
	Users   int
}

// Snapshot holds one date's normalized dataset metrics. Entries keep the order
// in which datasets were first seen in the source rows.
type Snapshot struct {
	Date    time.Time
	Entries []Entry
}

// Day returns the snapshot date formatted as YYYY-MM-DD.
func (s Snapshot) Day() string { return s.Date.Format(DateLayout) }

// Total is the sum of all entry metrics.
func (s Snapshot) Total() int {
	total := 0
	for _, e := range s.Entries {
		total += e.Users
	}
	return total
}

// Collection is the set of snapshots gathered for one run, ordered by date.
type Collection struct {
	snapshots []Snapshot
}

// NewCollection sorts snapshots chronologically. When two snapshots share a
// date the first one given wins.
func NewCollection(snaps []Snapshot) Collection {
	out := make([]Snapshot, 0, len(snaps))
	seen := map[string]bool{}
	for _, s := range snaps {
		if seen[s.Day()] {
			continue
		}
		seen[s.Day()] = true
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return Collection{snapshots: out}
}

func (c Collection) Len() int { return len(c.snapshots) }

// Snapshots returns the snapshots in chronological order.
func (c Collection) Snapshots() []Snapshot {
	return append([]Snapshot(nil), c.snapshots...)
}

// Dates returns the collection's dates as YYYY-MM-DD, chronologically.
func (c Collection) Dates() []string {
	res := make([]string, 0, len(c.snapshots))
	for _, s := range c.snapshots {
		res = append(res, s.Day())
	}
	return res
}

// DateRange lists every calendar day in [start, end], inclusive. It returns nil
// when end is before start.
func DateRange(start, end time.Time) []time.Time {
	start = truncateDay(start)
	end = truncateDay(end)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// ObjectKey derives the storage key of a date's snapshot:
// <prefix>_<YYYY-MM-DD>.<ext>.
func ObjectKey(prefix, ext string, day time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, day.Format(DateLayout), ext)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
