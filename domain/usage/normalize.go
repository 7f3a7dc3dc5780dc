package usage

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// assetSuffix matches the asset-count suffix some dataset names carry,
// e.g. "COPERNICUS/S2/[1200 assets]".
var assetSuffix = regexp.MustCompile(`/\[\d+\s+assets\]$`)

// NormalizeDataset strips a trailing "/[<n> assets]" suffix from a dataset name.
func NormalizeDataset(name string) string {
	return assetSuffix.ReplaceAllString(strings.TrimSpace(name), "")
}

// ParseUsers coerces a raw metric cell to a non-negative integer. Empty,
// negative, unparseable and out-of-range values become 0.
func ParseUsers(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err == nil {
		return max(n, 0)
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0
	}
	// some exports float-format the counts ("12.0")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || f < 0 || f >= math.MaxInt64 {
		return 0
	}
	return int(f)
}

// Normalize turns one date's raw rows into a Snapshot. Rows whose names collide
// after suffix stripping are summed; rows without a dataset name are dropped.
func Normalize(day time.Time, rows []Row) Snapshot {
	snap := Snapshot{Date: truncateDay(day)}
	pos := map[string]int{}
	for _, r := range rows {
		name := NormalizeDataset(r.Dataset)
		if name == "" {
			continue
		}
		users := ParseUsers(r.Users)
		if i, ok := pos[name]; ok {
			snap.Entries[i].Users += users
			continue
		}
		pos[name] = len(snap.Entries)
		snap.Entries = append(snap.Entries, Entry{Dataset: name, Users: users})
	}
	return snap
}
