package collect

import (
	"context"
	"errors"
	"log/slog"
	"time"

	ccsv "ee-stats/connectors/csv"
	"ee-stats/domain/usage"

	"golang.org/x/sync/errgroup"
)

const progressEvery = 50

// Fetcher returns the raw content stored under key, or an error wrapping
// usage.ErrNotFound when nothing is stored there.
type Fetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// Loader fetches one snapshot per date and collects them into a Collection.
type Loader struct {
	Fetcher       Fetcher
	Prefix        string
	Extension     string
	DatasetColumn string
	UsersColumn   string
	Workers       int
	Timeout       time.Duration
}

type fetchResult struct {
	snap usage.Snapshot
	ok   bool
}

// Load fetches every date in [start, end]. Missing, empty and failed dates are
// skipped; the collection is ordered by date whatever the completion order.
func (l *Loader) Load(ctx context.Context, start, end time.Time) (usage.Collection, error) {
	days := usage.DateRange(start, end)
	results := make(chan fetchResult)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(l.Workers, 1))
	go func() {
		for _, d := range days {
			g.Go(func() error {
				snap, ok := l.fetchOne(gctx, d)
				results <- fetchResult{snap: snap, ok: ok}
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	var snaps []usage.Snapshot
	done := 0
	for r := range results {
		done++
		if r.ok {
			snaps = append(snaps, r.snap)
		}
		if done%progressEvery == 0 {
			slog.Info("collect.progress", "done", done, "total", len(days), "collected", len(snaps))
		}
	}
	if err := ctx.Err(); err != nil {
		return usage.Collection{}, err
	}
	return usage.NewCollection(snaps), nil
}

func (l *Loader) fetchOne(ctx context.Context, day time.Time) (usage.Snapshot, bool) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}
	date := day.Format(usage.DateLayout)
	key := usage.ObjectKey(l.Prefix, l.Extension, day)

	data, err := l.Fetcher.Fetch(ctx, key)
	if err != nil {
		if errors.Is(err, usage.ErrNotFound) {
			slog.Debug("collect.fetch.missing", "date", date, "key", key)
		} else {
			slog.Warn("collect.fetch.error", "date", date, "key", key, "error", err)
		}
		return usage.Snapshot{}, false
	}
	rows, err := ccsv.ReadSnapshotRows(data, l.DatasetColumn, l.UsersColumn)
	if err != nil {
		slog.Warn("collect.parse.error", "date", date, "key", key, "error", err)
		return usage.Snapshot{}, false
	}
	snap := usage.Normalize(day, rows)
	if len(snap.Entries) == 0 {
		slog.Debug("collect.fetch.empty", "date", date, "key", key)
		return usage.Snapshot{}, false
	}
	return snap, true
}
