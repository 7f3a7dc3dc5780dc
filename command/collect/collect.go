package collect

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	cfgconn "ee-stats/connectors/config"
	ccsv "ee-stats/connectors/csv"
	"ee-stats/connectors/gcs"
	"ee-stats/connectors/localdir"
	"ee-stats/connectors/report"
	dcfg "ee-stats/domain/config"
	"ee-stats/domain/usage"
)

// now is swapped in tests to pin the default end date.
var now = time.Now

// Run executes the collect subcommand: fetch daily snapshots, aggregate them
// and write the JSON report.
//
// Usage:
//
//	ee-stats collect [-start 2024-04-23] [-end 2024-06-01] [-workers 12] [-mode daily|moving_window]
//	                 [-out object_stats.json] [-source gcs|dir] [-bucket b] [-prefix p] [-dir d] [-csv dir]
//
// Flags override values from the config file (CONFIG_PATH, default ./config.yml).
func Run(args []string) error {
	cfg, err := cfgconn.LoadOptional()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("collect", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	start := fs.String("start", cfg.Collect.StartDate, "first snapshot date (YYYY-MM-DD)")
	end := fs.String("end", cfg.Collect.EndDate, "last snapshot date, inclusive (YYYY-MM-DD, default yesterday UTC)")
	workers := fs.Int("workers", cfg.Collect.Workers, "concurrent fetches")
	timeout := fs.Duration("timeout", cfg.Collect.FetchTimeout, "per-fetch timeout")
	modeFlag := fs.String("mode", cfg.Collect.Mode, "metric semantics: daily or moving_window")
	out := fs.String("out", cfg.Collect.Output, "output JSON path")
	source := fs.String("source", cfg.Source.Type, "snapshot source: gcs or dir")
	bucket := fs.String("bucket", cfg.Source.Bucket, "GCS bucket holding the snapshots")
	prefix := fs.String("prefix", cfg.Source.Prefix, "object key prefix, before _<date>.<ext>")
	dir := fs.String("dir", cfg.Source.Dir, "local snapshot directory when -source=dir")
	csvDir := fs.String("csv", "", "also write rankings.csv and daily_trends.csv into this directory (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mode, err := usage.ParseMode(*modeFlag)
	if err != nil {
		return err
	}
	startDay, endDay, err := resolveRange(*start, *end)
	if err != nil {
		slog.Error("collect.validation.error", "reason", err)
		return err
	}

	ctx := context.Background()
	var fetcher Fetcher
	switch *source {
	case dcfg.SourceGCS:
		gc, err := gcs.NewClient(ctx, *bucket, os.Getenv("GCS_CREDENTIALS_JSON"), cfg.Source.RequestsPerSecond)
		if err != nil {
			return err
		}
		defer gc.Close()
		fetcher = gc
	case dcfg.SourceDir:
		fetcher = localdir.New(*dir)
	default:
		return fmt.Errorf("unknown source %q (want gcs or dir)", *source)
	}

	slog.Info("collect.start", "source", *source, "start", startDay.Format(usage.DateLayout), "end", endDay.Format(usage.DateLayout), "workers", *workers, "mode", mode)

	loader := &Loader{
		Fetcher:       fetcher,
		Prefix:        *prefix,
		Extension:     cfg.Source.Extension,
		DatasetColumn: cfg.Source.DatasetColumn,
		UsersColumn:   cfg.Source.UsersColumn,
		Workers:       *workers,
		Timeout:       *timeout,
	}
	coll, err := loader.Load(ctx, startDay, endDay)
	if err != nil {
		return err
	}
	if coll.Len() == 0 {
		slog.Error("collect.no_data", "start", startDay.Format(usage.DateLayout), "end", endDay.Format(usage.DateLayout))
		return fmt.Errorf("collect: %w", usage.ErrNothingToPublish)
	}

	rep, err := usage.Assemble(usage.Compute(coll, mode))
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	if err := report.WriteJSON(*out, rep); err != nil {
		slog.Error("collect.write.error", "path", *out, "error", err)
		return err
	}
	if *csvDir != "" {
		if err := ccsv.WriteAllCSVs(filepath.Clean(*csvDir), rep); err != nil {
			slog.Warn("collect.csv.write.error", "dir", *csvDir, "error", err)
		}
	}

	slog.Info("collect.done", "snapshots", coll.Len(), "datasets", rep.Summary.TotalDatasets, "growth_rate", rep.Summary.GrowthRate, "output", *out)
	return nil
}

func resolveRange(start, end string) (time.Time, time.Time, error) {
	s, err := time.Parse(usage.DateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid -start %q: %w", start, err)
	}
	var e time.Time
	if end == "" {
		e = now().UTC().AddDate(0, 0, -1)
		e = time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, time.UTC)
	} else if e, err = time.Parse(usage.DateLayout, end); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid -end %q: %w", end, err)
	}
	if e.Before(s) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before start date %s", e.Format(usage.DateLayout), start)
	}
	return s, e, nil
}
