package main

import (
	cmdcollect "ee-stats/command/collect"
	cmdweb "ee-stats/command/web"
	"fmt"
	"log/slog"
	"os"
)

// Earth Engine dataset usage aggregator.
// Usage:
//   ee-stats collect [-start 2024-04-23] [-end 2024-06-01] [-mode daily|moving_window] [-out object_stats.json]
//   ee-stats web [-addr :8080] [-report object_stats.json]
// Notes:
// - collect reads one CSV snapshot per day (<prefix>_<YYYY-MM-DD>.csv) from GCS or a local
//   directory and writes totals, rankings, peaks and daily/weekly/monthly trends as JSON.
// - GCS credentials come from GCS_CREDENTIALS_JSON, Application Default Credentials, or
//   anonymous access for public buckets.

func main() {
	args := os.Args
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))

	if len(args) > 1 {
		sub := args[1]
		rest := append([]string{}, args[2:]...)
		switch sub {
		case "collect":
			if err := cmdcollect.Run(rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		case "web":
			if err := cmdweb.Run(rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: ee-stats collect [-start <date>] [-end <date>] [-workers 12] [-mode daily|moving_window] [-out <file>] | web [-addr :8080] [-report <file>]\nENV: set CONFIG_PATH to point to a YAML config file (default ./config.yml)")
	os.Exit(2)
}
