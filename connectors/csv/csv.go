package csv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"ee-stats/domain/usage"

	lo "github.com/samber/lo"
)

// ReadSnapshotRows parses one snapshot file. Columns are located by header
// name, case-insensitively; other columns are ignored. A missing metric cell
// is returned as an empty string and normalizes to 0.
func ReadSnapshotRows(data []byte, datasetColumn, usersColumn string) ([]usage.Row, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff"))))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	head, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	idx := indexMap(head)
	di, ok := idx[strings.ToLower(datasetColumn)]
	if !ok {
		return nil, fmt.Errorf("snapshot missing column %s", datasetColumn)
	}
	ui, ok := idx[strings.ToLower(usersColumn)]
	if !ok {
		return nil, fmt.Errorf("snapshot missing column %s", usersColumn)
	}

	var rows []usage.Row
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) <= di {
			continue
		}
		row := usage.Row{Dataset: rec[di]}
		if ui < len(rec) {
			row.Users = rec[ui]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func indexMap(headers []string) map[string]int {
	m := map[string]int{}
	for i, h := range headers {
		m[strings.TrimSpace(strings.ToLower(h))] = i
	}
	return m
}

// WriteAllCSVs writes the rankings and daily trend exports into dir.
func WriteAllCSVs(dir string, rep *usage.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := WriteRankingsCSV(filepath.Join(dir, "rankings.csv"), rep.DatasetRankings); err != nil {
		return err
	}
	return WriteDailyTrendsCSV(filepath.Join(dir, "daily_trends.csv"), rep.DailyTrends)
}

// WriteRankingsCSV writes dataset rankings in rank order.
// Headers: rank, dataset, current_users, avg_users, appearances, std_dev
func WriteRankingsCSV(path string, rankings []usage.RankingEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{"rank", "dataset", "current_users", "avg_users", "appearances", "std_dev"}); err != nil {
		return err
	}
	for _, r := range rankings {
		row := []string{
			strconv.Itoa(r.Rank),
			r.Dataset,
			strconv.Itoa(r.CurrentUsers),
			formatFloat(r.AvgUsers),
			strconv.Itoa(r.Appearances),
			formatFloat(r.StdDev),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteDailyTrendsCSV writes one row per date, chronologically.
func WriteDailyTrendsCSV(path string, trends map[string]usage.DailyTrend) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{"date", "total_users", "datasets", "avg_users"}); err != nil {
		return err
	}
	dates := lo.Keys(trends)
	// YYYY-MM-DD sorts chronologically
	sort.Strings(dates)
	for _, d := range dates {
		t := trends[d]
		row := []string{d, strconv.Itoa(t.TotalUsers), strconv.Itoa(t.Datasets), formatFloat(t.AvgUsers)}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
