package usage

import "math"

// Report is the JSON document consumed by the dashboard. Exactly one of
// DailyData/WindowData and one of PeakDate/PeakWindow is set, depending on
// the mode.
type Report struct {
	DailyData       map[string]map[string]int `json:"daily_data,omitempty"`
	WindowData      map[string]map[string]int `json:"rolling_30d_data,omitempty"`
	Summary         Summary                   `json:"summary"`
	Peaks           Peaks                     `json:"peaks"`
	DatasetRankings []RankingEntry            `json:"dataset_rankings"`
	DailyTrends     map[string]DailyTrend     `json:"daily_trends"`
	WeeklyTrends    map[string]PeriodTrend    `json:"weekly_trends"`
	MonthlyTrends   map[string]PeriodTrend    `json:"monthly_trends"`
}

type Summary struct {
	Mode               Mode     `json:"mode"`
	Metric             string   `json:"metric"`
	TotalDatasets      int      `json:"total_datasets"`
	TotalSnapshots     int      `json:"total_snapshots"`
	TotalUsers         int      `json:"total_users"`
	LatestTotalUsers   int      `json:"latest_total_users"`
	AvgUsersPerDataset float64  `json:"avg_users_per_dataset"`
	DateRange          DateSpan `json:"date_range"`
	GrowthRate         float64  `json:"growth_rate"`
}

type DateSpan struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Peaks struct {
	PeakDate    *PeakDay     `json:"peak_date,omitempty"`
	PeakWindow  *PeakDay     `json:"peak_window,omitempty"`
	PeakDataset *PeakDataset `json:"peak_dataset,omitempty"`
}

type PeakDay struct {
	Date       string `json:"date"`
	TotalUsers int    `json:"total_users"`
}

type PeakDataset struct {
	Dataset string `json:"dataset"`
	Users   int    `json:"users"`
}

type RankingEntry struct {
	Rank         int     `json:"rank"`
	Dataset      string  `json:"dataset"`
	CurrentUsers int     `json:"current_users"`
	AvgUsers     float64 `json:"avg_users"`
	Appearances  int     `json:"appearances"`
	StdDev       float64 `json:"std_dev"`
}

type DailyTrend struct {
	TotalUsers int     `json:"total_users"`
	Datasets   int     `json:"datasets"`
	AvgUsers   float64 `json:"avg_users"`
}

// PeriodTrend is shared by weekly and monthly trends; StdDev is only reported
// for months.
type PeriodTrend struct {
	TotalUsers     int      `json:"total_users"`
	AvgUsers       float64  `json:"avg_users"`
	UniqueDatasets int      `json:"unique_datasets"`
	Days           int      `json:"days"`
	StdDev         *float64 `json:"std_dev,omitempty"`
	StartDate      string   `json:"start_date"`
	EndDate        string   `json:"end_date"`
}

// MetricLabel names the metric a mode's snapshots carry.
func MetricLabel(m Mode) string {
	if m == ModeMovingWindow {
		return "users_30d"
	}
	return "users"
}

// Assemble reshapes an Aggregate into a Report. It returns ErrNothingToPublish
// for an empty aggregate.
func Assemble(a Aggregate) (*Report, error) {
	if a.Empty() {
		return nil, ErrNothingToPublish
	}

	r := &Report{
		Summary: Summary{
			Mode:               a.Mode,
			Metric:             MetricLabel(a.Mode),
			TotalDatasets:      a.TotalDatasets,
			TotalSnapshots:     len(a.Dates),
			TotalUsers:         a.TotalUsers,
			LatestTotalUsers:   a.LatestTotal,
			AvgUsersPerDataset: round2(safeDiv(float64(a.TotalUsers), float64(a.TotalDatasets))),
			DateRange:          DateSpan{Start: a.Dates[0], End: a.Dates[len(a.Dates)-1]},
			GrowthRate:         round2(a.GrowthRate),
		},
		DatasetRankings: make([]RankingEntry, 0, len(a.Rankings)),
		DailyTrends:     make(map[string]DailyTrend, len(a.Daily)),
		WeeklyTrends:    make(map[string]PeriodTrend, len(a.Weekly)),
		MonthlyTrends:   make(map[string]PeriodTrend, len(a.Monthly)),
	}

	peakDay := &PeakDay{Date: a.PeakDate, TotalUsers: a.PeakDateTotal}
	if a.Mode == ModeMovingWindow {
		r.WindowData = a.PerDate
		r.Peaks.PeakWindow = peakDay
	} else {
		r.DailyData = a.PerDate
		r.Peaks.PeakDate = peakDay
	}
	if a.PeakDataset != "" {
		r.Peaks.PeakDataset = &PeakDataset{Dataset: a.PeakDataset, Users: a.PeakDatasetUsers}
	}

	for _, rk := range a.Rankings {
		r.DatasetRankings = append(r.DatasetRankings, RankingEntry{
			Rank:         rk.Rank,
			Dataset:      rk.Dataset,
			CurrentUsers: rk.Latest,
			AvgUsers:     round2(rk.Average),
			Appearances:  rk.Appearances,
			StdDev:       round2(rk.StdDev),
		})
	}
	for _, d := range a.Daily {
		r.DailyTrends[d.Date] = DailyTrend{TotalUsers: d.Total, Datasets: d.Datasets, AvgUsers: round2(d.Average)}
	}
	for _, w := range a.Weekly {
		r.WeeklyTrends[w.Period] = periodTrend(w, false)
	}
	for _, m := range a.Monthly {
		r.MonthlyTrends[m.Period] = periodTrend(m, true)
	}
	return r, nil
}

func periodTrend(p PeriodStat, withStd bool) PeriodTrend {
	t := PeriodTrend{
		TotalUsers:     p.Total,
		AvgUsers:       round2(p.Average),
		UniqueDatasets: p.UniqueDatasets,
		Days:           p.Days,
		StartDate:      p.StartDate,
		EndDate:        p.EndDate,
	}
	if withStd {
		std := round2(p.StdDev)
		t.StdDev = &std
	}
	return t
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
