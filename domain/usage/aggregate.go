package usage

import (
	"fmt"
	"math"
	"sort"

	lo "github.com/samber/lo"
)

// DayStat is the per-date rollup.
type DayStat struct {
	Date     string
	Total    int
	Datasets int
	Average  float64
}

// Ranking summarises one dataset across the whole collection.
type Ranking struct {
	Rank        int
	Dataset     string
	Latest      int
	Average     float64
	Appearances int
	StdDev      float64
}

// PeriodStat is a weekly or monthly rollup over per-date totals.
type PeriodStat struct {
	Period         string
	Total          int
	Average        float64
	UniqueDatasets int
	Days           int
	StdDev         float64
	StartDate      string
	EndDate        string
}

// Aggregate holds every structure derived from a Collection.
type Aggregate struct {
	Mode     Mode
	Dates    []string
	PerDate  map[string]map[string]int
	Daily    []DayStat
	Rankings []Ranking
	Weekly   []PeriodStat
	Monthly  []PeriodStat

	TotalDatasets int
	TotalUsers    int
	LatestTotal   int
	GrowthRate    float64

	PeakDate         string
	PeakDateTotal    int
	PeakDataset      string
	PeakDatasetUsers int
}

// Empty reports whether the aggregate was built from no snapshots.
func (a Aggregate) Empty() bool { return len(a.Dates) == 0 }

// Compute derives all rollups, rankings and peaks from a collection. An empty
// collection yields an empty Aggregate.
func Compute(c Collection, mode Mode) Aggregate {
	agg := Aggregate{Mode: mode, PerDate: map[string]map[string]int{}}
	snaps := c.Snapshots()
	if len(snaps) == 0 {
		return agg
	}
	agg.Dates = c.Dates()

	for _, s := range snaps {
		day := s.Day()
		m := make(map[string]int, len(s.Entries))
		for _, e := range s.Entries {
			m[e.Dataset] = e.Users
		}
		agg.PerDate[day] = m

		total := s.Total()
		agg.Daily = append(agg.Daily, DayStat{
			Date:     day,
			Total:    total,
			Datasets: len(s.Entries),
			Average:  safeDiv(float64(total), float64(len(s.Entries))),
		})
		agg.TotalUsers += total
	}

	agg.Rankings = rankings(snaps)
	agg.TotalDatasets = len(agg.Rankings)

	first, last := agg.Daily[0], agg.Daily[len(agg.Daily)-1]
	agg.LatestTotal = last.Total
	agg.GrowthRate = growthRate(first.Total, last.Total)

	peak := lo.MaxBy(agg.Daily, func(a, b DayStat) bool { return a.Total > b.Total })
	agg.PeakDate, agg.PeakDateTotal = peak.Date, peak.Total
	if len(agg.Rankings) > 0 {
		// rankings are sorted by latest value with first-seen tie order
		agg.PeakDataset = agg.Rankings[0].Dataset
		agg.PeakDatasetUsers = agg.Rankings[0].Latest
	}

	agg.Weekly = rollup(snaps, weekLabel)
	agg.Monthly = rollup(snaps, monthLabel)
	return agg
}

func rankings(snaps []Snapshot) []Ranking {
	var order []string
	series := map[string][]int{}
	for i, s := range snaps {
		for _, e := range s.Entries {
			if _, ok := series[e.Dataset]; !ok {
				order = append(order, e.Dataset)
				series[e.Dataset] = make([]int, len(snaps))
			}
			series[e.Dataset][i] = e.Users
		}
	}

	res := make([]Ranking, 0, len(order))
	for _, name := range order {
		values := series[name]
		mean, std := meanStd(values)
		res = append(res, Ranking{
			Dataset:     name,
			Latest:      values[len(values)-1],
			Average:     mean,
			Appearances: lo.CountBy(values, func(v int) bool { return v != 0 }),
			StdDev:      std,
		})
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Latest > res[j].Latest })
	for i := range res {
		res[i].Rank = i + 1
	}
	return res
}

func rollup(snaps []Snapshot, label func(Snapshot) string) []PeriodStat {
	groups := lo.GroupBy(snaps, label)
	keys := lo.Keys(groups)
	sort.Strings(keys)

	res := make([]PeriodStat, 0, len(keys))
	for _, key := range keys {
		group := groups[key]
		totals := lo.Map(group, func(s Snapshot, _ int) int { return s.Total() })
		datasets := lo.Uniq(lo.FlatMap(group, func(s Snapshot, _ int) []string {
			return lo.Map(s.Entries, func(e Entry, _ int) string { return e.Dataset })
		}))
		total := lo.Sum(totals)
		_, std := meanStd(totals)
		res = append(res, PeriodStat{
			Period:         key,
			Total:          total,
			Average:        safeDiv(float64(total), float64(len(group))),
			UniqueDatasets: len(datasets),
			Days:           len(group),
			StdDev:         std,
			StartDate:      group[0].Day(),
			EndDate:        group[len(group)-1].Day(),
		})
	}
	return res
}

// weekLabel uses ISO-8601 week numbering, so late-December dates can belong
// to week 1 of the next year.
func weekLabel(s Snapshot) string {
	year, week := s.Date.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func monthLabel(s Snapshot) string { return s.Date.Format("2006-01") }

// growthRate is 0 when the first total is 0.
func growthRate(first, last int) float64 {
	if first == 0 {
		return 0
	}
	return float64(last-first) / float64(first) * 100
}

// meanStd returns the mean and population standard deviation.
func meanStd(values []int) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean := float64(lo.Sum(values)) / float64(len(values))
	var variance float64
	for _, v := range values {
		d := float64(v) - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
