package usage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNormalizeDataset(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Foo/[12 assets]", "Foo"},
		{"COPERNICUS/S2_SR/[1200 assets]", "COPERNICUS/S2_SR"},
		{"  USGS/SRTMGL1_003  ", "USGS/SRTMGL1_003"},
		{"Foo/[12 assets] extra", "Foo/[12 assets] extra"},
		{"Foo/[x assets]", "Foo/[x assets]"},
		{"Foo[12 assets]", "Foo[12 assets]"},
		{"Foo/[12  assets]", "Foo"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDataset(tt.in))
		})
	}
}

func TestParseUsers(t *testing.T) {
	tests := map[string]int{
		"42":    42,
		" 7 ":   7,
		"":      0,
		"n/a":   0,
		"-3":    0,
		"12.0":  12,
		"12.9":  12,
		"-1.5":  0,
		"NaN":   0,
		"+Inf":  0,
		"1e3":   1000,
		"0":     0,
		"1,000": 0,

		"99999999999999999999":  0,
		"-99999999999999999999": 0,
		"1e30":                  0,
		"-1e30":                 0,
		"9.3e18":                0,
		"9.2e18":                9200000000000000000,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseUsers(in), "input %q", in)
	}
}

func TestNormalize_SumsCollidingNames(t *testing.T) {
	snap := Normalize(day("2024-04-23"), []Row{
		{Dataset: "Foo/[12 assets]", Users: "10"},
		{Dataset: "Bar", Users: "4"},
		{Dataset: "Foo/[3 assets]", Users: "5"},
	})

	require.Len(t, snap.Entries, 2)
	assert.Equal(t, Entry{Dataset: "Foo", Users: 15}, snap.Entries[0])
	assert.Equal(t, Entry{Dataset: "Bar", Users: 4}, snap.Entries[1])
	assert.Equal(t, 19, snap.Total())
	assert.Equal(t, "2024-04-23", snap.Day())
}

func TestNormalize_DropsUnnamedRowsAndZeroesBadMetrics(t *testing.T) {
	snap := Normalize(day("2024-04-23"), []Row{
		{Dataset: "", Users: "10"},
		{Dataset: "   ", Users: "3"},
		{Dataset: "A", Users: "oops"},
		{Dataset: "B", Users: ""},
	})

	assert.Equal(t, []Entry{{Dataset: "A", Users: 0}, {Dataset: "B", Users: 0}}, snap.Entries)
}

func TestNormalize_OversizedMetricNeverNegative(t *testing.T) {
	snap := Normalize(day("2024-04-23"), []Row{
		{Dataset: "A", Users: "1e30"},
		{Dataset: "B", Users: "99999999999999999999"},
		{Dataset: "C", Users: "4"},
	})

	require.Len(t, snap.Entries, 3)
	for _, e := range snap.Entries {
		assert.GreaterOrEqual(t, e.Users, 0, e.Dataset)
	}
	assert.Equal(t, 4, snap.Total())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeDaily, m)

	m, err = ParseMode("moving-window")
	require.NoError(t, err)
	assert.Equal(t, ModeMovingWindow, m)

	_, err = ParseMode("hourly")
	assert.Error(t, err)
}

func TestDateRangeAndObjectKey(t *testing.T) {
	days := DateRange(day("2024-02-27"), day("2024-03-01"))
	require.Len(t, days, 4)
	assert.Equal(t, "2024-02-29", days[2].Format(DateLayout))

	assert.Nil(t, DateRange(day("2024-03-02"), day("2024-03-01")))
	assert.Equal(t, "stats/earthengine_stats_2024-04-23.csv", ObjectKey("stats/earthengine_stats", "csv", day("2024-04-23")))
}

func TestNewCollection_SortsAndDedupesDates(t *testing.T) {
	c := NewCollection([]Snapshot{
		{Date: day("2024-04-24"), Entries: []Entry{{Dataset: "A", Users: 2}}},
		{Date: day("2024-04-23"), Entries: []Entry{{Dataset: "A", Users: 1}}},
		{Date: day("2024-04-24"), Entries: []Entry{{Dataset: "A", Users: 99}}},
	})

	assert.Equal(t, []string{"2024-04-23", "2024-04-24"}, c.Dates())
	snaps := c.Snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, 2, snaps[1].Total())
}
