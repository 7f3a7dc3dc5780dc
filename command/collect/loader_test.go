package collect

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ee-stats/domain/usage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu      sync.Mutex
	objects map[string]string
	errs    map[string]error
	block   map[string]bool
	calls   []string

	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeFetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()

	time.Sleep(time.Millisecond)
	if f.block[key] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	body, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, usage.ErrNotFound)
	}
	return []byte(body), nil
}

func key(date string) string { return "stats_" + date + ".csv" }

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(usage.DateLayout, s)
	require.NoError(t, err)
	return d
}

func newLoader(f Fetcher) *Loader {
	return &Loader{
		Fetcher:       f,
		Prefix:        "stats",
		Extension:     "csv",
		DatasetColumn: "dataset",
		UsersColumn:   "users",
		Workers:       3,
		Timeout:       time.Second,
	}
}

func TestLoader_SkipsMissingEmptyAndFailedDates(t *testing.T) {
	f := &fakeFetcher{
		objects: map[string]string{
			key("2024-04-23"): "dataset,users\nA,10\nB,5\n",
			key("2024-04-25"): "dataset,users\n",
			key("2024-04-26"): "dataset,users\nA/[3 assets],7\nA/[4 assets],1\n",
			key("2024-04-27"): "name,count\nA,1\n",
		},
		errs: map[string]error{
			key("2024-04-24"): errors.New("permission denied"),
		},
	}

	coll, err := newLoader(f).Load(context.Background(), mustDay(t, "2024-04-23"), mustDay(t, "2024-04-28"))
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-04-23", "2024-04-26"}, coll.Dates())
	snaps := coll.Snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, []usage.Entry{{Dataset: "A", Users: 8}}, snaps[1].Entries)
	assert.Len(t, f.calls, 6)
}

func TestLoader_OrdersByDateAndBoundsConcurrency(t *testing.T) {
	f := &fakeFetcher{objects: map[string]string{}}
	start := mustDay(t, "2024-01-01")
	for i := 0; i < 60; i++ {
		d := start.AddDate(0, 0, i).Format(usage.DateLayout)
		f.objects[key(d)] = fmt.Sprintf("dataset,users\nA,%d\n", i)
	}

	coll, err := newLoader(f).Load(context.Background(), start, start.AddDate(0, 0, 59))
	require.NoError(t, err)

	dates := coll.Dates()
	require.Len(t, dates, 60)
	for i := 1; i < len(dates); i++ {
		assert.Less(t, dates[i-1], dates[i])
	}
	assert.LessOrEqual(t, f.peak.Load(), int32(3))
}

func TestLoader_TimeoutSkipsOnlyThatDate(t *testing.T) {
	f := &fakeFetcher{
		objects: map[string]string{
			key("2024-04-23"): "dataset,users\nA,1\n",
			key("2024-04-24"): "dataset,users\nA,2\n",
		},
		block: map[string]bool{key("2024-04-23"): true},
	}
	l := newLoader(f)
	l.Timeout = 20 * time.Millisecond

	coll, err := l.Load(context.Background(), mustDay(t, "2024-04-23"), mustDay(t, "2024-04-24"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-04-24"}, coll.Dates())
}

func TestLoader_EmptyRange(t *testing.T) {
	coll, err := newLoader(&fakeFetcher{}).Load(context.Background(), mustDay(t, "2024-04-23"), mustDay(t, "2024-04-26"))
	require.NoError(t, err)
	assert.Equal(t, 0, coll.Len())
}

func TestLoader_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newLoader(&fakeFetcher{}).Load(ctx, mustDay(t, "2024-04-23"), mustDay(t, "2024-04-24"))
	assert.ErrorIs(t, err, context.Canceled)
}
