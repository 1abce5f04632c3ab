package worker_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/nutrilog/internal/dailylog"
	"github.com/nutrilog/nutrilog/internal/user"
	"github.com/nutrilog/nutrilog/internal/worker"
)

// fakeLogs is an in-memory LogRefresher.
type fakeLogs struct {
	mu       sync.Mutex
	today    string
	byDate   map[string][]string
	failFor  map[string]error
	listErr  error
	delay    time.Duration
	inFlight int32
	peak     int32
	done     []string
}

func (f *fakeLogs) Today() string { return f.today }

func (f *fakeLogs) ListUserIDsByDate(_ context.Context, date string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.byDate[date], nil
}

func (f *fakeLogs) RegenerateSuggestions(ctx context.Context, userID, date string) (*dailylog.DailyLog, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&f.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&f.peak, peak, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err := f.failFor[userID]; err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.done = append(f.done, userID)
	f.mu.Unlock()
	return &dailylog.DailyLog{UserID: userID, Date: date}, nil
}

type gate struct{ disabled bool }

func (g gate) IsSuggestionsDisabled(context.Context) bool { return g.disabled }

func newJob(logs worker.LogRefresher, cfg worker.RefreshConfig, g worker.SuggestionGate) *worker.RefreshJob {
	return worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: cfg,
		Logs:   logs,
		Gate:   g,
		Logger: zerolog.Nop(),
	})
}

func TestDefaultRefreshConfig(t *testing.T) {
	cfg := worker.DefaultRefreshConfig()

	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestRefreshJob_Run_DefaultsToToday(t *testing.T) {
	logs := &fakeLogs{
		today: "2026-03-10",
		byDate: map[string][]string{
			"2026-03-10": {"usr_a", "usr_b", "usr_c"},
			"2026-03-09": {"usr_old"},
		},
	}
	job := newJob(logs, worker.RefreshConfig{Concurrency: 2}, nil)

	result, err := job.Run(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "2026-03-10", result.Date)
	assert.Equal(t, 3, result.TotalLogs)
	assert.Equal(t, 3, result.Successful)
	assert.Zero(t, result.Failed)

	sort.Strings(logs.done)
	assert.Equal(t, []string{"usr_a", "usr_b", "usr_c"}, logs.done)
}

func TestRefreshJob_Run_ExplicitDate(t *testing.T) {
	logs := &fakeLogs{
		today:  "2026-03-10",
		byDate: map[string][]string{"2026-03-09": {"usr_old"}},
	}
	job := newJob(logs, worker.RefreshConfig{}, nil)

	result, err := job.Run(context.Background(), "2026-03-09")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, []string{"usr_old"}, logs.done)
}

func TestRefreshJob_Run_InvalidDate(t *testing.T) {
	job := newJob(&fakeLogs{today: "2026-03-10"}, worker.RefreshConfig{}, nil)

	_, err := job.Run(context.Background(), "10/03/2026")
	assert.Error(t, err)
}

func TestRefreshJob_Run_ListError(t *testing.T) {
	logs := &fakeLogs{today: "2026-03-10", listErr: errors.New("db down")}
	job := newJob(logs, worker.RefreshConfig{}, nil)

	_, err := job.Run(context.Background(), "")
	assert.ErrorContains(t, err, "db down")
}

func TestRefreshJob_Run_ClassifiesOutcomes(t *testing.T) {
	logs := &fakeLogs{
		today:  "2026-03-10",
		byDate: map[string][]string{"2026-03-10": {"usr_ok", "usr_gone", "usr_deleted", "usr_broken"}},
		failFor: map[string]error{
			"usr_gone":    dailylog.ErrLogNotFound,
			"usr_deleted": user.ErrUserNotFound,
			"usr_broken":  errors.New("advisor failed"),
		},
	}
	job := newJob(logs, worker.RefreshConfig{Concurrency: 3}, nil)

	result, err := job.Run(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalLogs)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "usr_broken", result.Errors[0].UserID)
	assert.Equal(t, "advisor failed", result.Errors[0].Error)
}

func TestRefreshJob_Run_BoundedConcurrency(t *testing.T) {
	ids := make([]string, 12)
	for i := range ids {
		ids[i] = "usr_" + string(rune('a'+i))
	}
	logs := &fakeLogs{
		today:  "2026-03-10",
		byDate: map[string][]string{"2026-03-10": ids},
		delay:  10 * time.Millisecond,
	}
	job := newJob(logs, worker.RefreshConfig{Concurrency: 3}, nil)

	result, err := job.Run(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 12, result.Successful)
	assert.LessOrEqual(t, atomic.LoadInt32(&logs.peak), int32(3))
}

func TestRefreshJob_Run_ContextCancellation(t *testing.T) {
	logs := &fakeLogs{
		today:  "2026-03-10",
		byDate: map[string][]string{"2026-03-10": {"usr_a", "usr_b", "usr_c", "usr_d"}},
		delay:  time.Second,
	}
	job := newJob(logs, worker.RefreshConfig{Concurrency: 1}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	result, err := job.Run(ctx, "")
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 4, result.Failed)
	assert.Zero(t, result.Successful)
}

func TestRefreshJob_Run_PerLogTimeout(t *testing.T) {
	logs := &fakeLogs{
		today:  "2026-03-10",
		byDate: map[string][]string{"2026-03-10": {"usr_slow"}},
		delay:  time.Second,
	}
	job := newJob(logs, worker.RefreshConfig{Concurrency: 1, Timeout: 10 * time.Millisecond}, nil)

	result, err := job.Run(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
}

func TestRefreshJob_Run_SuggestionsDisabled(t *testing.T) {
	logs := &fakeLogs{
		today:  "2026-03-10",
		byDate: map[string][]string{"2026-03-10": {"usr_a"}},
	}
	job := newJob(logs, worker.RefreshConfig{}, gate{disabled: true})

	result, err := job.Run(context.Background(), "")
	require.NoError(t, err)

	assert.True(t, result.Disabled)
	assert.Empty(t, logs.done)
	assert.Equal(t, int64(1), job.GetMetrics().SkippedRuns)
}

func TestRefreshJob_Metrics(t *testing.T) {
	logs := &fakeLogs{
		today:   "2026-03-10",
		byDate:  map[string][]string{"2026-03-10": {"usr_a", "usr_b"}},
		failFor: map[string]error{"usr_b": errors.New("boom")},
	}
	job := newJob(logs, worker.RefreshConfig{}, nil)

	_, err := job.Run(context.Background(), "")
	require.NoError(t, err)
	_, err = job.Run(context.Background(), "")
	require.NoError(t, err)

	m := job.GetMetrics()
	assert.Equal(t, int64(2), m.TotalRuns)
	assert.Equal(t, int64(2), m.LogsRefreshed)
	assert.Equal(t, int64(2), m.LogsFailed)
	assert.Equal(t, "2026-03-10", m.LastDate)
	assert.False(t, m.LastRefreshAt.IsZero())

	snapshot := job.MetricsSnapshot()
	assert.Equal(t, int64(2), snapshot["total_runs"])
	assert.Equal(t, "2026-03-10", snapshot["last_date"])
}
