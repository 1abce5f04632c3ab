package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nutrilog/nutrilog/internal/clock"
	"github.com/nutrilog/nutrilog/internal/dailylog"
	"github.com/nutrilog/nutrilog/internal/user"
)

// LogRefresher is the part of the daily log service the refresh job drives.
type LogRefresher interface {
	Today() string
	ListUserIDsByDate(ctx context.Context, date string) ([]string, error)
	RegenerateSuggestions(ctx context.Context, userID, date string) (*dailylog.DailyLog, error)
}

// SuggestionGate reports whether suggestion generation is switched off.
type SuggestionGate interface {
	IsSuggestionsDisabled(ctx context.Context) bool
}

// RefreshJob regenerates the cached suggestions of every log on a date.
// Time-of-day advice changes with the clock even when a log does not, so
// a scheduled refresh keeps the stored strings current.
type RefreshJob struct {
	config RefreshConfig
	logs   LogRefresher
	gate   SuggestionGate
	logger zerolog.Logger

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRuns     int64
	SkippedRuns   int64
	LogsRefreshed int64
	LogsFailed    int64
	LogsSkipped   int64

	LastRefreshAt time.Time
	LastDate      string
	LastDuration  time.Duration
	TotalDuration time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config RefreshConfig
	Logs   LogRefresher
	Logger zerolog.Logger

	// Gate, when set, lets the disable_suggestions flag skip a run.
	Gate SuggestionGate
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	return &RefreshJob{
		config:  cfg.Config.withDefaults(),
		logs:    cfg.Logs,
		gate:    cfg.Gate,
		logger:  cfg.Logger,
		metrics: &RefreshMetrics{},
	}
}

// RefreshResult contains the result of one refresh run.
type RefreshResult struct {
	Date       string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalLogs  int
	Successful int
	Failed     int
	// Skipped counts logs or users that disappeared before their turn.
	Skipped    int
	Disabled   bool
	Errors     []RefreshError
}

// RefreshError records a failed log refresh.
type RefreshError struct {
	UserID string
	Error  string
}

// Run refreshes every log dated date; an empty date means today.
// It returns an error only when the date is malformed or the log listing fails.
func (j *RefreshJob) Run(ctx context.Context, date string) (*RefreshResult, error) {
	if date == "" {
		date = j.logs.Today()
	} else if _, err := clock.ParseDate(date); err != nil {
		return nil, fmt.Errorf("invalid refresh date %q: %w", date, err)
	}

	startTime := time.Now()
	result := &RefreshResult{Date: date, StartTime: startTime}

	if j.gate != nil && j.gate.IsSuggestionsDisabled(ctx) {
		j.logger.Info().Str("date", date).Msg("suggestions disabled, skipping refresh")
		result.Disabled = true
		result.EndTime = time.Now()
		j.updateMetrics(result)
		return result, nil
	}

	userIDs, err := j.logs.ListUserIDsByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("listing logs for %s: %w", date, err)
	}
	result.TotalLogs = len(userIDs)

	j.logger.Info().
		Str("date", date).
		Int("total_logs", result.TotalLogs).
		Int("concurrency", j.config.Concurrency).
		Msg("starting suggestion refresh job")

	userChan := make(chan string, len(userIDs))
	resultsChan := make(chan logResult, len(userIDs))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, date, userChan, resultsChan)
		}()
	}

	for _, id := range userIDs {
		userChan <- id
	}
	close(userChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for lr := range resultsChan {
		switch {
		case lr.skipped:
			result.Skipped++
		case lr.err != nil:
			result.Failed++
			result.Errors = append(result.Errors, RefreshError{UserID: lr.userID, Error: lr.err.Error()})
		default:
			result.Successful++
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)
	j.updateMetrics(result)

	j.logger.Info().
		Str("date", date).
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Msg("suggestion refresh job completed")

	return result, nil
}

type logResult struct {
	userID  string
	skipped bool
	err     error
}

func (j *RefreshJob) refreshWorker(ctx context.Context, date string, users <-chan string, results chan<- logResult) {
	for userID := range users {
		select {
		case <-ctx.Done():
			results <- logResult{userID: userID, err: ctx.Err()}
		default:
			results <- j.refreshLog(ctx, date, userID)
		}
	}
}

func (j *RefreshJob) refreshLog(ctx context.Context, date, userID string) logResult {
	logCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	_, err := j.logs.RegenerateSuggestions(logCtx, userID, date)
	switch {
	case err == nil:
		return logResult{userID: userID}
	case errors.Is(err, dailylog.ErrLogNotFound), errors.Is(err, user.ErrUserNotFound):
		return logResult{userID: userID, skipped: true}
	default:
		j.logger.Warn().Err(err).Str("user_id", userID).Str("date", date).Msg("failed to refresh suggestions")
		return logResult{userID: userID, err: err}
	}
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	if result.Disabled {
		j.metrics.SkippedRuns++
	}
	j.metrics.LogsRefreshed += int64(result.Successful)
	j.metrics.LogsFailed += int64(result.Failed)
	j.metrics.LogsSkipped += int64(result.Skipped)
	j.metrics.LastRefreshAt = result.EndTime
	j.metrics.LastDate = result.Date
	j.metrics.LastDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:     j.metrics.TotalRuns,
		LogsRefreshed: j.metrics.LogsRefreshed,
		LogsFailed:    j.metrics.LogsFailed,
		LogsSkipped:   j.metrics.LogsSkipped,
		SkippedRuns:   j.metrics.SkippedRuns,
		LastRefreshAt: j.metrics.LastRefreshAt,
		LastDate:      j.metrics.LastDate,
		LastDuration:  j.metrics.LastDuration,
		TotalDuration: j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":      m.TotalRuns,
		"skipped_runs":    m.SkippedRuns,
		"logs_refreshed":  m.LogsRefreshed,
		"logs_failed":     m.LogsFailed,
		"logs_skipped":    m.LogsSkipped,
		"last_refresh_at": m.LastRefreshAt,
		"last_date":       m.LastDate,
		"last_duration":   m.LastDuration.String(),
		"total_duration":  m.TotalDuration.String(),
	}
}
