// Package worker provides background job processing for NutriLog.
package worker

import (
	"time"
)

// Job types carried in the job_type field of queue messages.
const (
	JobTypeSuggestionsRefresh = "suggestions_refresh"
	JobTypeHealthCheck        = "health_check"
)

// RefreshConfig holds configuration for the suggestion refresh job.
type RefreshConfig struct {
	// Concurrency is the number of logs refreshed in parallel.
	// Default: 4
	Concurrency int

	// Timeout bounds the refresh of a single log.
	// Default: 10 seconds
	Timeout time.Duration
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Concurrency: 4,
		Timeout:     10 * time.Second,
	}
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	def := DefaultRefreshConfig()
	if c.Concurrency < 1 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}
