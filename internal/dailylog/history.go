package dailylog

import (
	"github.com/nutrilog/nutrilog/internal/clock"
	"github.com/nutrilog/nutrilog/internal/nutrition"
)

// History window bounds in days.
const (
	MinHistoryDays     = 1
	MaxHistoryDays     = 90
	DefaultHistoryDays = 7
)

// DaySummary is the aggregate of one day in a history window.
type DaySummary struct {
	Date            string
	Totals          nutrition.Values
	WaterConsumedMl int
}

// ClampDays limits a requested window to [MinHistoryDays, MaxHistoryDays].
func ClampDays(days int) int {
	switch {
	case days < MinHistoryDays:
		return MinHistoryDays
	case days > MaxHistoryDays:
		return MaxHistoryDays
	}
	return days
}

// BuildHistory returns exactly days summaries, oldest first, ending on today.
// Dates without a log in logs are zero-valued. days must already be clamped.
func BuildHistory(today string, days int, logs []*DailyLog) []DaySummary {
	byDate := make(map[string]*DailyLog, len(logs))
	for _, l := range logs {
		byDate[l.Date] = l
	}

	out := make([]DaySummary, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := clock.AddDays(today, -i)
		s := DaySummary{Date: date}
		if l, ok := byDate[date]; ok {
			s.Totals = l.Totals
			s.WaterConsumedMl = l.WaterConsumedMl
		}
		out = append(out, s)
	}
	return out
}
