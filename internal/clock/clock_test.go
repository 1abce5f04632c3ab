package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/nutrilog/internal/clock"
)

func TestToday_UsesClockLocation(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 20:00 UTC is already the next day in Kolkata.
	instant := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, "2024-03-10", clock.Today(clock.NewFixed(instant)))
	assert.Equal(t, "2024-03-11", clock.Today(clock.NewFixed(instant.In(kolkata))))
}

func TestAddDays(t *testing.T) {
	tests := []struct {
		date string
		n    int
		want string
	}{
		{"2024-03-01", -1, "2024-02-29"},
		{"2024-12-31", 1, "2025-01-01"},
		{"2024-03-10", 0, "2024-03-10"},
		{"not-a-date", 1, "not-a-date"},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, clock.AddDays(tt.date, tt.n))
		})
	}
}

func TestDaysBetween(t *testing.T) {
	n, err := clock.DaysBetween("2024-02-28", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = clock.DaysBetween("bad", "2024-03-01")
	assert.Error(t, err)
}

func TestFixed_Advance(t *testing.T) {
	c := clock.NewFixed(time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC))
	c.Advance(time.Hour)
	assert.Equal(t, "2024-01-02", clock.Today(c))
}

func TestNewSystemFromName(t *testing.T) {
	c, err := clock.NewSystemFromName("Asia/Kolkata")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", c.Now().Location().String())

	_, err = clock.NewSystemFromName("Not/AZone")
	assert.Error(t, err)
}
