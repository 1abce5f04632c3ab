package suggestion_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/nutrilog/internal/clock"
	"github.com/nutrilog/nutrilog/internal/dailylog"
	"github.com/nutrilog/nutrilog/internal/food"
	"github.com/nutrilog/nutrilog/internal/nutrition"
	"github.com/nutrilog/nutrilog/internal/suggestion"
	"github.com/nutrilog/nutrilog/internal/user"
)

func at(hour int) time.Time {
	return time.Date(2026, 3, 10, hour, 0, 0, 0, time.UTC)
}

func testUser(diet food.DietType) *user.User {
	return &user.User{
		ID:                "usr_1",
		Profile:           user.Profile{WeightKg: 70, DietType: diet},
		DailyCalorieLimit: 2000,
		WaterGoalMl:       2000,
	}
}

func logWith(water int, entries ...dailylog.Entry) *dailylog.DailyLog {
	l := dailylog.New("usr_1", "2026-03-10", at(6))
	l.Entries = entries
	l.WaterConsumedMl = water
	l.Recalculate()
	return l
}

func entry(hour int, calories, protein float64) dailylog.Entry {
	return dailylog.Entry{
		ID:       fmt.Sprintf("ent_%02d", hour),
		LoggedAt: at(hour),
		Values:   nutrition.Values{Calories: calories, Protein: protein},
	}
}

func TestEngine_Generate(t *testing.T) {
	tests := []struct {
		name string
		now  int
		log  *dailylog.DailyLog
		want []string
	}{
		{
			name: "empty morning log before cutoff",
			now:  9,
			log:  logWith(0),
			want: []string{suggestion.LowIntake, suggestion.LowProteinVeg, suggestion.LowWater},
		},
		{
			name: "empty log after the morning",
			now:  14,
			log:  logWith(0),
			want: []string{
				suggestion.LowIntake, suggestion.LowMorningIntake, suggestion.LowProteinVeg, suggestion.LowWater,
			},
		},
		{
			name: "balanced day with no advice",
			now:  20,
			log:  logWith(1500, entry(8, 500, 30), entry(13, 600, 20), entry(19, 400, 10)),
			want: []string{},
		},
		{
			name: "over the limit without dinner",
			now:  16,
			log:  logWith(1500, entry(8, 900, 40), entry(13, 1300, 40)),
			want: []string{suggestion.OverLimit, suggestion.KeepDinnerLight},
		},
		{
			name: "most calories eaten but dinner logged",
			now:  21,
			log:  logWith(1500, entry(8, 900, 40), entry(19, 800, 40)),
			want: []string{},
		},
		{
			name: "most calories eaten without dinner",
			now:  16,
			log:  logWith(1500, entry(8, 900, 40), entry(12, 800, 40)),
			want: []string{suggestion.KeepDinnerLight},
		},
		{
			name: "water exactly at sixty percent is enough",
			now:  10,
			log:  logWith(1200, entry(8, 900, 60)),
			want: []string{},
		},
		{
			name: "low morning intake only counts entries before cutoff",
			now:  15,
			log:  logWith(1500, entry(11, 900, 60)),
			want: []string{suggestion.LowMorningIntake},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := suggestion.NewEngine(clock.NewFixed(at(tt.now)))

			got, err := engine.Generate(tt.log, testUser(food.DietVeg))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_Generate_ProteinByDiet(t *testing.T) {
	tests := []struct {
		diet food.DietType
		want string
	}{
		{food.DietVeg, suggestion.LowProteinVeg},
		{food.DietJain, suggestion.LowProteinVeg},
		{food.DietEggetarian, suggestion.LowProteinEggetarian},
		{food.DietVegan, suggestion.LowProteinVegan},
		{food.DietNonVeg, suggestion.LowProteinDefault},
	}

	for _, tt := range tests {
		t.Run(string(tt.diet), func(t *testing.T) {
			engine := suggestion.NewEngine(clock.NewFixed(at(9)))

			// 55g is below 0.8 * 70kg = 56g.
			got, err := engine.Generate(logWith(2000, entry(8, 1000, 55)), testUser(tt.diet))
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, got)
		})
	}
}

func TestEngine_Generate_UsesClockLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*60*60+30*60)
	// 10:00 local is 04:30 UTC; still morning in the clock's zone.
	engine := suggestion.NewEngine(clock.NewFixed(time.Date(2026, 3, 10, 14, 0, 0, 0, loc)))

	morning := dailylog.Entry{
		ID:       "ent_1",
		LoggedAt: time.Date(2026, 3, 10, 4, 30, 0, 0, time.UTC),
		Values:   nutrition.Values{Calories: 300, Protein: 60},
	}

	got, err := engine.Generate(logWith(2000, morning), testUser(food.DietVeg))
	require.NoError(t, err)
	assert.NotContains(t, got, suggestion.LowMorningIntake)
}

func TestEngine_Generate_MissingInput(t *testing.T) {
	engine := suggestion.NewEngine(clock.NewFixed(at(9)))

	_, err := engine.Generate(nil, testUser(food.DietVeg))
	assert.ErrorIs(t, err, suggestion.ErrMissingInput)

	_, err = engine.Generate(logWith(0), nil)
	assert.ErrorIs(t, err, suggestion.ErrMissingInput)
}
