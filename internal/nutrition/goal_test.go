package nutrition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nutrilog/nutrilog/internal/nutrition"
)

func TestDailyCalorieLimit(t *testing.T) {
	tests := []struct {
		name    string
		metrics nutrition.BodyMetrics
		want    int
	}{
		{
			name: "male moderate fat loss",
			metrics: nutrition.BodyMetrics{
				Age: 25, Gender: nutrition.GenderMale, HeightCm: 175, WeightKg: 70,
				ActivityLevel: nutrition.ActivityModerate, Goal: nutrition.GoalFatLoss,
			},
			// BMR 1673.75 * 1.55 = 2594.3125, minus 500.
			want: 2094,
		},
		{
			name: "female sedentary maintenance",
			metrics: nutrition.BodyMetrics{
				Age: 30, Gender: nutrition.GenderFemale, HeightCm: 160, WeightKg: 55,
				ActivityLevel: nutrition.ActivitySedentary, Goal: nutrition.GoalMaintenance,
			},
			// BMR 550 + 1000 - 150 - 161 = 1239, * 1.2 = 1486.8.
			want: 1487,
		},
		{
			name: "male heavy muscle gain",
			metrics: nutrition.BodyMetrics{
				Age: 40, Gender: nutrition.GenderMale, HeightCm: 180, WeightKg: 90,
				ActivityLevel: nutrition.ActivityHeavy, Goal: nutrition.GoalMuscleGain,
			},
			// BMR 900 + 1125 - 200 + 5 = 1830, * 1.725 = 3156.75, plus 400.
			want: 3557,
		},
		{
			name: "female light fat loss",
			metrics: nutrition.BodyMetrics{
				Age: 22, Gender: nutrition.GenderFemale, HeightCm: 165, WeightKg: 62,
				ActivityLevel: nutrition.ActivityLight, Goal: nutrition.GoalFatLoss,
			},
			// BMR 620 + 1031.25 - 110 - 161 = 1380.25, * 1.375 = 1897.84375, minus 500.
			want: 1398,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nutrition.DailyCalorieLimit(tt.metrics))
		})
	}
}

func TestBMRAndTDEE(t *testing.T) {
	m := nutrition.BodyMetrics{
		Age: 25, Gender: nutrition.GenderMale, HeightCm: 175, WeightKg: 70,
		ActivityLevel: nutrition.ActivityModerate, Goal: nutrition.GoalFatLoss,
	}
	assert.InDelta(t, 1673.75, nutrition.BMR(m), 1e-9)
	assert.InDelta(t, 2594.3125, nutrition.TDEE(m), 1e-9)
}

func TestBodyMetrics_Validate(t *testing.T) {
	valid := nutrition.BodyMetrics{
		Gender: nutrition.GenderFemale, ActivityLevel: nutrition.ActivityLight, Goal: nutrition.GoalMaintenance,
	}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.Gender = "other"
	assert.Error(t, bad.Validate())

	bad = valid
	bad.ActivityLevel = "extreme"
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Goal = "bulk"
	assert.Error(t, bad.Validate())
}

func TestWaterGoal(t *testing.T) {
	assert.Equal(t, 2450, nutrition.WaterGoal(70))
	assert.Equal(t, 2188, nutrition.WaterGoal(62.5))
}
