package nutrition

import (
	"fmt"
	"math"
)

// Gender selects the BMR constant.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether g is a known gender.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// ActivityLevel selects the TDEE multiplier.
type ActivityLevel string

const (
	ActivitySedentary ActivityLevel = "sedentary"
	ActivityLight     ActivityLevel = "light"
	ActivityModerate  ActivityLevel = "moderate"
	ActivityHeavy     ActivityLevel = "heavy"
)

var activityFactors = map[ActivityLevel]float64{
	ActivitySedentary: 1.2,
	ActivityLight:     1.375,
	ActivityModerate:  1.55,
	ActivityHeavy:     1.725,
}

// Valid reports whether a is a known activity level.
func (a ActivityLevel) Valid() bool {
	_, ok := activityFactors[a]
	return ok
}

// Factor returns the TDEE multiplier for a.
func (a ActivityLevel) Factor() float64 {
	return activityFactors[a]
}

// Goal selects the calorie adjustment applied to TDEE.
type Goal string

const (
	GoalFatLoss     Goal = "fat_loss"
	GoalMaintenance Goal = "maintenance"
	GoalMuscleGain  Goal = "muscle_gain"
)

// Valid reports whether g is a known goal.
func (g Goal) Valid() bool {
	return g == GoalFatLoss || g == GoalMaintenance || g == GoalMuscleGain
}

// Adjustment returns the kcal added to TDEE for g.
func (g Goal) Adjustment() float64 {
	switch g {
	case GoalFatLoss:
		return -500
	case GoalMuscleGain:
		return 400
	default:
		return 0
	}
}

// BodyMetrics are the inputs of the calorie goal.
type BodyMetrics struct {
	Age           int
	Gender        Gender
	HeightCm      float64
	WeightKg      float64
	ActivityLevel ActivityLevel
	Goal          Goal
}

// Validate returns an error naming the first invalid enum.
func (m BodyMetrics) Validate() error {
	switch {
	case !m.Gender.Valid():
		return fmt.Errorf("unknown gender %q", m.Gender)
	case !m.ActivityLevel.Valid():
		return fmt.Errorf("unknown activity level %q", m.ActivityLevel)
	case !m.Goal.Valid():
		return fmt.Errorf("unknown goal %q", m.Goal)
	}
	return nil
}

// BMR returns the Mifflin-St Jeor basal metabolic rate.
func BMR(m BodyMetrics) float64 {
	base := 10*m.WeightKg + 6.25*m.HeightCm - 5*float64(m.Age)
	if m.Gender == GenderMale {
		return base + 5
	}
	return base - 161
}

// TDEE returns BMR scaled by the activity factor.
func TDEE(m BodyMetrics) float64 {
	return BMR(m) * m.ActivityLevel.Factor()
}

// DailyCalorieLimit returns the rounded daily calorie budget for m.
func DailyCalorieLimit(m BodyMetrics) int {
	return int(math.Round(TDEE(m) + m.Goal.Adjustment()))
}

// WaterMlPerKg is the default daily water intake per kilogram of body weight.
const WaterMlPerKg = 35

// WaterGoal returns the default daily water goal in millilitres.
func WaterGoal(weightKg float64) int {
	return int(math.Round(weightKg * WaterMlPerKg))
}
