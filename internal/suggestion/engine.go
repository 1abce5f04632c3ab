// Package suggestion turns a day's log into short advisory messages.
package suggestion

import (
	"errors"

	"github.com/nutrilog/nutrilog/internal/clock"
	"github.com/nutrilog/nutrilog/internal/dailylog"
	"github.com/nutrilog/nutrilog/internal/food"
	"github.com/nutrilog/nutrilog/internal/user"
)

// Advisory texts, in evaluation order.
const (
	LowIntake        = "You have consumed very few calories so far. Consider adding a balanced meal."
	OverLimit        = "You have exceeded your daily calorie limit. Try to keep dinner lighter."
	LowMorningIntake = "Your morning intake was low. Energy levels might drop."
	LowWater         = "Your water intake is low today. Staying hydrated improves digestion and recovery."
	KeepDinnerLight  = "You have already consumed most of your calories. Keep dinner light."

	LowProteinVeg        = "Your protein intake is low. Add paneer, curd, dal, or soy-based foods."
	LowProteinEggetarian = "Your protein intake is low. Eggs and dairy can help meet your protein needs."
	LowProteinVegan      = "Your protein intake is low. Consider tofu, lentils, chickpeas, or soy."
	LowProteinDefault    = "Your protein intake is low. Lean meats, eggs, or dairy can help."
)

// Rule thresholds.
const (
	LowIntakeRatio     = 0.4
	MorningIntakeRatio = 0.1
	ProteinGramsPerKg  = 0.8
	WaterRatio         = 0.6
	DinnerCalorieRatio = 0.8
	DefaultMorningHour = 11
	DefaultLateDayHour = 18
)

// ErrMissingInput is returned when the log or user is nil.
var ErrMissingInput = errors.New("suggestions need a log and a user")

// Engine evaluates the advisory rules. Hours are read in the clock's location.
type Engine struct {
	clock clock.Clock
	// MorningCutoffHour ends the morning: entries before it count as
	// morning intake, and the morning rule only fires after it.
	MorningCutoffHour int
	// LateDayCutoffHour starts the evening meal window.
	LateDayCutoffHour int
}

// NewEngine creates an Engine with the default cutoffs.
func NewEngine(c clock.Clock) *Engine {
	if c == nil {
		c = clock.NewSystem(nil)
	}
	return &Engine{
		clock:             c,
		MorningCutoffHour: DefaultMorningHour,
		LateDayCutoffHour: DefaultLateDayHour,
	}
}

// Generate returns every advisory whose rule matches, in rule order.
func (e *Engine) Generate(l *dailylog.DailyLog, u *user.User) ([]string, error) {
	if l == nil || u == nil {
		return nil, ErrMissingInput
	}

	now := e.clock.Now()
	limit := float64(u.DailyCalorieLimit)
	calories := l.Totals.Calories

	var morningCalories float64
	eveningEntries := 0
	for _, entry := range l.Entries {
		hour := entry.LoggedAt.In(now.Location()).Hour()
		if hour < e.MorningCutoffHour {
			morningCalories += entry.Values.Calories
		}
		if hour >= e.LateDayCutoffHour {
			eveningEntries++
		}
	}

	out := []string{}

	if calories < LowIntakeRatio*limit {
		out = append(out, LowIntake)
	}
	if calories > limit {
		out = append(out, OverLimit)
	}
	if morningCalories < MorningIntakeRatio*limit && now.Hour() > e.MorningCutoffHour {
		out = append(out, LowMorningIntake)
	}
	if l.Totals.Protein < ProteinGramsPerKg*u.Profile.WeightKg {
		out = append(out, ProteinAdvice(u.Profile.DietType))
	}
	if float64(l.WaterConsumedMl) < WaterRatio*float64(u.WaterGoalMl) {
		out = append(out, LowWater)
	}
	if calories > DinnerCalorieRatio*limit && eveningEntries == 0 {
		out = append(out, KeepDinnerLight)
	}

	return out, nil
}

// ProteinAdvice returns the low-protein advisory suited to a diet.
func ProteinAdvice(d food.DietType) string {
	switch d {
	case food.DietVeg, food.DietJain:
		return LowProteinVeg
	case food.DietEggetarian:
		return LowProteinEggetarian
	case food.DietVegan:
		return LowProteinVegan
	case food.DietNonVeg:
		return LowProteinDefault
	default:
		return LowProteinDefault
	}
}

var _ dailylog.Advisor = (*Engine)(nil)
