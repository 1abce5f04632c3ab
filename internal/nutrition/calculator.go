package nutrition

import (
	"math"

	"github.com/nutrilog/nutrilog/internal/food"
)

// Values are the macros attributed to one logged quantity.
type Values struct {
	Calories float64
	Protein  float64
	Carbs    float64
	Fats     float64
}

// Add returns the element-wise sum of v and o.
func (v Values) Add(o Values) Values {
	return Values{
		Calories: v.Calories + o.Calories,
		Protein:  v.Protein + o.Protein,
		Carbs:    v.Carbs + o.Carbs,
		Fats:     v.Fats + o.Fats,
	}
}

// ComputeValues scales f's per-100 profile to normalizedQuantity base units.
// Each value is rounded to two decimals. Callers reject non-positive
// quantities before calling.
func ComputeValues(f *food.Food, normalizedQuantity float64) Values {
	factor := normalizedQuantity / 100
	return Values{
		Calories: Round2(f.Per100.Calories * factor),
		Protein:  Round2(f.Per100.Protein * factor),
		Carbs:    Round2(f.Per100.Carbs * factor),
		Fats:     Round2(f.Per100.Fats * factor),
	}
}

// Round2 rounds x to two decimal places, halves away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
