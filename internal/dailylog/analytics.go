package dailylog

import (
	"github.com/nutrilog/nutrilog/internal/food"
	"github.com/nutrilog/nutrilog/internal/nutrition"
)

// Uncategorized groups entries whose food carries no category.
const Uncategorized = "uncategorized"

// CategoryTotals sums entry values per food category. Entries whose food is
// missing from foods are skipped. A nil log yields an empty map.
func CategoryTotals(l *DailyLog, foods map[string]*food.Food) map[string]nutrition.Values {
	totals := make(map[string]nutrition.Values)
	if l == nil {
		return totals
	}

	for _, e := range l.Entries {
		f, ok := foods[e.FoodID]
		if !ok || f == nil {
			continue
		}
		category := string(f.Category)
		if category == "" {
			category = Uncategorized
		}
		totals[category] = totals[category].Add(e.Values)
	}
	return totals
}
