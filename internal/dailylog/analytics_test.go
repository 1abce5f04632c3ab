package dailylog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/nutrilog/internal/dailylog"
	"github.com/nutrilog/nutrilog/internal/food"
	"github.com/nutrilog/nutrilog/internal/nutrition"
)

func TestCategoryTotals(t *testing.T) {
	l := dailylog.New("usr_1", "2026-03-10", clockAt(6))
	for _, add := range []struct {
		f   *food.Food
		qty float64
	}{
		{rice, 100}, {rice, 200}, {egg, 100}, {milk, 100},
	} {
		_, err := l.AddEntry(add.f, add.qty, "g", clockAt(8))
		require.NoError(t, err)
	}

	mystery := &food.Food{ID: "food_mystery", Per100: food.Nutrients{Calories: 50}}
	_, err := l.AddEntry(mystery, 100, "g", clockAt(9))
	require.NoError(t, err)
	_, err = l.AddEntry(&food.Food{ID: "food_deleted", Per100: food.Nutrients{Calories: 999}}, 100, "g", clockAt(9))
	require.NoError(t, err)

	foods := map[string]*food.Food{
		rice.ID:    rice,
		egg.ID:     egg,
		milk.ID:    milk,
		mystery.ID: mystery,
	}

	got := dailylog.CategoryTotals(l, foods)

	assert.Equal(t, map[string]nutrition.Values{
		"grains":        {Calories: 390, Protein: 8.1, Carbs: 84, Fats: 0.9},
		"eggs":          {Calories: 155, Protein: 13, Carbs: 1.1, Fats: 11},
		"dairy":         {Calories: 62, Protein: 3.2, Carbs: 4.8, Fats: 3.3},
		"uncategorized": {Calories: 50},
	}, roundAll(got))
}

func TestCategoryTotals_EmptyOrAbsent(t *testing.T) {
	assert.Empty(t, dailylog.CategoryTotals(nil, nil))
	assert.Empty(t, dailylog.CategoryTotals(dailylog.New("usr_1", "2026-03-10", clockAt(6)), nil))
}

func roundAll(in map[string]nutrition.Values) map[string]nutrition.Values {
	out := make(map[string]nutrition.Values, len(in))
	for k, v := range in {
		out[k] = nutrition.Values{
			Calories: nutrition.Round2(v.Calories),
			Protein:  nutrition.Round2(v.Protein),
			Carbs:    nutrition.Round2(v.Carbs),
			Fats:     nutrition.Round2(v.Fats),
		}
	}
	return out
}
