package handler

import (
	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/dailylog"
	"github.com/nutrilog/nutrilog/internal/food"
	"github.com/nutrilog/nutrilog/internal/nutrition"
	"github.com/nutrilog/nutrilog/internal/user"
)

// toMacros rounds v for display. Stored totals keep full precision.
func toMacros(v nutrition.Values) models.Macros {
	return models.Macros{
		Calories: nutrition.Round2(v.Calories),
		Protein:  nutrition.Round2(v.Protein),
		Carbs:    nutrition.Round2(v.Carbs),
		Fats:     nutrition.Round2(v.Fats),
	}
}

func toMe(u *user.User) models.Me {
	allergies := make([]string, 0, len(u.Profile.Allergies))
	for _, a := range u.Profile.Allergies {
		allergies = append(allergies, string(a))
	}

	return models.Me{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Profile: models.Profile{
			Age:           u.Profile.Age,
			Gender:        string(u.Profile.Gender),
			HeightCm:      u.Profile.HeightCm,
			WeightKg:      u.Profile.WeightKg,
			ActivityLevel: string(u.Profile.ActivityLevel),
			Goal:          string(u.Profile.Goal),
			DietType:      string(u.Profile.DietType),
			Allergies:     allergies,
		},
		DailyCalorieLimit: u.DailyCalorieLimit,
		WaterGoalMl:       u.WaterGoalMl,
		Streak: models.Streak{
			Current:        u.Streak.Current,
			Longest:        u.Streak.Longest,
			LastActiveDate: u.Streak.LastActiveDate,
		},
		CreatedAt: models.Timestamp(u.CreatedAt),
		UpdatedAt: models.Timestamp(u.UpdatedAt),
	}
}

func toProfileInput(in models.ProfileInput) user.ProfileInput {
	allergies := make([]food.Allergen, 0, len(in.Allergies))
	for _, a := range in.Allergies {
		allergies = append(allergies, food.Allergen(a))
	}

	return user.ProfileInput{
		Name:          in.Name,
		Email:         in.Email,
		Age:           in.Age,
		Gender:        nutrition.Gender(in.Gender),
		HeightCm:      in.HeightCm,
		WeightKg:      in.WeightKg,
		ActivityLevel: nutrition.ActivityLevel(in.ActivityLevel),
		Goal:          nutrition.Goal(in.Goal),
		DietType:      food.DietType(in.DietType),
		Allergies:     allergies,
		WaterGoalMl:   in.WaterGoalMl,
	}
}

func toDailyLog(l *dailylog.DailyLog) models.DailyLog {
	entries := make([]models.LogEntry, 0, len(l.Entries))
	for _, e := range l.Entries {
		entries = append(entries, models.LogEntry{
			ID:       e.ID,
			FoodID:   e.FoodID,
			Quantity: e.Quantity,
			Unit:     e.Unit,
			Values:   toMacros(e.Values),
			LoggedAt: models.Timestamp(e.LoggedAt),
		})
	}

	suggestions := l.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}

	return models.DailyLog{
		ID:              l.ID,
		Date:            l.Date,
		Entries:         entries,
		WaterConsumedMl: l.WaterConsumedMl,
		Totals:          toMacros(l.Totals),
		Suggestions:     suggestions,
		UpdatedAt:       models.Timestamp(l.UpdatedAt),
	}
}

func toFood(f *food.Food) models.Food {
	allergens := make([]string, 0, len(f.Allergens))
	for _, a := range f.Allergens {
		allergens = append(allergens, string(a))
	}

	return models.Food{
		ID:       f.ID,
		Name:     f.Name,
		Category: string(f.Category),
		Per100: models.Macros{
			Calories: f.Per100.Calories,
			Protein:  f.Per100.Protein,
			Carbs:    f.Per100.Carbs,
			Fats:     f.Per100.Fats,
		},
		UnitType:  string(f.UnitType),
		BaseUnit:  string(f.BaseUnit),
		Tags:      models.FoodTags(f.Tags),
		Allergens: allergens,
		Global:    f.IsGlobal(),
		External:  f.External,
	}
}

func toFoodList(foods []*food.Food) models.FoodList {
	items := make([]models.Food, 0, len(foods))
	for _, f := range foods {
		items = append(items, toFood(f))
	}
	return models.FoodList{Items: items}
}

func toCategoryTotals(date string, totals map[string]nutrition.Values) models.CategoryTotals {
	categories := make(map[string]models.Macros, len(totals))
	for c, v := range totals {
		categories[c] = toMacros(v)
	}
	return models.CategoryTotals{Date: date, Categories: categories}
}

func toHistory(days []dailylog.DaySummary) models.History {
	items := make([]models.DaySummary, 0, len(days))
	for _, d := range days {
		items = append(items, models.DaySummary{
			Date:            d.Date,
			Totals:          toMacros(d.Totals),
			WaterConsumedMl: d.WaterConsumedMl,
		})
	}
	return models.History{Days: len(items), Items: items}
}
