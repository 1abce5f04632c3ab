// Package user provides user profiles, the derived daily targets and the
// activity streak.
//
// The calorie limit is derived from the body metrics and is recomputed on
// every profile save. It is never written independently of them.
package user

import (
	"time"

	"github.com/nutrilog/nutrilog/internal/food"
	"github.com/nutrilog/nutrilog/internal/nutrition"
)

// User represents a user's profile and derived goals.
type User struct {
	// ID is the unique user identifier (format: usr_XXXX).
	ID string

	Name  string
	Email string

	// Profile holds the physiological and dietary inputs.
	Profile Profile

	// DailyCalorieLimit is derived from Profile.Metrics().
	DailyCalorieLimit int

	// WaterGoalMl defaults to weight * 35 and may be overridden.
	WaterGoalMl int

	Streak Streak

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile holds the body metrics and dietary preferences of a user.
type Profile struct {
	Age           int
	Gender        nutrition.Gender
	HeightCm      float64
	WeightKg      float64
	ActivityLevel nutrition.ActivityLevel
	Goal          nutrition.Goal
	DietType      food.DietType
	Allergies     []food.Allergen
}

// Metrics returns the calorie goal inputs of the profile.
func (p Profile) Metrics() nutrition.BodyMetrics {
	return nutrition.BodyMetrics{
		Age:           p.Age,
		Gender:        p.Gender,
		HeightCm:      p.HeightCm,
		WeightKg:      p.WeightKg,
		ActivityLevel: p.ActivityLevel,
		Goal:          p.Goal,
	}
}

// Streak tracks consecutive calendar days with logging activity.
type Streak struct {
	Current int
	Longest int
	// LastActiveDate is a YYYY-MM-DD date, empty before the first activity.
	LastActiveDate string
}

func copyUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Profile.Allergies != nil {
		c.Profile.Allergies = append([]food.Allergen(nil), u.Profile.Allergies...)
	}
	return &c
}
