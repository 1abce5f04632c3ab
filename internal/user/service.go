package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/clock"
	"github.com/nutrilog/nutrilog/internal/food"
	"github.com/nutrilog/nutrilog/internal/nutrition"
)

// Profile bounds accepted by UpsertProfile.
const (
	MinAge      = 1
	MaxAge      = 120
	MinHeightCm = 50
	MaxHeightCm = 272
	MinWeightKg = 2
	MaxWeightKg = 635
)

// Purger removes data a user owns outside the users table.
type Purger interface {
	PurgeUser(ctx context.Context, userID string) error
}

// ServiceConfig holds configuration for the user service.
type ServiceConfig struct {
	Repository Repository
	Clock      clock.Clock
	Logger     zerolog.Logger
	// Purgers run before the user record is removed by Delete.
	Purgers []Purger
}

// Service provides user profile operations.
type Service struct {
	repo    Repository
	clock   clock.Clock
	logger  zerolog.Logger
	purgers []Purger
}

// NewService creates a new user service.
func NewService(cfg ServiceConfig) *Service {
	c := cfg.Clock
	if c == nil {
		c = clock.NewSystem(nil)
	}
	return &Service{
		repo:    cfg.Repository,
		clock:   c,
		logger:  cfg.Logger,
		purgers: cfg.Purgers,
	}
}

// NewID generates a new user identifier.
func NewID() string {
	return "usr_" + uuid.New().String()[:22]
}

// ProfileInput is the full profile submitted by a user.
type ProfileInput struct {
	Name          string
	Email         string
	Age           int
	Gender        nutrition.Gender
	HeightCm      float64
	WeightKg      float64
	ActivityLevel nutrition.ActivityLevel
	Goal          nutrition.Goal
	DietType      food.DietType
	Allergies     []food.Allergen
	// WaterGoalMl overrides the weight-derived default when set.
	WaterGoalMl *int
}

// Get retrieves a user.
func (s *Service) Get(ctx context.Context, userID string) (*User, error) {
	return s.repo.Get(ctx, userID)
}

// UpsertProfile creates the user on first save and replaces the profile on
// later saves. The calorie limit is recomputed on every save. The water goal
// follows the weight until the user sets a custom one; the streak is left to
// TouchStreak.
func (s *Service) UpsertProfile(ctx context.Context, userID string, in ProfileInput) (*User, error) {
	if errs := validateProfile(in); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	now := s.clock.Now()

	u, err := s.repo.Get(ctx, userID)
	switch {
	case errors.Is(err, ErrUserNotFound):
		u = &User{ID: userID, CreatedAt: now}
	case err != nil:
		return nil, err
	}
	customWater := u.WaterGoalMl != 0 && u.WaterGoalMl != nutrition.WaterGoal(u.Profile.WeightKg)

	u.Name = strings.TrimSpace(in.Name)
	u.Email = strings.ToLower(strings.TrimSpace(in.Email))
	u.Profile = Profile{
		Age:           in.Age,
		Gender:        in.Gender,
		HeightCm:      in.HeightCm,
		WeightKg:      in.WeightKg,
		ActivityLevel: in.ActivityLevel,
		Goal:          in.Goal,
		DietType:      in.DietType,
		Allergies:     dedupeAllergens(in.Allergies),
	}
	u.DailyCalorieLimit = nutrition.DailyCalorieLimit(u.Profile.Metrics())
	switch {
	case in.WaterGoalMl != nil:
		u.WaterGoalMl = *in.WaterGoalMl
	case !customWater:
		u.WaterGoalMl = nutrition.WaterGoal(in.WeightKg)
	}
	u.UpdatedAt = now

	if err := s.repo.Put(ctx, u); err != nil {
		return nil, fmt.Errorf("saving user: %w", err)
	}

	s.logger.Debug().
		Str("user_id", u.ID).
		Int("daily_calorie_limit", u.DailyCalorieLimit).
		Msg("profile saved")

	return u, nil
}

// Delete removes a user together with the logs and private foods they own.
// It is idempotent, so a partially failed delete can be retried.
func (s *Service) Delete(ctx context.Context, userID string) error {
	for _, p := range s.purgers {
		if err := p.PurgeUser(ctx, userID); err != nil {
			return fmt.Errorf("purging user data: %w", err)
		}
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID).Msg("user deleted")
	return nil
}

// TouchStreak records logging activity for today. Calling it more than once a
// day is harmless.
func (s *Service) TouchStreak(ctx context.Context, userID string) (*User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !u.Streak.Touch(clock.Today(s.clock)) {
		return u, nil
	}

	if err := s.repo.UpdateStreak(ctx, userID, u.Streak); err != nil {
		return nil, fmt.Errorf("saving streak: %w", err)
	}
	return u, nil
}

func validateProfile(in ProfileInput) []models.FieldError {
	var errs []models.FieldError

	if in.Age < MinAge || in.Age > MaxAge {
		errs = append(errs, models.FieldError{
			Field: "age", Message: fmt.Sprintf("must be between %d and %d", MinAge, MaxAge), Code: "out_of_range",
		})
	}
	if !in.Gender.Valid() {
		errs = append(errs, models.FieldError{Field: "gender", Message: "must be male or female", Code: "invalid"})
	}
	if in.HeightCm < MinHeightCm || in.HeightCm > MaxHeightCm {
		errs = append(errs, models.FieldError{
			Field: "heightCm", Message: fmt.Sprintf("must be between %d and %d", MinHeightCm, MaxHeightCm), Code: "out_of_range",
		})
	}
	if in.WeightKg < MinWeightKg || in.WeightKg > MaxWeightKg {
		errs = append(errs, models.FieldError{
			Field: "weightKg", Message: fmt.Sprintf("must be between %d and %d", MinWeightKg, MaxWeightKg), Code: "out_of_range",
		})
	}
	if !in.ActivityLevel.Valid() {
		errs = append(errs, models.FieldError{Field: "activityLevel", Message: "unknown activity level", Code: "invalid"})
	}
	if !in.Goal.Valid() {
		errs = append(errs, models.FieldError{Field: "goal", Message: "unknown goal", Code: "invalid"})
	}
	if !in.DietType.Valid() {
		errs = append(errs, models.FieldError{Field: "dietType", Message: "unknown diet type", Code: "invalid"})
	}
	for _, a := range in.Allergies {
		if !a.Valid() {
			errs = append(errs, models.FieldError{Field: "allergies", Message: fmt.Sprintf("unknown allergen %q", a), Code: "invalid"})
			break
		}
	}
	if in.WaterGoalMl != nil && *in.WaterGoalMl < 0 {
		errs = append(errs, models.FieldError{Field: "waterGoalMl", Message: "must not be negative", Code: "out_of_range"})
	}

	return errs
}

func dedupeAllergens(in []food.Allergen) []food.Allergen {
	out := make([]food.Allergen, 0, len(in))
	seen := make(map[food.Allergen]bool, len(in))
	for _, a := range in {
		if seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
