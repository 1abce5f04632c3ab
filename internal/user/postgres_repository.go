package user

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutrilog/nutrilog/internal/food"
	"github.com/nutrilog/nutrilog/internal/nutrition"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL user repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a user by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT
			user_id, name, email,
			age, gender, height_cm, weight_kg, activity_level, goal, diet_type, allergies,
			daily_calorie_limit, water_goal_ml,
			streak_current, streak_longest, COALESCE(streak_last_active::text, ''),
			created_at, updated_at
		FROM users
		WHERE user_id = $1
	`

	var (
		u         User
		gender    string
		activity  string
		goal      string
		diet      string
		allergies []string
	)

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Profile.Age,
		&gender,
		&u.Profile.HeightCm,
		&u.Profile.WeightKg,
		&activity,
		&goal,
		&diet,
		&allergies,
		&u.DailyCalorieLimit,
		&u.WaterGoalMl,
		&u.Streak.Current,
		&u.Streak.Longest,
		&u.Streak.LastActiveDate,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	u.Profile.Gender = nutrition.Gender(gender)
	u.Profile.ActivityLevel = nutrition.ActivityLevel(activity)
	u.Profile.Goal = nutrition.Goal(goal)
	u.Profile.DietType = food.DietType(diet)
	u.Profile.Allergies = make([]food.Allergen, 0, len(allergies))
	for _, a := range allergies {
		u.Profile.Allergies = append(u.Profile.Allergies, food.Allergen(a))
	}

	return &u, nil
}

// Put creates a user or replaces its profile, leaving the stored streak alone.
func (r *PostgresRepository) Put(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (
			user_id, name, email,
			age, gender, height_cm, weight_kg, activity_level, goal, diet_type, allergies,
			daily_calorie_limit, water_goal_ml,
			streak_current, streak_longest, streak_last_active,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			NULLIF($16, '')::date, $17, $18
		)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			age = EXCLUDED.age,
			gender = EXCLUDED.gender,
			height_cm = EXCLUDED.height_cm,
			weight_kg = EXCLUDED.weight_kg,
			activity_level = EXCLUDED.activity_level,
			goal = EXCLUDED.goal,
			diet_type = EXCLUDED.diet_type,
			allergies = EXCLUDED.allergies,
			daily_calorie_limit = EXCLUDED.daily_calorie_limit,
			water_goal_ml = EXCLUDED.water_goal_ml,
			updated_at = EXCLUDED.updated_at
	`

	allergies := make([]string, 0, len(u.Profile.Allergies))
	for _, a := range u.Profile.Allergies {
		allergies = append(allergies, string(a))
	}

	_, err := r.pool.Exec(ctx, query,
		u.ID,
		u.Name,
		u.Email,
		u.Profile.Age,
		string(u.Profile.Gender),
		u.Profile.HeightCm,
		u.Profile.WeightKg,
		string(u.Profile.ActivityLevel),
		string(u.Profile.Goal),
		string(u.Profile.DietType),
		allergies,
		u.DailyCalorieLimit,
		u.WaterGoalMl,
		u.Streak.Current,
		u.Streak.Longest,
		u.Streak.LastActiveDate,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return err
}

// UpdateStreak stores the streak of an existing user.
func (r *PostgresRepository) UpdateStreak(ctx context.Context, id string, streak Streak) error {
	query := `
		UPDATE users SET
			streak_current = $2,
			streak_longest = $3,
			streak_last_active = NULLIF($4, '')::date,
			updated_at = $5
		WHERE user_id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, streak.Current, streak.Longest, streak.LastActiveDate, time.Now())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete deletes a user. Owned logs and foods are purged by the service.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE user_id = $1`, id)
	return err
}

var _ Repository = (*PostgresRepository)(nil)
