package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nutrilog/nutrilog/internal/app"
	"github.com/nutrilog/nutrilog/internal/auth"
	"github.com/nutrilog/nutrilog/internal/clock"
	"github.com/nutrilog/nutrilog/internal/dailylog"
	"github.com/nutrilog/nutrilog/internal/food"
	"github.com/nutrilog/nutrilog/internal/nutrition"
	"github.com/nutrilog/nutrilog/internal/worker"
)

func newGoalCmd() *cobra.Command {
	var (
		m      nutrition.BodyMetrics
		gender string
		level  string
		goal   string
	)

	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Compute BMR, TDEE, daily calorie limit and water goal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m.Gender = nutrition.Gender(gender)
			m.ActivityLevel = nutrition.ActivityLevel(level)
			m.Goal = nutrition.Goal(goal)
			if err := m.Validate(); err != nil {
				return err
			}
			if m.Age <= 0 || m.HeightCm <= 0 || m.WeightKg <= 0 {
				return errors.New("age, height and weight must be positive")
			}

			w := out(cmd)
			fmt.Fprintf(w, "BMR: %.0f kcal\n", nutrition.BMR(m))
			fmt.Fprintf(w, "TDEE: %.0f kcal\n", nutrition.TDEE(m))
			fmt.Fprintf(w, "Daily limit: %d kcal\n", nutrition.DailyCalorieLimit(m))
			fmt.Fprintf(w, "Water goal: %d ml\n", nutrition.WaterGoal(m.WeightKg))
			return nil
		},
	}

	cmd.Flags().IntVar(&m.Age, "age", 0, "age in years")
	cmd.Flags().StringVar(&gender, "gender", "", "male or female")
	cmd.Flags().Float64Var(&m.HeightCm, "height", 0, "height in cm")
	cmd.Flags().Float64Var(&m.WeightKg, "weight", 0, "weight in kg")
	cmd.Flags().StringVar(&level, "activity", string(nutrition.ActivityModerate), "sedentary, light, moderate or heavy")
	cmd.Flags().StringVar(&goal, "goal", string(nutrition.GoalMaintenance), "fat_loss, maintenance or muscle_gain")
	for _, f := range []string{"age", "gender", "height", "weight"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		userID string
		admin  bool
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.JWTSigningKey == "" {
				return errors.New("JWT_SIGNING_KEY is not set")
			}

			role := auth.RoleUser
			if admin {
				role = auth.RoleAdmin
			}

			svc := auth.NewJWTService(auth.JWTConfig{
				SigningKey: cfg.JWTSigningKey,
				Issuer:     cfg.JWTIssuer,
				Audience:   cfg.JWTAudience,
				TTL:        ttl,
			})
			token, expiresAt, err := svc.GenerateAccessToken(userID, role)
			if err != nil {
				return err
			}

			fmt.Fprintln(out(cmd), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id placed in the token subject")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the admin role")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Upsert the built-in global food catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withServices(cmd, func(ctx context.Context, s *app.Services) error {
				n, err := s.Foods.Seed(ctx, food.DefaultCatalog())
				if err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "Seeded %d foods\n", n)
				return nil
			})
		},
	}
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		userID string
		days   int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show a user's daily totals, oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withServices(cmd, func(ctx context.Context, s *app.Services) error {
				summaries, err := s.Logs.History(ctx, userID, days)
				if err != nil {
					return err
				}
				return printHistory(cmd, summaries)
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().IntVar(&days, "days", dailylog.DefaultHistoryDays, "window size, clamped to 1..90")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func printHistory(cmd *cobra.Command, summaries []dailylog.DaySummary) error {
	tw := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tKCAL\tPROTEIN\tCARBS\tFATS\tWATER")
	for _, d := range summaries {
		fmt.Fprintf(tw, "%s\t%.0f\t%.1f\t%.1f\t%.1f\t%d\n",
			d.Date, d.Totals.Calories, d.Totals.Protein, d.Totals.Carbs, d.Totals.Fats, d.WaterConsumedMl)
	}
	return tw.Flush()
}

func newEnqueueCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Publish a job for the worker",
	}

	var date string
	refresh := &cobra.Command{
		Use:   "suggestions-refresh",
		Short: "Regenerate suggestions for every log on a date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if date != "" {
				if _, err := clock.ParseDate(date); err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
			}
			return withPublisher(cmd, opts, func(ctx context.Context, p *worker.Publisher) (string, error) {
				return p.PublishSuggestionsRefresh(ctx, date)
			})
		},
	}
	refresh.Flags().StringVar(&date, "date", "", "YYYY-MM-DD, defaults to the worker's today")

	health := &cobra.Command{
		Use:   "health-check",
		Short: "Ask the worker to probe its dependencies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPublisher(cmd, opts, func(ctx context.Context, p *worker.Publisher) (string, error) {
				return p.PublishHealthCheck(ctx)
			})
		},
	}

	cmd.AddCommand(refresh, health)
	return cmd
}

func withPublisher(cmd *cobra.Command, opts *rootOptions, fn func(context.Context, *worker.Publisher) (string, error)) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	if cfg.PubSubProjectID == "" {
		return errors.New("PUBSUB_PROJECT_ID is not set")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	p, err := worker.NewPublisher(ctx, cfg.PubSubProjectID, cfg.PubSubTopic)
	if err != nil {
		return err
	}
	defer p.Close() //nolint:errcheck

	id, err := fn(ctx, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(out(cmd), "Published message %s\n", id)
	return nil
}
