package main

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nutrilog/nutrilog/internal/app"
	"github.com/nutrilog/nutrilog/internal/config"
)

type rootOptions struct {
	envFile string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "nutrictl",
		Short:         "nutrictl operates a NutriLog deployment",
		Long:          "nutrictl seeds the food catalog, computes calorie goals, mints development tokens, inspects history and enqueues worker jobs.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log service activity to stderr")

	cmd.AddCommand(
		newGoalCmd(),
		newTokenCmd(opts),
		newSeedCmd(opts),
		newHistoryCmd(opts),
		newEnqueueCmd(opts),
	)
	return cmd
}

func (o *rootOptions) load() (config.Config, error) {
	return config.Load(o.envFile)
}

func (o *rootOptions) logger(cmd *cobra.Command, cfg config.Config) zerolog.Logger {
	if !o.verbose {
		return zerolog.Nop()
	}
	cfg.LogFormat = "console"
	return cfg.NewLogger(cmd.ErrOrStderr(), "nutrictl", Version)
}

// withServices builds the service graph for one command and closes it afterwards.
func (o *rootOptions) withServices(cmd *cobra.Command, fn func(ctx context.Context, s *app.Services) error) error {
	cfg, err := o.load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := app.Build(ctx, cfg, o.logger(cmd, cfg), app.Options{Migrate: true})
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(ctx, s)
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
