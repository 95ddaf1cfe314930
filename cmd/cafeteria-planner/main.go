package main

import (
	"context"
	"fmt"
	"os"

	"cafeteria-planner/internal/app"
	"cafeteria-planner/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var cfg *config.Config

// rootCmd is the base command for the planner CLI
var rootCmd = &cobra.Command{
	Use:   "cafeteria-planner",
	Short: "Weekly cafeteria menu planner and ingredient order calculator",
	Long: `cafeteria-planner keeps the recipe catalog of a cafeteria, turns a weekly
menu and a headcount into an aggregated ingredient order, and stores the
orders it calculates.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.NewFromEnv()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		config.SetupLogging(loaded.LogLevel, loaded.LogFormat)
		cfg = loaded
		return nil
	},
}

// withApp builds the application for one command and releases it afterwards.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, closeFn, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFn(); err != nil {
			log.Error().Err(err).Msg("failed to close resources")
		}
	}()
	return fn(a)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
