package main

import (
	"fmt"

	"cafeteria-planner/internal/app"
	"cafeteria-planner/internal/auth"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var metricsCleanupCmd = &cobra.Command{
	Use:   "metrics-cleanup",
	Short: "Delete old calculation metrics",
	Long: `Delete calculation metrics older than --days. With --history saved orders
older than the same cutoff are deleted too.

Examples:
  cafeteria-planner metrics-cleanup
  cafeteria-planner metrics-cleanup --days 90 --history`,
	RunE: runMetricsCleanup,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token for a user",
	Long: `Sign a bearer token for the HTTP API with JWT_SECRET. Intended for
development and scripts.

Examples:
  cafeteria-planner token --user cocina`,
	RunE: runToken,
}

var (
	cleanupDays    int
	cleanupHistory bool
	tokenUser      string
)

func init() {
	rootCmd.AddCommand(metricsCleanupCmd)
	rootCmd.AddCommand(tokenCmd)

	metricsCleanupCmd.Flags().IntVar(&cleanupDays, "days", 30, "Keep this many days")
	metricsCleanupCmd.Flags().BoolVar(&cleanupHistory, "history", false, "Also delete saved orders")

	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "User id carried by the token")
	_ = tokenCmd.MarkFlagRequired("user")
}

func runMetricsCleanup(cmd *cobra.Command, args []string) error {
	if cleanupDays < 0 {
		return fmt.Errorf("--days must not be negative, got %d", cleanupDays)
	}

	return withApp(cmd.Context(), func(a *app.App) error {
		n, err := a.CleanupMetrics(cmd.Context(), cleanupDays)
		if err != nil {
			return fmt.Errorf("failed to clean up metrics: %w", err)
		}
		log.Info().Int64("deleted", n).Int("days", cleanupDays).Msg("metrics cleaned up")
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d metrics\n", n)

		if !cleanupHistory {
			return nil
		}
		n, err = a.CleanupHistory(cmd.Context(), cleanupDays)
		if err != nil {
			return fmt.Errorf("failed to clean up history: %w", err)
		}
		log.Info().Int64("deleted", n).Int("days", cleanupDays).Msg("history cleaned up")
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d orders\n", n)
		return nil
	})
}

func runToken(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireJWTSecret(); err != nil {
		return err
	}
	m, err := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}
	token, err := m.Generate(tokenUser)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
