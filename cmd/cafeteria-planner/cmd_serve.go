package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cafeteria-planner/internal/app"
	"cafeteria-planner/internal/auth"
	"cafeteria-planner/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the JSON API on PORT. Every /api route needs a bearer token signed
with JWT_SECRET; use the token command to issue one.

Examples:
  cafeteria-planner serve
  cafeteria-planner serve --cors-origin https://menu.example.com`,
	RunE: runServe,
}

var serveCORSOrigins []string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringSliceVar(&serveCORSOrigins, "cors-origin", nil, "Allowed CORS origin (repeatable, default any)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireJWTSecret(); err != nil {
		return err
	}
	authManager, err := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	return withApp(cmd.Context(), func(a *app.App) error {
		srv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           server.New(a, authManager, serveCORSOrigins).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("port", cfg.Port).Msg("api server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return err
		case <-quit:
		}
		log.Info().Msg("shutting down server")

		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			return err
		}
		log.Info().Msg("server exiting")
		return nil
	})
}
