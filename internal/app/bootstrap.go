package app

import (
	"context"
	"errors"
	"fmt"

	"cafeteria-planner/internal/catalog"
	"cafeteria-planner/internal/config"
	"cafeteria-planner/internal/database"
	"cafeteria-planner/internal/history"
	"cafeteria-planner/internal/metrics"
	"cafeteria-planner/internal/order"
	"cafeteria-planner/internal/recipe"
	"cafeteria-planner/internal/storage"

	"github.com/rs/zerolog/log"
)

// Build wires every component from cfg. The returned close function releases
// the connections it opened.
func Build(ctx context.Context, cfg *config.Config) (*App, func() error, error) {
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (*App, func() error, error) {
		_ = closeAll()
		return nil, nil, err
	}

	rules, err := config.LoadRules(cfg.RulesPath)
	if err != nil {
		return fail(err)
	}

	preloaded, err := loadPreloaded(cfg.PreloadedRecipesPath)
	if err != nil {
		return fail(err)
	}

	userStore, closeStore, err := openUserStore(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	if closeStore != nil {
		closers = append(closers, closeStore)
	}

	store, err := catalog.Open(ctx, preloaded, userStore)
	if err != nil {
		return fail(err)
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize database: %w", err))
	}
	closers = append(closers, db.Close)

	var historyRepo history.Repository
	if cfg.DatabaseURL != "" {
		pool, err := history.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() error { pool.Close(); return nil })
		historyRepo = history.NewPostgresRepository(pool)
		log.Info().Msg("order history stored in PostgreSQL")
	} else {
		historyRepo = history.NewSQLiteRepository(db.SQL)
	}

	a := NewApp(
		store,
		order.NewCalculator(rules),
		historyRepo,
		metrics.NewStore(db.SQL),
		metrics.NewCollectors(),
		cfg.DataDir(),
	)
	log.Info().Int("recipes", len(store.Entries())).Str("db", cfg.DatabasePath).Msg("application ready")
	return a, closeAll, nil
}

func loadPreloaded(path string) ([]recipe.Recipe, error) {
	if path != "" {
		return recipe.LoadFile(path)
	}
	return recipe.Preloaded()
}

func openUserStore(ctx context.Context, cfg *config.Config) (catalog.UserStore, func() error, error) {
	if cfg.RedisAddr != "" {
		client, err := storage.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("addr", cfg.RedisAddr).Str("key", cfg.RedisKey).Msg("user recipes stored in Redis")
		return storage.NewRedisStore(client, cfg.RedisKey), client.Close, nil
	}

	fs, err := storage.NewFileStore(cfg.RecipeStorePath)
	if err != nil {
		return nil, nil, err
	}
	return fs, nil, nil
}
