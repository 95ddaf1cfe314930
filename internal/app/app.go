package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cafeteria-planner/internal/catalog"
	"cafeteria-planner/internal/history"
	"cafeteria-planner/internal/menu"
	"cafeteria-planner/internal/metrics"
	"cafeteria-planner/internal/order"
	"cafeteria-planner/internal/recipe"

	"github.com/rs/zerolog/log"
)

// Calculation sources, used as the metrics label.
const (
	SourceAPI = "api"
	SourceBot = "bot"
	SourceCLI = "cli"
)

// ErrHistoryDisabled is returned when no history repository is configured.
var ErrHistoryDisabled = errors.New("order history is not configured")

// App holds the application's dependencies.
type App struct {
	catalog      *catalog.Store
	calculator   *order.Calculator
	history      history.Repository
	metricsStore *metrics.Store
	collectors   *metrics.Collectors
	dataDir      string
}

// NewApp creates an App. history, metricsStore and collectors may be nil.
func NewApp(
	store *catalog.Store,
	calculator *order.Calculator,
	historyRepo history.Repository,
	metricsStore *metrics.Store,
	collectors *metrics.Collectors,
	dataDir string,
) *App {
	return &App{
		catalog:      store,
		calculator:   calculator,
		history:      historyRepo,
		metricsStore: metricsStore,
		collectors:   collectors,
		dataDir:      dataDir,
	}
}

// CalculateRequest is one order calculation.
type CalculateRequest struct {
	UserID    string
	Source    string
	Menu      menu.WeeklyMenu
	Headcount int
	Day       menu.DayFilter
	// Save stores the result in the user's history.
	Save bool
	// Extra recipes are looked up after the catalog, for this request only.
	Extra []recipe.Recipe
}

// Calculate runs the order calculator over the current catalog.
func (a *App) Calculate(ctx context.Context, req CalculateRequest) (order.Result, *history.Record, error) {
	recipes := a.catalog.Recipes()
	if len(req.Extra) > 0 {
		recipes = append(recipes, req.Extra...)
	}

	start := time.Now()
	res, err := a.calculator.Calculate(recipes, req.Menu, req.Headcount, req.Day)
	elapsed := time.Since(start)
	a.observe(ctx, req, res, elapsed, err)
	if err != nil {
		return order.Result{}, nil, err
	}

	for _, w := range res.Warnings {
		log.Warn().Str("user", req.UserID).Str("day", w.Day.String()).Str("slot", w.Slot.String()).
			Str("recipe", w.Recipe).Msg("menu references an unknown recipe")
	}

	if !req.Save || req.UserID == "" {
		return res, nil, nil
	}
	if a.history == nil {
		return res, nil, ErrHistoryDisabled
	}

	rec := history.NewRecord(req.UserID, req.Headcount, req.Day, req.Menu, res.Items)
	if err := a.history.Save(ctx, rec); err != nil {
		return res, nil, fmt.Errorf("failed to save order history: %w", err)
	}
	return res, rec, nil
}

func (a *App) observe(ctx context.Context, req CalculateRequest, res order.Result, elapsed time.Duration, err error) {
	source := req.Source
	if source == "" {
		source = SourceAPI
	}
	if a.collectors != nil {
		a.collectors.ObserveCalculation(source, elapsed, len(res.Warnings), err)
	}
	if a.metricsStore == nil || err != nil {
		return
	}

	m := metrics.Calculation{
		Source:         source,
		Headcount:      req.Headcount,
		Days:           len(req.Day.Days()),
		Items:          len(res.Items),
		MissingRecipes: len(res.Warnings),
		LatencyMS:      elapsed.Milliseconds(),
	}
	if err := a.metricsStore.Record(ctx, m); err != nil {
		log.Warn().Err(err).Msg("failed to record calculation metric")
	}
}

// History lists the saved orders of userID, newest first.
func (a *App) History(ctx context.Context, userID string, r history.Range) ([]history.Record, error) {
	if a.history == nil {
		return nil, ErrHistoryDisabled
	}
	return a.history.List(ctx, userID, r)
}

// Recipes returns the catalog.
func (a *App) Recipes() []catalog.Entry {
	return a.catalog.Entries()
}

// RecipesByCategory returns the catalog recipes of category c.
func (a *App) RecipesByCategory(c recipe.Category) []recipe.Recipe {
	return a.catalog.ByCategory(c)
}

// FindRecipe returns the first recipe named name.
func (a *App) FindRecipe(name string) (recipe.Recipe, bool) {
	return a.catalog.Find(name)
}

func (a *App) AddRecipe(ctx context.Context, r recipe.Recipe) error {
	if err := a.catalog.Add(ctx, r); err != nil {
		return err
	}
	a.recipeChanged("add", r.Name)
	return nil
}

func (a *App) ReplaceRecipe(ctx context.Context, index int, r recipe.Recipe) error {
	if err := a.catalog.Replace(ctx, index, r); err != nil {
		return err
	}
	a.recipeChanged("replace", r.Name)
	return nil
}

func (a *App) RemoveRecipe(ctx context.Context, name string) error {
	if err := a.catalog.Remove(ctx, name); err != nil {
		return err
	}
	a.recipeChanged("remove", name)
	return nil
}

func (a *App) recipeChanged(op, name string) {
	if a.collectors != nil {
		a.collectors.RecipeChanges.WithLabelValues(op).Inc()
	}
	log.Info().Str("op", op).Str("recipe", name).Msg("catalog updated")
}

// Usage reports the calculation totals of the last days together with the
// process health.
type Usage struct {
	Daily  []metrics.DailyUsage
	Health metrics.SysHealth
}

func (a *App) Usage(ctx context.Context, days int) (Usage, error) {
	u := Usage{Health: a.Health()}
	if a.metricsStore == nil {
		return u, nil
	}
	daily, err := a.metricsStore.GetDailyUsage(ctx, days)
	if err != nil {
		return u, err
	}
	u.Daily = daily
	return u, nil
}

// Health returns the process snapshot.
func (a *App) Health() metrics.SysHealth {
	return metrics.GetSysHealth(a.dataDir)
}

// Collectors returns the Prometheus collectors, or nil.
func (a *App) Collectors() *metrics.Collectors {
	return a.collectors
}

// CleanupMetrics deletes calculation metrics older than the given number of days.
func (a *App) CleanupMetrics(ctx context.Context, olderThanDays int) (int64, error) {
	if a.metricsStore == nil {
		return 0, nil
	}
	return a.metricsStore.Cleanup(ctx, olderThanDays)
}

// CleanupHistory deletes saved orders older than the given number of days.
func (a *App) CleanupHistory(ctx context.Context, olderThanDays int) (int64, error) {
	if a.history == nil {
		return 0, ErrHistoryDisabled
	}
	return a.history.Cleanup(ctx, time.Now().UTC().AddDate(0, 0, -olderThanDays))
}
