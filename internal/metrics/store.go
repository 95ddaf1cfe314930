package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Calculation records metadata for a single order calculation.
type Calculation struct {
	Source         string
	Headcount      int
	Days           int
	Items          int
	MissingRecipes int
	LatencyMS      int64
	Timestamp      time.Time
}

// Store handles persistence of calculation metrics to SQLite.
type Store struct {
	db *sqlx.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Record saves a metric to the database.
func (s *Store) Record(ctx context.Context, m Calculation) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calculation_metrics (source, headcount, days, items, missing_recipes, latency_ms, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.Source, m.Headcount, m.Days, m.Items, m.MissingRecipes, m.LatencyMS, ts.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record calculation metric: %w", err)
	}
	return nil
}

// DailyUsage represents calculation totals for a single day.
type DailyUsage struct {
	Date           string  `db:"day"`
	Calculations   int     `db:"calculations"`
	TotalItems     int     `db:"total_items"`
	MissingRecipes int     `db:"missing_recipes"`
	AvgLatencyMS   float64 `db:"avg_latency_ms"`
}

// GetDailyUsage retrieves usage for the last N days, newest day first.
func (s *Store) GetDailyUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	since := time.Now().UTC().AddDate(0, 0, -days).UnixMilli()

	var results []DailyUsage
	err := s.db.SelectContext(ctx, &results, `
		SELECT date(timestamp / 1000, 'unixepoch') AS day,
		       COUNT(*) AS calculations,
		       COALESCE(SUM(items), 0) AS total_items,
		       COALESCE(SUM(missing_recipes), 0) AS missing_recipes,
		       COALESCE(AVG(latency_ms), 0) AS avg_latency_ms
		FROM calculation_metrics
		WHERE timestamp >= ?
		GROUP BY day
		ORDER BY day DESC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	return results, nil
}

// Cleanup removes records older than the specified number of days.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := time.Now().UTC().AddDate(0, 0, -olderThanDays).UnixMilli()
	res, err := s.db.ExecContext(ctx, `DELETE FROM calculation_metrics WHERE timestamp < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean calculation metrics: %w", err)
	}
	return res.RowsAffected()
}
