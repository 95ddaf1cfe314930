package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores records in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// ConnectPostgres opens a pool for dsn and makes sure the schema exists.
func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func initSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS order_history (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			headcount INT NOT NULL,
			day_filter TEXT NOT NULL,
			menu JSONB NOT NULL,
			items JSONB NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to initialize order_history schema: %w", err)
	}

	_, err = db.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_order_history_user_created
		ON order_history (user_id, created_at DESC)
	`)
	if err != nil {
		return fmt.Errorf("failed to create order_history index: %w", err)
	}
	return nil
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Save(ctx context.Context, rec *Record) error {
	m, err := json.Marshal(rec.Menu)
	if err != nil {
		return fmt.Errorf("failed to marshal menu: %w", err)
	}
	items, err := json.Marshal(rec.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO order_history (id, user_id, created_at, headcount, day_filter, menu, items)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb)
	`, rec.ID, rec.UserID, rec.CreatedAt, rec.Headcount, rec.DayFilter.String(), string(m), string(items))
	if err != nil {
		return fmt.Errorf("failed to insert order history: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string, rng Range) ([]Record, error) {
	query := `
		SELECT id::text, user_id, created_at, headcount, day_filter, menu::text, items::text
		FROM order_history
		WHERE user_id = $1`
	args := []any{userID}
	if !rng.From.IsZero() {
		args = append(args, rng.From)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !rng.To.IsZero() {
		args = append(args, rng.To)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list order history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			id, user, dayFilter, menuJSON, itemsJSON string
			createdAt                                time.Time
			headcount                                int
		)
		if err := rows.Scan(&id, &user, &createdAt, &headcount, &dayFilter, &menuJSON, &itemsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan order history: %w", err)
		}
		rec, err := decodeRecord(id, user, createdAt.UTC(), headcount, dayFilter, menuJSON, itemsJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Cleanup(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM order_history WHERE created_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to clean order history: %w", err)
	}
	return tag.RowsAffected(), nil
}
