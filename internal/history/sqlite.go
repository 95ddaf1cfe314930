package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cafeteria-planner/internal/menu"

	"github.com/jmoiron/sqlx"
)

// SQLiteRepository stores records in the order_history table.
type SQLiteRepository struct {
	db *sqlx.DB
}

func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

type sqliteRow struct {
	ID        string `db:"id"`
	UserID    string `db:"user_id"`
	CreatedAt int64  `db:"created_at"`
	Headcount int    `db:"headcount"`
	DayFilter string `db:"day_filter"`
	Menu      string `db:"menu"`
	Items     string `db:"items"`
}

func (r *SQLiteRepository) Save(ctx context.Context, rec *Record) error {
	row, err := encodeRow(rec)
	if err != nil {
		return err
	}

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO order_history (id, user_id, created_at, headcount, day_filter, menu, items)
		VALUES (:id, :user_id, :created_at, :headcount, :day_filter, :menu, :items)
	`, row)
	if err != nil {
		return fmt.Errorf("failed to insert order history: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, userID string, rng Range) ([]Record, error) {
	query := `SELECT id, user_id, created_at, headcount, day_filter, menu, items FROM order_history WHERE user_id = ?`
	args := []any{userID}
	if !rng.From.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, rng.From.UnixMilli())
	}
	if !rng.To.IsZero() {
		query += ` AND created_at <= ?`
		args = append(args, rng.To.UnixMilli())
	}
	query += ` ORDER BY created_at DESC, id DESC`

	var rows []sqliteRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list order history: %w", err)
	}

	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *SQLiteRepository) Cleanup(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM order_history WHERE created_at < ?`, olderThan.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to clean order history: %w", err)
	}
	return res.RowsAffected()
}

func encodeRow(rec *Record) (sqliteRow, error) {
	m, err := json.Marshal(rec.Menu)
	if err != nil {
		return sqliteRow{}, fmt.Errorf("failed to marshal menu: %w", err)
	}
	items, err := json.Marshal(rec.Items)
	if err != nil {
		return sqliteRow{}, fmt.Errorf("failed to marshal items: %w", err)
	}
	return sqliteRow{
		ID:        rec.ID,
		UserID:    rec.UserID,
		CreatedAt: rec.CreatedAt.UnixMilli(),
		Headcount: rec.Headcount,
		DayFilter: rec.DayFilter.String(),
		Menu:      string(m),
		Items:     string(items),
	}, nil
}

func (row sqliteRow) decode() (Record, error) {
	return decodeRecord(row.ID, row.UserID, time.UnixMilli(row.CreatedAt).UTC(), row.Headcount, row.DayFilter, row.Menu, row.Items)
}

func decodeRecord(id, userID string, createdAt time.Time, headcount int, dayFilter, menuJSON, itemsJSON string) (Record, error) {
	rec := Record{ID: id, UserID: userID, CreatedAt: createdAt, Headcount: headcount}

	filter, err := menu.ParseDayFilter(dayFilter)
	if err != nil {
		return Record{}, fmt.Errorf("record %s: %w", id, err)
	}
	rec.DayFilter = filter

	if err := json.Unmarshal([]byte(menuJSON), &rec.Menu); err != nil {
		return Record{}, fmt.Errorf("record %s: failed to unmarshal menu: %w", id, err)
	}
	if err := json.Unmarshal([]byte(itemsJSON), &rec.Items); err != nil {
		return Record{}, fmt.Errorf("record %s: failed to unmarshal items: %w", id, err)
	}
	return rec, nil
}
