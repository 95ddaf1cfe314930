// Package history keeps the orders users chose to save, so they can be
// listed and exported later.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cafeteria-planner/internal/menu"
	"cafeteria-planner/internal/order"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Record is one saved order.
type Record struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	CreatedAt time.Time       `json:"created_at"`
	Headcount int             `json:"headcount"`
	DayFilter menu.DayFilter  `json:"day_filter"`
	Menu      menu.WeeklyMenu `json:"menu"`
	Items     []order.Item    `json:"items"`
}

// NewRecord stamps a new record with a fresh id and the current time.
func NewRecord(userID string, headcount int, filter menu.DayFilter, m menu.WeeklyMenu, items []order.Item) *Record {
	return &Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		Headcount: headcount,
		DayFilter: filter,
		Menu:      m,
		Items:     append([]order.Item(nil), items...),
	}
}

// ItemsSummary renders the items as "name: qty unit" joined by ", ".
func (r Record) ItemsSummary() string {
	parts := make([]string, len(r.Items))
	for i, it := range r.Items {
		parts[i] = fmt.Sprintf("%s: %s %s", it.Name, FormatQuantity(it.Quantity), it.Unit)
	}
	return strings.Join(parts, ", ")
}

// FormatQuantity prints q without trailing zeros.
func FormatQuantity(q float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", q), "0"), ".")
}

// Range bounds a listing. Zero bounds are open.
type Range struct {
	From time.Time
	To   time.Time
}

// ParseRange parses YYYY-MM-DD bounds; either may be empty. The upper bound
// covers the whole day.
func ParseRange(from, to string) (Range, error) {
	var r Range
	if from = strings.TrimSpace(from); from != "" {
		t, err := time.ParseInLocation(dateLayout, from, time.UTC)
		if err != nil {
			return Range{}, fmt.Errorf("invalid from date %q: %w", from, err)
		}
		r.From = t
	}
	if to = strings.TrimSpace(to); to != "" {
		t, err := time.ParseInLocation(dateLayout, to, time.UTC)
		if err != nil {
			return Range{}, fmt.Errorf("invalid to date %q: %w", to, err)
		}
		r.To = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return Range{}, fmt.Errorf("to date %s is before from date %s", to, from)
	}
	return r, nil
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// Repository stores history records.
type Repository interface {
	Save(ctx context.Context, rec *Record) error
	// List returns the records of userID inside r, newest first.
	List(ctx context.Context, userID string, r Range) ([]Record, error)
	// Cleanup deletes records created before olderThan.
	Cleanup(ctx context.Context, olderThan time.Time) (int64, error)
}
