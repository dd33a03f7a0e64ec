package turso

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Event types recorded against funnel pages.
const (
	EventView       = "view"
	EventCompletion = "completion"
)

// EventCounter aggregates qualifying page events. Counts are cumulative
// since the page's creation.
type EventCounter struct {
	db *sql.DB
}

func NewEventCounter(db *sql.DB) *EventCounter {
	return &EventCounter{db: db}
}

func (c *EventCounter) Views(ctx context.Context, pageID string) (int64, error) {
	return c.count(ctx, pageID, EventView)
}

func (c *EventCounter) Completions(ctx context.Context, pageID string) (int64, error) {
	return c.count(ctx, pageID, EventCompletion)
}

func (c *EventCounter) count(ctx context.Context, pageID, eventType string) (int64, error) {
	var n int64
	err := c.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM page_events WHERE page_id = ? AND event_type = ?
	`, pageID, eventType).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s events: %w", eventType, err)
	}
	return n, nil
}

// Record appends a single event. The production event stream is written by
// the page-serving layer; this is used by tooling and tests.
func (c *EventCounter) Record(ctx context.Context, pageID, eventType string, occurredAt time.Time) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO page_events (page_id, event_type, occurred_at) VALUES (?, ?, ?)
	`, pageID, eventType, occurredAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert page event: %w", err)
	}
	return nil
}
