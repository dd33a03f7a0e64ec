package ports

import "context"

// EventCounter exposes the external per-page observation counters. Counts
// are cumulative since the page's creation; there is no rolling window.
type EventCounter interface {
	// Views counts qualifying view events for a page.
	Views(ctx context.Context, pageID string) (int64, error)
	// Completions counts qualifying downstream-conversion events for a page.
	Completions(ctx context.Context, pageID string) (int64, error)
}
