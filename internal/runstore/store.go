// Package runstore persists the stage-by-stage history of generation runs
// to SQLite for later inspection.
package runstore

import (
	"context"
	"time"
)

// EventType distinguishes the recorded run occurrences.
type EventType string

const (
	EventStageStarted   EventType = "stage_started"
	EventStageCompleted EventType = "stage_completed"
	EventRunCompleted   EventType = "run_completed"
)

// Event is one recorded occurrence in a generation run. Stage is set for
// stage events; Result and DurationMS are set once the stage (or run) has
// finished. Report carries the serialized run report on run completion.
type Event struct {
	ID         int64
	RunID      string
	Type       EventType
	Stage      string
	Result     string
	DurationMS int64
	Timestamp  time.Time
	Report     []byte
}

// Store persists and retrieves run events.
type Store interface {
	// Append records a new event. The ID and Timestamp fields of e are
	// assigned by the store.
	Append(ctx context.Context, e Event) error

	// GetByRunID retrieves all events for a specific run in insertion order.
	GetByRunID(ctx context.Context, runID string) ([]Event, error)

	// GetRange retrieves events recorded within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Close releases the store's resources.
	Close() error
}
