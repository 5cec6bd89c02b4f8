// Package notify publishes newly ingested earthquakes to downstream consumers.
package notify

import (
	"context"
	"time"
)

// Event is one newly inserted earthquake.
type Event struct {
	USGSID     string         `json:"usgs_id"`
	Table      string         `json:"table"`
	IngestedAt time.Time      `json:"ingested_at"`
	Attributes map[string]any `json:"attributes"`
}

// Publisher sends events after their batch has committed.
type Publisher interface {
	Publish(ctx context.Context, events []Event) error
	Close() error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, []Event) error { return nil }
func (Nop) Close() error                           { return nil }
