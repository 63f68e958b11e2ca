// Package transports holds the client-side seams the CLI talks through, one
// per server surface.
package transports

import (
	"context"
	"time"
)

// Snapshot is a motion snapshot as listed by the server.
type Snapshot struct {
	ID   string    `json:"id"`
	Key  string    `json:"key"`
	URL  string    `json:"url"`
	Time time.Time `json:"time"`
}

// HealthTransport checks server health.
type HealthTransport interface {
	// Check returns the serving status name for service ("" = whole server).
	Check(ctx context.Context, service string) (string, error)
}

// SnapshotsTransport reads and records motion snapshots.
type SnapshotsTransport interface {
	List(ctx context.Context) ([]Snapshot, error)
	Record(ctx context.Context, url string) (Snapshot, error)
	Trim(ctx context.Context) (int, error)
}
