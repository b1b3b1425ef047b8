package storage

import (
	"context"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/models"
)

// SnapshotSink persists accepted snapshots.
type SnapshotSink interface {
	// Name identifies the sink in logs and metrics
	Name() string

	// WriteSnapshot appends one snapshot
	WriteSnapshot(ctx context.Context, snap models.Snapshot) error

	// Close releases the underlying file or connection
	Close() error
}
