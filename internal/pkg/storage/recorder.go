package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/metrics"
	"github.com/Vodeneev/bacbo-signals/internal/pkg/models"
)

// Recorder writes snapshots to the primary log and then to the mirrors,
// skipping a snapshot identical (timestamp aside) to the last one the
// primary log accepted.
type Recorder struct {
	mu      sync.Mutex
	primary SnapshotSink
	mirrors []SnapshotSink
	last    models.SnapshotKey
	has     bool
}

func NewRecorder(primary SnapshotSink, mirrors ...SnapshotSink) *Recorder {
	return &Recorder{primary: primary, mirrors: mirrors}
}

// Record reports whether snap reached the primary log. A primary failure is
// returned and leaves the duplicate filter untouched, so the same snapshot
// is written on the next call. Mirror failures are logged and counted only.
func (r *Recorder) Record(ctx context.Context, snap models.Snapshot) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := snap.Key()
	if r.has && key == r.last {
		metrics.SnapshotsSuppressed.Inc()
		return false, nil
	}

	if err := r.primary.WriteSnapshot(ctx, snap); err != nil {
		metrics.SinkErrors.WithLabelValues(r.primary.Name()).Inc()
		return false, fmt.Errorf("%s: %w", r.primary.Name(), err)
	}
	r.last, r.has = key, true
	metrics.SnapshotsRecorded.Inc()

	for _, m := range r.mirrors {
		if err := m.WriteSnapshot(ctx, snap); err != nil {
			metrics.SinkErrors.WithLabelValues(m.Name()).Inc()
			slog.Warn("Failed to mirror snapshot", "sink", m.Name(), "round_id", snap.RoundID, "error", err)
		}
	}
	return true, nil
}

// sinks returns the primary log followed by the mirrors.
func (r *Recorder) sinks() []SnapshotSink {
	return append([]SnapshotSink{r.primary}, r.mirrors...)
}

// Close closes every sink.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, s := range r.sinks() {
		if err := s.Close(); err != nil {
			slog.Warn("Failed to close snapshot sink", "sink", s.Name(), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
