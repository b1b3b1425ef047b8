package storage

import (
	"context"
	"log/slog"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/config"
)

// Open builds a recorder with the CSV log as primary and whichever mirrors
// are configured. A mirror that cannot be reached is logged and left out.
func Open(ctx context.Context, cfg config.StorageConfig) *Recorder {
	csvLog := NewCSVLog(cfg.CSVPath)
	var mirrors []SnapshotSink

	if cfg.Postgres.DSN != "" {
		store, err := NewPostgresSnapshotStore(ctx, cfg.Postgres.DSN)
		if err != nil {
			slog.Warn("Postgres mirror disabled", "error", err)
		} else {
			mirrors = append(mirrors, store)
		}
	}

	if cfg.Redis.Addr != "" {
		b, err := NewRedisBroadcaster(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Channel)
		if err != nil {
			slog.Warn("Redis mirror disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			mirrors = append(mirrors, b)
		}
	}

	names := make([]string, 0, len(mirrors))
	for _, m := range mirrors {
		names = append(names, m.Name())
	}
	slog.Info("Snapshot recorder ready", "csv", cfg.CSVPath, "mirrors", names)
	return NewRecorder(csvLog, mirrors...)
}
