package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/models"
)

// Ensure PostgresSnapshotStore implements SnapshotSink
var _ SnapshotSink = (*PostgresSnapshotStore)(nil)

// PostgresSnapshotStore mirrors the scrape log into a scrape_snapshots table.
type PostgresSnapshotStore struct {
	db *sql.DB
}

// NewPostgresSnapshotStore connects, pings and creates the schema if needed.
func NewPostgresSnapshotStore(ctx context.Context, dsn string) (*PostgresSnapshotStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresSnapshotStore{db: db}
	if err := s.initSchema(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL snapshot storage initialized successfully")
	return s, nil
}

func (s *PostgresSnapshotStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS scrape_snapshots (
		id SERIAL PRIMARY KEY,
		recorded_at TIMESTAMP NOT NULL,
		round_id VARCHAR(100) NOT NULL,
		player_pct DECIMAL(5, 2) NOT NULL,
		banker_pct DECIMAL(5, 2) NOT NULL,
		tie_pct DECIMAL(5, 2) NOT NULL,
		result VARCHAR(10) NOT NULL DEFAULT '',
		players_count VARCHAR(20) NOT NULL DEFAULT '',
		analysis_pct VARCHAR(20) NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_scrape_snapshots_round ON scrape_snapshots(round_id);
	CREATE INDEX IF NOT EXISTS idx_scrape_snapshots_recorded_at ON scrape_snapshots(recorded_at);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *PostgresSnapshotStore) Name() string { return "postgres" }

func (s *PostgresSnapshotStore) WriteSnapshot(ctx context.Context, snap models.Snapshot) error {
	query := `
	INSERT INTO scrape_snapshots (
		recorded_at, round_id, player_pct, banker_pct, tie_pct,
		result, players_count, analysis_pct
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		snap.Timestamp, snap.RoundID, snap.Player, snap.Banker, snap.Tie,
		snap.Result.String(), snap.PlayersCount, snap.Percentage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

func (s *PostgresSnapshotStore) Close() error {
	return s.db.Close()
}
