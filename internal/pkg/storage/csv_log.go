package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/models"
)

const csvTimeLayout = "2006-01-02 15:04:05"

var csvHeader = []string{
	"timestamp", "round_id", "player_pct", "banker_pct", "tie_pct", "result", "players_count", "analysis_pct",
}

// CSVLog is the append-only scrape log. The directory, file and header row
// are created on first write.
type CSVLog struct {
	mu   sync.Mutex
	path string
}

func NewCSVLog(path string) *CSVLog {
	return &CSVLog{path: path}
}

func (l *CSVLog) Name() string { return "csv" }

func (l *CSVLog) Path() string { return l.path }

func (l *CSVLog) WriteSnapshot(ctx context.Context, snap models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open scrape log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat scrape log: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	if err := w.Write(csvRow(snap)); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	w.Flush()
	return w.Error()
}

func (l *CSVLog) Close() error { return nil }

func csvRow(s models.Snapshot) []string {
	return []string{
		s.Timestamp.Format(csvTimeLayout),
		s.RoundID,
		models.FormatPct(s.Player),
		models.FormatPct(s.Banker),
		models.FormatPct(s.Tie),
		s.Result.String(),
		s.PlayersCount,
		s.Percentage,
	}
}
