package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/config"
	"github.com/Vodeneev/bacbo-signals/internal/pkg/models"
)

type memorySink struct {
	name   string
	snaps  []models.Snapshot
	err    error
	closed bool
}

func (m *memorySink) Name() string { return m.name }

func (m *memorySink) WriteSnapshot(ctx context.Context, snap models.Snapshot) error {
	if m.err != nil {
		return m.err
	}
	m.snaps = append(m.snaps, snap)
	return nil
}

func (m *memorySink) Close() error {
	m.closed = true
	return nil
}

func snapshot(ts time.Time, round string, p, b, t float64, result models.Outcome) models.Snapshot {
	return models.Snapshot{
		Timestamp: ts,
		RoundID:   round,
		Triplet:   models.Triplet{Player: p, Banker: b, Tie: t},
		Result:    result,
	}
}

func TestRecorderSuppressesConsecutiveDuplicates(t *testing.T) {
	sink := &memorySink{name: "mem"}
	rec := NewRecorder(sink)
	ctx := context.Background()
	t0 := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	steps := []struct {
		snap models.Snapshot
		want bool
	}{
		{snapshot(t0, "1", 45, 45, 10, models.OutcomeNone), true},
		{snapshot(t0.Add(time.Second), "1", 45, 45, 10, models.OutcomeNone), false},
		{snapshot(t0.Add(2*time.Second), "1", 45, 45, 10, models.OutcomePlayer), true},
		{snapshot(t0.Add(3*time.Second), "1", 45, 45, 10, models.OutcomeNone), true},
		{snapshot(t0.Add(4*time.Second), "1", 45, 45, 10, models.OutcomePlayer), true}, // only the immediate predecessor counts
	}
	for i, s := range steps {
		got, err := rec.Record(ctx, s.snap)
		if err != nil {
			t.Fatalf("step %d: Record error: %v", i, err)
		}
		if got != s.want {
			t.Errorf("step %d: Record() = %v, want %v", i, got, s.want)
		}
	}
	if len(sink.snaps) != 4 {
		t.Errorf("sink received %d snapshots, want 4", len(sink.snaps))
	}
}

func TestRecorderMirrorErrorIsNotFatal(t *testing.T) {
	primary := &memorySink{name: "csv"}
	bad := &memorySink{name: "bad", err: errors.New("connection refused")}
	good := &memorySink{name: "good"}
	rec := NewRecorder(primary, bad, good)

	ok, err := rec.Record(context.Background(), snapshot(time.Now(), "7", 40, 50, 10, models.OutcomeNone))
	if !ok || err != nil {
		t.Errorf("Record() = %v, %v, want true, nil", ok, err)
	}
	if len(primary.snaps) != 1 || len(good.snaps) != 1 {
		t.Errorf("primary/good received %d/%d snapshots, want 1/1", len(primary.snaps), len(good.snaps))
	}

	if err := rec.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if !primary.closed || !bad.closed || !good.closed {
		t.Errorf("Close() should close every sink")
	}
}

func TestRecorderPrimaryFailureIsRetried(t *testing.T) {
	primary := &memorySink{name: "csv", err: errors.New("disk full")}
	mirror := &memorySink{name: "mirror"}
	rec := NewRecorder(primary, mirror)
	ctx := context.Background()
	snap := snapshot(time.Now(), "9", 45, 45, 10, models.OutcomeNone)

	ok, err := rec.Record(ctx, snap)
	if ok || err == nil || !strings.Contains(err.Error(), "csv") {
		t.Fatalf("Record() = %v, %v, want false and an error naming csv", ok, err)
	}
	if len(mirror.snaps) != 0 {
		t.Errorf("mirror received %d snapshots after a primary failure, want 0", len(mirror.snaps))
	}

	primary.err = nil
	ok, err = rec.Record(ctx, snap)
	if !ok || err != nil {
		t.Errorf("retry Record() = %v, %v, want true, nil", ok, err)
	}
	if len(primary.snaps) != 1 || len(mirror.snaps) != 1 {
		t.Errorf("primary/mirror received %d/%d snapshots, want 1/1", len(primary.snaps), len(mirror.snaps))
	}
}

func TestRecorderCSVBlockedThenRecovered(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	if err := os.WriteFile(dataDir, []byte("not a directory"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	csvLog := NewCSVLog(filepath.Join(dataDir, "scrape_results.csv"))
	rec := NewRecorder(csvLog)
	ctx := context.Background()
	snap := snapshot(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC), "55", 47, 43, 10, models.OutcomeNone)

	if ok, err := rec.Record(ctx, snap); ok || err == nil {
		t.Fatalf("Record() with blocked data dir = %v, %v, want false and an error", ok, err)
	}

	if err := os.Remove(dataDir); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ok, err := rec.Record(ctx, snap); !ok || err != nil {
		t.Fatalf("Record() after recovery = %v, %v, want true, nil", ok, err)
	}

	data, err := os.ReadFile(csvLog.Path())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Errorf("csv has %d lines, want header and one row:\n%s", len(lines), data)
	}
}

func TestCSVLogHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "scrape_results.csv")
	log := NewCSVLog(path)
	ctx := context.Background()
	ts := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	first := snapshot(ts, "123", 45.5, 44, 10.5, models.OutcomeNone)
	first.Analysis = models.Analysis{PlayersCount: "342", Percentage: "61.5"}
	if err := log.WriteSnapshot(ctx, first); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if err := log.WriteSnapshot(ctx, snapshot(ts.Add(time.Second), "123", 45.5, 44, 10.5, models.OutcomeBanker)); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{
		"timestamp,round_id,player_pct,banker_pct,tie_pct,result,players_count,analysis_pct",
		"2026-05-01 10:00:00,123,45.50,44.00,10.50,,342,61.5",
		"2026-05-01 10:00:01,123,45.50,44.00,10.50,banker,,",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), data)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestRedisBroadcasterDefaultChannel(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	b := newRedisBroadcaster(client, "")
	if b.channel != DefaultRedisChannel {
		t.Errorf("channel = %q, want %q", b.channel, DefaultRedisChannel)
	}
	if b.Name() != "redis" {
		t.Errorf("Name() = %q, want redis", b.Name())
	}
}

func TestOpenSkipsUnreachableMirrors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	path := filepath.Join(t.TempDir(), "log.csv")
	rec := Open(ctx, config.StorageConfig{
		CSVPath: path,
		Redis:   config.RedisConfig{Addr: "127.0.0.1:1"},
	})
	defer rec.Close()

	if rec.primary.Name() != "csv" || len(rec.mirrors) != 0 {
		t.Fatalf("primary = %s with %d mirrors, want only the csv log", rec.primary.Name(), len(rec.mirrors))
	}
	written, err := rec.Record(ctx, snapshot(time.Now(), "1", 50, 40, 10, models.OutcomeNone))
	if !written || err != nil {
		t.Errorf("Record() = %v, %v", written, err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("csv log not created: %v", err)
	}
}
