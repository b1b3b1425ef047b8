package models

import (
	"fmt"
	"math"
	"time"
)

// Triplet holds the player, banker and tie percentages shown by the game.
type Triplet struct {
	Player float64 `json:"player_pct"`
	Banker float64 `json:"banker_pct"`
	Tie    float64 `json:"tie_pct"`
}

// Sum returns Player + Banker + Tie.
func (t Triplet) Sum() float64 {
	return t.Player + t.Banker + t.Tie
}

// IsZero reports whether nothing was extracted.
func (t Triplet) IsZero() bool {
	return t.Player == 0 && t.Banker == 0 && t.Tie == 0
}

// Get returns the value for one side.
func (t Triplet) Get(side Outcome) float64 {
	switch side {
	case OutcomePlayer:
		return t.Player
	case OutcomeBanker:
		return t.Banker
	case OutcomeTie:
		return t.Tie
	}
	return 0
}

// MaxDelta returns the largest absolute per-component difference to other.
func (t Triplet) MaxDelta(other Triplet) float64 {
	return math.Max(math.Abs(t.Player-other.Player),
		math.Max(math.Abs(t.Banker-other.Banker), math.Abs(t.Tie-other.Tie)))
}

func (t Triplet) String() string {
	return fmt.Sprintf("P=%.2f%% B=%.2f%% T=%.2f%%", t.Player, t.Banker, t.Tie)
}

// Analysis is the auxiliary "players / percentage" readout from the bottom of the table.
type Analysis struct {
	PlayersCount string `json:"players_count"`
	Percentage   string `json:"analysis_pct"`
}

// Complete reports whether both numbers were found.
func (a Analysis) Complete() bool {
	return a.PlayersCount != "" && a.Percentage != ""
}

// Snapshot is one accepted observation of the table, as written to the scrape log.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	RoundID   string    `json:"round_id"`
	Triplet
	Result Outcome `json:"result"`
	Analysis
}

// SnapshotKey is the snapshot without its timestamp. Two consecutive snapshots
// with equal keys are considered duplicates.
type SnapshotKey struct {
	RoundID      string
	Player       string
	Banker       string
	Tie          string
	Result       Outcome
	PlayersCount string
	AnalysisPct  string
}

// Key returns the duplicate-suppression key. Percentages are compared as they
// are written (two decimals).
func (s Snapshot) Key() SnapshotKey {
	return SnapshotKey{
		RoundID:      s.RoundID,
		Player:       FormatPct(s.Player),
		Banker:       FormatPct(s.Banker),
		Tie:          FormatPct(s.Tie),
		Result:       s.Result,
		PlayersCount: s.PlayersCount,
		AnalysisPct:  s.Percentage,
	}
}

// FormatPct renders a percentage with two decimals, without the % sign.
func FormatPct(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// RoundState tracks a single logical play.
type RoundState struct {
	RoundID    string
	ResultSent bool
	LastResult Outcome
}

// DemoRound is one simulated round produced by the demo mode.
type DemoRound struct {
	Odds           Triplet
	Outcome        Outcome
	Wins           int
	Losses         int
	PlayersBetting int
	BankersBetting int
}

// WinRate returns wins over all games in percent, or 0 before the first game.
func (d DemoRound) WinRate() float64 {
	total := d.Wins + d.Losses
	if total == 0 {
		return 0
	}
	return float64(d.Wins) / float64(total) * 100
}
