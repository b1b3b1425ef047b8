// Package demo simulates the signal channel without a browser: a scripted
// login walkthrough followed by random rounds on a cron schedule.
package demo

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Vodeneev/bacbo-signals/internal/notifier"
	"github.com/Vodeneev/bacbo-signals/internal/pkg/models"
)

const (
	DefaultSchedule    = "@every 12s"
	DefaultResultDelay = time.Second
)

// Notifier accepts outgoing messages without blocking.
type Notifier interface {
	Send(msg notifier.Message) bool
}

type Config struct {
	Schedule    string
	ResultDelay time.Duration
}

type introStep struct {
	delay  time.Duration
	status notifier.Status
}

var defaultIntro = []introStep{
	{time.Second, notifier.StatusOpeningSite},
	{5 * time.Second, notifier.StatusLookingLoginButton},
	{5 * time.Second, notifier.StatusLookingEmail},
	{2 * time.Second, notifier.StatusFillingEmail},
	{5 * time.Second, notifier.StatusLookingPassword},
	{2 * time.Second, notifier.StatusFillingPassword},
	{5 * time.Second, notifier.StatusClickingLogin},
	{0, notifier.StatusMonitoring},
}

type Simulator struct {
	cfg      Config
	notifier Notifier
	intro    []introStep

	mu     sync.Mutex
	rng    *rand.Rand
	wins   int
	losses int
}

type Option func(*Simulator)

// WithRand replaces the random source, e.g. with a seeded one.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) { s.rng = r }
}

func New(n Notifier, cfg Config, opts ...Option) *Simulator {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.ResultDelay <= 0 {
		cfg.ResultDelay = DefaultResultDelay
	}
	s := &Simulator{
		cfg:      cfg,
		notifier: n,
		intro:    defaultIntro,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.cfg.Schedule, func() { s.playRound(ctx) }); err != nil {
		return fmt.Errorf("invalid demo schedule %q: %w", s.cfg.Schedule, err)
	}

	s.notifier.Send(notifier.StatusMessage(notifier.StatusStarted))
	defer s.notifier.Send(notifier.StatusMessage(notifier.StatusStopped))

	for _, step := range s.intro {
		if !wait(ctx, step.delay) {
			return nil
		}
		s.notifier.Send(notifier.StatusMessage(step.status))
	}

	c.Start()
	slog.Info("Demo rounds scheduled", "schedule", s.cfg.Schedule)
	<-ctx.Done()
	<-c.Stop().Done()
	wins, losses := s.Record()
	slog.Info("Demo stopped", "wins", wins, "losses", losses)
	return nil
}

func (s *Simulator) playRound(ctx context.Context) {
	r := s.NextRound()
	slog.Info("Demo round", "odds", r.Odds.String(), "outcome", r.Outcome)

	s.notifier.Send(notifier.DemoOdds(r))
	if !wait(ctx, s.cfg.ResultDelay) {
		return
	}
	s.notifier.Send(notifier.DemoResult(r))
}

// NextRound draws odds and an outcome and updates the win/loss record.
// A tie counts as a loss.
func (s *Simulator) NextRound() models.DemoRound {
	s.mu.Lock()
	defer s.mu.Unlock()

	tie := 10 + s.rng.IntN(11)
	remaining := 100 - tie
	player := remaining/2 + s.rng.IntN(11) - 5
	banker := remaining - player
	if player < 35 {
		player, banker = 35, remaining-35
	} else if banker < 35 {
		banker, player = 35, remaining-35
	}

	var outcome models.Outcome
	switch x := s.rng.IntN(100); {
	case x < player:
		outcome = models.OutcomePlayer
	case x < player+banker:
		outcome = models.OutcomeBanker
	default:
		outcome = models.OutcomeTie
	}
	if outcome == models.OutcomeTie {
		s.losses++
	} else {
		s.wins++
	}

	return models.DemoRound{
		Odds:           models.Triplet{Player: float64(player), Banker: float64(banker), Tie: float64(tie)},
		Outcome:        outcome,
		Wins:           s.wins,
		Losses:         s.losses,
		PlayersBetting: 150 + s.rng.IntN(701),
		BankersBetting: 120 + s.rng.IntN(661),
	}
}

// Record returns the win/loss counters.
func (s *Simulator) Record() (wins, losses int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wins, s.losses
}

// wait sleeps for d and reports false if ctx was cancelled first.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
