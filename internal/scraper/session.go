// Package scraper runs one live scraping session: it owns the browser page,
// polls it and publishes what changed.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Vodeneev/bacbo-signals/internal/notifier"
	"github.com/Vodeneev/bacbo-signals/internal/pkg/metrics"
	"github.com/Vodeneev/bacbo-signals/internal/pkg/models"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/archive"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/classify"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/extract"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/ocr"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/probe"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/round"
)

var ErrLoginTimeout = errors.New("login not detected within timeout")

const (
	DefaultLoginTimeout       = 5 * time.Minute
	DefaultPollInterval       = 500 * time.Millisecond
	DefaultErrorBackoff       = 2 * time.Second
	DefaultScreenshotInterval = time.Second
	loginCheckInterval        = time.Second
)

// Page is everything the session needs from the browser tab.
type Page interface {
	extract.PageSource
	extract.Screenshotter
	classify.Page

	Navigate(ctx context.Context, url string) error
	FullScreenshot(ctx context.Context) ([]byte, error)
	LoggedIn(ctx context.Context) (bool, error)
	// Err is non-nil once the page can no longer be used.
	Err() error
	Close()
}

// Launcher opens a fresh page.
type Launcher func(ctx context.Context) (Page, error)

// Notifier accepts outgoing messages without blocking.
type Notifier interface {
	Send(msg notifier.Message) bool
}

// Recorder persists accepted snapshots.
type Recorder interface {
	Record(ctx context.Context, snap models.Snapshot) (bool, error)
}

type Config struct {
	URL                string
	LoginTimeout       time.Duration
	PollInterval       time.Duration
	ErrorBackoff       time.Duration
	ScreenshotInterval time.Duration
	EmitInterval       time.Duration
	EmitDelta          float64
	OCR                extract.OCRConfig
}

type Session struct {
	cfg      Config
	launch   Launcher
	notifier Notifier
	recorder Recorder
	reader   ocr.Reader
	archive  *archive.Archive
	now      func() time.Time
}

type Option func(*Session)

// WithOCR enables the screenshot text recognition strategy.
func WithOCR(r ocr.Reader) Option {
	return func(s *Session) { s.reader = r }
}

func WithArchive(a *archive.Archive) Option {
	return func(s *Session) { s.archive = a }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func NewSession(cfg Config, launch Launcher, n Notifier, rec Recorder, opts ...Option) *Session {
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = DefaultLoginTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = DefaultErrorBackoff
	}
	if cfg.ScreenshotInterval <= 0 {
		cfg.ScreenshotInterval = DefaultScreenshotInterval
	}
	s := &Session{
		cfg:      cfg,
		launch:   launch,
		notifier: n,
		recorder: rec,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks until ctx is cancelled, the login wait times out or the page is
// lost. A cancelled ctx is a normal stop and returns nil.
func (s *Session) Run(ctx context.Context) error {
	page, err := s.launch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		s.notifier.Send(notifier.ErrorMessage(err))
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	defer page.Close()

	s.notifier.Send(notifier.StatusMessage(notifier.StatusStarted))
	defer s.notifier.Send(notifier.StatusMessage(notifier.StatusStopped))

	slog.Info("Opening game page", "url", s.cfg.URL)
	if err := page.Navigate(ctx, s.cfg.URL); err != nil {
		return s.fail(ctx, err)
	}
	if err := s.waitForLogin(ctx, page); err != nil {
		return s.fail(ctx, err)
	}
	return s.fail(ctx, s.monitor(ctx, page))
}

// fail maps the terminal error of a session.
func (s *Session) fail(ctx context.Context, err error) error {
	switch {
	case err == nil, ctx.Err() != nil:
		return nil
	case errors.Is(err, ErrLoginTimeout):
		return err
	}
	slog.Error("Scraping session failed", "error", err)
	s.notifier.Send(notifier.ErrorMessage(err))
	return err
}

func (s *Session) waitForLogin(ctx context.Context, page Page) error {
	s.notifier.Send(notifier.StatusMessage(notifier.StatusLoginWaiting))
	slog.Info("Waiting for manual login", "timeout", s.cfg.LoginTimeout)

	deadline := s.now().Add(s.cfg.LoginTimeout)
	ticker := time.NewTicker(loginCheckInterval)
	defer ticker.Stop()

	for {
		ok, err := page.LoggedIn(ctx)
		switch {
		case err != nil && page.Err() != nil:
			return page.Err()
		case err != nil:
			slog.Debug("Login check failed", "error", err)
		case ok:
			slog.Info("Login detected")
			s.notifier.Send(notifier.StatusMessage(notifier.StatusLoginDetected))
			s.saveScreenshot(ctx, page, "unknown", "after_login")
			return nil
		}

		if !s.now().Before(deadline) {
			s.notifier.Send(notifier.StatusMessage(notifier.StatusLoginTimeout))
			return ErrLoginTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// polledPage hands the markup read at the start of a poll to the classifier,
// so one poll dumps the DOM once.
type polledPage struct {
	Page
	markup string
}

func (p *polledPage) Markup(ctx context.Context) (string, error) {
	return p.markup, nil
}

// pollState is owned by the monitor loop.
type pollState struct {
	view       *polledPage
	extractor  *extract.Extractor
	classifier *classify.Classifier
	detector   *round.Detector
	lastShot   time.Time
}

func (s *Session) monitor(ctx context.Context, page Page) error {
	view := &polledPage{Page: page}
	st := &pollState{
		view:       view,
		extractor:  s.newExtractor(page),
		classifier: classify.New(view),
		detector: round.NewDetector(
			round.WithInterval(s.cfg.EmitInterval),
			round.WithDelta(s.cfg.EmitDelta),
			round.WithClock(s.now),
		),
	}
	slog.Info("Monitoring started", "poll_interval", s.cfg.PollInterval)

	for {
		if ctx.Err() != nil {
			return nil
		}

		wait := s.cfg.PollInterval
		if err := s.poll(ctx, page, st); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if page.Err() != nil {
				return page.Err()
			}
			metrics.PollErrors.Inc()
			slog.Error("Error in monitoring loop", "error", err)
			wait = s.cfg.ErrorBackoff
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// poll runs one observation of the page.
func (s *Session) poll(ctx context.Context, page Page, st *pollState) error {
	start := time.Now()
	metrics.Polls.Inc()
	defer func() { metrics.PollDuration.Observe(time.Since(start).Seconds()) }()

	if now := s.now(); now.Sub(st.lastShot) >= s.cfg.ScreenshotInterval {
		st.lastShot = now
		s.tickScreenshot(ctx, page, st.detector.State().RoundID)
	}

	markup, err := page.Markup(ctx)
	if err != nil {
		return err
	}
	st.view.markup = markup
	roundID := probe.RoundID(markup)

	obs := round.Observation{
		RoundID:  roundID,
		Triplet:  st.extractor.Extract(ctx),
		Analysis: probe.Analysis(markup),
	}
	if st.detector.AwaitingResult() || st.detector.State().RoundID != roundID {
		obs.Result = st.classifier.Classify(ctx)
	}

	dec := st.detector.Observe(obs)
	if dec.NewRound {
		slog.Info("New round", "round_id", roundID)
	}
	if dec.EmitPercentages {
		slog.Info("Sending percentages",
			"player", obs.Triplet.Player,
			"banker", obs.Triplet.Banker,
			"tie", obs.Triplet.Tie,
			"max_delta", dec.MaxDelta)
		s.notifier.Send(notifier.Percentages(obs.Triplet))
	}
	if dec.EmitResult {
		slog.Info("Sending result", "round_id", roundID, "result", dec.Result)
		s.notifier.Send(notifier.Result(dec.Result))
	}
	if dec.EmitAnalysis {
		s.notifier.Send(notifier.Analysis(obs.Analysis))
	}

	state := st.detector.State()
	if dec.Changed || state.ResultSent || obs.Analysis.Complete() {
		snap := models.Snapshot{
			Timestamp: s.now(),
			RoundID:   roundID,
			Triplet:   obs.Triplet,
			Result:    state.LastResult,
			Analysis:  obs.Analysis,
		}
		written, err := s.recorder.Record(ctx, snap)
		if err != nil {
			slog.Error("Failed to record snapshot", "round_id", roundID, "error", err)
		}
		if written {
			s.saveScreenshot(ctx, page, roundID, "update")
		}
	}
	return nil
}

func (s *Session) newExtractor(page Page) *extract.Extractor {
	var strategies []extract.Strategy
	if s.reader != nil {
		strategies = append(strategies, extract.NewOCRStrategy(page, s.reader, s.cfg.OCR))
	}
	strategies = append(strategies, extract.DOMStrategies(page)...)
	return extract.New(strategies...)
}

func (s *Session) tickScreenshot(ctx context.Context, page Page, roundID string) {
	if !s.archive.Enabled() {
		return
	}
	if roundID == "" {
		roundID = "unknown"
	}
	shot, err := page.FullScreenshot(ctx)
	if err != nil {
		slog.Warn("Periodic screenshot failed", "error", err)
		return
	}
	if _, _, err := s.archive.SaveTick(shot, roundID); err != nil {
		slog.Warn("Periodic screenshot failed", "error", err)
	}
}

func (s *Session) saveScreenshot(ctx context.Context, page Page, roundID, tag string) {
	if !s.archive.Enabled() {
		return
	}
	shot, err := page.FullScreenshot(ctx)
	if err != nil {
		slog.Warn("Screenshot failed", "tag", tag, "error", err)
		return
	}
	if _, err := s.archive.Save(shot, roundID, tag); err != nil {
		slog.Warn("Screenshot failed", "tag", tag, "error", err)
	}
}
