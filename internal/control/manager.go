// Package control owns the lifecycle of the running bot: at most one scraping
// or demo session at a time, started and stopped from the HTTP API.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Vodeneev/bacbo-signals/internal/notifier"
	"github.com/Vodeneev/bacbo-signals/internal/pkg/logging"
)

var (
	ErrAlreadyRunning  = errors.New("bot is already running")
	ErrNotRunning      = errors.New("bot is not running")
	ErrInvalidLanguage = errors.New("invalid language")
	ErrInvalidRequest  = errors.New("invalid request")
)

const (
	minTokenLength = 20
	stopTimeout    = 30 * time.Second
)

type Mode string

const (
	ModeScraper Mode = "scraper"
	ModeDemo    Mode = "demo"
)

type StartRequest struct {
	Token     string `json:"token"`
	ChannelID string `json:"channel_id"`
	Language  string `json:"language"`
	Mode      Mode   `json:"mode"`
}

type Status struct {
	Running   bool       `json:"running"`
	Language  string     `json:"language"`
	Mode      Mode       `json:"mode,omitempty"`
	SessionID string     `json:"session_id,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// Runner is a session body; Run returns when ctx is cancelled or the session ends on its own.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFactory builds the session for one mode around its notification sink.
type RunnerFactory func(sink *notifier.Sink) (Runner, error)

// MessengerFactory connects to the chat API with the credentials of a start request.
type MessengerFactory func(token, channelID string) (notifier.Messenger, error)

// LogSource provides the recent activity log.
type LogSource interface {
	Entries() []logging.Entry
}

type session struct {
	id        string
	mode      Mode
	startedAt time.Time
	sink      *notifier.Sink
	cancel    context.CancelFunc
	done      chan struct{}
}

type Manager struct {
	newMessenger MessengerFactory
	runners      map[Mode]RunnerFactory
	sinkCfg      notifier.Config
	logs         LogSource

	mu        sync.Mutex
	current   *session
	language  string
	lastError string
}

func NewManager(newMessenger MessengerFactory, runners map[Mode]RunnerFactory, sinkCfg notifier.Config, logs LogSource) *Manager {
	lang := sinkCfg.Language
	if !notifier.Supported(lang) {
		lang = notifier.DefaultLanguage
	}
	return &Manager{
		newMessenger: newMessenger,
		runners:      runners,
		sinkCfg:      sinkCfg,
		logs:         logs,
		language:     lang,
	}
}

func (m *Manager) validate(req *StartRequest) error {
	req.Token = strings.TrimSpace(req.Token)
	req.ChannelID = strings.TrimSpace(req.ChannelID)
	req.Language = strings.ToLower(strings.TrimSpace(req.Language))

	switch {
	case req.Token == "":
		return fmt.Errorf("%w: bot token is required", ErrInvalidRequest)
	case req.ChannelID == "":
		return fmt.Errorf("%w: channel id is required", ErrInvalidRequest)
	case len(req.Token) < minTokenLength:
		return fmt.Errorf("%w: invalid bot token format", ErrInvalidRequest)
	}
	if req.Language != "" && !notifier.Supported(req.Language) {
		return fmt.Errorf("%w: %s", ErrInvalidLanguage, req.Language)
	}
	if req.Mode == "" {
		req.Mode = ModeScraper
	}
	if _, ok := m.runners[req.Mode]; !ok {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, req.Mode)
	}
	return nil
}

// Start launches a session in the background. Without a language in req the
// last one set through SetLanguage is used.
func (m *Manager) Start(req StartRequest) error {
	if err := m.validate(&req); err != nil {
		return err
	}

	m.mu.Lock()
	running := m.current != nil
	if req.Language == "" {
		req.Language = m.language
	}
	m.mu.Unlock()
	if running {
		return ErrAlreadyRunning
	}

	// getMe goes over the network, keep it outside the lock
	messenger, err := m.newMessenger(req.Token, req.ChannelID)
	if err != nil {
		return fmt.Errorf("failed to connect to telegram: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		return ErrAlreadyRunning
	}

	cfg := m.sinkCfg
	cfg.Language = req.Language
	sink := notifier.NewSink(messenger, cfg)

	runner, err := m.runners[req.Mode](sink)
	if err != nil {
		sink.Stop()
		return fmt.Errorf("failed to create %s session: %w", req.Mode, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:        uuid.NewString(),
		mode:      req.Mode,
		startedAt: time.Now(),
		sink:      sink,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	m.current = s
	m.language = req.Language
	m.lastError = ""

	go m.run(ctx, s, runner)
	slog.Info("Bot started", "session_id", s.id, "mode", s.mode, "language", req.Language)
	return nil
}

func (m *Manager) run(ctx context.Context, s *session, runner Runner) {
	defer close(s.done)

	err := runner.Run(ctx)
	s.sink.Stop()

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.lastError = err.Error()
		slog.Error("Session ended with error", "session_id", s.id, "error", err)
	} else {
		slog.Info("Session ended", "session_id", s.id)
	}
	if m.current == s {
		m.current = nil
	}
}

// Stop cancels the running session and waits for it to wind down.
func (m *Manager) Stop() error {
	m.mu.Lock()
	s := m.current
	m.mu.Unlock()
	if s == nil {
		return ErrNotRunning
	}

	s.cancel()
	select {
	case <-s.done:
	case <-time.After(stopTimeout):
		slog.Warn("Session did not stop in time", "session_id", s.id, "timeout", stopTimeout)
	}
	return nil
}

// SetLanguage switches the language of the running session's messages.
// While idle it is kept for the next Start.
func (m *Manager) SetLanguage(code string) error {
	code = strings.ToLower(strings.TrimSpace(code))
	if !notifier.Supported(code) {
		return fmt.Errorf("%w: %s", ErrInvalidLanguage, code)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.sink.SetLanguage(code)
	}
	m.language = code
	slog.Info("Language changed", "language", code)
	return nil
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{Language: m.language, LastError: m.lastError}
	if s := m.current; s != nil {
		started := s.startedAt
		st.Running = true
		st.Mode = s.mode
		st.SessionID = s.id
		st.StartedAt = &started
	}
	return st
}

func (m *Manager) Logs() []logging.Entry {
	if m.logs == nil {
		return nil
	}
	return m.logs.Entries()
}
