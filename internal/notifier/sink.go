// Package notifier renders game events and delivers them to a Telegram channel
// from a single background sender.
package notifier

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/metrics"
)

const (
	DefaultQueueSize   = 100
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 1500 * time.Millisecond
	// Telegram allows about one message per second to a channel.
	DefaultSendInterval = 2 * time.Second
	sendTimeout         = 30 * time.Second
)

type Config struct {
	Language    string
	QueueSize   int
	MaxAttempts int
	RetryDelay  time.Duration
	// SendInterval is the minimum gap between two deliveries.
	SendInterval time.Duration
}

type queuedMessage struct {
	kind     Kind
	text     string
	queuedAt time.Time
}

// Sink owns the outgoing queue. Send never blocks the caller; delivery
// failures are logged and counted, never returned.
type Sink struct {
	messenger   Messenger
	maxAttempts int
	retryDelay  time.Duration
	interval    time.Duration
	lastSend    time.Time // owned by messageSender

	mu     sync.RWMutex
	lang   string
	closed bool

	queue     chan queuedMessage
	queueDone chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	stopOnce  sync.Once
}

func NewSink(messenger Messenger, cfg Config) *Sink {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.SendInterval <= 0 {
		cfg.SendInterval = DefaultSendInterval
	}
	if !Supported(cfg.Language) {
		cfg.Language = DefaultLanguage
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Sink{
		messenger:   messenger,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		interval:    cfg.SendInterval,
		lang:        cfg.Language,
		queue:       make(chan queuedMessage, cfg.QueueSize),
		queueDone:   make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
	go s.messageSender()
	return s
}

// SetLanguage switches the language for messages queued from now on.
// Unknown codes fall back to English.
func (s *Sink) SetLanguage(code string) {
	if !Supported(code) {
		slog.Warn("Unsupported notification language, using default", "language", code, "default", DefaultLanguage)
		code = DefaultLanguage
	}
	s.mu.Lock()
	s.lang = code
	s.mu.Unlock()
}

func (s *Sink) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lang
}

// QueueLen returns the number of messages waiting to be sent.
func (s *Sink) QueueLen() int {
	return len(s.queue)
}

// Send renders msg in the active language and queues it. It returns false
// when the message cannot be rendered, the queue is full or the sink stopped.
func (s *Sink) Send(msg Message) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		slog.Warn("Notifier stopped, dropping message", "kind", msg.Kind)
		return false
	}
	text, err := Format(msg, s.lang)
	if err != nil {
		slog.Error("Failed to format message", "kind", msg.Kind, "error", err)
		return false
	}

	select {
	case s.queue <- queuedMessage{kind: msg.Kind, text: text, queuedAt: time.Now()}:
		metrics.Emissions.WithLabelValues(msg.Kind.String()).Inc()
		return true
	default:
		metrics.DeliveryFailures.Inc()
		slog.Warn("Notifier queue full, dropping message", "kind", msg.Kind, "queue_len", len(s.queue))
		return false
	}
}

// Stop refuses new messages, delivers what is already queued and waits for
// the sender to exit. Retries are not attempted after Stop.
func (s *Sink) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.cancel()
	})
	<-s.queueDone
}

// messageSender is the only goroutine talking to the messenger.
func (s *Sink) messageSender() {
	defer close(s.queueDone)

	for {
		select {
		case <-s.ctx.Done():
			// Drain remaining messages before exit
			for {
				select {
				case msg := <-s.queue:
					s.deliver(msg)
				default:
					return
				}
			}
		case msg := <-s.queue:
			s.waitInterval(msg)
			s.deliver(msg)
		}
	}
}

// waitInterval keeps deliveries at least s.interval apart. Stop cuts the
// wait short so the remaining queue is flushed right away.
func (s *Sink) waitInterval(msg queuedMessage) {
	elapsed := time.Since(s.lastSend)
	if elapsed >= s.interval {
		return
	}
	wait := s.interval - elapsed
	slog.Debug("Telegram send: waiting for rate limit",
		"kind", msg.kind,
		"elapsed_since_last", elapsed,
		"wait_time", wait)
	select {
	case <-s.ctx.Done():
	case <-time.After(wait):
	}
}

func (s *Sink) deliver(msg queuedMessage) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		s.lastSend = time.Now()
		err := s.messenger.SendMessage(ctx, msg.text)
		cancel()
		if err == nil {
			slog.Info("Telegram send: success",
				"kind", msg.kind,
				"attempt", attempt,
				"total_duration", time.Since(msg.queuedAt),
				"queue_length", len(s.queue))
			return
		}

		lastErr = err
		slog.Warn("Telegram send: failed",
			"kind", msg.kind,
			"attempt", attempt,
			"max_attempts", s.maxAttempts,
			"message_preview", truncateString(msg.text, 50),
			"error", err)

		if isPermanent(err) || attempt == s.maxAttempts {
			break
		}
		select {
		case <-s.ctx.Done():
			attempt = s.maxAttempts
		case <-time.After(s.retryDelay):
		}
	}

	metrics.DeliveryFailures.Inc()
	slog.Error("Telegram send: giving up", "kind", msg.kind, "error", lastErr)
}

// truncateString truncates a string to maxLen runes
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
