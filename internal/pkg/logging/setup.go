package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/config"
)

// SetupLogger installs the global logger: text to stdout plus the in-memory
// activity log served by the control API.
func SetupLogger(cfg *config.LoggingConfig, serviceName string) (*slog.Logger, *ActivityLog) {
	level := ParseLevel(cfg.Level)
	activity := NewActivityLog(cfg.ActivitySize, level)

	// Всегда добавляем handler для stdout
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	multiHandler := &MultiHandler{
		handlers: []slog.Handler{textHandler, activity},
	}

	logger := slog.New(multiHandler)
	logger = logger.With("service", serviceName)

	// Устанавливаем как глобальный logger
	slog.SetDefault(logger)

	return logger, activity
}

// ParseLevel maps DEBUG, INFO, WARN and ERROR; anything else is INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MultiHandler отправляет логи в несколько handlers
type MultiHandler struct {
	handlers []slog.Handler
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, record slog.Record) error {
	var lastErr error
	for _, h := range m.handlers {
		if h.Enabled(ctx, record.Level) {
			if err := h.Handle(ctx, record.Clone()); err != nil {
				lastErr = err
			}
		}
	}
	return lastErr
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: handlers}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: handlers}
}
