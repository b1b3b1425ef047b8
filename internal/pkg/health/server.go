package health

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/health/handlers"
)

const DefaultReadHeaderTimeout = 5 * time.Second

// NewMux wires the health, metrics and control endpoints.
func NewMux(ctl handlers.Controller, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("/ping", handlers.HandlePing)
	mux.HandleFunc("/health", handlers.HandleHealth)

	// Metrics endpoint
	mux.Handle("/metrics", handlers.MetricsHandler(gatherer))

	api := handlers.NewAPI(ctl)
	mux.HandleFunc("POST /api/start", api.HandleStart)
	mux.HandleFunc("POST /api/stop", api.HandleStop)
	mux.HandleFunc("GET /api/status", api.HandleStatus)
	mux.HandleFunc("GET /api/logs", api.HandleLogs)
	mux.HandleFunc("POST /api/change-language", api.HandleChangeLanguage)

	return mux
}

// Run serves handler on addr until ctx is cancelled.
func Run(ctx context.Context, addr string, service string, handler http.Handler, readHeaderTimeout time.Duration) error {
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = DefaultReadHeaderTimeout
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("HTTP server listening", "service", service, "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func AddrFor(port int) string {
	return fmt.Sprintf(":%d", port)
}
