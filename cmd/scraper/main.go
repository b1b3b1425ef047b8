package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Vodeneev/bacbo-signals/internal/control"
	"github.com/Vodeneev/bacbo-signals/internal/demo"
	"github.com/Vodeneev/bacbo-signals/internal/notifier"
	pkgconfig "github.com/Vodeneev/bacbo-signals/internal/pkg/config"
	"github.com/Vodeneev/bacbo-signals/internal/pkg/health"
	"github.com/Vodeneev/bacbo-signals/internal/pkg/logging"
	"github.com/Vodeneev/bacbo-signals/internal/pkg/metrics"
	"github.com/Vodeneev/bacbo-signals/internal/pkg/storage"
	"github.com/Vodeneev/bacbo-signals/internal/scraper"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/archive"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/browser"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/extract"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/ocr"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "bacbo-scraper"
)

type config struct {
	configPath string
	autostart  bool
	mode       string
}

func main() {
	if err := run(); err != nil {
		slog.Error("Scraper service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := parseFlags()

	appConfig, err := pkgconfig.Load(cfg.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	_, activity := logging.SetupLogger(&appConfig.Logging, serviceName)
	slog.Info("Config loaded", "path", cfg.configPath, "port", appConfig.Server.Port, "url", appConfig.Scraper.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(ctx, cancel)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.MustRegister(reg)

	reader := openOCR(appConfig.OCR)
	if closer, ok := reader.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	runners := map[control.Mode]control.RunnerFactory{
		control.ModeScraper: func(sink *notifier.Sink) (control.Runner, error) {
			return &scraperRunner{cfg: appConfig, sink: sink, reader: reader}, nil
		},
		control.ModeDemo: func(sink *notifier.Sink) (control.Runner, error) {
			return demo.New(sink, demo.Config{
				Schedule:    appConfig.Demo.Schedule,
				ResultDelay: appConfig.Demo.ResultDelay,
			}), nil
		},
	}
	sinkCfg := notifier.Config{
		Language:     appConfig.Telegram.Language,
		QueueSize:    appConfig.Telegram.QueueSize,
		MaxAttempts:  appConfig.Telegram.MaxAttempts,
		RetryDelay:   appConfig.Telegram.RetryDelay,
		SendInterval: appConfig.Telegram.SendInterval,
	}
	manager := control.NewManager(newMessenger, runners, sinkCfg, activity)

	if cfg.autostart {
		err := manager.Start(control.StartRequest{
			Token:     appConfig.Telegram.BotToken,
			ChannelID: appConfig.Telegram.ChannelID,
			Language:  appConfig.Telegram.Language,
			Mode:      control.Mode(cfg.mode),
		})
		if err != nil {
			return fmt.Errorf("autostart failed: %w", err)
		}
	}

	err = health.Run(ctx, health.AddrFor(appConfig.Server.Port), serviceName, health.NewMux(manager, reg), 0)
	if manager.Status().Running {
		_ = manager.Stop()
	}
	return err
}

func parseFlags() config {
	var cfg config
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}
	flag.StringVar(&cfg.configPath, "config", defaultConfig, "Path to config file")
	flag.BoolVar(&cfg.autostart, "autostart", false, "Start a session with the configured Telegram credentials")
	flag.StringVar(&cfg.mode, "mode", string(control.ModeScraper), "Session mode for -autostart: scraper or demo")
	flag.Parse()
	return cfg
}

func setupSignalHandler(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			signal.Stop(sigChan)
		}
	}()
}

func newMessenger(token, channelID string) (notifier.Messenger, error) {
	m, err := notifier.NewTelegramMessenger(token, channelID)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func openOCR(cfg pkgconfig.OCRConfig) ocr.Reader {
	if !cfg.Enabled {
		return nil
	}
	t, err := ocr.NewTesseract(cfg.Language)
	if err != nil {
		slog.Warn("OCR disabled, extracting from the DOM only", "error", err)
		return nil
	}
	slog.Info("OCR enabled", "language", cfg.Language)
	return t
}

// scraperRunner opens the snapshot sinks for the lifetime of one session.
type scraperRunner struct {
	cfg    *pkgconfig.Config
	sink   *notifier.Sink
	reader ocr.Reader
}

func (r *scraperRunner) Run(ctx context.Context) error {
	rec := storage.Open(ctx, r.cfg.Storage)
	defer rec.Close()

	sc := r.cfg.Scraper
	sessionCfg := scraper.Config{
		URL:                sc.URL,
		LoginTimeout:       sc.LoginTimeout,
		PollInterval:       sc.PollInterval,
		ErrorBackoff:       sc.ErrorBackoff,
		ScreenshotInterval: sc.ScreenshotInterval,
		EmitInterval:       sc.EmitInterval,
		EmitDelta:          sc.EmitDelta,
		OCR: extract.OCRConfig{
			Scale:         r.cfg.OCR.Scale,
			MinConfidence: r.cfg.OCR.MinConfidence,
		},
	}
	bc := r.cfg.Browser
	launch := func(ctx context.Context) (scraper.Page, error) {
		b, err := browser.Launch(ctx, browser.Config{
			Headless:  bc.Headless,
			Width:     bc.Width,
			Height:    bc.Height,
			UserAgent: bc.UserAgent,
			ExecPath:  bc.ExecPath,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	}

	opts := []scraper.Option{scraper.WithArchive(archive.New(sc.ScreenshotDir))}
	if r.reader != nil {
		opts = append(opts, scraper.WithOCR(r.reader))
	}
	return scraper.NewSession(sessionCfg, launch, r.sink, rec, opts...).Run(ctx)
}
