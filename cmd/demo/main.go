package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vodeneev/bacbo-signals/internal/demo"
	"github.com/Vodeneev/bacbo-signals/internal/notifier"
	pkgconfig "github.com/Vodeneev/bacbo-signals/internal/pkg/config"
	"github.com/Vodeneev/bacbo-signals/internal/pkg/logging"
)

const defaultConfigPath = "configs/config.yaml"

type config struct {
	configPath string
	runFor     time.Duration
	schedule   string
}

func main() {
	if err := run(); err != nil {
		slog.Error("Demo bot failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := parseFlags()

	appConfig, err := pkgconfig.Load(cfg.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logging.SetupLogger(&appConfig.Logging, "bacbo-demo")

	tg := appConfig.Telegram
	messenger, err := notifier.NewTelegramMessenger(tg.BotToken, tg.ChannelID)
	if err != nil {
		return fmt.Errorf("failed to init telegram: %w", err)
	}
	sink := notifier.NewSink(messenger, notifier.Config{
		Language:     tg.Language,
		QueueSize:    tg.QueueSize,
		MaxAttempts:  tg.MaxAttempts,
		RetryDelay:   tg.RetryDelay,
		SendInterval: tg.SendInterval,
	})
	defer sink.Stop()

	ctx, cancel := createContext(cfg.runFor)
	defer cancel()
	setupSignalHandler(ctx, cancel)

	schedule := appConfig.Demo.Schedule
	if cfg.schedule != "" {
		schedule = cfg.schedule
	}
	slog.Info("Starting demo bot", "language", tg.Language, "schedule", schedule)
	return demo.New(sink, demo.Config{Schedule: schedule, ResultDelay: appConfig.Demo.ResultDelay}).Run(ctx)
}

func parseFlags() config {
	var cfg config
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}
	flag.StringVar(&cfg.configPath, "config", defaultConfig, "Path to config file")
	flag.DurationVar(&cfg.runFor, "run-for", 0, "Auto-stop after duration. 0 = run until SIGINT/SIGTERM")
	flag.StringVar(&cfg.schedule, "schedule", "", "Cron spec for demo rounds, overrides config (e.g. \"@every 12s\")")
	flag.Parse()
	return cfg
}

func createContext(runFor time.Duration) (context.Context, context.CancelFunc) {
	if runFor > 0 {
		return context.WithTimeout(context.Background(), runFor)
	}
	return context.WithCancel(context.Background())
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
