package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultGameURL  = "https://www.vemabet10.com/pt/game/bac-bo/play-for-real"
	DefaultPort     = 5000
	DefaultCSVPath  = "data/scrape_results.csv"
	DefaultShotsDir = "data/screenshots"
	DefaultUA       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Telegram TelegramConfig `yaml:"telegram"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	Browser  BrowserConfig  `yaml:"browser"`
	OCR      OCRConfig      `yaml:"ocr"`
	Storage  StorageConfig  `yaml:"storage"`
	Demo     DemoConfig     `yaml:"demo"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type TelegramConfig struct {
	BotToken    string        `yaml:"bot_token"`
	ChannelID   string        `yaml:"channel_id"` // numeric id or @channel
	Language    string        `yaml:"language"`
	QueueSize   int           `yaml:"queue_size"`
	MaxAttempts int           `yaml:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	// SendInterval is the minimum gap between channel messages.
	SendInterval time.Duration `yaml:"send_interval"`
}

type ScraperConfig struct {
	URL                string        `yaml:"url"`
	LoginTimeout       time.Duration `yaml:"login_timeout"`
	PollInterval       time.Duration `yaml:"poll_interval"`
	ErrorBackoff       time.Duration `yaml:"error_backoff"`
	ScreenshotInterval time.Duration `yaml:"screenshot_interval"`
	ScreenshotDir      string        `yaml:"screenshot_dir"` // empty disables the archive
	EmitInterval       time.Duration `yaml:"emit_interval"`
	EmitDelta          float64       `yaml:"emit_delta"` // percentage points
}

type BrowserConfig struct {
	Headless  bool   `yaml:"headless"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	UserAgent string `yaml:"user_agent"`
	ExecPath  string `yaml:"exec_path"`
}

type OCRConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Language      string  `yaml:"language"`
	Scale         float64 `yaml:"scale"`
	MinConfidence float64 `yaml:"min_confidence"` // 0..1
}

type StorageConfig struct {
	CSVPath  string         `yaml:"csv_path"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type DemoConfig struct {
	Schedule    string        `yaml:"schedule"`
	ResultDelay time.Duration `yaml:"result_delay"`
}

type LoggingConfig struct {
	Level        string `yaml:"level"` // DEBUG, INFO, WARN, ERROR
	ActivitySize int    `yaml:"activity_size"`
}

// Load reads the YAML file at configPath, applies environment overrides and
// fills defaults. A missing file is not an error: the service can run from
// the environment alone. A .env file in the working directory is loaded first.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var config Config
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.Telegram.ChannelID, "TELEGRAM_CHANNEL_ID")
	setString(&c.Telegram.Language, "BOT_LANGUAGE")
	setString(&c.Storage.Postgres.DSN, "POSTGRES_DSN")
	setString(&c.Storage.Redis.Addr, "REDIS_ADDR")
	setString(&c.Logging.Level, "LOG_LEVEL")

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("HEADLESS"); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid HEADLESS %q: %w", v, err)
		}
		c.Browser.Headless = headless
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Telegram.Language == "" {
		c.Telegram.Language = "en"
	}
	c.Telegram.Language = strings.ToLower(c.Telegram.Language)
	if c.Scraper.URL == "" {
		c.Scraper.URL = DefaultGameURL
	}
	if c.Browser.UserAgent == "" {
		c.Browser.UserAgent = DefaultUA
	}
	if c.Browser.Width == 0 || c.Browser.Height == 0 {
		c.Browser.Width, c.Browser.Height = 1920, 1080
	}
	if c.OCR.Language == "" {
		c.OCR.Language = "eng"
	}
	if c.Storage.CSVPath == "" {
		c.Storage.CSVPath = DefaultCSVPath
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "INFO"
	}
	if c.Logging.ActivitySize <= 0 {
		c.Logging.ActivitySize = 100
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
