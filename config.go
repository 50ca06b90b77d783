package naparnik

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	TransportTelegram = "telegram"
	TransportDiscord  = "discord"
)

type Config struct {
	Transport        string        `yaml:"transport"`
	BotName          string        `yaml:"bot_name"`
	BotToken         string        `yaml:"bot_token"`
	DatabaseURL      string        `yaml:"database_url"`
	LogLevel         string        `yaml:"log_level"`
	TickInterval     time.Duration `yaml:"tick_interval"`
	HistoryDays      int           `yaml:"history_days"`
	ReminderInterval time.Duration `yaml:"reminder_interval"`
}

func DefaultConfig() Config {
	return Config{
		Transport:        TransportTelegram,
		BotName:          "Naparnik",
		DatabaseURL:      "sqlite://naparnik.db",
		LogLevel:         "info",
		TickInterval:     10 * time.Second,
		HistoryDays:      30,
		ReminderInterval: time.Hour,
	}
}

// LoadConfig layers defaults, the optional YAML file at path, .env files and
// NAPARNIK_* environment variables, in that order.
func LoadConfig(path string, prod bool) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if prod {
		_ = godotenv.Load(".env")
	} else {
		_ = godotenv.Load(".env.dev")
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	setString("NAPARNIK_TRANSPORT", &c.Transport)
	setString("NAPARNIK_BOT_NAME", &c.BotName)
	setString("NAPARNIK_BOT_TOKEN", &c.BotToken)
	setString("NAPARNIK_DB_URL", &c.DatabaseURL)
	setString("NAPARNIK_LOG_LEVEL", &c.LogLevel)

	if v := getenv("NAPARNIK_TICK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("NAPARNIK_TICK_INTERVAL: %w", err)
		}
		c.TickInterval = d
	}
	if v := getenv("NAPARNIK_REMINDER_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("NAPARNIK_REMINDER_INTERVAL: %w", err)
		}
		c.ReminderInterval = d
	}
	if v := getenv("NAPARNIK_HISTORY_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("NAPARNIK_HISTORY_DAYS: %w", err)
		}
		c.HistoryDays = n
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.Transport {
	case TransportTelegram, TransportDiscord:
	default:
		errs = append(errs, fmt.Errorf("transport must be %q or %q, got %q", TransportTelegram, TransportDiscord, c.Transport))
	}
	if c.BotToken == "" {
		errs = append(errs, errors.New("required environment variable: NAPARNIK_BOT_TOKEN"))
	}
	if !strings.HasPrefix(c.DatabaseURL, "sqlite://") && !strings.HasPrefix(c.DatabaseURL, "postgres://") {
		errs = append(errs, fmt.Errorf("database_url must start with sqlite:// or postgres://, got %q", c.DatabaseURL))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, errors.New("tick_interval must be positive"))
	}
	if c.ReminderInterval <= 0 {
		errs = append(errs, errors.New("reminder_interval must be positive"))
	}
	if c.HistoryDays < 0 {
		errs = append(errs, errors.New("history_days must not be negative"))
	}
	return errors.Join(errs...)
}
