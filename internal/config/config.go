// Package config loads daemon settings from a YAML file with environment
// overrides for the secrets.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIAddr     = "127.0.0.1:8080"
	DefaultLogDir      = "logs"
	DefaultJobsPath    = "jobs.json"
	DefaultTickSec     = 10
	DefaultIntervalSec = 0.2
	DefaultCount       = 10
)

type Config struct {
	APIAddr       string  `yaml:"api_addr"`
	OperatorToken string  `yaml:"operator_token"` // bearer token for the API; empty disables auth
	LogDir        string  `yaml:"log_dir"`
	JobsPath      string  `yaml:"jobs_path"`
	TickSec       int     `yaml:"tick_sec"`
	IntervalSec   float64 `yaml:"default_interval_sec"` // defaults for new jobs
	Count         int     `yaml:"default_count"`

	Telegram TelegramConfig `yaml:"telegram"`
	Slack    SlackConfig    `yaml:"slack"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID string `yaml:"chat_id"`
}

type SlackConfig struct {
	Webhook string `yaml:"webhook"`
}

// Load reads the YAML file at path, applies env overrides and defaults.
// A missing file is fine; env-only setups are supported.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	applyEnv(&cfg)
	ApplyDefaults(&cfg)
	return cfg, nil
}

// applyEnv lets the secrets live outside the config file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("PINGMON_API_ADDR"); v != "" {
		cfg.APIAddr = v
	}
	if v := os.Getenv("PINGMON_OPERATOR_TOKEN"); v != "" {
		cfg.OperatorToken = v
	}
	if v := os.Getenv("PINGMON_TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("PINGMON_TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("PINGMON_SLACK_WEBHOOK"); v != "" {
		cfg.Slack.Webhook = v
	}
	if v := os.Getenv("PINGMON_TICK_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TickSec = n
		}
	}
}

// ApplyDefaults fills in default values when empty.
func ApplyDefaults(cfg *Config) {
	if cfg.APIAddr == "" {
		cfg.APIAddr = DefaultAPIAddr
	}
	if cfg.LogDir == "" {
		cfg.LogDir = DefaultLogDir
	}
	if cfg.JobsPath == "" {
		cfg.JobsPath = DefaultJobsPath
	}
	if cfg.TickSec <= 0 {
		cfg.TickSec = DefaultTickSec
	}
	if cfg.IntervalSec <= 0 {
		cfg.IntervalSec = DefaultIntervalSec
	}
	if cfg.Count <= 0 {
		cfg.Count = DefaultCount
	}
}

// Validate performs minimal validation for required fields.
func Validate(cfg Config) error {
	if cfg.Telegram.Token == "" && cfg.Slack.Webhook == "" {
		return fmt.Errorf("at least one notifier (telegram or slack) must be configured")
	}
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.token is set")
	}
	return nil
}

// TickPeriod returns the polling period as a duration.
func (c Config) TickPeriod() time.Duration {
	return time.Duration(c.TickSec) * time.Second
}

// MaskToken returns a display-safe form of a secret (first 4 + last 4).
func MaskToken(token string) string {
	if len(token) < 12 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
