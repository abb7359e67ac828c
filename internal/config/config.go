// Package config builds the run configuration for guild-tracker.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables. The CLI applies explicitly set flags on top and
// calls Validate before handing the Config to the tracker.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pfrederiksen/guild-tracker/internal/event"
	"github.com/pfrederiksen/guild-tracker/internal/logger"
	"github.com/pfrederiksen/guild-tracker/internal/scraper"
	"github.com/pfrederiksen/guild-tracker/internal/storage"
	"gopkg.in/yaml.v3"
)

// Config holds everything a tracking run needs
type Config struct {
	SourceURL       string        `yaml:"source_url" env:"GUILD_TRACKER_URL"`
	StateFile       string        `yaml:"state_file" env:"GUILD_TRACKER_STATE_FILE"`
	WebhookURL      string        `yaml:"webhook_url" env:"DISCORD_WEBHOOK_URL"`
	WebhookUsername string        `yaml:"webhook_username" env:"GUILD_TRACKER_WEBHOOK_USERNAME"`
	Timeout         time.Duration `yaml:"timeout" env:"GUILD_TRACKER_TIMEOUT"`
	UserAgent       string        `yaml:"user_agent" env:"GUILD_TRACKER_USER_AGENT"`
	Language        string        `yaml:"language" env:"GUILD_TRACKER_LANG"`
	NameColumn      int           `yaml:"name_column" env:"GUILD_TRACKER_NAME_COLUMN"`
	GuildColumn     int           `yaml:"guild_column" env:"GUILD_TRACKER_GUILD_COLUMN"`
	LogLevel        string        `yaml:"log_level" env:"GUILD_TRACKER_LOG_LEVEL"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		SourceURL:   scraper.RosterURL,
		StateFile:   storage.DefaultPath,
		Timeout:     scraper.Timeout,
		UserAgent:   scraper.UserAgent,
		Language:    string(event.English),
		NameColumn:  scraper.DefaultNameColumn,
		GuildColumn: scraper.DefaultGuildColumn,
		LogLevel:    "info",
	}
}

// Load builds a configuration from defaults, the YAML file at path (skipped
// when path is empty) and the process environment
func Load(path string) (Config, error) {
	return load(path, env.Options{})
}

func load(path string, opts env.Options) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

// readFile overlays the settings present in a YAML file
func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Validate reports the first invalid setting
func (c Config) Validate() error {
	u, err := url.Parse(c.SourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid source URL: %q", c.SourceURL)
	}

	if strings.TrimSpace(c.StateFile) == "" {
		return fmt.Errorf("state file path is required")
	}

	if c.WebhookURL != "" {
		u, err := url.Parse(c.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			// The URL embeds a secret token, keep it out of the message
			return fmt.Errorf("invalid webhook URL")
		}
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	if _, err := event.ParseLanguage(c.Language); err != nil {
		return err
	}

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.NameColumn < 0 || c.GuildColumn < 0 {
		return fmt.Errorf("columns must not be negative")
	}
	if c.NameColumn == c.GuildColumn {
		return fmt.Errorf("name and guild columns must differ, both are %d", c.NameColumn)
	}

	return nil
}

// NotificationsEnabled reports whether a webhook is configured
func (c Config) NotificationsEnabled() bool {
	return c.WebhookURL != ""
}

// Lang returns the validated message language
func (c Config) Lang() event.Language {
	lang, err := event.ParseLanguage(c.Language)
	if err != nil {
		return event.English
	}
	return lang
}

// Level returns the validated log level
func (c Config) Level() logger.Level {
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return logger.LevelInfo
	}
	return level
}

// ScraperOptions returns the scraper settings for this configuration
func (c Config) ScraperOptions() scraper.Options {
	return scraper.Options{
		URL:         c.SourceURL,
		UserAgent:   c.UserAgent,
		Timeout:     c.Timeout,
		NameColumn:  c.NameColumn,
		GuildColumn: c.GuildColumn,
	}
}
