package config

import (
	"time"

	"github.com/mzhao129/facility-notifier/internal/event"
)

// StoreDriver identifies a snapshot store backend.
type StoreDriver string

const (
	StoreSQLite StoreDriver = "sqlite"
	StoreBadger StoreDriver = "badger"
)

// Config is the top-level facnotify configuration, corresponding to
// facnotify.yml.
type Config struct {
	Timezone string         `yaml:"timezone" koanf:"timezone"`
	Calendar CalendarConfig `yaml:"calendar" koanf:"calendar"`
	Store    StoreConfig    `yaml:"store" koanf:"store"`
	Discord  DiscordConfig  `yaml:"discord" koanf:"discord"`
	Telegram TelegramConfig `yaml:"telegram" koanf:"telegram"`
	Events   []event.Config `yaml:"events" koanf:"events"`
	Log      LogConfig      `yaml:"log" koanf:"log"`
	Server   ServerConfig   `yaml:"server" koanf:"server"`
	Watch    WatchConfig    `yaml:"watch" koanf:"watch"`
}

// CalendarConfig points at the facility booking calendar.
type CalendarConfig struct {
	// BaseURL is the appointments endpoint queried for each facility.
	BaseURL string `yaml:"base_url" koanf:"base_url"`
	// ScheduleURL is the human-facing schedule page linked from
	// notifications.
	ScheduleURL    string `yaml:"schedule_url" koanf:"schedule_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" koanf:"timeout_seconds"`
	// Concurrency caps how many calendar windows are fetched in parallel.
	Concurrency int `yaml:"concurrency" koanf:"concurrency"`
}

// Timeout returns the per-request timeout for calendar fetches.
func (c CalendarConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// StoreConfig selects and locates the snapshot store.
type StoreConfig struct {
	Driver StoreDriver `yaml:"driver" koanf:"driver"`
	Path   string      `yaml:"path" koanf:"path"`
}

// DiscordConfig lists the webhooks notified on calendar changes.
type DiscordConfig struct {
	WebhookURLs []string `yaml:"webhook_urls" koanf:"webhook_urls"`
}

// TelegramConfig holds the bot credentials. APIEndpoint overrides the
// Telegram API base and exists for tests; leave it empty in production.
type TelegramConfig struct {
	Enabled     bool   `yaml:"enabled" koanf:"enabled"`
	Token       string `yaml:"token" koanf:"token"`
	APIEndpoint string `yaml:"api_endpoint" koanf:"api_endpoint"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}

// ServerConfig controls the operational HTTP listener.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled" koanf:"enabled"`
	Listen  string `yaml:"listen" koanf:"listen"`
}

// WatchConfig controls the watch subcommand's polling cadence.
type WatchConfig struct {
	// Schedule is a standard five-field cron expression.
	Schedule string `yaml:"schedule" koanf:"schedule"`
}

// Location resolves the configured IANA timezone. Zone-naive calendar
// timestamps are interpreted in this location.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
