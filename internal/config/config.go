package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (FACNOTIFY_*). A double underscore in a
// variable name descends one level, so FACNOTIFY_TELEGRAM__TOKEN sets
// telegram.token while FACNOTIFY_TIMEZONE sets timezone.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables.
	if err := k.Load(env.Provider("FACNOTIFY_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "FACNOTIFY_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	// A config that lists its own events replaces the defaults wholesale;
	// merging element-wise would leak default fields into user entries.
	if k.Exists("events") {
		cfg.Events = nil
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validDrivers is the set of recognized store driver values.
var validDrivers = map[StoreDriver]bool{
	StoreSQLite: true,
	StoreBadger: true,
}

// Validate checks that the configuration contains valid values. Tracked
// event configurations are fully checked here so that a malformed filter
// can never fail a poll mid-run.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	if c.Calendar.BaseURL == "" {
		return fmt.Errorf("calendar.base_url is required")
	}
	if c.Calendar.TimeoutSeconds <= 0 {
		return fmt.Errorf("calendar.timeout_seconds must be positive")
	}
	if c.Calendar.Concurrency < 1 {
		return fmt.Errorf("calendar.concurrency must be at least 1")
	}

	if !validDrivers[c.Store.Driver] {
		return fmt.Errorf("invalid store driver %q: must be one of sqlite, badger", c.Store.Driver)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}

	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required when telegram is enabled")
	}

	if len(c.Events) == 0 {
		return fmt.Errorf("at least one tracked event is required")
	}
	seen := make(map[string]bool, len(c.Events))
	for i, ev := range c.Events {
		if ev.FacilityID == "" {
			return fmt.Errorf("events[%d]: facility_id is required", i)
		}
		if ev.FacilityName == "" {
			return fmt.Errorf("events[%d]: facility_name is required", i)
		}
		if ev.EventName == "" {
			return fmt.Errorf("events[%d]: event_name is required", i)
		}
		if ev.LookaheadDays < 0 {
			return fmt.Errorf("events[%d]: lookahead_days must not be negative", i)
		}
		key := ev.SnapshotKey()
		if seen[key] {
			return fmt.Errorf("events[%d]: duplicate facility_id and event_name pair %q / %q", i, ev.FacilityID, ev.EventName)
		}
		seen[key] = true
		if err := ev.Filter.Validate(); err != nil {
			return fmt.Errorf("events[%d]: %w", i, err)
		}
	}

	if c.Server.Enabled && c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required when the server is enabled")
	}

	if c.Watch.Schedule == "" {
		return fmt.Errorf("watch.schedule is required")
	}

	return nil
}
