package config

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	yamlv3 "gopkg.in/yaml.v3"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to the given path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to facnotify! Let's configure your notifier.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Timezone for zone-naive calendar timestamps.
	tzPrompt := promptui.Prompt{
		Label:   "Timezone for calendar timestamps (IANA name)",
		Default: cfg.Timezone,
		Validate: func(input string) error {
			c := Config{Timezone: input}
			if _, err := c.Location(); err != nil {
				return fmt.Errorf("unknown timezone %q", input)
			}
			return nil
		},
	}
	tz, err := tzPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	cfg.Timezone = tz

	// 2. Snapshot store backend.
	driverPrompt := promptui.Select{
		Label: "Select snapshot store backend",
		Items: []string{
			"sqlite — single-file database, inspectable with standard tools",
			"badger — embedded key-value store, directory on disk",
		},
	}
	driverIdx, _, err := driverPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("store backend: %w", err)
	}
	drivers := []StoreDriver{StoreSQLite, StoreBadger}
	cfg.Store.Driver = drivers[driverIdx]
	if cfg.Store.Driver == StoreBadger {
		cfg.Store.Path = "facnotify-badger"
	}

	pathPrompt := promptui.Prompt{
		Label:   "Store path",
		Default: cfg.Store.Path,
	}
	storePath, err := pathPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("store path: %w", err)
	}
	cfg.Store.Path = storePath

	// 3. Discord webhooks.
	discordPrompt := promptui.Prompt{
		Label:   "Discord webhook URLs (comma-separated, leave blank to skip)",
		Default: "",
	}
	discordStr, err := discordPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("discord webhooks: %w", err)
	}
	cfg.Discord.WebhookURLs = splitAndTrim(discordStr)

	// 4. Telegram bot.
	telegramPrompt := promptui.Select{
		Label: "Enable Telegram notifications",
		Items: []string{"no", "yes"},
	}
	telegramIdx, _, err := telegramPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	cfg.Telegram.Enabled = telegramIdx == 1
	if cfg.Telegram.Enabled {
		tokenPrompt := promptui.Prompt{
			Label: "Telegram bot token (leave blank to set via FACNOTIFY_TELEGRAM__TOKEN)",
			Mask:  '*',
		}
		token, err := tokenPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("telegram token: %w", err)
		}
		cfg.Telegram.Token = token
	}

	fmt.Println()
	fmt.Printf("Tracking %d default event configurations; edit the events list in %s to change them.\n", len(cfg.Events), path)

	if cfg.Telegram.Enabled && cfg.Telegram.Token == "" {
		fmt.Println("Note: Set FACNOTIFY_TELEGRAM__TOKEN in your environment before running facnotify run.")
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}

// ExampleYAML renders a commented starter configuration for facnotify init
// --print, without touching the filesystem.
func ExampleYAML() (string, error) {
	data, err := yamlv3.Marshal(DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("marshalling defaults: %w", err)
	}
	var b strings.Builder
	b.WriteString("# facnotify configuration\n")
	b.WriteString("# Values can be overridden with FACNOTIFY_* environment variables;\n")
	b.WriteString("# a double underscore descends one level (FACNOTIFY_TELEGRAM__TOKEN).\n")
	b.Write(data)
	return b.String(), nil
}
