package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mzhao129/facility-notifier/internal/calendar"
	"github.com/mzhao129/facility-notifier/internal/config"
	"github.com/mzhao129/facility-notifier/internal/logger"
	"github.com/mzhao129/facility-notifier/internal/notify"
	"github.com/mzhao129/facility-notifier/internal/pipeline"
	"github.com/mzhao129/facility-notifier/internal/store"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `facnotify init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// buildLogger creates the process logger from the config; --verbose forces
// debug console output.
func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level, format := cfg.Log.Level, cfg.Log.Format
	if verbose {
		level, format = "debug", "console"
	}
	return logger.New(level, format)
}

// buildPipeline wires the poll pipeline from the config: store, calendar
// fetcher, and whichever notification channels are configured. The
// returned cleanup closes the store.
func buildPipeline(cfg *config.Config, log *zap.Logger) (*pipeline.Pipeline, func(), error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, fmt.Errorf("resolving timezone: %w", err)
	}

	kv, err := store.Open(cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	state := store.NewState(kv)

	client := calendar.NewClient(cfg.Calendar.BaseURL, cfg.Calendar.Timeout(), log)
	fetcher := calendar.NewFetcher(client, cfg.Calendar.Concurrency, log)

	// An unconfigured channel is simply absent from the fanout.
	var notifiers []notify.Notifier
	if len(cfg.Discord.WebhookURLs) > 0 {
		notifiers = append(notifiers, notify.NewDiscord(cfg.Discord.WebhookURLs, cfg.Calendar.ScheduleURL, loc, log))
	}
	if cfg.Telegram.Enabled && cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.APIEndpoint, state, cfg.Calendar.ScheduleURL, loc, log)
		if err != nil {
			kv.Close()
			return nil, nil, err
		}
		notifiers = append(notifiers, tg)
	}

	p := pipeline.New(cfg.Events, fetcher, state, notify.NewFanout(log, notifiers...), loc, log)
	cleanup := func() {
		if err := kv.Close(); err != nil {
			log.Warn("closing store", zap.Error(err))
		}
	}
	return p, cleanup, nil
}
