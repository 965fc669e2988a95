package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mzhao129/facility-notifier/internal/pipeline"
	"github.com/mzhao129/facility-notifier/internal/server"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll on a schedule until interrupted",
	Long: `Polls the calendar on the cron schedule from the config. A tick that
arrives while the previous poll is still running is skipped, so runs never
overlap the snapshot store. When the ops server is enabled the process
also serves /healthz and /api/status while watching.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := buildLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		loc, err := cfg.Location()
		if err != nil {
			return fmt.Errorf("resolving timezone: %w", err)
		}

		p, cleanup, err := buildPipeline(cfg, log)
		if err != nil {
			return err
		}
		defer cleanup()

		status := pipeline.NewStatus()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		c := cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{log})),
		)
		_, err = c.AddFunc(cfg.Watch.Schedule, func() {
			res, err := p.Run(ctx)
			status.Record(res, err)
			if err != nil {
				log.Error("poll failed",
					zap.String("run_id", res.RunID),
					zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("invalid watch schedule %q: %w", cfg.Watch.Schedule, err)
		}

		var ops *server.Server
		if cfg.Server.Enabled {
			ops = server.New(cfg.Server, status, log)
			go func() {
				if err := ops.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("ops server failed", zap.Error(err))
				}
			}()
		}

		log.Info("watching calendar",
			zap.String("schedule", cfg.Watch.Schedule),
			zap.String("timezone", cfg.Timezone),
			zap.Int("configs", len(cfg.Events)))
		c.Start()

		<-ctx.Done()
		log.Info("shutting down")

		// Let an in-flight poll finish before closing the store.
		<-c.Stop().Done()
		if ops != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := ops.Shutdown(shutdownCtx); err != nil {
				log.Warn("shutting down ops server", zap.Error(err))
			}
		}
		return nil
	},
}

// cronLogger adapts zap to the cron scheduler's logging interface, which
// only speaks up on skipped or misbehaving jobs.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Infow(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
