// Package pipeline sequences one poll: fetch the calendar, diff each
// tracked configuration against its stored snapshot, notify the
// configured channels, and persist. Notification happens before
// persistence; a failed delivery leaves the old snapshots in place so the
// next poll re-detects and re-sends the same changes.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mzhao129/facility-notifier/internal/calendar"
	"github.com/mzhao129/facility-notifier/internal/event"
	"github.com/mzhao129/facility-notifier/internal/notify"
	"github.com/mzhao129/facility-notifier/internal/store"
)

// Pipeline runs polls over a fixed configuration registry.
type Pipeline struct {
	events  []event.Config
	fetcher *calendar.Fetcher
	state   *store.State
	fanout  *notify.Fanout
	loc     *time.Location
	logger  *zap.Logger
}

// New assembles a Pipeline. loc is the zone used to anchor fetch windows
// and interpret naive calendar timestamps.
func New(events []event.Config, fetcher *calendar.Fetcher, state *store.State, fanout *notify.Fanout, loc *time.Location, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		events:  events,
		fetcher: fetcher,
		state:   state,
		fanout:  fanout,
		loc:     loc,
		logger:  logger,
	}
}

// Result is what one poll reports back to its trigger.
type Result struct {
	RunID      string    `json:"run_id"`
	Message    string    `json:"message"`
	HasChanges bool      `json:"has_changes"`
	StartedAt  time.Time `json:"started_at"`
	TookMS     int64     `json:"took_ms"`
}

// Run executes one poll. now is captured once at the start so every
// future-entry comparison within the poll uses the same instant. On
// failure the Result still carries the run ID and timing for the ops
// surface.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	runID := uuid.NewString()
	started := time.Now()
	now := started.In(p.loc)
	logger := p.logger.With(zap.String("run_id", runID))

	logger.Info("poll started",
		zap.Int("configs", len(p.events)),
		zap.Time("now", now))

	fail := func(err error) (Result, error) {
		return Result{
			RunID:     runID,
			Message:   "run failed",
			StartedAt: now,
			TookMS:    time.Since(started).Milliseconds(),
		}, err
	}

	// Drain inbound channel commands first so this poll's broadcast
	// reaches chats that subscribed since the last one.
	for _, n := range p.fanout.Notifiers() {
		r, ok := n.(notify.SubscriberRefresher)
		if !ok {
			continue
		}
		subs, err := r.RefreshSubscribers(ctx)
		if err != nil {
			return fail(fmt.Errorf("refreshing %s subscribers: %w", n.Name(), err))
		}
		logger.Debug("subscribers refreshed",
			zap.String("channel", n.Name()),
			zap.Int("subscribers", len(subs)))
	}

	// Fetch the current windows and load the previous snapshots
	// concurrently; both must land before diffing starts.
	var (
		wg       sync.WaitGroup
		fetched  map[calendar.Request][]event.CalendarEntry
		fetchErr error
		previous = make([]event.Snapshot, len(p.events))
		loadErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		fetched, fetchErr = p.fetcher.FetchAll(ctx, p.events, now)
	}()
	go func() {
		defer wg.Done()
		for i, cfg := range p.events {
			previous[i], loadErr = p.state.Entries(ctx, cfg)
			if loadErr != nil {
				return
			}
		}
	}()
	wg.Wait()
	if fetchErr != nil {
		return fail(fetchErr)
	}
	if loadErr != nil {
		return fail(fmt.Errorf("loading snapshots: %w", loadErr))
	}

	items := make([]notify.Item, len(p.events))
	dirty := make([]bool, len(p.events))
	for i, cfg := range p.events {
		current := cfg.FilterEntries(fetched[calendar.WindowRequest(cfg, now)])
		changes, err := event.Detect(cfg, previous[i], current, now, p.loc)
		if err != nil {
			return fail(err)
		}
		items[i] = notify.Item{Changes: changes, Entries: current}
		dirty[i] = !current.Equal(previous[i])
		logger.Debug("configuration diffed",
			zap.String("snapshot_key", cfg.SnapshotKey()),
			zap.Int("entries", len(current)),
			zap.Int("new", len(changes.New)),
			zap.Int("cancelled", len(changes.Cancelled)),
			zap.Bool("snapshot_changed", dirty[i]))
	}

	update := notify.Update{RunID: runID, Items: items, Now: now}
	hasChanges := update.HasChanges()

	if hasChanges {
		if err := p.fanout.Send(ctx, update); err != nil {
			// The old snapshots stay in place; the next poll re-detects
			// and re-sends these changes.
			return fail(err)
		}
	}

	// Past sessions rolling out of the window change the snapshot without
	// producing a notification; those still persist so they are not
	// re-diffed forever.
	persisted := 0
	for i, cfg := range p.events {
		if !dirty[i] {
			continue
		}
		if err := p.state.SaveEntries(ctx, cfg, items[i].Entries); err != nil {
			return fail(fmt.Errorf("persisting snapshot %s: %w", cfg.SnapshotKey(), err))
		}
		persisted++
	}

	message := "no changes detected"
	if hasChanges {
		message = "changes detected and notifications sent"
	}
	logger.Info("poll finished",
		zap.Bool("has_changes", hasChanges),
		zap.Int("snapshots_persisted", persisted),
		zap.Duration("took", time.Since(started)))

	return Result{
		RunID:      runID,
		Message:    message,
		HasChanges: hasChanges,
		StartedAt:  now,
		TookMS:     time.Since(started).Milliseconds(),
	}, nil
}
