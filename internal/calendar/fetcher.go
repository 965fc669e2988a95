package calendar

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mzhao129/facility-notifier/internal/event"
)

// Fetcher runs one poll's worth of window fetches with bounded
// parallelism.
type Fetcher struct {
	client      *Client
	concurrency int
	logger      *zap.Logger
}

// NewFetcher creates a Fetcher with the given concurrency limit.
func NewFetcher(client *Client, concurrency int, logger *zap.Logger) *Fetcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Fetcher{
		client:      client,
		concurrency: concurrency,
		logger:      logger,
	}
}

// FetchAll retrieves every unique window among cfgs, anchored at now, and
// returns the results keyed by Request. On any failure it cancels the
// remaining work, waits for in-flight requests to drain, and reports the
// first error; a partial result never reaches the caller.
func (f *Fetcher) FetchAll(ctx context.Context, cfgs []event.Config, now time.Time) (map[Request][]event.CalendarEntry, error) {
	unique := make([]Request, 0, len(cfgs))
	seen := make(map[Request]bool, len(cfgs))
	for _, cfg := range cfgs {
		req := WindowRequest(cfg, now)
		if !seen[req] {
			seen[req] = true
			unique = append(unique, req)
		}
	}

	f.logger.Debug("fetching calendar windows",
		zap.Int("configs", len(cfgs)),
		zap.Int("unique_windows", len(unique)))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, f.concurrency)
	var (
		mu       sync.Mutex
		results  = make(map[Request][]event.CalendarEntry, len(unique))
		firstErr error
	)

	var wg sync.WaitGroup
	for _, req := range unique {
		select {
		case <-ctx.Done():
			// An earlier failure or the caller already canceled; skip
			// launching the rest.
		case sem <- struct{}{}:
			wg.Add(1)
			go func(r Request) {
				defer wg.Done()
				defer func() { <-sem }()

				entries, err := f.client.Fetch(ctx, r)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
					cancel()
					return
				}
				results[r] = entries
			}(req)
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
