// Package calendar talks to the facility booking system's appointments
// feed and fans fetches out across tracked configurations.
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/mzhao129/facility-notifier/internal/event"
)

// windowLayout renders window boundaries the way the booking system
// expects them, with a colon-less UTC offset.
const windowLayout = "2006-01-02T15:04:05-0700"

// Request identifies one calendar window fetch. Value equality drives the
// per-run fetch cache: configurations sharing a facility and window
// collapse to a single request.
type Request struct {
	FacilityID string
	Start      string
	End        string
}

// WindowRequest builds the Request covering cfg's lookahead window,
// anchored at now's calendar date in now's location. The window runs from
// the start of today through the end of the day lookahead_days ahead.
func WindowRequest(cfg event.Config, now time.Time) Request {
	year, month, day := now.Date()
	loc := now.Location()
	start := time.Date(year, month, day, 0, 0, 0, 0, loc)
	end := time.Date(year, month, day, 23, 59, 59, 0, loc).AddDate(0, 0, cfg.LookaheadDays)
	return Request{
		FacilityID: cfg.FacilityID,
		Start:      start.Format(windowLayout),
		End:        end.Format(windowLayout),
	}
}

// Client fetches raw session feeds from the booking calendar.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a calendar client for the given appointments endpoint.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Fetch retrieves the raw entries for one window. Any transport, status,
// or decode failure is returned as-is; callers treat a failed window as
// fatal for the whole poll rather than notifying from partial data.
func (c *Client) Fetch(ctx context.Context, req Request) ([]event.CalendarEntry, error) {
	q := url.Values{}
	q.Set("selectedId", req.FacilityID)
	q.Set("start", req.Start)
	q.Set("end", req.End)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building calendar request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetching calendar for facility %s: %w", req.FacilityID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar returned status %d for facility %s", resp.StatusCode, req.FacilityID)
	}

	var entries []event.CalendarEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding calendar response for facility %s: %w", req.FacilityID, err)
	}

	c.logger.Debug("fetched calendar window",
		zap.String("facility_id", req.FacilityID),
		zap.String("start", req.Start),
		zap.String("end", req.End),
		zap.Int("entries", len(entries)))
	return entries, nil
}
