package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mzhao129/facility-notifier/internal/event"
)

func TestWindowRequest(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	now := time.Date(2024, 1, 10, 15, 30, 0, 0, est)
	cfg := event.Config{FacilityID: "rink-1", LookaheadDays: 7}

	got := WindowRequest(cfg, now)
	if got.FacilityID != "rink-1" {
		t.Errorf("facility = %q, want rink-1", got.FacilityID)
	}
	if got.Start != "2024-01-10T00:00:00-0500" {
		t.Errorf("start = %q, want 2024-01-10T00:00:00-0500", got.Start)
	}
	if got.End != "2024-01-17T23:59:59-0500" {
		t.Errorf("end = %q, want 2024-01-17T23:59:59-0500", got.End)
	}
}

func TestWindowRequestSharedWindowsCompareEqual(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	now := time.Date(2024, 1, 10, 15, 30, 0, 0, est)

	a := WindowRequest(event.Config{FacilityID: "rink-1", EventName: "Open Rec Skate", LookaheadDays: 7}, now)
	b := WindowRequest(event.Config{FacilityID: "rink-1", EventName: "Figure Skating Club", LookaheadDays: 7}, now)
	if a != b {
		t.Errorf("same facility and window produced different requests: %+v vs %+v", a, b)
	}

	c := WindowRequest(event.Config{FacilityID: "rink-1", LookaheadDays: 14}, now)
	if a == c {
		t.Error("different lookaheads produced equal requests")
	}
}

func TestClientFetch(t *testing.T) {
	entries := []event.CalendarEntry{
		{Title: "Open Rec Skate", Start: "2024-01-12T12:00:00-0500", End: "2024-01-12T13:00:00-0500"},
		{Title: "Hockey Practice", Start: "2024-01-12T14:00:00-0500", End: "2024-01-12T15:00:00-0500"},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("selectedId") != "rink-1" {
			t.Errorf("selectedId = %q, want rink-1", q.Get("selectedId"))
		}
		if q.Get("start") != "2024-01-10T00:00:00-0500" {
			t.Errorf("start = %q, want 2024-01-10T00:00:00-0500", q.Get("start"))
		}
		if q.Get("end") != "2024-01-17T23:59:59-0500" {
			t.Errorf("end = %q, want 2024-01-17T23:59:59-0500", q.Get("end"))
		}
		json.NewEncoder(w).Encode(entries)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, zap.NewNop())
	got, err := client.Fetch(context.Background(), Request{
		FacilityID: "rink-1",
		Start:      "2024-01-10T00:00:00-0500",
		End:        "2024-01-17T23:59:59-0500",
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Fetch returned %d entries, want 2", len(got))
	}
	if got[0] != entries[0] || got[1] != entries[1] {
		t.Errorf("Fetch returned %+v, want %+v", got, entries)
	}
}

func TestClientFetchErrors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, 5*time.Second, zap.NewNop())
		if _, err := client.Fetch(context.Background(), Request{FacilityID: "rink-1"}); err == nil {
			t.Error("expected error for 503 response, got nil")
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>not json</html>"))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, 5*time.Second, zap.NewNop())
		if _, err := client.Fetch(context.Background(), Request{FacilityID: "rink-1"}); err == nil {
			t.Error("expected error for non-JSON response, got nil")
		}
	})
}

func TestFetchAllDeduplicatesWindows(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		json.NewEncoder(w).Encode([]event.CalendarEntry{
			{Title: "Session at " + r.URL.Query().Get("selectedId"), Start: "2024-01-12T12:00:00-0500", End: "2024-01-12T13:00:00-0500"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, zap.NewNop())
	fetcher := NewFetcher(client, 8, zap.NewNop())

	est := time.FixedZone("EST", -5*60*60)
	now := time.Date(2024, 1, 10, 15, 30, 0, 0, est)
	cfgs := []event.Config{
		{FacilityID: "rink-1", EventName: "Open Rec Skate", LookaheadDays: 7},
		{FacilityID: "rink-1", EventName: "Figure Skating Club", LookaheadDays: 7},
		{FacilityID: "pool-1", EventName: "Lane Swim", LookaheadDays: 7},
	}

	results, err := fetcher.FetchAll(context.Background(), cfgs, now)
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if got := atomic.LoadInt64(&hits); got != 2 {
		t.Errorf("server saw %d fetches, want 2 (shared window deduplicated)", got)
	}
	if len(results) != 2 {
		t.Fatalf("FetchAll returned %d windows, want 2", len(results))
	}

	// Both rink configs resolve to the same cached result.
	shared := WindowRequest(cfgs[0], now)
	if entries, ok := results[shared]; !ok || len(entries) != 1 {
		t.Errorf("shared window missing from results: %+v", results)
	}
}

func TestFetchAllFailsWholePoll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("selectedId") == "rink-2" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode([]event.CalendarEntry{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, zap.NewNop())
	fetcher := NewFetcher(client, 2, zap.NewNop())

	est := time.FixedZone("EST", -5*60*60)
	now := time.Date(2024, 1, 10, 15, 30, 0, 0, est)
	cfgs := []event.Config{
		{FacilityID: "rink-1", EventName: "A", LookaheadDays: 7},
		{FacilityID: "rink-2", EventName: "B", LookaheadDays: 7},
		{FacilityID: "rink-3", EventName: "C", LookaheadDays: 7},
	}

	results, err := fetcher.FetchAll(context.Background(), cfgs, now)
	if err == nil {
		t.Fatal("expected error when one window fails, got nil")
	}
	if results != nil {
		t.Errorf("failed poll returned partial results: %+v", results)
	}
}

func TestFetchAllHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]event.CalendarEntry{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, zap.NewNop())
	fetcher := NewFetcher(client, 2, zap.NewNop())

	est := time.FixedZone("EST", -5*60*60)
	now := time.Date(2024, 1, 10, 15, 30, 0, 0, est)
	cfgs := []event.Config{{FacilityID: "rink-1", EventName: "A", LookaheadDays: 7}}

	if _, err := fetcher.FetchAll(ctx, cfgs, now); err == nil {
		t.Error("expected error for canceled context, got nil")
	}
}
