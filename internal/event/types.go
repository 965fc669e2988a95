package event

import (
	"fmt"
	"slices"
)

// ChangeType classifies how a session changed between two snapshots.
// The values double as the display labels in notification headings.
type ChangeType string

const (
	ChangeNew       ChangeType = "New"
	ChangeCancelled ChangeType = "Cancelled"
)

// ChangeTypes lists the change classifications in rendering order.
var ChangeTypes = []ChangeType{ChangeNew, ChangeCancelled}

// CalendarEntry is one raw session row as returned by the booking calendar.
// Start and End are date-time strings; they may carry a numeric UTC offset or
// be zone-naive, in which case they are interpreted in the pipeline's
// configured location. Equality is field-wise, which the change detector
// depends on.
type CalendarEntry struct {
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Snapshot is the ordered, filtered set of calendar entries tracked by one
// event configuration at a point in time.
type Snapshot []CalendarEntry

// Equal reports whether two snapshots hold the same entries in the same
// order. A persisted snapshot is only overwritten when this returns false.
func (s Snapshot) Equal(other Snapshot) bool {
	return slices.Equal(s, other)
}

// TimeRange is the span of a single session, carried from a CalendarEntry
// for display.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Config describes one tracked (facility, event type) pairing. Configs are
// built once at startup from the configuration file and never mutated.
type Config struct {
	FacilityID    string `yaml:"facility_id" koanf:"facility_id" json:"facility_id"`
	FacilityName  string `yaml:"facility_name" koanf:"facility_name" json:"facility_name"`
	EventName     string `yaml:"event_name" koanf:"event_name" json:"event_name"`
	LookaheadDays int    `yaml:"lookahead_days" koanf:"lookahead_days" json:"lookahead_days"`
	Filter        Filter `yaml:"filter" koanf:"filter" json:"filter"`
}

// SnapshotKey returns the store key under which this configuration's last
// seen snapshot is persisted. FacilityID and EventName together must be
// unique across the registry.
func (c Config) SnapshotKey() string {
	return fmt.Sprintf("cal_entries_%s_%s", c.FacilityID, c.EventName)
}

// FilterEntries returns the entries matching this configuration's filter,
// preserving input order. Raw unfiltered entries never reach the detector
// or the store.
func (c Config) FilterEntries(entries []CalendarEntry) Snapshot {
	filtered := Snapshot{}
	for _, e := range entries {
		if c.Filter.Match(e) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// Changes records, for one tracked configuration, the future sessions that
// appeared or disappeared between two snapshots. Empty slices mean "no
// change of that kind" and are distinct from a missing configuration.
type Changes struct {
	Config    Config      `json:"config"`
	New       []TimeRange `json:"new"`
	Cancelled []TimeRange `json:"cancelled"`
}

// Ranges returns the time ranges recorded for the given change type.
func (c Changes) Ranges(t ChangeType) []TimeRange {
	switch t {
	case ChangeNew:
		return c.New
	case ChangeCancelled:
		return c.Cancelled
	}
	return nil
}

// Empty reports whether no change of any type was detected.
func (c Changes) Empty() bool {
	return len(c.New) == 0 && len(c.Cancelled) == 0
}
