package config

import "github.com/mzhao129/facility-notifier/internal/event"

// Default calendar endpoints. The appointments endpoint serves the raw
// session feed; the schedule URL is the page linked from notifications.
const (
	DefaultBaseURL     = "https://warrior.uwaterloo.ca/Facility/GetScheduleCustomAppointments"
	DefaultScheduleURL = "https://warrior.uwaterloo.ca/Facility/GetSchedule"
)

// cifArenaID is the booking-system identifier for the CIF Arena rink.
const cifArenaID = "6f60aca9-7fba-4bf1-b6af-1f85e9376462"

// DefaultEvents returns the built-in tracked event registry, used when the
// configuration file lists none.
func DefaultEvents() []event.Config {
	return []event.Config{
		{
			FacilityID:    cifArenaID,
			FacilityName:  "CIF Arena",
			EventName:     "Open Rec Skate",
			LookaheadDays: 7,
			Filter:        event.Filter{Contains: "open rec"},
		},
		{
			FacilityID:    cifArenaID,
			FacilityName:  "CIF Arena",
			EventName:     "Figure Skating Club",
			LookaheadDays: 7,
			Filter: event.Filter{All: []event.Filter{
				{Contains: "figure skating"},
				{Contains: "club"},
				{Not: &event.Filter{Contains: "hold"}},
			}},
		},
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Timezone: "America/Toronto",
		Calendar: CalendarConfig{
			BaseURL:        DefaultBaseURL,
			ScheduleURL:    DefaultScheduleURL,
			TimeoutSeconds: 20,
			Concurrency:    8,
		},
		Store: StoreConfig{
			Driver: StoreSQLite,
			Path:   "facnotify.db",
		},
		Events: DefaultEvents(),
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Enabled: false,
			Listen:  ":8080",
		},
		Watch: WatchConfig{
			Schedule: "*/5 * * * *",
		},
	}
}
