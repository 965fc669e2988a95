package event

import (
	"testing"
	"time"
)

func TestFormatTimeRange(t *testing.T) {
	toronto, err := time.LoadLocation("America/Toronto")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	tests := []struct {
		name  string
		start string
		end   string
		want  string
	}{
		{
			name:  "same day",
			start: "2024-01-01T12:00:00-0500",
			end:   "2024-01-01T13:00:00-0500",
			want:  "Mon Jan 01 12:00PM - 01:00PM",
		},
		{
			name:  "crosses midnight",
			start: "2024-01-01T12:00:00-0500",
			end:   "2024-01-02T13:00:00-0500",
			want:  "Mon Jan 01 12:00PM - Tue Jan 02 01:00PM",
		},
		{
			name:  "naive timestamps",
			start: "2024-01-01T09:30:00",
			end:   "2024-01-01T10:30:00",
			want:  "Mon Jan 01 09:30AM - 10:30AM",
		},
		{
			name:  "morning crossing noon",
			start: "2024-03-02T11:00:00-0500",
			end:   "2024-03-02T12:15:00-0500",
			want:  "Sat Mar 02 11:00AM - 12:15PM",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatTimeRange(tt.start, tt.end, toronto)
			if err != nil {
				t.Fatalf("FormatTimeRange(%q, %q) returned error: %v", tt.start, tt.end, err)
			}
			if got != tt.want {
				t.Errorf("FormatTimeRange(%q, %q) = %q, want %q", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestFormatTimeRangeBadInput(t *testing.T) {
	if _, err := FormatTimeRange("not-a-time", "2024-01-01T13:00:00-0500", time.UTC); err == nil {
		t.Error("expected error for unparseable start, got nil")
	}
	if _, err := FormatTimeRange("2024-01-01T12:00:00-0500", "later", time.UTC); err == nil {
		t.Error("expected error for unparseable end, got nil")
	}
}

func TestParseEntryTime(t *testing.T) {
	toronto, err := time.LoadLocation("America/Toronto")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	t.Run("explicit offset wins over location", func(t *testing.T) {
		got, err := ParseEntryTime("2024-06-01T12:00:00-0400", time.UTC)
		if err != nil {
			t.Fatalf("ParseEntryTime: %v", err)
		}
		want := time.Date(2024, 6, 1, 16, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("got instant %v, want %v", got.UTC(), want)
		}
	})

	t.Run("rfc3339 with colon offset", func(t *testing.T) {
		got, err := ParseEntryTime("2024-06-01T12:00:00-04:00", toronto)
		if err != nil {
			t.Fatalf("ParseEntryTime: %v", err)
		}
		if got.UTC().Hour() != 16 {
			t.Errorf("got UTC hour %d, want 16", got.UTC().Hour())
		}
	})

	t.Run("naive uses location", func(t *testing.T) {
		got, err := ParseEntryTime("2024-01-15T09:00:00", toronto)
		if err != nil {
			t.Fatalf("ParseEntryTime: %v", err)
		}
		// Toronto is UTC-5 in January.
		if got.UTC().Hour() != 14 {
			t.Errorf("got UTC hour %d, want 14", got.UTC().Hour())
		}
	})

	t.Run("garbage fails", func(t *testing.T) {
		if _, err := ParseEntryTime("soon", time.UTC); err == nil {
			t.Error("expected error, got nil")
		}
	})
}
