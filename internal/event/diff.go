package event

import (
	"fmt"
	"slices"
	"time"
)

// Detect compares the previous and current snapshots for one tracked
// configuration and reports which future sessions appeared or disappeared.
// Membership is decided by field-wise entry equality, so a rescheduled
// session surfaces as one cancellation plus one addition. Entries starting
// at or before now are ignored in both directions; history churn from the
// calendar rolling past sessions off never triggers a notification.
//
// Ranges keep snapshot order: additions in current-snapshot order,
// cancellations in previous-snapshot order.
func Detect(cfg Config, previous, current Snapshot, now time.Time, loc *time.Location) (Changes, error) {
	changes := Changes{Config: cfg}
	for _, e := range current {
		if slices.Contains(previous, e) {
			continue
		}
		future, err := startsAfter(e, now, loc)
		if err != nil {
			return Changes{}, err
		}
		if future {
			changes.New = append(changes.New, TimeRange{Start: e.Start, End: e.End})
		}
	}
	for _, e := range previous {
		if slices.Contains(current, e) {
			continue
		}
		future, err := startsAfter(e, now, loc)
		if err != nil {
			return Changes{}, err
		}
		if future {
			changes.Cancelled = append(changes.Cancelled, TimeRange{Start: e.Start, End: e.End})
		}
	}
	return changes, nil
}

func startsAfter(e CalendarEntry, now time.Time, loc *time.Location) (bool, error) {
	start, err := ParseEntryTime(e.Start, loc)
	if err != nil {
		return false, fmt.Errorf("entry %q: %w", e.Title, err)
	}
	return start.After(now), nil
}
