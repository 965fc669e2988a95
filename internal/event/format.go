package event

import (
	"fmt"
	"time"
)

// Calendar timestamps come back in one of three shapes: RFC 3339, RFC 3339
// with a colon-less offset, or zone-naive. The naive layout is parsed in the
// pipeline's configured location.
const (
	layoutOffset = "2006-01-02T15:04:05-0700"
	layoutNaive  = "2006-01-02T15:04:05"
)

const (
	layoutDayClock = "Mon Jan 02 03:04PM"
	layoutClock    = "03:04PM"
)

// ParseEntryTime parses a session timestamp. Timestamps carrying an explicit
// offset keep it; zone-naive ones are interpreted in loc.
func ParseEntryTime(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(layoutOffset, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(layoutNaive, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse entry time %q: %w", value, err)
	}
	return t, nil
}

// FormatTimeRange renders a session span the way notifications display it:
//
//	Mon Jan 01 12:00PM - 01:00PM
//	Mon Jan 01 12:00PM - Tue Jan 02 01:00PM
//
// The end repeats the day only when it falls on a different calendar date
// than the start. Times are shown in the wall clock they were parsed with.
func FormatTimeRange(start, end string, loc *time.Location) (string, error) {
	startAt, err := ParseEntryTime(start, loc)
	if err != nil {
		return "", err
	}
	endAt, err := ParseEntryTime(end, loc)
	if err != nil {
		return "", err
	}
	if sameDate(startAt, endAt) {
		return startAt.Format(layoutDayClock) + " - " + endAt.Format(layoutClock), nil
	}
	return startAt.Format(layoutDayClock) + " - " + endAt.Format(layoutDayClock), nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
