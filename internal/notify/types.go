// Package notify renders poll results into channel-specific messages and
// delivers them with partial-failure tolerance.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mzhao129/facility-notifier/internal/event"
)

// Item is one configuration's outcome for a poll: the detected changes
// plus the configuration's current upcoming entries.
type Item struct {
	Changes event.Changes
	Entries event.Snapshot
}

// Update is one poll's notification payload, covering every tracked
// configuration in registry order. Channels render both the changes and
// the full upcoming schedule from it.
type Update struct {
	RunID string
	Items []Item
	Now   time.Time
}

// HasChanges reports whether any configuration detected a change.
func (u Update) HasChanges() bool {
	for _, item := range u.Items {
		if !item.Changes.Empty() {
			return true
		}
	}
	return false
}

// Notifier delivers one poll's update to a single channel.
type Notifier interface {
	// Name identifies the channel in logs and errors.
	Name() string

	// Send delivers the update. Per-destination failures come back as a
	// *DeliveryErrors; one dead destination must not stop delivery to the
	// rest. Any other error is fatal for the poll.
	Send(ctx context.Context, u Update) error
}

// SubscriberRefresher is implemented by channels that maintain their own
// recipient list between polls.
type SubscriberRefresher interface {
	RefreshSubscribers(ctx context.Context) ([]int64, error)
}

// DeliveryError records one failed destination within a channel.
type DeliveryError struct {
	Channel     string
	Destination string
	Err         error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s: delivery to %s failed: %v", e.Channel, e.Destination, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// DeliveryErrors aggregates the failed destinations from a fan-out. A
// non-empty aggregate means the poll must not persist its snapshots, so
// the same changes are re-detected and re-sent next time.
type DeliveryErrors struct {
	Errors []*DeliveryError
}

// Append records one failed destination.
func (e *DeliveryErrors) Append(channel, destination string, err error) {
	e.Errors = append(e.Errors, &DeliveryError{Channel: channel, Destination: destination, Err: err})
}

func (e *DeliveryErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, de := range e.Errors {
		msgs[i] = de.Error()
	}
	return fmt.Sprintf("%d deliveries failed: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// ErrorOrNil returns the aggregate as an error, or nil when every
// destination succeeded.
func (e *DeliveryErrors) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// facilityScheduleURL builds the human-facing schedule link included in
// every notification.
func facilityScheduleURL(base, facilityID string) string {
	return fmt.Sprintf("%s?facilityId=%s", base, facilityID)
}

// renderRanges pretty-prints time ranges, one line per range.
func renderRanges(ranges []event.TimeRange, loc *time.Location) ([]string, error) {
	out := make([]string, 0, len(ranges))
	for _, r := range ranges {
		s, err := event.FormatTimeRange(r.Start, r.End, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// renderEntries pretty-prints snapshot entries, one line per session.
func renderEntries(entries event.Snapshot, loc *time.Location) ([]string, error) {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		s, err := event.FormatTimeRange(e.Start, e.End, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
