package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Fanout delivers one update to every configured channel in order,
// collecting delivery failures instead of stopping at the first.
type Fanout struct {
	notifiers []Notifier
	logger    *zap.Logger
}

// NewFanout creates a Fanout over the given channels.
func NewFanout(logger *zap.Logger, notifiers ...Notifier) *Fanout {
	return &Fanout{notifiers: notifiers, logger: logger}
}

// Notifiers returns the configured channels.
func (f *Fanout) Notifiers() []Notifier {
	return f.notifiers
}

// Send delivers u to every channel. Delivery failures are aggregated
// across channels and returned as a *DeliveryErrors; the caller blocks
// snapshot persistence on any failure so changes are re-detected and
// re-sent next poll. A non-delivery error from a channel, such as a
// render failure, is fatal immediately.
func (f *Fanout) Send(ctx context.Context, u Update) error {
	var all DeliveryErrors
	for _, n := range f.notifiers {
		err := n.Send(ctx, u)
		if err == nil {
			f.logger.Info("update delivered",
				zap.String("channel", n.Name()),
				zap.String("run_id", u.RunID))
			continue
		}

		var derrs *DeliveryErrors
		if errors.As(err, &derrs) {
			all.Errors = append(all.Errors, derrs.Errors...)
			continue
		}
		return err
	}
	return all.ErrorOrNil()
}
