package realtime

import (
	"errors"
	"fmt"

	"github.com/anonto42/nano-midea/social/internal/metrics"
	"github.com/anonto42/nano-midea/social/internal/models"
	"go.uber.org/zap"
)

// EventName is the event a receiver listens on for its own notifications.
func EventName(receiverID uint) string {
	return fmt.Sprintf("notification:%d", receiverID)
}

// Dispatcher pushes persisted notifications to whoever is online.
// Delivery is best effort: an offline recipient or a failed write is never
// reported to the caller.
type Dispatcher struct {
	registry *Registry
	log      *zap.SugaredLogger
}

func NewDispatcher(registry *Registry, log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{registry: registry, log: log}
}

// Dispatch emits each notification, in order, on the recipient's live channel.
func (d *Dispatcher) Dispatch(recipientID uint, notifications ...models.Notification) {
	if len(notifications) == 0 {
		return
	}

	ch, ok := d.registry.Lookup(recipientID)
	if !ok {
		metrics.PushDeliveries.WithLabelValues(metrics.PushMissed).Add(float64(len(notifications)))
		return
	}

	for i := range notifications {
		n := notifications[i]
		err := ch.Send(EventName(n.ReceiverID), n)
		if err == nil {
			metrics.PushDeliveries.WithLabelValues(metrics.PushDelivered).Inc()
			continue
		}

		metrics.PushDeliveries.WithLabelValues(metrics.PushFailed).Inc()
		d.log.Warnw("push notification failed",
			"recipient_id", recipientID,
			"notification_id", n.ID,
			"channel_id", ch.ID(),
			"error", err,
		)
		if errors.Is(err, ErrChannelClosed) {
			d.registry.Unregister(ch)
			return
		}
	}
}
