package realtime

import (
	"errors"
	"testing"

	"github.com/anonto42/nano-midea/social/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func notificationsFor(receiverID uint, ids ...string) []models.Notification {
	out := make([]models.Notification, len(ids))
	for i, id := range ids {
		out[i] = models.Notification{
			ID:         id,
			Type:       models.NotificationPost,
			SenderID:   receiverID + 100,
			ReceiverID: receiverID,
			Message:    "Create a new post",
		}
	}
	return out
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	r := NewRegistry()
	ch := newFakeChannel()
	r.Register(3, ch)
	d := NewDispatcher(r, zap.NewNop().Sugar())

	d.Dispatch(3, notificationsFor(3, "a", "b", "c")...)

	events := ch.events()
	require.Len(t, events, 3)
	for i, id := range []string{"a", "b", "c"} {
		assert.Equal(t, "notification:3", events[i].Event)
		n, ok := events[i].Payload.(models.Notification)
		require.True(t, ok)
		assert.Equal(t, id, n.ID)
	}
}

func TestDispatcher_OfflineRecipientIsSilent(t *testing.T) {
	r := NewRegistry()
	other := newFakeChannel()
	r.Register(1, other)
	d := NewDispatcher(r, zap.NewNop().Sugar())

	assert.NotPanics(t, func() {
		d.Dispatch(2, notificationsFor(2, "x")...)
	})
	assert.Empty(t, other.events())
}

func TestDispatcher_SendFailureIsSwallowed(t *testing.T) {
	r := NewRegistry()
	ch := newFakeChannel()
	ch.sendErr = ErrSlowConsumer
	r.Register(4, ch)
	d := NewDispatcher(r, zap.NewNop().Sugar())

	d.Dispatch(4, notificationsFor(4, "x", "y")...)

	_, ok := r.Lookup(4)
	assert.True(t, ok, "a slow consumer stays registered")
}

func TestDispatcher_ClosedChannelIsUnregistered(t *testing.T) {
	r := NewRegistry()
	ch := newFakeChannel()
	ch.sendErr = errors.Join(errors.New("write: broken pipe"), ErrChannelClosed)
	r.Register(5, ch)
	d := NewDispatcher(r, zap.NewNop().Sugar())

	d.Dispatch(5, notificationsFor(5, "x")...)

	_, ok := r.Lookup(5)
	assert.False(t, ok)
}
