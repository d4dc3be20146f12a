package realtime

import (
	"slices"
	"sync"
)

// Registry maps an authenticated user to their live channel.
// It is process-local and starts empty; clients re-register after a restart.
type Registry struct {
	mu     sync.RWMutex
	byUser map[uint]Channel
}

func NewRegistry() *Registry {
	return &Registry{byUser: make(map[uint]Channel)}
}

// Register stores ch for userID, replacing any previous handle (reconnect).
func (r *Registry) Register(userID uint, ch Channel) {
	r.mu.Lock()
	r.byUser[userID] = ch
	r.mu.Unlock()
}

// Unregister drops every entry whose handle is ch and returns the affected users.
// A handle that was already superseded by a newer connection matches nothing.
func (r *Registry) Unregister(ch Channel) []uint {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []uint
	for userID, stored := range r.byUser {
		if stored.ID() == ch.ID() {
			delete(r.byUser, userID)
			removed = append(removed, userID)
		}
	}
	return removed
}

// Lookup returns the live channel of userID, if any.
func (r *Registry) Lookup(userID uint) (Channel, bool) {
	r.mu.RLock()
	ch, ok := r.byUser[userID]
	r.mu.RUnlock()
	return ch, ok
}

// OnlineUserIDs returns the connected users in ascending order.
func (r *Registry) OnlineUserIDs() []uint {
	r.mu.RLock()
	ids := make([]uint, 0, len(r.byUser))
	for id := range r.byUser {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

// Channels returns a snapshot of every live channel.
func (r *Registry) Channels() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Channel, 0, len(r.byUser))
	for _, ch := range r.byUser {
		out = append(out, ch)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
