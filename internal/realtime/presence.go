package realtime

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Presence is the online state of one user.
type Presence struct {
	UserID   uint       `json:"user_id"`
	Online   bool       `json:"online"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

// PresenceTracker records which users hold a live connection.
type PresenceTracker interface {
	MarkOnline(ctx context.Context, userID uint) error
	MarkOffline(ctx context.Context, userID uint) error
	Status(ctx context.Context, userID uint) (Presence, error)
	Online(ctx context.Context) ([]uint, error)
}

// RedisPresence shares presence between API instances.
// Keys:
//   - <prefix>:online            set of online user ids
//   - <prefix>:presence:<userID> hash {status, last_seen}
type RedisPresence struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisPresence(client *redis.Client, prefix string) *RedisPresence {
	return &RedisPresence{client: client, prefix: prefix, now: time.Now}
}

func (p *RedisPresence) onlineKey() string { return p.prefix + ":online" }
func (p *RedisPresence) presenceKey(userID uint) string {
	return fmt.Sprintf("%s:presence:%d", p.prefix, userID)
}

func (p *RedisPresence) MarkOnline(ctx context.Context, userID uint) error {
	return p.mark(ctx, userID, "online")
}

func (p *RedisPresence) MarkOffline(ctx context.Context, userID uint) error {
	return p.mark(ctx, userID, "offline")
}

func (p *RedisPresence) mark(ctx context.Context, userID uint, status string) error {
	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if status == "online" {
			pipe.SAdd(ctx, p.onlineKey(), userID)
		} else {
			pipe.SRem(ctx, p.onlineKey(), userID)
		}
		pipe.HSet(ctx, p.presenceKey(userID), "status", status, "last_seen", p.now().Unix())
		return nil
	})
	if err != nil {
		return fmt.Errorf("mark user %d %s: %w", userID, status, err)
	}
	return nil
}

func (p *RedisPresence) Status(ctx context.Context, userID uint) (Presence, error) {
	out := Presence{UserID: userID}

	fields, err := p.client.HGetAll(ctx, p.presenceKey(userID)).Result()
	if err != nil {
		return out, fmt.Errorf("read presence of user %d: %w", userID, err)
	}
	out.Online = fields["status"] == "online"
	if raw, ok := fields["last_seen"]; ok {
		if sec, err := strconv.ParseInt(raw, 10, 64); err == nil {
			seen := time.Unix(sec, 0).UTC()
			out.LastSeen = &seen
		}
	}
	return out, nil
}

func (p *RedisPresence) Online(ctx context.Context) ([]uint, error) {
	members, err := p.client.SMembers(ctx, p.onlineKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list online users: %w", err)
	}

	ids := make([]uint, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	slices.Sort(ids)
	return ids, nil
}

// RegistryPresence answers from the local registry when no redis is configured.
type RegistryPresence struct {
	registry *Registry

	mu       sync.Mutex
	lastSeen map[uint]time.Time
}

func NewRegistryPresence(registry *Registry) *RegistryPresence {
	return &RegistryPresence{registry: registry, lastSeen: make(map[uint]time.Time)}
}

func (p *RegistryPresence) MarkOnline(_ context.Context, userID uint) error {
	p.touch(userID)
	return nil
}

func (p *RegistryPresence) MarkOffline(_ context.Context, userID uint) error {
	p.touch(userID)
	return nil
}

func (p *RegistryPresence) touch(userID uint) {
	p.mu.Lock()
	p.lastSeen[userID] = time.Now().UTC()
	p.mu.Unlock()
}

func (p *RegistryPresence) Status(_ context.Context, userID uint) (Presence, error) {
	_, online := p.registry.Lookup(userID)
	out := Presence{UserID: userID, Online: online}

	p.mu.Lock()
	if seen, ok := p.lastSeen[userID]; ok {
		out.LastSeen = &seen
	}
	p.mu.Unlock()
	return out, nil
}

func (p *RegistryPresence) Online(_ context.Context) ([]uint, error) {
	return p.registry.OnlineUserIDs(), nil
}
