package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	onlineKeyPrefix = "chat:online:"

	// presenceTTL bounds how long a crashed instance's users stay marked
	// online; live instances refresh well inside it.
	presenceTTL     = 90 * time.Second
	presenceRefresh = 30 * time.Second
)

// RedisPresenceCache stores one key per online user so that every server
// instance and the REST layer see the same set. Each key carries a TTL
// refreshed on a heartbeat; entries owned by a crashed instance expire on
// their own instead of lingering forever.
type RedisPresenceCache struct {
	client *redis.Client

	mu    sync.Mutex
	owned map[string]struct{}

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRedisPresenceCache wraps a connected redis client and starts the
// heartbeat for the users this instance holds.
func NewRedisPresenceCache(client *redis.Client) *RedisPresenceCache {
	c := &RedisPresenceCache{
		client: client,
		owned:  make(map[string]struct{}),
		stop:   make(chan struct{}),
	}
	go c.heartbeat()
	return c
}

// AddClient marks the user online and takes over refreshing their key.
func (c *RedisPresenceCache) AddClient(userID string) error {
	c.mu.Lock()
	c.owned[userID] = struct{}{}
	c.mu.Unlock()

	if err := c.client.Set(context.Background(), onlineKeyPrefix+userID, "1", presenceTTL).Err(); err != nil {
		return fmt.Errorf("presence add %s: %w", userID, err)
	}
	return nil
}

// DelClient marks the user offline.
func (c *RedisPresenceCache) DelClient(userID string) error {
	c.mu.Lock()
	delete(c.owned, userID)
	c.mu.Unlock()

	if err := c.client.Del(context.Background(), onlineKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("presence del %s: %w", userID, err)
	}
	return nil
}

// OnlineClients returns the users currently marked online, sorted.
func (c *RedisPresenceCache) OnlineClients() ([]string, error) {
	ctx := context.Background()
	var users []string
	iter := c.client.Scan(ctx, 0, onlineKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		users = append(users, strings.TrimPrefix(iter.Val(), onlineKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("presence scan: %w", err)
	}
	sort.Strings(users)
	return users, nil
}

// Close stops the heartbeat. Keys this instance owned expire on their own.
func (c *RedisPresenceCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// heartbeat re-arms the TTL on every key this instance owns.
func (c *RedisPresenceCache) heartbeat() {
	ticker := time.NewTicker(presenceRefresh)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.refreshOwned()
		}
	}
}

func (c *RedisPresenceCache) refreshOwned() {
	c.mu.Lock()
	owned := make([]string, 0, len(c.owned))
	for userID := range c.owned {
		owned = append(owned, userID)
	}
	c.mu.Unlock()

	ctx := context.Background()
	for _, userID := range owned {
		c.client.Expire(ctx, onlineKeyPrefix+userID, presenceTTL)
	}
}
