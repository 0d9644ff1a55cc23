package database

import "sync"

// MemPresenceCache is the in-process presence cache used in single-server
// mode and in tests.
type MemPresenceCache struct {
	mu      sync.RWMutex
	clients map[string]bool
}

// NewMemPresenceCache returns an empty cache.
func NewMemPresenceCache() *MemPresenceCache {
	return &MemPresenceCache{clients: make(map[string]bool)}
}

// AddClient marks the user online.
func (c *MemPresenceCache) AddClient(userID string) error {
	c.mu.Lock()
	c.clients[userID] = true
	c.mu.Unlock()
	return nil
}

// DelClient marks the user offline.
func (c *MemPresenceCache) DelClient(userID string) error {
	c.mu.Lock()
	delete(c.clients, userID)
	c.mu.Unlock()
	return nil
}

// OnlineClients returns the users currently marked online.
func (c *MemPresenceCache) OnlineClients() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	users := make([]string, 0, len(c.clients))
	for id := range c.clients {
		users = append(users, id)
	}
	return users, nil
}
