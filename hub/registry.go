package hub

import (
	"sort"
	"sync"

	"github.com/fahad90fa/oneverse-sub000/wire"
)

// Session is one logged-in connection as the hub sees it. ClientPeer is
// the production implementation; tests substitute stubs.
type Session interface {
	// UserID returns the bound user identity, empty before login.
	UserID() string
	// BindUser binds the authenticated identity to the session.
	BindUser(userID string)
	// SendEvent queues an event for delivery, best effort.
	SendEvent(ev *wire.Event)
	// Kick closes the session because a newer login replaced it.
	Kick(reason string)
}

// Registry maps each user to at most one active session. It is the only
// mutable state shared across connections; all access goes through the
// mutex, never the map directly.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Session)}
}

// Register binds the session's user to it, overwriting any previous
// session for that user (last writer wins, no multi-device fan-out). It
// returns the displaced session, nil if none, and the online snapshot
// taken atomically with the mutation.
func (r *Registry) Register(s Session) (displaced Session, online []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.sessions[s.UserID()]
	r.sessions[s.UserID()] = s
	if old != nil && old != s {
		displaced = old
	}
	return displaced, r.snapshot()
}

// Unregister removes the user's mapping only while it still points at this
// exact session. A handle superseded by a newer login unregisters as a
// no-op, leaving the newer mapping intact; so does a handle that never
// registered. removed reports whether the registry changed.
func (r *Registry) Unregister(s Session) (removed bool, online []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.sessions[s.UserID()]; ok && current == s {
		delete(r.sessions, s.UserID())
		removed = true
	}
	return removed, r.snapshot()
}

// Resolve returns the user's active session. Absence is the normal
// "user offline" outcome, not an error.
func (r *Registry) Resolve(userID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// Online returns the current online-user set.
func (r *Registry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot()
}

// Sessions returns all active sessions.
func (r *Registry) Sessions() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// snapshot must be called with the mutex held.
func (r *Registry) snapshot() []string {
	online := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		online = append(online, id)
	}
	sort.Strings(online)
	return online
}
