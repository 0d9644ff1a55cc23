// Package hub is the real-time chat core: it tracks which users are
// online, routes direct and group messages, forwards typing indicators
// and read receipts, and relays file payloads. Everything durable is
// delegated to the database store; everything transient lives here.
package hub

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/fahad90fa/oneverse-sub000/config"
	"github.com/fahad90fa/oneverse-sub000/database"
	"github.com/fahad90fa/oneverse-sub000/metrics"
	"github.com/fahad90fa/oneverse-sub000/storage"
	"github.com/fahad90fa/oneverse-sub000/wire"
)

// Delivery decides what happens when an event targets a user. The hub
// ships with BestEffortDelivery; a store-and-forward queue could be
// substituted without touching the calling code.
type Delivery interface {
	// Deliver emits the event to the user's session if one is connected.
	// It reports whether a session was found; false is not a failure.
	Deliver(userID string, ev *wire.Event) bool
}

// BestEffortDelivery delivers to connected users and silently skips
// offline ones; offline durability comes from persistence alone.
type BestEffortDelivery struct {
	Registry *Registry
}

// Deliver implements Delivery.
func (d *BestEffortDelivery) Deliver(userID string, ev *wire.Event) bool {
	s, ok := d.Registry.Resolve(userID)
	if !ok {
		return false
	}
	s.SendEvent(ev)
	return true
}

// Options wires a hub together.
type Options struct {
	Store    database.Store
	Presence database.PresenceCache
	Blobs    storage.BlobStore
	// JwtSecret enables token-based login when non-empty.
	JwtSecret string
	// Origin restricts websocket handshakes; "*" allows all.
	Origin string
	Peer   config.PeerConfig
	Logger zerolog.Logger
}

// Hub is the connection registry plus every handler that runs on it.
type Hub struct {
	registry *Registry
	deliver  Delivery
	store    database.Store
	presence database.PresenceCache
	blobs    storage.BlobStore

	secret  string
	peerCfg config.PeerConfig
	log     zerolog.Logger

	upgrader *websocket.Upgrader
}

// NewHub builds a hub with best-effort delivery.
func NewHub(opts Options) *Hub {
	registry := NewRegistry()
	h := &Hub{
		registry: registry,
		deliver:  &BestEffortDelivery{Registry: registry},
		store:    opts.Store,
		presence: opts.Presence,
		blobs:    opts.Blobs,
		secret:   opts.JwtSecret,
		peerCfg:  opts.Peer,
		log:      opts.Logger,
	}
	allowed := allowedOrigins(opts.Origin)
	h.upgrader = &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowed == nil {
				return true
			}
			rOrigin := r.Header.Get("Origin")
			if rOrigin == "" {
				return true
			}
			for _, a := range allowed {
				if a == rOrigin {
					return true
				}
			}
			h.log.Warn().Str("origin", rOrigin).Msg("refused origin")
			return false
		},
	}
	return h
}

// allowedOrigins parses the comma-separated origin allow-list; nil means
// every origin is accepted.
func allowedOrigins(origin string) []string {
	if origin == "" || origin == "*" {
		return nil
	}
	var allowed []string
	for _, a := range strings.Split(origin, ",") {
		if a = strings.TrimSpace(a); a != "" {
			allowed = append(allowed, a)
		}
	}
	return allowed
}

// Registry exposes the registry to the REST layer for online lookups.
func (h *Hub) Registry() *Registry {
	return h.registry
}

var errLoginRequired = errors.New("login required")

// Dispatch routes one inbound event. The switch is exhaustive over the
// inbound kind set; wire.Decode already rejected everything else.
func (h *Hub) Dispatch(src Session, ev *wire.Event) error {
	metrics.EventsTotal.WithLabelValues(ev.Kind.String()).Inc()

	if src.UserID() == "" && ev.Kind != wire.KindLogin {
		src.SendEvent(wire.NewEvent(wire.KindMessageError,
			&wire.ErrorReply{Error: "login required"}))
		return errLoginRequired
	}

	switch ev.Kind {
	case wire.KindLogin:
		h.handleLogin(src, ev.Body.(*wire.Login))
	case wire.KindMessageSend:
		h.sendMessage(src, ev.Body.(*wire.ChatMessage))
	case wire.KindTypingStart:
		h.forwardTyping(wire.KindTypingStart, ev.Body.(*wire.Typing))
	case wire.KindTypingStop:
		h.forwardTyping(wire.KindTypingStop, ev.Body.(*wire.Typing))
	case wire.KindMessageRead:
		h.markRead(ev.Body.(*wire.MarkRead))
	case wire.KindFileUpload:
		h.sendFile(src, ev.Body.(*wire.FileUpload))
	case wire.KindGroupCreate:
		h.createGroup(src, ev.Body.(*wire.GroupCreate))
	default:
		return fmt.Errorf("hub: no handler for %s", ev.Kind)
	}
	return nil
}

// handleLogin authenticates the connection, registers it and announces
// the new online set. A failed login leaves the connection open.
func (h *Hub) handleLogin(src Session, body *wire.Login) {
	userID, err := h.authenticate(body)
	if err != nil {
		h.log.Warn().Err(err).Msg("login rejected")
		src.SendEvent(wire.NewEvent(wire.KindMessageError,
			&wire.ErrorReply{Error: "login failed: " + err.Error()}))
		return
	}

	// A connection re-logging in under a new identity releases its old
	// one first; otherwise the old mapping would outlive the handle.
	if prev := src.UserID(); prev != "" && prev != userID {
		if removed, _ := h.registry.Unregister(src); removed {
			if err := h.presence.DelClient(prev); err != nil {
				h.log.Warn().Err(err).Str("user", prev).Msg("presence del failed")
			}
		}
	}
	src.BindUser(userID)

	displaced, online := h.registry.Register(src)
	if displaced != nil {
		displaced.Kick("signed in from another connection")
	}
	if err := h.presence.AddClient(userID); err != nil {
		h.log.Warn().Err(err).Str("user", userID).Msg("presence add failed")
	}

	h.log.Info().Str("user", userID).Msg("client logged in")
	h.broadcastOnline(online)
}

// HandleDisconnect unregisters the session. A handle superseded by a
// newer login, or one that never logged in, leaves the registry alone.
func (h *Hub) HandleDisconnect(src Session) {
	if src.UserID() == "" {
		return
	}
	removed, online := h.registry.Unregister(src)
	if !removed {
		return
	}
	if err := h.presence.DelClient(src.UserID()); err != nil {
		h.log.Warn().Err(err).Str("user", src.UserID()).Msg("presence del failed")
	}

	h.log.Info().Str("user", src.UserID()).Msg("client disconnected")
	h.broadcastOnline(online)
}

// broadcastOnline announces the registry snapshot to every connected
// party, the mutating one included.
func (h *Hub) broadcastOnline(online []string) {
	metrics.PresenceBroadcasts.Inc()
	metrics.ConnectedClients.Set(float64(len(online)))

	ev := wire.NewEvent(wire.KindOnlineUsers, &wire.OnlineUsers{Users: online})
	for _, s := range h.registry.Sessions() {
		s.SendEvent(ev)
	}
}

// authenticate resolves the login to a user identity. With a configured
// secret the token is mandatory and the identity is its subject claim;
// without one the declared userId is trusted (development mode).
func (h *Hub) authenticate(body *wire.Login) (string, error) {
	if h.secret == "" {
		if body.UserID == "" {
			return "", errors.New("missing userId")
		}
		return body.UserID, nil
	}

	if body.Token == "" {
		return "", errors.New("missing token")
	}
	token, err := jwt.Parse(body.Token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(h.secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("unexpected token claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

// Close kicks every connected session; used on shutdown.
func (h *Hub) Close() {
	for _, s := range h.registry.Sessions() {
		s.Kick("server shutting down")
	}
}
