package hub

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the hub's endpoints on a chi router.
func (h *Hub) Routes(r chi.Router) {
	r.Get("/ws", h.ServeWs)
	r.Get("/api/online", h.handleOnline)
}

// ServeWs upgrades the request to a websocket connection. The connection
// is anonymous until the client sends a login event; a disconnect before
// login is a no-op on the registry.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("upgrade failed")
		return
	}
	h.log.Debug().Str("remote", r.RemoteAddr).Msg("client connecting")
	newClientPeer(h, conn, r.RemoteAddr)
}

// handleOnline answers "who is online" for the REST layer.
func (h *Hub) handleOnline(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{
		"users": h.registry.Online(),
	})
}
