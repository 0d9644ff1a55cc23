package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fahad90fa/oneverse-sub000/peer"
	"github.com/fahad90fa/oneverse-sub000/wire"
)

// kickFlushWait bounds how long a kicked session waits for its farewell
// frame to reach the write pump before the connection is torn down.
const kickFlushWait = time.Second

// ClientPeer is one websocket connection plus the user bound to it at
// login. Before login UserID is empty and only login events are accepted.
type ClientPeer struct {
	*peer.Peer
	hub *Hub

	mu     sync.RWMutex
	userID string
}

func newClientPeer(h *Hub, conn *websocket.Conn, remoteAddr string) *ClientPeer {
	clientPeer := &ClientPeer{hub: h}

	p := peer.NewPeer(remoteAddr, &peer.Config{
		WriteWait:      time.Duration(h.peerCfg.WriteWait) * time.Second,
		PongWait:       time.Duration(h.peerCfg.PongWait) * time.Second,
		PingPeriod:     time.Duration(h.peerCfg.PingPeriod) * time.Second,
		MaxMessageSize: h.peerCfg.MaxMessageSize,
		SendQueueLen:   h.peerCfg.SendQueueLen,
		Logger:         h.log,
		Listeners: &peer.MessageListeners{
			OnMessage:    clientPeer.OnMessage,
			OnDisconnect: clientPeer.OnDisconnect,
		},
	})

	clientPeer.Peer = p
	clientPeer.SetConnection(conn)

	return clientPeer
}

// OnMessage decodes and dispatches one inbound frame. A malformed frame
// is reported to the client and the connection stays open.
func (p *ClientPeer) OnMessage(raw []byte) error {
	ev, err := wire.Decode(raw)
	if err != nil {
		p.SendEvent(wire.NewEvent(wire.KindMessageError,
			&wire.ErrorReply{Error: "malformed event"}))
		return err
	}
	return p.hub.Dispatch(p, ev)
}

// OnDisconnect hands the dead connection back to the hub.
func (p *ClientPeer) OnDisconnect() error {
	p.hub.HandleDisconnect(p)
	return nil
}

// UserID implements Session.
func (p *ClientPeer) UserID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.userID
}

// BindUser implements Session.
func (p *ClientPeer) BindUser(userID string) {
	p.mu.Lock()
	p.userID = userID
	p.mu.Unlock()
}

// SendEvent implements Session. Emission is fire-and-forget.
func (p *ClientPeer) SendEvent(ev *wire.Event) {
	raw, err := ev.Encode()
	if err != nil {
		p.hub.log.Error().Err(err).Str("event", ev.Kind.String()).Msg("encode failed")
		return
	}
	p.PushMessage(raw, nil)
}

// Kick implements Session: tell the client why, then close.
func (p *ClientPeer) Kick(reason string) {
	raw, err := wire.NewEvent(wire.KindConnectionReplaced, &wire.Replaced{Reason: reason}).Encode()
	if err == nil {
		done := make(chan struct{}, 1)
		p.PushMessage(raw, done)
		select {
		case <-done:
		case <-time.After(kickFlushWait):
		}
	}
	p.Close()
}
