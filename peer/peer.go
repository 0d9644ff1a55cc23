// Package peer wraps a websocket connection with the read/write pumps,
// keepalive and outbound queue every chat connection needs.
package peer

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer.
	defaultWriteWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	defaultPongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	defaultPingPeriod = (defaultPongWait * 8) / 10

	// Maximum message size allowed from peer. File payloads travel inline,
	// so this is generous.
	defaultMaxMessageSize = 1 << 20

	defaultSendQueueLen = 256
)

// MessageListeners are the callbacks a peer owner receives.
type MessageListeners struct {
	// OnMessage is invoked for every frame read from the connection. Each
	// invocation runs on its own goroutine.
	OnMessage func(msg []byte) error

	// OnDisconnect is invoked once when the connection dies, before the
	// peer is torn down.
	OnDisconnect func() error
}

// Config tunes one peer.
type Config struct {
	// Time allowed to write a message to the peer.
	WriteWait time.Duration
	// Time allowed to read the next pong message from the peer.
	PongWait time.Duration
	// Send pings to peer with this period. Must be less than PongWait.
	PingPeriod time.Duration
	// Maximum message size allowed from peer.
	MaxMessageSize int
	// SendQueueLen is the outbound queue depth.
	SendQueueLen int

	Logger zerolog.Logger

	Listeners *MessageListeners
}

type outMessage struct {
	message []byte
	done    chan<- struct{}
}

// Peer owns one websocket connection.
type Peer struct {
	id     string
	config *Config
	conn   *websocket.Conn
	send   chan outMessage

	timeConnected time.Time

	connected int32
}

// NewPeer prepares a peer; the connection is attached later with
// SetConnection.
func NewPeer(id string, config *Config) *Peer {
	if config.WriteWait == 0 {
		config.WriteWait = defaultWriteWait
	}
	if config.PongWait == 0 {
		config.PongWait = defaultPongWait
	}
	if config.PingPeriod == 0 {
		config.PingPeriod = defaultPingPeriod
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = defaultMaxMessageSize
	}
	if config.SendQueueLen == 0 {
		config.SendQueueLen = defaultSendQueueLen
	}
	if config.PingPeriod >= config.PongWait {
		config.PingPeriod = (config.PongWait * 9) / 10
	}
	return &Peer{
		id:     id,
		config: config,
		send:   make(chan outMessage, config.SendQueueLen),
	}
}

// ID returns the transport-level peer identity.
func (p *Peer) ID() string { return p.id }

// SetConnection binds the connection and starts both pumps.
func (p *Peer) SetConnection(conn *websocket.Conn) {
	// Already connected?
	if !atomic.CompareAndSwapInt32(&p.connected, 0, 1) {
		return
	}

	p.conn = conn
	p.timeConnected = time.Now()

	go p.handleRead()
	go p.handleWrite()
}

func (p *Peer) handleRead() {
	defer func() {
		if p.config.Listeners.OnDisconnect != nil {
			p.config.Listeners.OnDisconnect()
		}
		p.disconnect()
	}()
	p.conn.SetReadLimit(int64(p.config.MaxMessageSize))
	p.conn.SetReadDeadline(time.Now().Add(p.config.PongWait))
	p.conn.SetPongHandler(func(string) error {
		p.conn.SetReadDeadline(time.Now().Add(p.config.PongWait))
		return nil
	})
	for {
		_, message, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				p.config.Logger.Warn().Err(err).Str("peer", p.id).Msg("read failed")
			}
			break
		}
		// Each frame is an independent unit of work; a slow persistence
		// call must not stall this connection's read loop.
		go func(msg []byte) {
			if err := p.config.Listeners.OnMessage(msg); err != nil {
				p.config.Logger.Warn().Err(err).Str("peer", p.id).Msg("message handling failed")
			}
		}(message)
	}
}

func (p *Peer) handleWrite() {
	ticker := time.NewTicker(p.config.PingPeriod)
	defer func() {
		ticker.Stop()
		p.disconnect()
	}()
	for {
		select {
		case out, ok := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(p.config.WriteWait))
			if !ok {
				// The owner closed the peer.
				p.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			err := p.conn.WriteMessage(websocket.TextMessage, out.message)
			if out.done != nil {
				out.done <- struct{}{}
			}
			if err != nil {
				return
			}
		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(p.config.WriteWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// PushMessage queues a frame for delivery. Delivery is best effort: a peer
// that is already disconnected swallows the frame and still signals done.
func (p *Peer) PushMessage(message []byte, doneChan chan<- struct{}) {
	if atomic.LoadInt32(&p.connected) == 0 {
		if doneChan != nil {
			go func() {
				doneChan <- struct{}{}
			}()
		}
		return
	}
	select {
	case p.send <- outMessage{message: message, done: doneChan}:
	default:
		// Queue full; the write pump is stuck or the client stopped
		// reading. Drop the connection rather than block the caller.
		p.config.Logger.Warn().Str("peer", p.id).Msg("send queue full, disconnecting")
		p.disconnect()
	}
}

// Close tears the connection down.
func (p *Peer) Close() {
	p.disconnect()
}

func (p *Peer) disconnect() {
	if !atomic.CompareAndSwapInt32(&p.connected, 1, 0) {
		return
	}
	p.conn.Close()
}
