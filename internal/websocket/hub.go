package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/parlez/internal/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024

	// Outbound messages buffered per peer before it is considered too slow.
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	// The relay is consumed by the local presentation client on another origin
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of connected peers and relays every inbound
// message to all other peers.
type Hub struct {
	// Registered peers.
	peers map[string]*Peer

	// Register requests from the peers.
	register chan *Peer

	// Unregister requests from peers.
	unregister chan *Peer

	// Guards peers; fan-out holds the read lock, mutation the write lock.
	mu sync.RWMutex

	done chan struct{}

	logger *zap.Logger
}

// NewHub creates a new relay hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		peers:      make(map[string]*Peer),
		register:   make(chan *Peer),
		unregister: make(chan *Peer),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes registrations until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case peer := <-h.register:
			h.mu.Lock()
			h.peers[peer.id] = peer
			count := len(h.peers)
			h.mu.Unlock()
			metrics.RelayPeers.Set(float64(count))
			h.logger.Info("Peer registered", zap.String("peerID", peer.id), zap.Int("peers", count))

		case peer := <-h.unregister:
			h.remove(peer)

		case <-h.done:
			h.mu.Lock()
			for id, peer := range h.peers {
				delete(h.peers, id)
				close(peer.send)
			}
			h.mu.Unlock()
			metrics.RelayPeers.Set(0)
			return
		}
	}
}

// Stop ends Run and closes every peer connection
func (h *Hub) Stop() {
	close(h.done)
}

// Count returns the number of registered peers
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

func (h *Hub) remove(peer *Peer) {
	h.mu.Lock()
	_, ok := h.peers[peer.id]
	if ok {
		delete(h.peers, peer.id)
		close(peer.send)
	}
	count := len(h.peers)
	h.mu.Unlock()

	if ok {
		metrics.RelayPeers.Set(float64(count))
		h.logger.Info("Peer unregistered", zap.String("peerID", peer.id), zap.Int("peers", count))
	}
}

// Broadcast forwards a message verbatim to every peer except sender.
// Peers whose send buffer is full are dropped rather than blocking the others.
func (h *Hub) Broadcast(sender *Peer, messageType int, payload []byte) int {
	var slow []*Peer
	delivered := 0

	h.mu.RLock()
	for _, peer := range h.peers {
		if peer == sender {
			continue
		}
		select {
		case peer.send <- WriteData{Type: messageType, Payload: payload}:
			delivered++
		default:
			slow = append(slow, peer)
		}
	}
	h.mu.RUnlock()

	metrics.RelayFanout.WithLabelValues("delivered").Add(float64(delivered))
	for _, peer := range slow {
		metrics.RelayFanout.WithLabelValues("dropped").Inc()
		h.logger.Warn("Dropping slow peer", zap.String("peerID", peer.id))
		h.remove(peer)
	}
	return delivered
}

// WriteData is one outbound websocket frame
type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Peer is a middleman between the websocket connection and the hub.
type Peer struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	id string

	logger *zap.Logger
}

// HandleWebSocket upgrades the request and joins the connection to the relay
func HandleWebSocket(hub *Hub, c echo.Context, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	id := uuid.NewString()
	peer := &Peer{
		hub:    hub,
		conn:   conn,
		send:   make(chan WriteData, sendBuffer),
		id:     id,
		logger: logger.With(zap.String("peerID", id)),
	}

	select {
	case hub.register <- peer:
	case <-hub.done:
		conn.Close()
		return nil
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go peer.writePump()
	go peer.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the hub.
func (p *Peer) readPump() {
	defer func() {
		select {
		case p.hub.unregister <- p:
		case <-p.hub.done:
		}
		p.conn.Close()
	}()

	p.conn.SetReadLimit(maxMessageSize)
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		p.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				p.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		delivered := p.hub.Broadcast(p, messageType, message)
		p.logger.Debug("Relayed message",
			zap.Int("size", len(message)),
			zap.Int("delivered", delivered))
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (p *Peer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case message, ok := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				p.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := p.conn.WriteMessage(message.Type, message.Payload); err != nil {
				p.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
