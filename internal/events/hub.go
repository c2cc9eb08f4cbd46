package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

const (
	// writeWait bounds a single websocket write.
	writeWait = 10 * time.Second

	// pongWait is how long a client may go silent before it is dropped.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer is the per-client outbound queue. A client that cannot
	// drain it is dropped rather than stalling the session.
	sendBuffer = 16
)

// Client is one websocket connection subscribed to a session channel.
type Client struct {
	hub     *Hub
	channel string
	conn    *websocket.Conn

	// mu guards send and closed so no enqueue can race the teardown
	// into a send on a closed channel.
	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// enqueue queues data for the client's write pump. It reports false
// when the queue is full or the client has already been torn down.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// closeSend tears down the outbound queue at most once. Enqueues after
// this point report failure.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub tracks websocket clients per session channel and delivers events
// best-effort: a send never blocks on a slow client.
type Hub struct {
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]map[*Client]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:   logger,
		sessions: make(map[string]map[*Client]struct{}),
	}
}

// Register attaches a websocket connection to a session channel and
// starts its read/write pumps. The hub owns the connection from here.
func (h *Hub) Register(channel string, conn *websocket.Conn) *Client {
	c := &Client{
		hub:     h,
		channel: channel,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	if h.sessions[channel] == nil {
		h.sessions[channel] = make(map[*Client]struct{})
	}
	h.sessions[channel][c] = struct{}{}
	count := len(h.sessions[channel])
	h.mu.Unlock()

	h.logger.Debug("Websocket client joined", "channel", channel, "clients", count)

	go c.writePump()
	go c.readPump()
	return c
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if clients, ok := h.sessions[c.channel]; ok {
		if _, ok := clients[c]; ok {
			delete(clients, c)
			if len(clients) == 0 {
				delete(h.sessions, c.channel)
			}
		}
	}
	h.mu.Unlock()
	c.closeSend()
}

// Broadcast queues data for every client on the channel. Clients whose
// queues are full are dropped.
func (h *Hub) Broadcast(channel string, data []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.sessions[channel]))
	for c := range h.sessions[channel] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.enqueue(data) {
			h.logger.Warn("Dropping slow websocket client", "channel", channel)
			h.unregister(c)
			c.conn.Close()
		}
	}
}

// Send queues data for this client only, dropping it if the client's
// queue is full or the client has disconnected.
func (c *Client) Send(data []byte) bool {
	return c.enqueue(data)
}

// ClientCount reports connected clients for a channel (used in tests).
func (h *Hub) ClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[channel])
}

// readPump discards inbound frames and watches connection liveness.
// Clients talk to the server over the REST API, not the socket.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Relay subscribes to all session channels on Redis and forwards each
// message to this instance's hub. Run blocks until ctx is cancelled.
type Relay struct {
	redisClient *redis.Client
	hub         *Hub
	logger      *slog.Logger
}

// NewRelay creates a relay between Redis pub/sub and the hub.
func NewRelay(redisClient *redis.Client, hub *Hub, logger *slog.Logger) *Relay {
	return &Relay{
		redisClient: redisClient,
		hub:         hub,
		logger:      logger,
	}
}

// Run pumps Redis pub/sub messages into the hub until ctx ends.
func (r *Relay) Run(ctx context.Context) error {
	pubsub := r.redisClient.PSubscribe(ctx, "room-events:*")
	defer pubsub.Close()

	r.logger.Info("Event relay started")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.hub.Broadcast(msg.Channel, []byte(msg.Payload))
		}
	}
}
