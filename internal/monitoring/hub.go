package monitoring

import (
	"sync"

	"github.com/rs/zerolog"
)

// Hub manages websocket client connections and fans lifecycle events out
// to the clients subscribed to them: register/unregister/broadcast
// channels drain into a single select loop, with a by-node index for fast
// fan-out.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *LiveEvent

	byNode map[string]map[*Client]bool
	mu     sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a Hub. Call Run in its own goroutine before serving any
// connections.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *LiveEvent, 256),
		byNode:     make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

// Run drives the hub's event loop and never returns; callers typically run
// this in its own goroutine for the lifetime of the process.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			h.logger.Debug().Str("client_id", c.id).Int("total", len(h.clients)).Msg("monitoring client connected")
		case c := <-h.unregister:
			h.removeClient(c)
		case event := <-h.broadcast:
			h.dispatch(event)
		}
	}
}

func (h *Hub) removeClient(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)

	h.mu.Lock()
	c.subs.mu.RLock()
	for node := range c.subs.nodes {
		if clients, ok := h.byNode[node]; ok {
			delete(clients, c)
			if len(clients) == 0 {
				delete(h.byNode, node)
			}
		}
	}
	c.subs.mu.RUnlock()
	h.mu.Unlock()

	h.logger.Debug().Str("client_id", c.id).Int("total", len(h.clients)).Msg("monitoring client disconnected")
}

// Broadcast enqueues event for fan-out to every subscribed client, or to
// every connected client if it has no subscriptions at all.
func (h *Hub) Broadcast(event *LiveEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn().Str("event_type", event.Type).Msg("monitoring broadcast buffer full, dropping event")
	}
}

func (h *Hub) dispatch(event *LiveEvent) {
	h.mu.RLock()
	targets := make(map[*Client]bool)
	if clients, ok := h.byNode[event.Node]; ok {
		for c := range clients {
			targets[c] = true
		}
	}
	for c := range h.clients {
		if !c.hasSubscriptions() {
			targets[c] = true
		}
	}
	h.mu.RUnlock()

	for c := range targets {
		select {
		case c.send <- event:
		default:
			h.logger.Warn().Str("client_id", c.id).Msg("monitoring client buffer full, dropping event")
		}
	}
}

// Subscribe narrows a client to events for a single node name.
func (h *Hub) Subscribe(c *Client, node string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.subs.mu.Lock()
	defer c.subs.mu.Unlock()
	c.subs.nodes[node] = true
	if h.byNode[node] == nil {
		h.byNode[node] = make(map[*Client]bool)
	}
	h.byNode[node][c] = true
}

// Unsubscribe undoes a prior Subscribe.
func (h *Hub) Unsubscribe(c *Client, node string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.subs.mu.Lock()
	defer c.subs.mu.Unlock()
	delete(c.subs.nodes, node)
	if clients, ok := h.byNode[node]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.byNode, node)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int { return len(h.clients) }
