package monitoring

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

// subscriptions tracks which node names a client has narrowed itself to; no
// entries means "receive everything".
type subscriptions struct {
	nodes map[string]bool
	mu    sync.RWMutex
}

func newSubscriptions() *subscriptions {
	return &subscriptions{nodes: make(map[string]bool)}
}

// Client is one connected websocket consumer of Runner lifecycle events:
// a readPump/writePump pair with ping/pong keepalive and a buffered send
// channel, optionally filtered to the nodes it has subscribed to.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan *LiveEvent

	id   string
	subs *subscriptions
}

// NewClient wraps an accepted websocket connection.
func NewClient(id string, hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan *LiveEvent, sendBufferSize),
		id:   id,
		subs: newSubscriptions(),
	}
}

func (c *Client) hasSubscriptions() bool {
	c.subs.mu.RLock()
	defer c.subs.mu.RUnlock()
	return len(c.subs.nodes) > 0
}

// readPump pumps subscribe/unsubscribe commands from the connection into
// the hub until the connection closes.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.sendResponse(errorResponse("error", "invalid command format"))
			continue
		}
		c.handleCommand(&cmd)
	}
}

// writePump pumps events from the hub to the connection, interleaved with
// periodic pings, until the send channel is closed by the hub.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleCommand(cmd *Command) {
	switch cmd.Action {
	case CmdSubscribe:
		if cmd.Node == "" {
			c.sendResponse(errorResponse(CmdSubscribe, "node required"))
			return
		}
		c.hub.Subscribe(c, cmd.Node)
		c.sendResponse(successResponse(CmdSubscribe, "subscribed to "+cmd.Node))
	case CmdUnsubscribe:
		if cmd.Node == "" {
			c.sendResponse(errorResponse(CmdUnsubscribe, "node required"))
			return
		}
		c.hub.Unsubscribe(c, cmd.Node)
		c.sendResponse(successResponse(CmdUnsubscribe, "unsubscribed from "+cmd.Node))
	default:
		c.sendResponse(errorResponse("error", "unknown command: "+cmd.Action))
	}
}

func (c *Client) sendResponse(resp *Response) {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteJSON(resp)
}
