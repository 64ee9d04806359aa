// Package monitoring broadcasts Runner lifecycle notifications to
// websocket clients. Events are addressed by qualified node name; a
// client with no subscriptions receives everything.
package monitoring

import "time"

// Event types sent from the hub to subscribed clients.
const (
	EventNodeStarted   = "node.started"
	EventNodeCompleted = "node.completed"
	EventNodeFailed    = "node.failed"
	EventFlush         = "flush"
)

// Command types a client may send.
const (
	CmdSubscribe   = "subscribe"
	CmdUnsubscribe = "unsubscribe"
)

// LiveEvent is a single broadcastable lifecycle notification.
type LiveEvent struct {
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	Node       string    `json:"node,omitempty"`
	StoreID    string    `json:"store_id"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	Error      string    `json:"error,omitempty"`
}

func newEvent(eventType, node, storeID string) *LiveEvent {
	return &LiveEvent{Type: eventType, Timestamp: time.Now(), Node: node, StoreID: storeID}
}

// Command is a client-to-server subscription request.
type Command struct {
	Action string `json:"action"`
	Node   string `json:"node,omitempty"`
}

// Response acknowledges a Command.
type Response struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func successResponse(action, message string) *Response {
	return &Response{Type: action, Success: true, Message: message}
}

func errorResponse(action, message string) *Response {
	return &Response{Type: action, Success: false, Error: message}
}
