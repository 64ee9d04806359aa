package monitoring

import (
	"time"

	"github.com/Framework-R-D/meld/internal/engine"
)

// LiveObserver implements engine.ExecutionObserver by forwarding every
// notification onto a Hub for websocket fan-out. It sits entirely outside
// the dispatch path: an observer attached to the Runner, not a node in
// the graph.
type LiveObserver struct {
	hub *Hub
}

var _ engine.ExecutionObserver = (*LiveObserver)(nil)

// NewLiveObserver wraps hub as an engine.ExecutionObserver.
func NewLiveObserver(hub *Hub) *LiveObserver {
	return &LiveObserver{hub: hub}
}

func (o *LiveObserver) OnNodeStarted(node, storeID string) {
	o.hub.Broadcast(newEvent(EventNodeStarted, node, storeID))
}

func (o *LiveObserver) OnNodeCompleted(node, storeID string, duration time.Duration) {
	event := newEvent(EventNodeCompleted, node, storeID)
	event.DurationMs = duration.Milliseconds()
	o.hub.Broadcast(event)
}

func (o *LiveObserver) OnNodeFailed(node, storeID string, err error) {
	event := newEvent(EventNodeFailed, node, storeID)
	if err != nil {
		event.Error = err.Error()
	}
	o.hub.Broadcast(event)
}

func (o *LiveObserver) OnFlush(sourceTag, storeID string) {
	o.hub.Broadcast(newEvent(EventFlush, sourceTag, storeID))
}
