package monitoring

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP requests to websocket connections and registers the
// resulting client with a Hub.
type Handler struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewHandler builds a Handler serving connections against hub.
func NewHandler(hub *Hub, logger zerolog.Logger) *Handler {
	return &Handler{hub: hub, logger: logger}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Str("remote_addr", r.RemoteAddr).Msg("monitoring websocket upgrade failed")
		return
	}

	client := NewClient(uuid.New().String(), h.hub, conn)
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}
