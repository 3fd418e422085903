package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"actilog/internal/model"
)

// Hub owns the set of connected clients and fans events out to them.
// All mutations of the client set go through the run loop, so no lock is
// needed; publishers hand marshaled frames to the broadcast channel.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	clients    map[*Client]bool
	connected  atomic.Int64
	logger     *slog.Logger
}

var _ Broadcaster = (*Hub)(nil)

// NewHub creates a hub. Run must be started for it to serve.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

// Run serves the hub until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.connected.Store(int64(len(h.clients)))
			h.logger.Info("ws client connected",
				"user_id", client.userID, "username", client.username, "clients", len(h.clients))
			h.emit(EventUserConnected, PresencePayload{UserID: client.userID, Username: client.username})

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.connected.Store(int64(len(h.clients)))
				h.logger.Info("ws client disconnected",
					"user_id", client.userID, "username", client.username, "clients", len(h.clients))
				h.emit(EventUserDisconnected, PresencePayload{UserID: client.userID, Username: client.username})
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer: drop the client rather than block the hub.
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.connected.Store(int64(len(h.clients)))

		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.connected.Store(0)
			return
		}
	}
}

// ConnectedClients reports how many clients are currently registered.
func (h *Hub) ConnectedClients() int {
	return int(h.connected.Load())
}

// EntryAdded pushes an entry_added event to every connected client.
func (h *Hub) EntryAdded(entry model.EntryView, userID uint) {
	h.publish(EventEntryAdded, EntryAddedPayload{UserID: userID, Entry: entry})
}

// SystemMessage pushes an administrative broadcast to every connected client.
func (h *Hub) SystemMessage(message, level string) {
	h.publish(EventSystemMessage, SystemMessagePayload{Message: message, Level: level})
}

// publish marshals the envelope and hands it to the run loop. If the
// broadcast buffer is full the event is dropped: delivery is best effort.
func (h *Hub) publish(name string, payload any) {
	data, err := json.Marshal(Event{Name: name, Payload: payload})
	if err != nil {
		h.logger.Error("ws marshal event", "event", name, "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("ws broadcast buffer full, dropping event", "event", name)
	}
}

// emit is publish for events originating inside the run loop itself; it
// writes directly to the clients to avoid deadlocking on the broadcast
// channel from within Run.
func (h *Hub) emit(name string, payload any) {
	data, err := json.Marshal(Event{Name: name, Payload: payload})
	if err != nil {
		h.logger.Error("ws marshal event", "event", name, "error", err)
		return
	}
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}
