package realtime

import "actilog/internal/model"

// Event names pushed over the live channel.
const (
	EventEntryAdded       = "entry_added"
	EventUserConnected    = "user_connected"
	EventUserDisconnected = "user_disconnected"
	EventSystemMessage    = "system_message"
)

// Event is the JSON envelope every push message travels in.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload"`
}

// EntryAddedPayload accompanies EventEntryAdded.
type EntryAddedPayload struct {
	UserID uint            `json:"user_id"`
	Entry  model.EntryView `json:"entry"`
}

// PresencePayload accompanies EventUserConnected and EventUserDisconnected.
type PresencePayload struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
}

// SystemMessagePayload accompanies EventSystemMessage.
type SystemMessagePayload struct {
	Message string `json:"message"`
	Level   string `json:"level"`
}

// Broadcaster is the narrow surface services publish through. Delivery is
// best effort and at most once: the authoritative state is always
// re-derivable from the store, so a missed event costs a stale display,
// never data.
type Broadcaster interface {
	EntryAdded(entry model.EntryView, userID uint)
	SystemMessage(message, level string)
}
