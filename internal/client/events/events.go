package events

import (
	"encoding/json"

	"actilog/internal/client/api"
)

// Wire event names, matching the server's push envelopes.
const (
	eventEntryAdded       = "entry_added"
	eventUserConnected    = "user_connected"
	eventUserDisconnected = "user_disconnected"
	eventSystemMessage    = "system_message"
)

// envelope is the JSON frame every push message travels in. The payload is
// decoded lazily once the event name is known.
type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// EntryAdded announces a newly persisted entry and its author.
type EntryAdded struct {
	UserID uint      `json:"user_id"`
	Entry  api.Entry `json:"entry"`
}

// Presence announces a user joining or leaving the live channel.
type Presence struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
}

// SystemMessage is an operator notice pushed to all clients.
type SystemMessage struct {
	Message string `json:"message"`
	Level   string `json:"level"`
}
