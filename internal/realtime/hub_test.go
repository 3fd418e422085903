package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"actilog/internal/model"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

// connect registers a pumpless client; tests read frames off send directly.
func connect(hub *Hub, userID uint, username string, buffer int) *Client {
	client := &Client{hub: hub, send: make(chan []byte, buffer), userID: userID, username: username}
	hub.register <- client
	return client
}

func receiveEvent(t *testing.T, client *Client) Event {
	t.Helper()
	select {
	case frame, ok := <-client.send:
		require.True(t, ok, "send channel closed")
		var event Event
		require.NoError(t, json.Unmarshal(frame, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHub_RegisterEmitsPresence(t *testing.T) {
	hub := newTestHub(t)

	client := connect(hub, 7, "marie", 4)

	event := receiveEvent(t, client)
	assert.Equal(t, EventUserConnected, event.Name)

	payload, err := json.Marshal(event.Payload)
	require.NoError(t, err)
	var presence PresencePayload
	require.NoError(t, json.Unmarshal(payload, &presence))
	assert.Equal(t, uint(7), presence.UserID)
	assert.Equal(t, "marie", presence.Username)

	assert.Eventually(t, func() bool { return hub.ConnectedClients() == 1 },
		time.Second, 5*time.Millisecond)
}

func TestHub_EntryAddedReachesEveryClient(t *testing.T) {
	hub := newTestHub(t)

	first := connect(hub, 1, "marie", 8)
	receiveEvent(t, first) // own user_connected
	second := connect(hub, 2, "paul", 8)
	receiveEvent(t, first)  // paul's user_connected
	receiveEvent(t, second) // own user_connected

	hub.EntryAdded(model.EntryView{ID: 42, Minutes: 30, ClientName: "Dupont"}, 1)

	for _, client := range []*Client{first, second} {
		event := receiveEvent(t, client)
		assert.Equal(t, EventEntryAdded, event.Name)

		payload, err := json.Marshal(event.Payload)
		require.NoError(t, err)
		var added EntryAddedPayload
		require.NoError(t, json.Unmarshal(payload, &added))
		assert.Equal(t, uint(1), added.UserID)
		assert.Equal(t, uint(42), added.Entry.ID)
		assert.Equal(t, 30, added.Entry.Minutes)
	}
}

func TestHub_SlowConsumerIsDropped(t *testing.T) {
	hub := newTestHub(t)

	slow := connect(hub, 1, "marie", 1)
	receiveEvent(t, slow) // fill is now possible: buffer size 1, drained once

	// Two broadcasts against a full buffer of one: the second finds the
	// buffer occupied and evicts the client.
	hub.SystemMessage("maintenance tonight", "info")
	hub.SystemMessage("maintenance tonight", "info")

	assert.Eventually(t, func() bool { return hub.ConnectedClients() == 0 },
		time.Second, 5*time.Millisecond)

	// The hub closes the channel on eviction.
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-slow.send:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestHub_UnregisterEmitsPresenceToRemaining(t *testing.T) {
	hub := newTestHub(t)

	leaver := connect(hub, 1, "marie", 4)
	receiveEvent(t, leaver)
	stayer := connect(hub, 2, "paul", 4)
	receiveEvent(t, leaver)
	receiveEvent(t, stayer)

	hub.unregister <- leaver

	event := receiveEvent(t, stayer)
	assert.Equal(t, EventUserDisconnected, event.Name)
	assert.Eventually(t, func() bool { return hub.ConnectedClients() == 1 },
		time.Second, 5*time.Millisecond)
}

func TestHub_ShutdownClosesAllClients(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := connect(hub, 1, "marie", 4)
	receiveEvent(t, client)

	cancel()
	<-done

	assert.Equal(t, 0, hub.ConnectedClients())
	for {
		if _, ok := <-client.send; !ok {
			break
		}
	}
}
