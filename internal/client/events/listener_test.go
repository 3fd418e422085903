package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"actilog/internal/client/api"
)

func frame(t *testing.T, event string, payload any) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]any{"event": event, "payload": payload})
	require.NoError(t, err)
	return data
}

func TestDispatch_EntryAdded(t *testing.T) {
	l := New("http://localhost:8080", "token")

	var got EntryAdded
	l.OnEntryAdded(func(ev EntryAdded) { got = ev })

	l.dispatch(frame(t, "entry_added", EntryAdded{
		UserID: 3,
		Entry:  api.Entry{ID: 42, Minutes: 30, CourtierName: "Cabinet Martin"},
	}))

	assert.Equal(t, uint(3), got.UserID)
	assert.Equal(t, uint(42), got.Entry.ID)
	assert.Equal(t, "Cabinet Martin", got.Entry.CourtierName)
}

func TestDispatch_Presence(t *testing.T) {
	l := New("http://localhost:8080", "token")

	type seen struct {
		p      Presence
		joined bool
	}
	var calls []seen
	l.OnPresence(func(p Presence, joined bool) { calls = append(calls, seen{p, joined}) })

	l.dispatch(frame(t, "user_connected", Presence{UserID: 7, Username: "marie"}))
	l.dispatch(frame(t, "user_disconnected", Presence{UserID: 7, Username: "marie"}))

	require.Len(t, calls, 2)
	assert.Equal(t, "marie", calls[0].p.Username)
	assert.True(t, calls[0].joined)
	assert.Equal(t, uint(7), calls[1].p.UserID)
	assert.False(t, calls[1].joined)
}

func TestDispatch_SystemMessage(t *testing.T) {
	l := New("http://localhost:8080", "token")

	var got SystemMessage
	l.OnSystemMessage(func(msg SystemMessage) { got = msg })

	l.dispatch(frame(t, "system_message", SystemMessage{Message: "maintenance tonight", Level: "warning"}))

	assert.Equal(t, "maintenance tonight", got.Message)
	assert.Equal(t, "warning", got.Level)
}

func TestDispatch_IgnoresUnknownAndMalformed(t *testing.T) {
	l := New("http://localhost:8080", "token")

	called := false
	l.OnEntryAdded(func(EntryAdded) { called = true })
	l.OnPresence(func(Presence, bool) { called = true })
	l.OnSystemMessage(func(SystemMessage) { called = true })

	l.dispatch(frame(t, "unknown_event", map[string]any{"x": 1}))
	l.dispatch([]byte("not json"))
	l.dispatch(frame(t, "entry_added", "not an object"))
	l.dispatch(frame(t, "user_connected", "not an object"))

	assert.False(t, called)
}

func TestDispatch_MissingHandlersDoNotPanic(t *testing.T) {
	l := New("http://localhost:8080", "token")

	assert.NotPanics(t, func() {
		l.dispatch(frame(t, "entry_added", EntryAdded{UserID: 1}))
		l.dispatch(frame(t, "user_connected", Presence{UserID: 1}))
		l.dispatch(frame(t, "system_message", SystemMessage{Message: "hi"}))
	})
}
