// Package events subscribes to the server's live channel. Callers register
// typed handlers up front; the websocket transport stays hidden behind them.
// Delivery is best effort: there is no replay and no acknowledgement.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"actilog/internal/client/api"
)

const (
	// The server pings every 25s; two missed pings mean the link is dead.
	readWait  = 75 * time.Second
	writeWait = 10 * time.Second
)

// Listener dials the live channel and dispatches decoded events to the
// registered handlers. Register handlers before calling Start; they run on
// the listener's read goroutine. Unknown events are ignored.
type Listener struct {
	serverURL string
	token     string

	onConnected     func()
	onDisconnected  func(error)
	onEntryAdded    func(EntryAdded)
	onPresence      func(Presence, bool)
	onSystemMessage func(SystemMessage)

	conn   *websocket.Conn
	closed atomic.Bool
}

// New builds a listener for the given server base URL and access token.
func New(serverURL, token string) *Listener {
	return &Listener{serverURL: serverURL, token: token}
}

// OnConnected registers a handler invoked once the channel is established.
func (l *Listener) OnConnected(fn func()) { l.onConnected = fn }

// OnDisconnected registers a handler invoked when the channel drops.
func (l *Listener) OnDisconnected(fn func(error)) { l.onDisconnected = fn }

// OnEntryAdded registers a handler for new-entry events.
func (l *Listener) OnEntryAdded(fn func(EntryAdded)) { l.onEntryAdded = fn }

// OnPresence registers a handler for users joining (joined true) or
// leaving the live channel.
func (l *Listener) OnPresence(fn func(p Presence, joined bool)) { l.onPresence = fn }

// OnSystemMessage registers a handler for operator notices.
func (l *Listener) OnSystemMessage(fn func(SystemMessage)) { l.onSystemMessage = fn }

// Start dials the channel and launches the read loop. The token rides the
// query string because browsers and dialers cannot attach headers uniformly.
func (l *Listener) Start(ctx context.Context) error {
	u, err := url.Parse(l.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	q := u.Query()
	q.Set("token", l.token)
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return fmt.Errorf("%w: live channel rejected the token", api.ErrUnauthorized)
		}
		return fmt.Errorf("%w: %v", api.ErrUnavailable, err)
	}
	l.conn = conn

	if l.onConnected != nil {
		l.onConnected()
	}
	go l.readLoop()
	return nil
}

// Close tears the channel down without firing OnDisconnected.
func (l *Listener) Close() error {
	l.closed.Store(true)
	if l.conn == nil {
		return nil
	}
	return l.conn.Close()
}

func (l *Listener) readLoop() {
	conn := l.conn
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			_ = conn.Close()
			if !l.closed.Load() && l.onDisconnected != nil {
				l.onDisconnected(err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		l.dispatch(data)
	}
}

func (l *Listener) dispatch(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return
	}

	switch env.Event {
	case eventEntryAdded:
		if l.onEntryAdded == nil {
			return
		}
		var payload EntryAdded
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return
		}
		l.onEntryAdded(payload)

	case eventUserConnected, eventUserDisconnected:
		if l.onPresence == nil {
			return
		}
		var payload Presence
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return
		}
		l.onPresence(payload, env.Event == eventUserConnected)

	case eventSystemMessage:
		if l.onSystemMessage == nil {
			return
		}
		var payload SystemMessage
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return
		}
		l.onSystemMessage(payload)
	}
}
