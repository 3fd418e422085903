package realtime

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait is how long a single frame write may take.
	writeWait = 10 * time.Second
	// pongWait is how long to wait for a pong before declaring the peer dead.
	pongWait = 60 * time.Second
	// pingPeriod is the server ping cadence; must be less than pongWait.
	pingPeriod = 25 * time.Second
	// maxMessageSize bounds inbound frames; the channel is push-only so
	// clients have nothing meaningful to send.
	maxMessageSize = 512
	// sendBufferSize is the per-client outbound queue.
	sendBufferSize = 32
)

// Client is one connected websocket peer.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	userID   uint
	username string
}

// HandleConn registers an upgraded connection with the hub and starts its
// read/write pumps. It returns immediately; the pumps own the connection.
func (h *Hub) HandleConn(conn *websocket.Conn, userID uint, username string) {
	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		userID:   userID,
		username: username,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection so control frames are processed and
// unregisters the client when the peer goes away. Application data from
// clients is ignored: submissions travel over HTTP.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards hub frames to the peer and keeps the connection alive
// with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
