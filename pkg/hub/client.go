package hub

import (
	"encoding/json"

	"github.com/gorilla/websocket"

	"feedbackrelay/pkg/logger"
)

const (
	// maxFrameBytes bounds a single inbound frame; chat entries are small.
	maxFrameBytes = 64 * 1024
	// sendBuffer is the per-client egress queue; a client that cannot
	// drain it is dropped rather than back-pressuring the hub.
	sendBuffer = 32
)

// Client is one live websocket connection. The read pump feeds decoded
// frames into the hub loop; the write pump drains the egress channel.
// Separating the two avoids head-of-line blocking on slow browsers.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxFrameBytes)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws_read_error", "client", c.id, "error", err)
			}
			return
		}
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			logger.Debug("ws_bad_frame", "client", c.id, "error", err)
			continue
		}
		c.hub.frames <- frame{client: c, env: env}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
