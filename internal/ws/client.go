package ws

import (
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single frame write so one stalled subscriber cannot
	// wedge broadcasts for the rest of a conversation.
	writeWait = 10 * time.Second
	// maxMessageBytes caps inbound frames; chat payloads are small JSON
	// envelopes, so anything larger is a misbehaving client.
	maxMessageBytes = 32 << 10
)

// Client wraps one subscriber's websocket connection to the chat stream.
type Client struct {
	conn *websocket.Conn
	log  *slog.Logger
}

// NewClient constructs a client wrapper around an upgraded connection.
func NewClient(conn *websocket.Conn, logger *slog.Logger) *Client {
	conn.SetReadLimit(maxMessageBytes)
	return &Client{conn: conn, log: logger}
}

// Send pushes one chat event frame to the subscriber. A failed or timed-out
// write closes the connection; the hub drops the client on the error.
func (c *Client) Send(payload []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.log.Warn("chat subscriber write failed", "error", err)
		_ = c.conn.Close()
		return err
	}
	return nil
}

// Close terminates the connection.
func (c *Client) Close() {
	_ = c.conn.Close()
}
