package hub

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// writeWait bounds a single message write to a slow client.
var writeWait = 2 * time.Second

// Stopper halts the robot on request.
type Stopper interface {
	RequestStop(source string)
}

// Client represents a connected WebSocket client.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.SugaredLogger
}

// NewClient creates a new Client attached to the hub.
func NewClient(hub *Hub, conn *websocket.Conn, logger *zap.SugaredLogger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		logger: logger,
	}
}

// WritePump sends messages from the send channel to the WebSocket connection.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			break
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.logger.Debugw("websocket write failed", "remote", c.conn.RemoteAddr().String(), "error", err)
			break
		}
	}
}

// ReadPump reads client commands until the connection closes.
func (c *Client) ReadPump(stopper Stopper) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var clientMsg ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			c.logger.Warnw("bad client message", "error", err)
			continue
		}

		switch clientMsg.Type {
		case "stop":
			c.logger.Warnw("emergency stop requested", "remote", c.conn.RemoteAddr().String())
			stopper.RequestStop("websocket")
		default:
			c.logger.Debugw("ignoring client message", "type", clientMsg.Type)
		}
	}
}
