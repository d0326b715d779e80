package hub

import (
	"time"

	"github.com/soar/BrickTeleop/internal/control"
)

// Message types sent to clients.
const (
	TypeFull  = "full"
	TypeDelta = "delta"
)

// WSMessage is a message sent from server to client.
type WSMessage struct {
	Type      string         `json:"type"`
	Seq       int64          `json:"seq"`
	Timestamp int64          `json:"timestamp"` // Unix milliseconds
	Data      *control.Frame `json:"data,omitempty"`
	Changes   *FrameDelta    `json:"changes,omitempty"`
}

// NewFullMessage creates a "full" message carrying a complete frame.
func NewFullMessage(seq int64, f *control.Frame) *WSMessage {
	return &WSMessage{
		Type:      TypeFull,
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Data:      f,
	}
}

// NewDeltaMessage creates a "delta" message carrying only changed fields.
func NewDeltaMessage(seq int64, changes *FrameDelta) *WSMessage {
	return &WSMessage{
		Type:      TypeDelta,
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Changes:   changes,
	}
}

// ClientMessage is a message sent from the client to the server.
type ClientMessage struct {
	Type string `json:"type"` // "stop"
}
