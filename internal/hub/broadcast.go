package hub

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/soar/BrickTeleop/internal/control"
)

const (
	fullSyncInterval = 5 * time.Second
	deltaCountSync   = 100
	frameBuffer      = 64
)

// Broadcaster turns control frames into full and delta messages for the hub.
// It implements control.Observer.
type Broadcaster struct {
	hub       *Hub
	frames    chan control.Frame
	lastFrame control.Frame
	haveFrame bool
	seq       int64
	logger    *zap.SugaredLogger
}

func NewBroadcaster(h *Hub, logger *zap.SugaredLogger) *Broadcaster {
	return &Broadcaster{
		hub:    h,
		frames: make(chan control.Frame, frameBuffer),
		logger: logger,
	}
}

// Observe queues a frame without blocking the control loop. Frames are
// dropped when the broadcaster falls behind.
func (b *Broadcaster) Observe(f control.Frame) {
	select {
	case b.frames <- f:
	default:
	}
}

// Run is the broadcaster loop. Should be run in a goroutine.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(fullSyncInterval)
	defer ticker.Stop()

	var deltaCount int64

	for {
		select {
		case <-ctx.Done():
			return

		case f := <-b.frames:
			if !b.haveFrame {
				b.haveFrame = true
				b.lastFrame = f
				b.sendFull(f)
				continue
			}

			delta := ComputeDelta(b.lastFrame, f)
			if delta.IsEmpty() {
				continue
			}
			b.lastFrame = f
			deltaCount++

			if deltaCount >= deltaCountSync {
				b.sendFull(f)
				deltaCount = 0
			} else {
				b.sendDelta(delta)
			}

		case <-ticker.C:
			if b.haveFrame {
				b.sendFull(b.lastFrame)
			}
		}
	}
}

func (b *Broadcaster) sendFull(f control.Frame) {
	b.seq++
	b.send(NewFullMessage(b.seq, &f))
}

func (b *Broadcaster) sendDelta(delta *FrameDelta) {
	b.seq++
	b.send(NewDeltaMessage(b.seq, delta))
}

func (b *Broadcaster) send(msg *WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Errorw("failed to marshal telemetry message", "type", msg.Type, "error", err)
		return
	}
	b.hub.Broadcast(data)
}
