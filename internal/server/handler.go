package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/soar/BrickTeleop/internal/control"
	"github.com/soar/BrickTeleop/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local network use
	},
}

// FrameSource returns the latest control frame, if any.
type FrameSource interface {
	Get() (control.Frame, bool)
}

func handleWebSocket(h *hub.Hub, frames FrameSource, stopper hub.Stopper, logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warnw("websocket upgrade failed", "error", err)
			return
		}

		// Send the current frame before the client joins the broadcast.
		if f, ok := frames.Get(); ok {
			data, err := json.Marshal(hub.NewFullMessage(0, &f))
			if err == nil {
				err = conn.WriteMessage(websocket.TextMessage, data)
			}
			if err != nil {
				logger.Warnw("failed to send initial frame", "error", err)
				conn.Close()
				return
			}
		}

		client := hub.NewClient(h, conn, logger)
		h.Register(client)

		go client.WritePump()
		go client.ReadPump(stopper)
	}
}

func handleState(frames FrameSource, logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := frames.Get()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(f); err != nil {
			logger.Warnw("json encode error", "error", err)
		}
	}
}

func handleStop(stopper hub.Stopper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		stopper.RequestStop("http")
		w.WriteHeader(http.StatusAccepted)
	}
}
