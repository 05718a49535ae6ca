package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"edusat-quiz-engine/internal/progress"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type progressMessage struct {
	Type    string         `json:"type"`
	Payload progress.Event `json:"payload"`
}

// ServeProgressWS upgrades the request to a websocket and streams progress
// change events until the client disconnects. The feed is one-way and
// fire-and-forget: a client that connects late sees only events from then on.
func (h *Handler) ServeProgressWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := h.engine.Ledger().Subscribe()
	defer cancel()

	done := make(chan struct{})

	// Reader exists only to observe the close handshake.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(progressMessage{Type: "progress", Payload: ev}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
