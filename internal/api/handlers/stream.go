package handlers

import (
	"context"
	"log"
	"net/http"
	"pool-site-service/internal/ports"
	"time"

	"github.com/gorilla/websocket"
)

const streamWriteTimeout = 10 * time.Second

// Nil CheckOrigin keeps gorilla's same-origin check: browsers on other
// origins are rejected with 403, clients without an Origin header pass.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// NotificationStreamHandler pushes a project's notifications to a websocket
// client as they are emitted.
type NotificationStreamHandler struct {
	Stream ports.NotificationStream
}

func (h *NotificationStreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	id := projectID(r)
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "project id is required")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Subscribe before upgrading so nothing emitted after the handshake is missed.
	notes, err := h.Stream.Subscribe(ctx, id)
	if err != nil {
		log.Printf("subscribe notifications failed: project_id=%s err=%v", id, err)
		writeError(w, r, http.StatusServiceUnavailable, "notification stream unavailable")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// The client only sends control frames; a read error means it went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notes:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(toNotificationResponse(n)); err != nil {
				log.Printf("stream notification failed: project_id=%s err=%v", id, err)
				return
			}
		}
	}
}
