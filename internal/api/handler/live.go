package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dealdesk/dealdesk/internal/api/middleware"
	"github.com/dealdesk/dealdesk/internal/live"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

// LiveHandler upgrades GET /api/v1/live to a WebSocket and streams collection
// snapshots for the caller's organization.
type LiveHandler struct {
	hub      *live.Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewLiveHandler creates a LiveHandler.
func NewLiveHandler(hub *live.Hub, logger *slog.Logger) *LiveHandler {
	return &LiveHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Serve handles GET /api/v1/live?collections=deals,pipeline,notes/{dealId}.
// Each named collection is subscribed within the caller's organization and
// every published snapshot is forwarded as one JSON message.
func (h *LiveHandler) Serve(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	names := strings.Split(r.URL.Query().Get("collections"), ",")
	subs := make([]*live.Subscription, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			subs = append(subs, h.hub.Subscribe(claims.OrganizationID, name))
		}
	}
	if len(subs) == 0 {
		http.Error(w, "collections query parameter is required", http.StatusBadRequest)
		return
	}
	stop := make(chan struct{})
	defer func() {
		close(stop)
		for _, s := range subs {
			s.Unsubscribe()
		}
	}()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("live: websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	// Reader goroutine: consume control frames and detect client close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	events := merge(subs, stop)
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// merge fans several subscription channels into one. Forwarders give up when
// stop closes so an exiting connection never strands a goroutine mid-send.
func merge(subs []*live.Subscription, stop <-chan struct{}) <-chan live.Event {
	out := make(chan live.Event)
	for _, s := range subs {
		go func(s *live.Subscription) {
			for ev := range s.C {
				select {
				case out <- ev:
				case <-stop:
					return
				}
			}
		}(s)
	}
	return out
}
