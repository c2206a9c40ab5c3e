package handlers

import (
	"context"
	"net/http"
	"time"

	"wifi_provisioner/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB
)

// The device has no origin to protect; any page may open the channel.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// controlConnect registers the connection as a listener, writes every line
// addressed to it and feeds its text frames to the command dispatcher.
func (h *Handler) controlConnect(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorw("ws_upgrade_failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	id, lines := h.services.Listeners.Register()
	defer h.services.Listeners.Unregister(id)
	h.log.Infow("ws_listener_connected", "listener", id, "remote", c.Request.RemoteAddr)

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx := c.Request.Context()
	done := make(chan struct{})
	go h.readCommands(ctx, conn, id, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				h.log.Infow("ws_write_failed", "listener", id, "err", err)
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.log.Infow("ws_ping_failed", "listener", id, "err", err)
				return
			}
		}
	}
}

// readCommands hands every text frame to the controller on the run loop.
// Binary frames are ignored.
func (h *Handler) readCommands(ctx context.Context, conn *websocket.Conn, id service.ListenerID, done chan<- struct{}) {
	defer close(done)
	for {
		typ, msg, err := conn.ReadMessage()
		if err != nil {
			h.log.Infow("ws_read_closed", "listener", id, "err", err)
			return
		}
		if typ != websocket.TextMessage {
			continue
		}
		cmd := string(msg)
		if err := h.loop.Do(ctx, func() { h.services.Control.Handle(id, cmd) }); err != nil {
			h.log.Warnw("ws_command_dropped", "listener", id, "command", cmd, "err", err)
			return
		}
	}
}
