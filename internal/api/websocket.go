package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"github.com/danielpatrickdp/npc-companion/internal/apperrors"
	"github.com/danielpatrickdp/npc-companion/internal/chat"
)

const (
	wsReadLimit   = 64 << 10
	wsIdleTimeout = 5 * time.Minute
	wsWriteWait   = 10 * time.Second
)

// newUpgrader checks the Origin header itself: browsers do not apply CORS to
// upgrade requests.
func newUpgrader(origins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(origins),
	}
}

// originChecker allows everything when origins is empty or holds "*".
// Requests without an Origin header are not from a browser and pass.
func originChecker(origins []string) func(*http.Request) bool {
	if len(origins) == 0 || lo.Contains(origins, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return lo.ContainsBy(origins, func(o string) bool { return strings.EqualFold(o, origin) })
	}
}

// AllowOrigins restricts WebSocket upgrades to the given browser origins.
func (h *Handler) AllowOrigins(origins []string) {
	h.upgrader = newUpgrader(origins)
}

// wsFrame is written back for every inbound text frame.
type wsFrame struct {
	Success bool        `json:"success"`
	Data    *chat.Reply `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// serveWS upgrades the connection and handles one message per text frame
// until the client disconnects.
func (h *Handler) serveWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsReadLimit)
	conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
	})

	ctx := c.Request.Context()
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket closed", "error", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))

		frame := h.handleFrame(ctx, data)
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(frame); err != nil {
			h.logger.Warn("websocket write failed", "error", err)
			return
		}
	}
}

func (h *Handler) handleFrame(ctx context.Context, data []byte) wsFrame {
	var in chat.IncomingMessage
	if err := json.Unmarshal(data, &in); err != nil {
		return errorFrame(apperrors.Validation("invalid message payload", err))
	}
	reply, err := h.chat.HandleMessage(ctx, in)
	if err != nil {
		if apperrors.HTTPStatus(err) >= 500 {
			h.logger.Error("websocket message failed", "npc_id", in.NPCID, "error", err)
		}
		return errorFrame(err)
	}
	return wsFrame{Success: true, Data: &reply}
}

func errorFrame(err error) wsFrame {
	return wsFrame{Error: &APIError{Code: apperrors.CodeOf(err), Message: apperrors.PublicMessage(err)}}
}
