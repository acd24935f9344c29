package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsCommand is a client frame; only language selection is understood.
type wsCommand struct {
	Language string `json:"language"`
}

type wsError struct {
	Error string `json:"error"`
}

// Subscribe upgrades to a WebSocket that receives a render on every state
// change of the view. Clients may send {"language": "xx"} to switch language.
func (h *Handler) Subscribe(c *gin.Context) {
	viewID := c.Param("viewID")
	renders, unsubscribe, err := h.sessions.Subscribe(viewID)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer unsubscribe()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("websocket upgrade failed", "view", viewID, "error", err)
		}
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	errs := make(chan string, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var cmd wsCommand
			if err := conn.ReadJSON(&cmd); err != nil {
				return
			}
			if strings.TrimSpace(cmd.Language) == "" {
				continue
			}
			if _, err := h.sessions.SelectLanguage(ctx, viewID, cmd.Language); err != nil {
				select {
				case errs <- err.Error():
				default:
				}
			}
		}
	}()

	for {
		select {
		case render, ok := <-renders:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "view closed"),
					time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(render); err != nil {
				return
			}
		case msg := <-errs:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(wsError{Error: msg}); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
