package api

import (
	"context"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// BacktestWS runs one backtest per connection: the client sends the file
// bytes as a single message and receives JSON progress messages followed by
// the complete or error message. Closing the socket cancels the run.
func (h *Handler) BacktestWS(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, h.acceptOptions())
	if err != nil {
		h.log.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected shutdown")

	conn.SetReadLimit(h.maxUpload)
	_, payload, err := conn.Read(c.Request.Context())
	if err != nil {
		h.log.Info("websocket closed before upload", zap.Error(err))
		return
	}

	// CloseRead cancels ctx as soon as the peer goes away.
	ctx, cancel := context.WithCancel(conn.CloseRead(c.Request.Context()))
	defer cancel()

	for msg := range h.runner.Stream(ctx, payload) {
		if err := wsjson.Write(ctx, conn, msg); err != nil {
			h.log.Info("websocket write failed", zap.Error(err))
			return
		}
	}
	if ctx.Err() != nil {
		h.log.Info("websocket client disconnected, run cancelled")
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

func (h *Handler) acceptOptions() *websocket.AcceptOptions {
	var patterns []string
	for _, o := range h.origins {
		if o == "*" {
			return &websocket.AcceptOptions{InsecureSkipVerify: true}
		}
		if strings.Contains(o, "://") {
			if u, err := url.Parse(o); err == nil {
				o = u.Host
			}
		}
		patterns = append(patterns, o)
	}
	if len(patterns) == 0 {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	return &websocket.AcceptOptions{OriginPatterns: patterns}
}
