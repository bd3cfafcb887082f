package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"screener/analytics"
	"screener/backtest"
	"screener/model"
	"screener/signalfile"
)

// Backtester is the runner the handlers drive.
type Backtester interface {
	Run(ctx context.Context, payload []byte) (*model.Report, error)
	Stream(ctx context.Context, payload []byte) <-chan backtest.Message
}

var uploadExts = map[string]bool{".csv": true, ".xls": true, ".xlsx": true}

// Handler serves the backtest and view endpoints.
type Handler struct {
	runner       Backtester
	viewDefaults analytics.ViewParams
	maxUpload    int64
	origins      []string
	log          *zap.Logger
}

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	ViewDefaults analytics.ViewParams
	MaxUploadMB  int
	Origins      []string // websocket origin patterns; empty or "*" accepts any
}

// NewHandler creates a handler around runner.
func NewHandler(runner Backtester, opts HandlerOptions, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	mb := opts.MaxUploadMB
	if mb <= 0 {
		mb = 10
	}
	return &Handler{
		runner:       runner,
		viewDefaults: opts.ViewDefaults,
		maxUpload:    int64(mb) << 20,
		origins:      opts.Origins,
		log:          log,
	}
}

// RunBacktest handles a blocking multipart upload.
func (h *Handler) RunBacktest(c *gin.Context) {
	payload, ok := h.readUpload(c)
	if !ok {
		return
	}

	rep, err := h.runner.Run(c.Request.Context(), payload)
	if err != nil {
		if c.Request.Context().Err() != nil {
			h.log.Info("client went away during backtest")
			return
		}
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rep)
}

// StreamBacktest answers an upload with a Server-Sent Events stream of
// progress messages followed by the terminal message.
func (h *Handler) StreamBacktest(c *gin.Context) {
	payload, ok := h.readUpload(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	msgs := h.runner.Stream(ctx, payload)

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		msg, ok := <-msgs
		if !ok {
			return false
		}
		c.SSEvent(string(msg.Type), msg)
		return true
	})
	if ctx.Err() != nil {
		h.log.Info("sse client disconnected")
	}
}

type viewRequest struct {
	Report *model.Report   `json:"report"`
	Params json.RawMessage `json:"params"`
}

// ReportView recomputes the dashboard view of a report for the given params.
// Params absent from the request keep the server defaults.
func (h *Handler) ReportView(c *gin.Context) {
	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Report == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "report is required"})
		return
	}

	params := h.viewDefaults
	if len(req.Params) > 0 && string(req.Params) != "null" {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid params: " + err.Error()})
			return
		}
	}

	view, err := analytics.BuildView(req.Report, params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) readUpload(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
		return nil, false
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !uploadExts[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type, upload .csv, .xls or .xlsx"})
		return nil, false
	}

	payload, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read upload: " + err.Error()})
		return nil, false
	}
	return payload, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, signalfile.ErrParse):
		return http.StatusBadRequest
	case errors.Is(err, backtest.ErrSourceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
