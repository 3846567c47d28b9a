package api

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/repcoach/internal/domain/model"
	"github.com/okian/repcoach/pkg/logger"
	"github.com/okian/repcoach/pkg/metrics"
)

// Stream message types.
const (
	MessageFrame    = "frame"
	MessageStop     = "stop"
	MessageSnapshot = "snapshot"
	MessageReport   = "report"
	MessageError    = "error"
)

const defaultStreamReadTimeout = time.Minute

// StreamRequest is one client message on a session stream.
type StreamRequest struct {
	Type  string      `json:"type"`
	Frame model.Frame `json:"frame"`
	At    time.Time   `json:"at"`
}

// StreamMessage is one server message on a session stream.
type StreamMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// StreamHandler feeds frames received over a WebSocket to a session and
// answers each with the resulting snapshot.
type StreamHandler struct {
	deps        Dependencies
	upgrader    websocket.Upgrader
	readTimeout time.Duration
	logger      logger.Logger
}

// StreamOption applies a configuration option to the StreamHandler.
type StreamOption func(*StreamHandler)

// WithCheckOrigin sets the origin policy for upgrades.
func WithCheckOrigin(fn func(r *http.Request) bool) StreamOption {
	return func(h *StreamHandler) {
		if fn != nil {
			h.upgrader.CheckOrigin = fn
		}
	}
}

// AllowOrigins returns an origin policy admitting the listed origins, or
// any origin when the list holds "*". Requests without an Origin header
// come from non-browser clients and are always admitted. An empty list
// returns nil, which keeps the same-host default.
func AllowOrigins(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 {
		return nil
	}
	if slices.Contains(origins, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return slices.ContainsFunc(origins, func(o string) bool {
			return strings.EqualFold(o, origin)
		})
	}
}

// WithStreamReadTimeout closes streams idle for longer than d.
func WithStreamReadTimeout(d time.Duration) StreamOption {
	return func(h *StreamHandler) {
		if d > 0 {
			h.readTimeout = d
		}
	}
}

// WithStreamLogger sets a custom logger.
func WithStreamLogger(l logger.Logger) StreamOption {
	return func(h *StreamHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(deps Dependencies, opts ...StreamOption) *StreamHandler {
	h := &StreamHandler{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		readTimeout: defaultStreamReadTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = logger.Or(h.logger)
	return h
}

// HandleStream handles GET /sessions/{id}/stream.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx := r.Context()
	if !websocket.IsWebSocketUpgrade(r) {
		writeError(w, http.StatusUpgradeRequired, "upgrade_required", ErrUpgradeRequired)
		return
	}
	if _, err := h.deps.Snapshot(ctx, id); err != nil {
		writeServiceError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn(ctx, "websocket upgrade failed", logger.String("session", id), logger.Error(err))
		return
	}
	metrics.AddStreamClients(1)
	defer func() {
		metrics.AddStreamClients(-1)
		_ = conn.Close()
	}()
	h.logger.Info(ctx, "stream client connected",
		logger.String("session", id), logger.String("remote_addr", conn.RemoteAddr().String()))

	h.serve(ctx, conn, id)
}

func (h *StreamHandler) serve(ctx context.Context, conn *websocket.Conn, id string) {
	for {
		_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))
		var req StreamRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug(ctx, "stream closed", logger.String("session", id), logger.Error(err))
			}
			return
		}

		switch req.Type {
		case MessageStop:
			report, err := h.deps.StopSession(ctx, id)
			if err != nil {
				h.reply(ctx, conn, errorMessage(err))
				return
			}
			h.reply(ctx, conn, StreamMessage{Type: MessageReport, Data: report})
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session stopped"))
			return
		case MessageFrame, "":
			snap, err := h.deps.ProcessFrame(ctx, id, req.Frame, req.At)
			if err != nil {
				if !h.reply(ctx, conn, errorMessage(err)) {
					return
				}
				status, _ := statusFor(err)
				if status == http.StatusNotFound || status == http.StatusConflict {
					return
				}
				continue
			}
			if !h.reply(ctx, conn, StreamMessage{Type: MessageSnapshot, Data: snap}) {
				return
			}
		default:
			if !h.reply(ctx, conn, errorMessage(wrapKind("api.stream", ErrBadRequest, nil))) {
				return
			}
		}
	}
}

func (h *StreamHandler) reply(ctx context.Context, conn *websocket.Conn, msg StreamMessage) bool {
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Debug(ctx, "stream write failed", logger.Error(err))
		return false
	}
	return true
}

func errorMessage(err error) StreamMessage {
	_, code := statusFor(err)
	return StreamMessage{Type: MessageError, Data: errorResponse{Code: code, Message: err.Error()}}
}
