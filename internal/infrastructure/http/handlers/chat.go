package handlers

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alchemorsel/fridgechef/internal/domain/chat"
	"github.com/alchemorsel/fridgechef/internal/infrastructure/config"
	"github.com/alchemorsel/fridgechef/internal/ports/inbound"
	"github.com/alchemorsel/fridgechef/internal/ports/outbound"
	"github.com/alchemorsel/fridgechef/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// chatBodySlack leaves room for the JSON around a base64 image
	chatBodySlack = 64 << 10
	// socketIdleTimeout closes a socket that sends no turn for this long
	socketIdleTimeout = 5 * time.Minute
	socketWriteWait   = 10 * time.Second
)

// ChatHandlers relays chat turns to the suggestion backend, either as a raw
// NDJSON stream or as reduced views over a websocket
type ChatHandlers struct {
	responder
	chatService inbound.ChatService
	maxBody     int64
	upgrader    websocket.Upgrader
}

// NewChatHandlers creates a new chat handlers instance
func NewChatHandlers(chatService inbound.ChatService, cfg *config.Config, logger *zap.Logger) *ChatHandlers {
	h := &ChatHandlers{
		responder:   newResponder(logger.Named("chat-handlers")),
		chatService: chatService,
		maxBody:     int64(cfg.Chat.MaxImageBytes)*4/3 + chatBodySlack,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(cfg.Server.AllowedOrigins),
	}
	return h
}

// Routes mounts the chat endpoints under an authenticated router
func (h *ChatHandlers) Routes(r chi.Router) {
	r.Post("/", h.Relay)
	r.Get("/ws", h.Socket)
}

// Relay handles POST /api/v1/chat. Upstream failures are answered as JSON
// errors; once streaming starts the status is 200 and the body is the
// backend's NDJSON unchanged.
func (h *ChatHandlers) Relay(w http.ResponseWriter, r *http.Request) {
	var req outbound.ChatRequest
	if appErr := h.decode(w, r, &req, h.maxBody); appErr != nil {
		h.writeError(w, r, appErr)
		return
	}

	body, err := h.chatService.Open(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fw := newFlushWriter(w)
	// the upstream client timeout bounds the stream instead of the server's
	// write timeout
	_ = fw.rc.SetWriteDeadline(time.Time{})
	fw.flush()

	if _, err := h.chatService.Relay(r.Context(), body, fw); err != nil {
		h.logger.Debug("Chat relay stopped early", zap.Error(err))
	}
}

// flushWriter pushes every completed line to the client as soon as it is
// written
type flushWriter struct {
	w  io.Writer
	rc *http.ResponseController
}

func newFlushWriter(w http.ResponseWriter) *flushWriter {
	return &flushWriter{w: w, rc: http.NewResponseController(w)}
}

func (f *flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if err == nil && bytes.IndexByte(p[:n], '\n') >= 0 {
		f.flush()
	}
	return n, err
}

func (f *flushWriter) flush() {
	_ = f.rc.Flush()
}

// Socket handles GET /api/v1/chat/ws. Each message from the client starts a
// fresh turn; the server answers with a view per applied event and closes
// the turn with a done view.
func (h *ChatHandlers) Socket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(h.maxBody)
	ctx := r.Context()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(socketIdleTimeout))

		var req outbound.ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Info("Chat socket closed", zap.Error(err))
			}
			return
		}

		if err := h.runTurn(ctx, conn, req); err != nil {
			h.logger.Debug("Chat socket write failed", zap.Error(err))
			return
		}
	}
}

// runTurn streams one turn over conn. Only write failures are returned;
// turn failures are reported to the client.
func (h *ChatHandlers) runTurn(ctx context.Context, conn *websocket.Conn, req outbound.ChatRequest) error {
	var writeErr error
	send := func(v interface{}) error {
		_ = conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
		if err := conn.WriteJSON(v); err != nil {
			writeErr = err
			return err
		}
		return nil
	}

	state, err := h.chatService.Run(ctx, req, func(view chat.TurnView) error {
		return send(view)
	})
	if writeErr != nil {
		return writeErr
	}
	if err != nil {
		return send(socketError(err))
	}

	final := state.View()
	final.Done = true
	return send(final)
}

// socketError ends a failed turn with a done view carrying only the error
func socketError(err error) chat.TurnView {
	message := "Internal server error"
	if appErr, ok := errors.As(err); ok {
		message = appErr.PublicMessage()
	} else if stderrors.Is(err, context.Canceled) {
		message = "Request cancelled"
	}
	return chat.TurnView{Done: true, Steps: []chat.StepView{}, Error: message}
}

// originChecker accepts same-host requests, requests without an Origin
// header and the configured browser origins
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}
