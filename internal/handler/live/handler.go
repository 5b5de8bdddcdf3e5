package live

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/scam-shield/backend/internal/analysis/redflag"
	"github.com/zhouzirui/scam-shield/backend/internal/fault"
	"github.com/zhouzirui/scam-shield/backend/internal/handler/stream"
	chatservice "github.com/zhouzirui/scam-shield/backend/internal/service/chat"
	"github.com/zhouzirui/scam-shield/backend/internal/service/conversation"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Handler WebSocket实时聊天处理器。每个连接对应一个独立会话，断开即丢弃。
type Handler struct {
	chatSvc  *chatservice.Service
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

// New 创建WebSocket处理器
func New(chatSvc *chatservice.Service, logger zerolog.Logger) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/live", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// TextMessage 文本消息
type TextMessage struct {
	Text   string `json:"text"`
	Format string `json:"format,omitempty"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// connection serialises writes; the read loop and the submitting goroutine
// both write.
type connection struct {
	conn      *websocket.Conn
	sessionID string
	logger    zerolog.Logger

	mu sync.Mutex
	wg sync.WaitGroup
}

func (c *connection) send(kind string, data interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	msg := outgoingMessage{Type: kind, SessionID: c.sessionID, Data: data, Timestamp: time.Now().Unix()}
	if err := c.conn.WriteJSON(msg); err != nil {
		c.logger.Debug().Err(err).Str("type", kind).Msg("websocket write failed")
	}
}

func (c *connection) sendError(message string) {
	c.send("error", map[string]string{"message": message})
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	session, err := h.chatSvc.CreateSession(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("create live session failed")
		return
	}
	c := &connection{
		conn:      conn,
		sessionID: session.ID,
		logger:    h.logger.With().Str("session_id", session.ID).Logger(),
	}
	defer func() {
		// let an in-flight reply finish before the session is dropped
		c.wg.Wait()
		if err := h.chatSvc.CloseSession(context.Background(), session.ID); err != nil {
			c.logger.Debug().Err(err).Msg("close live session")
		}
		c.logger.Info().Msg("live session closed")
	}()

	c.logger.Info().Msg("live session opened")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go h.pingLoop(ctx, c)

	c.send("connected", session)

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("websocket read error")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		h.handleMessage(ctx, c, &msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *connection, msg *inboundMessage) {
	switch msg.Type {
	case "text":
		h.handleTextMessage(ctx, c, msg.Data)
	case "snapshot":
		session, err := h.chatSvc.GetSession(ctx, c.sessionID)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.send("snapshot", session)
	default:
		c.sendError("unsupported message type: " + msg.Type)
	}
}

func (h *Handler) handleTextMessage(ctx context.Context, c *connection, raw json.RawMessage) {
	var text TextMessage
	if err := json.Unmarshal(raw, &text); err != nil {
		c.sendError("invalid text payload")
		return
	}

	report := redflag.Analyze(text.Text)
	html := text.Format == "html"

	// accepted reports whether the controller took the text. The reply keeps
	// streaming after the read loop resumes.
	accepted := make(chan error, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		signalled := false
		err := h.chatSvc.Submit(context.WithoutCancel(ctx), c.sessionID, text.Text, conversation.WithEventHandler(func(e conversation.Event) {
			name, data := stream.Frame(e, html)
			c.send(name, data)
			if _, ok := e.(conversation.EventUserMessage); ok {
				if report.Warning != "" {
					c.send(stream.EventWarning, report)
				}
				signalled = true
				accepted <- nil
			}
		}))
		if !signalled {
			accepted <- err
			return
		}
		if err != nil {
			c.logger.Warn().Err(err).Msg("live chat turn failed")
		}
		if session, getErr := h.chatSvc.GetSession(context.Background(), c.sessionID); getErr == nil {
			c.send(stream.EventEnd, stream.EndPayload{State: session.State})
		}
	}()

	if err := <-accepted; err != nil {
		reason := err.Error()
		switch {
		case errors.Is(err, fault.ErrEmptyMessage):
			reason = "empty"
		case errors.Is(err, fault.ErrBusy):
			reason = "busy"
		}
		c.send("rejected", map[string]string{"reason": reason})
	}
}

// pingLoop 定期发送ping消息
func (h *Handler) pingLoop(ctx context.Context, c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
