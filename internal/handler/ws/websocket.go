package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/collectwise/backend/internal/model/chat"
	"github.com/zhouzirui/collectwise/backend/internal/model/negotiation"
	chatservice "github.com/zhouzirui/collectwise/backend/internal/service/chat"
	"github.com/zhouzirui/collectwise/backend/internal/validation"
	"github.com/zhouzirui/collectwise/backend/pkg/utils"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// Handler WebSocket谈判通道
type Handler struct {
	chatSvc   *chatservice.Service
	validator *validation.Validator
	upgrader  websocket.Upgrader
}

// New 创建WebSocket处理器；allowOrigin 为空时接受任意来源
func New(chatSvc *chatservice.Service, validator *validation.Validator, allowOrigin func(origin string) bool) *Handler {
	return &Handler{
		chatSvc:   chatSvc,
		validator: validator,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowOrigin == nil {
					return true
				}
				origin := r.Header.Get("Origin")
				return origin == "" || allowOrigin(origin)
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// TextMessage 文本消息
type TextMessage struct {
	Text string `json:"text"`
}

// OutgoingMessage is every frame the server writes.
type OutgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// StatePayload accompanies "state" frames.
type StatePayload struct {
	State       negotiation.State `json:"state"`
	Ended       bool              `json:"ended"`
	PaymentLink string            `json:"paymentLink,omitempty"`
}

// conn serialises writes; gorilla connections allow one concurrent writer.
type conn struct {
	ws        *websocket.Conn
	sessionID string
	mu        sync.Mutex
}

func (c *conn) send(msgType string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(OutgoingMessage{
		Type:      msgType,
		SessionID: c.sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

func (c *conn) sendError(message string) {
	if err := c.send("error", map[string]string{"message": message}); err != nil {
		log.Printf("[websocket] write error failed: %v", err)
	}
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	_, state, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, chatservice.ErrSessionNotFound) {
			utils.RespondError(w, r, http.StatusNotFound, "session not found")
			return
		}
		utils.RespondError(w, r, http.StatusInternalServerError, "failed to load session")
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	log.Printf("[websocket] new connection for session: %s", sessionID)
	c := &conn{ws: ws, sessionID: sessionID}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go pingLoop(ctx, c)

	if err := c.send("connected", StatePayload{
		State:       state,
		Ended:       state.ConversationEnded,
		PaymentLink: h.chatSvc.PaymentLink(state),
	}); err != nil {
		return
	}

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(readTimeout))

		var msg inboundMessage
		if err := h.validator.Decode(validation.SocketFrame, raw, &msg); err != nil {
			c.sendError(err.Error())
			continue
		}
		h.handleMessage(ctx, c, msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *conn, msg inboundMessage) {
	switch msg.Type {
	case "text":
		var text TextMessage
		if err := json.Unmarshal(msg.Data, &text); err != nil {
			c.sendError("invalid text payload")
			return
		}
		h.handleText(ctx, c, text.Text)
	case "ping":
		if err := c.send("pong", nil); err != nil {
			log.Printf("[websocket] write pong failed: %v", err)
		}
	default:
		c.sendError("unsupported message type: " + msg.Type)
	}
}

// handleText 推进谈判：每条系统回复一帧 reply，最后一帧 state
func (h *Handler) handleText(ctx context.Context, c *conn, text string) {
	result, err := h.chatSvc.SubmitMessage(ctx, c.sessionID, text)
	if err != nil {
		switch {
		case errors.Is(err, chatservice.ErrMessageRequired):
			c.sendError("message is required")
		case errors.Is(err, context.Canceled):
			return
		default:
			log.Printf("[websocket] session=%s turn failed: %v", c.sessionID, err)
			c.sendError("negotiation failed")
		}
		return
	}

	for _, reply := range chat.FromTurns(result.Replies) {
		if err := c.send("reply", reply); err != nil {
			log.Printf("[websocket] write reply failed: %v", err)
			return
		}
	}
	if err := c.send("state", StatePayload{
		State:       result.State,
		Ended:       result.State.ConversationEnded,
		PaymentLink: result.PaymentLink,
	}); err != nil {
		log.Printf("[websocket] write state failed: %v", err)
	}
}

// pingLoop 定期发送ping消息
func pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
