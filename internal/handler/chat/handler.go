package chat

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/collectwise/backend/internal/model/chat"
	"github.com/zhouzirui/collectwise/backend/internal/model/negotiation"
	engine "github.com/zhouzirui/collectwise/backend/internal/negotiation"
	chatService "github.com/zhouzirui/collectwise/backend/internal/service/chat"
	"github.com/zhouzirui/collectwise/backend/internal/validation"
	"github.com/zhouzirui/collectwise/backend/pkg/utils"
)

// Handler 会话与谈判接口的HTTP处理器
type Handler struct {
	chatSvc   *chatService.Service
	engine    *engine.Engine
	validator *validation.Validator
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, e *engine.Engine, validator *validation.Validator) *Handler {
	return &Handler{
		chatSvc:   chatSvc,
		engine:    e,
		validator: validator,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Delete("/", h.handleResetSession)
		r.Post("/messages", h.handleSubmitMessage)
	})
	r.Post("/negotiate", h.handleNegotiate)
}

// SessionResponse describes a session and its negotiation state.
type SessionResponse struct {
	Session     chat.Session      `json:"session"`
	State       negotiation.State `json:"state"`
	Messages    []chat.Message    `json:"messages"`
	PaymentLink string            `json:"paymentLink,omitempty"`
}

// TurnResponse is returned after the engine advanced a conversation.
type TurnResponse struct {
	SessionID   string            `json:"sessionId,omitempty"`
	State       negotiation.State `json:"state"`
	Replies     []chat.Message    `json:"replies"`
	Ended       bool              `json:"ended"`
	PaymentLink string            `json:"paymentLink,omitempty"`
}

// handleCreateSession 创建会话，返回带开场白的初始状态
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, state, err := h.chatSvc.CreateSession(r.Context())
	if err != nil {
		utils.RespondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, SessionResponse{
		Session:  session,
		State:    state,
		Messages: chat.FromTurns(state.Turns),
	})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, state, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, SessionResponse{
		Session:     session,
		State:       state,
		Messages:    chat.FromTurns(state.Turns),
		PaymentLink: h.chatSvc.PaymentLink(state),
	})
}

// handleResetSession 将会话恢复为初始状态
func (h *Handler) handleResetSession(w http.ResponseWriter, r *http.Request) {
	state, err := h.chatSvc.Reset(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, TurnResponse{
		SessionID: chi.URLParam(r, "sessionID"),
		State:     state,
		Replies:   chat.FromTurns(state.Turns),
	})
}

// handleSubmitMessage 提交用户消息并推进谈判
func (h *Handler) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message string `json:"message"`
	}
	if !h.decode(w, r, validation.MessageRequest, &payload) {
		return
	}

	result, err := h.chatSvc.SubmitMessage(r.Context(), chi.URLParam(r, "sessionID"), payload.Message)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, TurnResponse{
		SessionID:   result.Session.ID,
		State:       result.State,
		Replies:     chat.FromTurns(result.Replies),
		Ended:       result.State.ConversationEnded,
		PaymentLink: result.PaymentLink,
	})
}

// handleNegotiate 无状态接口：请求体即谈判状态，返回推进后的状态
func (h *Handler) handleNegotiate(w http.ResponseWriter, r *http.Request) {
	var state negotiation.State
	if !h.decode(w, r, validation.NegotiateRequest, &state) {
		return
	}

	in := state.Normalize()
	next, err := h.engine.Advance(r.Context(), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	var replies []negotiation.Turn
	if len(next.Turns) > len(in.Turns) {
		replies = next.Turns[len(in.Turns):]
	}

	link := ""
	if next.FinalAgreement != nil {
		link = h.engine.PaymentLink(next.FinalAgreement.Label)
	}

	utils.RespondJSON(w, http.StatusOK, TurnResponse{
		State:       next,
		Replies:     chat.FromTurns(replies),
		Ended:       next.ConversationEnded,
		PaymentLink: link,
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, schema validation.Schema, dst any) bool {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, utils.DecodeLimit))
	if err != nil {
		utils.RespondError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	if err := h.validator.Decode(schema, raw, dst); err != nil {
		utils.RespondError(w, r, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// respondServiceError 将服务层错误映射为HTTP状态码
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		utils.RespondError(w, r, http.StatusNotFound, "session not found")
	case errors.Is(err, chatService.ErrMessageRequired):
		utils.RespondError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Printf("[chat] request abandoned: %v", err)
		utils.RespondError(w, r, http.StatusServiceUnavailable, "request cancelled")
	default:
		log.Printf("[chat] request failed: %v", err)
		utils.RespondError(w, r, http.StatusInternalServerError, "internal error")
	}
}
