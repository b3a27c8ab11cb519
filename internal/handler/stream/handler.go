package stream

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/collectwise/backend/internal/model/chat"
	"github.com/zhouzirui/collectwise/backend/internal/model/negotiation"
	chatService "github.com/zhouzirui/collectwise/backend/internal/service/chat"
	"github.com/zhouzirui/collectwise/backend/pkg/utils"
)

// Handler pushes negotiation replies via Server-Sent Events
type Handler struct {
	chatSvc *chatService.Service
}

// New creates a new stream handler
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册流式接口
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event       string             `json:"event"`
	SessionID   string             `json:"sessionId,omitempty"`
	Content     string             `json:"content,omitempty"`
	Role        string             `json:"role,omitempty"`
	State       *negotiation.State `json:"state,omitempty"`
	PaymentLink string             `json:"paymentLink,omitempty"`
	Finished    bool               `json:"finished,omitempty"`
	Error       string             `json:"error,omitempty"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	userMessage := strings.TrimSpace(r.URL.Query().Get("message"))

	if userMessage == "" {
		utils.RespondError(w, r, http.StatusBadRequest, "message query parameter is required")
		return
	}
	if _, _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
		if errors.Is(err, chatService.ErrSessionNotFound) {
			utils.RespondError(w, r, http.StatusNotFound, "session not found")
			return
		}
		utils.RespondError(w, r, http.StatusInternalServerError, "failed to load session")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	if err := h.HandleStreamRequest(r.Context(), w, flusher, sessionID, userMessage); err != nil {
		log.Printf("[stream] session=%s failed: %v", sessionID, err)
	}
}

// HandleStreamRequest advances the session and streams start, one message per reply, state and end.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID, userMessage string) error {
	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	if err := h.send(w, flusher, StreamResponse{Event: "start", SessionID: sessionID}); err != nil {
		return err
	}

	result, err := h.chatSvc.SubmitMessage(ctx, sessionID, userMessage)
	if err != nil {
		_ = h.send(w, flusher, StreamResponse{Event: "error", SessionID: sessionID, Error: errorText(err)})
		return err
	}

	for _, reply := range chat.FromTurns(result.Replies) {
		if err := h.send(w, flusher, StreamResponse{
			Event:     "message",
			SessionID: sessionID,
			Role:      reply.Role,
			Content:   reply.Content,
		}); err != nil {
			return err
		}
	}

	state := result.State
	if err := h.send(w, flusher, StreamResponse{
		Event:       "state",
		SessionID:   sessionID,
		State:       &state,
		PaymentLink: result.PaymentLink,
		Finished:    state.ConversationEnded,
	}); err != nil {
		return err
	}

	log.Printf("[stream] completed turn for session=%s replies=%d ended=%v", sessionID, len(result.Replies), state.ConversationEnded)
	return h.send(w, flusher, StreamResponse{Event: "end", SessionID: sessionID, Finished: true})
}

func (h *Handler) send(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) error {
	return utils.SendSSEEvent(w, flusher, response.Event, response)
}

func errorText(err error) string {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		return "session not found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "request cancelled"
	default:
		return "negotiation failed"
	}
}
