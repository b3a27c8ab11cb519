package history

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/collectwise/backend/internal/model/chat"
	chatService "github.com/zhouzirui/collectwise/backend/internal/service/chat"
	"github.com/zhouzirui/collectwise/backend/internal/validation"
	"github.com/zhouzirui/collectwise/backend/pkg/utils"
)

// Handler 对话记录的读取、覆盖与删除
type Handler struct {
	chatSvc   *chatService.Service
	validator *validation.Validator
}

// New 创建历史记录处理器
func New(chatSvc *chatService.Service, validator *validation.Validator) *Handler {
	return &Handler{chatSvc: chatSvc, validator: validator}
}

// RegisterRoutes 注册历史记录相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/history/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Post("/", h.handleSave)
		r.Delete("/", h.handleDelete)
	})
}

// Transcript is the persisted message list of a session.
type Transcript struct {
	Messages []chat.Message `json:"messages"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	_, state, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if errors.Is(err, chatService.ErrSessionNotFound) {
		utils.RespondJSON(w, http.StatusOK, Transcript{Messages: []chat.Message{}})
		return
	}
	if err != nil {
		log.Printf("[history] load failed: %v", err)
		utils.RespondError(w, r, http.StatusInternalServerError, "failed to load history")
		return
	}

	utils.RespondJSON(w, http.StatusOK, Transcript{Messages: chat.FromTurns(state.Turns)})
}

// handleSave 覆盖会话的对话记录；谈判标签随之清空，已成交的会话返回 409
func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, utils.DecodeLimit))
	if err != nil {
		utils.RespondError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	var payload Transcript
	if err := h.validator.Decode(validation.TranscriptRequest, raw, &payload); err != nil {
		utils.RespondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	_, err = h.chatSvc.ReplaceTranscript(r.Context(), chi.URLParam(r, "sessionID"), chat.ToTurns(payload.Messages))
	if errors.Is(err, chatService.ErrAgreementLocked) {
		utils.RespondError(w, r, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		log.Printf("[history] save failed: %v", err)
		utils.RespondError(w, r, http.StatusInternalServerError, "failed to save history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.chatSvc.Forget(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil && !errors.Is(err, chatService.ErrSessionNotFound) {
		log.Printf("[history] delete failed: %v", err)
		utils.RespondError(w, r, http.StatusInternalServerError, "failed to delete history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
