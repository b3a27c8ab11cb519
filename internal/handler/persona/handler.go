package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/collectwise/backend/internal/model/negotiation"
	"github.com/zhouzirui/collectwise/backend/internal/model/persona"
	"github.com/zhouzirui/collectwise/backend/pkg/utils"
)

// Handler 用户画像目录的只读接口
type Handler struct {
	personas persona.Store
}

// New 创建persona处理器
func New(personas persona.Store) *Handler {
	return &Handler{
		personas: personas,
	}
}

// RegisterRoutes 注册persona相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/personas", h.handleListPersonas)
	r.Get("/personas/{intent}", h.handleGetPersona)
}

// handleListPersonas 列出全部意图画像
func (h *Handler) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas.List())
}

func (h *Handler) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	intent, ok := negotiation.ParseIntent(chi.URLParam(r, "intent"))
	if !ok {
		utils.RespondError(w, r, http.StatusNotFound, "persona not found")
		return
	}
	p, ok := h.personas.FindByID(intent)
	if !ok {
		utils.RespondError(w, r, http.StatusNotFound, "persona not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}
