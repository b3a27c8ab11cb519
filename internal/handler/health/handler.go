package health

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/collectwise/backend/pkg/utils"
)

// Handler 健康检查与服务说明
type Handler struct {
	name string
	now  func() time.Time
}

// New 创建健康检查处理器
func New(name string) *Handler {
	return &Handler{name: name, now: time.Now}
}

// RegisterRoutes mounts /health under the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// Banner answers the root path with the service name.
func (h *Handler) Banner(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"service": h.name,
		"status":  "running",
	})
}
