package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/collectwise/backend/internal/handler/chat"
	"github.com/zhouzirui/collectwise/backend/internal/handler/health"
	"github.com/zhouzirui/collectwise/backend/internal/handler/history"
	"github.com/zhouzirui/collectwise/backend/internal/handler/persona"
	"github.com/zhouzirui/collectwise/backend/internal/handler/stream"
	"github.com/zhouzirui/collectwise/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/collectwise/backend/internal/middleware"
	personaModel "github.com/zhouzirui/collectwise/backend/internal/model/persona"
	"github.com/zhouzirui/collectwise/backend/internal/negotiation"
	chatService "github.com/zhouzirui/collectwise/backend/internal/service/chat"
	"github.com/zhouzirui/collectwise/backend/internal/validation"
	"github.com/zhouzirui/collectwise/backend/pkg/utils"
)

// Dependencies are the services the HTTP surface is wired to.
type Dependencies struct {
	Personas       personaModel.Store
	Chat           *chatService.Service
	Engine         *negotiation.Engine
	Validator      *validation.Validator
	AllowedOrigins []string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	if deps.Validator == nil {
		deps.Validator = validation.MustNew()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))

	healthHandler := health.New("CollectWise negotiation API")
	r.Get("/", healthHandler.Banner)

	r.Route("/api", func(api chi.Router) {
		healthHandler.RegisterRoutes(api)
		persona.New(deps.Personas).RegisterRoutes(api)
		chat.New(deps.Chat, deps.Engine, deps.Validator).RegisterRoutes(api)
		history.New(deps.Chat, deps.Validator).RegisterRoutes(api)
		stream.New(deps.Chat).RegisterRoutes(api)
		ws.New(deps.Chat, deps.Validator, originChecker(deps.AllowedOrigins)).RegisterRoutes(api)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondError(w, r, http.StatusNotFound, "route not found")
	})

	return r
}

// originChecker returns nil (allow all) when the wildcard is configured.
func originChecker(origins []string) func(string) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return nil
		}
		allowed[o] = true
	}
	return func(origin string) bool { return allowed[origin] }
}
