package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/scam-shield/backend/internal/handler/analyze"
	"github.com/zhouzirui/scam-shield/backend/internal/handler/chat"
	"github.com/zhouzirui/scam-shield/backend/internal/handler/knowledge"
	"github.com/zhouzirui/scam-shield/backend/internal/handler/live"
	"github.com/zhouzirui/scam-shield/backend/internal/handler/stream"
	"github.com/zhouzirui/scam-shield/backend/internal/handler/system"
	mw "github.com/zhouzirui/scam-shield/backend/internal/middleware"
	"github.com/zhouzirui/scam-shield/backend/internal/model/fraud"
	chatService "github.com/zhouzirui/scam-shield/backend/internal/service/chat"
	"github.com/zhouzirui/scam-shield/backend/internal/service/imagerisk"
	"github.com/zhouzirui/scam-shield/backend/pkg/utils"
)

// jsonBodyLimit caps chat and other small JSON requests.
const jsonBodyLimit = 64 * 1024

// Dependencies groups what the router wires into handlers. Chat and Analyzer
// are nil when no model provider is configured; their routes then answer 503.
type Dependencies struct {
	Logger      zerolog.Logger
	Knowledge   fraud.Store
	Chat        *chatService.Service
	Analyzer    *imagerisk.Service
	Info        system.Info
	CORSOrigins []string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.Metrics)
	r.Use(mw.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.CORS(deps.CORSOrigins))

	var sessions system.SessionCounter
	if deps.Chat != nil {
		sessions = deps.Chat
	}
	systemHandler := system.New(deps.Info, sessions)

	r.Handle("/metrics", promhttp.Handler())
	systemHandler.RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		api.Get("/", systemHandler.Root)

		api.Group(func(small chi.Router) {
			small.Use(mw.MaxBodySize(jsonBodyLimit))
			knowledge.New(deps.Knowledge).RegisterRoutes(small)

			if deps.Chat != nil {
				chat.New(deps.Chat).RegisterRoutes(small)
				stream.New(deps.Chat, deps.Logger).RegisterRoutes(small)
				live.New(deps.Chat, deps.Logger).RegisterRoutes(small)
			} else {
				small.HandleFunc("/chat/*", unavailable)
			}
		})

		// the analyzer enforces its own, larger body limit
		if deps.Analyzer != nil {
			analyze.New(deps.Analyzer, deps.Logger).RegisterRoutes(api)
		} else {
			api.Post("/analyze", unavailable)
		}
	})

	return r
}

func unavailable(w http.ResponseWriter, r *http.Request) {
	utils.RespondError(w, http.StatusServiceUnavailable, "ai provider is not configured")
}
