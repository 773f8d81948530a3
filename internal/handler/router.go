package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/komekarch/site/backend/internal/analysis/topic"
	"github.com/komekarch/site/backend/internal/handler/assistant"
	"github.com/komekarch/site/backend/internal/handler/course"
	"github.com/komekarch/site/backend/internal/handler/stream"
	"github.com/komekarch/site/backend/internal/logger"
	middlewarePkg "github.com/komekarch/site/backend/internal/middleware"
	courseModel "github.com/komekarch/site/backend/internal/model/course"
	chatService "github.com/komekarch/site/backend/internal/service/chat"
	"github.com/komekarch/site/backend/pkg/utils"
)

// Dependencies are the services the router exposes. Tutor, Archive and
// Limiter are optional.
type Dependencies struct {
	Courses       courseModel.Store
	Chat          *chatService.Service
	Engine        *topic.Engine
	Tutor         stream.Streamer
	Archive       assistant.TranscriptReader
	Limiter       *middlewarePkg.RateLimiter
	AllowedOrigin string
}

// NewRouter 将 HTTP 路由绑定到核心服务。
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger.For("http")))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigin))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": deps.Chat.Count(),
		})
	})

	var opts []assistant.Option
	if deps.Archive != nil {
		opts = append(opts, assistant.WithTranscript(deps.Archive))
	}
	if deps.Limiter != nil {
		opts = append(opts, assistant.WithRateLimiter(deps.Limiter))
	}

	courseHandler := course.New(deps.Courses)
	assistantHandler := assistant.New(deps.Chat, deps.Engine, opts...)
	streamHandler := stream.New(deps.Tutor, deps.Engine, deps.Chat)

	r.Route("/api", func(api chi.Router) {
		courseHandler.RegisterRoutes(api)

		api.Route("/assistant", func(ar chi.Router) {
			assistantHandler.RegisterRoutes(ar)
			streamHandler.RegisterRoutes(ar)
		})
	})

	return r
}
