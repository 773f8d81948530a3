package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/komekarch/site/backend/internal/analysis/topic"
	"github.com/komekarch/site/backend/internal/logger"
	"github.com/komekarch/site/backend/internal/middleware"
	"github.com/komekarch/site/backend/internal/model/chat"
	"github.com/komekarch/site/backend/internal/repository/transcript"
	chatservice "github.com/komekarch/site/backend/internal/service/chat"
	"github.com/komekarch/site/backend/pkg/utils"
)

// TranscriptReader reads the message archive.
type TranscriptReader interface {
	List(ctx context.Context, sessionID string) ([]transcript.Entry, error)
}

// Handler 助手小部件的HTTP处理器
type Handler struct {
	chatSvc  *chatservice.Service
	engine   *topic.Engine
	archive  TranscriptReader
	limiter  *middleware.RateLimiter
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// Option customises a Handler.
type Option func(*Handler)

// WithTranscript enables the transcript route.
func WithTranscript(archive TranscriptReader) Option {
	return func(h *Handler) { h.archive = archive }
}

// WithRateLimiter limits message submissions per client IP.
func WithRateLimiter(limiter *middleware.RateLimiter) Option {
	return func(h *Handler) { h.limiter = limiter }
}

// New 创建助手处理器。
func New(chatSvc *chatservice.Service, engine *topic.Engine, opts ...Option) *Handler {
	h := &Handler{
		chatSvc: chatSvc,
		engine:  engine,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: logger.For("assistant"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes 在 /assistant 路由上注册小部件接口。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/suggestions", h.handleSuggestions)
	r.Post("/respond", h.handleRespond)

	r.Post("/sessions", h.handleMount)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleSnapshot)
		r.Delete("/", h.handleUnmount)
		r.Post("/open", h.withSession(func(s *chatservice.Session) (chat.Snapshot, error) {
			return s.Open()
		}))
		r.Post("/close", h.withSession(func(s *chatservice.Session) (chat.Snapshot, error) {
			return s.Close()
		}))
		r.Post("/clear", h.withSession(func(s *chatservice.Session) (chat.Snapshot, error) {
			return s.Clear()
		}))
		r.Put("/draft", h.handleDraft)
		r.Post("/keys", h.handleKey)

		r.Group(func(r chi.Router) {
			if h.limiter != nil {
				r.Use(h.limiter.Middleware)
			}
			r.Post("/messages", h.handleSubmit)
			r.Post("/suggestions/{index}", h.handleSuggestion)
		})

		r.Get("/events", h.handleEvents)
		r.Get("/ws", h.handleWebSocket)
		r.Get("/transcript", h.handleTranscript)
	})
}

func (h *Handler) handleSuggestions(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"suggestions": chat.Suggestions(),
	})
}

func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.engine.Lookup(payload.Question))
}

func (h *Handler) handleMount(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.Mount(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, session.Snapshot())
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, session.Snapshot())
}

func (h *Handler) handleUnmount(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.Unmount(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDraft(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.withSession(func(s *chatservice.Session) (chat.Snapshot, error) {
		return s.SetDraft(payload.Text)
	})(w, r)
}

func (h *Handler) handleKey(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Key   string `json:"key"`
		Shift bool   `json:"shift"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Key == "" {
		utils.RespondError(w, http.StatusBadRequest, "key is required")
		return
	}
	h.withSession(func(s *chatservice.Session) (chat.Snapshot, error) {
		return s.PressKey(payload.Key, payload.Shift)
	})(w, r)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.withSession(func(s *chatservice.Session) (chat.Snapshot, error) {
		return s.Submit(payload.Text)
	})(w, r)
}

func (h *Handler) handleSuggestion(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "suggestion index must be a number")
		return
	}
	h.withSession(func(s *chatservice.Session) (chat.Snapshot, error) {
		return s.SubmitSuggestion(index)
	})(w, r)
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		utils.RespondError(w, http.StatusNotFound, "transcript archive disabled")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	entries, err := h.archive.List(r.Context(), sessionID)
	if err != nil {
		h.log.Error().Err(err).Str("session", sessionID).Msg("transcript read failed")
		utils.RespondError(w, http.StatusInternalServerError, "failed to read transcript")
		return
	}
	if entries == nil {
		entries = []transcript.Entry{}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sessionId": sessionID,
		"messages":  entries,
	})
}

// withSession resolves the session from the URL and writes the snapshot
// returned by op.
func (h *Handler) withSession(op func(*chatservice.Session) (chat.Snapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := h.lookup(w, r)
		if !ok {
			return
		}
		snap, err := op(session)
		if err != nil {
			h.respondServiceError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, snap)
	}
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*chatservice.Session, bool) {
	session, err := h.chatSvc.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondServiceError(w, err)
		return nil, false
	}
	return session, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("assistant request failed")
	}
	utils.RespondError(w, status, message)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, chatservice.ErrSessionNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, chatservice.ErrWidgetClosed):
		return http.StatusConflict, err.Error()
	case errors.Is(err, chatservice.ErrSuggestionOutOfRange):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
