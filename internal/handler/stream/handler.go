package stream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/komekarch/site/backend/internal/analysis/topic"
	"github.com/komekarch/site/backend/internal/logger"
	"github.com/komekarch/site/backend/internal/model/chat"
	chatservice "github.com/komekarch/site/backend/internal/service/chat"
	"github.com/komekarch/site/backend/pkg/utils"
)

// Streamer produces a chunked model answer.
type Streamer interface {
	Stream(ctx context.Context, question string, history []chat.Message) (*schema.StreamReader[*schema.Message], error)
}

// Handler streams tutor answers via Server-Sent Events. It never touches
// session state: it is a preview channel beside the widget.
type Handler struct {
	tutor   Streamer
	engine  *topic.Engine
	chatSvc *chatservice.Service
	log     zerolog.Logger
}

// New creates a stream handler. tutor may be nil, in which case answers
// come from engine in a single frame.
func New(tutor Streamer, engine *topic.Engine, chatSvc *chatservice.Service) *Handler {
	return &Handler{
		tutor:   tutor,
		engine:  engine,
		chatSvc: chatSvc,
		log:     logger.For("stream"),
	}
}

// Response is one SSE data frame.
type Response struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RegisterRoutes mounts GET /stream?question=...&sessionId=... on the
// assistant router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	question := strings.TrimSpace(r.URL.Query().Get("question"))
	if question == "" {
		utils.RespondError(w, http.StatusBadRequest, "question query parameter is required")
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	var history []chat.Message
	if sessionID != "" {
		session, err := h.chatSvc.Get(r.Context(), sessionID)
		if err != nil {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		history = session.Messages()
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	utils.SendSSEChunk(w, flusher, Response{Event: "start", SessionID: sessionID})

	content := h.dispatch(r.Context(), w, flusher, sessionID, question, history)

	utils.SendSSEChunk(w, flusher, Response{Event: "message", SessionID: sessionID, Content: content})
	utils.SendSSEChunk(w, flusher, Response{Event: "end", SessionID: sessionID, Finished: true})

	h.log.Debug().Str("session", sessionID).Int("length", len(content)).Msg("stream completed")
}

// dispatch streams deltas from the tutor and returns the full answer,
// falling back to the keyword engine when the tutor is absent or fails.
func (h *Handler) dispatch(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID, question string, history []chat.Message) string {
	if h.tutor == nil {
		return h.engine.Respond(question)
	}

	content, err := h.streamTutor(ctx, w, flusher, sessionID, question, history)
	if err != nil {
		h.log.Warn().Err(err).Str("session", sessionID).Msg("tutor stream failed, using keyword answer")
		utils.SendSSEChunk(w, flusher, Response{Event: "error", SessionID: sessionID, Error: "tutor unavailable"})
		return h.engine.Respond(question)
	}
	return content
}

func (h *Handler) streamTutor(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID, question string, history []chat.Message) (string, error) {
	stream, err := h.tutor.Stream(ctx, question, history)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			utils.SendSSEChunk(w, flusher, Response{Event: "delta", SessionID: sessionID, Content: chunk.Content})
		}
	}

	if len(chunks) == 0 {
		return "", errors.New("tutor stream was empty")
	}
	response, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(response.Content) == "" {
		return "", errors.New("tutor stream was empty")
	}
	return response.Content, nil
}
