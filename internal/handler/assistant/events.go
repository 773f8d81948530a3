package assistant

import (
	"net/http"
	"time"

	chatservice "github.com/komekarch/site/backend/internal/service/chat"
	"github.com/komekarch/site/backend/pkg/utils"
)

const sseKeepAlive = 15 * time.Second

// handleEvents streams session events as Server-Sent Events. The first
// frame is the current snapshot; the stream ends with "unmounted" when the
// session goes away.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	events, cancel := session.Subscribe()
	defer cancel()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	log := h.log.With().Str("session", session.ID()).Logger()
	log.Debug().Msg("event stream opened")
	defer log.Debug().Msg("event stream closed")

	if err := utils.SendSSEEvent(w, flusher, "snapshot", session.Snapshot()); err != nil {
		return
	}

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "keep-alive"); err != nil {
				return
			}
		case ev, open := <-events:
			if !open {
				utils.SendSSEEvent(w, flusher, "unmounted", map[string]string{"sessionId": session.ID()})
				return
			}
			if err := utils.SendSSEEvent(w, flusher, string(ev.Type), frameFor(ev)); err != nil {
				return
			}
		}
	}
}

// frame is the wire shape shared by the SSE and WebSocket transports.
type frame struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func frameFor(ev chatservice.Event) frame {
	f := frame{
		Type:      string(ev.Type),
		SessionID: ev.SessionID,
		Timestamp: ev.At.UnixMilli(),
	}
	switch {
	case ev.Message != nil:
		f.Data = ev.Message
	case ev.Snapshot != nil:
		f.Data = ev.Snapshot
	}
	return f
}
