package assistant

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/komekarch/site/backend/internal/middleware"
	"github.com/komekarch/site/backend/internal/model/chat"
	chatservice "github.com/komekarch/site/backend/internal/service/chat"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

var errUnknownCommand = errors.New("unknown command type")

// command is one inbound WebSocket frame.
type command struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Key   string `json:"key,omitempty"`
	Shift bool   `json:"shift,omitempty"`
	Index int    `json:"index,omitempty"`
}

// handleWebSocket upgrades to a socket carrying session events out and
// widget commands in. Every command is answered with a "snapshot" or an
// "error" frame.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := h.log.With().Str("session", session.ID()).Logger()
	log.Info().Msg("websocket connected")

	events, unsubscribe := session.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	out := make(chan frame, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(ctx, cancel, conn, events, out, log)
	}()

	send := func(f frame) {
		select {
		case out <- f:
		case <-ctx.Done():
		}
	}

	send(h.snapshotFrame("connected", session))

	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		var cmd command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read error")
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		if cmd.Type == "submit" || cmd.Type == "suggestion" {
			if h.limiter != nil && !h.limiter.Allow(middleware.ClientIP(r)) {
				send(errorFrame(session.ID(), "too many requests"))
				continue
			}
		}

		snap, err := h.apply(session, cmd)
		if err != nil {
			send(errorFrame(session.ID(), err.Error()))
			continue
		}
		send(frame{
			Type:      "snapshot",
			SessionID: session.ID(),
			Data:      snap,
			Timestamp: time.Now().UnixMilli(),
		})
	}

	cancel()
	<-done
	log.Info().Msg("websocket disconnected")
}

func (h *Handler) apply(session *chatservice.Session, cmd command) (chat.Snapshot, error) {
	switch cmd.Type {
	case "open":
		return session.Open()
	case "close":
		return session.Close()
	case "clear":
		return session.Clear()
	case "draft":
		return session.SetDraft(cmd.Text)
	case "key":
		return session.PressKey(cmd.Key, cmd.Shift)
	case "submit":
		return session.Submit(cmd.Text)
	case "suggestion":
		return session.SubmitSuggestion(cmd.Index)
	case "snapshot":
		return session.Snapshot(), nil
	default:
		return chat.Snapshot{}, errUnknownCommand
	}
}

// writeLoop owns every write on conn.
func (h *Handler) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, events <-chan chatservice.Event, out <-chan frame, log zerolog.Logger) {
	defer cancel()
	// unblocks the reader once writing stops
	defer conn.Close()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	write := func(f frame) error {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(f)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				log.Debug().Err(err).Msg("websocket ping failed")
				return
			}
		case f := <-out:
			if err := write(f); err != nil {
				log.Debug().Err(err).Msg("websocket write failed")
				return
			}
		case ev, open := <-events:
			if !open {
				write(frame{Type: "unmounted", Timestamp: time.Now().UnixMilli()})
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session unmounted"),
					time.Now().Add(wsWriteTimeout))
				return
			}
			if err := write(frameFor(ev)); err != nil {
				log.Debug().Err(err).Msg("websocket write failed")
				return
			}
		}
	}
}

func (h *Handler) snapshotFrame(kind string, session *chatservice.Session) frame {
	return frame{
		Type:      kind,
		SessionID: session.ID(),
		Data:      session.Snapshot(),
		Timestamp: time.Now().UnixMilli(),
	}
}

func errorFrame(sessionID, message string) frame {
	return frame{
		Type:      "error",
		SessionID: sessionID,
		Data:      map[string]string{"error": message},
		Timestamp: time.Now().UnixMilli(),
	}
}
