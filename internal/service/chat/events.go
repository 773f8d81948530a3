package chat

import (
	"time"

	"github.com/komekarch/site/backend/internal/model/chat"
)

// EventType names what changed in a session.
type EventType string

const (
	EventMessage EventType = "message"
	EventState   EventType = "state"
	EventCleared EventType = "cleared"
	EventFocus   EventType = "focusInput"
)

// Event is delivered to session subscribers.
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"sessionId"`
	Message   *chat.Message  `json:"message,omitempty"`
	Snapshot  *chat.Snapshot `json:"snapshot,omitempty"`
	At        time.Time      `json:"at"`
}

const subscriberBuffer = 32

// Subscribe registers a listener. The channel is closed when cancel is
// called or the session is unmounted. A subscriber that falls more than
// subscriberBuffer events behind loses events.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if s.unmounted {
		close(ch)
		return ch, func() {}
	}

	s.nextSub++
	id := s.nextSub
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

// publishLocked fans ev out without blocking. Caller holds s.mu.
func (s *Session) publishLocked(ev Event) {
	ev.SessionID = s.id
	ev.At = s.clock.Now().UTC()
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.log.Warn().Int("subscriber", id).Str("event", string(ev.Type)).Msg("subscriber lagging, event dropped")
		}
	}
}

func (s *Session) publishStateLocked() {
	snap := s.snapshotLocked()
	s.publishLocked(Event{Type: EventState, Snapshot: &snap})
}

func (s *Session) closeSubscribersLocked() {
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
