package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qmuntal/stateless"
	"github.com/rs/zerolog"

	"github.com/komekarch/site/backend/internal/clock"
	"github.com/komekarch/site/backend/internal/config"
	"github.com/komekarch/site/backend/internal/model/chat"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrWidgetClosed         = errors.New("assistant widget is closed")
	ErrSuggestionOutOfRange = errors.New("suggestion index out of range")
)

// focusDelay is how long after opening the input focus hint is sent.
const focusDelay = 50 * time.Millisecond

// KeyEnter is the only key the input area reacts to.
const KeyEnter = "Enter"

// Session is one mounted assistant widget: its message history, draft,
// open/closed state and outstanding replies. All methods are safe for
// concurrent use; reply timers fire on their own goroutines.
type Session struct {
	id        string
	createdAt time.Time
	widget    chat.Widget

	clock     clock.Clock
	delay     time.Duration
	mode      config.ReplyMode
	responder Responder
	recorder  Recorder
	log       zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// recordMu serializes transcript writes so they keep history order.
	// It is taken before mu, never while mu is held.
	recordMu sync.Mutex

	mu         sync.Mutex
	fsm        *stateless.StateMachine
	draft      string
	messages   []chat.Message
	pending    int
	inFlight   bool
	queue      []string
	timers     map[uint64]clock.Timer
	nextTimer  uint64
	lastActive time.Time
	unmounted  bool
	subs       map[int]chan Event
	nextSub    int
	unrecorded []chat.Message
}

func newSession(opts Options, log zerolog.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	now := opts.Clock.Now().UTC()
	id := uuid.NewString()

	s := &Session{
		id:         id,
		createdAt:  now,
		widget:     chat.DefaultWidget(),
		clock:      opts.Clock,
		delay:      opts.ReplyDelay,
		mode:       opts.ReplyMode,
		responder:  opts.Responder,
		recorder:   opts.Recorder,
		log:        log.With().Str("session", id).Logger(),
		ctx:        ctx,
		cancel:     cancel,
		timers:     make(map[uint64]clock.Timer),
		lastActive: now,
		subs:       make(map[int]chan Event),
	}
	s.fsm = newWidgetMachine(func() int { return s.pending })

	s.mu.Lock()
	s.appendLocked(chat.RoleAssistant, chat.Greeting)
	s.mu.Unlock()
	s.flushRecords()

	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() chat.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Messages returns a copy of the history in insertion order.
func (s *Session) Messages() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]chat.Message(nil), s.messages...)
}

// Open shows the panel. Opening an open widget changes nothing.
func (s *Session) Open() (chat.Snapshot, error) {
	s.mu.Lock()
	if err := s.fireLocked(triggerOpen); err != nil {
		s.mu.Unlock()
		return chat.Snapshot{}, err
	}
	s.touchLocked()
	s.publishStateLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.clock.AfterFunc(focusDelay, s.focusInput)
	return snap, nil
}

// Close hides the panel. Outstanding replies still arrive.
func (s *Session) Close() (chat.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fireLocked(triggerClose); err != nil {
		return chat.Snapshot{}, err
	}
	s.touchLocked()
	s.publishStateLocked()
	return s.snapshotLocked(), nil
}

// Clear truncates the history to the greeting. The panel stays open.
func (s *Session) Clear() (chat.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOpenLocked(); err != nil {
		return chat.Snapshot{}, err
	}
	if err := s.fireLocked(triggerClear); err != nil {
		return chat.Snapshot{}, err
	}

	s.messages = s.messages[:1:1]
	s.touchLocked()
	s.publishLocked(Event{Type: EventCleared})
	s.publishStateLocked()
	return s.snapshotLocked(), nil
}

// SetDraft replaces the text being composed.
func (s *Session) SetDraft(text string) (chat.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOpenLocked(); err != nil {
		return chat.Snapshot{}, err
	}
	s.draft = text
	s.touchLocked()
	return s.snapshotLocked(), nil
}

// Submit sends text as a user message and schedules the reply. Text that
// is empty after trimming is ignored: nothing is appended or scheduled.
func (s *Session) Submit(text string) (chat.Snapshot, error) {
	s.mu.Lock()
	arm, err := s.submitLocked(text)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		return chat.Snapshot{}, err
	}
	if arm != nil {
		arm()
	}
	s.flushRecords()
	return snap, nil
}

// SubmitSuggestion submits the quick-question chip at index.
func (s *Session) SubmitSuggestion(index int) (chat.Snapshot, error) {
	suggestions := s.widget.Suggestions
	if index < 0 || index >= len(suggestions) {
		return chat.Snapshot{}, ErrSuggestionOutOfRange
	}
	return s.Submit(suggestions[index])
}

// PressKey handles a key in the input area: Enter submits the draft,
// Shift+Enter adds a newline to it, anything else is ignored.
func (s *Session) PressKey(key string, shift bool) (chat.Snapshot, error) {
	s.mu.Lock()

	if err := s.requireOpenLocked(); err != nil {
		s.mu.Unlock()
		return chat.Snapshot{}, err
	}

	var arm func()
	if key == KeyEnter {
		if shift {
			s.draft += "\n"
			s.touchLocked()
		} else {
			var err error
			if arm, err = s.submitLocked(s.draft); err != nil {
				s.mu.Unlock()
				return chat.Snapshot{}, err
			}
		}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if arm != nil {
		arm()
	}
	s.flushRecords()
	return snap, nil
}

// submitLocked appends the user message and returns the function that
// arms the reply timer; it must run after s.mu is released.
func (s *Session) submitLocked(raw string) (func(), error) {
	if s.unmounted {
		return nil, ErrSessionNotFound
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, nil
	}
	if err := s.requireOpenLocked(); err != nil {
		return nil, err
	}

	s.pending++
	if err := s.fireLocked(triggerSubmit); err != nil {
		s.pending--
		return nil, err
	}

	s.appendLocked(chat.RoleUser, text)
	s.draft = ""
	s.touchLocked()
	s.publishStateLocked()

	if s.mode == config.ReplySerial {
		if s.inFlight {
			s.queue = append(s.queue, text)
			return nil, nil
		}
		s.inFlight = true
	}
	return s.reserveTimerLocked(text), nil
}

// reserveTimerLocked books a timer slot for question and returns the
// function that starts it.
func (s *Session) reserveTimerLocked(question string) func() {
	s.nextTimer++
	id := s.nextTimer
	s.timers[id] = nil

	return func() {
		timer := s.clock.AfterFunc(s.delay, func() { s.deliver(id, question) })

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.unmounted {
			timer.Stop()
			return
		}
		if _, ok := s.timers[id]; ok {
			s.timers[id] = timer
		}
	}
}

// deliver runs when a reply timer fires.
func (s *Session) deliver(id uint64, question string) {
	s.mu.Lock()
	if s.unmounted {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	history := append([]chat.Message(nil), s.messages...)
	s.mu.Unlock()

	reply := s.responder.Reply(s.ctx, question, history)

	s.mu.Lock()
	if s.unmounted {
		s.mu.Unlock()
		return
	}

	msg := s.appendLocked(chat.RoleAssistant, reply)
	s.pending--
	if err := s.fireLocked(triggerReply); err != nil {
		s.log.Error().Err(err).Msg("reply transition rejected")
	}
	s.touchLocked()
	s.publishStateLocked()

	var arm func()
	if s.mode == config.ReplySerial {
		if len(s.queue) > 0 {
			next := s.queue[0]
			s.queue = s.queue[1:]
			arm = s.reserveTimerLocked(next)
		} else {
			s.inFlight = false
		}
	}
	s.mu.Unlock()

	s.log.Debug().Str("message_id", msg.ID).Int("length", len(reply)).Msg("reply delivered")

	if arm != nil {
		arm()
	}
	s.flushRecords()
}

func (s *Session) focusInput() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unmounted || !s.isOpenLocked() {
		return
	}
	s.publishLocked(Event{Type: EventFocus})
}

// unmount discards the session: timers stop, subscribers are closed and
// late timer callbacks become no-ops.
func (s *Session) unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unmounted {
		return
	}
	s.unmounted = true
	s.cancel()
	for id, timer := range s.timers {
		if timer != nil {
			timer.Stop()
		}
		delete(s.timers, id)
	}
	s.queue = nil
	s.closeSubscribersLocked()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) appendLocked(role chat.Role, text string) chat.Message {
	msg := chat.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: s.clock.Now().UTC(),
	}
	s.messages = append(s.messages, msg)
	s.publishLocked(Event{Type: EventMessage, Message: &msg})

	if s.recorder != nil {
		s.unrecorded = append(s.unrecorded, msg)
	}
	return msg
}

// flushRecords hands messages appended since the last flush to the
// recorder. It must be called without s.mu held.
func (s *Session) flushRecords() {
	if s.recorder == nil {
		return
	}
	s.recordMu.Lock()
	defer s.recordMu.Unlock()

	s.mu.Lock()
	batch := s.unrecorded
	s.unrecorded = nil
	s.mu.Unlock()

	for _, msg := range batch {
		if err := s.recorder.Record(s.ctx, s.id, msg); err != nil {
			s.log.Warn().Err(err).Str("message_id", msg.ID).Msg("transcript record failed")
		}
	}
}

func (s *Session) fireLocked(t trigger) error {
	if s.unmounted {
		return ErrSessionNotFound
	}
	return s.fsm.Fire(t)
}

func (s *Session) requireOpenLocked() error {
	if s.unmounted {
		return ErrSessionNotFound
	}
	if !s.isOpenLocked() {
		return ErrWidgetClosed
	}
	return nil
}

func (s *Session) isOpenLocked() bool {
	open, err := s.fsm.IsInState(chat.StateOpen)
	return err == nil && open
}

func (s *Session) stateLocked() chat.State {
	if state, ok := s.fsm.MustState().(chat.State); ok {
		return state
	}
	return chat.StateClosed
}

func (s *Session) touchLocked() {
	s.lastActive = s.clock.Now().UTC()
}

func (s *Session) snapshotLocked() chat.Snapshot {
	return chat.Snapshot{
		ID:               s.id,
		State:            s.stateLocked(),
		IsOpen:           s.isOpenLocked(),
		DraftText:        s.draft,
		IsComposingReply: s.pending > 0,
		PendingReplies:   s.pending,
		Messages:         append([]chat.Message(nil), s.messages...),
		Widget:           s.widget,
		CreatedAt:        s.createdAt,
	}
}
