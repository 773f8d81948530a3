package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/komekarch/site/backend/internal/analysis/topic"
	"github.com/komekarch/site/backend/internal/clock"
	"github.com/komekarch/site/backend/internal/config"
	"github.com/komekarch/site/backend/internal/logger"
	"github.com/komekarch/site/backend/internal/model/chat"
)

// Responder produces the assistant reply for a question. Implementations
// must always return a non-empty reply.
type Responder interface {
	Reply(ctx context.Context, question string, history []chat.Message) string
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, question string, history []chat.Message) string

// Reply calls f.
func (f ResponderFunc) Reply(ctx context.Context, question string, history []chat.Message) string {
	return f(ctx, question, history)
}

// EngineResponder answers from the keyword table alone.
func EngineResponder(engine *topic.Engine) Responder {
	return ResponderFunc(func(_ context.Context, question string, _ []chat.Message) string {
		return engine.Respond(question)
	})
}

// Recorder receives every message appended to any session.
type Recorder interface {
	Record(ctx context.Context, sessionID string, msg chat.Message) error
}

// Options configures the sessions a Service mounts.
type Options struct {
	ReplyDelay time.Duration
	ReplyMode  config.ReplyMode
	IdleTTL    time.Duration
	Clock      clock.Clock
	Responder  Responder
	Recorder   Recorder
}

// DefaultOptions answers from the built-in rules after 600ms, one timer
// per submission, on real time.
func DefaultOptions() Options {
	return Options{
		ReplyDelay: 600 * time.Millisecond,
		ReplyMode:  config.ReplyConcurrent,
		IdleTTL:    30 * time.Minute,
		Clock:      clock.Real(),
		Responder:  EngineResponder(topic.Default()),
	}
}

// Service is the in-memory registry of mounted widget sessions.
type Service struct {
	opts Options
	log  zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService fills unset options from DefaultOptions.
func NewService(opts Options) *Service {
	defaults := DefaultOptions()
	if opts.Clock == nil {
		opts.Clock = defaults.Clock
	}
	if opts.Responder == nil {
		opts.Responder = defaults.Responder
	}
	if opts.ReplyMode == "" {
		opts.ReplyMode = defaults.ReplyMode
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = defaults.IdleTTL
	}
	if opts.ReplyDelay < 0 {
		opts.ReplyDelay = defaults.ReplyDelay
	}

	return &Service{
		opts:     opts,
		log:      logger.For("chat"),
		sessions: make(map[string]*Session),
	}
}

// Mount creates a session seeded with the greeting. It starts Closed.
func (s *Service) Mount(_ context.Context) (*Session, error) {
	session := newSession(s.opts, s.log)

	s.mu.Lock()
	s.sessions[session.ID()] = session
	count := len(s.sessions)
	s.mu.Unlock()

	s.log.Info().Str("session", session.ID()).Int("active", count).Msg("session mounted")
	return session, nil
}

// Get returns a mounted session.
func (s *Service) Get(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Snapshot returns the state of a mounted session.
func (s *Service) Snapshot(ctx context.Context, sessionID string) (chat.Snapshot, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return chat.Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// Unmount discards a session and everything it still has scheduled.
func (s *Service) Unmount(_ context.Context, sessionID string) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	session.unmount()
	s.log.Info().Str("session", sessionID).Msg("session unmounted")
	return nil
}

// Count reports how many sessions are mounted.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Shutdown unmounts every session.
func (s *Service) Shutdown() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.unmount()
	}
}

// RunJanitor unmounts sessions idle for longer than IdleTTL until ctx is
// done.
func (s *Service) RunJanitor(ctx context.Context) {
	interval := s.opts.IdleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := s.opts.Clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.ExpireIdle(); n > 0 {
				s.log.Info().Int("expired", n).Msg("idle sessions unmounted")
			}
		}
	}
}

// ExpireIdle unmounts sessions whose last activity is older than IdleTTL
// and returns how many were removed.
func (s *Service) ExpireIdle() int {
	cutoff := s.opts.Clock.Now().UTC().Add(-s.opts.IdleTTL)

	var expired []*Session
	s.mu.Lock()
	for id, session := range s.sessions {
		if session.idleSince().Before(cutoff) {
			expired = append(expired, session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range expired {
		session.unmount()
	}
	return len(expired)
}
