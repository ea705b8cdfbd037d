package app

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"docqa/internal/pkg/logger"
	"docqa/internal/store"
	"docqa/internal/transcript"
)

const (
	sessionModule       = "session"
	sessionIDPrefix     = "sess-"
	defaultDisplayChars = 12
	truncationMarker    = "..."

	NewSessionNotice = "New session started."
)

// NewSessionID returns "sess-" followed by a random (version 4) UUID drawn
// from crypto/rand.
func NewSessionID() string {
	return sessionIDPrefix + uuid.New().String()
}

// TranscriptResetter is the part of the view a session reset touches.
type TranscriptResetter interface {
	Clear()
	AppendSystem(text string) transcript.BlockID
}

type SessionOptions struct {
	Key           string
	DisplayPrefix int
}

// SessionService owns the single active session id. Every component that
// issues requests reads the id through it.
type SessionService struct {
	store   store.KV
	view    TranscriptResetter
	log     logger.ILogger
	key     string
	display int
	newID   func() string

	mu      sync.Mutex
	current string
}

func NewSessionService(kv store.KV, view TranscriptResetter, log logger.ILogger, opts SessionOptions) *SessionService {
	if log == nil {
		log = logger.Nop()
	}
	if opts.Key == "" {
		opts.Key = "docqa_session_id"
	}
	if opts.DisplayPrefix <= 0 {
		opts.DisplayPrefix = defaultDisplayChars
	}
	return &SessionService{
		store:   kv,
		view:    view,
		log:     log,
		key:     opts.Key,
		display: opts.DisplayPrefix,
		newID:   NewSessionID,
	}
}

// SessionID returns the active id, loading it from the store or creating and
// persisting a new one on first use. It never returns an empty string: when
// the store fails the id lives in memory only.
func (s *SessionService) SessionID(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *SessionService) loadLocked(ctx context.Context) string {
	if s.current != "" {
		return s.current
	}

	stored, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		s.log.Warn(sessionModule, "read persisted session failed", map[string]interface{}{"error": err.Error()})
	}
	if ok && stored != "" {
		s.current = stored
		return s.current
	}

	s.current = s.newID()
	if err := s.store.Set(ctx, s.key, s.current); err != nil {
		s.log.Warn(sessionModule, "persist new session failed", map[string]interface{}{"error": err.Error()})
	} else {
		s.log.Info(sessionModule, "session created", map[string]interface{}{"session": s.displayLocked()})
	}
	return s.current
}

// Reset replaces the session with a fresh id, clears the transcript and
// posts the new-session notice. The switch always happens; a persistence
// failure is returned afterwards.
func (s *SessionService) Reset(ctx context.Context) (string, error) {
	s.mu.Lock()
	prior := s.loadLocked(ctx)
	next := s.newID()
	for next == prior {
		next = s.newID()
	}
	s.current = next
	shown := s.displayLocked()
	s.mu.Unlock()

	persistErr := s.store.Set(ctx, s.key, next)

	if s.view != nil {
		s.view.Clear()
		s.view.AppendSystem(NewSessionNotice)
	}

	if persistErr != nil {
		s.log.Warn(sessionModule, "persist reset session failed", map[string]interface{}{"error": persistErr.Error()})
		return next, fmt.Errorf("persist session failed: %w", persistErr)
	}
	s.log.Info(sessionModule, "session reset", map[string]interface{}{"session": shown})
	return next, nil
}

// Display is the id as shown to the user: a fixed-length prefix and a
// truncation marker, never the full token.
func (s *SessionService) Display(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)
	return s.displayLocked()
}

func (s *SessionService) displayLocked() string {
	return truncate(s.current, s.display)
}

func truncate(id string, n int) string {
	if utf8.RuneCountInString(id) <= n {
		return id + truncationMarker
	}
	return string([]rune(id)[:n]) + truncationMarker
}
