package app

import (
	"context"
	"sync"
	"time"

	"docqa/internal/model"
	"docqa/internal/pkg/logger"
	"docqa/internal/transcript"
)

const (
	journalModule         = "journal"
	journalBuffer         = 256
	journalPublishTimeout = 5 * time.Second
)

type JournalPublisher interface {
	Publish(ctx context.Context, entry model.JournalEntry) error
}

type TranscriptSource interface {
	Subscribe(fn func(transcript.Event)) transcript.Subscription
}

// JournalService copies every settled turn of the transcript to the
// journal queue. Publishing runs on its own goroutine so the transcript is
// never held up by the broker.
type JournalService struct {
	publisher JournalPublisher
	sessions  SessionSource
	log       logger.ILogger

	entries chan model.JournalEntry
	sub     transcript.Subscription
	wg      sync.WaitGroup
	once    sync.Once

	mu     sync.Mutex
	closed bool
}

func NewJournalService(publisher JournalPublisher, sessions SessionSource, log logger.ILogger) *JournalService {
	if log == nil {
		log = logger.Nop()
	}
	return &JournalService{
		publisher: publisher,
		sessions:  sessions,
		log:       log,
		entries:   make(chan model.JournalEntry, journalBuffer),
	}
}

func (s *JournalService) Start(ctx context.Context, source TranscriptSource) {
	s.sub = source.Subscribe(func(ev transcript.Event) {
		entry, ok := s.entryFor(ctx, ev)
		if !ok {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		select {
		case s.entries <- entry:
		default:
			s.log.Warn(journalModule, "journal buffer full, dropping entry", map[string]interface{}{
				"speaker": entry.Speaker,
			})
		}
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for entry := range s.entries {
			s.publish(ctx, entry)
		}
	}()
}

func (s *JournalService) entryFor(ctx context.Context, ev transcript.Event) (model.JournalEntry, bool) {
	if ev.Type != transcript.EventAppended || ev.Block.Kind == transcript.KindPending {
		return model.JournalEntry{}, false
	}
	return model.JournalEntry{
		SessionID:      s.sessions.SessionID(ctx),
		Speaker:        ev.Block.Kind.String(),
		Text:           ev.Block.Text,
		ReferenceCount: len(ev.Block.References),
		CreatedAt:      time.Now(),
	}, true
}

func (s *JournalService) publish(ctx context.Context, entry model.JournalEntry) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalPublishTimeout)
	defer cancel()

	if err := s.publisher.Publish(pubCtx, entry); err != nil {
		s.log.Error(journalModule, "publish journal entry failed", map[string]interface{}{
			"speaker": entry.Speaker,
			"error":   err.Error(),
		})
	}
}

// Close stops listening and flushes what is already queued.
func (s *JournalService) Close() {
	s.once.Do(func() {
		if s.sub != nil {
			s.sub.Dispose()
		}
		s.mu.Lock()
		s.closed = true
		close(s.entries)
		s.mu.Unlock()
		s.wg.Wait()
	})
}
