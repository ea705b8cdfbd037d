package app

import (
	"context"
	"errors"
	"strings"
	"sync"

	"docqa/internal/backend"
	"docqa/internal/model"
	"docqa/internal/pkg/logger"
	"docqa/internal/transcript"
)

const (
	exchangeModule = "exchange"

	InFlightNotice        = "Please wait for the current answer."
	errorPrefix           = "Error: "
	networkErrorPrefix    = "Network error: "
	networkErrorBare      = "Network error."
	malformedReplyDetail  = "unexpected response from server"
	unknownFailureMessage = "something went wrong"
)

type ChatClient interface {
	Chat(ctx context.Context, req backend.ChatRequest) (*backend.ChatResponse, error)
}

type SessionSource interface {
	SessionID(ctx context.Context) string
}

// ConversationView is the part of the transcript an exchange writes to.
type ConversationView interface {
	AppendTurn(turn model.Turn) transcript.BlockID
	AppendSystem(text string) transcript.BlockID
	AppendPending() transcript.PendingHandle
	RemovePending(h transcript.PendingHandle) bool
}

type ExchangeOptions struct {
	SingleFlight bool
}

// ExchangeService turns a typed question into a backend round trip and
// exactly one terminal turn in the transcript.
type ExchangeService struct {
	client   ChatClient
	sessions SessionSource
	view     ConversationView
	log      logger.ILogger
	single   bool

	mu       sync.Mutex
	inFlight int
	wg       sync.WaitGroup
}

func NewExchangeService(client ChatClient, sessions SessionSource, view ConversationView, log logger.ILogger, opts ExchangeOptions) *ExchangeService {
	if log == nil {
		log = logger.Nop()
	}
	return &ExchangeService{
		client:   client,
		sessions: sessions,
		view:     view,
		log:      log,
		single:   opts.SingleFlight,
	}
}

// Submit records the question and its pending placeholder before returning,
// then runs the round trip in the background. The returned channel is
// closed once the exchange has settled.
func (s *ExchangeService) Submit(ctx context.Context, text string) (<-chan struct{}, error) {
	done := make(chan struct{})

	question := strings.TrimSpace(text)
	if question == "" {
		close(done)
		return done, ErrEmptyInput
	}

	s.mu.Lock()
	if s.single && s.inFlight > 0 {
		s.mu.Unlock()
		s.view.AppendSystem(InFlightNotice)
		close(done)
		return done, ErrExchangeInFlight
	}
	s.inFlight++
	s.wg.Add(1)
	s.mu.Unlock()

	sessionID := s.sessions.SessionID(ctx)
	s.view.AppendTurn(model.UserTurn(question))
	pending := s.view.AppendPending()

	req := backend.ChatRequest{
		SessionID: sessionID,
		Question:  question,
		History:   []backend.ChatMessage{},
	}

	go func() {
		defer close(done)
		defer s.finish()
		s.exchange(context.WithoutCancel(ctx), req, pending)
	}()
	return done, nil
}

// Ask submits and waits for the exchange to settle.
func (s *ExchangeService) Ask(ctx context.Context, text string) error {
	done, err := s.Submit(ctx, text)
	if err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every submitted exchange has settled.
func (s *ExchangeService) Wait() {
	s.wg.Wait()
}

func (s *ExchangeService) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

func (s *ExchangeService) finish() {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
	s.wg.Done()
}

func (s *ExchangeService) exchange(ctx context.Context, req backend.ChatRequest, pending transcript.PendingHandle) {
	resp, err := s.client.Chat(ctx, req)
	s.view.RemovePending(pending)

	if current := s.sessions.SessionID(ctx); current != req.SessionID {
		s.log.Info(exchangeModule, "discarding answer for replaced session", nil)
		return
	}

	if err != nil {
		s.log.Warn(exchangeModule, "chat request failed", map[string]interface{}{"error": err.Error()})
		s.view.AppendSystem(FailureText(err))
		return
	}

	s.log.Debug(exchangeModule, "chat answered", map[string]interface{}{
		"references": len(resp.References),
	})
	s.view.AppendTurn(model.BotTurn(resp.Answer, resp.References))
}

// FailureText is the user-facing notice for a failed round trip.
func FailureText(err error) string {
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		return errorPrefix + statusErr.Detail()
	}
	if errors.Is(err, backend.ErrMalformedResponse) {
		return errorPrefix + malformedReplyDetail
	}
	var transportErr *backend.TransportError
	if errors.As(err, &transportErr) {
		if msg := transportErr.Message(); msg != "" {
			return networkErrorPrefix + msg
		}
		return networkErrorBare
	}
	if err != nil && err.Error() != "" {
		return networkErrorPrefix + err.Error()
	}
	return networkErrorPrefix + unknownFailureMessage
}
