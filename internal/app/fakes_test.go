package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"docqa/internal/backend"
	"docqa/internal/model"
	"docqa/internal/store"
)

var errStoreDown = errors.New("store down")

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, bool, error) { return "", false, errStoreDown }
func (brokenStore) Set(context.Context, string, string) error         { return errStoreDown }

type fixedSession string

func (f fixedSession) SessionID(context.Context) string { return string(f) }

// blockingChat holds every request until release is closed.
type blockingChat struct {
	mu       sync.Mutex
	requests []backend.ChatRequest
	release  chan struct{}
	resp     *backend.ChatResponse
	err      error
}

func newBlockingChat(resp *backend.ChatResponse, err error) *blockingChat {
	return &blockingChat{release: make(chan struct{}), resp: resp, err: err}
}

func (c *blockingChat) Chat(ctx context.Context, req backend.ChatRequest) (*backend.ChatResponse, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	<-c.release
	return c.resp, c.err
}

func (c *blockingChat) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

type countingRefresher struct {
	mu    sync.Mutex
	count int
}

func (r *countingRefresher) Refresh(context.Context) error {
	r.mu.Lock()
	r.count++
	r.mu.Unlock()
	return nil
}

func (r *countingRefresher) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

type recordingPublisher struct {
	mu      sync.Mutex
	entries []model.JournalEntry
}

func (p *recordingPublisher) Publish(_ context.Context, entry model.JournalEntry) error {
	p.mu.Lock()
	p.entries = append(p.entries, entry)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) snapshot() []model.JournalEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.JournalEntry(nil), p.entries...)
}

func memFile(name, content string) model.UploadFile {
	return model.UploadFile{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(content)), nil },
	}
}

func newMemKV() *store.MemoryStore { return store.NewMemoryStore() }
