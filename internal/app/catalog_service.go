package app

import (
	"context"
	"fmt"
	"sync"

	"docqa/internal/model"
	"docqa/internal/pkg/logger"
)

const (
	catalogModule = "catalog"

	EmptyCatalogPlaceholder = "No documents indexed."
)

type CatalogClient interface {
	ListDocuments(ctx context.Context) ([]model.DocumentSummary, error)
	DeleteDocument(ctx context.Context, fileID int64) error
}

type CatalogState struct {
	Documents   []model.DocumentSummary `json:"documents"`
	Empty       bool                    `json:"empty"`
	Placeholder string                  `json:"placeholder,omitempty"`
	Loaded      bool                    `json:"loaded"`
}

// CatalogService keeps the last successfully fetched document list. A failed
// fetch never disturbs what is already shown.
type CatalogService struct {
	client CatalogClient
	log    logger.ILogger

	mu     sync.RWMutex
	docs   []model.DocumentSummary
	loaded bool
}

func NewCatalogService(client CatalogClient, log logger.ILogger) *CatalogService {
	if log == nil {
		log = logger.Nop()
	}
	return &CatalogService{client: client, log: log}
}

func (s *CatalogService) Refresh(ctx context.Context) error {
	docs, err := s.client.ListDocuments(ctx)
	if err != nil {
		s.log.Warn(catalogModule, "list documents failed", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("refresh catalog failed: %w", err)
	}

	next := make([]model.DocumentSummary, len(docs))
	copy(next, docs)

	s.mu.Lock()
	s.docs = next
	s.loaded = true
	s.mu.Unlock()

	s.log.Debug(catalogModule, "catalog refreshed", map[string]interface{}{"documents": len(next)})
	return nil
}

func (s *CatalogService) State() CatalogState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]model.DocumentSummary, len(s.docs))
	copy(docs, s.docs)

	state := CatalogState{Documents: docs, Loaded: s.loaded}
	if len(docs) == 0 {
		state.Empty = true
		state.Placeholder = EmptyCatalogPlaceholder
	}
	return state
}

// Delete removes one document from the backend and reloads the list.
func (s *CatalogService) Delete(ctx context.Context, fileID int64) error {
	if fileID <= 0 {
		return ErrInvalidDocument
	}
	if err := s.client.DeleteDocument(ctx, fileID); err != nil {
		s.log.Warn(catalogModule, "delete document failed", map[string]interface{}{
			"file_id": fileID,
			"error":   err.Error(),
		})
		return fmt.Errorf("delete document failed: %w", err)
	}
	s.log.Info(catalogModule, "document deleted", map[string]interface{}{"file_id": fileID})
	return s.Refresh(ctx)
}
