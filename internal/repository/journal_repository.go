package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"docqa/internal/model"
)

type JournalRepository struct {
	db *gorm.DB
}

func NewJournalRepository(db *gorm.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

func (r *JournalRepository) Create(ctx context.Context, entry *model.JournalEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("create journal entry failed: %w", err)
	}
	return nil
}

func (r *JournalRepository) ListBySessionID(ctx context.Context, sessionID string, limit int) ([]model.JournalEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var entries []model.JournalEntry
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list journal entries failed: %w", err)
	}
	return entries, nil
}
