package model

import "time"

// JournalEntry is the persisted audit copy of a settled transcript turn.
type JournalEntry struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SessionID      string    `gorm:"size:64;not null;index" json:"session_id"`
	Speaker        string    `gorm:"size:16;not null;index" json:"speaker"`
	Text           string    `gorm:"type:text;not null" json:"text"`
	ReferenceCount int       `gorm:"not null;default:0" json:"reference_count"`
	CreatedAt      time.Time `json:"created_at"`
}
