package domain

import (
	"time"

	"github.com/google/uuid"
)

// Mood is one mood entry per user per calendar day. Date carries the civil
// date only (UTC midnight).
type Mood struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	MoodLevel int       `json:"mood_level"`
	Note      *string   `json:"note,omitempty"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DiaryEntry is one free-text journal entry per user per calendar day.
type DiaryEntry struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	WordCount int       `json:"word_count"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
