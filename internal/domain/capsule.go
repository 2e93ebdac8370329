package domain

import (
	"time"

	"github.com/google/uuid"
)

// Media kinds accepted for capsule attachments.
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// Capsule is a sealed message with attached media and a future open date.
// Once opened the capsule is immutable.
type Capsule struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	IsPrivate      bool       `json:"is_private"`
	RecipientEmail *string    `json:"recipient_email,omitempty"`
	OpenDate       time.Time  `json:"open_date"`
	IsOpened       bool       `json:"is_opened"`
	OpenedAt       *time.Time `json:"opened_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	// Loaded relations
	Media      []CapsuleMedia     `json:"media"`
	Recipients []CapsuleRecipient `json:"recipients,omitempty"`
}

type CapsuleMedia struct {
	ID         uuid.UUID `json:"id"`
	CapsuleID  uuid.UUID `json:"capsule_id"`
	StorageKey string    `json:"-"`
	URL        string    `json:"media_url"`
	Type       string    `json:"media_type"`
	CreatedAt  time.Time `json:"created_at"`
}

// CapsuleRecipient is one email address entitled to a notification when the
// capsule opens. EmailSent flips to true at most once, after a successful
// send; a failed send leaves it false so a later sweep can retry.
type CapsuleRecipient struct {
	ID          uuid.UUID  `json:"id"`
	CapsuleID   uuid.UUID  `json:"capsule_id"`
	Email       string     `json:"email"`
	Name        *string    `json:"name,omitempty"`
	EmailSent   bool       `json:"email_sent"`
	EmailSentAt *time.Time `json:"email_sent_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
