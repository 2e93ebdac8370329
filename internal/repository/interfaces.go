package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/quivio/quivio/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type CapsuleRepository interface {
	// Create persists the capsule together with its recipients and media
	// records in a single transaction.
	Create(ctx context.Context, capsule *domain.Capsule, recipients []domain.CapsuleRecipient, media []domain.CapsuleMedia) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Capsule, error)
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Capsule, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Capsule, error)
	ListCreatedBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Capsule, error)
	ListOpenedBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Capsule, error)

	// MarkOpened flips the sealed capsule to opened. It reports false when
	// the capsule was already opened, so of two concurrent attempts exactly
	// one observes true.
	MarkOpened(ctx context.Context, id uuid.UUID, openedAt time.Time) (bool, error)
	FindDue(ctx context.Context, now time.Time) ([]domain.Capsule, error)

	AddMedia(ctx context.Context, media *domain.CapsuleMedia) error
	GetMedia(ctx context.Context, capsuleID, mediaID uuid.UUID) (*domain.CapsuleMedia, error)
	ListMedia(ctx context.Context, capsuleID uuid.UUID) ([]domain.CapsuleMedia, error)
	CountMedia(ctx context.Context, capsuleID uuid.UUID) (int, error)
	DeleteMedia(ctx context.Context, mediaID uuid.UUID) error

	ListRecipients(ctx context.Context, capsuleID uuid.UUID) ([]domain.CapsuleRecipient, error)
	PendingRecipients(ctx context.Context, capsuleID uuid.UUID) ([]domain.CapsuleRecipient, error)
	MarkRecipientSent(ctx context.Context, recipientID uuid.UUID, sentAt time.Time) error
}

type MoodRepository interface {
	Upsert(ctx context.Context, mood *domain.Mood) error
	GetByDate(ctx context.Context, userID uuid.UUID, date time.Time) (*domain.Mood, error)
	ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Mood, error)
}

type DiaryRepository interface {
	Upsert(ctx context.Context, entry *domain.DiaryEntry) error
	GetByDate(ctx context.Context, userID uuid.UUID, date time.Time) (*domain.DiaryEntry, error)
	ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.DiaryEntry, error)
}

type PhotoRepository interface {
	Create(ctx context.Context, photo *domain.Photo) error
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Photo, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Photo, error)
	ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Photo, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
