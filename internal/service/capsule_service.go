package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quivio/quivio/internal/domain"
	"github.com/quivio/quivio/internal/repository"
)

const (
	MaxMediaPerCapsule = 10
	MaxRecipients      = 30
	MaxImageSize       = 10 << 20 // 10MB
	MaxVideoSize       = 50 << 20 // 50MB
)

var (
	ErrCapsuleNotFound   = errors.New("capsule not found")
	ErrAlreadyOpened     = errors.New("capsule is already opened")
	ErrMediaNotFound     = errors.New("media not found")
	ErrTooManyFiles      = errors.New("maximum 10 files allowed per capsule")
	ErrTooManyRecipients = errors.New("maximum 30 recipient emails allowed")
	ErrInvalidOpenDate   = errors.New("invalid date format")
	ErrInvalidFile       = errors.New("invalid file")
)

// NotOpenableError is returned for an open attempt before the capsule's
// open date. Remaining is recomputed on every attempt.
type NotOpenableError struct {
	Remaining string
}

func (e *NotOpenableError) Error() string {
	return fmt.Sprintf("capsule cannot be opened yet. %s remaining", e.Remaining)
}

// MediaStorage is the external media host.
type MediaStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// Dispatcher delivers capsule-opened notifications to pending recipients.
type Dispatcher interface {
	Dispatch(ctx context.Context, capsuleID uuid.UUID) error
}

// Notifier pushes realtime events to the capsule owner's connected clients.
type Notifier interface {
	CapsuleOpened(capsule *domain.Capsule)
}

// FileUpload is one uploaded file, already read into memory by the handler.
type FileUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type CapsuleService struct {
	capsuleRepo repository.CapsuleRepository
	userRepo    repository.UserRepository
	storage     MediaStorage
	dispatcher  Dispatcher
	notifier    Notifier
}

func NewCapsuleService(capsuleRepo repository.CapsuleRepository, userRepo repository.UserRepository, storage MediaStorage, dispatcher Dispatcher) *CapsuleService {
	return &CapsuleService{
		capsuleRepo: capsuleRepo,
		userRepo:    userRepo,
		storage:     storage,
		dispatcher:  dispatcher,
	}
}

// SetNotifier attaches the realtime notifier. Optional; wired after the
// ws hub exists.
func (s *CapsuleService) SetNotifier(n Notifier) {
	s.notifier = n
}

type CreateCapsuleInput struct {
	Title     string
	Message   string
	OpenDate  string // ISO-8601; naive timestamps are treated as UTC
	IsPrivate bool

	// Single optional recipient stored on the capsule itself.
	RecipientEmail string

	// Multi-recipient form.
	RecipientEmails []string
	SendToSelf      bool

	Files []FileUpload
}

// Create persists a capsule with its recipients and media as one unit.
// Any upload failure aborts the whole creation; objects already pushed to
// the media host are cleaned up best-effort.
func (s *CapsuleService) Create(ctx context.Context, userID uuid.UUID, input CreateCapsuleInput) (*domain.Capsule, error) {
	openDate, err := ParseOpenDate(input.OpenDate)
	if err != nil {
		return nil, err
	}

	if len(input.Files) > MaxMediaPerCapsule {
		return nil, ErrTooManyFiles
	}
	for _, f := range input.Files {
		if err := validateFile(f); err != nil {
			return nil, err
		}
	}

	emails := normalizeEmails(input.RecipientEmails)
	if len(emails) > MaxRecipients {
		return nil, ErrTooManyRecipients
	}

	now := time.Now().UTC()
	capsule := &domain.Capsule{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     strings.TrimSpace(input.Title),
		Message:   input.Message,
		IsPrivate: input.IsPrivate,
		OpenDate:  openDate,
		CreatedAt: now,
	}
	if e := strings.TrimSpace(input.RecipientEmail); e != "" {
		capsule.RecipientEmail = &e
	}

	recipients := make([]domain.CapsuleRecipient, 0, len(emails)+1)
	for _, email := range emails {
		recipients = append(recipients, domain.CapsuleRecipient{
			ID:        uuid.New(),
			CapsuleID: capsule.ID,
			Email:     email,
			CreatedAt: now,
		})
	}
	if input.SendToSelf {
		owner, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if owner == nil {
			return nil, fmt.Errorf("owner %s not found", userID)
		}
		// The owner's entry is not deduplicated against an identical
		// email already in the list; the same address can get two
		// notifications. Known product question, left as-is.
		name := owner.Username
		recipients = append(recipients, domain.CapsuleRecipient{
			ID:        uuid.New(),
			CapsuleID: capsule.ID,
			Email:     owner.Email,
			Name:      &name,
			CreatedAt: now,
		})
	}

	var media []domain.CapsuleMedia
	for _, f := range input.Files {
		key := mediaKey("capsules", f.Filename)
		url, err := s.storage.Upload(ctx, key, f.ContentType, bytes.NewReader(f.Data))
		if err != nil {
			s.cleanupUploads(ctx, media)
			return nil, fmt.Errorf("uploading %s: %w", f.Filename, err)
		}
		media = append(media, domain.CapsuleMedia{
			ID:         uuid.New(),
			CapsuleID:  capsule.ID,
			StorageKey: key,
			URL:        url,
			Type:       mediaType(f.ContentType),
			CreatedAt:  now,
		})
	}

	if err := s.capsuleRepo.Create(ctx, capsule, recipients, media); err != nil {
		s.cleanupUploads(ctx, media)
		return nil, fmt.Errorf("creating capsule: %w", err)
	}

	capsule.Media = media
	if capsule.Media == nil {
		capsule.Media = []domain.CapsuleMedia{}
	}
	capsule.Recipients = recipients
	return capsule, nil
}

func (s *CapsuleService) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Capsule, error) {
	capsules, err := s.capsuleRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range capsules {
		media, err := s.capsuleRepo.ListMedia(ctx, capsules[i].ID)
		if err != nil {
			return nil, err
		}
		if media == nil {
			media = []domain.CapsuleMedia{}
		}
		capsules[i].Media = media
	}
	return capsules, nil
}

func (s *CapsuleService) Get(ctx context.Context, userID, capsuleID uuid.UUID) (*domain.Capsule, error) {
	capsule, err := s.capsuleRepo.GetByIDForUser(ctx, capsuleID, userID)
	if err != nil {
		return nil, err
	}
	if capsule == nil {
		return nil, ErrCapsuleNotFound
	}
	return s.loadRelations(ctx, capsule)
}

// Open performs the user-initiated sealed→opened transition. On success it
// schedules notification dispatch in the background and returns without
// waiting on any email I/O.
func (s *CapsuleService) Open(ctx context.Context, userID, capsuleID uuid.UUID) (*domain.Capsule, error) {
	capsule, err := s.capsuleRepo.GetByIDForUser(ctx, capsuleID, userID)
	if err != nil {
		return nil, err
	}
	if capsule == nil {
		return nil, ErrCapsuleNotFound
	}
	if capsule.IsOpened {
		return nil, ErrAlreadyOpened
	}

	now := time.Now().UTC()
	openDate := capsule.OpenDate.UTC()
	if now.Before(openDate) {
		return nil, &NotOpenableError{Remaining: FormatRemaining(openDate.Sub(now))}
	}

	opened, err := s.openAndDispatch(ctx, capsule, now)
	if err != nil {
		return nil, err
	}
	if !opened {
		// Lost the race against the sweep.
		return nil, ErrAlreadyOpened
	}

	return s.loadRelations(ctx, capsule)
}

// openAndDispatch is the single transition path shared by the user-initiated
// open and the periodic sweep. The compare-and-swap in the repository
// guarantees at most one caller wins; only the winner schedules dispatch.
func (s *CapsuleService) openAndDispatch(ctx context.Context, capsule *domain.Capsule, now time.Time) (bool, error) {
	won, err := s.capsuleRepo.MarkOpened(ctx, capsule.ID, now)
	if err != nil {
		return false, fmt.Errorf("opening capsule %s: %w", capsule.ID, err)
	}
	if !won {
		return false, nil
	}

	capsule.IsOpened = true
	openedAt := now
	capsule.OpenedAt = &openedAt

	if s.notifier != nil {
		s.notifier.CapsuleOpened(capsule)
	}

	// Fire and forget: dispatch outcome never affects the transition.
	capsuleID := capsule.ID
	go func() {
		if err := s.dispatcher.Dispatch(context.Background(), capsuleID); err != nil {
			log.Printf("ERROR dispatch for capsule %s: %v", capsuleID, err)
		}
	}()

	return true, nil
}

// AddMedia appends media to a sealed capsule. Unlike Create, failures are
// per-file: a file that fails to upload is skipped, files already added in
// the same call stay.
func (s *CapsuleService) AddMedia(ctx context.Context, userID, capsuleID uuid.UUID, files []FileUpload) ([]domain.CapsuleMedia, error) {
	capsule, err := s.capsuleRepo.GetByIDForUser(ctx, capsuleID, userID)
	if err != nil {
		return nil, err
	}
	if capsule == nil {
		return nil, ErrCapsuleNotFound
	}
	if capsule.IsOpened {
		return nil, ErrAlreadyOpened
	}

	count, err := s.capsuleRepo.CountMedia(ctx, capsuleID)
	if err != nil {
		return nil, err
	}
	if count+len(files) > MaxMediaPerCapsule {
		return nil, ErrTooManyFiles
	}

	for _, f := range files {
		if err := validateFile(f); err != nil {
			return nil, err
		}
	}

	added := []domain.CapsuleMedia{}
	for _, f := range files {
		key := mediaKey("capsules", f.Filename)
		url, err := s.storage.Upload(ctx, key, f.ContentType, bytes.NewReader(f.Data))
		if err != nil {
			log.Printf("ERROR upload %s for capsule %s: %v", f.Filename, capsuleID, err)
			continue
		}
		m := domain.CapsuleMedia{
			ID:         uuid.New(),
			CapsuleID:  capsuleID,
			StorageKey: key,
			URL:        url,
			Type:       mediaType(f.ContentType),
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.capsuleRepo.AddMedia(ctx, &m); err != nil {
			log.Printf("ERROR saving media record for %s: %v", f.Filename, err)
			if derr := s.storage.Delete(ctx, key); derr != nil {
				log.Printf("ERROR cleaning up %s: %v", key, derr)
			}
			continue
		}
		added = append(added, m)
	}
	return added, nil
}

// DeleteMedia removes one media item from a sealed capsule. External
// deletion is best-effort; the local record is removed regardless.
func (s *CapsuleService) DeleteMedia(ctx context.Context, userID, capsuleID, mediaID uuid.UUID) error {
	capsule, err := s.capsuleRepo.GetByIDForUser(ctx, capsuleID, userID)
	if err != nil {
		return err
	}
	if capsule == nil {
		return ErrCapsuleNotFound
	}
	if capsule.IsOpened {
		return ErrAlreadyOpened
	}

	media, err := s.capsuleRepo.GetMedia(ctx, capsuleID, mediaID)
	if err != nil {
		return err
	}
	if media == nil {
		return ErrMediaNotFound
	}

	if err := s.storage.Delete(ctx, media.StorageKey); err != nil {
		log.Printf("ERROR deleting %s from media host: %v", media.StorageKey, err)
	}

	return s.capsuleRepo.DeleteMedia(ctx, mediaID)
}

func (s *CapsuleService) loadRelations(ctx context.Context, capsule *domain.Capsule) (*domain.Capsule, error) {
	media, err := s.capsuleRepo.ListMedia(ctx, capsule.ID)
	if err != nil {
		return nil, err
	}
	if media == nil {
		media = []domain.CapsuleMedia{}
	}
	capsule.Media = media

	recipients, err := s.capsuleRepo.ListRecipients(ctx, capsule.ID)
	if err != nil {
		return nil, err
	}
	capsule.Recipients = recipients
	return capsule, nil
}

func (s *CapsuleService) cleanupUploads(ctx context.Context, media []domain.CapsuleMedia) {
	for _, m := range media {
		if err := s.storage.Delete(ctx, m.StorageKey); err != nil {
			log.Printf("ERROR cleaning up %s from media host: %v", m.StorageKey, err)
		}
	}
}

// ParseOpenDate accepts ISO-8601 timestamps. A timestamp without a zone is
// treated as UTC, never as server-local time.
func ParseOpenDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidOpenDate
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidOpenDate
}

// FormatRemaining renders the time until an open date at the coarsest
// sensible unit: whole days above 24h, whole hours above 1h, otherwise
// whole minutes with a floor of 1.
func FormatRemaining(d time.Duration) string {
	total := int(d.Seconds())
	switch {
	case total > 86400:
		days := total / 86400
		return fmt.Sprintf("%d %s", days, pluralize("day", days))
	case total > 3600:
		hours := total / 3600
		return fmt.Sprintf("%d %s", hours, pluralize("hour", hours))
	default:
		minutes := total / 60
		if minutes < 1 {
			minutes = 1
		}
		return fmt.Sprintf("%d %s", minutes, pluralize("minute", minutes))
	}
}

func pluralize(unit string, n int) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

func normalizeEmails(emails []string) []string {
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.TrimSpace(e)
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

func validateFile(f FileUpload) error {
	switch {
	case strings.HasPrefix(f.ContentType, "image/"):
		if len(f.Data) > MaxImageSize {
			return fmt.Errorf("%w: file %s exceeds 10MB limit", ErrInvalidFile, f.Filename)
		}
	case strings.HasPrefix(f.ContentType, "video/"):
		if len(f.Data) > MaxVideoSize {
			return fmt.Errorf("%w: file %s exceeds 50MB limit", ErrInvalidFile, f.Filename)
		}
	default:
		return fmt.Errorf("%w: file %s must be an image or video", ErrInvalidFile, f.Filename)
	}
	return nil
}

func mediaType(contentType string) string {
	if strings.HasPrefix(contentType, "video/") {
		return domain.MediaTypeVideo
	}
	return domain.MediaTypeImage
}

func mediaKey(folder, filename string) string {
	return folder + "/" + uuid.NewString() + strings.ToLower(path.Ext(filename))
}
