package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/quivio/quivio/internal/domain"
	"github.com/quivio/quivio/internal/mailer"
	"github.com/quivio/quivio/internal/repository"
	"golang.org/x/sync/errgroup"
)

const defaultSendTimeout = 30 * time.Second

// DispatchService delivers one notification per pending recipient of an
// opened capsule. Sends run concurrently and failures are isolated: a
// recipient whose send fails stays pending and is picked up again the next
// time the capsule is dispatched (the pending filter makes redispatch
// idempotent).
type DispatchService struct {
	capsuleRepo repository.CapsuleRepository
	userRepo    repository.UserRepository
	mailer      mailer.Mailer
	sendTimeout time.Duration
}

func NewDispatchService(capsuleRepo repository.CapsuleRepository, userRepo repository.UserRepository, m mailer.Mailer, sendTimeout time.Duration) *DispatchService {
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	return &DispatchService{
		capsuleRepo: capsuleRepo,
		userRepo:    userRepo,
		mailer:      m,
		sendTimeout: sendTimeout,
	}
}

// Dispatch sends notifications for capsuleID. A capsule that is missing or
// still sealed is a no-op. The returned error covers only loading the
// dispatch inputs; per-recipient send failures are logged, never returned.
func (d *DispatchService) Dispatch(ctx context.Context, capsuleID uuid.UUID) error {
	capsule, err := d.capsuleRepo.GetByID(ctx, capsuleID)
	if err != nil {
		return fmt.Errorf("loading capsule %s: %w", capsuleID, err)
	}
	if capsule == nil || !capsule.IsOpened {
		return nil
	}

	owner, err := d.userRepo.GetByID(ctx, capsule.UserID)
	if err != nil {
		return fmt.Errorf("loading owner of capsule %s: %w", capsuleID, err)
	}
	if owner == nil {
		return fmt.Errorf("owner %s of capsule %s not found", capsule.UserID, capsuleID)
	}

	pending, err := d.capsuleRepo.PendingRecipients(ctx, capsuleID)
	if err != nil {
		return fmt.Errorf("loading pending recipients: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	media, err := d.capsuleRepo.ListMedia(ctx, capsuleID)
	if err != nil {
		return fmt.Errorf("loading media: %w", err)
	}

	var images, videos []string
	for _, m := range media {
		if m.Type == domain.MediaTypeVideo {
			videos = append(videos, m.URL)
		} else {
			images = append(images, m.URL)
		}
	}

	var g errgroup.Group
	for _, rec := range pending {
		g.Go(func() error {
			d.sendOne(ctx, capsule, owner, rec, images, videos)
			return nil
		})
	}
	g.Wait()

	return nil
}

func (d *DispatchService) sendOne(ctx context.Context, capsule *domain.Capsule, owner *domain.User, rec domain.CapsuleRecipient, images, videos []string) {
	n := mailer.CapsuleNotification{
		CapsuleTitle:   capsule.Title,
		CapsuleMessage: capsule.Message,
		SenderName:     owner.Username,
		CreatedDate:    capsule.CreatedAt.Format("January 2, 2006"),
		IsPersonal:     rec.Email == owner.Email,
		ImageURLs:      images,
		VideoURLs:      videos,
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	if err := d.mailer.SendCapsuleNotification(sendCtx, rec.Email, n); err != nil {
		log.Printf("ERROR sending capsule %s notification to %s: %v", capsule.ID, rec.Email, err)
		return
	}

	if err := d.capsuleRepo.MarkRecipientSent(ctx, rec.ID, time.Now().UTC()); err != nil {
		// The email went out but the flag did not stick; the recipient may
		// get a duplicate on the next sweep.
		log.Printf("ERROR marking recipient %s sent: %v", rec.ID, err)
	}
}
