package service

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quivio/quivio/internal/domain"
	"github.com/quivio/quivio/internal/repository"
)

var ErrPhotoNotFound = errors.New("photo not found")

type PhotoService struct {
	photoRepo repository.PhotoRepository
	storage   MediaStorage
}

func NewPhotoService(photoRepo repository.PhotoRepository, storage MediaStorage) *PhotoService {
	return &PhotoService{
		photoRepo: photoRepo,
		storage:   storage,
	}
}

type UploadPhotoInput struct {
	Title        string
	Date         string
	LocationLat  *float64
	LocationLng  *float64
	LocationName string
	File         FileUpload
}

// Upload stores a journal photo. Only images are accepted, with the same
// size cap as capsule images.
func (s *PhotoService) Upload(ctx context.Context, userID uuid.UUID, input UploadPhotoInput) (*domain.Photo, error) {
	if mediaType(input.File.ContentType) != domain.MediaTypeImage {
		return nil, ErrInvalidFile
	}
	if len(input.File.Data) > MaxImageSize {
		return nil, ErrInvalidFile
	}

	date, err := resolveEntryDate(input.Date)
	if err != nil {
		return nil, err
	}

	key := mediaKey("photos", input.File.Filename)
	url, err := s.storage.Upload(ctx, key, input.File.ContentType, bytes.NewReader(input.File.Data))
	if err != nil {
		return nil, err
	}

	photo := &domain.Photo{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       input.Title,
		StorageKey:  key,
		URL:         url,
		LocationLat: input.LocationLat,
		LocationLng: input.LocationLng,
		Date:        date,
		CreatedAt:   time.Now().UTC(),
	}
	if name := strings.TrimSpace(input.LocationName); name != "" {
		photo.LocationName = &name
	}

	if err := s.photoRepo.Create(ctx, photo); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			log.Printf("ERROR cleaning up photo object %s: %v", key, delErr)
		}
		return nil, err
	}
	return photo, nil
}

func (s *PhotoService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Photo, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	photos, err := s.photoRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if photos == nil {
		photos = []domain.Photo{}
	}
	return photos, nil
}

// Delete removes the photo row and makes a best-effort attempt to remove
// the stored object. A storage failure leaves an orphan object, never an
// orphan row.
func (s *PhotoService) Delete(ctx context.Context, userID, photoID uuid.UUID) error {
	photo, err := s.photoRepo.GetByIDForUser(ctx, photoID, userID)
	if err != nil {
		return err
	}
	if photo == nil {
		return ErrPhotoNotFound
	}

	if err := s.storage.Delete(ctx, photo.StorageKey); err != nil {
		log.Printf("ERROR deleting photo object %s: %v", photo.StorageKey, err)
	}
	return s.photoRepo.Delete(ctx, photoID)
}
