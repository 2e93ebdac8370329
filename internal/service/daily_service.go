package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quivio/quivio/internal/domain"
	"github.com/quivio/quivio/internal/repository"
)

var (
	ErrInvalidEntryDate = errors.New("invalid date format, use YYYY-MM-DD")
	ErrEditWindowClosed = errors.New("cannot edit entries after 11:59 PM")
)

// DailyService manages the one-mood-and-one-diary-per-day journal.
type DailyService struct {
	moodRepo  repository.MoodRepository
	diaryRepo repository.DiaryRepository
	photoRepo repository.PhotoRepository
}

func NewDailyService(moodRepo repository.MoodRepository, diaryRepo repository.DiaryRepository, photoRepo repository.PhotoRepository) *DailyService {
	return &DailyService{
		moodRepo:  moodRepo,
		diaryRepo: diaryRepo,
		photoRepo: photoRepo,
	}
}

type MoodInput struct {
	MoodLevel int    `json:"mood_level"`
	Note      string `json:"note"`
}

type DiaryInput struct {
	Content string `json:"content"`
}

// MoodView wraps a (possibly absent) mood with edit metadata for the UI.
type MoodView struct {
	Mood    *domain.Mood `json:"mood"`
	Date    string       `json:"date"`
	CanEdit bool         `json:"can_edit"`
}

type DiaryView struct {
	Diary   *domain.DiaryEntry `json:"diary"`
	Date    string             `json:"date"`
	CanEdit bool               `json:"can_edit"`
}

type DailyEntryView struct {
	Mood    *domain.Mood       `json:"mood"`
	Diary   *domain.DiaryEntry `json:"diary"`
	Photos  []domain.Photo     `json:"photos"`
	Date    string             `json:"date"`
	CanEdit bool               `json:"can_edit"`
}

// SaveMood creates or updates the mood entry for the given date (empty
// date means today).
func (s *DailyService) SaveMood(ctx context.Context, userID uuid.UUID, dateStr string, input MoodInput) (*domain.Mood, error) {
	targetDate, err := resolveEntryDate(dateStr)
	if err != nil {
		return nil, err
	}
	if isToday(targetDate) && !canEditEntry(targetDate) {
		return nil, ErrEditWindowClosed
	}

	now := time.Now().UTC()
	mood := &domain.Mood{
		ID:        uuid.New(),
		UserID:    userID,
		MoodLevel: input.MoodLevel,
		Date:      targetDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if note := strings.TrimSpace(input.Note); note != "" {
		mood.Note = &note
	}

	if err := s.moodRepo.Upsert(ctx, mood); err != nil {
		return nil, err
	}
	return s.moodRepo.GetByDate(ctx, userID, targetDate)
}

// SaveDiary creates or updates the diary entry for the given date. The
// word count is computed here, not trusted from the client.
func (s *DailyService) SaveDiary(ctx context.Context, userID uuid.UUID, dateStr string, input DiaryInput) (*domain.DiaryEntry, error) {
	targetDate, err := resolveEntryDate(dateStr)
	if err != nil {
		return nil, err
	}
	if isToday(targetDate) && !canEditEntry(targetDate) {
		return nil, ErrEditWindowClosed
	}

	now := time.Now().UTC()
	entry := &domain.DiaryEntry{
		ID:        uuid.New(),
		UserID:    userID,
		Content:   input.Content,
		WordCount: len(strings.Fields(input.Content)),
		Date:      targetDate,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.diaryRepo.Upsert(ctx, entry); err != nil {
		return nil, err
	}
	return s.diaryRepo.GetByDate(ctx, userID, targetDate)
}

func (s *DailyService) GetMood(ctx context.Context, userID uuid.UUID, dateStr string) (*MoodView, error) {
	targetDate, err := resolveEntryDate(dateStr)
	if err != nil {
		return nil, err
	}
	mood, err := s.moodRepo.GetByDate(ctx, userID, targetDate)
	if err != nil {
		return nil, err
	}
	return &MoodView{
		Mood:    mood,
		Date:    targetDate.Format("2006-01-02"),
		CanEdit: isToday(targetDate) && canEditEntry(targetDate),
	}, nil
}

func (s *DailyService) GetDiary(ctx context.Context, userID uuid.UUID, dateStr string) (*DiaryView, error) {
	targetDate, err := resolveEntryDate(dateStr)
	if err != nil {
		return nil, err
	}
	diary, err := s.diaryRepo.GetByDate(ctx, userID, targetDate)
	if err != nil {
		return nil, err
	}
	return &DiaryView{
		Diary:   diary,
		Date:    targetDate.Format("2006-01-02"),
		CanEdit: isToday(targetDate) && canEditEntry(targetDate),
	}, nil
}

// GetEntry returns the complete daily entry: mood, diary and photos.
func (s *DailyService) GetEntry(ctx context.Context, userID uuid.UUID, dateStr string) (*DailyEntryView, error) {
	targetDate, err := resolveEntryDate(dateStr)
	if err != nil {
		return nil, err
	}

	mood, err := s.moodRepo.GetByDate(ctx, userID, targetDate)
	if err != nil {
		return nil, err
	}
	diary, err := s.diaryRepo.GetByDate(ctx, userID, targetDate)
	if err != nil {
		return nil, err
	}
	photos, err := s.photoRepo.ListBetween(ctx, userID, targetDate, targetDate)
	if err != nil {
		return nil, err
	}
	if photos == nil {
		photos = []domain.Photo{}
	}

	return &DailyEntryView{
		Mood:    mood,
		Diary:   diary,
		Photos:  photos,
		Date:    targetDate.Format("2006-01-02"),
		CanEdit: isToday(targetDate) && canEditEntry(targetDate),
	}, nil
}

// resolveEntryDate parses YYYY-MM-DD; empty means today. The result is a
// civil date at UTC midnight.
func resolveEntryDate(dateStr string) (time.Time, error) {
	if strings.TrimSpace(dateStr) == "" {
		return Today(), nil
	}
	t, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, ErrInvalidEntryDate
	}
	return t.UTC(), nil
}

// Today returns the current civil date at UTC midnight.
func Today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func isToday(date time.Time) bool {
	return date.Equal(Today())
}

// canEditEntry reports whether the entry for date may still be written:
// only on the entry's own day, before 23:59:59.
func canEditEntry(date time.Time) bool {
	if !isToday(date) {
		return false
	}
	now := time.Now().UTC()
	cutoff := time.Date(date.Year(), date.Month(), date.Day(), 23, 59, 59, 0, time.UTC)
	return !now.After(cutoff)
}
