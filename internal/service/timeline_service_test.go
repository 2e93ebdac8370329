package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quivio/quivio/internal/domain"
)

func newTestTimeline() (*TimelineService, *fakeMoodRepo, *fakeDiaryRepo, *fakePhotoRepo, *fakeCapsuleRepo) {
	moodRepo := newFakeMoodRepo()
	diaryRepo := newFakeDiaryRepo()
	photoRepo := newFakePhotoRepo()
	capsuleRepo := newFakeCapsuleRepo()
	return NewTimelineService(moodRepo, diaryRepo, photoRepo, capsuleRepo), moodRepo, diaryRepo, photoRepo, capsuleRepo
}

func TestCalendarValidatesRange(t *testing.T) {
	svc, _, _, _, _ := newTestTimeline()
	userID := uuid.New()

	if _, err := svc.Calendar(context.Background(), userID, 2019, 6); !errors.Is(err, ErrInvalidYear) {
		t.Errorf("year 2019: err = %v, want ErrInvalidYear", err)
	}
	if _, err := svc.Calendar(context.Background(), userID, 2031, 6); !errors.Is(err, ErrInvalidYear) {
		t.Errorf("year 2031: err = %v, want ErrInvalidYear", err)
	}
	if _, err := svc.Calendar(context.Background(), userID, 2025, 0); !errors.Is(err, ErrInvalidMonth) {
		t.Errorf("month 0: err = %v, want ErrInvalidMonth", err)
	}
	if _, err := svc.Calendar(context.Background(), userID, 2025, 13); !errors.Is(err, ErrInvalidMonth) {
		t.Errorf("month 13: err = %v, want ErrInvalidMonth", err)
	}
}

func TestCalendarAggregatesByDay(t *testing.T) {
	svc, moodRepo, diaryRepo, photoRepo, capsuleRepo := newTestTimeline()
	userID := uuid.New()

	day10 := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	day12 := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	moodRepo.Upsert(context.Background(), &domain.Mood{
		ID: uuid.New(), UserID: userID, MoodLevel: 4, Date: day10,
	})
	diaryRepo.Upsert(context.Background(), &domain.DiaryEntry{
		ID: uuid.New(), UserID: userID,
		Content: strings.Repeat("journaling every day keeps me sane ", 5),
		WordCount: 30, Date: day10,
	})
	lat, lng := 45.81, 15.98
	photoRepo.Create(context.Background(), &domain.Photo{
		ID: uuid.New(), UserID: userID, Title: "park", Date: day12,
		LocationLat: &lat, LocationLng: &lng,
	})

	openedAt := day12.Add(9 * time.Hour)
	capsuleRepo.Create(context.Background(), &domain.Capsule{
		ID: uuid.New(), UserID: userID, Title: "March capsule",
		OpenDate:  day12,
		IsOpened:  true,
		OpenedAt:  &openedAt,
		CreatedAt: day10.Add(14 * time.Hour),
	}, nil, nil)

	resp, err := svc.Calendar(context.Background(), userID, 2025, 3)
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}

	if resp.MonthName != "March" {
		t.Errorf("month name = %q, want March", resp.MonthName)
	}
	if resp.TotalDaysWithEntries != 2 {
		t.Fatalf("days with entries = %d, want 2", resp.TotalDaysWithEntries)
	}

	d10 := resp.CalendarData["2025-03-10"]
	if d10 == nil || d10.Mood == nil || d10.Diary == nil {
		t.Fatalf("2025-03-10 = %+v, want mood and diary", d10)
	}
	if len(d10.Diary.Excerpt) != diaryExcerptLen+3 || !strings.HasSuffix(d10.Diary.Excerpt, "...") {
		t.Errorf("excerpt = %q, want %d chars plus ellipsis", d10.Diary.Excerpt, diaryExcerptLen)
	}
	if len(d10.Capsules) != 1 {
		t.Errorf("capsules created on day 10 = %d, want 1", len(d10.Capsules))
	}

	d12 := resp.CalendarData["2025-03-12"]
	if d12 == nil || len(d12.Photos) != 1 || len(d12.OpenedCapsules) != 1 {
		t.Fatalf("2025-03-12 = %+v, want a photo and an opened capsule", d12)
	}
	if !d12.Photos[0].HasLocation {
		t.Error("photo with lat/lng should report has_location")
	}
}

func TestCalendarShortDiaryKeptWhole(t *testing.T) {
	svc, _, diaryRepo, _, _ := newTestTimeline()
	userID := uuid.New()

	day := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	diaryRepo.Upsert(context.Background(), &domain.DiaryEntry{
		ID: uuid.New(), UserID: userID, Content: "short", WordCount: 1, Date: day,
	})

	resp, err := svc.Calendar(context.Background(), userID, 2025, 7)
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if got := resp.CalendarData["2025-07-01"].Diary.Excerpt; got != "short" {
		t.Errorf("excerpt = %q, want %q", got, "short")
	}
}

func TestCalendarEmptyMonth(t *testing.T) {
	svc, _, _, _, _ := newTestTimeline()

	resp, err := svc.Calendar(context.Background(), uuid.New(), 2025, 1)
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if len(resp.CalendarData) != 0 || resp.TotalDaysWithEntries != 0 {
		t.Errorf("empty month should produce an empty map: %+v", resp)
	}
}
