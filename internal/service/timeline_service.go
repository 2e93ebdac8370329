package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/quivio/quivio/internal/repository"
)

var (
	ErrInvalidYear  = errors.New("year must be between 2020 and 2030")
	ErrInvalidMonth = errors.New("month must be between 1 and 12")
)

const diaryExcerptLen = 100

// TimelineService aggregates journal activity into a per-day calendar view.
type TimelineService struct {
	moodRepo    repository.MoodRepository
	diaryRepo   repository.DiaryRepository
	photoRepo   repository.PhotoRepository
	capsuleRepo repository.CapsuleRepository
}

func NewTimelineService(moodRepo repository.MoodRepository, diaryRepo repository.DiaryRepository, photoRepo repository.PhotoRepository, capsuleRepo repository.CapsuleRepository) *TimelineService {
	return &TimelineService{
		moodRepo:    moodRepo,
		diaryRepo:   diaryRepo,
		photoRepo:   photoRepo,
		capsuleRepo: capsuleRepo,
	}
}

type CalendarDay struct {
	Mood           *CalendarMood    `json:"mood,omitempty"`
	Diary          *CalendarDiary   `json:"diary,omitempty"`
	Photos         []CalendarPhoto  `json:"photos,omitempty"`
	Capsules       []CalendarCapsule `json:"capsules,omitempty"`
	OpenedCapsules []CalendarCapsule `json:"opened_capsules,omitempty"`
}

type CalendarMood struct {
	MoodLevel int     `json:"mood_level"`
	Note      *string `json:"note,omitempty"`
}

type CalendarDiary struct {
	Excerpt   string `json:"excerpt"`
	WordCount int    `json:"word_count"`
}

type CalendarPhoto struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"image_url"`
	HasLocation bool      `json:"has_location"`
}

type CalendarCapsule struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	IsOpened bool      `json:"is_opened"`
}

type CalendarResponse struct {
	Year                 int                    `json:"year"`
	Month                int                    `json:"month"`
	MonthName            string                 `json:"month_name"`
	CalendarData         map[string]*CalendarDay `json:"calendar_data"`
	TotalDaysWithEntries int                    `json:"total_days_with_entries"`
}

// Calendar returns every day of the month that has journal activity:
// the mood, a diary excerpt, photos, and capsules created or opened that
// day. Days without activity are omitted from the map.
func (s *TimelineService) Calendar(ctx context.Context, userID uuid.UUID, year, month int) (*CalendarResponse, error) {
	if year < 2020 || year > 2030 {
		return nil, ErrInvalidYear
	}
	if month < 1 || month > 12 {
		return nil, ErrInvalidMonth
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Second)

	days := make(map[string]*CalendarDay)
	day := func(t time.Time) *CalendarDay {
		key := t.UTC().Format("2006-01-02")
		d, ok := days[key]
		if !ok {
			d = &CalendarDay{}
			days[key] = d
		}
		return d
	}

	moods, err := s.moodRepo.ListBetween(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	for _, m := range moods {
		day(m.Date).Mood = &CalendarMood{MoodLevel: m.MoodLevel, Note: m.Note}
	}

	entries, err := s.diaryRepo.ListBetween(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		day(e.Date).Diary = &CalendarDiary{
			Excerpt:   excerpt(e.Content, diaryExcerptLen),
			WordCount: e.WordCount,
		}
	}

	photos, err := s.photoRepo.ListBetween(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	for _, p := range photos {
		d := day(p.Date)
		d.Photos = append(d.Photos, CalendarPhoto{
			ID:          p.ID,
			Title:       p.Title,
			URL:         p.URL,
			HasLocation: p.LocationLat != nil && p.LocationLng != nil,
		})
	}

	created, err := s.capsuleRepo.ListCreatedBetween(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	for _, c := range created {
		d := day(c.CreatedAt)
		d.Capsules = append(d.Capsules, CalendarCapsule{ID: c.ID, Title: c.Title, IsOpened: c.IsOpened})
	}

	opened, err := s.capsuleRepo.ListOpenedBetween(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	for _, c := range opened {
		if c.OpenedAt == nil {
			continue
		}
		d := day(*c.OpenedAt)
		d.OpenedCapsules = append(d.OpenedCapsules, CalendarCapsule{ID: c.ID, Title: c.Title, IsOpened: true})
	}

	return &CalendarResponse{
		Year:                 year,
		Month:                month,
		MonthName:            from.Month().String(),
		CalendarData:         days,
		TotalDaysWithEntries: len(days),
	}, nil
}

func excerpt(content string, max int) string {
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "..."
}
