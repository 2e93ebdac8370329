package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quivio/quivio/internal/domain"
	"github.com/quivio/quivio/internal/mailer"
)

// In-memory fakes for the repository and infrastructure interfaces. Kept in
// one place because most service tests need several of them.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

type fakeCapsuleRepo struct {
	mu         sync.Mutex
	capsules   map[uuid.UUID]*domain.Capsule
	media      map[uuid.UUID][]domain.CapsuleMedia
	recipients map[uuid.UUID][]domain.CapsuleRecipient

	createErr     error
	markSentErr   error
	markOpenedErr error
}

func newFakeCapsuleRepo() *fakeCapsuleRepo {
	return &fakeCapsuleRepo{
		capsules:   make(map[uuid.UUID]*domain.Capsule),
		media:      make(map[uuid.UUID][]domain.CapsuleMedia),
		recipients: make(map[uuid.UUID][]domain.CapsuleRecipient),
	}
}

func (r *fakeCapsuleRepo) Create(_ context.Context, capsule *domain.Capsule, recipients []domain.CapsuleRecipient, media []domain.CapsuleMedia) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	c := *capsule
	r.capsules[capsule.ID] = &c
	r.recipients[capsule.ID] = append([]domain.CapsuleRecipient(nil), recipients...)
	r.media[capsule.ID] = append([]domain.CapsuleMedia(nil), media...)
	return nil
}

func (r *fakeCapsuleRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Capsule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.capsules[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCapsuleRepo) GetByIDForUser(_ context.Context, id, userID uuid.UUID) (*domain.Capsule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.capsules[id]
	if !ok || c.UserID != userID {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCapsuleRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Capsule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Capsule
	for _, c := range r.capsules {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCapsuleRepo) ListCreatedBetween(_ context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Capsule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Capsule
	for _, c := range r.capsules {
		if c.UserID == userID && !c.CreatedAt.Before(from) && !c.CreatedAt.After(to) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCapsuleRepo) ListOpenedBetween(_ context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Capsule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Capsule
	for _, c := range r.capsules {
		if c.UserID == userID && c.OpenedAt != nil && !c.OpenedAt.Before(from) && !c.OpenedAt.After(to) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCapsuleRepo) MarkOpened(_ context.Context, id uuid.UUID, openedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markOpenedErr != nil {
		return false, r.markOpenedErr
	}
	c, ok := r.capsules[id]
	if !ok || c.IsOpened {
		return false, nil
	}
	c.IsOpened = true
	t := openedAt
	c.OpenedAt = &t
	return true, nil
}

func (r *fakeCapsuleRepo) FindDue(_ context.Context, now time.Time) ([]domain.Capsule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Capsule
	for _, c := range r.capsules {
		if !c.IsOpened && !c.OpenDate.After(now) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCapsuleRepo) AddMedia(_ context.Context, media *domain.CapsuleMedia) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.media[media.CapsuleID] = append(r.media[media.CapsuleID], *media)
	return nil
}

func (r *fakeCapsuleRepo) GetMedia(_ context.Context, capsuleID, mediaID uuid.UUID) (*domain.CapsuleMedia, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.media[capsuleID] {
		if m.ID == mediaID {
			cp := m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeCapsuleRepo) ListMedia(_ context.Context, capsuleID uuid.UUID) ([]domain.CapsuleMedia, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.CapsuleMedia(nil), r.media[capsuleID]...), nil
}

func (r *fakeCapsuleRepo) CountMedia(_ context.Context, capsuleID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.media[capsuleID]), nil
}

func (r *fakeCapsuleRepo) DeleteMedia(_ context.Context, mediaID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for capsuleID, list := range r.media {
		for i, m := range list {
			if m.ID == mediaID {
				r.media[capsuleID] = append(list[:i], list[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (r *fakeCapsuleRepo) ListRecipients(_ context.Context, capsuleID uuid.UUID) ([]domain.CapsuleRecipient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.CapsuleRecipient(nil), r.recipients[capsuleID]...), nil
}

func (r *fakeCapsuleRepo) PendingRecipients(_ context.Context, capsuleID uuid.UUID) ([]domain.CapsuleRecipient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CapsuleRecipient
	for _, rec := range r.recipients[capsuleID] {
		if !rec.EmailSent {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeCapsuleRepo) MarkRecipientSent(_ context.Context, recipientID uuid.UUID, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markSentErr != nil {
		return r.markSentErr
	}
	for capsuleID, list := range r.recipients {
		for i, rec := range list {
			if rec.ID == recipientID {
				list[i].EmailSent = true
				t := sentAt
				list[i].EmailSentAt = &t
				r.recipients[capsuleID] = list
				return nil
			}
		}
	}
	return errors.New("recipient not found")
}

type fakeStorage struct {
	mu        sync.Mutex
	objects   map[string]string // key → content type
	uploadErr error
	deleteErr error
	failAfter int // fail uploads after this many succeed; 0 means never
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string]string)}
}

func (s *fakeStorage) Upload(_ context.Context, key, contentType string, body io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	if s.failAfter > 0 && len(s.objects) >= s.failAfter {
		return "", errors.New("upload failed")
	}
	io.Copy(io.Discard, body)
	s.objects[key] = contentType
	return "https://media.test/" + key, nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []uuid.UUID
	done  chan struct{}
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{done: make(chan struct{}, 16)}
}

func (d *fakeDispatcher) Dispatch(_ context.Context, capsuleID uuid.UUID) error {
	d.mu.Lock()
	d.calls = append(d.calls, capsuleID)
	d.mu.Unlock()
	d.done <- struct{}{}
	return nil
}

// wait blocks until Dispatch has been called, since the services invoke it
// from a goroutine.
func (d *fakeDispatcher) wait(t interface{ Fatalf(string, ...any) }) {
	select {
	case <-d.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("dispatch was never called")
	}
}

func (d *fakeDispatcher) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []string // recipient emails in send order
	failFor map[string]error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{failFor: make(map[string]error)}
}

func (m *fakeMailer) SendCapsuleNotification(_ context.Context, to string, _ mailer.CapsuleNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failFor[to]; ok {
		return err
	}
	m.sent = append(m.sent, to)
	return nil
}

func (m *fakeMailer) sentTo() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

type fakeNotifier struct {
	mu     sync.Mutex
	opened []uuid.UUID
}

func (n *fakeNotifier) CapsuleOpened(capsule *domain.Capsule) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.opened = append(n.opened, capsule.ID)
}

type fakeMoodRepo struct {
	mu    sync.Mutex
	moods map[string]*domain.Mood // userID|date
}

func newFakeMoodRepo() *fakeMoodRepo {
	return &fakeMoodRepo{moods: make(map[string]*domain.Mood)}
}

func dayKey(userID uuid.UUID, date time.Time) string {
	return userID.String() + "|" + date.UTC().Format("2006-01-02")
}

func (r *fakeMoodRepo) Upsert(_ context.Context, mood *domain.Mood) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := dayKey(mood.UserID, mood.Date)
	if existing, ok := r.moods[key]; ok {
		existing.MoodLevel = mood.MoodLevel
		existing.Note = mood.Note
		existing.UpdatedAt = mood.UpdatedAt
		return nil
	}
	cp := *mood
	r.moods[key] = &cp
	return nil
}

func (r *fakeMoodRepo) GetByDate(_ context.Context, userID uuid.UUID, date time.Time) (*domain.Mood, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.moods[dayKey(userID, date)]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMoodRepo) ListBetween(_ context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Mood, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Mood
	for _, m := range r.moods {
		if m.UserID == userID && !m.Date.Before(from) && !m.Date.After(to) {
			out = append(out, *m)
		}
	}
	return out, nil
}

type fakeDiaryRepo struct {
	mu      sync.Mutex
	entries map[string]*domain.DiaryEntry
}

func newFakeDiaryRepo() *fakeDiaryRepo {
	return &fakeDiaryRepo{entries: make(map[string]*domain.DiaryEntry)}
}

func (r *fakeDiaryRepo) Upsert(_ context.Context, entry *domain.DiaryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := dayKey(entry.UserID, entry.Date)
	if existing, ok := r.entries[key]; ok {
		existing.Content = entry.Content
		existing.WordCount = entry.WordCount
		existing.UpdatedAt = entry.UpdatedAt
		return nil
	}
	cp := *entry
	r.entries[key] = &cp
	return nil
}

func (r *fakeDiaryRepo) GetByDate(_ context.Context, userID uuid.UUID, date time.Time) (*domain.DiaryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[dayKey(userID, date)]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *fakeDiaryRepo) ListBetween(_ context.Context, userID uuid.UUID, from, to time.Time) ([]domain.DiaryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.DiaryEntry
	for _, e := range r.entries {
		if e.UserID == userID && !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, *e)
		}
	}
	return out, nil
}

type fakePhotoRepo struct {
	mu     sync.Mutex
	photos map[uuid.UUID]*domain.Photo
}

func newFakePhotoRepo() *fakePhotoRepo {
	return &fakePhotoRepo{photos: make(map[uuid.UUID]*domain.Photo)}
}

func (r *fakePhotoRepo) Create(_ context.Context, photo *domain.Photo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *photo
	r.photos[photo.ID] = &cp
	return nil
}

func (r *fakePhotoRepo) GetByIDForUser(_ context.Context, id, userID uuid.UUID) (*domain.Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.photos[id]
	if !ok || p.UserID != userID {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakePhotoRepo) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]domain.Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Photo
	for _, p := range r.photos {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakePhotoRepo) ListBetween(_ context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Photo
	for _, p := range r.photos {
		if p.UserID == userID && !p.Date.Before(from) && !p.Date.After(to) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePhotoRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.photos, id)
	return nil
}
