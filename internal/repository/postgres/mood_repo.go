package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quivio/quivio/internal/domain"
)

type MoodRepo struct {
	pool *pgxpool.Pool
}

func NewMoodRepo(pool *pgxpool.Pool) *MoodRepo {
	return &MoodRepo{pool: pool}
}

func (r *MoodRepo) Upsert(ctx context.Context, m *domain.Mood) error {
	query := `
		INSERT INTO moods (id, user_id, mood_level, note, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, date) DO UPDATE
		SET mood_level = EXCLUDED.mood_level, note = EXCLUDED.note, updated_at = EXCLUDED.updated_at`
	_, err := r.pool.Exec(ctx, query,
		m.ID, m.UserID, m.MoodLevel, m.Note, m.Date, m.CreatedAt, m.UpdatedAt,
	)
	return err
}

func (r *MoodRepo) GetByDate(ctx context.Context, userID uuid.UUID, date time.Time) (*domain.Mood, error) {
	var m domain.Mood
	err := r.pool.QueryRow(ctx,
		"SELECT id, user_id, mood_level, note, date, created_at, updated_at FROM moods WHERE user_id = $1 AND date = $2",
		userID, date,
	).Scan(&m.ID, &m.UserID, &m.MoodLevel, &m.Note, &m.Date, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &m, err
}

func (r *MoodRepo) ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Mood, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id, user_id, mood_level, note, date, created_at, updated_at FROM moods WHERE user_id = $1 AND date >= $2 AND date <= $3 ORDER BY date",
		userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var moods []domain.Mood
	for rows.Next() {
		var m domain.Mood
		if err := rows.Scan(&m.ID, &m.UserID, &m.MoodLevel, &m.Note, &m.Date, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		moods = append(moods, m)
	}
	return moods, rows.Err()
}
