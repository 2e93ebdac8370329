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

type DiaryRepo struct {
	pool *pgxpool.Pool
}

func NewDiaryRepo(pool *pgxpool.Pool) *DiaryRepo {
	return &DiaryRepo{pool: pool}
}

func (r *DiaryRepo) Upsert(ctx context.Context, e *domain.DiaryEntry) error {
	query := `
		INSERT INTO diary_entries (id, user_id, content, word_count, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, date) DO UPDATE
		SET content = EXCLUDED.content, word_count = EXCLUDED.word_count, updated_at = EXCLUDED.updated_at`
	_, err := r.pool.Exec(ctx, query,
		e.ID, e.UserID, e.Content, e.WordCount, e.Date, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

func (r *DiaryRepo) GetByDate(ctx context.Context, userID uuid.UUID, date time.Time) (*domain.DiaryEntry, error) {
	var e domain.DiaryEntry
	err := r.pool.QueryRow(ctx,
		"SELECT id, user_id, content, word_count, date, created_at, updated_at FROM diary_entries WHERE user_id = $1 AND date = $2",
		userID, date,
	).Scan(&e.ID, &e.UserID, &e.Content, &e.WordCount, &e.Date, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &e, err
}

func (r *DiaryRepo) ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.DiaryEntry, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id, user_id, content, word_count, date, created_at, updated_at FROM diary_entries WHERE user_id = $1 AND date >= $2 AND date <= $3 ORDER BY date",
		userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.DiaryEntry
	for rows.Next() {
		var e domain.DiaryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Content, &e.WordCount, &e.Date, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
