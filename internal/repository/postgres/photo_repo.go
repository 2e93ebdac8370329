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

const photoColumns = "id, user_id, title, storage_key, image_url, location_lat, location_lng, location_name, date, created_at"

type PhotoRepo struct {
	pool *pgxpool.Pool
}

func NewPhotoRepo(pool *pgxpool.Pool) *PhotoRepo {
	return &PhotoRepo{pool: pool}
}

func (r *PhotoRepo) Create(ctx context.Context, p *domain.Photo) error {
	query := `
		INSERT INTO photos (id, user_id, title, storage_key, image_url, location_lat, location_lng, location_name, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.pool.Exec(ctx, query,
		p.ID, p.UserID, p.Title, p.StorageKey, p.URL,
		p.LocationLat, p.LocationLng, p.LocationName, p.Date, p.CreatedAt,
	)
	return err
}

func (r *PhotoRepo) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Photo, error) {
	var p domain.Photo
	err := r.pool.QueryRow(ctx,
		"SELECT "+photoColumns+" FROM photos WHERE id = $1 AND user_id = $2", id, userID,
	).Scan(&p.ID, &p.UserID, &p.Title, &p.StorageKey, &p.URL, &p.LocationLat, &p.LocationLng, &p.LocationName, &p.Date, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &p, err
}

func (r *PhotoRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Photo, error) {
	return r.queryPhotos(ctx,
		"SELECT "+photoColumns+" FROM photos WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3",
		userID, limit, offset)
}

func (r *PhotoRepo) ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Photo, error) {
	return r.queryPhotos(ctx,
		"SELECT "+photoColumns+" FROM photos WHERE user_id = $1 AND date >= $2 AND date <= $3 ORDER BY date",
		userID, from, to)
}

func (r *PhotoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM photos WHERE id = $1", id)
	return err
}

func (r *PhotoRepo) queryPhotos(ctx context.Context, query string, args ...any) ([]domain.Photo, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []domain.Photo
	for rows.Next() {
		var p domain.Photo
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.StorageKey, &p.URL, &p.LocationLat, &p.LocationLng, &p.LocationName, &p.Date, &p.CreatedAt); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}
