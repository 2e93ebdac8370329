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

const capsuleColumns = "id, user_id, title, message, is_private, recipient_email, open_date, is_opened, opened_at, created_at"

type CapsuleRepo struct {
	pool *pgxpool.Pool
}

func NewCapsuleRepo(pool *pgxpool.Pool) *CapsuleRepo {
	return &CapsuleRepo{pool: pool}
}

func (r *CapsuleRepo) Create(ctx context.Context, c *domain.Capsule, recipients []domain.CapsuleRecipient, media []domain.CapsuleMedia) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO capsules (id, user_id, title, message, is_private, recipient_email, open_date, is_opened, opened_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = tx.Exec(ctx, query,
		c.ID, c.UserID, c.Title, c.Message, c.IsPrivate,
		c.RecipientEmail, c.OpenDate, c.IsOpened, c.OpenedAt, c.CreatedAt,
	)
	if err != nil {
		return err
	}

	for i := range recipients {
		rec := &recipients[i]
		_, err = tx.Exec(ctx, `
			INSERT INTO capsule_recipients (id, capsule_id, email, name, email_sent, email_sent_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rec.ID, rec.CapsuleID, rec.Email, rec.Name, rec.EmailSent, rec.EmailSentAt, rec.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	for i := range media {
		m := &media[i]
		_, err = tx.Exec(ctx, `
			INSERT INTO capsule_media (id, capsule_id, storage_key, media_url, media_type, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			m.ID, m.CapsuleID, m.StorageKey, m.URL, m.Type, m.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *CapsuleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Capsule, error) {
	return r.scanCapsule(ctx, "SELECT "+capsuleColumns+" FROM capsules WHERE id = $1", id)
}

func (r *CapsuleRepo) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Capsule, error) {
	return r.scanCapsule(ctx, "SELECT "+capsuleColumns+" FROM capsules WHERE id = $1 AND user_id = $2", id, userID)
}

func (r *CapsuleRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Capsule, error) {
	return r.queryCapsules(ctx,
		"SELECT "+capsuleColumns+" FROM capsules WHERE user_id = $1 ORDER BY created_at DESC", userID)
}

func (r *CapsuleRepo) ListCreatedBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Capsule, error) {
	return r.queryCapsules(ctx,
		"SELECT "+capsuleColumns+" FROM capsules WHERE user_id = $1 AND created_at >= $2 AND created_at < $3 ORDER BY created_at",
		userID, from, to)
}

func (r *CapsuleRepo) ListOpenedBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Capsule, error) {
	return r.queryCapsules(ctx,
		"SELECT "+capsuleColumns+" FROM capsules WHERE user_id = $1 AND is_opened = TRUE AND opened_at >= $2 AND opened_at < $3 ORDER BY opened_at",
		userID, from, to)
}

// MarkOpened performs the sealed→opened transition as a compare-and-swap so
// a user-initiated open racing the sweep cannot both win.
func (r *CapsuleRepo) MarkOpened(ctx context.Context, id uuid.UUID, openedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		"UPDATE capsules SET is_opened = TRUE, opened_at = $2 WHERE id = $1 AND is_opened = FALSE",
		id, openedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *CapsuleRepo) FindDue(ctx context.Context, now time.Time) ([]domain.Capsule, error) {
	return r.queryCapsules(ctx,
		"SELECT "+capsuleColumns+" FROM capsules WHERE is_opened = FALSE AND open_date <= $1 ORDER BY open_date", now)
}

func (r *CapsuleRepo) AddMedia(ctx context.Context, m *domain.CapsuleMedia) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO capsule_media (id, capsule_id, storage_key, media_url, media_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.CapsuleID, m.StorageKey, m.URL, m.Type, m.CreatedAt,
	)
	return err
}

func (r *CapsuleRepo) GetMedia(ctx context.Context, capsuleID, mediaID uuid.UUID) (*domain.CapsuleMedia, error) {
	var m domain.CapsuleMedia
	err := r.pool.QueryRow(ctx,
		"SELECT id, capsule_id, storage_key, media_url, media_type, created_at FROM capsule_media WHERE id = $1 AND capsule_id = $2",
		mediaID, capsuleID,
	).Scan(&m.ID, &m.CapsuleID, &m.StorageKey, &m.URL, &m.Type, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &m, err
}

func (r *CapsuleRepo) ListMedia(ctx context.Context, capsuleID uuid.UUID) ([]domain.CapsuleMedia, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id, capsule_id, storage_key, media_url, media_type, created_at FROM capsule_media WHERE capsule_id = $1 ORDER BY created_at",
		capsuleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var media []domain.CapsuleMedia
	for rows.Next() {
		var m domain.CapsuleMedia
		if err := rows.Scan(&m.ID, &m.CapsuleID, &m.StorageKey, &m.URL, &m.Type, &m.CreatedAt); err != nil {
			return nil, err
		}
		media = append(media, m)
	}
	return media, rows.Err()
}

func (r *CapsuleRepo) CountMedia(ctx context.Context, capsuleID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM capsule_media WHERE capsule_id = $1", capsuleID).Scan(&count)
	return count, err
}

func (r *CapsuleRepo) DeleteMedia(ctx context.Context, mediaID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM capsule_media WHERE id = $1", mediaID)
	return err
}

func (r *CapsuleRepo) ListRecipients(ctx context.Context, capsuleID uuid.UUID) ([]domain.CapsuleRecipient, error) {
	return r.queryRecipients(ctx,
		"SELECT id, capsule_id, email, name, email_sent, email_sent_at, created_at FROM capsule_recipients WHERE capsule_id = $1 ORDER BY created_at",
		capsuleID)
}

func (r *CapsuleRepo) PendingRecipients(ctx context.Context, capsuleID uuid.UUID) ([]domain.CapsuleRecipient, error) {
	return r.queryRecipients(ctx,
		"SELECT id, capsule_id, email, name, email_sent, email_sent_at, created_at FROM capsule_recipients WHERE capsule_id = $1 AND email_sent = FALSE ORDER BY created_at",
		capsuleID)
}

func (r *CapsuleRepo) MarkRecipientSent(ctx context.Context, recipientID uuid.UUID, sentAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE capsule_recipients SET email_sent = TRUE, email_sent_at = $2 WHERE id = $1",
		recipientID, sentAt)
	return err
}

func (r *CapsuleRepo) scanCapsule(ctx context.Context, query string, args ...any) (*domain.Capsule, error) {
	var c domain.Capsule
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&c.ID, &c.UserID, &c.Title, &c.Message, &c.IsPrivate,
		&c.RecipientEmail, &c.OpenDate, &c.IsOpened, &c.OpenedAt, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &c, err
}

func (r *CapsuleRepo) queryCapsules(ctx context.Context, query string, args ...any) ([]domain.Capsule, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var capsules []domain.Capsule
	for rows.Next() {
		var c domain.Capsule
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.Title, &c.Message, &c.IsPrivate,
			&c.RecipientEmail, &c.OpenDate, &c.IsOpened, &c.OpenedAt, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		capsules = append(capsules, c)
	}
	return capsules, rows.Err()
}

func (r *CapsuleRepo) queryRecipients(ctx context.Context, query string, args ...any) ([]domain.CapsuleRecipient, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []domain.CapsuleRecipient
	for rows.Next() {
		var rec domain.CapsuleRecipient
		if err := rows.Scan(&rec.ID, &rec.CapsuleID, &rec.Email, &rec.Name, &rec.EmailSent, &rec.EmailSentAt, &rec.CreatedAt); err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}
