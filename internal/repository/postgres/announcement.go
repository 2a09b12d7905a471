package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository"
)

const announcementColumns = `id, title, body, type, priority, COALESCE(link, ''), starts_at, ends_at, active, COALESCE(created_by, ''), created_at, updated_at`

// CreateAnnouncement inserts an announcement.
func (r *Repository) CreateAnnouncement(ctx context.Context, announcement *domain.Announcement) error {
	const query = `INSERT INTO announcements (id, title, body, type, priority, link, starts_at, ends_at, active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`
	_, err := r.pool.Exec(ctx, query,
		announcement.ID,
		announcement.Title,
		announcement.Body,
		announcement.Type,
		announcement.Priority,
		emptyToNil(announcement.Link),
		announcement.StartsAt,
		timePtrToNil(announcement.EndsAt),
		announcement.Active,
		emptyToNil(announcement.CreatedBy),
		announcement.CreatedAt,
	)
	return mapPgError(err)
}

// GetAnnouncementByID fetches one announcement.
func (r *Repository) GetAnnouncementByID(ctx context.Context, id string) (*domain.Announcement, error) {
	const query = `SELECT ` + announcementColumns + ` FROM announcements WHERE id = $1`
	return scanAnnouncement(r.pool.QueryRow(ctx, query, id))
}

// ListAnnouncements returns every announcement, highest priority first.
func (r *Repository) ListAnnouncements(ctx context.Context) ([]domain.Announcement, error) {
	const query = `SELECT ` + announcementColumns + ` FROM announcements
		ORDER BY priority DESC, starts_at DESC`
	return r.queryAnnouncements(ctx, query)
}

// ListActiveAnnouncements returns in-window announcements ordered by
// priority desc then start desc.
func (r *Repository) ListActiveAnnouncements(ctx context.Context, now time.Time) ([]domain.Announcement, error) {
	const query = `SELECT ` + announcementColumns + ` FROM announcements
		WHERE active AND starts_at <= $1 AND (ends_at IS NULL OR ends_at > $1)
		ORDER BY priority DESC, starts_at DESC`
	return r.queryAnnouncements(ctx, query, now.UTC())
}

// UpdateAnnouncement mutates an announcement.
func (r *Repository) UpdateAnnouncement(ctx context.Context, announcement *domain.Announcement) error {
	const query = `UPDATE announcements
		SET title = $2,
			body = $3,
			type = $4,
			priority = $5,
			link = $6,
			starts_at = $7,
			ends_at = $8,
			active = $9,
			updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`
	row := r.pool.QueryRow(ctx, query,
		announcement.ID,
		announcement.Title,
		announcement.Body,
		announcement.Type,
		announcement.Priority,
		emptyToNil(announcement.Link),
		announcement.StartsAt,
		timePtrToNil(announcement.EndsAt),
		announcement.Active,
	)
	if err := row.Scan(&announcement.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return mapPgError(err)
	}
	return nil
}

// DeleteAnnouncement removes an announcement.
func (r *Repository) DeleteAnnouncement(ctx context.Context, id string) error {
	const query = `DELETE FROM announcements WHERE id = $1`
	cmdTag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *Repository) queryAnnouncements(ctx context.Context, query string, args ...any) ([]domain.Announcement, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	announcements := make([]domain.Announcement, 0)
	for rows.Next() {
		var a domain.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Body, &a.Type, &a.Priority, &a.Link, &a.StartsAt, &a.EndsAt, &a.Active, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		announcements = append(announcements, a)
	}
	return announcements, rows.Err()
}

func scanAnnouncement(row pgx.Row) (*domain.Announcement, error) {
	var a domain.Announcement
	if err := row.Scan(&a.ID, &a.Title, &a.Body, &a.Type, &a.Priority, &a.Link, &a.StartsAt, &a.EndsAt, &a.Active, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
