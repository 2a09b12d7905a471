package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository"
)

const meetingColumns = `id, title, type, scheduled_at, location, status, final_agenda, COALESCE(agenda_document_path, ''), COALESCE(created_by, ''), created_at, updated_at`

// CreateMeeting inserts a meeting.
func (r *Repository) CreateMeeting(ctx context.Context, meeting *domain.Meeting) error {
	const query = `INSERT INTO meetings (id, title, type, scheduled_at, location, status, final_agenda, agenda_document_path, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`
	_, err := r.pool.Exec(ctx, query,
		meeting.ID,
		meeting.Title,
		meeting.Type,
		meeting.ScheduledAt,
		meeting.Location,
		meeting.Status,
		meeting.FinalAgenda,
		emptyToNil(meeting.AgendaDocumentPath),
		emptyToNil(meeting.CreatedBy),
		meeting.CreatedAt,
	)
	return mapPgError(err)
}

// GetMeetingByID fetches one meeting.
func (r *Repository) GetMeetingByID(ctx context.Context, id string) (*domain.Meeting, error) {
	const query = `SELECT ` + meetingColumns + ` FROM meetings WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var m domain.Meeting
	if err := row.Scan(&m.ID, &m.Title, &m.Type, &m.ScheduledAt, &m.Location, &m.Status, &m.FinalAgenda, &m.AgendaDocumentPath, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListMeetings returns meetings newest first, optionally filtered by status.
func (r *Repository) ListMeetings(ctx context.Context, status string) ([]domain.Meeting, error) {
	const query = `SELECT ` + meetingColumns + ` FROM meetings
		WHERE ($1 = '' OR status = $1) ORDER BY scheduled_at DESC`
	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meetings := make([]domain.Meeting, 0)
	for rows.Next() {
		var m domain.Meeting
		if err := rows.Scan(&m.ID, &m.Title, &m.Type, &m.ScheduledAt, &m.Location, &m.Status, &m.FinalAgenda, &m.AgendaDocumentPath, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

// UpdateMeeting mutates meeting fields.
func (r *Repository) UpdateMeeting(ctx context.Context, meeting *domain.Meeting) error {
	const query = `UPDATE meetings
		SET title = $2,
			type = $3,
			scheduled_at = $4,
			location = $5,
			status = $6,
			final_agenda = $7,
			agenda_document_path = $8,
			updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`
	row := r.pool.QueryRow(ctx, query,
		meeting.ID,
		meeting.Title,
		meeting.Type,
		meeting.ScheduledAt,
		meeting.Location,
		meeting.Status,
		meeting.FinalAgenda,
		emptyToNil(meeting.AgendaDocumentPath),
	)
	if err := row.Scan(&meeting.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return mapPgError(err)
	}
	return nil
}

// DeleteMeeting removes a meeting and its agenda items (cascade).
func (r *Repository) DeleteMeeting(ctx context.Context, id string) error {
	const query = `DELETE FROM meetings WHERE id = $1`
	cmdTag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CreateAgendaItem inserts an agenda item.
func (r *Repository) CreateAgendaItem(ctx context.Context, item *domain.AgendaItem) error {
	const query = `INSERT INTO agenda_items (id, meeting_id, submitted_by, title, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query,
		item.ID,
		item.MeetingID,
		item.SubmittedBy,
		item.Title,
		item.Description,
		item.Status,
		item.CreatedAt,
	)
	return mapPgError(err)
}

// GetAgendaItemByID fetches one agenda item.
func (r *Repository) GetAgendaItemByID(ctx context.Context, id string) (*domain.AgendaItem, error) {
	const query = `SELECT id, meeting_id, submitted_by, title, description, status, reviewed_by, reviewed_at, created_at
		FROM agenda_items WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var item domain.AgendaItem
	if err := row.Scan(&item.ID, &item.MeetingID, &item.SubmittedBy, &item.Title, &item.Description, &item.Status, &item.ReviewedBy, &item.ReviewedAt, &item.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// ListAgendaItems returns agenda items for a meeting, optionally by status.
func (r *Repository) ListAgendaItems(ctx context.Context, meetingID, status string) ([]domain.AgendaItem, error) {
	const query = `SELECT id, meeting_id, submitted_by, title, description, status, reviewed_by, reviewed_at, created_at
		FROM agenda_items
		WHERE meeting_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, meetingID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.AgendaItem, 0)
	for rows.Next() {
		var item domain.AgendaItem
		if err := rows.Scan(&item.ID, &item.MeetingID, &item.SubmittedBy, &item.Title, &item.Description, &item.Status, &item.ReviewedBy, &item.ReviewedAt, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateAgendaItem mutates an agenda item, including review metadata.
func (r *Repository) UpdateAgendaItem(ctx context.Context, item *domain.AgendaItem) error {
	const query = `UPDATE agenda_items
		SET title = $2,
			description = $3,
			status = $4,
			reviewed_by = $5,
			reviewed_at = $6
		WHERE id = $1`
	cmdTag, err := r.pool.Exec(ctx, query,
		item.ID,
		item.Title,
		item.Description,
		item.Status,
		stringPtrToNil(item.ReviewedBy),
		timePtrToNil(item.ReviewedAt),
	)
	if err != nil {
		return mapPgError(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
