package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository"
)

const hostColumns = `id, name, COALESCE(address, ''), COALESCE(phone, ''), COALESCE(email, ''), status, COALESCE(notes, ''), created_at, updated_at`

// CreateHost inserts a host. Names are unique; duplicates map to ErrConflict.
func (r *Repository) CreateHost(ctx context.Context, host *domain.Host) error {
	const query = `INSERT INTO hosts (id, name, address, phone, email, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`
	_, err := r.pool.Exec(ctx, query,
		host.ID,
		host.Name,
		emptyToNil(host.Address),
		emptyToNil(host.Phone),
		emptyToNil(host.Email),
		host.Status,
		emptyToNil(host.Notes),
		host.CreatedAt,
	)
	return mapPgError(err)
}

// GetHostByID fetches a host.
func (r *Repository) GetHostByID(ctx context.Context, id string) (*domain.Host, error) {
	const query = `SELECT ` + hostColumns + ` FROM hosts WHERE id = $1`
	return scanHost(r.pool.QueryRow(ctx, query, id))
}

// GetHostByName fetches a host by its unique name.
func (r *Repository) GetHostByName(ctx context.Context, name string) (*domain.Host, error) {
	const query = `SELECT ` + hostColumns + ` FROM hosts WHERE name = $1`
	return scanHost(r.pool.QueryRow(ctx, query, name))
}

// ListHosts returns hosts, optionally filtered by status.
func (r *Repository) ListHosts(ctx context.Context, status string) ([]domain.Host, error) {
	const query = `SELECT ` + hostColumns + ` FROM hosts
		WHERE ($1 = '' OR status = $1) ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hosts := make([]domain.Host, 0)
	for rows.Next() {
		var h domain.Host
		if err := rows.Scan(&h.ID, &h.Name, &h.Address, &h.Phone, &h.Email, &h.Status, &h.Notes, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		hosts = append(hosts, h)
	}
	return hosts, rows.Err()
}

// UpdateHost mutates host fields.
func (r *Repository) UpdateHost(ctx context.Context, host *domain.Host) error {
	const query = `UPDATE hosts
		SET name = $2,
			address = $3,
			phone = $4,
			email = $5,
			status = $6,
			notes = $7,
			updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`
	row := r.pool.QueryRow(ctx, query,
		host.ID,
		host.Name,
		emptyToNil(host.Address),
		emptyToNil(host.Phone),
		emptyToNil(host.Email),
		host.Status,
		emptyToNil(host.Notes),
	)
	if err := row.Scan(&host.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return mapPgError(err)
	}
	return nil
}

// DeleteHost removes a host.
func (r *Repository) DeleteHost(ctx context.Context, id string) error {
	const query = `DELETE FROM hosts WHERE id = $1`
	cmdTag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanHost(row pgx.Row) (*domain.Host, error) {
	var h domain.Host
	if err := row.Scan(&h.ID, &h.Name, &h.Address, &h.Phone, &h.Email, &h.Status, &h.Notes, &h.CreatedAt, &h.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

const recipientColumns = `id, name, COALESCE(contact_name, ''), COALESCE(phone, ''), COALESCE(email, ''), weekly_estimate, status, COALESCE(notes, ''), created_at, updated_at`

// CreateRecipient inserts a recipient organization.
func (r *Repository) CreateRecipient(ctx context.Context, recipient *domain.Recipient) error {
	const query = `INSERT INTO recipients (id, name, contact_name, phone, email, weekly_estimate, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`
	_, err := r.pool.Exec(ctx, query,
		recipient.ID,
		recipient.Name,
		emptyToNil(recipient.ContactName),
		emptyToNil(recipient.Phone),
		emptyToNil(recipient.Email),
		recipient.WeeklyEstimate,
		recipient.Status,
		emptyToNil(recipient.Notes),
		recipient.CreatedAt,
	)
	return mapPgError(err)
}

// GetRecipientByID fetches a recipient.
func (r *Repository) GetRecipientByID(ctx context.Context, id string) (*domain.Recipient, error) {
	const query = `SELECT ` + recipientColumns + ` FROM recipients WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var rec domain.Recipient
	if err := row.Scan(&rec.ID, &rec.Name, &rec.ContactName, &rec.Phone, &rec.Email, &rec.WeeklyEstimate, &rec.Status, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// ListRecipients returns recipients, optionally filtered by status.
func (r *Repository) ListRecipients(ctx context.Context, status string) ([]domain.Recipient, error) {
	const query = `SELECT ` + recipientColumns + ` FROM recipients
		WHERE ($1 = '' OR status = $1) ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := make([]domain.Recipient, 0)
	for rows.Next() {
		var rec domain.Recipient
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.ContactName, &rec.Phone, &rec.Email, &rec.WeeklyEstimate, &rec.Status, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

// UpdateRecipient mutates recipient fields.
func (r *Repository) UpdateRecipient(ctx context.Context, recipient *domain.Recipient) error {
	const query = `UPDATE recipients
		SET name = $2,
			contact_name = $3,
			phone = $4,
			email = $5,
			weekly_estimate = $6,
			status = $7,
			notes = $8,
			updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`
	row := r.pool.QueryRow(ctx, query,
		recipient.ID,
		recipient.Name,
		emptyToNil(recipient.ContactName),
		emptyToNil(recipient.Phone),
		emptyToNil(recipient.Email),
		recipient.WeeklyEstimate,
		recipient.Status,
		emptyToNil(recipient.Notes),
	)
	if err := row.Scan(&recipient.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return mapPgError(err)
	}
	return nil
}

// DeleteRecipient removes a recipient.
func (r *Repository) DeleteRecipient(ctx context.Context, id string) error {
	const query = `DELETE FROM recipients WHERE id = $1`
	cmdTag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
