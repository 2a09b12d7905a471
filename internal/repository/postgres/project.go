package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository"
)

const projectColumns = `id, title, description, status, priority, category, assignee_ids, due_date, progress_percent, COALESCE(created_by, ''), created_at, updated_at`

// CreateProject inserts a project.
func (r *Repository) CreateProject(ctx context.Context, project *domain.Project) error {
	const query = `INSERT INTO projects (id, title, description, status, priority, category, assignee_ids, due_date, progress_percent, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`
	_, err := r.pool.Exec(ctx, query,
		project.ID,
		project.Title,
		project.Description,
		project.Status,
		project.Priority,
		project.Category,
		project.AssigneeIDs,
		timePtrToNil(project.DueDate),
		project.ProgressPercent,
		emptyToNil(project.CreatedBy),
		project.CreatedAt,
	)
	return mapPgError(err)
}

// GetProjectByID fetches a project.
func (r *Repository) GetProjectByID(ctx context.Context, id string) (*domain.Project, error) {
	const query = `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var p domain.Project
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Status, &p.Priority, &p.Category, &p.AssigneeIDs, &p.DueDate, &p.ProgressPercent, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListProjects returns projects, optionally filtered by status.
func (r *Repository) ListProjects(ctx context.Context, status string) ([]domain.Project, error) {
	const query = `SELECT ` + projectColumns + ` FROM projects
		WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]domain.Project, 0)
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Status, &p.Priority, &p.Category, &p.AssigneeIDs, &p.DueDate, &p.ProgressPercent, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject mutates project fields.
func (r *Repository) UpdateProject(ctx context.Context, project *domain.Project) error {
	const query = `UPDATE projects
		SET title = $2,
			description = $3,
			status = $4,
			priority = $5,
			category = $6,
			assignee_ids = $7,
			due_date = $8,
			progress_percent = $9,
			updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`
	row := r.pool.QueryRow(ctx, query,
		project.ID,
		project.Title,
		project.Description,
		project.Status,
		project.Priority,
		project.Category,
		project.AssigneeIDs,
		timePtrToNil(project.DueDate),
		project.ProgressPercent,
	)
	if err := row.Scan(&project.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return mapPgError(err)
	}
	return nil
}

// DeleteProject removes a project and its tasks (cascade).
func (r *Repository) DeleteProject(ctx context.Context, id string) error {
	const query = `DELETE FROM projects WHERE id = $1`
	cmdTag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CreateTask inserts a task.
func (r *Repository) CreateTask(ctx context.Context, task *domain.ProjectTask) error {
	const query = `INSERT INTO project_tasks (id, project_id, title, status, assignee_id, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`
	_, err := r.pool.Exec(ctx, query,
		task.ID,
		task.ProjectID,
		task.Title,
		task.Status,
		emptyToNil(task.AssigneeID),
		task.Position,
		task.CreatedAt,
	)
	return mapPgError(err)
}

// GetTaskByID fetches a task.
func (r *Repository) GetTaskByID(ctx context.Context, id string) (*domain.ProjectTask, error) {
	const query = `SELECT id, project_id, title, status, COALESCE(assignee_id, ''), position, created_at, updated_at
		FROM project_tasks WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var t domain.ProjectTask
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Status, &t.AssigneeID, &t.Position, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListTasksByProject returns tasks ordered by position.
func (r *Repository) ListTasksByProject(ctx context.Context, projectID string) ([]domain.ProjectTask, error) {
	const query = `SELECT id, project_id, title, status, COALESCE(assignee_id, ''), position, created_at, updated_at
		FROM project_tasks WHERE project_id = $1 ORDER BY position ASC, created_at ASC`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]domain.ProjectTask, 0)
	for rows.Next() {
		var t domain.ProjectTask
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Status, &t.AssigneeID, &t.Position, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateTask mutates task fields.
func (r *Repository) UpdateTask(ctx context.Context, task *domain.ProjectTask) error {
	const query = `UPDATE project_tasks
		SET title = $2,
			status = $3,
			assignee_id = $4,
			position = $5,
			updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`
	row := r.pool.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Status,
		emptyToNil(task.AssigneeID),
		task.Position,
	)
	if err := row.Scan(&task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return mapPgError(err)
	}
	return nil
}

// DeleteTask removes a task.
func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	const query = `DELETE FROM project_tasks WHERE id = $1`
	cmdTag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
