package project

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/access"
)

var (
	// ErrForbidden is returned when the caller lacks project management rights.
	ErrForbidden = errors.New("operation not permitted")
	// ErrNotClaimable is returned when claiming a project that is not available.
	ErrNotClaimable = errors.New("project is not available to claim")

	errTitleRequired  = errors.New("title is required")
	errUnknownStatus  = errors.New("unknown status")
	errTaskNotInScope = errors.New("task does not belong to this project")
)

var validProjectStatuses = map[string]struct{}{
	domain.ProjectAvailable:  {},
	domain.ProjectInProgress: {},
	domain.ProjectWaiting:    {},
	domain.ProjectCompleted:  {},
}

var validTaskStatuses = map[string]struct{}{
	domain.TaskPending:    {},
	domain.TaskInProgress: {},
	domain.TaskDone:       {},
}

// Service handles projects and their task lists.
type Service struct {
	projects repository.ProjectRepository
	logger   *slog.Logger
}

// New constructs a Service.
func New(projects repository.ProjectRepository, logger *slog.Logger) Service {
	return Service{projects: projects, logger: logger}
}

// CreateInput describes a new project.
type CreateInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	AssigneeIDs []string   `json:"assignee_ids"`
	DueDate     *time.Time `json:"due_date"`
}

// Create opens a new project in the available state.
func (s Service) Create(ctx context.Context, actor *domain.User, input CreateInput) (*domain.Project, error) {
	if !access.Can(actor, access.ManageProjects) {
		return nil, ErrForbidden
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errTitleRequired
	}
	now := time.Now().UTC()
	project := &domain.Project{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      domain.ProjectAvailable,
		Priority:    input.Priority,
		Category:    input.Category,
		AssigneeIDs: input.AssigneeIDs,
		DueDate:     input.DueDate,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(project.AssigneeIDs) > 0 {
		project.Status = domain.ProjectInProgress
	}
	if err := s.projects.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	s.logger.Info("project created", "project_id", project.ID, "status", project.Status)
	return project, nil
}

// List returns projects, optionally filtered by status.
func (s Service) List(ctx context.Context, status string) ([]domain.Project, error) {
	if status != "" {
		if _, ok := validProjectStatuses[status]; !ok {
			return nil, errUnknownStatus
		}
	}
	return s.projects.ListProjects(ctx, status)
}

// Get returns a project with its progress recomputed from tasks.
func (s Service) Get(ctx context.Context, id string) (*domain.Project, error) {
	project, err := s.projects.GetProjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tasks, err := s.projects.ListTasksByProject(ctx, id)
	if err != nil {
		return nil, err
	}
	project.ProgressPercent = progressPercent(tasks)
	return project, nil
}

// UpdateInput carries optional project updates. Nil pointers leave the field
// unchanged.
type UpdateInput struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Status      *string     `json:"status"`
	Priority    *string     `json:"priority"`
	Category    *string     `json:"category"`
	AssigneeIDs *[]string   `json:"assignee_ids"`
	DueDate     **time.Time `json:"due_date"`
}

// Update applies project changes.
func (s Service) Update(ctx context.Context, actor *domain.User, id string, input UpdateInput) (*domain.Project, error) {
	if !access.Can(actor, access.ManageProjects) {
		return nil, ErrForbidden
	}
	project, err := s.projects.GetProjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, errTitleRequired
		}
		project.Title = title
	}
	if input.Description != nil {
		project.Description = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		if _, ok := validProjectStatuses[*input.Status]; !ok {
			return nil, errUnknownStatus
		}
		project.Status = *input.Status
	}
	if input.Priority != nil {
		project.Priority = *input.Priority
	}
	if input.Category != nil {
		project.Category = *input.Category
	}
	if input.AssigneeIDs != nil {
		project.AssigneeIDs = *input.AssigneeIDs
	}
	if input.DueDate != nil {
		project.DueDate = *input.DueDate
	}
	if err := s.projects.UpdateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Claim assigns an available project to the caller and moves it to
// in_progress. Claiming does not require management rights.
func (s Service) Claim(ctx context.Context, actor *domain.User, id string) (*domain.Project, error) {
	project, err := s.projects.GetProjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.Status != domain.ProjectAvailable {
		return nil, ErrNotClaimable
	}
	project.Status = domain.ProjectInProgress
	project.AssigneeIDs = appendUnique(project.AssigneeIDs, actor.ID)
	if err := s.projects.UpdateProject(ctx, project); err != nil {
		return nil, err
	}
	s.logger.Info("project claimed", "project_id", id, "user_id", actor.ID)
	return project, nil
}

// Delete removes a project and its tasks.
func (s Service) Delete(ctx context.Context, actor *domain.User, id string) error {
	if !access.Can(actor, access.ManageProjects) {
		return ErrForbidden
	}
	return s.projects.DeleteProject(ctx, id)
}

// CreateTask appends a task to a project's list.
func (s Service) CreateTask(ctx context.Context, actor *domain.User, projectID, title, assigneeID string) (*domain.ProjectTask, error) {
	if !access.Can(actor, access.ManageProjects) {
		return nil, ErrForbidden
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errTitleRequired
	}
	if _, err := s.projects.GetProjectByID(ctx, projectID); err != nil {
		return nil, err
	}
	existing, err := s.projects.ListTasksByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	task := &domain.ProjectTask{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		Title:      title,
		Status:     domain.TaskPending,
		AssigneeID: assigneeID,
		Position:   len(existing),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.projects.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks returns a project's tasks in position order.
func (s Service) ListTasks(ctx context.Context, projectID string) ([]domain.ProjectTask, error) {
	return s.projects.ListTasksByProject(ctx, projectID)
}

// UpdateTaskStatus moves a task between states. Assignees may update their
// own tasks; anyone else needs management rights.
func (s Service) UpdateTaskStatus(ctx context.Context, actor *domain.User, projectID, taskID, status string) (*domain.ProjectTask, error) {
	if _, ok := validTaskStatuses[status]; !ok {
		return nil, errUnknownStatus
	}
	task, err := s.projects.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.ProjectID != projectID {
		return nil, errTaskNotInScope
	}
	if task.AssigneeID != actor.ID && !access.Can(actor, access.ManageProjects) {
		return nil, ErrForbidden
	}
	task.Status = status
	if err := s.projects.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	s.maybeCompleteProject(ctx, projectID)
	return task, nil
}

// DeleteTask removes a task from a project.
func (s Service) DeleteTask(ctx context.Context, actor *domain.User, projectID, taskID string) error {
	if !access.Can(actor, access.ManageProjects) {
		return ErrForbidden
	}
	task, err := s.projects.GetTaskByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task.ProjectID != projectID {
		return errTaskNotInScope
	}
	return s.projects.DeleteTask(ctx, taskID)
}

// maybeCompleteProject marks a project completed once every task is done.
// Failures are logged rather than surfaced; the task update already succeeded.
func (s Service) maybeCompleteProject(ctx context.Context, projectID string) {
	tasks, err := s.projects.ListTasksByProject(ctx, projectID)
	if err != nil || len(tasks) == 0 {
		return
	}
	for _, t := range tasks {
		if t.Status != domain.TaskDone {
			return
		}
	}
	project, err := s.projects.GetProjectByID(ctx, projectID)
	if err != nil {
		return
	}
	if project.Status == domain.ProjectCompleted {
		return
	}
	project.Status = domain.ProjectCompleted
	project.ProgressPercent = 100
	if err := s.projects.UpdateProject(ctx, project); err != nil {
		s.logger.Warn("failed to auto-complete project", "project_id", projectID, "error", err)
		return
	}
	s.logger.Info("project completed", "project_id", projectID)
}

func progressPercent(tasks []domain.ProjectTask) int {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range tasks {
		if t.Status == domain.TaskDone {
			done++
		}
	}
	return done * 100 / len(tasks)
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
