package domain

import "time"

// Project statuses.
const (
	ProjectAvailable  = "available"
	ProjectInProgress = "in_progress"
	ProjectWaiting    = "waiting"
	ProjectCompleted  = "completed"
)

// Task statuses.
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskDone       = "done"
)

// Project describes a unit of volunteer work that can be claimed and tracked.
type Project struct {
	ID              string
	Title           string
	Description     string
	Status          string
	Priority        string
	Category        string
	AssigneeIDs     []string
	DueDate         *time.Time
	ProgressPercent int
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProjectTask is a single checklist entry within a project.
type ProjectTask struct {
	ID         string
	ProjectID  string
	Title      string
	Status     string
	AssigneeID string
	Position   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
