package domain

import "time"

// Meeting statuses, advanced forward-only.
const (
	MeetingPlanning  = "planning"
	MeetingAgendaSet = "agenda_set"
	MeetingCompleted = "completed"
)

// Agenda item statuses. Review moves pending items to approved or rejected.
const (
	AgendaPending  = "pending"
	AgendaApproved = "approved"
	AgendaRejected = "rejected"
)

// Meeting is a scheduled team meeting with an agenda workflow.
type Meeting struct {
	ID                 string
	Title              string
	Type               string
	ScheduledAt        time.Time
	Location           string
	Status             string
	FinalAgenda        string
	AgendaDocumentPath string
	CreatedBy          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// AgendaItem is a user-submitted topic proposal awaiting approval for a
// meeting.
type AgendaItem struct {
	ID          string
	MeetingID   string
	SubmittedBy string
	Title       string
	Description string
	Status      string
	ReviewedBy  *string
	ReviewedAt  *time.Time
	CreatedAt   time.Time
}
