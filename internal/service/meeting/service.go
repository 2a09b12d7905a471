package meeting

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
	// ErrForbidden is returned when the caller lacks meeting management rights.
	ErrForbidden = errors.New("operation not permitted")
	// ErrAlreadyReviewed is returned when reviewing an agenda item that has
	// left the pending state.
	ErrAlreadyReviewed = errors.New("agenda item already reviewed")
	// ErrInvalidTransition is returned for backwards meeting state moves.
	ErrInvalidTransition = errors.New("invalid meeting state transition")

	errTitleRequired  = errors.New("title is required")
	errAgendaRequired = errors.New("final agenda is required")
	errUnknownStatus  = errors.New("unknown status")
)

// stateRank orders the meeting workflow. Transitions only move forward.
var stateRank = map[string]int{
	domain.MeetingPlanning:  0,
	domain.MeetingAgendaSet: 1,
	domain.MeetingCompleted: 2,
}

// Service handles meetings and the agenda approval workflow.
type Service struct {
	meetings repository.MeetingRepository
	logger   *slog.Logger
}

// New constructs a Service.
func New(meetings repository.MeetingRepository, logger *slog.Logger) Service {
	return Service{meetings: meetings, logger: logger}
}

// CreateInput describes a new meeting.
type CreateInput struct {
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Location    string    `json:"location"`
}

// Create schedules a meeting in the planning state.
func (s Service) Create(ctx context.Context, actor *domain.User, input CreateInput) (*domain.Meeting, error) {
	if !access.Can(actor, access.ManageMeetings) {
		return nil, ErrForbidden
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errTitleRequired
	}
	now := time.Now().UTC()
	meeting := &domain.Meeting{
		ID:          uuid.NewString(),
		Title:       title,
		Type:        input.Type,
		ScheduledAt: input.ScheduledAt,
		Location:    strings.TrimSpace(input.Location),
		Status:      domain.MeetingPlanning,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.meetings.CreateMeeting(ctx, meeting); err != nil {
		return nil, err
	}
	s.logger.Info("meeting created", "meeting_id", meeting.ID, "scheduled_at", meeting.ScheduledAt)
	return meeting, nil
}

// List returns meetings, optionally filtered by status.
func (s Service) List(ctx context.Context, status string) ([]domain.Meeting, error) {
	if status != "" {
		if _, ok := stateRank[status]; !ok {
			return nil, errUnknownStatus
		}
	}
	return s.meetings.ListMeetings(ctx, status)
}

// Get returns one meeting.
func (s Service) Get(ctx context.Context, id string) (*domain.Meeting, error) {
	return s.meetings.GetMeetingByID(ctx, id)
}

// UpdateInput carries optional meeting updates. Nil pointers leave the field
// unchanged.
type UpdateInput struct {
	Title       *string    `json:"title"`
	Type        *string    `json:"type"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Location    *string    `json:"location"`
}

// Update applies scheduling changes. Status moves go through SetFinalAgenda
// and Complete.
func (s Service) Update(ctx context.Context, actor *domain.User, id string, input UpdateInput) (*domain.Meeting, error) {
	if !access.Can(actor, access.ManageMeetings) {
		return nil, ErrForbidden
	}
	meeting, err := s.meetings.GetMeetingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, errTitleRequired
		}
		meeting.Title = title
	}
	if input.Type != nil {
		meeting.Type = *input.Type
	}
	if input.ScheduledAt != nil {
		meeting.ScheduledAt = *input.ScheduledAt
	}
	if input.Location != nil {
		meeting.Location = strings.TrimSpace(*input.Location)
	}
	if err := s.meetings.UpdateMeeting(ctx, meeting); err != nil {
		return nil, err
	}
	return meeting, nil
}

// Delete removes a meeting and its agenda items.
func (s Service) Delete(ctx context.Context, actor *domain.User, id string) error {
	if !access.Can(actor, access.ManageMeetings) {
		return ErrForbidden
	}
	return s.meetings.DeleteMeeting(ctx, id)
}

// SubmitAgendaItem proposes an agenda item for a meeting. Any authenticated
// user may submit; items start pending.
func (s Service) SubmitAgendaItem(ctx context.Context, actor *domain.User, meetingID, title, description string) (*domain.AgendaItem, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errTitleRequired
	}
	if _, err := s.meetings.GetMeetingByID(ctx, meetingID); err != nil {
		return nil, err
	}
	item := &domain.AgendaItem{
		ID:          uuid.NewString(),
		MeetingID:   meetingID,
		SubmittedBy: actor.ID,
		Title:       title,
		Description: strings.TrimSpace(description),
		Status:      domain.AgendaPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.meetings.CreateAgendaItem(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Info("agenda item submitted", "meeting_id", meetingID, "item_id", item.ID)
	return item, nil
}

// ListAgendaItems returns a meeting's agenda items, optionally filtered by
// review status.
func (s Service) ListAgendaItems(ctx context.Context, meetingID, status string) ([]domain.AgendaItem, error) {
	switch status {
	case "", domain.AgendaPending, domain.AgendaApproved, domain.AgendaRejected:
	default:
		return nil, errUnknownStatus
	}
	return s.meetings.ListAgendaItems(ctx, meetingID, status)
}

// ReviewAgendaItem approves or rejects a pending item. The decision is final.
func (s Service) ReviewAgendaItem(ctx context.Context, actor *domain.User, itemID string, approve bool) (*domain.AgendaItem, error) {
	if !access.Can(actor, access.ManageMeetings) {
		return nil, ErrForbidden
	}
	item, err := s.meetings.GetAgendaItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status != domain.AgendaPending {
		return nil, ErrAlreadyReviewed
	}
	if approve {
		item.Status = domain.AgendaApproved
	} else {
		item.Status = domain.AgendaRejected
	}
	now := time.Now().UTC()
	item.ReviewedBy = &actor.ID
	item.ReviewedAt = &now
	if err := s.meetings.UpdateAgendaItem(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Info("agenda item reviewed", "item_id", itemID, "status", item.Status, "reviewer_id", actor.ID)
	return item, nil
}

// SetFinalAgenda records the final agenda text and moves the meeting from
// planning to agenda_set.
func (s Service) SetFinalAgenda(ctx context.Context, actor *domain.User, meetingID, finalAgenda, documentPath string) (*domain.Meeting, error) {
	if !access.Can(actor, access.ManageMeetings) {
		return nil, ErrForbidden
	}
	finalAgenda = strings.TrimSpace(finalAgenda)
	if finalAgenda == "" {
		return nil, errAgendaRequired
	}
	meeting, err := s.meetings.GetMeetingByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if stateRank[meeting.Status] > stateRank[domain.MeetingAgendaSet] {
		return nil, ErrInvalidTransition
	}
	meeting.FinalAgenda = finalAgenda
	if documentPath != "" {
		meeting.AgendaDocumentPath = documentPath
	}
	meeting.Status = domain.MeetingAgendaSet
	if err := s.meetings.UpdateMeeting(ctx, meeting); err != nil {
		return nil, err
	}
	s.logger.Info("final agenda set", "meeting_id", meetingID)
	return meeting, nil
}

// Complete moves a meeting into the terminal completed state.
func (s Service) Complete(ctx context.Context, actor *domain.User, meetingID string) (*domain.Meeting, error) {
	if !access.Can(actor, access.ManageMeetings) {
		return nil, ErrForbidden
	}
	meeting, err := s.meetings.GetMeetingByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if meeting.Status == domain.MeetingCompleted {
		return meeting, nil
	}
	meeting.Status = domain.MeetingCompleted
	if err := s.meetings.UpdateMeeting(ctx, meeting); err != nil {
		return nil, err
	}
	s.logger.Info("meeting completed", "meeting_id", meetingID)
	return meeting, nil
}
