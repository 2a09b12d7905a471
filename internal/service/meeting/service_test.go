package meeting

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository"
)

type stubMeetingRepository struct {
	meetings map[string]*domain.Meeting
	items    map[string]*domain.AgendaItem
}

func newStubMeetings() *stubMeetingRepository {
	return &stubMeetingRepository{
		meetings: make(map[string]*domain.Meeting),
		items:    make(map[string]*domain.AgendaItem),
	}
}

func (s *stubMeetingRepository) CreateMeeting(ctx context.Context, meeting *domain.Meeting) error {
	s.meetings[meeting.ID] = meeting
	return nil
}

func (s *stubMeetingRepository) GetMeetingByID(ctx context.Context, id string) (*domain.Meeting, error) {
	if meeting, ok := s.meetings[id]; ok {
		copied := *meeting
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubMeetingRepository) ListMeetings(ctx context.Context, status string) ([]domain.Meeting, error) {
	var out []domain.Meeting
	for _, meeting := range s.meetings {
		if status == "" || meeting.Status == status {
			out = append(out, *meeting)
		}
	}
	return out, nil
}

func (s *stubMeetingRepository) UpdateMeeting(ctx context.Context, meeting *domain.Meeting) error {
	if _, ok := s.meetings[meeting.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *meeting
	s.meetings[meeting.ID] = &copied
	return nil
}

func (s *stubMeetingRepository) DeleteMeeting(ctx context.Context, id string) error {
	delete(s.meetings, id)
	return nil
}

func (s *stubMeetingRepository) CreateAgendaItem(ctx context.Context, item *domain.AgendaItem) error {
	s.items[item.ID] = item
	return nil
}

func (s *stubMeetingRepository) GetAgendaItemByID(ctx context.Context, id string) (*domain.AgendaItem, error) {
	if item, ok := s.items[id]; ok {
		copied := *item
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubMeetingRepository) ListAgendaItems(ctx context.Context, meetingID, status string) ([]domain.AgendaItem, error) {
	var out []domain.AgendaItem
	for _, item := range s.items {
		if item.MeetingID != meetingID {
			continue
		}
		if status == "" || item.Status == status {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *stubMeetingRepository) UpdateAgendaItem(ctx context.Context, item *domain.AgendaItem) error {
	if _, ok := s.items[item.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *item
	s.items[item.ID] = &copied
	return nil
}

func testService(repo *stubMeetingRepository) Service {
	return New(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func organizer() *domain.User {
	return &domain.User{ID: "org", Role: domain.RoleCommitteeMember, Active: true}
}

func volunteer() *domain.User {
	return &domain.User{ID: "vol", Role: domain.RoleVolunteer, Active: true}
}

func createMeeting(t *testing.T, svc Service) *domain.Meeting {
	t.Helper()
	meeting, err := svc.Create(context.Background(), organizer(), CreateInput{
		Title:       "Weekly planning",
		ScheduledAt: time.Now().Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create meeting: %v", err)
	}
	return meeting
}

func TestCreateRequiresManageMeetings(t *testing.T) {
	svc := testService(newStubMeetings())
	if _, err := svc.Create(context.Background(), volunteer(), CreateInput{Title: "x", ScheduledAt: time.Now()}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAnyoneMaySubmitAgendaItems(t *testing.T) {
	svc := testService(newStubMeetings())
	meeting := createMeeting(t, svc)

	item, err := svc.SubmitAgendaItem(context.Background(), volunteer(), meeting.ID, "Van maintenance", "")
	if err != nil {
		t.Fatalf("SubmitAgendaItem returned error: %v", err)
	}
	if item.Status != domain.AgendaPending {
		t.Fatalf("status = %s, want pending", item.Status)
	}
}

func TestReviewAgendaItemIsFinal(t *testing.T) {
	svc := testService(newStubMeetings())
	meeting := createMeeting(t, svc)
	item, err := svc.SubmitAgendaItem(context.Background(), volunteer(), meeting.ID, "Topic", "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := svc.ReviewAgendaItem(context.Background(), volunteer(), item.ID, true); !errors.Is(err, ErrForbidden) {
		t.Fatalf("volunteer review should fail, got %v", err)
	}

	reviewed, err := svc.ReviewAgendaItem(context.Background(), organizer(), item.ID, true)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != domain.AgendaApproved || reviewed.ReviewedBy == nil {
		t.Fatalf("unexpected review result: %+v", reviewed)
	}

	if _, err := svc.ReviewAgendaItem(context.Background(), organizer(), item.ID, false); !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("second review should fail, got %v", err)
	}
}

func TestSetFinalAgendaAdvancesState(t *testing.T) {
	svc := testService(newStubMeetings())
	meeting := createMeeting(t, svc)

	updated, err := svc.SetFinalAgenda(context.Background(), organizer(), meeting.ID, "1. Intro\n2. Totals", "")
	if err != nil {
		t.Fatalf("SetFinalAgenda returned error: %v", err)
	}
	if updated.Status != domain.MeetingAgendaSet {
		t.Fatalf("status = %s, want agenda_set", updated.Status)
	}
	if updated.FinalAgenda == "" {
		t.Fatal("final agenda not stored")
	}
}

func TestSetFinalAgendaRejectedAfterCompletion(t *testing.T) {
	svc := testService(newStubMeetings())
	meeting := createMeeting(t, svc)
	if _, err := svc.Complete(context.Background(), organizer(), meeting.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := svc.SetFinalAgenda(context.Background(), organizer(), meeting.ID, "late agenda", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	svc := testService(newStubMeetings())
	meeting := createMeeting(t, svc)
	if _, err := svc.Complete(context.Background(), organizer(), meeting.ID); err != nil {
		t.Fatalf("first complete: %v", err)
	}
	completed, err := svc.Complete(context.Background(), organizer(), meeting.ID)
	if err != nil {
		t.Fatalf("second complete: %v", err)
	}
	if completed.Status != domain.MeetingCompleted {
		t.Fatalf("status = %s, want completed", completed.Status)
	}
}
