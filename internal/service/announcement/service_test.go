package announcement

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

type stubAnnouncementRepository struct {
	announcements map[string]*domain.Announcement
	activeCalls   int
}

func newStubAnnouncements() *stubAnnouncementRepository {
	return &stubAnnouncementRepository{announcements: make(map[string]*domain.Announcement)}
}

func (s *stubAnnouncementRepository) CreateAnnouncement(ctx context.Context, announcement *domain.Announcement) error {
	s.announcements[announcement.ID] = announcement
	return nil
}

func (s *stubAnnouncementRepository) GetAnnouncementByID(ctx context.Context, id string) (*domain.Announcement, error) {
	if announcement, ok := s.announcements[id]; ok {
		copied := *announcement
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubAnnouncementRepository) ListAnnouncements(ctx context.Context) ([]domain.Announcement, error) {
	var out []domain.Announcement
	for _, announcement := range s.announcements {
		out = append(out, *announcement)
	}
	return out, nil
}

func (s *stubAnnouncementRepository) ListActiveAnnouncements(ctx context.Context, now time.Time) ([]domain.Announcement, error) {
	s.activeCalls++
	var out []domain.Announcement
	for _, announcement := range s.announcements {
		if announcement.VisibleAt(now) {
			out = append(out, *announcement)
		}
	}
	return out, nil
}

func (s *stubAnnouncementRepository) UpdateAnnouncement(ctx context.Context, announcement *domain.Announcement) error {
	if _, ok := s.announcements[announcement.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *announcement
	s.announcements[announcement.ID] = &copied
	return nil
}

func (s *stubAnnouncementRepository) DeleteAnnouncement(ctx context.Context, id string) error {
	if _, ok := s.announcements[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.announcements, id)
	return nil
}

func testService(repo *stubAnnouncementRepository) Service {
	// No cache: every ListActive goes to the repository.
	return New(repo, nil, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func admin() *domain.User {
	return &domain.User{ID: "adm", Role: domain.RoleAdmin, Active: true}
}

func TestCreateRequiresManageAnnouncements(t *testing.T) {
	svc := testService(newStubAnnouncements())
	volunteer := &domain.User{ID: "vol", Role: domain.RoleVolunteer, Active: true}
	if _, err := svc.Create(context.Background(), volunteer, Input{Title: "x", Active: true}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateRejectsInvertedWindow(t *testing.T) {
	svc := testService(newStubAnnouncements())
	start := time.Now()
	end := start.Add(-time.Hour)
	if _, err := svc.Create(context.Background(), admin(), Input{Title: "x", StartsAt: start, EndsAt: &end}); err == nil {
		t.Fatal("expected error for ends_at before starts_at")
	}
}

func TestListActiveFiltersWindow(t *testing.T) {
	repo := newStubAnnouncements()
	svc := testService(repo)
	now := time.Now().UTC()

	past := now.Add(-2 * time.Hour)
	ended := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	seed := []*domain.Announcement{
		{ID: "live", Title: "live", Active: true, StartsAt: past},
		{ID: "expired", Title: "expired", Active: true, StartsAt: past, EndsAt: &ended},
		{ID: "upcoming", Title: "upcoming", Active: true, StartsAt: future},
		{ID: "disabled", Title: "disabled", Active: false, StartsAt: past},
	}
	for _, announcement := range seed {
		repo.announcements[announcement.ID] = announcement
	}

	active, err := svc.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive returned error: %v", err)
	}
	if len(active) != 1 || active[0].ID != "live" {
		t.Fatalf("unexpected active set: %+v", active)
	}
}

func TestUpdateRewritesFields(t *testing.T) {
	repo := newStubAnnouncements()
	svc := testService(repo)
	created, err := svc.Create(context.Background(), admin(), Input{Title: "before", Priority: 1, Active: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, err := svc.Update(context.Background(), admin(), created.ID, Input{Title: "after", Priority: 5, Active: false})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "after" || updated.Priority != 5 || updated.Active {
		t.Fatalf("update not applied: %+v", updated)
	}
}

func TestDeleteUnknownAnnouncement(t *testing.T) {
	svc := testService(newStubAnnouncements())
	if err := svc.Delete(context.Background(), admin(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
