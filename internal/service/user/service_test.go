package user

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository"
	"github.com/nicunursekatie/sandwichsync-sub003/pkg/crypto"
)

type stubUserRepository struct {
	users map[string]*domain.User
}

func newStubUsers() *stubUserRepository {
	return &stubUserRepository{users: make(map[string]*domain.User)}
}

func (s *stubUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return repository.ErrConflict
		}
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *stubUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubUserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	if user, ok := s.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubUserRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, user := range s.users {
		out = append(out, *user)
	}
	return out, nil
}

func (s *stubUserRepository) UpdateUser(ctx context.Context, user *domain.User) error {
	if _, ok := s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func testService(repo *stubUserRepository) Service {
	return New(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateDefaultsToVolunteer(t *testing.T) {
	svc := testService(newStubUsers())
	created, err := svc.Create(context.Background(), CreateInput{
		Email:    " Katie@Example.org ",
		Password: "secret-pw",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.Email != "katie@example.org" {
		t.Fatalf("email = %q, want normalized lowercase", created.Email)
	}
	if created.Role != domain.RoleVolunteer {
		t.Fatalf("role = %s, want volunteer", created.Role)
	}
	if !created.Active {
		t.Fatal("new account should be active")
	}
	if err := crypto.ComparePassword(created.PasswordHash, "secret-pw"); err != nil {
		t.Fatalf("password hash does not verify: %v", err)
	}
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	svc := testService(newStubUsers())
	if _, err := svc.Create(context.Background(), CreateInput{Email: "x@example.org", Password: "pw", Role: "wizard"}); !errors.Is(err, errUnknownRole) {
		t.Fatalf("expected errUnknownRole, got %v", err)
	}
}

func TestUpdateAppliesPartialChanges(t *testing.T) {
	repo := newStubUsers()
	svc := testService(repo)
	created, err := svc.Create(context.Background(), CreateInput{Email: "x@example.org", Password: "pw", FirstName: "Old"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	role := domain.RoleCommitteeMember
	perms := []string{"manage_hosts"}
	updated, err := svc.Update(context.Background(), created.ID, UpdateInput{Role: &role, Permissions: &perms})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Role != domain.RoleCommitteeMember {
		t.Fatalf("role = %s, want committee_member", updated.Role)
	}
	if len(updated.Permissions) != 1 || updated.Permissions[0] != "manage_hosts" {
		t.Fatalf("permissions = %v", updated.Permissions)
	}
	// Untouched fields survive.
	if updated.FirstName != "Old" {
		t.Fatalf("first name = %q, want Old", updated.FirstName)
	}
}

func TestDeactivateIsIdempotent(t *testing.T) {
	repo := newStubUsers()
	svc := testService(repo)
	created, err := svc.Create(context.Background(), CreateInput{Email: "x@example.org", Password: "pw"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Deactivate(context.Background(), created.ID); err != nil {
		t.Fatalf("first deactivate: %v", err)
	}
	if err := svc.Deactivate(context.Background(), created.ID); err != nil {
		t.Fatalf("second deactivate: %v", err)
	}
	stored, _ := repo.GetUserByID(context.Background(), created.ID)
	if stored.Active {
		t.Fatal("account still active")
	}
}

func TestDeactivateUnknownUser(t *testing.T) {
	svc := testService(newStubUsers())
	if err := svc.Deactivate(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
