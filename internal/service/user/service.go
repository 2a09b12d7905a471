package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository"
	"github.com/nicunursekatie/sandwichsync-sub003/pkg/crypto"
)

var (
	errEmailRequired = errors.New("email is required")
	errUnknownRole   = errors.New("unknown role")
)

var validRoles = map[string]struct{}{
	domain.RoleSuperAdmin:      {},
	domain.RoleAdmin:           {},
	domain.RoleCommitteeMember: {},
	domain.RoleHost:            {},
	domain.RoleDriver:          {},
	domain.RoleVolunteer:       {},
	domain.RoleRecipient:       {},
	domain.RoleViewer:          {},
}

// Service handles user administration.
type Service struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// New constructs a Service.
func New(users repository.UserRepository, logger *slog.Logger) Service {
	return Service{users: users, logger: logger}
}

// CreateInput describes an admin-created account.
type CreateInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// Create registers an account on behalf of an administrator.
func (s Service) Create(ctx context.Context, input CreateInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, errEmailRequired
	}
	role := input.Role
	if role == "" {
		role = domain.RoleVolunteer
	}
	if _, ok := validRoles[role]; !ok {
		return nil, errUnknownRole
	}
	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         role,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// List returns all accounts.
func (s Service) List(ctx context.Context) ([]domain.User, error) {
	return s.users.ListUsers(ctx)
}

// Get returns one account.
func (s Service) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// UpdateInput carries optional field updates. Nil pointers leave the field
// unchanged.
type UpdateInput struct {
	FirstName   *string   `json:"first_name"`
	LastName    *string   `json:"last_name"`
	Role        *string   `json:"role"`
	Permissions *[]string `json:"permissions"`
	Active      *bool     `json:"active"`
}

// Update applies profile, role, and permission changes.
func (s Service) Update(ctx context.Context, id string, input UpdateInput) (*domain.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Role != nil {
		if _, ok := validRoles[*input.Role]; !ok {
			return nil, errUnknownRole
		}
		user.Role = *input.Role
	}
	if input.Permissions != nil {
		user.Permissions = *input.Permissions
	}
	if input.Active != nil {
		user.Active = *input.Active
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user updated", "user_id", user.ID, "role", user.Role, "active", user.Active)
	return user, nil
}

// Deactivate disables an account without deleting its history.
func (s Service) Deactivate(ctx context.Context, id string) error {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if !user.Active {
		return nil
	}
	user.Active = false
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}
	s.logger.Info("user deactivated", "user_id", id)
	return nil
}
