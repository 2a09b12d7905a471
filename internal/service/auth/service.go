package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository"
	"github.com/nicunursekatie/sandwichsync-sub003/pkg/config"
	"github.com/nicunursekatie/sandwichsync-sub003/pkg/crypto"
	jwtpkg "github.com/nicunursekatie/sandwichsync-sub003/pkg/jwt"
)

var (
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when signup hits an existing account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrAccountDisabled is returned when a deactivated account authenticates.
	ErrAccountDisabled = errors.New("account is deactivated")
	// ErrWrongTokenType is returned when a refresh token is presented for
	// authorization or an access token for refresh.
	ErrWrongTokenType = errors.New("wrong token type")

	errEmailRequired    = errors.New("email is required")
	errPasswordRequired = errors.New("password is required")
)

// Service handles authentication workflows.
type Service struct {
	users  repository.UserRepository
	logger *slog.Logger
	cfg    config.APIConfig
}

// New constructs a Service.
func New(users repository.UserRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, logger: logger, cfg: cfg}
}

// TokenPair contains access and refresh tokens.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    time.Duration `json:"expires_in"`
}

// Signup registers a new user with the default volunteer role.
func (s Service) Signup(ctx context.Context, email, password, firstName, lastName string) (*domain.User, TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, TokenPair{}, errEmailRequired
	}
	if password == "" {
		return nil, TokenPair{}, errPasswordRequired
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Role:         domain.RoleVolunteer,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, TokenPair{}, ErrEmailTaken
		}
		return nil, TokenPair{}, err
	}
	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, tokens, nil
}

// Login authenticates a user and returns tokens.
func (s Service) Login(ctx context.Context, email, password string) (*domain.User, TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, err
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, TokenPair{}, ErrAccountDisabled
	}
	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, tokens, nil
}

// Authorize validates a bearer token and returns the associated user and claims.
func (s Service) Authorize(ctx context.Context, token string) (*domain.User, *jwtpkg.Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, nil, errors.New("token required")
	}
	claims, err := jwtpkg.Parse(trimmed, s.cfg.JWTSecret)
	if err != nil {
		return nil, nil, err
	}
	if claims.TokenType != jwtpkg.TokenTypeAccess {
		return nil, nil, ErrWrongTokenType
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	if !user.Active {
		return nil, nil, ErrAccountDisabled
	}
	return user, claims, nil
}

// Refresh re-issues a token pair for a valid refresh token. Access tokens
// are rejected here so a leaked short-lived token cannot mint new pairs.
func (s Service) Refresh(ctx context.Context, refreshToken string) (*domain.User, TokenPair, error) {
	trimmed := strings.TrimSpace(refreshToken)
	if trimmed == "" {
		return nil, TokenPair{}, errors.New("token required")
	}
	claims, err := jwtpkg.Parse(trimmed, s.cfg.JWTSecret)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if claims.TokenType != jwtpkg.TokenTypeRefresh {
		return nil, TokenPair{}, ErrWrongTokenType
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if !user.Active {
		return nil, TokenPair{}, ErrAccountDisabled
	}
	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return user, tokens, nil
}

func (s Service) issueTokens(user *domain.User) (TokenPair, error) {
	access, err := jwtpkg.GenerateToken(user.ID, user.Role, jwtpkg.TokenTypeAccess, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := jwtpkg.GenerateToken(user.ID, user.Role, jwtpkg.TokenTypeRefresh, s.cfg.JWTSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: s.cfg.AccessTokenTTL}, nil
}
