package announcement

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/access"
)

const activeCacheKey = "announcements:active"

var (
	// ErrForbidden is returned when the caller lacks announcement rights.
	ErrForbidden = errors.New("operation not permitted")

	errTitleRequired = errors.New("title is required")
	errBadWindow     = errors.New("ends_at must be after starts_at")
)

// Service handles priority announcements. Active listings are cached in
// Redis when a client is configured; without one every read hits Postgres.
type Service struct {
	announcements repository.AnnouncementRepository
	cache         *redis.Client
	cacheTTL      time.Duration
	logger        *slog.Logger
}

// New constructs a Service. cache may be nil.
func New(announcements repository.AnnouncementRepository, cache *redis.Client, cacheTTL time.Duration, logger *slog.Logger) Service {
	return Service{announcements: announcements, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Input describes announcement fields for create and update.
type Input struct {
	Title    string     `json:"title"`
	Body     string     `json:"body"`
	Type     string     `json:"type"`
	Priority int        `json:"priority"`
	Link     string     `json:"link"`
	StartsAt time.Time  `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
	Active   bool       `json:"active"`
}

// Create publishes an announcement.
func (s Service) Create(ctx context.Context, actor *domain.User, input Input) (*domain.Announcement, error) {
	if !access.Can(actor, access.ManageAnnouncements) {
		return nil, ErrForbidden
	}
	if err := validate(input); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	startsAt := input.StartsAt
	if startsAt.IsZero() {
		startsAt = now
	}
	announcement := &domain.Announcement{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(input.Title),
		Body:      input.Body,
		Type:      input.Type,
		Priority:  input.Priority,
		Link:      input.Link,
		StartsAt:  startsAt,
		EndsAt:    input.EndsAt,
		Active:    input.Active,
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.announcements.CreateAnnouncement(ctx, announcement); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.logger.Info("announcement created", "announcement_id", announcement.ID, "priority", announcement.Priority)
	return announcement, nil
}

// List returns every announcement regardless of window, for administration.
func (s Service) List(ctx context.Context, actor *domain.User) ([]domain.Announcement, error) {
	if !access.Can(actor, access.ManageAnnouncements) {
		return nil, ErrForbidden
	}
	return s.announcements.ListAnnouncements(ctx)
}

// Get returns one announcement.
func (s Service) Get(ctx context.Context, id string) (*domain.Announcement, error) {
	return s.announcements.GetAnnouncementByID(ctx, id)
}

// ListActive returns announcements visible right now, highest priority first.
// Results are served from cache when possible; cache failures degrade to the
// database.
func (s Service) ListActive(ctx context.Context) ([]domain.Announcement, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, activeCacheKey).Bytes()
		if err == nil {
			var cached []domain.Announcement
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("announcement cache read failed", "error", err)
		}
	}

	active, err := s.announcements.ListActiveAnnouncements(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if raw, err := json.Marshal(active); err == nil {
			if err := s.cache.Set(ctx, activeCacheKey, raw, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("announcement cache write failed", "error", err)
			}
		}
	}
	return active, nil
}

// Update applies changes and refreshes the active cache.
func (s Service) Update(ctx context.Context, actor *domain.User, id string, input Input) (*domain.Announcement, error) {
	if !access.Can(actor, access.ManageAnnouncements) {
		return nil, ErrForbidden
	}
	if err := validate(input); err != nil {
		return nil, err
	}
	announcement, err := s.announcements.GetAnnouncementByID(ctx, id)
	if err != nil {
		return nil, err
	}
	announcement.Title = strings.TrimSpace(input.Title)
	announcement.Body = input.Body
	announcement.Type = input.Type
	announcement.Priority = input.Priority
	announcement.Link = input.Link
	if !input.StartsAt.IsZero() {
		announcement.StartsAt = input.StartsAt
	}
	announcement.EndsAt = input.EndsAt
	announcement.Active = input.Active
	if err := s.announcements.UpdateAnnouncement(ctx, announcement); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return announcement, nil
}

// Delete removes an announcement.
func (s Service) Delete(ctx context.Context, actor *domain.User, id string) error {
	if !access.Can(actor, access.ManageAnnouncements) {
		return ErrForbidden
	}
	if err := s.announcements.DeleteAnnouncement(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, activeCacheKey).Err(); err != nil {
		s.logger.Warn("announcement cache invalidation failed", "error", err)
	}
}

func validate(input Input) error {
	if strings.TrimSpace(input.Title) == "" {
		return errTitleRequired
	}
	if input.EndsAt != nil && !input.StartsAt.IsZero() && !input.EndsAt.After(input.StartsAt) {
		return errBadWindow
	}
	return nil
}
