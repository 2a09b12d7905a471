package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/announcement"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/auth"
	"github.com/nicunursekatie/sandwichsync-sub003/pkg/config"
	jwtpkg "github.com/nicunursekatie/sandwichsync-sub003/pkg/jwt"
)

type rateLimiterStub struct {
	mu      sync.Mutex
	calls   []rateLimitCall
	allowFn func(key string, limit int, window time.Duration) rateDecision
}

type rateLimitCall struct {
	key    string
	limit  int
	window time.Duration
}

func (rl *rateLimiterStub) Allow(key string, limit int, window time.Duration) rateDecision {
	rl.mu.Lock()
	rl.calls = append(rl.calls, rateLimitCall{key: key, limit: limit, window: window})
	fn := rl.allowFn
	rl.mu.Unlock()
	if fn != nil {
		return fn(key, limit, window)
	}
	return rateDecision{allowed: true, count: 1, windowEnd: time.Now().Add(window)}
}

func (rl *rateLimiterStub) Close() {}

type userRepoStub struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: make(map[string]*domain.User)}
}

func (u *userRepoStub) CreateUser(_ context.Context, user *domain.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	copied := *user
	u.users[user.ID] = &copied
	return nil
}

func (u *userRepoStub) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (u *userRepoStub) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if user, ok := u.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (u *userRepoStub) ListUsers(_ context.Context) ([]domain.User, error) {
	return nil, nil
}

func (u *userRepoStub) UpdateUser(_ context.Context, user *domain.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	copied := *user
	u.users[user.ID] = &copied
	return nil
}

type announcementRepoStub struct {
	mu          sync.Mutex
	items       []domain.Announcement
	activeCalls int
}

func (a *announcementRepoStub) CreateAnnouncement(_ context.Context, announcement *domain.Announcement) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = append(a.items, *announcement)
	return nil
}

func (a *announcementRepoStub) GetAnnouncementByID(_ context.Context, id string) (*domain.Announcement, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.items {
		if a.items[i].ID == id {
			copied := a.items[i]
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (a *announcementRepoStub) ListAnnouncements(_ context.Context) ([]domain.Announcement, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.Announcement, len(a.items))
	copy(out, a.items)
	return out, nil
}

func (a *announcementRepoStub) ListActiveAnnouncements(_ context.Context, now time.Time) ([]domain.Announcement, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.activeCalls++
	var out []domain.Announcement
	for _, item := range a.items {
		if item.VisibleAt(now) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (a *announcementRepoStub) UpdateAnnouncement(_ context.Context, announcement *domain.Announcement) error {
	return nil
}

func (a *announcementRepoStub) DeleteAnnouncement(_ context.Context, id string) error {
	return nil
}

func setupRouter(t *testing.T, announcements *announcementRepoStub, limiter *rateLimiterStub) (*Router, string) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	userRepo := newUserRepoStub()
	userRepo.users["user-123"] = &domain.User{
		ID:     "user-123",
		Email:  "vol@example.org",
		Role:   domain.RoleVolunteer,
		Active: true,
	}

	cfg := config.APIConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}
	router := &Router{
		logger:        logger,
		auth:          auth.New(userRepo, logger, cfg),
		announcements: announcement.New(announcements, nil, time.Minute, logger),
		limiter:       limiter,
	}

	token, err := jwtpkg.GenerateToken("user-123", string(domain.RoleVolunteer), jwtpkg.TokenTypeAccess, cfg.JWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return router, token
}

func TestHandleMeReturnsSession(t *testing.T) {
	limiter := &rateLimiterStub{}
	reset := time.Unix(1_950_000_000, 0)
	limiter.allowFn = func(key string, limit int, window time.Duration) rateDecision {
		return rateDecision{allowed: true, count: 3, windowEnd: reset}
	}
	router, token := setupRouter(t, &announcementRepoStub{}, limiter)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	router.handlerAuthRate("/auth/me", rateLimitUserRead, rateWindowDefault, router.handleMe)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "117" {
		t.Fatalf("unexpected remaining header %q", got)
	}

	limiter.mu.Lock()
	if len(limiter.calls) != 1 {
		limiter.mu.Unlock()
		t.Fatalf("expected limiter called once, got %d", len(limiter.calls))
	}
	call := limiter.calls[0]
	limiter.mu.Unlock()
	if call.key != "user:user-123" {
		t.Fatalf("unexpected limiter key %q", call.key)
	}

	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["id"] != "user-123" || payload["email"] != "vol@example.org" {
		t.Fatalf("unexpected session payload: %v", payload)
	}
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	limiter := &rateLimiterStub{}
	router, _ := setupRouter(t, &announcementRepoStub{}, limiter)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rr := httptest.NewRecorder()
	router.handlerAuthRate("/auth/me", rateLimitUserRead, rateWindowDefault, router.handleMe)(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
	limiter.mu.Lock()
	calls := len(limiter.calls)
	limiter.mu.Unlock()
	if calls != 0 {
		t.Fatalf("expected limiter not called, got %d", calls)
	}
}

func TestRequireAuthRejectsUnknownUser(t *testing.T) {
	router, _ := setupRouter(t, &announcementRepoStub{}, &rateLimiterStub{})

	token, err := jwtpkg.GenerateToken("ghost", string(domain.RoleVolunteer), jwtpkg.TokenTypeAccess, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	router.requireAuth(router.handleMe)(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestWithRateLimitDenies(t *testing.T) {
	repo := &announcementRepoStub{}
	limiter := &rateLimiterStub{}
	reset := time.Unix(1_960_000_000, 0)
	limiter.allowFn = func(key string, limit int, window time.Duration) rateDecision {
		return rateDecision{allowed: false, count: rateLimitPublic, windowEnd: reset}
	}
	router, _ := setupRouter(t, repo, limiter)

	req := httptest.NewRequest(http.MethodGet, "/announcements/active", nil)
	req.RemoteAddr = "203.0.113.9:4242"

	rr := httptest.NewRecorder()
	router.withRateLimit("/announcements/active", rateLimitPublic, rateWindowDefault, rateLimitKeyIP, router.handleActiveAnnouncements)(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rr.Code)
	}
	if rr.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("unexpected remaining header %q", rr.Header().Get("X-RateLimit-Remaining"))
	}
	if rr.Header().Get("X-RateLimit-Reset") != "1960000000" {
		t.Fatalf("unexpected reset header %q", rr.Header().Get("X-RateLimit-Reset"))
	}

	limiter.mu.Lock()
	call := limiter.calls[0]
	limiter.mu.Unlock()
	if call.key != "ip:203.0.113.9" {
		t.Fatalf("unexpected limiter key %q", call.key)
	}

	repo.mu.Lock()
	active := repo.activeCalls
	repo.mu.Unlock()
	if active != 0 {
		t.Fatalf("expected repository not invoked, got %d calls", active)
	}
}

func TestHandleActiveAnnouncementsNoAuth(t *testing.T) {
	repo := &announcementRepoStub{}
	repo.items = []domain.Announcement{
		{ID: "live", Title: "Collections resume Monday", Active: true, StartsAt: time.Now().Add(-time.Hour)},
		{ID: "upcoming", Title: "later", Active: true, StartsAt: time.Now().Add(time.Hour)},
	}
	router, _ := setupRouter(t, repo, &rateLimiterStub{})

	req := httptest.NewRequest(http.MethodGet, "/announcements/active", nil)
	rr := httptest.NewRecorder()
	router.handleActiveAnnouncements(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var payload []map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(payload) != 1 || payload[0]["ID"] != "live" {
		t.Fatalf("unexpected active feed: %v", payload)
	}
}

func TestHandleHealthzReportsDatabase(t *testing.T) {
	router, _ := setupRouter(t, &announcementRepoStub{}, &rateLimiterStub{})
	router.dbHealth = func(ctx context.Context) error { return nil }

	rr := httptest.NewRecorder()
	router.handleHealthz(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	router.dbHealth = func(ctx context.Context) error { return errors.New("connection refused") }
	rr = httptest.NewRecorder()
	router.handleHealthz(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["status"] != "degraded" {
		t.Fatalf("unexpected status: %v", payload["status"])
	}
}
