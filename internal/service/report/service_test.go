package report

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"log/slog"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/email"
	"github.com/nicunursekatie/sandwichsync-sub003/pkg/config"
)

type stubCollectionRepository struct {
	totals domain.CollectionTotals
	weeks  []domain.WeeklyTotal
}

func (s *stubCollectionRepository) CreateCollection(ctx context.Context, collection *domain.SandwichCollection) error {
	return nil
}

func (s *stubCollectionRepository) GetCollectionByID(ctx context.Context, id int64) (*domain.SandwichCollection, error) {
	return nil, repository.ErrNotFound
}

func (s *stubCollectionRepository) FindCollection(ctx context.Context, date time.Time, hostName string, individualCount int) (*domain.SandwichCollection, error) {
	return nil, repository.ErrNotFound
}

func (s *stubCollectionRepository) ListCollections(ctx context.Context, filter repository.CollectionFilter) ([]domain.SandwichCollection, error) {
	return nil, nil
}

func (s *stubCollectionRepository) UpdateCollection(ctx context.Context, collection *domain.SandwichCollection) error {
	return nil
}

func (s *stubCollectionRepository) DeleteCollection(ctx context.Context, id int64) error {
	return nil
}

func (s *stubCollectionRepository) DeleteCollectionsByHost(ctx context.Context, hostName string) (int64, error) {
	return 0, nil
}

func (s *stubCollectionRepository) CollectionTotals(ctx context.Context) (domain.CollectionTotals, error) {
	return s.totals, nil
}

func (s *stubCollectionRepository) HostTotals(ctx context.Context) ([]domain.HostTotal, error) {
	return nil, nil
}

func (s *stubCollectionRepository) WeeklyTotals(ctx context.Context, weeks int) ([]domain.WeeklyTotal, error) {
	return s.weeks, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func analyst() *domain.User {
	return &domain.User{ID: "v1", FirstName: "Dana", Role: domain.RoleViewer, Active: true}
}

func TestSendWeeklySummaryRequiresCapability(t *testing.T) {
	svc := New(&stubCollectionRepository{}, email.New(config.APIConfig{}, testLogger()), testLogger())

	volunteer := &domain.User{ID: "vol", Role: domain.RoleVolunteer, Active: true}
	if err := svc.SendWeeklySummary(context.Background(), volunteer, "board@example.org"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestSendWeeklySummaryRequiresRecipient(t *testing.T) {
	svc := New(&stubCollectionRepository{}, email.New(config.APIConfig{}, testLogger()), testLogger())

	if err := svc.SendWeeklySummary(context.Background(), analyst(), "  "); !errors.Is(err, errRecipientRequired) {
		t.Fatalf("expected errRecipientRequired, got %v", err)
	}
}

func TestSendWeeklySummaryDeliversTotals(t *testing.T) {
	var delivered struct {
		From    string   `json:"from"`
		To      []string `json:"to"`
		Subject string   `json:"subject"`
		Text    string   `json:"text"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if err := json.NewDecoder(req.Body).Decode(&delivered); err != nil {
			t.Errorf("decode delivery: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.APIConfig{
		EmailAPIURL:      server.URL,
		EmailAPIKey:      "re_test",
		EmailFromAddress: "updates@sandwich.project",
	}
	repo := &stubCollectionRepository{
		totals: domain.CollectionTotals{Entries: 40, CompleteTotal: 12500},
		weeks: []domain.WeeklyTotal{
			{WeekStart: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), Entries: 6, CompleteTotal: 830},
		},
	}
	svc := New(repo, email.New(cfg, testLogger()), testLogger())

	if err := svc.SendWeeklySummary(context.Background(), analyst(), "board@example.org"); err != nil {
		t.Fatalf("SendWeeklySummary returned error: %v", err)
	}
	if len(delivered.To) != 1 || delivered.To[0] != "board@example.org" {
		t.Fatalf("unexpected recipients: %v", delivered.To)
	}
	if delivered.Subject != "Weekly collection summary" {
		t.Fatalf("unexpected subject: %q", delivered.Subject)
	}
	for _, want := range []string{"Hi Dana", "830 sandwiches", "6 collections", "12500"} {
		if !strings.Contains(delivered.Text, want) {
			t.Fatalf("body missing %q:\n%s", want, delivered.Text)
		}
	}
}
