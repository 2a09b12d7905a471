package report

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"log/slog"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/access"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/email"
)

var (
	// ErrForbidden is returned when the caller lacks the needed capability.
	ErrForbidden = errors.New("operation not permitted")

	errRecipientRequired = errors.New("recipient email is required")
)

// Service assembles collection reports and delivers them by email.
type Service struct {
	collections repository.CollectionRepository
	mailer      email.Service
	logger      *slog.Logger
}

// New constructs a Service.
func New(collections repository.CollectionRepository, mailer email.Service, logger *slog.Logger) Service {
	return Service{collections: collections, mailer: mailer, logger: logger}
}

// SendWeeklySummary mails the trailing week's totals to one recipient.
func (s Service) SendWeeklySummary(ctx context.Context, actor *domain.User, to string) error {
	if !access.Can(actor, access.ViewAnalytics) {
		return ErrForbidden
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return errRecipientRequired
	}
	totals, err := s.collections.CollectionTotals(ctx)
	if err != nil {
		return err
	}
	weeks, err := s.collections.WeeklyTotals(ctx, 1)
	if err != nil {
		return err
	}
	var weekTotal, entryCount int64
	if len(weeks) > 0 {
		weekTotal = weeks[0].CompleteTotal
		entryCount = weeks[0].Entries
	}
	vars := map[string]string{
		"first_name":     greetingName(actor),
		"week_total":     strconv.FormatInt(weekTotal, 10),
		"entry_count":    strconv.FormatInt(entryCount, 10),
		"complete_total": strconv.FormatInt(totals.CompleteTotal, 10),
	}
	if err := s.mailer.Send(ctx, to, email.TemplateWeeklySummary, vars); err != nil {
		return err
	}
	s.logger.Info("weekly summary sent", "to", to, "week_total", weekTotal, "entries", entryCount)
	return nil
}

func greetingName(actor *domain.User) string {
	if name := strings.TrimSpace(actor.FirstName); name != "" {
		return name
	}
	return "there"
}
