package collection

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
	// ErrForbidden is returned when the caller lacks the needed capability.
	ErrForbidden = errors.New("operation not permitted")
	// ErrHostExists is returned when creating a host whose name is taken.
	ErrHostExists = errors.New("host name already in use")

	errNameRequired     = errors.New("name is required")
	errHostRequired     = errors.New("host name is required")
	errDateRequired     = errors.New("collection date is required")
	errNegativeCount    = errors.New("sandwich counts cannot be negative")
	errUnknownHost      = errors.New("unknown host")
	errInactiveHost     = errors.New("host is inactive")
	errUnknownRecipient = errors.New("unknown recipient")
)

// Service handles hosts, recipients, and sandwich collection entries.
type Service struct {
	hosts       repository.HostRepository
	recipients  repository.RecipientRepository
	collections repository.CollectionRepository
	logger      *slog.Logger
}

// New constructs a Service.
func New(hosts repository.HostRepository, recipients repository.RecipientRepository, collections repository.CollectionRepository, logger *slog.Logger) Service {
	return Service{hosts: hosts, recipients: recipients, collections: collections, logger: logger}
}

// HostInput describes host fields for create and update.
type HostInput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Status  string `json:"status"`
	Notes   string `json:"notes"`
}

// CreateHost registers a collection site. Names are unique.
func (s Service) CreateHost(ctx context.Context, actor *domain.User, input HostInput) (*domain.Host, error) {
	if !access.Can(actor, access.ManageHosts) {
		return nil, ErrForbidden
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errNameRequired
	}
	now := time.Now().UTC()
	host := &domain.Host{
		ID:        uuid.NewString(),
		Name:      name,
		Address:   strings.TrimSpace(input.Address),
		Phone:     strings.TrimSpace(input.Phone),
		Email:     strings.TrimSpace(input.Email),
		Status:    defaultStatus(input.Status),
		Notes:     input.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.hosts.CreateHost(ctx, host); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrHostExists
		}
		return nil, err
	}
	s.logger.Info("host created", "host_id", host.ID, "name", host.Name)
	return host, nil
}

// ListHosts returns hosts, optionally filtered by status.
func (s Service) ListHosts(ctx context.Context, status string) ([]domain.Host, error) {
	return s.hosts.ListHosts(ctx, status)
}

// GetHost returns one host.
func (s Service) GetHost(ctx context.Context, id string) (*domain.Host, error) {
	return s.hosts.GetHostByID(ctx, id)
}

// UpdateHost applies host changes. Renames ripple into collection entries so
// history stays attached to the host.
func (s Service) UpdateHost(ctx context.Context, actor *domain.User, id string, input HostInput) (*domain.Host, error) {
	if !access.Can(actor, access.ManageHosts) {
		return nil, ErrForbidden
	}
	host, err := s.hosts.GetHostByID(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errNameRequired
	}
	host.Name = name
	host.Address = strings.TrimSpace(input.Address)
	host.Phone = strings.TrimSpace(input.Phone)
	host.Email = strings.TrimSpace(input.Email)
	host.Status = defaultStatus(input.Status)
	host.Notes = input.Notes
	if err := s.hosts.UpdateHost(ctx, host); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrHostExists
		}
		return nil, err
	}
	return host, nil
}

// DeleteHost removes a host and its logged collections.
func (s Service) DeleteHost(ctx context.Context, actor *domain.User, id string) error {
	if !access.Can(actor, access.ManageHosts) {
		return ErrForbidden
	}
	host, err := s.hosts.GetHostByID(ctx, id)
	if err != nil {
		return err
	}
	removed, err := s.collections.DeleteCollectionsByHost(ctx, host.Name)
	if err != nil {
		return err
	}
	if err := s.hosts.DeleteHost(ctx, id); err != nil {
		return err
	}
	s.logger.Info("host deleted", "host_id", id, "collections_removed", removed)
	return nil
}

// PurgeHostEntries removes every collection logged against a host while
// keeping the host itself, for cleaning up bad bulk imports.
func (s Service) PurgeHostEntries(ctx context.Context, actor *domain.User, hostName string) (int64, error) {
	if !access.Can(actor, access.ManageHosts) {
		return 0, ErrForbidden
	}
	host, err := s.hosts.GetHostByName(ctx, strings.TrimSpace(hostName))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, errUnknownHost
		}
		return 0, err
	}
	removed, err := s.collections.DeleteCollectionsByHost(ctx, host.Name)
	if err != nil {
		return 0, err
	}
	s.logger.Info("host collections purged", "host", host.Name, "removed", removed)
	return removed, nil
}

// RecipientInput describes recipient fields for create and update.
type RecipientInput struct {
	Name           string `json:"name"`
	ContactName    string `json:"contact_name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	WeeklyEstimate int    `json:"weekly_estimate"`
	Status         string `json:"status"`
	Notes          string `json:"notes"`
}

// CreateRecipient registers a distribution recipient.
func (s Service) CreateRecipient(ctx context.Context, actor *domain.User, input RecipientInput) (*domain.Recipient, error) {
	if !access.Can(actor, access.ManageRecipients) {
		return nil, ErrForbidden
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errNameRequired
	}
	if input.WeeklyEstimate < 0 {
		return nil, errNegativeCount
	}
	now := time.Now().UTC()
	recipient := &domain.Recipient{
		ID:             uuid.NewString(),
		Name:           name,
		ContactName:    strings.TrimSpace(input.ContactName),
		Phone:          strings.TrimSpace(input.Phone),
		Email:          strings.TrimSpace(input.Email),
		WeeklyEstimate: input.WeeklyEstimate,
		Status:         defaultStatus(input.Status),
		Notes:          input.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.recipients.CreateRecipient(ctx, recipient); err != nil {
		return nil, err
	}
	s.logger.Info("recipient created", "recipient_id", recipient.ID, "name", recipient.Name)
	return recipient, nil
}

// ListRecipients returns recipients, optionally filtered by status.
func (s Service) ListRecipients(ctx context.Context, status string) ([]domain.Recipient, error) {
	return s.recipients.ListRecipients(ctx, status)
}

// GetRecipient returns one recipient.
func (s Service) GetRecipient(ctx context.Context, id string) (*domain.Recipient, error) {
	recipient, err := s.recipients.GetRecipientByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUnknownRecipient
		}
		return nil, err
	}
	return recipient, nil
}

// UpdateRecipient applies recipient changes.
func (s Service) UpdateRecipient(ctx context.Context, actor *domain.User, id string, input RecipientInput) (*domain.Recipient, error) {
	if !access.Can(actor, access.ManageRecipients) {
		return nil, ErrForbidden
	}
	recipient, err := s.recipients.GetRecipientByID(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errNameRequired
	}
	if input.WeeklyEstimate < 0 {
		return nil, errNegativeCount
	}
	recipient.Name = name
	recipient.ContactName = strings.TrimSpace(input.ContactName)
	recipient.Phone = strings.TrimSpace(input.Phone)
	recipient.Email = strings.TrimSpace(input.Email)
	recipient.WeeklyEstimate = input.WeeklyEstimate
	recipient.Status = defaultStatus(input.Status)
	recipient.Notes = input.Notes
	if err := s.recipients.UpdateRecipient(ctx, recipient); err != nil {
		return nil, err
	}
	return recipient, nil
}

// DeleteRecipient removes a recipient.
func (s Service) DeleteRecipient(ctx context.Context, actor *domain.User, id string) error {
	if !access.Can(actor, access.ManageRecipients) {
		return ErrForbidden
	}
	return s.recipients.DeleteRecipient(ctx, id)
}

// EntryInput describes a collection entry for create and update.
type EntryInput struct {
	CollectionDate   time.Time                `json:"collection_date"`
	HostName         string                   `json:"host_name"`
	IndividualCount  int                      `json:"individual_count"`
	GroupCollections []domain.GroupCollection `json:"group_collections"`
}

// LogEntry records a sandwich collection against an active host.
func (s Service) LogEntry(ctx context.Context, actor *domain.User, input EntryInput) (*domain.SandwichCollection, error) {
	if !access.Can(actor, access.LogCollections) {
		return nil, ErrForbidden
	}
	if err := validateEntry(input); err != nil {
		return nil, err
	}
	host, err := s.hosts.GetHostByName(ctx, strings.TrimSpace(input.HostName))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUnknownHost
		}
		return nil, err
	}
	if host.Status == "inactive" {
		return nil, errInactiveHost
	}
	entry := &domain.SandwichCollection{
		CollectionDate:   input.CollectionDate,
		HostName:         host.Name,
		IndividualCount:  input.IndividualCount,
		GroupCollections: input.GroupCollections,
		SubmittedBy:      actor.ID,
		SubmittedAt:      time.Now().UTC(),
	}
	if err := s.collections.CreateCollection(ctx, entry); err != nil {
		return nil, err
	}
	s.logger.Info("collection logged",
		"collection_id", entry.ID,
		"host", entry.HostName,
		"total", entry.Total())
	return entry, nil
}

// ListEntries returns collections matching the filter, newest first.
func (s Service) ListEntries(ctx context.Context, filter repository.CollectionFilter) ([]domain.SandwichCollection, error) {
	return s.collections.ListCollections(ctx, filter)
}

// GetEntry returns one collection entry.
func (s Service) GetEntry(ctx context.Context, id int64) (*domain.SandwichCollection, error) {
	return s.collections.GetCollectionByID(ctx, id)
}

// UpdateEntry rewrites a collection entry. The submitter or a host manager
// may edit.
func (s Service) UpdateEntry(ctx context.Context, actor *domain.User, id int64, input EntryInput) (*domain.SandwichCollection, error) {
	entry, err := s.collections.GetCollectionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.SubmittedBy != actor.ID && !access.Can(actor, access.ManageHosts) {
		return nil, ErrForbidden
	}
	if err := validateEntry(input); err != nil {
		return nil, err
	}
	entry.CollectionDate = input.CollectionDate
	entry.HostName = strings.TrimSpace(input.HostName)
	entry.IndividualCount = input.IndividualCount
	entry.GroupCollections = input.GroupCollections
	if err := s.collections.UpdateCollection(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// DeleteEntry removes a collection entry. The submitter or a host manager
// may delete.
func (s Service) DeleteEntry(ctx context.Context, actor *domain.User, id int64) error {
	entry, err := s.collections.GetCollectionByID(ctx, id)
	if err != nil {
		return err
	}
	if entry.SubmittedBy != actor.ID && !access.Can(actor, access.ManageHosts) {
		return ErrForbidden
	}
	return s.collections.DeleteCollection(ctx, id)
}

// Totals returns network-wide aggregates.
func (s Service) Totals(ctx context.Context) (domain.CollectionTotals, error) {
	return s.collections.CollectionTotals(ctx)
}

// HostTotals returns per-host aggregates, largest contributor first.
func (s Service) HostTotals(ctx context.Context) ([]domain.HostTotal, error) {
	return s.collections.HostTotals(ctx)
}

// WeeklyTotals returns week-bucketed aggregates for the trailing weeks.
func (s Service) WeeklyTotals(ctx context.Context, weeks int) ([]domain.WeeklyTotal, error) {
	if weeks <= 0 {
		weeks = 52
	}
	return s.collections.WeeklyTotals(ctx, weeks)
}

func validateEntry(input EntryInput) error {
	if strings.TrimSpace(input.HostName) == "" {
		return errHostRequired
	}
	if input.CollectionDate.IsZero() {
		return errDateRequired
	}
	if input.IndividualCount < 0 {
		return errNegativeCount
	}
	for _, g := range input.GroupCollections {
		if g.SandwichCount < 0 {
			return errNegativeCount
		}
	}
	return nil
}

func defaultStatus(status string) string {
	if status == "" {
		return "active"
	}
	return status
}
