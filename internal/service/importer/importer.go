package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository"
)

// groupsHostName is the synthetic host that backup entries without a real
// host were logged under.
const groupsHostName = "Groups"

// Backup is the JSON export layout produced by the legacy system.
type Backup struct {
	Hosts         []BackupHost         `json:"hosts"`
	Conversations []BackupConversation `json:"conversations"`
	Messages      []BackupMessage      `json:"messages"`
	Collections   []BackupCollection   `json:"sandwich_collections"`
}

// BackupHost is a host record in a backup file.
type BackupHost struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Status  string `json:"status"`
	Notes   string `json:"notes"`
}

// BackupConversation is a conversation record in a backup file.
type BackupConversation struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Name      string   `json:"name"`
	CreatedBy string   `json:"created_by"`
	MemberIDs []string `json:"member_ids"`
}

// BackupMessage is a message record in a backup file.
type BackupMessage struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	Content        string `json:"content"`
	ParentID       string `json:"parent_id"`
	CreatedAt      string `json:"created_at"`
}

// BackupCollection is a collection record in a backup file. The group field
// carries the historical mixed formats.
type BackupCollection struct {
	CollectionDate   string `json:"collection_date"`
	HostName         string `json:"host_name"`
	IndividualCount  int    `json:"individual_count"`
	GroupCollections string `json:"group_collections"`
	SubmittedBy      string `json:"submitted_by"`
	SubmittedAt      string `json:"submitted_at"`
}

// Options controls a restore run.
type Options struct {
	// Preview parses and counts without writing anything.
	Preview bool
	// Overwrite replaces matching records instead of skipping them.
	Overwrite bool
}

// Result summarizes a restore run per record kind.
type Result struct {
	Hosts         Counts   `json:"hosts"`
	Conversations Counts   `json:"conversations"`
	Messages      Counts   `json:"messages"`
	Collections   Counts   `json:"collections"`
	Errors        []string `json:"errors"`
}

// Counts tallies one record kind.
type Counts struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Importer restores JSON backups into the live store.
type Importer struct {
	hosts         repository.HostRepository
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	collections   repository.CollectionRepository
	logger        *slog.Logger
}

// New constructs an Importer.
func New(hosts repository.HostRepository, conversations repository.ConversationRepository, messages repository.MessageRepository, collections repository.CollectionRepository, logger *slog.Logger) Importer {
	return Importer{
		hosts:         hosts,
		conversations: conversations,
		messages:      messages,
		collections:   collections,
		logger:        logger,
	}
}

// Restore reads a backup stream and loads it. A bad record is logged and
// counted; the restore never aborts on record errors.
func (im Importer) Restore(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	var backup Backup
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}

	result := &Result{}
	im.restoreHosts(ctx, backup.Hosts, opts, result)
	im.restoreConversations(ctx, backup.Conversations, opts, result)
	im.restoreMessages(ctx, backup.Messages, opts, result)
	im.restoreCollections(ctx, backup.Collections, opts, result)

	im.logger.Info("backup restore finished",
		"hosts", result.Hosts.Imported,
		"conversations", result.Conversations.Imported,
		"messages", result.Messages.Imported,
		"collections", result.Collections.Imported,
		"errors", len(result.Errors),
		"preview", opts.Preview)
	return result, nil
}

func (im Importer) restoreHosts(ctx context.Context, records []BackupHost, opts Options, result *Result) {
	for i, record := range records {
		name := strings.TrimSpace(record.Name)
		if name == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("host %d: missing name", i))
			continue
		}
		existing, err := im.hosts.GetHostByName(ctx, name)
		if err == nil {
			if !opts.Overwrite {
				result.Hosts.Skipped++
				continue
			}
			if opts.Preview {
				result.Hosts.Imported++
				continue
			}
			existing.Address = record.Address
			existing.Phone = record.Phone
			existing.Email = record.Email
			existing.Status = defaultStatus(record.Status)
			existing.Notes = record.Notes
			if err := im.hosts.UpdateHost(ctx, existing); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("host %q: %v", name, err))
				continue
			}
			result.Hosts.Imported++
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			result.Errors = append(result.Errors, fmt.Sprintf("host %q: %v", name, err))
			continue
		}
		if opts.Preview {
			result.Hosts.Imported++
			continue
		}
		now := time.Now().UTC()
		host := &domain.Host{
			ID:        recordID(record.ID),
			Name:      name,
			Address:   record.Address,
			Phone:     record.Phone,
			Email:     record.Email,
			Status:    defaultStatus(record.Status),
			Notes:     record.Notes,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := im.hosts.CreateHost(ctx, host); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("host %q: %v", name, err))
			continue
		}
		result.Hosts.Imported++
	}
}

func (im Importer) restoreConversations(ctx context.Context, records []BackupConversation, opts Options, result *Result) {
	for i, record := range records {
		if record.ID == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("conversation %d: missing id", i))
			continue
		}
		if _, err := im.conversations.GetConversationByID(ctx, record.ID); err == nil {
			result.Conversations.Skipped++
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			result.Errors = append(result.Errors, fmt.Sprintf("conversation %s: %v", record.ID, err))
			continue
		}
		if opts.Preview {
			result.Conversations.Imported++
			continue
		}
		now := time.Now().UTC()
		conversation := &domain.Conversation{
			ID:        record.ID,
			Type:      record.Type,
			Name:      record.Name,
			CreatedBy: record.CreatedBy,
			CreatedAt: now,
		}
		members := make([]domain.ConversationMember, 0, len(record.MemberIDs))
		for _, userID := range record.MemberIDs {
			members = append(members, domain.ConversationMember{
				ConversationID: record.ID,
				UserID:         userID,
				Role:           domain.MemberRoleMember,
				JoinedAt:       now,
			})
		}
		if err := im.conversations.CreateConversation(ctx, conversation, members); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("conversation %s: %v", record.ID, err))
			continue
		}
		result.Conversations.Imported++
	}
}

func (im Importer) restoreMessages(ctx context.Context, records []BackupMessage, opts Options, result *Result) {
	for i, record := range records {
		if record.ID == "" || record.ConversationID == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("message %d: missing id or conversation", i))
			continue
		}
		if _, err := im.messages.GetMessageByID(ctx, record.ID); err == nil {
			result.Messages.Skipped++
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			result.Errors = append(result.Errors, fmt.Sprintf("message %s: %v", record.ID, err))
			continue
		}
		if opts.Preview {
			result.Messages.Imported++
			continue
		}
		message := &domain.Message{
			ID:             record.ID,
			ConversationID: record.ConversationID,
			SenderID:       record.SenderID,
			Content:        record.Content,
			CreatedAt:      parseBackupTime(record.CreatedAt),
		}
		if record.ParentID != "" {
			parentID := record.ParentID
			message.ParentID = &parentID
		}
		if err := im.messages.CreateMessage(ctx, message); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("message %s: %v", record.ID, err))
			continue
		}
		result.Messages.Imported++
	}
}

func (im Importer) restoreCollections(ctx context.Context, records []BackupCollection, opts Options, result *Result) {
	ensuredGroups := false
	for i, record := range records {
		date, err := parseBackupDate(record.CollectionDate)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("collection %d: %v", i, err))
			continue
		}
		hostName := strings.TrimSpace(record.HostName)
		if hostName == "" {
			// Legacy group-only entries carried no host.
			hostName = groupsHostName
		}
		groups, err := domain.ParseGroupCollections(record.GroupCollections)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("collection %d: %v", i, err))
			continue
		}
		if hostName == groupsHostName && !ensuredGroups && !opts.Preview {
			if err := im.ensureGroupsHost(ctx); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("collection %d: %v", i, err))
				continue
			}
			ensuredGroups = true
		}

		existing, err := im.collections.FindCollection(ctx, date, hostName, record.IndividualCount)
		if err == nil {
			if !opts.Overwrite {
				result.Collections.Skipped++
				continue
			}
			if opts.Preview {
				result.Collections.Imported++
				continue
			}
			existing.GroupCollections = groups
			if err := im.collections.UpdateCollection(ctx, existing); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("collection %d: %v", i, err))
				continue
			}
			result.Collections.Imported++
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			result.Errors = append(result.Errors, fmt.Sprintf("collection %d: %v", i, err))
			continue
		}
		if opts.Preview {
			result.Collections.Imported++
			continue
		}
		entry := &domain.SandwichCollection{
			CollectionDate:   date,
			HostName:         hostName,
			IndividualCount:  record.IndividualCount,
			GroupCollections: groups,
			SubmittedBy:      record.SubmittedBy,
			SubmittedAt:      parseBackupTime(record.SubmittedAt),
		}
		if err := im.collections.CreateCollection(ctx, entry); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("collection %d: %v", i, err))
			continue
		}
		result.Collections.Imported++
	}
}

// ensureGroupsHost creates the synthetic Groups host when absent so restored
// group-only entries have a valid home.
func (im Importer) ensureGroupsHost(ctx context.Context) error {
	_, err := im.hosts.GetHostByName(ctx, groupsHostName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	now := time.Now().UTC()
	host := &domain.Host{
		ID:        uuid.NewString(),
		Name:      groupsHostName,
		Status:    "active",
		Notes:     "Synthetic host for group-only collection entries.",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := im.hosts.CreateHost(ctx, host); err != nil && !errors.Is(err, repository.ErrConflict) {
		return err
	}
	im.logger.Info("created synthetic host for group entries", "host", groupsHostName)
	return nil
}

var backupTimeFormats = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseBackupTime(raw string) time.Time {
	for _, layout := range backupTimeFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

func parseBackupDate(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, errors.New("missing collection date")
	}
	for _, layout := range backupTimeFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q", raw)
}

func recordID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func defaultStatus(status string) string {
	if status == "" {
		return "active"
	}
	return status
}
