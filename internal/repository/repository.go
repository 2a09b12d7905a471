package repository

import (
	"context"
	"time"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
)

// UserRepository persists users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
}

// ConversationRepository manages conversations and memberships.
type ConversationRepository interface {
	CreateConversation(ctx context.Context, conversation *domain.Conversation, members []domain.ConversationMember) error
	GetConversationByID(ctx context.Context, id string) (*domain.Conversation, error)
	FindDirectConversation(ctx context.Context, userA, userB string) (*domain.Conversation, error)
	ListConversationsByUser(ctx context.Context, userID string) ([]domain.Conversation, error)
	UpsertMember(ctx context.Context, member *domain.ConversationMember) error
	RemoveMember(ctx context.Context, conversationID, userID string) error
	GetMember(ctx context.Context, conversationID, userID string) (*domain.ConversationMember, error)
	MarkRead(ctx context.Context, conversationID, userID string, at time.Time) error
}

// MessageRepository persists chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, message *domain.Message) error
	GetMessageByID(ctx context.Context, id string) (*domain.Message, error)
	ListMessages(ctx context.Context, conversationID, parentID string, limit, offset int) ([]domain.Message, error)
	UpdateMessageContent(ctx context.Context, id, content string, editedAt time.Time) error
	DeleteMessage(ctx context.Context, id string) error
}

// ProjectRepository persists projects and their tasks.
type ProjectRepository interface {
	CreateProject(ctx context.Context, project *domain.Project) error
	GetProjectByID(ctx context.Context, id string) (*domain.Project, error)
	ListProjects(ctx context.Context, status string) ([]domain.Project, error)
	UpdateProject(ctx context.Context, project *domain.Project) error
	DeleteProject(ctx context.Context, id string) error
	CreateTask(ctx context.Context, task *domain.ProjectTask) error
	GetTaskByID(ctx context.Context, id string) (*domain.ProjectTask, error)
	ListTasksByProject(ctx context.Context, projectID string) ([]domain.ProjectTask, error)
	UpdateTask(ctx context.Context, task *domain.ProjectTask) error
	DeleteTask(ctx context.Context, id string) error
}

// MeetingRepository persists meetings and agenda items.
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting *domain.Meeting) error
	GetMeetingByID(ctx context.Context, id string) (*domain.Meeting, error)
	ListMeetings(ctx context.Context, status string) ([]domain.Meeting, error)
	UpdateMeeting(ctx context.Context, meeting *domain.Meeting) error
	DeleteMeeting(ctx context.Context, id string) error
	CreateAgendaItem(ctx context.Context, item *domain.AgendaItem) error
	GetAgendaItemByID(ctx context.Context, id string) (*domain.AgendaItem, error)
	ListAgendaItems(ctx context.Context, meetingID, status string) ([]domain.AgendaItem, error)
	UpdateAgendaItem(ctx context.Context, item *domain.AgendaItem) error
}

// AnnouncementRepository persists announcements.
type AnnouncementRepository interface {
	CreateAnnouncement(ctx context.Context, announcement *domain.Announcement) error
	GetAnnouncementByID(ctx context.Context, id string) (*domain.Announcement, error)
	ListAnnouncements(ctx context.Context) ([]domain.Announcement, error)
	ListActiveAnnouncements(ctx context.Context, now time.Time) ([]domain.Announcement, error)
	UpdateAnnouncement(ctx context.Context, announcement *domain.Announcement) error
	DeleteAnnouncement(ctx context.Context, id string) error
}

// HostRepository persists collection sites.
type HostRepository interface {
	CreateHost(ctx context.Context, host *domain.Host) error
	GetHostByID(ctx context.Context, id string) (*domain.Host, error)
	GetHostByName(ctx context.Context, name string) (*domain.Host, error)
	ListHosts(ctx context.Context, status string) ([]domain.Host, error)
	UpdateHost(ctx context.Context, host *domain.Host) error
	DeleteHost(ctx context.Context, id string) error
}

// RecipientRepository persists distribution recipients.
type RecipientRepository interface {
	CreateRecipient(ctx context.Context, recipient *domain.Recipient) error
	GetRecipientByID(ctx context.Context, id string) (*domain.Recipient, error)
	ListRecipients(ctx context.Context, status string) ([]domain.Recipient, error)
	UpdateRecipient(ctx context.Context, recipient *domain.Recipient) error
	DeleteRecipient(ctx context.Context, id string) error
}

// CollectionFilter narrows collection listings.
type CollectionFilter struct {
	HostName string
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}

// CollectionRepository persists sandwich collection entries and aggregates.
type CollectionRepository interface {
	CreateCollection(ctx context.Context, collection *domain.SandwichCollection) error
	GetCollectionByID(ctx context.Context, id int64) (*domain.SandwichCollection, error)
	FindCollection(ctx context.Context, date time.Time, hostName string, individualCount int) (*domain.SandwichCollection, error)
	ListCollections(ctx context.Context, filter CollectionFilter) ([]domain.SandwichCollection, error)
	UpdateCollection(ctx context.Context, collection *domain.SandwichCollection) error
	DeleteCollection(ctx context.Context, id int64) error
	DeleteCollectionsByHost(ctx context.Context, hostName string) (int64, error)
	CollectionTotals(ctx context.Context) (domain.CollectionTotals, error)
	HostTotals(ctx context.Context) ([]domain.HostTotal, error)
	WeeklyTotals(ctx context.Context, weeks int) ([]domain.WeeklyTotal, error)
}
