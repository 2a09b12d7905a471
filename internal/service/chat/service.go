package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/access"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/ws"
)

var (
	// ErrNotMember is returned when the caller does not belong to the
	// conversation.
	ErrNotMember = errors.New("not a member of this conversation")
	// ErrForbidden is returned when the caller lacks the capability for the
	// attempted operation.
	ErrForbidden = errors.New("operation not permitted")

	errContentRequired = errors.New("message content is required")
	errNameRequired    = errors.New("conversation name is required")
	errUnknownType     = errors.New("unknown conversation type")
	errSelfDirect      = errors.New("cannot open a direct conversation with yourself")
	errParentMismatch  = errors.New("parent message belongs to another conversation")
)

// Service handles conversations, messages, and stream fan-out.
type Service struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	hub           *ws.Hub
	logger        *slog.Logger
}

// New constructs a Service.
func New(conversations repository.ConversationRepository, messages repository.MessageRepository, hub *ws.Hub, logger *slog.Logger) Service {
	return Service{conversations: conversations, messages: messages, hub: hub, logger: logger}
}

// CreateConversation opens a channel, group, or host conversation. Channels
// require moderation rights; anyone who can send messages may start a group.
func (s Service) CreateConversation(ctx context.Context, actor *domain.User, convType, name string, memberIDs []string) (*domain.Conversation, error) {
	name = strings.TrimSpace(name)
	switch convType {
	case domain.ConversationChannel:
		if !access.Can(actor, access.ModerateMessages) {
			return nil, ErrForbidden
		}
	case domain.ConversationGroup, domain.ConversationHost:
		if !access.Can(actor, access.SendMessages) {
			return nil, ErrForbidden
		}
	case domain.ConversationDirect:
		return nil, errors.New("use EnsureDirectConversation for direct chats")
	default:
		return nil, errUnknownType
	}
	if name == "" {
		return nil, errNameRequired
	}

	now := time.Now().UTC()
	conversation := &domain.Conversation{
		ID:        uuid.NewString(),
		Type:      convType,
		Name:      name,
		CreatedBy: actor.ID,
		CreatedAt: now,
	}
	members := make([]domain.ConversationMember, 0, len(memberIDs)+1)
	members = append(members, domain.ConversationMember{
		ConversationID: conversation.ID,
		UserID:         actor.ID,
		Role:           domain.MemberRoleAdmin,
		JoinedAt:       now,
	})
	for _, id := range memberIDs {
		if id == actor.ID {
			continue
		}
		members = append(members, domain.ConversationMember{
			ConversationID: conversation.ID,
			UserID:         id,
			Role:           domain.MemberRoleMember,
			JoinedAt:       now,
		})
	}
	if err := s.conversations.CreateConversation(ctx, conversation, members); err != nil {
		return nil, err
	}
	s.logger.Info("conversation created", "conversation_id", conversation.ID, "type", convType, "members", len(members))
	return conversation, nil
}

// EnsureDirectConversation returns the direct conversation between the actor
// and the other user, creating it when absent. The pair is unique regardless
// of who opened it first.
func (s Service) EnsureDirectConversation(ctx context.Context, actor *domain.User, otherUserID string) (*domain.Conversation, error) {
	if !access.Can(actor, access.ChatDirect) {
		return nil, ErrForbidden
	}
	if otherUserID == "" || otherUserID == actor.ID {
		return nil, errSelfDirect
	}
	existing, err := s.conversations.FindDirectConversation(ctx, actor.ID, otherUserID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	conversation := &domain.Conversation{
		ID:        uuid.NewString(),
		Type:      domain.ConversationDirect,
		CreatedBy: actor.ID,
		CreatedAt: now,
	}
	members := []domain.ConversationMember{
		{ConversationID: conversation.ID, UserID: actor.ID, Role: domain.MemberRoleMember, JoinedAt: now},
		{ConversationID: conversation.ID, UserID: otherUserID, Role: domain.MemberRoleMember, JoinedAt: now},
	}
	if err := s.conversations.CreateConversation(ctx, conversation, members); err != nil {
		return nil, err
	}
	s.logger.Info("direct conversation created", "conversation_id", conversation.ID)
	return conversation, nil
}

// ListConversations returns the conversations the user belongs to.
func (s Service) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	return s.conversations.ListConversationsByUser(ctx, userID)
}

// AddMembers adds users to a conversation. The actor must be a conversation
// admin or hold moderation rights.
func (s Service) AddMembers(ctx context.Context, actor *domain.User, conversationID string, userIDs []string) error {
	if err := s.requireConversationAdmin(ctx, actor, conversationID); err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, id := range userIDs {
		member := &domain.ConversationMember{
			ConversationID: conversationID,
			UserID:         id,
			Role:           domain.MemberRoleMember,
			JoinedAt:       now,
		}
		if err := s.conversations.UpsertMember(ctx, member); err != nil {
			return err
		}
	}
	return nil
}

// RemoveMember removes a user from a conversation. Self-removal is always
// allowed; removing others requires conversation admin or moderation rights.
func (s Service) RemoveMember(ctx context.Context, actor *domain.User, conversationID, userID string) error {
	if userID != actor.ID {
		if err := s.requireConversationAdmin(ctx, actor, conversationID); err != nil {
			return err
		}
	}
	return s.conversations.RemoveMember(ctx, conversationID, userID)
}

// SendMessage stores a message and broadcasts it to stream subscribers.
func (s Service) SendMessage(ctx context.Context, actor *domain.User, conversationID, content, parentID string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errContentRequired
	}
	conversation, err := s.conversations.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !access.Can(actor, access.ConversationCapability(conversation)) {
		return nil, ErrForbidden
	}
	if _, err := s.conversations.GetMember(ctx, conversationID, actor.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotMember
		}
		return nil, err
	}

	message := &domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       actor.ID,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	if parentID = strings.TrimSpace(parentID); parentID != "" {
		parent, err := s.messages.GetMessageByID(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent.ConversationID != conversationID {
			return nil, errParentMismatch
		}
		// Replies always hang off the thread root.
		root := parent.ID
		if parent.ParentID != nil {
			root = *parent.ParentID
		}
		message.ParentID = &root
	}
	if err := s.messages.CreateMessage(ctx, message); err != nil {
		return nil, err
	}
	s.broadcast(*message, actor.DisplayName())
	return message, nil
}

// ListMessages returns messages for members, newest first. A non-empty
// parentID scopes the listing to one thread.
func (s Service) ListMessages(ctx context.Context, actor *domain.User, conversationID, parentID string, limit, offset int) ([]domain.Message, error) {
	if _, err := s.conversations.GetMember(ctx, conversationID, actor.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotMember
		}
		return nil, err
	}
	return s.messages.ListMessages(ctx, conversationID, parentID, limit, offset)
}

// EditMessage replaces message content. Only the author may edit.
func (s Service) EditMessage(ctx context.Context, actor *domain.User, messageID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errContentRequired
	}
	message, err := s.messages.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID != actor.ID {
		return nil, ErrForbidden
	}
	now := time.Now().UTC()
	if err := s.messages.UpdateMessageContent(ctx, messageID, content, now); err != nil {
		return nil, err
	}
	message.Content = content
	message.EditedAt = &now
	return message, nil
}

// DeleteMessage removes a message. Only the author or a caller holding
// moderation rights may delete.
func (s Service) DeleteMessage(ctx context.Context, actor *domain.User, messageID string) error {
	message, err := s.messages.GetMessageByID(ctx, messageID)
	if err != nil {
		return err
	}
	if message.SenderID != actor.ID && !access.Can(actor, access.ModerateMessages) {
		return ErrForbidden
	}
	if err := s.messages.DeleteMessage(ctx, messageID); err != nil {
		return err
	}
	s.logger.Info("message deleted", "message_id", messageID, "actor_id", actor.ID, "author_id", message.SenderID)
	return nil
}

// MarkRead advances the caller's read watermark in a conversation.
func (s Service) MarkRead(ctx context.Context, actor *domain.User, conversationID string) error {
	err := s.conversations.MarkRead(ctx, conversationID, actor.ID, time.Now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotMember
	}
	return err
}

// Membership verifies the actor belongs to the conversation. The websocket
// endpoint uses it before subscribing.
func (s Service) Membership(ctx context.Context, actor *domain.User, conversationID string) error {
	if _, err := s.conversations.GetMember(ctx, conversationID, actor.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotMember
		}
		return err
	}
	return nil
}

// Hub returns the stream hub (useful for HTTP handlers).
func (s Service) Hub() *ws.Hub {
	return s.hub
}

func (s Service) requireConversationAdmin(ctx context.Context, actor *domain.User, conversationID string) error {
	if access.Can(actor, access.ModerateMessages) {
		return nil
	}
	member, err := s.conversations.GetMember(ctx, conversationID, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotMember
		}
		return err
	}
	if member.Role != domain.MemberRoleAdmin {
		return ErrForbidden
	}
	return nil
}

func (s Service) broadcast(message domain.Message, senderName string) {
	data, err := MarshalMessage(message, senderName)
	if err != nil {
		s.logger.Warn("failed to marshal message payload", "error", err)
		return
	}
	s.hub.Broadcast(message.ConversationID, data)
}

// MarshalMessage formats a chat message for streaming payloads.
func MarshalMessage(message domain.Message, senderName string) ([]byte, error) {
	payload := map[string]any{
		"id":              message.ID,
		"conversation_id": message.ConversationID,
		"sender_id":       message.SenderID,
		"sender_name":     senderName,
		"content":         message.Content,
		"parent_id":       message.ParentID,
		"created_at":      message.CreatedAt.Format(time.RFC3339Nano),
	}
	return json.Marshal(payload)
}
