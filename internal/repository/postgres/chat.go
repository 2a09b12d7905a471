package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository"
)

// CreateConversation inserts a conversation and its initial members in one
// transaction.
func (r *Repository) CreateConversation(ctx context.Context, conversation *domain.Conversation, members []domain.ConversationMember) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const convInsert = `INSERT INTO conversations (id, type, name, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.Exec(ctx, convInsert,
		conversation.ID,
		conversation.Type,
		conversation.Name,
		emptyToNil(conversation.CreatedBy),
		conversation.CreatedAt,
	); err != nil {
		return mapPgError(err)
	}

	if len(members) > 0 {
		const memberInsert = `INSERT INTO conversation_members (conversation_id, user_id, role, joined_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (conversation_id, user_id) DO NOTHING`
		batch := &pgx.Batch{}
		for _, member := range members {
			batch.Queue(memberInsert, conversation.ID, member.UserID, member.Role, member.JoinedAt)
		}
		br := tx.SendBatch(ctx, batch)
		for range members {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return mapPgError(err)
			}
		}
		if err := br.Close(); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetConversationByID loads a single conversation.
func (r *Repository) GetConversationByID(ctx context.Context, id string) (*domain.Conversation, error) {
	const query = `SELECT id, type, name, COALESCE(created_by, ''), created_at FROM conversations WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var c domain.Conversation
	if err := row.Scan(&c.ID, &c.Type, &c.Name, &c.CreatedBy, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindDirectConversation locates the direct conversation between two users
// regardless of creation order.
func (r *Repository) FindDirectConversation(ctx context.Context, userA, userB string) (*domain.Conversation, error) {
	const query = `SELECT c.id, c.type, c.name, COALESCE(c.created_by, ''), c.created_at
		FROM conversations c
		WHERE c.type = 'direct'
			AND EXISTS (SELECT 1 FROM conversation_members m WHERE m.conversation_id = c.id AND m.user_id = $1)
			AND EXISTS (SELECT 1 FROM conversation_members m WHERE m.conversation_id = c.id AND m.user_id = $2)
		LIMIT 1`
	row := r.pool.QueryRow(ctx, query, userA, userB)
	var c domain.Conversation
	if err := row.Scan(&c.ID, &c.Type, &c.Name, &c.CreatedBy, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListConversationsByUser returns conversations the user belongs to.
func (r *Repository) ListConversationsByUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	const query = `SELECT c.id, c.type, c.name, COALESCE(c.created_by, ''), c.created_at
		FROM conversations c
		INNER JOIN conversation_members m ON m.conversation_id = c.id
		WHERE m.user_id = $1
		ORDER BY c.created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := make([]domain.Conversation, 0)
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(&c.ID, &c.Type, &c.Name, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

// UpsertMember adds a member to a conversation or updates the role.
func (r *Repository) UpsertMember(ctx context.Context, member *domain.ConversationMember) error {
	const query = `INSERT INTO conversation_members (conversation_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (conversation_id, user_id) DO UPDATE SET role = EXCLUDED.role`
	_, err := r.pool.Exec(ctx, query, member.ConversationID, member.UserID, member.Role, member.JoinedAt)
	return mapPgError(err)
}

// RemoveMember deletes a membership row.
func (r *Repository) RemoveMember(ctx context.Context, conversationID, userID string) error {
	const query = `DELETE FROM conversation_members WHERE conversation_id = $1 AND user_id = $2`
	cmdTag, err := r.pool.Exec(ctx, query, conversationID, userID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetMember loads one membership row.
func (r *Repository) GetMember(ctx context.Context, conversationID, userID string) (*domain.ConversationMember, error) {
	const query = `SELECT conversation_id, user_id, role, last_read_at, joined_at
		FROM conversation_members WHERE conversation_id = $1 AND user_id = $2`
	row := r.pool.QueryRow(ctx, query, conversationID, userID)
	var m domain.ConversationMember
	if err := row.Scan(&m.ConversationID, &m.UserID, &m.Role, &m.LastReadAt, &m.JoinedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// MarkRead advances the member's read watermark.
func (r *Repository) MarkRead(ctx context.Context, conversationID, userID string, at time.Time) error {
	const query = `UPDATE conversation_members SET last_read_at = $3
		WHERE conversation_id = $1 AND user_id = $2`
	cmdTag, err := r.pool.Exec(ctx, query, conversationID, userID, at.UTC())
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CreateMessage inserts a message.
func (r *Repository) CreateMessage(ctx context.Context, message *domain.Message) error {
	const query = `INSERT INTO messages (id, conversation_id, sender_id, content, parent_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query,
		message.ID,
		message.ConversationID,
		message.SenderID,
		message.Content,
		stringPtrToNil(message.ParentID),
		message.CreatedAt,
	)
	return mapPgError(err)
}

// GetMessageByID fetches a message by identifier.
func (r *Repository) GetMessageByID(ctx context.Context, id string) (*domain.Message, error) {
	const query = `SELECT id, conversation_id, sender_id, content, parent_id, edited_at, created_at
		FROM messages WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var m domain.Message
	if err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.ParentID, &m.EditedAt, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListMessages returns messages newest first, optionally scoped to a thread.
func (r *Repository) ListMessages(ctx context.Context, conversationID, parentID string, limit, offset int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `SELECT id, conversation_id, sender_id, content, parent_id, edited_at, created_at
		FROM messages
		WHERE conversation_id = $1 AND ($2 = '' OR parent_id::text = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.pool.Query(ctx, query, conversationID, parentID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.ParentID, &m.EditedAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// UpdateMessageContent replaces message content and stamps the edit time.
func (r *Repository) UpdateMessageContent(ctx context.Context, id, content string, editedAt time.Time) error {
	const query = `UPDATE messages SET content = $2, edited_at = $3 WHERE id = $1`
	cmdTag, err := r.pool.Exec(ctx, query, id, content, editedAt.UTC())
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteMessage removes a message and its thread replies.
func (r *Repository) DeleteMessage(ctx context.Context, id string) error {
	const query = `DELETE FROM messages WHERE id = $1 OR parent_id = $1`
	cmdTag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
