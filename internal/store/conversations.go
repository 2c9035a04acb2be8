package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role is the author of a stored message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole coerces a stored role string, ignoring case and surrounding
// space. Anything that is not "user" is treated as the assistant.
func ParseRole(s string) Role {
	if strings.ToLower(strings.TrimSpace(s)) == string(RoleUser) {
		return RoleUser
	}
	return RoleAssistant
}

// Conversation groups the messages of one chat thread.
type Conversation struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one immutable turn of a conversation.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateConversation starts a new conversation for owner.
func (s *Store) CreateConversation(ctx context.Context, owner string) (*Conversation, error) {
	ts := now()
	c := &Conversation{UserID: owner, CreatedAt: ts, UpdatedAt: ts}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, s.rebind(
			`INSERT INTO conversations (user_id, created_at, updated_at) VALUES (?, ?, ?) RETURNING id`),
			owner, formatTime(ts), formatTime(ts),
		).Scan(&c.ID)
		if err != nil {
			return fmt.Errorf("store: insert conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetConversation returns the conversation if it exists and owner owns it.
func (s *Store) GetConversation(ctx context.Context, owner string, id int64) (*Conversation, error) {
	var c *Conversation
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		c, err = s.getConversation(ctx, tx, owner, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// LatestConversation returns owner's most recently created conversation,
// or ErrNotFound when owner has none.
func (s *Store) LatestConversation(ctx context.Context, owner string) (*Conversation, error) {
	var c *Conversation
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, s.rebind(
			`SELECT id, user_id, created_at, updated_at FROM conversations
			 WHERE user_id = ? ORDER BY id DESC LIMIT 1`), owner)
		var err error
		c, err = scanConversation(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no conversation for user: %w", ErrNotFound)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// AppendMessage stores a message and refreshes the conversation's
// updated_at in the same transaction.
func (s *Store) AppendMessage(ctx context.Context, owner string, conversationID int64, role Role, content string) (*Message, error) {
	ts := now()
	m := &Message{
		ConversationID: conversationID,
		UserID:         owner,
		Role:           ParseRole(string(role)),
		Content:        content,
		CreatedAt:      ts,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getConversation(ctx, tx, owner, conversationID); err != nil {
			return err
		}

		err := tx.QueryRowContext(ctx, s.rebind(
			`INSERT INTO messages (conversation_id, user_id, role, content, created_at)
			 VALUES (?, ?, ?, ?, ?) RETURNING id`),
			conversationID, owner, string(m.Role), content, formatTime(ts),
		).Scan(&m.ID)
		if err != nil {
			return fmt.Errorf("store: insert message: %w", err)
		}

		if _, err := tx.ExecContext(ctx, s.rebind(
			`UPDATE conversations SET updated_at = ? WHERE id = ?`),
			formatTime(ts), conversationID,
		); err != nil {
			return fmt.Errorf("store: touch conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecentMessages returns up to limit of the newest messages in the
// conversation, oldest first. A limit of zero or less returns none.
func (s *Store) RecentMessages(ctx context.Context, owner string, conversationID int64, limit int) ([]*Message, error) {
	msgs := []*Message{}
	if limit <= 0 {
		return msgs, nil
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, s.rebind(
			`SELECT id, conversation_id, user_id, role, content, created_at FROM messages
			 WHERE conversation_id = ? AND user_id = ?
			 ORDER BY id DESC LIMIT ?`),
			conversationID, owner, limit,
		)
		if err != nil {
			return fmt.Errorf("store: recent messages: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			m, err := scanMessage(rows)
			if err != nil {
				return err
			}
			msgs = append(msgs, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	// Newest-first from the query; callers want chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ListMessages returns the whole conversation in order. The conversation
// must be owned by owner.
func (s *Store) ListMessages(ctx context.Context, owner string, conversationID int64) ([]*Message, error) {
	msgs := []*Message{}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getConversation(ctx, tx, owner, conversationID); err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, s.rebind(
			`SELECT id, conversation_id, user_id, role, content, created_at FROM messages
			 WHERE conversation_id = ? AND user_id = ? ORDER BY id ASC`),
			conversationID, owner,
		)
		if err != nil {
			return fmt.Errorf("store: list messages: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			m, err := scanMessage(rows)
			if err != nil {
				return err
			}
			msgs = append(msgs, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *Store) getConversation(ctx context.Context, tx *sql.Tx, owner string, id int64) (*Conversation, error) {
	row := tx.QueryRowContext(ctx, s.rebind(
		`SELECT id, user_id, created_at, updated_at FROM conversations WHERE id = ? AND user_id = ?`),
		id, owner)
	c, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation id %d %w", id, ErrNotFound)
	}
	return c, err
}

func scanConversation(sc scanner) (*Conversation, error) {
	var (
		c                Conversation
		created, updated string
	)
	if err := sc.Scan(&c.ID, &c.UserID, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: scan conversation: %w", err)
	}

	var err error
	if c.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("store: conversation %d created_at: %w", c.ID, err)
	}
	if c.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("store: conversation %d updated_at: %w", c.ID, err)
	}
	return &c, nil
}

func scanMessage(sc scanner) (*Message, error) {
	var (
		m       Message
		role    string
		created string
	)
	if err := sc.Scan(&m.ID, &m.ConversationID, &m.UserID, &role, &m.Content, &created); err != nil {
		return nil, fmt.Errorf("store: scan message: %w", err)
	}
	m.Role = ParseRole(role)

	var err error
	if m.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("store: message %d created_at: %w", m.ID, err)
	}
	return &m, nil
}
