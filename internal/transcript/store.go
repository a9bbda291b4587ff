// Package transcript persists long-term conversation history to PostgreSQL.
// The Redis context store holds only the live dialogue state; everything a
// human reviewer or CRM export needs lands here.
package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message direction constants.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Store persists conversations and messages. A nil Store is a no-op, so
// callers can wire it unconditionally and disable persistence by passing nil.
type Store struct {
	db *sql.DB
}

// NewStore creates a transcript store backed by the given database.
func NewStore(db *sql.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// ConversationRecord is one contact's conversation row.
type ConversationRecord struct {
	ID                  uuid.UUID
	ContactID           string
	Status              string
	Channel             string
	MessageCount        int
	ContactMessageCount int
	BotMessageCount     int
	StartedAt           time.Time
	LastMessageAt       *time.Time
	EndedAt             *time.Time
}

// Message is one persisted message.
type Message struct {
	ID        uuid.UUID
	ContactID string
	Direction string
	Kind      string
	Body      string
	CreatedAt time.Time
}

// EnsureConversation returns the conversation row for a contact, creating it
// on first touch.
func (s *Store) EnsureConversation(ctx context.Context, contactID string) (uuid.UUID, error) {
	if s == nil || s.db == nil {
		return uuid.Nil, nil
	}

	var existingID uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM conversations WHERE contact_id = $1`,
		contactID,
	).Scan(&existingID)
	if err == nil {
		return existingID, nil
	}
	if err != sql.ErrNoRows {
		return uuid.Nil, fmt.Errorf("transcript: checking existing conversation: %w", err)
	}

	newID := uuid.New()
	now := time.Now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (
			id, contact_id, status, channel,
			message_count, contact_message_count, bot_message_count,
			started_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, newID, contactID, "active", "whatsapp", 0, 0, 0, now, now, now)
	if err != nil {
		// Another worker may have created it between the check and insert.
		if strings.Contains(err.Error(), "duplicate key") {
			return s.EnsureConversation(ctx, contactID)
		}
		return uuid.Nil, fmt.Errorf("transcript: creating conversation: %w", err)
	}
	return newID, nil
}

// Append persists one message and bumps the conversation counters.
func (s *Store) Append(ctx context.Context, msg Message) error {
	if s == nil || s.db == nil {
		return nil
	}

	if _, err := s.EnsureConversation(ctx, msg.ContactID); err != nil {
		return err
	}

	id := msg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_messages (
			id, contact_id, direction, kind, body, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, id, msg.ContactID, msg.Direction, msg.Kind, msg.Body, createdAt)
	if err != nil {
		return fmt.Errorf("transcript: inserting message: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("transcript: reading insert result: %w", err)
	}
	if rows == 0 {
		// Duplicate delivery; counters were already bumped.
		return nil
	}

	counterColumn := "bot_message_count"
	if msg.Direction == DirectionInbound {
		counterColumn = "contact_message_count"
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE conversations SET
			message_count = message_count + 1,
			%s = %s + 1,
			last_message_at = $1,
			updated_at = $1
		WHERE contact_id = $2
	`, counterColumn, counterColumn), createdAt, msg.ContactID)
	if err != nil {
		return fmt.Errorf("transcript: updating counters: %w", err)
	}
	return nil
}

// End marks a conversation as ended. Ending an already-ended conversation is
// a no-op.
func (s *Store) End(ctx context.Context, contactID string) error {
	if s == nil || s.db == nil {
		return nil
	}

	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET
			status = 'ended',
			ended_at = $1,
			updated_at = $1
		WHERE contact_id = $2 AND ended_at IS NULL
	`, now, contactID)
	return err
}

// Get retrieves a conversation by contact. Returns nil when none exists.
func (s *Store) Get(ctx context.Context, contactID string) (*ConversationRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}

	var rec ConversationRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, contact_id, status, channel,
		       message_count, contact_message_count, bot_message_count,
		       started_at, last_message_at, ended_at
		FROM conversations
		WHERE contact_id = $1
	`, contactID).Scan(
		&rec.ID, &rec.ContactID, &rec.Status, &rec.Channel,
		&rec.MessageCount, &rec.ContactMessageCount, &rec.BotMessageCount,
		&rec.StartedAt, &rec.LastMessageAt, &rec.EndedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("transcript: fetching conversation: %w", err)
	}
	return &rec, nil
}

// Recent returns the latest messages for a contact, newest first.
func (s *Store) Recent(ctx context.Context, contactID string, limit int) ([]Message, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, contact_id, direction, kind, body, created_at
		FROM conversation_messages
		WHERE contact_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, contactID, limit)
	if err != nil {
		return nil, fmt.Errorf("transcript: listing messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ContactID, &m.Direction, &m.Kind, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("transcript: scanning message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
