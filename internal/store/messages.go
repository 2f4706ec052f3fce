package store

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/otitou/wap-backend-go/internal/model"
)

// PutMessage appends a message. Messages are append-only; callers
// never mutate content, only the read_at/read_by fields via
// UpdateMessage.
func (s *Store) PutMessage(m *model.Message) error {
	doc, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO messages (id, conversation_id, sender_uid, sent_at, doc)
		VALUES (?, ?, ?, ?, ?)
	`, m.ID, m.ConversationID, m.SenderUID, m.SentAt.UnixNano(), string(doc))
	if err != nil {
		return fmt.Errorf("put message: %w", err)
	}
	return nil
}

// UpdateMessage rewrites a message's mutable read-tracking fields.
func (s *Store) UpdateMessage(m *model.Message) error {
	doc, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	_, err = s.db.Exec(`UPDATE messages SET doc = ? WHERE id = ?`, string(doc), m.ID)
	return err
}

// ListMessages returns a conversation's messages, descending by
// sent_at, optionally cursored by `before`.
func (s *Store) ListMessages(conversationID string, limit int, beforeUnixNano int64) ([]*model.Message, error) {
	query := `SELECT doc FROM messages WHERE conversation_id = ?`
	args := []any{conversationID}
	if beforeUnixNano > 0 {
		query += ` AND sent_at < ?`
		args = append(args, beforeUnixNano)
	}
	query += ` ORDER BY sent_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []*model.Message
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var m model.Message
		if err := json.Unmarshal([]byte(doc), &m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// AllMessagesForConversation returns every message, oldest first
// (used by mark_read, which must touch every unread message).
func (s *Store) AllMessagesForConversation(conversationID string) ([]*model.Message, error) {
	rows, err := s.db.Query(`SELECT doc FROM messages WHERE conversation_id = ?`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list all messages: %w", err)
	}
	defer rows.Close()
	var out []*model.Message
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var m model.Message
		if err := json.Unmarshal([]byte(doc), &m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out, nil
}
