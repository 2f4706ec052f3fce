package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/otitou/wap-backend-go/internal/apperr"
	"github.com/otitou/wap-backend-go/internal/model"
)

func sortedPair(a, b string) (string, string) {
	if a <= b {
		return a, b
	}
	return b, a
}

// GetConversation fetches a conversation by id.
func (s *Store) GetConversation(id string) (*model.Conversation, error) {
	row := s.db.QueryRow(`SELECT doc FROM conversations WHERE id = ?`, id)
	return scanConversation(row)
}

// GetConversationBySwap fetches the conversation owned by a swap
// request, used to make accept-time conversation creation idempotent
// and retry-safe (spec §5).
func (s *Store) GetConversationBySwap(swapRequestID string) (*model.Conversation, error) {
	row := s.db.QueryRow(`SELECT doc FROM conversations WHERE swap_request_id = ?`, swapRequestID)
	c, err := scanConversation(row)
	if err != nil {
		if k, ok := apperr.KindOf(err); ok && k == apperr.NotFound {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func scanConversation(row *sql.Row) (*model.Conversation, error) {
	var doc string
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("conversation not found")
		}
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	var c model.Conversation
	if err := json.Unmarshal([]byte(doc), &c); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}
	return &c, nil
}

// PutConversation inserts or replaces a conversation.
func (s *Store) PutConversation(c *model.Conversation) error {
	a, b := sortedPair(c.ParticipantUIDs[0], c.ParticipantUIDs[1])
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO conversations (id, participant_a, participant_b, swap_request_id, status, updated_at, doc)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status, updated_at = excluded.updated_at, doc = excluded.doc
	`, c.ID, a, b, c.SwapRequestID, string(c.Status), c.UpdatedAt.Unix(), string(doc))
	if err != nil {
		return fmt.Errorf("put conversation: %w", err)
	}
	return nil
}

// ListConversationsForPair finds every conversation shared by
// two users, used by block/unblock cascades (spec §4.8).
func (s *Store) ListConversationsForPair(uidA, uidB string) ([]*model.Conversation, error) {
	a, b := sortedPair(uidA, uidB)
	rows, err := s.db.Query(`SELECT doc FROM conversations WHERE participant_a = ? AND participant_b = ?`, a, b)
	if err != nil {
		return nil, fmt.Errorf("list conversations for pair: %w", err)
	}
	defer rows.Close()
	return scanConversations(rows)
}

// ListConversationsForUser returns a user's active conversations,
// newest first, paged over a bounded in-memory sort (spec §9).
func (s *Store) ListConversationsForUser(uid string, limit, offset int) ([]*model.Conversation, error) {
	const candidateCap = 500
	rows, err := s.db.Query(`
		SELECT doc FROM conversations
		WHERE (participant_a = ? OR participant_b = ?) AND status = ?
		LIMIT ?
	`, uid, uid, string(model.ConversationActive), candidateCap)
	if err != nil {
		return nil, fmt.Errorf("list conversations for user: %w", err)
	}
	defer rows.Close()
	all, err := scanConversations(rows)
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UpdatedAt.After(all[j].UpdatedAt) })
	if offset >= len(all) {
		return []*model.Conversation{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func scanConversations(rows *sql.Rows) ([]*model.Conversation, error) {
	var out []*model.Conversation
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var c model.Conversation
		if err := json.Unmarshal([]byte(doc), &c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
