package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/otitou/wap-backend-go/internal/apperr"
	"github.com/otitou/wap-backend-go/internal/model"
)

// GetSwapRequest fetches a swap request by id.
func (s *Store) GetSwapRequest(id string) (*model.SwapRequest, error) {
	row := s.db.QueryRow(`SELECT doc FROM swap_requests WHERE id = ?`, id)
	var doc string
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("swap request not found")
		}
		return nil, fmt.Errorf("scan swap request: %w", err)
	}
	var r model.SwapRequest
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, fmt.Errorf("decode swap request: %w", err)
	}
	return &r, nil
}

// PutSwapRequest inserts or replaces a swap request. Callers hold
// Lock(id) around the read-decide-write sequence (spec §5).
func (s *Store) PutSwapRequest(r *model.SwapRequest) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode swap request: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO swap_requests (id, requester_uid, recipient_uid, status, updated_at, doc)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status, updated_at = excluded.updated_at, doc = excluded.doc
	`, r.ID, r.RequesterUID, r.RecipientUID, string(r.Status), r.UpdatedAt.Unix(), string(doc))
	if err != nil {
		return fmt.Errorf("put swap request: %w", err)
	}
	return nil
}

// HasPendingRequest reports whether a pending request already exists
// from requester to recipient, enforcing invariant I5.
func (s *Store) HasPendingRequest(requesterUID, recipientUID string) (bool, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM swap_requests
		WHERE requester_uid = ? AND recipient_uid = ? AND status = ?
	`, requesterUID, recipientUID, string(model.SwapStatusPending)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check pending request: %w", err)
	}
	return n > 0, nil
}

// ListIncoming returns requests received by uid, optionally filtered
// by status, newest first. Sorting happens in memory over a bounded
// candidate set, per spec §9's documented pagination idiom.
func (s *Store) ListIncoming(uid string, status model.SwapStatus, limit, offset int) ([]*model.SwapRequest, error) {
	return s.listByRole("recipient_uid", uid, status, limit, offset)
}

// ListOutgoing returns requests sent by uid, optionally filtered by status.
func (s *Store) ListOutgoing(uid string, status model.SwapStatus, limit, offset int) ([]*model.SwapRequest, error) {
	return s.listByRole("requester_uid", uid, status, limit, offset)
}

func (s *Store) listByRole(col, uid string, status model.SwapStatus, limit, offset int) ([]*model.SwapRequest, error) {
	const candidateCap = 500
	query := fmt.Sprintf(`SELECT doc FROM swap_requests WHERE %s = ?`, col)
	args := []any{uid}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` LIMIT ?`
	args = append(args, candidateCap)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list swap requests: %w", err)
	}
	defer rows.Close()

	var all []*model.SwapRequest
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var r model.SwapRequest
		if err := json.Unmarshal([]byte(doc), &r); err != nil {
			return nil, err
		}
		all = append(all, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool { return all[i].UpdatedAt.After(all[j].UpdatedAt) })

	if offset >= len(all) {
		return []*model.SwapRequest{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// DuePendingCompletions returns swap requests in pending_completion
// whose auto_complete_at has passed, for the sweep in spec §4.5.
func (s *Store) DuePendingCompletions(now time.Time, limit int) ([]*model.SwapRequest, error) {
	rows, err := s.db.Query(`SELECT doc FROM swap_requests WHERE status = ? LIMIT ?`,
		string(model.SwapStatusPendingCompletion), limit*4+50)
	if err != nil {
		return nil, fmt.Errorf("query pending completions: %w", err)
	}
	defer rows.Close()

	var due []*model.SwapRequest
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var r model.SwapRequest
		if err := json.Unmarshal([]byte(doc), &r); err != nil {
			return nil, err
		}
		if r.Completion.AutoCompleteAt != nil && !r.Completion.AutoCompleteAt.After(now) {
			due = append(due, &r)
		}
		if len(due) >= limit {
			break
		}
	}
	return due, rows.Err()
}
