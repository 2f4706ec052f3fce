package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/otitou/wap-backend-go/internal/apperr"
	"github.com/otitou/wap-backend-go/internal/model"
)

// PutDispute inserts or replaces a dispute record.
func (s *Store) PutDispute(d *model.Dispute) error {
	doc, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode dispute: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO disputes (id, swap_request_id, created_at, doc)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET doc = excluded.doc
	`, d.ID, d.SwapRequestID, d.CreatedAt.Unix(), string(doc))
	if err != nil {
		return fmt.Errorf("put dispute: %w", err)
	}
	return nil
}

// GetDispute fetches a dispute by id.
func (s *Store) GetDispute(id string) (*model.Dispute, error) {
	row := s.db.QueryRow(`SELECT doc FROM disputes WHERE id = ?`, id)
	var doc string
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("dispute not found")
		}
		return nil, fmt.Errorf("scan dispute: %w", err)
	}
	var d model.Dispute
	if err := json.Unmarshal([]byte(doc), &d); err != nil {
		return nil, fmt.Errorf("decode dispute: %w", err)
	}
	return &d, nil
}

// ListDisputesForSwap returns disputes raised against a swap request.
func (s *Store) ListDisputesForSwap(swapRequestID string) ([]*model.Dispute, error) {
	rows, err := s.db.Query(`SELECT doc FROM disputes WHERE swap_request_id = ?`, swapRequestID)
	if err != nil {
		return nil, fmt.Errorf("list disputes: %w", err)
	}
	defer rows.Close()
	var out []*model.Dispute
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var d model.Dispute
		if err := json.Unmarshal([]byte(doc), &d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}
