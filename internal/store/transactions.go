package store

import (
	"encoding/json"
	"fmt"

	"github.com/otitou/wap-backend-go/internal/model"
)

// PutPointsTransaction appends a ledger entry. Append-only per spec §6;
// callers never call this without also writing the new Profile balance
// in the same Lock(uid) critical section (spec §5/§4.6).
func (s *Store) PutPointsTransaction(t *model.PointsTransaction) error {
	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode points transaction: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO points_transactions (id, uid, created_at, doc) VALUES (?, ?, ?, ?)`,
		t.ID, t.UID, t.CreatedAt.UnixNano(), string(doc))
	return err
}

// PutCreditsTransaction appends a credits ledger entry.
func (s *Store) PutCreditsTransaction(t *model.CreditsTransaction) error {
	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode credits transaction: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO credits_transactions (id, uid, created_at, doc) VALUES (?, ?, ?, ?)`,
		t.ID, t.UID, t.CreatedAt.UnixNano(), string(doc))
	return err
}

// ListPointsTransactions returns a user's ledger, newest first,
// bounded by limit (used for BalanceInfo's "recent" slice, spec §6).
func (s *Store) ListPointsTransactions(uid string, limit int) ([]*model.PointsTransaction, error) {
	rows, err := s.db.Query(`SELECT doc FROM points_transactions WHERE uid = ? ORDER BY created_at DESC LIMIT ?`, uid, limit)
	if err != nil {
		return nil, fmt.Errorf("list points transactions: %w", err)
	}
	defer rows.Close()
	var out []*model.PointsTransaction
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var t model.PointsTransaction
		if err := json.Unmarshal([]byte(doc), &t); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// PointsTransactionsForSwap returns every points ledger entry tagged
// with a given swap id, used to verify property P3 (reserve/refund pairing).
func (s *Store) PointsTransactionsForSwap(swapID string) ([]*model.PointsTransaction, error) {
	rows, err := s.db.Query(`SELECT doc FROM points_transactions WHERE json_extract(doc, '$.related_swap_id') = ?`, swapID)
	if err != nil {
		return nil, fmt.Errorf("list points transactions for swap: %w", err)
	}
	defer rows.Close()
	var out []*model.PointsTransaction
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var t model.PointsTransaction
		if err := json.Unmarshal([]byte(doc), &t); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
