package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/otitou/wap-backend-go/internal/apperr"
	"github.com/otitou/wap-backend-go/internal/model"
)

// PutBlock inserts a block. The unique index on (blocker_uid,
// blocked_uid) rejects a repeated block, which is returned as a
// Conflict error.
func (s *Store) PutBlock(b *model.Block) error {
	doc, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode block: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO blocks (id, blocker_uid, blocked_uid, created_at, doc)
		VALUES (?, ?, ?, ?, ?)
	`, b.ID, b.BlockerUID, b.BlockedUID, b.CreatedAt.Unix(), string(doc))
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflictf("block already exists")
		}
		return fmt.Errorf("put block: %w", err)
	}
	return nil
}

// DeleteBlock removes a block relationship.
func (s *Store) DeleteBlock(blockerUID, blockedUID string) error {
	res, err := s.db.Exec(`DELETE FROM blocks WHERE blocker_uid = ? AND blocked_uid = ?`, blockerUID, blockedUID)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFoundf("block not found")
	}
	return nil
}

// HasBlock reports whether either user has blocked the other, the
// symmetric check used to gate matching, messaging and swap requests.
func (s *Store) HasBlock(uidA, uidB string) (bool, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM blocks
		WHERE (blocker_uid = ? AND blocked_uid = ?) OR (blocker_uid = ? AND blocked_uid = ?)
	`, uidA, uidB, uidB, uidA).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check block: %w", err)
	}
	return n > 0, nil
}

// ListBlocksByBlocker returns every user a given uid has blocked.
func (s *Store) ListBlocksByBlocker(uid string) ([]*model.Block, error) {
	rows, err := s.db.Query(`SELECT doc FROM blocks WHERE blocker_uid = ?`, uid)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()
	var out []*model.Block
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var b model.Block
		if err := json.Unmarshal([]byte(doc), &b); err != nil {
			return nil, err
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

// PutReport inserts or replaces a report.
func (s *Store) PutReport(r *model.Report) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO reports (id, reporter_uid, reported_uid, status, created_at, doc)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status = excluded.status, doc = excluded.doc
	`, r.ID, r.ReporterUID, r.ReportedUID, string(r.Status), r.CreatedAt.Unix(), string(doc))
	if err != nil {
		return fmt.Errorf("put report: %w", err)
	}
	return nil
}

// GetReport fetches a report by id.
func (s *Store) GetReport(id string) (*model.Report, error) {
	row := s.db.QueryRow(`SELECT doc FROM reports WHERE id = ?`, id)
	var doc string
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("report not found")
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}
	var r model.Report
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}

// ListReportsByStatus returns reports for moderator review queues.
func (s *Store) ListReportsByStatus(status model.ReportStatus) ([]*model.Report, error) {
	rows, err := s.db.Query(`SELECT doc FROM reports WHERE status = ?`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()
	var out []*model.Report
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var r model.Report
		if err := json.Unmarshal([]byte(doc), &r); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}
