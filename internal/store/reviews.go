package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/otitou/wap-backend-go/internal/apperr"
	"github.com/otitou/wap-backend-go/internal/model"
)

// PutReview inserts a review. The unique index on (swap_request_id,
// reviewer_uid) enforces the at-most-one-per-pair invariant (spec §3);
// a violation surfaces as a conflict.
func (s *Store) PutReview(r *model.Review) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode review: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO reviews (id, swap_request_id, reviewer_uid, reviewed_uid, created_at, doc)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.SwapRequestID, r.ReviewerUID, r.ReviewedUID, r.CreatedAt.Unix(), string(doc))
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflictf("review already submitted for this swap")
		}
		return fmt.Errorf("put review: %w", err)
	}
	return nil
}

// ListReviewsReceived returns reviews where uid is the reviewed party.
func (s *Store) ListReviewsReceived(uid string) ([]*model.Review, error) {
	rows, err := s.db.Query(`SELECT doc FROM reviews WHERE reviewed_uid = ? ORDER BY created_at DESC`, uid)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()
	var out []*model.Review
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var rv model.Review
		if err := json.Unmarshal([]byte(doc), &rv); err != nil {
			return nil, err
		}
		out = append(out, &rv)
	}
	return out, rows.Err()
}

// ListReviewsBySwap returns every review (up to two) left for a swap request.
func (s *Store) ListReviewsBySwap(swapRequestID string) ([]*model.Review, error) {
	rows, err := s.db.Query(`SELECT doc FROM reviews WHERE swap_request_id = ?`, swapRequestID)
	if err != nil {
		return nil, fmt.Errorf("list reviews by swap: %w", err)
	}
	defer rows.Close()
	var out []*model.Review
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var rv model.Review
		if err := json.Unmarshal([]byte(doc), &rv); err != nil {
			return nil, err
		}
		out = append(out, &rv)
	}
	return out, rows.Err()
}

// HasReviewed reports whether reviewerUID already reviewed swapRequestID.
func (s *Store) HasReviewed(swapRequestID, reviewerUID string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM reviews WHERE swap_request_id = ? AND reviewer_uid = ?`,
		swapRequestID, reviewerUID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
