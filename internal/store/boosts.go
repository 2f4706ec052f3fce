package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/otitou/wap-backend-go/internal/model"
)

// PutActiveBoost inserts or replaces a priority boost.
func (s *Store) PutActiveBoost(b *model.ActiveBoost) error {
	doc, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode boost: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO active_boosts (id, uid, ends_at, doc)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET ends_at = excluded.ends_at, doc = excluded.doc
	`, b.ID, b.UID, b.EndsAt.Unix(), string(doc))
	if err != nil {
		return fmt.Errorf("put boost: %w", err)
	}
	return nil
}

// ActiveBoostsForUID returns a user's boosts that have not yet expired.
// The matcher does not read boosts; match ranking ignores them.
func (s *Store) ActiveBoostsForUID(uid string, now time.Time) ([]*model.ActiveBoost, error) {
	rows, err := s.db.Query(`SELECT doc FROM active_boosts WHERE uid = ? AND ends_at > ?`, uid, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("list active boosts: %w", err)
	}
	defer rows.Close()
	var out []*model.ActiveBoost
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var b model.ActiveBoost
		if err := json.Unmarshal([]byte(doc), &b); err != nil {
			return nil, err
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

// DeleteExpiredBoosts prunes boosts past their ends_at. The
// auto-completion sweep does not call it; nothing schedules it.
func (s *Store) DeleteExpiredBoosts(now time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM active_boosts WHERE ends_at <= ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired boosts: %w", err)
	}
	return res.RowsAffected()
}
