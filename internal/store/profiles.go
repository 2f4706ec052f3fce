package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/otitou/wap-backend-go/internal/apperr"
	"github.com/otitou/wap-backend-go/internal/model"
)

// GetProfile fetches a profile by uid.
func (s *Store) GetProfile(uid string) (*model.Profile, error) {
	row := s.db.QueryRow(`SELECT doc FROM profiles WHERE uid = ?`, uid)
	return scanProfile(row)
}

// GetProfileByEmail fetches a profile by its unique secondary key.
func (s *Store) GetProfileByEmail(email string) (*model.Profile, error) {
	row := s.db.QueryRow(`SELECT doc FROM profiles WHERE email = ?`, email)
	return scanProfile(row)
}

func scanProfile(row *sql.Row) (*model.Profile, error) {
	var doc string
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("profile not found")
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	var p model.Profile
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

// PutProfile inserts or replaces a profile. Callers are expected to
// hold Lock(uid) around read-modify-write sequences (spec §5).
func (s *Store) PutProfile(p *model.Profile) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO profiles (uid, email, skills_to_offer, services_needed, updated_at, doc)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET
			email = excluded.email,
			skills_to_offer = excluded.skills_to_offer,
			services_needed = excluded.services_needed,
			updated_at = excluded.updated_at,
			doc = excluded.doc
	`, p.UID, p.Email, p.SkillsToOffer, p.ServicesNeeded, p.UpdatedAt.Unix(), string(doc))
	if err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}

// DeleteProfile removes a profile from the store (the vector index
// side effect is handled by the caller per spec §5).
func (s *Store) DeleteProfile(uid string) error {
	res, err := s.db.Exec(`DELETE FROM profiles WHERE uid = ?`, uid)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.NotFoundf("profile not found")
	}
	return nil
}

// AllProfileUIDs returns up to limit profile uids, most recently
// updated first, for reconciliation/reindex tooling; it is not on the
// request hot path. Pagination elsewhere in this store follows the same
// "fetch a bounded candidate set, sort in memory" idiom the original
// uses to avoid composite-index requirements (spec §9).
func (s *Store) AllProfileUIDs(limit int) ([]string, error) {
	rows, err := s.db.Query(`SELECT uid FROM profiles ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list profile uids: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		out = append(out, uid)
	}
	return out, rows.Err()
}
