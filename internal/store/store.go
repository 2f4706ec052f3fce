// Package store implements the document-store adapter: hierarchical
// JSON documents keyed by id, backed by a single embedded SQLite
// database (see SPEC_FULL.md's Open Questions for why SQLite stands
// in for the original's Cosmos DB). One table per collection named in
// spec.md §6: profiles, swap_requests, conversations (+messages),
// reviews, points_transactions, credits_transactions, active_boosts,
// blocks, reports, disputes.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/otitou/wap-backend-go/pkg/logging"
)

// Store is the document store adapter. It is the single source of
// truth named throughout spec.md §5 — the vector index and cache are
// not allowed to diverge from it permanently.
type Store struct {
	db  *sql.DB
	log *logging.Logger

	locks sync.Map // key (string) -> *sync.Mutex, per §5's per-uid/per-request serialization
}

// Config holds store configuration.
type Config struct {
	DSN string
}

// Open creates or opens the SQLite-backed document store and
// initializes its schema. Safe to call once per process.
func Open(cfg Config) (*Store, error) {
	if dir := filepath.Dir(cfg.DSN); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DSN+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}
	// SQLite supports one writer; the keyed mutexes above only
	// serialize logical per-entity sequences, not raw SQL access.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, log: logging.GetDefault().Component("store")}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// Ping checks the underlying database connection, for healthz.
func (s *Store) Ping() error { return s.db.Ping() }

func (s *Store) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS profiles (
		uid TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		skills_to_offer TEXT NOT NULL DEFAULT '',
		services_needed TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL,
		doc TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_email ON profiles(email) WHERE email != '';

	CREATE TABLE IF NOT EXISTS swap_requests (
		id TEXT PRIMARY KEY,
		requester_uid TEXT NOT NULL,
		recipient_uid TEXT NOT NULL,
		status TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		doc TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_swap_requester ON swap_requests(requester_uid, status);
	CREATE INDEX IF NOT EXISTS idx_swap_recipient ON swap_requests(recipient_uid, status);

	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		participant_a TEXT NOT NULL,
		participant_b TEXT NOT NULL,
		swap_request_id TEXT NOT NULL,
		status TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		doc TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conv_participants ON conversations(participant_a, participant_b);
	CREATE INDEX IF NOT EXISTS idx_conv_swap ON conversations(swap_request_id);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		sender_uid TEXT NOT NULL,
		sent_at INTEGER NOT NULL,
		doc TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conv ON messages(conversation_id, sent_at);

	CREATE TABLE IF NOT EXISTS reviews (
		id TEXT PRIMARY KEY,
		swap_request_id TEXT NOT NULL,
		reviewer_uid TEXT NOT NULL,
		reviewed_uid TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		doc TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_review_unique ON reviews(swap_request_id, reviewer_uid);
	CREATE INDEX IF NOT EXISTS idx_review_reviewed ON reviews(reviewed_uid);

	CREATE TABLE IF NOT EXISTS points_transactions (
		id TEXT PRIMARY KEY,
		uid TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		doc TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_points_tx_uid ON points_transactions(uid, created_at);

	CREATE TABLE IF NOT EXISTS credits_transactions (
		id TEXT PRIMARY KEY,
		uid TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		doc TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_credits_tx_uid ON credits_transactions(uid, created_at);

	CREATE TABLE IF NOT EXISTS active_boosts (
		id TEXT PRIMARY KEY,
		uid TEXT NOT NULL,
		ends_at INTEGER NOT NULL,
		doc TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_boosts_uid ON active_boosts(uid, ends_at);

	CREATE TABLE IF NOT EXISTS blocks (
		id TEXT PRIMARY KEY,
		blocker_uid TEXT NOT NULL,
		blocked_uid TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		doc TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_block_pair ON blocks(blocker_uid, blocked_uid);

	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		reporter_uid TEXT NOT NULL,
		reported_uid TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		doc TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS disputes (
		id TEXT PRIMARY KEY,
		swap_request_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		doc TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_disputes_swap ON disputes(swap_request_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Lock acquires the process-local mutex for key and returns an unlock
// function. Per spec §5, writes to a single profile or a single swap
// request must be serialized; this is the "keyed mutex on uid"
// discipline the spec calls out as the simplest correct option.
func (s *Store) Lock(key string) func() {
	v, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
