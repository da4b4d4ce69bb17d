package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/grlkrash/grlkrashai-go/internal/social"
)

// migrations run in order; schema_migrations records the applied versions so
// restarts are idempotent.
var migrations = []string{
	`CREATE TABLE milestones_fired (
		name     TEXT PRIMARY KEY,
		fired_at INTEGER NOT NULL
	)`,
	`CREATE TABLE points (
		user    TEXT PRIMARY KEY,
		balance INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE posts (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		platform    TEXT NOT NULL,
		external_id TEXT NOT NULL,
		kind        TEXT NOT NULL,
		url         TEXT NOT NULL DEFAULT '',
		posted_at   INTEGER NOT NULL
	)`,
	`CREATE TABLE mentions_seen (
		id      TEXT PRIMARY KEY,
		seen_at INTEGER NOT NULL
	)`,
}

// Store is the agent's durable state: milestone dedupe, reward balances,
// post history, and mention dedupe. Safe for concurrent use.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open creates or opens the database file and applies pending migrations.
func Open(path string, log zerolog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Store{db: db, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("migrations table: %w", err)
	}
	var current int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("migration version: %w", err)
	}
	for i := current; i < len(migrations); i++ {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
			i+1, time.Now().Unix()); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i+1, err)
		}
		s.log.Info().Int("version", i+1).Msg("migration applied")
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// WasFired reports whether a milestone was already announced.
func (s *Store) WasFired(name string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM milestones_fired WHERE name = ?`, name).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query milestone: %w", err)
	}
	return true, nil
}

// MarkFired records a milestone announcement. Re-marking is a no-op.
func (s *Store) MarkFired(name string) error {
	_, err := s.db.Exec(`INSERT INTO milestones_fired (name, fired_at) VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING`, name, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("mark milestone: %w", err)
	}
	return nil
}

// AddPoints adjusts a user's balance by delta (may be negative).
func (s *Store) AddPoints(user string, delta int64) error {
	_, err := s.db.Exec(`INSERT INTO points (user, balance) VALUES (?, ?)
		ON CONFLICT(user) DO UPDATE SET balance = balance + excluded.balance`, user, delta)
	if err != nil {
		return fmt.Errorf("add points: %w", err)
	}
	return nil
}

// Balances returns every user's balance.
func (s *Store) Balances() (map[string]int64, error) {
	rows, err := s.db.Query(`SELECT user, balance FROM points`)
	if err != nil {
		return nil, fmt.Errorf("query balances: %w", err)
	}
	defer rows.Close()
	out := map[string]int64{}
	for rows.Next() {
		var user string
		var balance int64
		if err := rows.Scan(&user, &balance); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		out[user] = balance
	}
	return out, rows.Err()
}

// RecordPost appends one published post to the history.
func (s *Store) RecordPost(r social.Receipt, kind string) error {
	ts := r.Ts
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO posts (platform, external_id, kind, url, posted_at)
		VALUES (?, ?, ?, ?, ?)`, r.Platform, r.ExternalID, kind, r.URL, ts.Unix())
	if err != nil {
		return fmt.Errorf("record post: %w", err)
	}
	return nil
}

// CountPostsSince returns how many posts a platform has had since the cutoff.
func (s *Store) CountPostsSince(platform string, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM posts WHERE platform = ? AND posted_at >= ?`,
		platform, since.Unix()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// SeenMention reports whether a mention was already handled.
func (s *Store) SeenMention(id string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM mentions_seen WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query mention: %w", err)
	}
	return true, nil
}

// MarkMention records a handled mention. Re-marking is a no-op.
func (s *Store) MarkMention(id string) error {
	_, err := s.db.Exec(`INSERT INTO mentions_seen (id, seen_at) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING`, id, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("mark mention: %w", err)
	}
	return nil
}
