package ratelimit

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryBucketStore implements BucketStore using an in-memory map. Useful
// for testing and for processes that do not need the window to survive a
// restart.
type MemoryBucketStore struct {
	mu      sync.RWMutex
	buckets map[string][]time.Time
}

// NewMemoryBucketStore creates a new in-memory bucket store.
func NewMemoryBucketStore() *MemoryBucketStore {
	return &MemoryBucketStore{
		buckets: make(map[string][]time.Time),
	}
}

func (s *MemoryBucketStore) Load(bucket string) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stamps := s.buckets[bucket]
	out := make([]time.Time, len(stamps))
	copy(out, stamps)
	return out, nil
}

func (s *MemoryBucketStore) Save(bucket string, stamps []time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]time.Time, len(stamps))
	copy(stored, stamps)
	s.buckets[bucket] = stored
	return nil
}

func (s *MemoryBucketStore) Delete(bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.buckets, bucket)
	return nil
}

// SQLiteBucketStore implements BucketStore using SQLite, so the advisory
// window survives process restarts the way browser storage survives page
// reloads. It uses the pure Go modernc.org/sqlite driver.
type SQLiteBucketStore struct {
	db *sql.DB
}

// NewSQLiteBucketStore opens (creating if needed) a bucket store at the
// given database path.
func NewSQLiteBucketStore(dbPath string) (*SQLiteBucketStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: failed to open database: %w", err)
	}

	// WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ratelimit: failed to enable WAL mode: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS rate_events (
		bucket     TEXT NOT NULL,
		at_unix_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rate_events_bucket
		ON rate_events (bucket, at_unix_ms);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ratelimit: failed to create schema: %w", err)
	}

	return &SQLiteBucketStore{db: db}, nil
}

func (s *SQLiteBucketStore) Load(bucket string) ([]time.Time, error) {
	rows, err := s.db.Query(
		"SELECT at_unix_ms FROM rate_events WHERE bucket = ? ORDER BY at_unix_ms ASC",
		bucket,
	)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: failed to query bucket: %w", err)
	}
	defer rows.Close()

	var stamps []time.Time
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, fmt.Errorf("ratelimit: failed to scan bucket row: %w", err)
		}
		stamps = append(stamps, time.UnixMilli(ms))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ratelimit: error iterating bucket rows: %w", err)
	}
	return stamps, nil
}

func (s *SQLiteBucketStore) Save(bucket string, stamps []time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("ratelimit: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM rate_events WHERE bucket = ?", bucket); err != nil {
		return fmt.Errorf("ratelimit: failed to clear bucket: %w", err)
	}
	for _, ts := range stamps {
		if _, err := tx.Exec(
			"INSERT INTO rate_events (bucket, at_unix_ms) VALUES (?, ?)",
			bucket, ts.UnixMilli(),
		); err != nil {
			return fmt.Errorf("ratelimit: failed to record event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ratelimit: failed to commit bucket: %w", err)
	}
	return nil
}

func (s *SQLiteBucketStore) Delete(bucket string) error {
	if _, err := s.db.Exec("DELETE FROM rate_events WHERE bucket = ?", bucket); err != nil {
		return fmt.Errorf("ratelimit: failed to delete bucket: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteBucketStore) Close() error {
	return s.db.Close()
}
