package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements SubmissionStore using SQLite.
// It uses the pure Go modernc.org/sqlite driver.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite submission store.
// The database file is created if it doesn't exist.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS submissions (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL,
		company    TEXT,
		message    TEXT NOT NULL,
		ip         TEXT,
		browser    TEXT,
		os         TEXT,
		device     TEXT,
		city       TEXT,
		country    TEXT,
		status     TEXT NOT NULL DEFAULT 'unread',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_created
		ON submissions (created_at DESC);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: failed to create schema: %w", err)
	}
	return nil
}

// Insert persists a new submission.
func (s *SQLiteStore) Insert(sub *Submission) error {
	query := `
	INSERT INTO submissions (id, name, email, company, message, ip, browser, os, device, city, country, status, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		sub.ID,
		sub.Name,
		sub.Email,
		sub.Company,
		sub.Message,
		sub.IP,
		sub.Browser,
		sub.OS,
		sub.Device,
		sub.City,
		sub.Country,
		string(sub.Status),
		sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to insert submission: %w", err)
	}
	return nil
}

// ListRecent returns all submissions, newest first.
func (s *SQLiteStore) ListRecent() ([]*Submission, error) {
	query := `
	SELECT id, name, email, company, message, ip, browser, os, device, city, country, status, created_at
	FROM submissions
	ORDER BY created_at DESC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query submissions: %w", err)
	}
	defer rows.Close()

	var subs []*Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: error iterating submissions: %w", err)
	}

	return subs, nil
}

// UpdateStatus sets the review status of a submission.
func (s *SQLiteStore) UpdateStatus(id string, status Status) error {
	res, err := s.db.Exec(
		"UPDATE submissions SET status = ? WHERE id = ?",
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to update status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanSubmission scans a submission from sql.Rows.
func scanSubmission(rows *sql.Rows) (*Submission, error) {
	var sub Submission
	var status string
	err := rows.Scan(
		&sub.ID,
		&sub.Name,
		&sub.Email,
		&sub.Company,
		&sub.Message,
		&sub.IP,
		&sub.Browser,
		&sub.OS,
		&sub.Device,
		&sub.City,
		&sub.Country,
		&status,
		&sub.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to scan submission: %w", err)
	}
	sub.Status = Status(status)
	return &sub, nil
}
