package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore implements SubmissionStore using MySQL.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQL creates a new MySQL submission store from an open connection.
func NewMySQL(db *sql.DB) (*MySQLStore, error) {
	if err := createMySQLSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &MySQLStore{db: db}, nil
}

// NewMySQLFromDSN creates a new MySQL submission store from a DSN.
// The DSN format is: user:password@tcp(host:port)/database, optionally
// with query parameters already appended.
func NewMySQLFromDSN(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsnWithParseTime(dsn))
	if err != nil {
		return nil, fmt.Errorf("mysql: failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql: failed to connect: %w", err)
	}

	return NewMySQL(db)
}

// dsnWithParseTime ensures the driver parses DATETIME columns into
// time.Time, preserving any parameters the DSN already carries.
func dsnWithParseTime(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&parseTime=true"
	}
	return dsn + "?parseTime=true"
}

func createMySQLSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS submissions (
		id         VARCHAR(36) PRIMARY KEY,
		name       VARCHAR(100) NOT NULL,
		email      VARCHAR(255) NOT NULL,
		company    VARCHAR(100),
		message    TEXT NOT NULL,
		ip         VARCHAR(45),
		browser    VARCHAR(100),
		os         VARCHAR(100),
		device     VARCHAR(20),
		city       VARCHAR(100),
		country    VARCHAR(100),
		status     VARCHAR(20) NOT NULL DEFAULT 'unread',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,

		INDEX idx_submissions_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("mysql: failed to create schema: %w", err)
	}
	return nil
}

// Insert persists a new submission.
func (s *MySQLStore) Insert(sub *Submission) error {
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
		return fmt.Errorf("mysql: failed to insert submission: %w", err)
	}
	return nil
}

// ListRecent returns all submissions, newest first.
func (s *MySQLStore) ListRecent() ([]*Submission, error) {
	query := `
	SELECT id, name, email, company, message, ip, browser, os, device, city, country, status, created_at
	FROM submissions
	ORDER BY created_at DESC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("mysql: failed to query submissions: %w", err)
	}
	defer rows.Close()

	var subs []*Submission
	for rows.Next() {
		sub, err := scanMySQLSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mysql: error iterating submissions: %w", err)
	}

	return subs, nil
}

// UpdateStatus sets the review status of a submission.
func (s *MySQLStore) UpdateStatus(id string, status Status) error {
	res, err := s.db.Exec(
		"UPDATE submissions SET status = ? WHERE id = ?",
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("mysql: failed to update status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mysql: failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database connection.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

func scanMySQLSubmission(rows *sql.Rows) (*Submission, error) {
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
		return nil, fmt.Errorf("mysql: failed to scan submission: %w", err)
	}
	sub.Status = Status(status)
	return &sub, nil
}
