// Package store persists contact submissions. Backends implement
// SubmissionStore; the service treats the store as an opaque collaborator.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a submission does not exist.
var ErrNotFound = errors.New("store: submission not found")

// Status is the review state of a submission.
type Status string

const (
	StatusUnread    Status = "unread"
	StatusRead      Status = "read"
	StatusResponded Status = "responded"
)

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusUnread, StatusRead, StatusResponded:
		return true
	}
	return false
}

// Submission is a contact-form record.
type Submission struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company,omitempty"`
	Message   string    `json:"message"`
	IP        string    `json:"ip,omitempty"`
	Browser   string    `json:"browser,omitempty"`
	OS        string    `json:"os,omitempty"`
	Device    string    `json:"device,omitempty"`
	City      string    `json:"city,omitempty"`
	Country   string    `json:"country,omitempty"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmissionStore defines the interface for submission storage backends.
// Implementations must be safe for concurrent use.
type SubmissionStore interface {
	// Insert persists a new submission.
	Insert(sub *Submission) error

	// ListRecent returns all submissions ordered by creation time,
	// newest first.
	ListRecent() ([]*Submission, error)

	// UpdateStatus sets the review status of a submission.
	// Returns ErrNotFound if no submission has the given ID.
	UpdateStatus(id string, status Status) error

	// Close releases any resources held by the store.
	Close() error
}
