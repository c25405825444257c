package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func testBackends(t *testing.T) map[string]SubmissionStore {
	t.Helper()

	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "submissions.db"))
	if err != nil {
		t.Fatalf("Failed to open SQLite store: %v", err)
	}

	return map[string]SubmissionStore{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func sampleSubmission(id string, createdAt time.Time) *Submission {
	return &Submission{
		ID:        id,
		Name:      "Ada Lovelace",
		Email:     "ada@example.com",
		Company:   "Analytical Engines Ltd",
		Message:   "I would like to discuss a collaboration.",
		IP:        "203.0.113.7",
		Browser:   "Chrome 120.0.0.0",
		OS:        "Windows 10",
		Device:    "desktop",
		City:      "London",
		Country:   "United Kingdom",
		Status:    StatusUnread,
		CreatedAt: createdAt,
	}
}

func TestInsertAndListRecent(t *testing.T) {
	for name, s := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			for i := 0; i < 3; i++ {
				sub := sampleSubmission(fmt.Sprintf("id-%d", i), base.Add(time.Duration(i)*time.Minute))
				if err := s.Insert(sub); err != nil {
					t.Fatalf("Failed to insert submission: %v", err)
				}
			}

			subs, err := s.ListRecent()
			if err != nil {
				t.Fatalf("Failed to list submissions: %v", err)
			}
			if len(subs) != 3 {
				t.Fatalf("Expected 3 submissions, got %d", len(subs))
			}

			// Newest first.
			for i := 0; i < len(subs)-1; i++ {
				if subs[i].CreatedAt.Before(subs[i+1].CreatedAt) {
					t.Errorf("Submissions out of order: %s before %s", subs[i].ID, subs[i+1].ID)
				}
			}
			if subs[0].ID != "id-2" {
				t.Errorf("Expected newest submission first, got %s", subs[0].ID)
			}

			got := subs[len(subs)-1]
			want := sampleSubmission("id-0", base)
			if got.Name != want.Name || got.Email != want.Email || got.Company != want.Company ||
				got.Message != want.Message || got.IP != want.IP || got.City != want.City ||
				got.Country != want.Country || got.Status != StatusUnread {
				t.Errorf("Submission round-trip mismatch: got %+v", got)
			}
			if got.Browser != want.Browser || got.OS != want.OS || got.Device != want.Device {
				t.Errorf("Device fields round-trip mismatch: got %q/%q/%q", got.Browser, got.OS, got.Device)
			}
		})
	}
}

func TestUpdateStatus(t *testing.T) {
	for name, s := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			sub := sampleSubmission("id-1", time.Now().UTC())
			if err := s.Insert(sub); err != nil {
				t.Fatalf("Failed to insert submission: %v", err)
			}

			if err := s.UpdateStatus("id-1", StatusRead); err != nil {
				t.Fatalf("Failed to update status: %v", err)
			}

			subs, err := s.ListRecent()
			if err != nil {
				t.Fatalf("Failed to list submissions: %v", err)
			}
			if subs[0].Status != StatusRead {
				t.Errorf("Expected status %s, got %s", StatusRead, subs[0].Status)
			}

			if err := s.UpdateStatus("missing", StatusResponded); !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound for unknown ID, got %v", err)
			}
		})
	}
}

func TestListRecentEmpty(t *testing.T) {
	for name, s := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			subs, err := s.ListRecent()
			if err != nil {
				t.Fatalf("Failed to list submissions: %v", err)
			}
			if len(subs) != 0 {
				t.Errorf("Expected no submissions, got %d", len(subs))
			}
		})
	}
}

func TestInsertCopiesValue(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	sub := sampleSubmission("id-1", time.Now().UTC())
	if err := s.Insert(sub); err != nil {
		t.Fatalf("Failed to insert submission: %v", err)
	}

	// Mutating the caller's value after insert must not reach the store.
	sub.Message = "changed"
	subs, _ := s.ListRecent()
	if subs[0].Message == "changed" {
		t.Error("Store should hold its own copy of the submission")
	}
}

func TestDSNWithParseTime(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{
			dsn:  "user:pw@tcp(db:3306)/contact",
			want: "user:pw@tcp(db:3306)/contact?parseTime=true",
		},
		{
			dsn:  "user:pw@tcp(db:3306)/contact?charset=utf8mb4",
			want: "user:pw@tcp(db:3306)/contact?charset=utf8mb4&parseTime=true",
		},
	}
	for _, tt := range tests {
		if got := dsnWithParseTime(tt.dsn); got != tt.want {
			t.Errorf("dsnWithParseTime(%q) = %q, want %q", tt.dsn, got, tt.want)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, st := range []Status{StatusUnread, StatusRead, StatusResponded} {
		if !st.Valid() {
			t.Errorf("Expected %s to be valid", st)
		}
	}
	for _, st := range []Status{"", "archived", "READ"} {
		if st.Valid() {
			t.Errorf("Expected %q to be invalid", st)
		}
	}
}
