package store

import (
	"sort"
	"sync"
)

// MemoryStore implements SubmissionStore using an in-memory map. This is
// useful for testing but not recommended for production.
type MemoryStore struct {
	mu          sync.RWMutex
	submissions map[string]*Submission
}

// NewMemoryStore creates a new in-memory submission store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		submissions: make(map[string]*Submission),
	}
}

// Insert persists a new submission.
func (s *MemoryStore) Insert(sub *Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *sub
	s.submissions[sub.ID] = &stored
	return nil
}

// ListRecent returns all submissions, newest first.
func (s *MemoryStore) ListRecent() ([]*Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Submission, 0, len(s.submissions))
	for _, sub := range s.submissions {
		copied := *sub
		out = append(out, &copied)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateStatus sets the review status of a submission.
func (s *MemoryStore) UpdateStatus(id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[id]
	if !ok {
		return ErrNotFound
	}
	sub.Status = status
	return nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}
