package argus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// MemoryFingerprintStore keeps the fingerprint in memory. It is the default
// store and is suitable whenever the fingerprint does not need to survive a
// process restart.
type MemoryFingerprintStore struct {
	mu sync.RWMutex
	fp *Fingerprint
}

// NewMemoryFingerprintStore creates an empty in-memory fingerprint store.
func NewMemoryFingerprintStore() *MemoryFingerprintStore {
	return &MemoryFingerprintStore{}
}

func (s *MemoryFingerprintStore) Load() (Fingerprint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fp == nil {
		return Fingerprint{}, false, nil
	}
	return *s.fp, true, nil
}

func (s *MemoryFingerprintStore) Save(fp Fingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fp = &fp
	return nil
}

func (s *MemoryFingerprintStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fp = nil
	return nil
}

// FileFingerprintStore persists the fingerprint as a JSON file so that it is
// shared across all processes of the same installation, the way browser
// storage is shared across tabs of the same origin. Concurrent writers may
// race on the file; that is an accepted limitation of this advisory record.
type FileFingerprintStore struct {
	path string
}

// NewFileFingerprintStore creates a store backed by the given file path.
// The file is created on first Save.
func NewFileFingerprintStore(path string) *FileFingerprintStore {
	return &FileFingerprintStore{path: path}
}

func (s *FileFingerprintStore) Load() (Fingerprint, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Fingerprint{}, false, nil
	}
	if err != nil {
		return Fingerprint{}, false, fmt.Errorf("argus: failed to read fingerprint file: %w", err)
	}

	var fp Fingerprint
	if err := json.Unmarshal(data, &fp); err != nil {
		return Fingerprint{}, false, fmt.Errorf("argus: failed to parse fingerprint file: %w", err)
	}
	return fp, true, nil
}

func (s *FileFingerprintStore) Save(fp Fingerprint) error {
	data, err := json.Marshal(fp)
	if err != nil {
		return fmt.Errorf("argus: failed to encode fingerprint: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("argus: failed to write fingerprint file: %w", err)
	}
	return nil
}

func (s *FileFingerprintStore) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("argus: failed to remove fingerprint file: %w", err)
	}
	return nil
}
