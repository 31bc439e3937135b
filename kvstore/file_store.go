package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore persists keys as a single JSON document on disk so that values survive restarts.
// Every write rewrites the file through a temporary file and rename.
type FileStore struct {
	mu   sync.Mutex
	path string
	data map[string]fileEntry
	now  func() time.Time
}

type fileEntry struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

var _ Store = (*FileStore)(nil)

// NewFileStore opens (or lazily creates) the store at path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		data: make(map[string]fileEntry),
		now:  time.Now,
	}
	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	var data map[string]fileEntry
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to parse store file %s: %w", s.path, err)
	}
	if data != nil {
		s.data = data
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	if !entry.ExpiresAt.IsZero() && !s.now().Before(entry.ExpiresAt) {
		return "", ErrNotFound
	}
	return entry.Value, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := fileEntry{Value: value}
	if ttl > 0 {
		entry.ExpiresAt = s.now().Add(ttl)
	}
	s.data[key] = entry
	return s.saveLocked()
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.saveLocked()
}

// saveLocked writes the document with owner-only permissions. Caller must hold s.mu.
func (s *FileStore) saveLocked() error {
	now := s.now()
	for k, e := range s.data {
		if !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt) {
			delete(s.data, k)
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("%w: create store directory: %v", ErrStoreOperationFailed, err)
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode store: %v", ErrStoreOperationFailed, err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return fmt.Errorf("%w: write store: %v", ErrStoreOperationFailed, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: replace store: %v", ErrStoreOperationFailed, err)
	}
	return nil
}

// Path returns the location of the backing file
func (s *FileStore) Path() string {
	return s.path
}
