package localcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Keys mirrored to disk. Each key is stored as its own JSON file under the
// cache directory.
const (
	KeyEvents       = "transport_events"
	KeyDestinations = "transport_destinations"
	KeyUsers        = "all_users"
	KeyCurrentUser  = "user"
)

// Store is a file-backed key-value cache. It mirrors database state so reads
// keep working when the database is unreachable. Writes go through a tmp file
// and rename. A single mutex guards in-process access; there is no
// cross-process lock, so two processes sharing a directory can clobber each
// other's writes undetected.
type Store struct {
	mu  sync.Mutex
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Get reads the value stored under key into v. It returns false when the key
// is absent. A malformed file is treated as absent and logged, never fatal.
func (s *Store) Get(key string, v any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Errorf("failed to read cache key %q: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Errorf("malformed cache entry %q, ignoring: %v", key, err)
		return false
	}
	return true
}

// Set stores v under key as JSON.
func (s *Store) Set(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %q: %w", key, err)
	}

	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache entry %q: %w", key, err)
	}
	return os.Rename(tmp, s.path(key))
}

// Delete removes the key. Removing an absent key is a no-op.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache entry %q: %w", key, err)
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
