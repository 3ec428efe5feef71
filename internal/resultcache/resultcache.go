// Package resultcache keeps the latest session outcome in single-slot keys.
package resultcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	// KeyAnalysis holds the scored analysis of the most recent session.
	KeyAnalysis = "interviewAnalysis"
	// KeyResults holds the backup snapshot of the most recent session.
	KeyResults = "interviewResults"
)

// Store is a key/value cache where each Put overwrites the previous value.
type Store interface {
	Put(key string, v any) error
	Get(key string, out any) (bool, error)
	// Take reads and deletes the key.
	Take(key string, out any) (bool, error)
	Delete(key string) error
}

type envelope struct {
	StoredAt time.Time       `json:"storedAt"`
	Value    json.RawMessage `json:"value"`
}

func (e envelope) expired(ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(e.StoredAt) > ttl
}

// FileStore keeps one JSON file per key.
type FileStore struct {
	dir string
	ttl time.Duration
	now func() time.Time

	mu sync.Mutex
}

// NewFileStore creates dir if needed. ttl <= 0 disables expiry.
func NewFileStore(dir string, ttl time.Duration) (*FileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("cache dir cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{dir: dir, ttl: ttl, now: time.Now}, nil
}

// DefaultDir returns $XDG_STATE_HOME/intervu/cache.
func DefaultDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, "intervu", "cache"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for cache: %w", err)
	}
	return filepath.Join(home, ".local", "state", "intervu", "cache"), nil
}

// Dir returns the backing directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid cache key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *FileStore) Put(key string, v any) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	data, err := json.MarshalIndent(envelope{StoredAt: s.now().UTC(), Value: value}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Get(key string, out any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(key, out)
}

func (s *FileStore) Take(key string, out any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.readLocked(key, out)
	if err != nil || !ok {
		return ok, err
	}
	return true, s.deleteLocked(key)
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(key)
}

func (s *FileStore) readLocked(key string, out any) (bool, error) {
	path, err := s.path(key)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	if env.expired(s.ttl, s.now()) {
		_ = os.Remove(path)
		return false, nil
	}
	if out != nil {
		if err := json.Unmarshal(env.Value, out); err != nil {
			return false, fmt.Errorf("decode %s value: %w", key, err)
		}
	}
	return true, nil
}

func (s *FileStore) deleteLocked(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// MemoryStore is an in-process Store. Values round-trip through JSON like FileStore.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]envelope
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, entries: make(map[string]envelope)}
}

func (s *MemoryStore) Put(key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	s.mu.Lock()
	s.entries[key] = envelope{StoredAt: s.now(), Value: value}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(key string, out any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(key, out)
}

func (s *MemoryStore) Take(key string, out any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := s.readLocked(key, out)
	if ok {
		delete(s.entries, key)
	}
	return ok, err
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Keys lists the live keys.
func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.entries))
	for k, env := range s.entries {
		if !env.expired(s.ttl, s.now()) {
			keys = append(keys, k)
		}
	}
	return keys
}

func (s *MemoryStore) readLocked(key string, out any) (bool, error) {
	env, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	if env.expired(s.ttl, s.now()) {
		delete(s.entries, key)
		return false, nil
	}
	if out != nil {
		if err := json.Unmarshal(env.Value, out); err != nil {
			return false, fmt.Errorf("decode %s value: %w", key, err)
		}
	}
	return true, nil
}
