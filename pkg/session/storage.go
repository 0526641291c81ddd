package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// StorageKey is the fixed key session state is persisted under, across
// every backend.
const StorageKey = "auth-storage"

// Storage persists the session across process restarts. Implementations
// must treat the stored value as opaque; only the Store writes it.
type Storage interface {
	// Load returns the persisted session, or nil when none exists.
	Load() (*Session, error)

	// Save replaces the persisted session.
	Save(s Session) error

	// Clear removes the persisted session.
	Clear() error
}

// MemoryStorage keeps the session in process memory only. Useful for
// tests and short-lived tools that don't need restart survival.
type MemoryStorage struct {
	mu      sync.Mutex
	session *Session
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Load implements Storage.
func (m *MemoryStorage) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	s := *m.session
	return &s, nil
}

// Save implements Storage.
func (m *MemoryStorage) Save(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &s
	return nil
}

// Clear implements Storage.
func (m *MemoryStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

// FileStorage persists the session as a JSON file, the process-local
// analogue of browser local storage.
type FileStorage struct {
	path string
}

// NewFileStorage creates a file-backed storage rooted at dir. The file
// is named after StorageKey. An empty dir falls back to the user config
// directory.
func NewFileStorage(dir string) (*FileStorage, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		dir = filepath.Join(base, "storefront")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	return &FileStorage{
		path: filepath.Join(dir, StorageKey+".json"),
	}, nil
}

// Load implements Storage.
func (f *FileStorage) Load() (*Session, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		// A corrupt file is treated as no session rather than locking
		// the user out of the client.
		return nil, nil
	}

	return &s, nil
}

// Save implements Storage. The file is written via rename so a crash
// mid-write never leaves a truncated session behind.
func (f *FileStorage) Save(s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}

	return nil
}

// Clear implements Storage.
func (f *FileStorage) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
