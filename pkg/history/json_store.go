package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JSONStore implements Store using a JSON file for persistence.
type JSONStore struct {
	path    string
	records map[string]*Record
	mu      sync.RWMutex
}

// storeData is the JSON structure for the store file.
type storeData struct {
	Version   int       `json:"version"`
	UpdatedAt string    `json:"updated_at"`
	Sessions  []*Record `json:"sessions"`
}

const currentVersion = 1

// NewJSONStore creates a new JSON-based store at the given path.
// If the file doesn't exist, it will be created on first save.
func NewJSONStore(path string) (*JSONStore, error) {
	store := &JSONStore{
		path:    path,
		records: make(map[string]*Record),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := store.load(); err != nil {
			return nil, fmt.Errorf("failed to load store: %w", err)
		}
	}

	return store, nil
}

// DefaultPath returns ~/.focus-booster/<name>.
func DefaultPath(name string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".focus-booster", name), nil
}

// load reads the store from disk.
func (s *JSONStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var stored storeData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	s.records = make(map[string]*Record, len(stored.Sessions))
	for _, r := range stored.Sessions {
		s.records[r.ID] = r
	}
	return nil
}

// save writes the store to disk. Caller holds mu.
func (s *JSONStore) save() error {
	stored := storeData{
		Version:   currentVersion,
		UpdatedAt: time.Now().Format(time.RFC3339),
		Sessions:  s.sortedLocked(),
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	// Write to temp file first, then rename for atomicity
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// sortedLocked returns records newest first. Caller holds mu.
func (s *JSONStore) sortedLocked() []*Record {
	out := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EndedAt.After(out[j].EndedAt)
	})
	return out
}

// Save persists a record.
func (s *JSONStore) Save(ctx context.Context, r *Record) error {
	if r == nil {
		return ErrNilRecord
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.records[r.ID]
	cp := *r
	s.records[r.ID] = &cp
	if err := s.save(); err != nil {
		if existed {
			s.records[r.ID] = prev
		} else {
			delete(s.records, r.ID)
		}
		return err
	}
	return nil
}

// Get retrieves a record by ID.
func (s *JSONStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	cp := *r
	return &cp, nil
}

// List returns records newest first.
func (s *JSONStore) List(ctx context.Context, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.sortedLocked()
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i, r := range out {
		cp := *r
		out[i] = &cp
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *JSONStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op; every Save is flushed.
func (s *JSONStore) Close() error {
	return nil
}
