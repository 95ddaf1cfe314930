package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cafeteria-planner/internal/catalog"
)

// FileStore keeps the user recipes in a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore and ensures the parent directory exists.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory for %s: %w", path, err)
	}
	return &FileStore{path: path}, nil
}

// Load reads the stored state. A missing file is an empty state.
func (s *FileStore) Load(_ context.Context) (catalog.UserState, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return catalog.UserState{}, nil
	}
	if err != nil {
		return catalog.UserState{}, fmt.Errorf("failed to read recipe file: %w", err)
	}

	var state catalog.UserState
	if err := json.Unmarshal(data, &state); err != nil {
		return catalog.UserState{}, fmt.Errorf("failed to unmarshal recipe file: %w", err)
	}
	return state, nil
}

// Save writes the state to a temporary file and renames it into place.
func (s *FileStore) Save(_ context.Context, state catalog.UserState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal recipes: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write recipe file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace recipe file: %w", err)
	}
	return nil
}
