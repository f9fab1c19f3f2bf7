package frames

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vcnkl/areamap/models"
)

// Store persists the most recent frame. It satisfies render.Sink.
type Store struct {
	path   string
	latest *models.Frame
	mu     sync.RWMutex
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted frame. A missing file yields nil, nil.
func (s *Store) Load() (*models.Frame, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read frame file %s: %w", s.path, err)
	}

	var frame models.Frame
	if err = json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("failed to parse frame file %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.latest = &frame
	s.mu.Unlock()

	return &frame, nil
}

func (s *Store) Latest() *models.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latest
}

func (s *Store) Save(frame *models.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(frame, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err = os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write frame file %s: %w", tmpPath, err)
	}

	if err = os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to rename frame file: %w", err)
	}

	s.latest = frame
	return nil
}

func (s *Store) Publish(_ context.Context, frame *models.Frame) error {
	return s.Save(frame)
}
