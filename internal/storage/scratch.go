package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

// Scratch manages the shared directory where generated images and uploaded
// face photos are staged before they go to the object store. Files are named
// with a timestamp plus a process-local counter, so concurrent requests never
// collide and no locking is needed.
type Scratch struct {
	dir string
	seq atomic.Uint64
}

// NewScratch ensures the directory exists and returns the manager.
func NewScratch(dir string) (*Scratch, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("storage: scratch dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure scratch dir: %w", err)
	}
	return &Scratch{dir: dir}, nil
}

// Dir returns the scratch root.
func (s *Scratch) Dir() string {
	return s.dir
}

// WriteTemp stages data under a unique name like "thumb-1712345678901-42.png"
// and returns the full path. The caller owns cleanup, typically via
// `defer scratch.Remove(path)` so the file is gone on every exit path.
func (s *Scratch) WriteTemp(prefix string, data []byte) (string, error) {
	name := fmt.Sprintf("%s-%d-%d.png", prefix, time.Now().UnixMilli(), s.seq.Add(1))
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write temp file: %w", err)
	}
	return path, nil
}

// Remove deletes a staged file. A missing file is not an error: failure paths
// may race their own deferred cleanup.
func (s *Scratch) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: remove temp file: %w", err)
	}
	return nil
}
