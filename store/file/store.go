// Package file persists the treasury as a single JSON document on disk.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/store"
)

// Store keeps the document open and rewrites it in place on every save.
type Store struct {
	mu   sync.Mutex
	file *os.File
	path string
}

var _ store.Store = (*Store)(nil)

// New opens (or creates) the document at path.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("treasury/file: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("treasury/file: open %s: %w", path, err)
	}
	return &Store{file: f, path: path}, nil
}

// Path returns the document location.
func (s *Store) Path() string { return s.path }

// Load decodes the document. An empty file has no snapshot yet.
func (s *Store) Load(_ context.Context) (*store.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil, treasury.ErrStoreClosed
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("treasury/file: seek: %w", err)
	}
	data, err := io.ReadAll(s.file)
	if err != nil {
		return nil, fmt.Errorf("treasury/file: read: %w", err)
	}
	if len(data) == 0 {
		return nil, treasury.ErrNoSnapshot
	}
	snap, err := store.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("treasury/file: %w", err)
	}
	return snap, nil
}

// Save rewrites the document and syncs it to disk.
func (s *Store) Save(ctx context.Context, snap *store.Snapshot) error {
	data, err := store.Marshal(snap)
	if err != nil {
		return fmt.Errorf("treasury/file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if s.file == nil {
		return treasury.ErrStoreClosed
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("treasury/file: seek: %w", err)
	}
	n, err := s.file.Write(data)
	if err != nil {
		return fmt.Errorf("treasury/file: write: %w", err)
	}
	// truncate in case the new document is shorter
	if err := s.file.Truncate(int64(n)); err != nil {
		return fmt.Errorf("treasury/file: truncate: %w", err)
	}
	return s.file.Sync()
}

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return treasury.ErrStoreClosed
	}
	_, err := s.file.Stat()
	return err
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
