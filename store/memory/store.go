// Package memory provides an in-process store.Store, for tests and demos.
package memory

import (
	"context"
	"sync"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/store"
)

// Store keeps a deep copy of the last saved snapshot.
type Store struct {
	mu     sync.RWMutex
	snap   *store.Snapshot
	saves  int
	failOn error
	closed bool
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Load returns a copy of the last saved snapshot.
func (s *Store) Load(_ context.Context) (*store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, treasury.ErrStoreClosed
	}
	if s.snap == nil {
		return nil, treasury.ErrNoSnapshot
	}
	return s.snap.Clone(), nil
}

// Save replaces the stored snapshot with a copy of snap.
func (s *Store) Save(_ context.Context, snap *store.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return treasury.ErrStoreClosed
	}
	if s.failOn != nil {
		return s.failOn
	}
	s.snap = snap.Clone()
	s.saves++
	return nil
}

// FailSaves makes every following Save return err. Pass nil to recover.
func (s *Store) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn = err
}

// Saves reports how many saves succeeded.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return treasury.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
