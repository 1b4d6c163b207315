package testutil

import (
	"context"
	"sync"

	"tsm-go/internal/archive"
	"tsm-go/internal/tsm"
)

// NewTestStore creates a new in-memory archive store for testing.
func NewTestStore() *archive.MemoryStore {
	return archive.NewMemoryStore()
}

// StoreCall is one call made to a FaultyStore.
type StoreCall struct {
	Op      string // "create" or "delete"
	Archive string
	Paths   []string
}

// FaultyStore wraps a store, records every call, and fails the calls it
// has been told to fail. Safe for concurrent use.
type FaultyStore struct {
	inner tsm.ArchiveStore

	mu       sync.Mutex
	calls    []StoreCall
	failures map[string]error // "op archive" -> error
}

// NewFaultyStore wraps inner. A nil inner uses a fresh MemoryStore.
func NewFaultyStore(inner tsm.ArchiveStore) *FaultyStore {
	if inner == nil {
		inner = archive.NewMemoryStore()
	}
	return &FaultyStore{inner: inner, failures: make(map[string]error)}
}

// FailCreate makes Create of id return err.
func (s *FaultyStore) FailCreate(id tsm.ArchiveID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures["create "+id.String()] = err
}

// FailDelete makes Delete of id return err.
func (s *FaultyStore) FailDelete(id tsm.ArchiveID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures["delete "+id.String()] = err
}

// Calls returns the calls made so far, including failed ones.
func (s *FaultyStore) Calls() []StoreCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StoreCall(nil), s.calls...)
}

func (s *FaultyStore) Create(ctx context.Context, id tsm.ArchiveID, paths []string) error {
	if err := s.record("create", id, paths); err != nil {
		return err
	}
	return s.inner.Create(ctx, id, paths)
}

func (s *FaultyStore) Delete(ctx context.Context, id tsm.ArchiveID) error {
	if err := s.record("delete", id, nil); err != nil {
		return err
	}
	return s.inner.Delete(ctx, id)
}

func (s *FaultyStore) record(op string, id tsm.ArchiveID, paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, StoreCall{Op: op, Archive: id.String(), Paths: paths})
	return s.failures[op+" "+id.String()]
}

var _ tsm.ArchiveStore = (*FaultyStore)(nil)
