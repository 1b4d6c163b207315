package archive

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"tsm-go/internal/tsm"
)

// MemoryStore is an in-memory implementation of tsm.ArchiveStore. It keeps
// the archive names and the paths each one was created from, making it
// useful for testing and for previewing a policy over many days.
// This implementation is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	archives map[string][]string // archive name -> paths
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{archives: make(map[string][]string)}
}

// Create records a new archive. Like tarsnap, it refuses to reuse a name.
func (m *MemoryStore) Create(ctx context.Context, id tsm.ArchiveID, paths []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	name := id.String()
	if _, ok := m.archives[name]; ok {
		return fmt.Errorf("archive already exists: %s", name)
	}
	m.archives[name] = slices.Clone(paths)
	return nil
}

// Delete removes an archive. Deleting a missing archive succeeds.
func (m *MemoryStore) Delete(ctx context.Context, id tsm.ArchiveID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.archives, id.String())
	return nil
}

// List returns the sorted archive names.
func (m *MemoryStore) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.archives))
	for name := range m.archives {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Has reports whether an archive exists.
func (m *MemoryStore) Has(id tsm.ArchiveID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.archives[id.String()]
	return ok
}

// Paths returns the paths an archive was created from.
func (m *MemoryStore) Paths(id tsm.ArchiveID) ([]string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths, ok := m.archives[id.String()]
	return slices.Clone(paths), ok
}

var (
	_ tsm.ArchiveStore  = (*MemoryStore)(nil)
	_ tsm.ArchiveLister = (*MemoryStore)(nil)
)
