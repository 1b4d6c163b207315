package archive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"tsm-go/internal/tsm"
)

// Describer is implemented by stores that can say what a call would do.
type Describer interface {
	Describe(op string, id tsm.ArchiveID, paths []string) string
}

// DryRunStore prints what the wrapped store would do instead of doing it.
// Every call succeeds.
type DryRunStore struct {
	inner tsm.ArchiveStore
	out   io.Writer

	mu    sync.Mutex
	calls []string
}

// NewDryRunStore wraps inner. Descriptions are written to out, one per
// line; out may be nil.
func NewDryRunStore(inner tsm.ArchiveStore, out io.Writer) *DryRunStore {
	if out == nil {
		out = io.Discard
	}
	return &DryRunStore{inner: inner, out: out}
}

func (s *DryRunStore) Create(ctx context.Context, id tsm.ArchiveID, paths []string) error {
	return s.print("create", id, paths)
}

func (s *DryRunStore) Delete(ctx context.Context, id tsm.ArchiveID) error {
	return s.print("delete", id, nil)
}

// List lists the wrapped store, which is read-only and safe in a dry run.
func (s *DryRunStore) List(ctx context.Context) ([]string, error) {
	lister, ok := s.inner.(tsm.ArchiveLister)
	if !ok {
		return nil, fmt.Errorf("store does not support listing archives")
	}
	return lister.List(ctx)
}

// Calls returns the descriptions printed so far.
func (s *DryRunStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *DryRunStore) print(op string, id tsm.ArchiveID, paths []string) error {
	line := s.describe(op, id, paths)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, line)
	if _, err := fmt.Fprintln(s.out, line); err != nil {
		return fmt.Errorf("writing dry-run output: %w", err)
	}
	return nil
}

func (s *DryRunStore) describe(op string, id tsm.ArchiveID, paths []string) string {
	if d, ok := s.inner.(Describer); ok {
		return d.Describe(op, id, paths)
	}
	if op == "delete" {
		return fmt.Sprintf("delete %s", id)
	}
	return strings.TrimSpace(fmt.Sprintf("create %s %s", id, strings.Join(paths, " ")))
}

var (
	_ tsm.ArchiveStore  = (*DryRunStore)(nil)
	_ tsm.ArchiveLister = (*DryRunStore)(nil)
)
