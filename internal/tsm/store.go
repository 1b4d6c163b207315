package tsm

import "context"

// ArchiveStore creates and deletes named archives. Implementations wrap an
// archiving tool or storage backend; the rotation engine only decides which
// names to pass.
type ArchiveStore interface {
	// Create makes a new archive named id containing paths.
	Create(ctx context.Context, id ArchiveID, paths []string) error

	// Delete removes the archive named id. Deleting an archive that does
	// not exist succeeds.
	Delete(ctx context.Context, id ArchiveID) error
}

// ArchiveLister is implemented by stores that can enumerate their archives.
type ArchiveLister interface {
	// List returns the names of all archives in the store, sorted.
	List(ctx context.Context) ([]string, error)
}
