package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"tsm-go/internal/tsm"
)

const (
	tarSuffix    = ".tar"
	ageSuffix    = ".tar.age"
	tmpPrefix    = ".tmp-"
	storeDirMode = 0755
)

// FileSystemStore keeps each archive as a single tarball in a directory:
//
//	<root>/
//	  <name>_<tier>_<date>.tar.age   (encrypted archives)
//	  <name>_<tier>_<date>.tar       (when no encryptor is configured)
type FileSystemStore struct {
	root      string
	fsmgr     tsm.FilesystemManager
	encryptor tsm.Encryptor
}

// NewFileSystemStore creates a store rooted at root. enc may be nil, in
// which case tarballs are written unencrypted.
func NewFileSystemStore(root string, fsmgr tsm.FilesystemManager, enc tsm.Encryptor) (*FileSystemStore, error) {
	if err := os.MkdirAll(root, storeDirMode); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileSystemStore{root: root, fsmgr: fsmgr, encryptor: enc}, nil
}

// Create writes the archive. It fails if an archive with the same name
// already exists in either form.
func (s *FileSystemStore) Create(ctx context.Context, id tsm.ArchiveID, paths []string) error {
	for _, p := range s.candidates(id) {
		if _, err := os.Stat(p); err == nil {
			return fmt.Errorf("archive already exists: %s", id)
		}
	}
	return s.writeFile(s.path(id), func(w io.Writer) error {
		return writeArchive(ctx, s.fsmgr, s.encryptor, paths, w)
	})
}

// Delete removes the archive. Deleting a missing archive succeeds.
func (s *FileSystemStore) Delete(ctx context.Context, id tsm.ArchiveID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, p := range s.candidates(id) {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove archive: %w", err)
		}
	}
	return nil
}

// List returns the sorted names of the archives in the store.
func (s *FileSystemStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading store directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, tmpPrefix) {
			continue
		}
		switch {
		case strings.HasSuffix(name, ageSuffix):
			names = append(names, strings.TrimSuffix(name, ageSuffix))
		case strings.HasSuffix(name, tarSuffix):
			names = append(names, strings.TrimSuffix(name, tarSuffix))
		}
	}
	slices.Sort(names)
	return names, nil
}

// Describe returns a one-line description of a store call, used for
// dry runs.
func (s *FileSystemStore) Describe(op string, id tsm.ArchiveID, paths []string) string {
	if op == "delete" {
		return fmt.Sprintf("rm -f %s", strings.Join(s.candidates(id), " "))
	}
	return fmt.Sprintf("tar -c -f %s %s", s.path(id), strings.Join(paths, " "))
}

func (s *FileSystemStore) path(id tsm.ArchiveID) string {
	if s.encryptor == nil {
		return filepath.Join(s.root, id.String()+tarSuffix)
	}
	return filepath.Join(s.root, id.String()+ageSuffix)
}

func (s *FileSystemStore) candidates(id tsm.ArchiveID) []string {
	return []string{
		filepath.Join(s.root, id.String()+ageSuffix),
		filepath.Join(s.root, id.String()+tarSuffix),
	}
}

// writeFile runs write against a temp file in the store directory and
// renames it into place only if write succeeds.
func (s *FileSystemStore) writeFile(destPath string, write func(io.Writer) error) error {
	tmpFile, err := os.CreateTemp(s.root, tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if err := write(tmpFile); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

var (
	_ tsm.ArchiveStore  = (*FileSystemStore)(nil)
	_ tsm.ArchiveLister = (*FileSystemStore)(nil)
)
