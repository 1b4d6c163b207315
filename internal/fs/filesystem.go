package fs

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"tsm-go/internal/tsm"
)

// OSFilesystemManager reads the paths being archived from the real
// filesystem.
type OSFilesystemManager struct {
	ignore *IgnoreMatcher
}

// NewOSFilesystemManager creates a manager that skips files matching the
// given patterns, the built-in defaults, and any .tsmignore file found at
// the root of a directory being archived.
func NewOSFilesystemManager(ignorePatterns []string) *OSFilesystemManager {
	return &OSFilesystemManager{
		ignore: NewIgnoreMatcher(defaultIgnorePatterns).With(ignorePatterns),
	}
}

// Resolve validates a raw path and returns a Path object.
func (m *OSFilesystemManager) Resolve(rawPath string) (*tsm.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}
	if err := checkMode(absPath, info.Mode()); err != nil {
		return nil, err
	}

	return tsm.NewPath(absPath, info.IsDir(), info), nil
}

// checkMode rejects anything but regular files and directories.
func checkMode(path string, mode fs.FileMode) error {
	switch {
	case mode&os.ModeSymlink != 0:
		return fmt.Errorf("symlinks not supported: %s", path)
	case mode&os.ModeDevice != 0:
		return fmt.Errorf("device files not supported: %s", path)
	case mode&os.ModeNamedPipe != 0:
		return fmt.Errorf("named pipes not supported: %s", path)
	case mode&os.ModeSocket != 0:
		return fmt.Errorf("sockets not supported: %s", path)
	}
	return nil
}

// Open opens a file for reading.
func (m *OSFilesystemManager) Open(path *tsm.Path) (io.ReadCloser, error) {
	if path.IsDir() {
		return nil, fmt.Errorf("cannot open directory as file: %s", path.String())
	}
	return os.Open(path.String())
}

// FindFiles returns the regular files under a directory that are not
// ignored. Symlinks and special files are skipped.
func (m *OSFilesystemManager) FindFiles(path *tsm.Path, recursive bool) ([]*tsm.Path, error) {
	if !path.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path.String())
	}

	root := path.String()
	local, err := ParseIgnoreFile(filepath.Join(root, IgnoreFileName))
	if err != nil {
		return nil, err
	}
	ignore := m.ignore.With(local)

	var paths []*tsm.Path
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return fmt.Errorf("relative path of %s: %w", p, err)
		}
		if d.IsDir() {
			if !recursive || ignore.Match(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || ignore.Match(rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		paths = append(paths, tsm.NewPath(p, false, info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return paths, nil
}

// Compile-time check that OSFilesystemManager implements tsm.FilesystemManager
var _ tsm.FilesystemManager = (*OSFilesystemManager)(nil)
