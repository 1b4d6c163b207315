package tsm

import (
	"io"
	"io/fs"
)

// FilesystemManager gives archive stores read access to the paths being
// backed up. It abstracts the host filesystem so stores can be tested
// against temporary trees.
type FilesystemManager interface {
	// Resolve makes rawPath absolute, stats it and rejects anything that is
	// not a regular file or directory.
	Resolve(rawPath string) (*Path, error)

	// Open opens a regular file for reading.
	Open(path *Path) (io.ReadCloser, error)

	// FindFiles returns the regular files below a directory, skipping
	// ignored names. With recursive=false only direct children are returned.
	FindFiles(path *Path, recursive bool) ([]*Path, error)
}

// Path is a resolved filesystem path with the stat info captured when it
// was resolved.
type Path struct {
	absPath string
	isDir   bool
	info    fs.FileInfo
}

// NewPath creates a Path. Used by FilesystemManager implementations.
func NewPath(absPath string, isDir bool, info fs.FileInfo) *Path {
	return &Path{absPath: absPath, isDir: isDir, info: info}
}

func (p *Path) String() string    { return p.absPath }
func (p *Path) IsDir() bool       { return p.isDir }
func (p *Path) Info() fs.FileInfo { return p.info }
