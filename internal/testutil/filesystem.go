package testutil

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"tsm-go/internal/tsm"
)

// MockModTime is the modification time given to every mock file.
var MockModTime = time.Date(2012, time.March, 24, 3, 30, 0, 0, time.UTC)

// MockFile represents a file in the mock filesystem.
type MockFile struct {
	Content     []byte
	Permissions fs.FileMode
	IsDirectory bool
}

// MockFilesystemManager is an in-memory filesystem for testing.
// Paths are absolute and slash separated.
type MockFilesystemManager struct {
	files map[string]*MockFile
	opens []string
}

// NewMockFilesystemManager creates a new mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{
		files: make(map[string]*MockFile),
	}
}

// AddFile adds a regular file, creating its parent directories.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	m.addParents(path)
	m.files[path] = &MockFile{Content: content, Permissions: 0644}
}

// AddDirectory adds a directory and its parents.
func (m *MockFilesystemManager) AddDirectory(path string) {
	m.addParents(path)
	m.files[path] = &MockFile{Permissions: 0755 | fs.ModeDir, IsDirectory: true}
}

func (m *MockFilesystemManager) addParents(path string) {
	for dir := filepath.Dir(path); dir != "/" && dir != "."; dir = filepath.Dir(dir) {
		if _, ok := m.files[dir]; !ok {
			m.files[dir] = &MockFile{Permissions: 0755 | fs.ModeDir, IsDirectory: true}
		}
	}
}

// Opens returns the paths opened so far, in order.
func (m *MockFilesystemManager) Opens() []string {
	return slices.Clone(m.opens)
}

func (m *MockFilesystemManager) Resolve(rawPath string) (*tsm.Path, error) {
	absPath := filepath.Clean(rawPath)
	if !filepath.IsAbs(absPath) {
		absPath = filepath.Join("/", absPath)
	}

	file, ok := m.files[absPath]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", absPath)
	}
	return m.path(absPath, file), nil
}

func (m *MockFilesystemManager) Open(path *tsm.Path) (io.ReadCloser, error) {
	file, ok := m.files[path.String()]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path.String())
	}
	if file.IsDirectory {
		return nil, fmt.Errorf("cannot open directory: %s", path.String())
	}
	m.opens = append(m.opens, path.String())
	return io.NopCloser(bytes.NewReader(file.Content)), nil
}

// FindFiles returns the regular files below path in lexical order.
func (m *MockFilesystemManager) FindFiles(path *tsm.Path, recursive bool) ([]*tsm.Path, error) {
	if !path.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path.String())
	}

	prefix := strings.TrimSuffix(path.String(), "/") + "/"
	var names []string
	for name, file := range m.files {
		if file.IsDirectory || !strings.HasPrefix(name, prefix) {
			continue
		}
		if !recursive && strings.Contains(strings.TrimPrefix(name, prefix), "/") {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)

	paths := make([]*tsm.Path, 0, len(names))
	for _, name := range names {
		paths = append(paths, m.path(name, m.files[name]))
	}
	return paths, nil
}

func (m *MockFilesystemManager) path(absPath string, file *MockFile) *tsm.Path {
	info := &mockFileInfo{
		name:    filepath.Base(absPath),
		size:    int64(len(file.Content)),
		mode:    file.Permissions,
		modTime: MockModTime,
		isDir:   file.IsDirectory,
	}
	return tsm.NewPath(absPath, file.IsDirectory, info)
}

// mockFileInfo implements fs.FileInfo
type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() any           { return nil }

// Compile-time check
var _ tsm.FilesystemManager = (*MockFilesystemManager)(nil)
