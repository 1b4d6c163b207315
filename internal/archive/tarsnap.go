package archive

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"slices"
	"strings"

	"tsm-go/internal/tsm"
)

// DefaultTarsnapPath is the tarsnap binary looked up on $PATH.
const DefaultTarsnapPath = "tarsnap"

// CommandRunner runs an external command and returns its combined output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// TarsnapStore manages archives with the tarsnap client.
type TarsnapStore struct {
	binary   string
	keyFile  string
	cacheDir string
	runner   CommandRunner
	logger   tsm.Logger
}

// NewTarsnapStore creates a store that invokes binary with the given key
// file and cache directory. An empty binary means DefaultTarsnapPath.
func NewTarsnapStore(binary, keyFile, cacheDir string, runner CommandRunner, logger tsm.Logger) *TarsnapStore {
	if binary == "" {
		binary = DefaultTarsnapPath
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = tsm.NewNopLogger()
	}
	return &TarsnapStore{
		binary:   binary,
		keyFile:  keyFile,
		cacheDir: cacheDir,
		runner:   runner,
		logger:   logger,
	}
}

// Create runs `tarsnap -c -f <id> <paths...>`.
func (s *TarsnapStore) Create(ctx context.Context, id tsm.ArchiveID, paths []string) error {
	_, err := s.run(ctx, s.createArgs(id, paths))
	return err
}

// Delete runs `tarsnap -d -f <id>`. tarsnap reports a missing archive as an
// error; that case is treated as success.
func (s *TarsnapStore) Delete(ctx context.Context, id tsm.ArchiveID) error {
	out, err := s.run(ctx, s.deleteArgs(id))
	if err != nil && isMissingArchive(out) {
		s.logger.Debug("archive already absent", "archive", id.String())
		return nil
	}
	return err
}

// List runs `tarsnap --list-archives` and returns the sorted names.
func (s *TarsnapStore) List(ctx context.Context) ([]string, error) {
	out, err := s.run(ctx, append(s.baseArgs(), "--list-archives"))
	if err != nil {
		return nil, err
	}

	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			names = append(names, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading archive list: %w", err)
	}
	slices.Sort(names)
	return names, nil
}

// Describe returns the command line a store call would run.
func (s *TarsnapStore) Describe(op string, id tsm.ArchiveID, paths []string) string {
	args := s.createArgs(id, paths)
	if op == "delete" {
		args = s.deleteArgs(id)
	}
	return strings.Join(append([]string{s.binary}, args...), " ")
}

func (s *TarsnapStore) baseArgs() []string {
	return []string{"--keyfile", s.keyFile, "--cachedir", s.cacheDir}
}

func (s *TarsnapStore) createArgs(id tsm.ArchiveID, paths []string) []string {
	args := append(s.baseArgs(), "-c", "-f", id.String())
	return append(args, paths...)
}

func (s *TarsnapStore) deleteArgs(id tsm.ArchiveID) []string {
	return append(s.baseArgs(), "-d", "-f", id.String())
}

func (s *TarsnapStore) run(ctx context.Context, args []string) ([]byte, error) {
	s.logger.Debug("running tarsnap", "args", strings.Join(args, " "))
	out, err := s.runner.Run(ctx, s.binary, args...)
	if err != nil {
		return out, fmt.Errorf("%s: %w: %s", s.binary, err, strings.TrimSpace(string(out)))
	}
	return out, nil
}

func isMissingArchive(out []byte) bool {
	return strings.Contains(strings.ToLower(string(out)), "does not exist")
}

var (
	_ tsm.ArchiveStore  = (*TarsnapStore)(nil)
	_ tsm.ArchiveLister = (*TarsnapStore)(nil)
)
