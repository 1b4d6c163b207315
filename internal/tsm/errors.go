package tsm

import "fmt"

// ConfigError reports an invalid setting detected while building a policy
// or store. It is always fatal and raised before any evaluation happens.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// ArchiveError wraps a failure of the archive store while creating or
// deleting an archive.
type ArchiveError struct {
	Op      string // "create" or "delete"
	Archive string
	Err     error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("%s archive %s: %v", e.Op, e.Archive, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }
