package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Defaults for a freshly initialized config.
const (
	DefaultCacheDir  = "/usr/tarsnap-cache"
	DefaultWeekday   = 0
	DefaultNumDays   = 3
	DefaultNumWeeks  = 2
	DefaultNumMonths = 1
	DefaultLogLevel  = "info"
	DefaultSchedule  = "30 3 * * *"
)

// Config represents the main configuration for tsm.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	LogLevel   string           `toml:"log_level"` // "debug", "info", "warn" or "error"
	Paths      []string         `toml:"paths"`     // files and directories to archive
	Schedule   string           `toml:"schedule"`  // cron expression used by `tsm daemon`
	Policy     PolicyConfig     `toml:"policy"`
	Store      StoreConfig      `toml:"store"`
	Encryption EncryptionConfig `toml:"encryption"`
	Database   DatabaseConfig   `toml:"database"`
	Filesystem FilesystemConfig `toml:"filesystem"`
}

// PolicyConfig holds the rotation policy. Weekday uses 0=Monday through 6=Sunday.
type PolicyConfig struct {
	ArchiveName string `toml:"archive_name"`
	Weekday     int    `toml:"weekday"`
	NumDays     int    `toml:"num_days"`
	NumWeeks    int    `toml:"num_weeks"`
	NumMonths   int    `toml:"num_months"`
	DailyExpiry bool   `toml:"daily_expiry"` // also expire daily archives older than num_days
}

// StoreConfig selects the archive store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StoreConfig struct {
	Type string `toml:"type"` // "tarsnap", "filesystem", "s3" or "memory"

	// tarsnap-specific fields (only used when Type == "tarsnap")
	KeyFile     string `toml:"key_file,omitempty"`
	CacheDir    string `toml:"cache_dir,omitempty"`
	TarsnapPath string `toml:"tarsnap_path,omitempty"` // defaults to "tarsnap" on $PATH

	// filesystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`
	S3ForcePathStyle  bool   `toml:"s3_force_path_style,omitempty"`
}

// EncryptionConfig holds paths to the age key pair used by the filesystem
// and s3 stores.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default), "test" or "none"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// DatabaseConfig represents configuration for the run ledger.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// FilesystemConfig holds filesystem-related settings.
type FilesystemConfig struct {
	Ignore []string `toml:"ignore"`
}

// NewConfig creates a Config rooted at baseDir with the historical
// tarsnap-manager defaults.
func NewConfig(baseDir string) *Config {
	cfg := defaultConfig()
	cfg.SetBaseDir(baseDir)
	return cfg
}

// defaultConfig holds every default that does not depend on the base dir.
func defaultConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Schedule: DefaultSchedule,
		Policy: PolicyConfig{
			Weekday:   DefaultWeekday,
			NumDays:   DefaultNumDays,
			NumWeeks:  DefaultNumWeeks,
			NumMonths: DefaultNumMonths,
		},
		Store: StoreConfig{
			Type:     "tarsnap",
			CacheDir: DefaultCacheDir,
		},
		Database: DatabaseConfig{
			Type: "sqlite",
		},
	}
}

// fillPaths derives unset directories and key paths from BaseDir.
func (c *Config) fillPaths() {
	if c.BaseDir == "" {
		return
	}
	if c.LogDir == "" {
		c.LogDir = filepath.Join(c.BaseDir, "log")
	}
	if c.Encryption.PublicKeyPath == "" {
		c.Encryption.PublicKeyPath = filepath.Join(c.BaseDir, "keys", "tsm.pub")
	}
	if c.Encryption.PrivateKeyPath == "" {
		c.Encryption.PrivateKeyPath = filepath.Join(c.BaseDir, "keys", "tsm.key")
	}
	if c.Database.DataDir == "" {
		c.Database.DataDir = filepath.Join(c.BaseDir, "db")
	}
}

// SetBaseDir roots the config at dir and derives any unset paths from it.
func (c *Config) SetBaseDir(dir string) {
	c.BaseDir = dir
	c.fillPaths()
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader. Keys missing from the
// file keep their defaults; paths left unset are derived from base_dir.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	cfg := defaultConfig()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.fillPaths()
	return cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to path, creating parent directories.
// The file may hold S3 credentials, so it is only readable by its owner.
func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
