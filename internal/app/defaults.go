package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults holds the default locations used when no config overrides them.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - TSM_CONFIG_PATH: config file location (default: ~/.config/tsm.toml)
//   - TSM_HOME: base directory for tsm data (default: ~/.local/share/tsm)
func GetDefaults() (*Defaults, error) {
	configPath, err := envOrHome("TSM_CONFIG_PATH", ".config", "tsm.toml")
	if err != nil {
		return nil, err
	}

	baseDir, err := envOrHome("TSM_HOME", ".local", "share", "tsm")
	if err != nil {
		return nil, err
	}

	return &Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}

// envOrHome returns the value of env if set, otherwise the home directory
// joined with elem.
func envOrHome(env string, elem ...string) (string, error) {
	if path := os.Getenv(env); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{homeDir}, elem...)...), nil
}
