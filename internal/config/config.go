// Package config resolves awgo's runtime configuration: where its data
// lives, whether it's running in an isolated testing instance, where to
// look for sync peers, and how verbose its logging should be.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const appDirName = "awgo"

// Config is the resolved runtime configuration for one awgo instance.
type Config struct {
	DataDir  string // directory holding sqlite.db and device_id
	Testing  bool   // true routes DataDir into a "testing" subdirectory
	SyncDir  string // directory to read sync peer databases from
	LogLevel string // one of trace/debug/info/warn/error
}

// Load resolves configuration with the following priority, highest first:
//  1. CLI flags (flagDataDir, flagTesting, flagSyncDir, flagLogLevel — the
//     empty string / false mean "not set" for their respective field)
//  2. Environment variables: AW_SYNC_DIR, LOG_LEVEL
//  3. Defaults: the OS user data directory joined with "awgo", log level
//     "info"
//
// The resolved data directory is created if it does not already exist.
func Load(flagDataDir string, flagTesting bool, flagSyncDir, flagLogLevel string) (*Config, error) {
	cfg := &Config{Testing: flagTesting, LogLevel: "info"}

	dataDir := flagDataDir
	if dataDir == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return nil, fmt.Errorf("resolve default data directory: %w", err)
		}
		dataDir = dir
	}
	if cfg.Testing {
		dataDir = filepath.Join(dataDir, "testing")
	}
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", dataDir, err)
	}
	cfg.DataDir = dataDir

	cfg.SyncDir = flagSyncDir
	if cfg.SyncDir == "" {
		if env := os.Getenv("AW_SYNC_DIR"); env != "" {
			cfg.SyncDir = env
		} else {
			cfg.SyncDir = filepath.Join(dataDir, "sync")
		}
	}

	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	} else if env := os.Getenv("LOG_LEVEL"); env != "" {
		cfg.LogLevel = env
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DBPath returns the path of this instance's event database, named
// differently under testing mode so a testing run never touches the
// normal instance's data.
func (c *Config) DBPath() string {
	if c.Testing {
		return filepath.Join(c.DataDir, "sqlite-testing.db")
	}
	return filepath.Join(c.DataDir, "sqlite.db")
}

func validateLogLevel(level string) error {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q: must be one of trace/debug/info/warn/error", level)
	}
}

func defaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", appDirName), nil
}
