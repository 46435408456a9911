package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables
	// 2. Configuration file
	// 3. Default values
	//
	// The returned Config is never nil. A non-nil error wraps ErrFallback
	// and means some or all of the document was replaced by defaults;
	// callers log it and carry on.
	Load() (*Config, error)

	// LoadFromFile parses a single document without env overrides
	// or fallback.
	LoadFromFile(path string) (*Config, error)

	// Path returns the document path Load reads from, or "" when no
	// document exists in the search locations.
	Path() string
}

// loader implements the Loader interface.
type loader struct {
	configPath string
}

// NewLoader creates a new configuration loader.
//
// If configPath is empty, searches for config file in:
// 1. ./kaizen.yaml, ./kaizen.toml (current directory)
// 2. ~/.config/kaizen/config.yaml, ~/.config/kaizen/config.toml.
func NewLoader(configPath string) Loader {
	return &loader{
		configPath: configPath,
	}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	cfg := Default()
	var problems []error

	configPath := l.Path()
	if l.configPath != "" {
		if _, err := os.Stat(l.configPath); err != nil {
			problems = append(problems, fmt.Errorf("%w: %s", ErrConfigNotFound, l.configPath))
			configPath = ""
		}
	}

	if configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		if err != nil {
			problems = append(problems, err)
		} else {
			cfg = fileCfg
		}
	}

	cfg = l.applyEnvVars(cfg)
	normalize(cfg)

	if err := cfg.Validate(); err != nil {
		problems = append(problems, fmt.Errorf("invalid configuration: %w", err))

		cfg = l.applyEnvVars(Default())
		normalize(cfg)
		if cfg.Validate() != nil {
			cfg = Default()
			normalize(cfg)
		}
	}

	if len(problems) > 0 {
		return cfg, fmt.Errorf("%w: %w", ErrFallback, errors.Join(problems...))
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return decode(path, data)
}

// Path implements Loader.Path.
func (l *loader) Path() string {
	if l.configPath != "" {
		return l.configPath
	}
	return l.findConfigFile()
}

// SearchPaths returns the document locations tried when no explicit path
// is given, in order of precedence.
func SearchPaths() []string {
	def := DefaultConfigPath()
	return []string{
		"./kaizen.yaml",
		"./kaizen.toml",
		def,
		strings.TrimSuffix(def, filepath.Ext(def)) + ".toml",
	}
}

// findConfigFile searches for a config file in standard locations.
//
// Returns empty string if no config file is found.
func (l *loader) findConfigFile() string {
	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// decode parses a document on top of the defaults, so keys the document
// leaves out keep their default values.
func decode(path string, data []byte) (*Config, error) {
	cfg := Default()

	// Lists are replaced wholesale, never merged element by element.
	cfg.WatchPaths = nil
	cfg.Categories = nil
	cfg.Automation.IgnoreSuffixes = nil

	var err error
	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	defaults := Default()
	if cfg.WatchPaths == nil {
		cfg.WatchPaths = defaults.WatchPaths
	}
	if cfg.Categories == nil {
		cfg.Categories = defaults.Categories
	}
	if cfg.Automation.IgnoreSuffixes == nil {
		cfg.Automation.IgnoreSuffixes = defaults.Automation.IgnoreSuffixes
	}

	return cfg, nil
}

// applyEnvVars applies environment variable overrides to the configuration.
//
// Supported environment variables:
//   - KAIZEN_WATCH_PATHS: Comma-separated list of watched directories
//   - KAIZEN_DESTINATION: Destination root
//   - KAIZEN_DB: Path to database file
//   - KAIZEN_LOG_LEVEL: Log level
func (l *loader) applyEnvVars(cfg *Config) *Config {
	result := cfg.Clone()

	if envPaths := os.Getenv("KAIZEN_WATCH_PATHS"); envPaths != "" {
		paths := strings.Split(envPaths, ",")
		for i := range paths {
			paths[i] = strings.TrimSpace(paths[i])
		}
		result.WatchPaths = paths
	}

	if dest := os.Getenv("KAIZEN_DESTINATION"); dest != "" {
		result.DestinationRoot = dest
	}

	if dbPath := os.Getenv("KAIZEN_DB"); dbPath != "" {
		result.Storage.DBPath = dbPath
	}

	if logLevel := os.Getenv("KAIZEN_LOG_LEVEL"); logLevel != "" {
		result.Logging.Level = strings.ToLower(logLevel)
	}

	return result
}

// normalize expands home-relative paths and drops blank entries.
func normalize(cfg *Config) {
	paths := cfg.WatchPaths[:0]
	for _, p := range cfg.WatchPaths {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, ExpandHome(p))
		}
	}
	cfg.WatchPaths = paths

	cfg.DestinationRoot = ExpandHome(strings.TrimSpace(cfg.DestinationRoot))
	cfg.Storage.DBPath = ExpandHome(strings.TrimSpace(cfg.Storage.DBPath))
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)

	for i, s := range cfg.Automation.IgnoreSuffixes {
		cfg.Automation.IgnoreSuffixes[i] = strings.ToLower(strings.TrimSpace(s))
	}
}

// Load is a convenience function that creates a loader and loads configuration.
//
// Equivalent to:
//
//	loader := NewLoader("")
//	return loader.Load()
func Load() (*Config, error) {
	return NewLoader("").Load()
}

// LoadFromFile is a convenience function that loads configuration from a
// specific file, with env overrides and fallback.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Save writes the configuration to a YAML file, or TOML when path ends
// in .toml.
//
// Creates parent directories if they don't exist.
// File is created with 0600 permissions (read/write for owner only).
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := Marshal(cfg, path)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Marshal encodes cfg in the format implied by path.
func Marshal(cfg *Config, path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// ExpandHome expands ~ in file paths to the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	return filepath.Join(homeDir, path[2:])
}
