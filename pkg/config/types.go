// Package config provides configuration management for the kaizen agent.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Environment variables (highest priority)
// 2. Configuration file (YAML, or TOML when the path ends in .toml)
// 3. Default values (lowest priority)
//
// A Config is treated as an immutable snapshot: components receive it at
// construction and a reload produces a brand new value.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Warn("using default configuration", "error", err)
//	}
//	fmt.Printf("Watching: %v\n", cfg.WatchPaths)
package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration.
//
// Invariants:
// - DestinationRoot is non-empty
// - Categories has at least one named rule
// - Work and break minutes are > 0
// - MaxAttempts is within [1, 10]
// - PollInterval and TickInterval are > 0.
type Config struct {
	// Directories observed (non-recursively) for new files
	WatchPaths []string `yaml:"watch_paths" toml:"watch_paths" json:"watch_paths"`

	// Root under which one directory per category is created
	DestinationRoot string `yaml:"destination_root" toml:"destination_root" json:"destination_root"`

	// Ordered category rules, first match wins
	Categories Categories `yaml:"categories" toml:"categories" json:"categories"`

	// Focus session durations
	Session SessionConfig `yaml:"session" toml:"session" json:"session"`

	// Notification preferences for the rendering surface
	Preferences PreferencesConfig `yaml:"preferences" toml:"preferences" json:"preferences"`

	// File automation tuning
	Automation AutomationConfig `yaml:"automation" toml:"automation" json:"automation"`

	// Experience rewards
	Progression ProgressionConfig `yaml:"progression" toml:"progression" json:"progression"`

	// Cooperative loop timing
	Agent AgentConfig `yaml:"agent" toml:"agent" json:"agent"`

	// Storage settings
	Storage StorageConfig `yaml:"storage" toml:"storage" json:"storage"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" toml:"logging" json:"logging"`
}

// Category maps a category name to the extensions it claims.
type Category struct {
	Name       string   `yaml:"name" toml:"name" json:"name"`
	Extensions []string `yaml:"extensions" toml:"extensions" json:"extensions"`
}

// Categories is an ordered list of category rules.
//
// In YAML it is written as an ordered mapping (name -> extensions); a list
// of {name, extensions} objects is accepted as well.
type Categories []Category

// UnmarshalYAML keeps the document order of a category mapping.
func (c *Categories) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		out := make(Categories, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var exts []string
			if err := node.Content[i+1].Decode(&exts); err != nil {
				return fmt.Errorf("category %q: %w", node.Content[i].Value, err)
			}
			out = append(out, Category{Name: node.Content[i].Value, Extensions: exts})
		}
		*c = out
		return nil

	case yaml.SequenceNode:
		var list []Category
		if err := node.Decode(&list); err != nil {
			return err
		}
		*c = list
		return nil

	default:
		return fmt.Errorf("categories: expected mapping or list, got %s", nodeKind(node.Kind))
	}
}

// MarshalYAML writes categories as an ordered mapping with flow-style lists.
func (c Categories) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, cat := range c {
		exts := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
		for _, ext := range cat.Extensions {
			exts.Content = append(exts.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: ext})
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: cat.Name},
			exts)
	}
	return node, nil
}

func nodeKind(k yaml.Kind) string {
	switch k {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return fmt.Sprintf("kind %d", k)
	}
}

// SessionConfig contains focus session durations.
type SessionConfig struct {
	// Length of a WORK phase in minutes
	WorkMinutes int `yaml:"work_minutes" toml:"work_minutes" json:"work_minutes"`

	// Length of a BREAK phase in minutes
	BreakMinutes int `yaml:"break_minutes" toml:"break_minutes" json:"break_minutes"`
}

// PreferencesConfig contains sound and overlay preferences.
type PreferencesConfig struct {
	// Ring the terminal bell on phase changes
	Sound bool `yaml:"sound" toml:"sound" json:"sound"`

	// Show notification lines on the terminal
	Overlay bool `yaml:"overlay" toml:"overlay" json:"overlay"`
}

// AutomationConfig tunes the file automation service.
type AutomationConfig struct {
	// Wait before acting on a creation event
	SettleDelay Duration `yaml:"settle_delay" toml:"settle_delay" json:"settle_delay"`

	// Total move attempts on transient failures
	MaxAttempts int `yaml:"max_attempts" toml:"max_attempts" json:"max_attempts"`

	// Fixed delay between move attempts
	RetryDelay Duration `yaml:"retry_delay" toml:"retry_delay" json:"retry_delay"`

	// Bounded worker pool size (0 = one goroutine per event)
	Workers int `yaml:"workers" toml:"workers" json:"workers"`

	// Suffixes of in-progress downloads that are never touched
	IgnoreSuffixes []string `yaml:"ignore_suffixes" toml:"ignore_suffixes" json:"ignore_suffixes"`
}

// ProgressionConfig contains experience rewards.
type ProgressionConfig struct {
	// Experience awarded per relocated file
	XPPerFile int `yaml:"xp_per_file" toml:"xp_per_file" json:"xp_per_file"`

	// Experience awarded per completed WORK phase
	XPPerSession int `yaml:"xp_per_session" toml:"xp_per_session" json:"xp_per_session"`
}

// AgentConfig contains timing of the cooperative loop.
type AgentConfig struct {
	// How often the message bus is drained
	PollInterval Duration `yaml:"poll_interval" toml:"poll_interval" json:"poll_interval"`

	// Length of one scheduler time unit
	TickInterval Duration `yaml:"tick_interval" toml:"tick_interval" json:"tick_interval"`

	// Reload automatically when the config file changes
	WatchConfig bool `yaml:"watch_config" toml:"watch_config" json:"watch_config"`
}

// StorageConfig contains storage-related settings.
type StorageConfig struct {
	// Path to BoltDB database file
	DBPath string `yaml:"db_path" toml:"db_path" json:"db_path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level" toml:"level" json:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output" toml:"output" json:"output"`

	// Log format (text, json)
	Format string `yaml:"format" toml:"format" json:"format"`
}

// Duration is a time.Duration written as a Go duration string ("1.5s")
// in every document format.
type Duration struct {
	time.Duration
}

// D wraps a time.Duration.
func D(d time.Duration) Duration {
	return Duration{Duration: d}
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// Validate checks if the configuration satisfies all invariants.
//
// Thread-safety: This method is read-only and thread-safe.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DestinationRoot) == "" {
		return ErrNoDestination
	}

	if len(c.Categories) == 0 {
		return ErrNoCategories
	}
	for _, cat := range c.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			return ErrEmptyCategoryName
		}
	}

	if c.Session.WorkMinutes <= 0 || c.Session.BreakMinutes <= 0 {
		return ErrInvalidSessionLength
	}

	if c.Automation.MaxAttempts < 1 || c.Automation.MaxAttempts > 10 {
		return ErrInvalidMaxAttempts
	}
	if c.Automation.SettleDelay.Duration < 0 || c.Automation.RetryDelay.Duration < 0 {
		return ErrInvalidDelay
	}
	if c.Automation.Workers < 0 {
		return ErrInvalidWorkers
	}

	if c.Progression.XPPerFile < 0 || c.Progression.XPPerSession < 0 {
		return ErrInvalidXP
	}

	if c.Agent.PollInterval.Duration <= 0 || c.Agent.TickInterval.Duration <= 0 {
		return ErrInvalidInterval
	}

	if strings.TrimSpace(c.Storage.DBPath) == "" {
		return ErrNoDBPath
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}

// WorkDuration returns the WORK phase length.
func (c *Config) WorkDuration() time.Duration {
	return time.Duration(c.Session.WorkMinutes) * time.Minute
}

// BreakDuration returns the BREAK phase length.
func (c *Config) BreakDuration() time.Duration {
	return time.Duration(c.Session.BreakMinutes) * time.Minute
}

// Clone returns a deep copy, so a snapshot can be edited without touching
// the one other components hold.
func (c *Config) Clone() *Config {
	out := *c
	out.WatchPaths = append([]string(nil), c.WatchPaths...)
	out.Automation.IgnoreSuffixes = append([]string(nil), c.Automation.IgnoreSuffixes...)
	out.Categories = make(Categories, len(c.Categories))
	for i, cat := range c.Categories {
		out.Categories[i] = Category{
			Name:       cat.Name,
			Extensions: append([]string(nil), cat.Extensions...),
		}
	}
	return &out
}
