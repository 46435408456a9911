package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default returns a configuration with built-in default values.
//
// It is also the fallback whenever the config document is missing,
// malformed or invalid.
func Default() *Config {
	return &Config{
		WatchPaths:      []string{defaultDownloadsDir()},
		DestinationRoot: defaultDestinationRoot(),
		Categories:      DefaultCategories(),
		Session: SessionConfig{
			WorkMinutes:  25,
			BreakMinutes: 5,
		},
		Preferences: PreferencesConfig{
			Sound:   true,
			Overlay: true,
		},
		Automation: AutomationConfig{
			SettleDelay:    D(time.Second),
			MaxAttempts:    5,
			RetryDelay:     D(1500 * time.Millisecond),
			Workers:        0,
			IgnoreSuffixes: DefaultIgnoreSuffixes(),
		},
		Progression: ProgressionConfig{
			XPPerFile:    10,
			XPPerSession: 100,
		},
		Agent: AgentConfig{
			PollInterval: D(200 * time.Millisecond),
			TickInterval: D(time.Second),
			WatchConfig:  true,
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}

// DefaultCategories returns the built-in category rules in match order.
func DefaultCategories() Categories {
	return Categories{
		{Name: "Images", Extensions: []string{".jpg", ".jpeg", ".png", ".webp", ".svg", ".gif"}},
		{Name: "Documents", Extensions: []string{".pdf", ".docx", ".txt", ".xlsx", ".csv", ".pptx", ".md"}},
		{Name: "Archives", Extensions: []string{".zip", ".rar", ".7z", ".tar", ".tar.gz", ".gz", ".iso"}},
		{Name: "Code", Extensions: []string{".py", ".ipynb", ".js", ".cpp", ".html", ".css", ".json", ".sql", ".sh", ".go"}},
		{Name: "Media", Extensions: []string{".mp3", ".wav", ".mp4", ".mkv"}},
		{Name: "Installers", Extensions: []string{".exe", ".msi", ".bat", ".ps1", ".appimage", ".deb", ".rpm"}},
	}
}

// DefaultIgnoreSuffixes returns the suffixes browsers and download
// managers put on files that are still being written.
func DefaultIgnoreSuffixes() []string {
	return []string{".crdownload", ".part", ".partial", ".tmp", ".download", ".opdownload", ".!ut"}
}

// defaultDownloadsDir returns ~/Downloads.
func defaultDownloadsDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./Downloads"
	}

	return filepath.Join(homeDir, "Downloads")
}

// defaultDestinationRoot returns ~/Desktop.
func defaultDestinationRoot() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./Desktop"
	}

	return filepath.Join(homeDir, "Desktop")
}

// defaultDBPath returns the default database file path.
//
// Returns: ~/.config/kaizen/kaizen.db.
func defaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./kaizen.db"
	}

	return filepath.Join(homeDir, ".config", "kaizen", "kaizen.db")
}

// DefaultConfigPath returns the default configuration file path.
//
// Returns: ~/.config/kaizen/config.yaml.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}

	return filepath.Join(homeDir, ".config", "kaizen", "config.yaml")
}
