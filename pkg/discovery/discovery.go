// Package discovery enumerates the files sitting in watched directories.
//
// It backs the bulk "purge" operation: the same listing the watcher would
// have reported one file at a time, taken in one pass. Directories are
// scanned non-recursively and only regular files are returned.
//
// Example usage:
//
//	d := discovery.New([]string{"~/Downloads"}, logger.Default())
//	files, err := d.Discover()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, f := range files {
//	    fmt.Printf("%s (%d bytes)\n", f.Path, f.Size)
//	}
package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Logger defines the logging interface used by the discovery package.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// File represents a discovered file.
type File struct {
	// Path is the absolute path to the file.
	Path string

	// Dir is the scanned directory containing the file.
	Dir string

	// Name is the base name.
	Name string

	// Size is the file size in bytes.
	Size int64

	// ModTime is the last modification time.
	ModTime int64 // Unix timestamp
}

// Discoverer lists files in directories.
type Discoverer interface {
	// Discover scans every configured directory.
	//
	// Returns:
	//   - Files in directory order, each directory sorted by name
	//   - Error if an existing directory cannot be read
	//
	// Missing directories are skipped with a warning.
	Discover() ([]File, error)

	// DiscoverDir scans a single directory.
	//
	// Parameters:
	//   - dir: Absolute or ~-relative directory path
	//
	// Returns:
	//   - Files sorted by name
	//   - ErrDirNotFound if the directory does not exist
	DiscoverDir(dir string) ([]File, error)
}

// discoverer implements the Discoverer interface.
type discoverer struct {
	dirs   []string
	logger Logger
}

// New creates a new Discoverer instance.
//
// Parameters:
//   - dirs: Directories to scan (e.g., ~/Downloads)
//   - logger: Logger instance for diagnostic messages
//
// Returns a configured Discoverer.
func New(dirs []string, logger Logger) Discoverer {
	return &discoverer{
		dirs:   dirs,
		logger: logger,
	}
}

// Discover implements Discoverer.Discover.
func (d *discoverer) Discover() ([]File, error) {
	var all []File

	for _, dir := range d.dirs {
		files, err := d.DiscoverDir(dir)
		if err != nil {
			if errors.Is(err, ErrDirNotFound) {
				d.logger.Warn("directory not found, skipping", "path", dir)
				continue
			}
			return nil, err
		}

		all = append(all, files...)
	}

	d.logger.Debug("discovery complete", "total_files", len(all))
	return all, nil
}

// DiscoverDir implements Discoverer.DiscoverDir.
func (d *discoverer) DiscoverDir(dir string) ([]File, error) {
	expanded := expandHome(dir)

	info, err := os.Stat(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDirNotFound, expanded)
		}
		return nil, fmt.Errorf("failed to stat directory %s: %w", expanded, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidPath, expanded)
	}

	return d.scanDirectory(expanded)
}

// scanDirectory lists the regular files directly inside dir.
func (d *discoverer) scanDirectory(dir string) ([]File, error) {
	files := make([]File, 0, 10) // Pre-allocate with reasonable capacity

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			// Gone between listing and stat.
			d.logger.Debug("failed to get file info",
				"path", path,
				"error", err)
			continue
		}

		files = append(files, File{
			Path:    path,
			Dir:     dir,
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime().Unix(),
		})
	}

	d.logger.Debug("scanned directory",
		"path", dir,
		"files_found", len(files))

	return files, nil
}

// expandHome expands ~ in file paths to the user's home directory.
func expandHome(path string) string {
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
