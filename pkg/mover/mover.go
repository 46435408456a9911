package mover

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/0xmhha/kaizen/pkg/logger"
)

// maxDisambiguator bounds the stem_N search.
const maxDisambiguator = 100000

// mover implements the Mover interface.
type mover struct {
	config Config
	logger logger.Logger
}

// New creates a new mover.
//
// Parameters:
//   - cfg: Mover configuration
//   - log: Logger instance
//
// Returns:
//   - Configured Mover
//   - Error if configuration is invalid
func New(cfg Config, log logger.Logger) (Mover, error) {
	if strings.TrimSpace(cfg.DestinationRoot) == "" {
		return nil, ErrNoDestination
	}

	// Set defaults.
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if cfg.DirMode == 0 {
		cfg.DirMode = 0755
	}
	if cfg.Rename == nil {
		cfg.Rename = os.Rename
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleep
	}

	return &mover{
		config: cfg,
		logger: log,
	}, nil
}

// Root implements Mover.Root.
func (m *mover) Root() string {
	return m.config.DestinationRoot
}

// Move implements Mover.Move.
func (m *mover) Move(ctx context.Context, sourcePath, category string) Outcome {
	out := Outcome{
		SourceName: filepath.Base(sourcePath),
		SourcePath: sourcePath,
		Category:   category,
	}

	if category == "" || category == "." || category == ".." || strings.ContainsAny(category, `/\`) {
		return m.fail(out, fmt.Errorf("%w: %q", ErrInvalidCategory, category))
	}

	dir := filepath.Join(m.config.DestinationRoot, category)
	if err := os.MkdirAll(dir, os.FileMode(m.config.DirMode)); err != nil {
		return m.fail(out, fmt.Errorf("failed to create category directory: %w", err))
	}

	var lastErr error

	for attempt := 1; attempt <= m.config.MaxAttempts; attempt++ {
		if attempt > 1 {
			m.logger.Debug("retrying move",
				"path", sourcePath,
				"attempt", attempt,
				"delay", m.config.RetryDelay)

			if err := m.config.Sleep(ctx, m.config.RetryDelay); err != nil {
				return m.fail(out, fmt.Errorf("move cancelled after %v: %w", lastErr, err))
			}
		}
		out.Attempts = attempt

		dest, err := m.moveOnce(sourcePath, dir, out.SourceName)
		if err == nil {
			out.DestinationPath = dest
			out.Succeeded = true
			out.FinishedAt = time.Now()

			m.logger.Debug("file moved",
				"path", sourcePath,
				"destination", dest,
				"attempts", attempt)
			return out
		}

		lastErr = err

		// Check if error is retryable.
		if !isRetryable(err) {
			m.logger.Debug("non-retryable error",
				"path", sourcePath,
				"error", err)
			return m.fail(out, err)
		}

		m.logger.Warn("move attempt failed",
			"path", sourcePath,
			"attempt", attempt,
			"error", err)
	}

	return m.fail(out, fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr))
}

// moveOnce reserves a free name in dir and renames source onto it.
// The reservation is released when the rename fails.
func (m *mover) moveOnce(source, dir, name string) (string, error) {
	if _, err := os.Lstat(source); err != nil {
		return "", classify(err)
	}

	dest, err := reserve(dir, name)
	if err != nil {
		return "", err
	}

	if err := m.relocate(source, dest); err != nil {
		_ = os.Remove(dest)
		return "", classify(err)
	}

	return dest, nil
}

// relocate renames source over the reserved placeholder, copying when
// the rename crosses filesystems.
func (m *mover) relocate(source, dest string) error {
	err := m.config.Rename(source, dest)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	m.logger.Debug("cross-device move, copying", "path", source, "destination", dest)
	return copyAndRemove(source, dest)
}

// reserve claims the first unused name among name, stem_1.ext, stem_2.ext...
// by creating it exclusively.
func reserve(dir, name string) (string, error) {
	for n := 0; n < maxDisambiguator; n++ {
		path := filepath.Join(dir, Disambiguate(name, n))

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600) // nolint:gosec
		if err == nil {
			if closeErr := f.Close(); closeErr != nil {
				_ = os.Remove(path)
				return "", fmt.Errorf("failed to reserve destination: %w", closeErr)
			}
			return path, nil
		}

		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return "", fmt.Errorf("failed to reserve destination: %w", err)
	}

	return "", fmt.Errorf("%w in %s for %s", ErrNoFreeName, dir, name)
}

// Disambiguate returns name for n == 0 and stem_n.ext otherwise.
// Hidden files without an extension get the counter appended.
func Disambiguate(name string, n int) string {
	if n == 0 {
		return name
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		stem, ext = name, ""
	}

	return stem + "_" + strconv.Itoa(n) + ext
}

// copyAndRemove copies source into the existing dest, keeps its mode
// bits, then removes source.
func copyAndRemove(source, dest string) error {
	in, err := os.Open(source) // nolint:gosec
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()) // nolint:gosec
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if err := os.Chmod(dest, info.Mode().Perm()); err != nil {
		return err
	}

	return os.Remove(source)
}

// classify maps OS errors onto the package sentinels, keeping the cause.
func classify(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %w", ErrFileNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	case errors.Is(err, syscall.EBUSY),
		errors.Is(err, syscall.ETXTBSY),
		errors.Is(err, syscall.EAGAIN),
		isSharingViolation(err):
		return fmt.Errorf("%w: %w", ErrFileLocked, err)
	default:
		return err
	}
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrFileLocked):
		return true
	case errors.Is(err, ErrPermissionDenied):
		return true
	default:
		return false
	}
}

// IsTransient reports whether err would be retried by Move.
func IsTransient(err error) bool {
	return isRetryable(classify(err))
}

func (m *mover) fail(out Outcome, err error) Outcome {
	out.Succeeded = false
	out.DestinationPath = ""
	out.Err = err
	out.Error = err.Error()
	out.FinishedAt = time.Now()

	m.logger.Error("move abandoned",
		"path", out.SourcePath,
		"category", out.Category,
		"attempts", out.Attempts,
		"error", err)

	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
