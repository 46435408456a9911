package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// mockLogger implements Logger interface for testing.
type mockLogger struct {
	debugCalls []string
	infoCalls  []string
	warnCalls  []string
	errorCalls []string
}

func (m *mockLogger) Debug(msg string, keysAndValues ...interface{}) {
	m.debugCalls = append(m.debugCalls, msg)
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.infoCalls = append(m.infoCalls, msg)
}

func (m *mockLogger) Warn(msg string, keysAndValues ...interface{}) {
	m.warnCalls = append(m.warnCalls, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.errorCalls = append(m.errorCalls, msg)
}

func TestNew(t *testing.T) {
	logger := &mockLogger{}
	dirs := []string{"/path1", "/path2"}

	d := New(dirs, logger)
	if d == nil {
		t.Error("New() returned nil")
	}
}

func TestDiscover(t *testing.T) {
	// Create test structure:
	// downloads/
	//   a.png
	//   b.pdf
	//   nested/          (ignored, non-recursive)
	//     deep.txt
	// inbox/
	//   c.zip
	downloads := t.TempDir()
	inbox := t.TempDir()

	createFile(t, filepath.Join(downloads, "b.pdf"), "pdf")
	createFile(t, filepath.Join(downloads, "a.png"), "png")
	if err := os.MkdirAll(filepath.Join(downloads, "nested"), 0700); err != nil {
		t.Fatal(err)
	}
	createFile(t, filepath.Join(downloads, "nested", "deep.txt"), "txt")
	createFile(t, filepath.Join(inbox, "c.zip"), "zip")

	logger := &mockLogger{}
	d := New([]string{downloads, filepath.Join(downloads, "missing"), inbox}, logger)

	files, err := d.Discover()
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	want := []string{"a.png", "b.pdf", "c.zip"}
	if len(files) != len(want) {
		t.Fatalf("Discover() returned %d files, want %d: %+v", len(files), len(want), files)
	}
	for i, name := range want {
		if files[i].Name != name {
			t.Errorf("files[%d].Name = %q, want %q", i, files[i].Name, name)
		}
	}

	if files[0].Dir != downloads || files[2].Dir != inbox {
		t.Errorf("unexpected directories: %q, %q", files[0].Dir, files[2].Dir)
	}
	if files[0].Size != 3 {
		t.Errorf("files[0].Size = %d, want 3", files[0].Size)
	}
	if files[0].Path != filepath.Join(downloads, "a.png") {
		t.Errorf("files[0].Path = %q", files[0].Path)
	}

	if len(logger.warnCalls) != 1 {
		t.Errorf("expected 1 warning for the missing directory, got %v", logger.warnCalls)
	}
}

func TestDiscoverDirNotFound(t *testing.T) {
	d := New(nil, &mockLogger{})

	_, err := d.DiscoverDir(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrDirNotFound) {
		t.Errorf("DiscoverDir() error = %v, want ErrDirNotFound", err)
	}
}

func TestDiscoverDirNotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain.txt")
	createFile(t, file, "x")

	d := New(nil, &mockLogger{})

	_, err := d.DiscoverDir(file)
	if !errors.Is(err, ErrInvalidPath) {
		t.Errorf("DiscoverDir() error = %v, want ErrInvalidPath", err)
	}
}

func TestDiscoverSkipsSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(t.TempDir(), "target.txt")
	createFile(t, target, "x")
	if err := os.Symlink(target, filepath.Join(dir, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	createFile(t, filepath.Join(dir, "real.txt"), "x")

	files, err := New(nil, &mockLogger{}).DiscoverDir(dir)
	if err != nil {
		t.Fatalf("DiscoverDir() error = %v", err)
	}
	if len(files) != 1 || files[0].Name != "real.txt" {
		t.Errorf("DiscoverDir() = %+v, want only real.txt", files)
	}
}

func TestDiscoverEmpty(t *testing.T) {
	files, err := New([]string{t.TempDir()}, &mockLogger{}).Discover()
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(files) != 0 {
		t.Errorf("Discover() = %v, want none", files)
	}
}

func TestExpandHome(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string // empty means check it's not the same as input
	}{
		{
			name: "tilde only",
			path: "~",
			want: "", // Should expand to home dir
		},
		{
			name: "tilde with path",
			path: "~/Downloads",
			want: "", // Should expand to home dir + path
		},
		{
			name: "absolute path",
			path: "/absolute/path",
			want: "/absolute/path", // Should not change
		},
		{
			name: "relative path",
			path: "relative/path",
			want: "relative/path", // Should not change
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := expandHome(tt.path)

			if tt.want != "" {
				// Exact match expected
				if got != tt.want {
					t.Errorf("expandHome(%q) = %q, want %q", tt.path, got, tt.want)
				}
			} else {
				// Should be different from input (expanded)
				if got == tt.path {
					t.Errorf("expandHome(%q) = %q, expected expansion", tt.path, got)
				}
			}
		})
	}
}

// Helper function to create test files.
func createFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// Benchmark discovery performance.
func BenchmarkDiscover(b *testing.B) {
	tmpDir := b.TempDir()

	for i := 0; i < 1000; i++ {
		name := filepath.Join(tmpDir, "download-"+strconv.Itoa(i)+".bin")
		if err := os.WriteFile(name, []byte("test"), 0600); err != nil {
			b.Fatal(err)
		}
	}

	logger := &mockLogger{}
	d := New([]string{tmpDir}, logger)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := d.Discover()
		if err != nil {
			b.Fatal(err)
		}
	}
}
