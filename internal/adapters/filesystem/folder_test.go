package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"intelstack/internal/application"
)

type staticSettings struct {
	path    string
	cleared bool
}

func (s *staticSettings) ExternalFolderPath() string { return s.path }

func (s *staticSettings) ClearExternalFolder() error {
	s.path = ""
	s.cleared = true
	return nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestFolder_AcquireRelease(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFolder(&staticSettings{path: dir}, "", nil)
	if err != nil {
		t.Fatal(err)
	}

	path, release, err := f.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if path != dir {
		t.Errorf("expected %s, got %s", dir, path)
	}
	if f.Active() != 1 {
		t.Errorf("expected 1 active scope, got %d", f.Active())
	}
	release()
	release()
	if f.Active() != 0 {
		t.Errorf("expected released scope, got %d", f.Active())
	}
}

func TestFolder_AcquireFailures(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	writeFile(t, file, "x")

	tests := []struct {
		name        string
		path        string
		wantMissing bool
	}{
		{"not configured", "", false},
		{"missing", filepath.Join(t.TempDir(), "gone"), true},
		{"not a directory", file, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := NewFolder(&staticSettings{path: tt.path}, "", nil)
			_, release, err := f.Acquire(context.Background())
			if release != nil {
				t.Error("release must be nil on failure")
			}

			var accessErr *application.ResourceAccessError
			if !errors.As(err, &accessErr) {
				t.Fatalf("expected ResourceAccessError, got %v", err)
			}
			if got := errors.Is(err, os.ErrNotExist); got != tt.wantMissing {
				t.Errorf("errors.Is(err, os.ErrNotExist) = %v, want %v", got, tt.wantMissing)
			}
			if f.Active() != 0 {
				t.Errorf("failed acquire must not hold a scope")
			}
		})
	}
}

func TestFolder_ScanOrderAndFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.user.js"), "b")
	writeFile(t, filepath.Join(dir, "a.user.js"), "a")
	writeFile(t, filepath.Join(dir, "readme.md"), "skip")
	writeFile(t, filepath.Join(dir, ".a.user.js.123.download"), "skip")
	if err := os.Mkdir(filepath.Join(dir, "dir.user.js"), 0755); err != nil {
		t.Fatal(err)
	}

	f, _ := NewFolder(&staticSettings{path: dir}, "", nil)
	files, err := f.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if files[0].Filename != "a" || files[1].Filename != "b" {
		t.Errorf("expected lexical order a, b; got %s, %s", files[0].Filename, files[1].Filename)
	}
	if string(files[0].Content) != "a" {
		t.Errorf("unexpected content %q", files[0].Content)
	}
	if files[0].Path != filepath.Join(dir, "a.user.js") {
		t.Errorf("unexpected path %s", files[0].Path)
	}
}

func TestFolder_ScanPattern(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "iitc-foo.user.js"), "x")
	writeFile(t, filepath.Join(dir, "other.user.js"), "x")

	f, err := NewFolder(&staticSettings{path: dir}, "iitc-*.user.js", nil)
	if err != nil {
		t.Fatal(err)
	}
	files, err := f.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Filename != "iitc-foo" {
		t.Errorf("pattern not applied: %+v", files)
	}
	if got := f.PluginPath("x"); got != filepath.Join(dir, "x.user.js") {
		t.Errorf("unexpected plugin path %s", got)
	}

	if _, err := NewFolder(&staticSettings{}, "[", nil); err == nil {
		t.Error("expected invalid pattern error")
	}
}
