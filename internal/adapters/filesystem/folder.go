package filesystem

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"

	"intelstack/internal/application"
	"intelstack/internal/domain"
	"intelstack/internal/ports"
)

// Folder implements ports.ExternalFolder. The location is read from settings
// on every Acquire so a changed or cleared location takes effect immediately.
type Folder struct {
	settings ports.FolderSettings
	pattern  string
	logger   *slog.Logger
	active   atomic.Int32
}

// Ensure Folder implements ExternalFolder
var _ ports.ExternalFolder = (*Folder)(nil)

// NewFolder creates an external folder guard. pattern filters scanned file
// names, e.g. "*.user.js".
func NewFolder(settings ports.FolderSettings, pattern string, logger *slog.Logger) (*Folder, error) {
	if pattern == "" {
		pattern = "*" + domain.UserScriptSuffix
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid scan pattern: %s", pattern)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Folder{settings: settings, pattern: pattern, logger: logger}, nil
}

// Configured reports whether a folder location is set
func (f *Folder) Configured() bool {
	return f.settings.ExternalFolderPath() != ""
}

// Acquire checks the folder is reachable and grants scoped access to it.
// A missing folder yields a ResourceAccessError wrapping os.ErrNotExist.
func (f *Folder) Acquire(ctx context.Context) (string, func(), error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	path := f.settings.ExternalFolderPath()
	if path == "" {
		return "", nil, &application.ResourceAccessError{Err: application.ErrNoExternalFolder}
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", nil, &application.ResourceAccessError{Path: path, Err: err}
	}
	if !info.IsDir() {
		return "", nil, &application.ResourceAccessError{Path: path, Err: fmt.Errorf("not a directory")}
	}

	dir, err := os.Open(path)
	if err != nil {
		return "", nil, &application.ResourceAccessError{Path: path, Err: err}
	}
	dir.Close()

	f.active.Add(1)
	var once sync.Once
	release := func() {
		once.Do(func() { f.active.Add(-1) })
	}
	return path, release, nil
}

// Active returns the number of unreleased access scopes
func (f *Folder) Active() int {
	return int(f.active.Load())
}

// PluginPath returns the path of filename inside the folder
func (f *Folder) PluginPath(filename string) string {
	return filepath.Join(f.settings.ExternalFolderPath(), filename+domain.UserScriptSuffix)
}

// Scan reads every regular *.user.js file matching the scan pattern, in
// lexical filename order. Unreadable files are logged and skipped.
func (f *Folder) Scan(ctx context.Context) ([]ports.ScannedFile, error) {
	path := f.settings.ExternalFolderPath()
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, &application.ResourceAccessError{Path: path, Err: err}
	}

	var files []ports.ScannedFile
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := entry.Name()
		if !entry.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		if !strings.HasSuffix(name, domain.UserScriptSuffix) {
			continue
		}
		if ok, _ := doublestar.Match(f.pattern, name); !ok {
			continue
		}

		full := filepath.Join(path, name)
		content, err := os.ReadFile(full)
		if err != nil {
			f.logger.Warn("skipping unreadable script", "path", full, "error", err)
			continue
		}
		files = append(files, ports.ScannedFile{
			Filename: strings.TrimSuffix(name, domain.UserScriptSuffix),
			Path:     full,
			Content:  content,
		})
	}
	return files, nil
}

// ReadPlugin returns the content of filename inside the folder
func (f *Folder) ReadPlugin(filename string) ([]byte, error) {
	return os.ReadFile(f.PluginPath(filename))
}

// Exists reports whether filename is present inside the folder
func (f *Folder) Exists(filename string) bool {
	_, err := os.Stat(f.PluginPath(filename))
	return err == nil
}
