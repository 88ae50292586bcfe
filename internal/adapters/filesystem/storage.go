package filesystem

import (
	"os"
	"path/filepath"
	"strings"

	"intelstack/internal/application"
	"intelstack/internal/domain"
	"intelstack/internal/ports"
)

// Storage implements ports.ScriptStorage for downloaded scripts
type Storage struct {
	root string
}

// Ensure Storage implements ScriptStorage
var _ ports.ScriptStorage = (*Storage)(nil)

// NewStorage creates a storage rooted at root
func NewStorage(root string) *Storage {
	if strings.HasPrefix(root, "~") {
		home, _ := os.UserHomeDir()
		root = filepath.Join(home, root[1:])
	}
	return &Storage{root: root}
}

// EnsureDirs creates the script directories if missing
func (s *Storage) EnsureDirs() error {
	dir := s.pluginsDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &application.FileSystemError{Op: "create", Path: dir, Err: err}
	}
	return nil
}

// MainScriptPath returns the path of the main script
func (s *Storage) MainScriptPath() string {
	return filepath.Join(s.root, domain.MainScriptFilename+domain.UserScriptSuffix)
}

// PluginPath returns the path of an internal plugin
func (s *Storage) PluginPath(filename string) string {
	return filepath.Join(s.pluginsDir(), filename+domain.UserScriptSuffix)
}

func (s *Storage) pluginsDir() string {
	return filepath.Join(s.root, "plugins")
}

// ReadMainScript returns the installed main script
func (s *Storage) ReadMainScript() ([]byte, error) {
	return os.ReadFile(s.MainScriptPath())
}

// ReadPlugin returns an installed internal plugin
func (s *Storage) ReadPlugin(filename string) ([]byte, error) {
	return os.ReadFile(s.PluginPath(filename))
}
