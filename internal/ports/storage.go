package ports

import (
	"context"

	"intelstack/internal/domain"
)

// ScriptStorage resolves on-disk locations of downloaded scripts
type ScriptStorage interface {
	EnsureDirs() error
	MainScriptPath() string
	PluginPath(filename string) string
	ReadMainScript() ([]byte, error)
	ReadPlugin(filename string) ([]byte, error)
}

// ExternalFolder is the user-chosen folder of external plugins. Access is
// scoped: every Acquire must be paired with a call to the returned release.
type ExternalFolder interface {
	// Configured reports whether a folder location is set
	Configured() bool

	// Acquire grants access to the folder and returns its path.
	// Fails with *application.ResourceAccessError when access is not possible.
	Acquire(ctx context.Context) (path string, release func(), err error)

	// Scan lists plugin files in lexical filename order.
	// Callers must hold access.
	Scan(ctx context.Context) ([]ScannedFile, error)

	// PluginPath returns the path of filename inside the folder
	PluginPath(filename string) string

	// ReadPlugin returns the content of filename. Callers must hold access.
	ReadPlugin(filename string) ([]byte, error)

	// Exists reports whether filename is present. Callers must hold access.
	Exists(filename string) bool
}

// ScannedFile is a script found in the external folder
type ScannedFile struct {
	Filename string // Base name without .user.js
	Path     string
	Content  []byte
}

// FolderSettings persists the external folder location
type FolderSettings interface {
	ExternalFolderPath() string
	ClearExternalFolder() error
}

// InstallOptions tunes one atomic install
type InstallOptions struct {
	// RequireExisting skips the install when the destination is missing
	RequireExisting bool
}

// ValidateFunc checks fetched content before it replaces the destination
type ValidateFunc func(content []byte) error

// InstallResult reports the outcome of an install
type InstallResult struct {
	Skipped bool // Destination was missing and RequireExisting was set
	Content []byte
}

// Installer fetches, validates and atomically replaces script files
type Installer interface {
	Install(ctx context.Context, sourceURL, destinationPath string, validate ValidateFunc, opts InstallOptions) (*InstallResult, error)
	WriteFile(destinationPath string, content []byte, validate ValidateFunc) error
}

// SyntaxChecker rejects script content that does not parse
type SyntaxChecker interface {
	Check(name string, content []byte) error
}

// CommunityIndex lists plugins published in the community repository
type CommunityIndex interface {
	Previews(ctx context.Context) ([]*domain.CommunityPlugin, error)
	ScriptURL(author, filename string) string
}
