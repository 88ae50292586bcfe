package filesystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"intelstack/internal/application"
	"intelstack/internal/ports"
)

// Installer implements ports.Installer. Content is staged in a temporary file
// next to the destination and renamed into place only after validation.
type Installer struct {
	fetcher ports.Fetcher
	checker ports.SyntaxChecker
	logger  *slog.Logger
}

// Ensure Installer implements ports.Installer
var _ ports.Installer = (*Installer)(nil)

// NewInstaller creates an installer. checker may be nil.
func NewInstaller(fetcher ports.Fetcher, checker ports.SyntaxChecker, logger *slog.Logger) *Installer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Installer{fetcher: fetcher, checker: checker, logger: logger}
}

// Install downloads sourceURL and atomically replaces destinationPath with it
func (i *Installer) Install(ctx context.Context, sourceURL, destinationPath string, validate ports.ValidateFunc, opts ports.InstallOptions) (*ports.InstallResult, error) {
	if opts.RequireExisting {
		exists, err := fileExists(destinationPath)
		if err != nil {
			return nil, err
		}
		if !exists {
			i.logger.Debug("destination removed locally, skipping install", "path", destinationPath)
			return &ports.InstallResult{Skipped: true}, nil
		}
	}

	tmp, err := i.createTemp(destinationPath)
	if err != nil {
		return nil, err
	}
	var succeed bool
	defer func() {
		if !succeed {
			i.removeTemp(tmp)
		}
	}()

	if _, err := i.fetcher.Download(ctx, sourceURL, tmp); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, &application.FileSystemError{Op: "write", Path: tmp.Name(), Err: err}
	}

	content, err := os.ReadFile(tmp.Name())
	if err != nil {
		return nil, &application.FileSystemError{Op: "read", Path: tmp.Name(), Err: err}
	}
	if err := i.validate(destinationPath, content, validate); err != nil {
		return nil, err
	}

	if opts.RequireExisting {
		// The user may have removed the file while it was downloading
		exists, err := fileExists(destinationPath)
		if err != nil {
			return nil, err
		}
		if !exists {
			return &ports.InstallResult{Skipped: true}, nil
		}
	}

	if err := i.replace(tmp.Name(), destinationPath); err != nil {
		return nil, err
	}
	succeed = true
	return &ports.InstallResult{Content: content}, nil
}

// WriteFile validates content and atomically writes it to destinationPath
func (i *Installer) WriteFile(destinationPath string, content []byte, validate ports.ValidateFunc) error {
	if err := i.validate(destinationPath, content, validate); err != nil {
		return err
	}

	tmp, err := i.createTemp(destinationPath)
	if err != nil {
		return err
	}
	var succeed bool
	defer func() {
		if !succeed {
			i.removeTemp(tmp)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return &application.FileSystemError{Op: "write", Path: tmp.Name(), Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &application.FileSystemError{Op: "write", Path: tmp.Name(), Err: err}
	}
	if err := i.replace(tmp.Name(), destinationPath); err != nil {
		return err
	}
	succeed = true
	return nil
}

func (i *Installer) validate(destinationPath string, content []byte, validate ports.ValidateFunc) error {
	if validate != nil {
		if err := validate(content); err != nil {
			return err
		}
	}
	if i.checker != nil {
		if err := i.checker.Check(filepath.Base(destinationPath), content); err != nil {
			return err
		}
	}
	return nil
}

// createTemp stages a file in the destination directory so the final rename
// stays on one filesystem
func (i *Installer) createTemp(destinationPath string) (*os.File, error) {
	dir := filepath.Dir(destinationPath)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(destinationPath)+".*.download")
	if err != nil {
		return nil, &application.FileSystemError{Op: "create", Path: dir, Err: err}
	}
	return tmp, nil
}

func (i *Installer) removeTemp(tmp *os.File) {
	tmp.Close()
	if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		i.logger.Warn("failed to remove temp file", "path", tmp.Name(), "error", err)
	}
}

// replace renames src over dst. Readers see either the old or the new file.
func (i *Installer) replace(src, dst string) error {
	if err := os.Chmod(src, 0644); err != nil {
		return &application.FileSystemError{Op: "chmod", Path: src, Err: err}
	}
	if err := os.Rename(src, dst); err != nil {
		return &application.FileSystemError{Op: "rename", Path: dst, Err: err}
	}
	return nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, &application.FileSystemError{Op: "stat", Path: path, Err: fmt.Errorf("check destination: %w", err)}
	}
}
