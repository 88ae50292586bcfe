package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"intelstack/internal/application"
	"intelstack/internal/domain"
	"intelstack/internal/ports"
)

// Injection is the bundle handed to the page: the main script followed by
// the enabled plugins, each wrapped with GM_info
type Injection struct {
	Scripts []string `json:"scripts"`
}

// BuildInjectionCommand assembles the injection bundle
type BuildInjectionCommand struct {
	catalog ports.Catalog
	storage ports.ScriptStorage
	folder  ports.ExternalFolder
	logger  *slog.Logger

	ScriptsEnabled bool
}

// NewBuildInjectionCommand creates a new BuildInjectionCommand
func NewBuildInjectionCommand(catalog ports.Catalog, storage ports.ScriptStorage, folder ports.ExternalFolder, logger *slog.Logger, scriptsEnabled bool) *BuildInjectionCommand {
	if logger == nil {
		logger = slog.Default()
	}
	return &BuildInjectionCommand{
		catalog:        catalog,
		storage:        storage,
		folder:         folder,
		logger:         logger,
		ScriptsEnabled: scriptsEnabled,
	}
}

// Execute builds the bundle. A disabled bundle or a missing main script
// yields no scripts. Enabled plugins whose file is gone are skipped.
func (c *BuildInjectionCommand) Execute(ctx context.Context) (*Injection, error) {
	result := &Injection{Scripts: []string{}}
	if !c.ScriptsEnabled {
		return result, nil
	}

	content, err := c.storage.ReadMainScript()
	if errors.Is(err, fs.ErrNotExist) {
		return result, nil
	}
	if err != nil {
		return nil, &application.FileSystemError{Op: "read", Path: c.storage.MainScriptPath(), Err: err}
	}
	meta, err := domain.ParseMainScript(string(content))
	if err != nil {
		return nil, fmt.Errorf("installed main script: %w", err)
	}
	result.Scripts = append(result.Scripts, domain.WrapMainScript(string(content), meta))

	plugins, err := c.catalog.List(ctx, domain.Filter{Enabled: domain.BoolPtr(true)})
	if err != nil {
		return nil, fmt.Errorf("failed to list plugins: %w", err)
	}

	var external []*domain.Plugin
	for _, p := range plugins {
		if !p.Internal {
			external = append(external, p)
			continue
		}
		if code, ok := c.read(p, c.storage.ReadPlugin); ok {
			result.Scripts = append(result.Scripts, domain.WrapPlugin(code, p))
		}
	}

	if len(external) == 0 {
		return result, nil
	}
	_, release, err := c.folder.Acquire(ctx)
	if err != nil {
		c.logger.Warn("skipping external plugins", "error", err)
		return result, nil
	}
	defer release()
	for _, p := range external {
		if code, ok := c.read(p, c.folder.ReadPlugin); ok {
			result.Scripts = append(result.Scripts, domain.WrapPlugin(code, p))
		}
	}
	return result, nil
}

func (c *BuildInjectionCommand) read(p *domain.Plugin, readFn func(string) ([]byte, error)) (string, bool) {
	content, err := readFn(p.Filename)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("cannot read plugin", "plugin", p.Filename, "error", err)
		}
		return "", false
	}
	return string(content), true
}
