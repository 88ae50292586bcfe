package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"intelstack/internal/application"
	"intelstack/internal/domain"
	"intelstack/internal/ports"
)

// ListPluginsCommand lists catalog records matching a filter, sorted by name
type ListPluginsCommand struct {
	catalog ports.Catalog
	Filter  domain.Filter
}

// NewListPluginsCommand creates a new ListPluginsCommand
func NewListPluginsCommand(catalog ports.Catalog, filter domain.Filter) *ListPluginsCommand {
	return &ListPluginsCommand{catalog: catalog, Filter: filter}
}

// Execute runs the list plugins command
func (c *ListPluginsCommand) Execute(ctx context.Context) ([]*domain.Plugin, error) {
	return c.catalog.List(ctx, c.Filter)
}

// ShowPluginCommand finds one plugin by handle or by declared identifier
type ShowPluginCommand struct {
	catalog ports.Catalog
	Ref     string
}

// NewShowPluginCommand creates a new ShowPluginCommand
func NewShowPluginCommand(catalog ports.Catalog, ref string) *ShowPluginCommand {
	return &ShowPluginCommand{catalog: catalog, Ref: ref}
}

// Validate checks the reference is set
func (c *ShowPluginCommand) Validate() error {
	return application.ValidateRequired("plugin", c.Ref)
}

// Execute runs the show plugin command. A handle match takes precedence over
// an identifier match.
func (c *ShowPluginCommand) Execute(ctx context.Context) (*domain.Plugin, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return findPlugin(ctx, c.catalog, c.Ref)
}

func findPlugin(ctx context.Context, catalog ports.Catalog, ref string) (*domain.Plugin, error) {
	p, err := catalog.GetByHandle(ctx, ref)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}

	all, err := catalog.List(ctx, domain.Filter{})
	if err != nil {
		return nil, err
	}
	for _, candidate := range all {
		if candidate.Identifier == ref {
			return candidate, nil
		}
	}
	return nil, fmt.Errorf("plugin %s: %w", ref, application.ErrNotFound)
}

// SetEnabledResult contains the result of toggling a plugin
type SetEnabledResult struct {
	Plugin  *domain.Plugin
	Changed bool
	Message string
}

// SetEnabledCommand enables or disables a plugin for injection
type SetEnabledCommand struct {
	catalog ports.Catalog
	Ref     string
	Enabled bool
}

// NewSetEnabledCommand creates a new SetEnabledCommand
func NewSetEnabledCommand(catalog ports.Catalog, ref string, enabled bool) *SetEnabledCommand {
	return &SetEnabledCommand{catalog: catalog, Ref: ref, Enabled: enabled}
}

// Validate checks the reference is set
func (c *SetEnabledCommand) Validate() error {
	return application.ValidateRequired("plugin", c.Ref)
}

// Execute runs the set enabled command
func (c *SetEnabledCommand) Execute(ctx context.Context) (*SetEnabledResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	found, err := findPlugin(ctx, c.catalog, c.Ref)
	if err != nil {
		return nil, err
	}

	state := "disabled"
	if c.Enabled {
		state = "enabled"
	}
	if found.Enabled == c.Enabled {
		return &SetEnabledResult{
			Plugin:  found,
			Message: fmt.Sprintf("%s is already %s", found.DisplayName(), state),
		}, nil
	}

	tx, err := c.catalog.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := tx.FindByHandle(found.Handle)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("plugin %s: %w", c.Ref, application.ErrNotFound)
	}
	p.Enabled = c.Enabled
	if err := tx.Update(p); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit catalog: %w", err)
	}

	return &SetEnabledResult{
		Plugin:  p,
		Changed: true,
		Message: fmt.Sprintf("%s %s", found.DisplayName(), state),
	}, nil
}

// MainScriptVersionCommand reads the metadata of the installed main script
type MainScriptVersionCommand struct {
	storage ports.ScriptStorage
}

// NewMainScriptVersionCommand creates a new MainScriptVersionCommand
func NewMainScriptVersionCommand(storage ports.ScriptStorage) *MainScriptVersionCommand {
	return &MainScriptVersionCommand{storage: storage}
}

// Execute returns the installed main script metadata, or ErrNotFound when it
// has not been downloaded yet
func (c *MainScriptVersionCommand) Execute(ctx context.Context) (*domain.MainScriptMetadata, error) {
	content, err := c.storage.ReadMainScript()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("main script: %w", application.ErrNotFound)
	}
	if err != nil {
		return nil, &application.FileSystemError{Op: "read", Path: c.storage.MainScriptPath(), Err: err}
	}
	meta, err := domain.ParseMainScript(string(content))
	if err != nil {
		return nil, err
	}
	return &meta, nil
}
