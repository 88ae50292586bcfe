package commands

import (
	"context"
	"fmt"
	"log/slog"

	"intelstack/internal/application"
	"intelstack/internal/domain"
	"intelstack/internal/ports"
)

// AddPluginResult contains the result of adding an external plugin
type AddPluginResult struct {
	Plugin  *domain.Plugin
	Path    string
	Message string
}

// AddPluginCommand installs a plugin into the external folder from a URL or
// from pasted code and records it in the catalog
type AddPluginCommand struct {
	catalog   ports.Catalog
	folder    ports.ExternalFolder
	installer ports.Installer
	logger    *slog.Logger

	URL      string
	Code     string
	Filename string // Optional base name, derived when empty
	Replace  bool   // Overwrite an existing file with the same name

	// Claims is shared with the Updater. The decoded identifier is claimed
	// before the file is written and released once the record is stored.
	Claims *Claims
}

// NewAddPluginCommand creates a new AddPluginCommand
func NewAddPluginCommand(catalog ports.Catalog, folder ports.ExternalFolder, installer ports.Installer, logger *slog.Logger) *AddPluginCommand {
	if logger == nil {
		logger = slog.Default()
	}
	return &AddPluginCommand{
		catalog:   catalog,
		folder:    folder,
		installer: installer,
		logger:    logger,
	}
}

// Validate checks that exactly one source is given
func (c *AddPluginCommand) Validate() error {
	switch {
	case c.URL == "" && c.Code == "":
		return &application.ValidationError{Field: "source", Message: "a URL or plugin code is required"}
	case c.URL != "" && c.Code != "":
		return &application.ValidationError{Field: "source", Message: "give either a URL or plugin code, not both"}
	}
	if c.URL != "" {
		if _, err := application.NormalizeScriptURL("url", c.URL); err != nil {
			return err
		}
	}
	if c.Filename != "" && domain.FilenameFromName(c.Filename) != c.Filename {
		return &application.ValidationError{Field: "filename", Message: fmt.Sprintf("invalid file name: %s", c.Filename)}
	}
	return nil
}

// Execute runs the add plugin command
func (c *AddPluginCommand) Execute(ctx context.Context) (*AddPluginResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	_, release, err := c.folder.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		meta     domain.PluginMetadata
		filename string
		source   string
		claimed  string
	)
	defer func() { c.Claims.Release(claimed) }()
	validate := claimingValidator(c.Claims, &meta, &claimed)

	if c.URL != "" {
		u, _ := application.NormalizeScriptURL("url", c.URL)
		source = u.String()
		filename = c.Filename
		if filename == "" {
			filename = domain.FilenameFromURL(u.Path)
		}
		if filename == "" {
			return nil, &application.ValidationError{Field: "url", Message: "URL does not name a file"}
		}
		if err := c.checkFree(filename); err != nil {
			return nil, err
		}
		if _, err := c.installer.Install(ctx, source, c.folder.PluginPath(filename), validate, ports.InstallOptions{}); err != nil {
			return nil, fmt.Errorf("failed to install plugin: %w", err)
		}
	} else {
		parsed, err := parsePlugin(c.Code)
		if err != nil {
			return nil, err
		}
		filename = c.Filename
		if filename == "" {
			filename = domain.FilenameFromName(parsed.Name)
		}
		if filename == "" {
			return nil, &application.ValidationError{Field: "filename", Message: "cannot derive a file name from the plugin name"}
		}
		if err := c.checkFree(filename); err != nil {
			return nil, err
		}
		if err := c.installer.WriteFile(c.folder.PluginPath(filename), []byte(c.Code), validate); err != nil {
			return nil, fmt.Errorf("failed to write plugin: %w", err)
		}
	}

	if meta.DownloadURL == "" {
		meta.DownloadURL = source
	}
	p, err := upsertExternal(ctx, c.catalog, c.logger, filename, meta)
	if err != nil {
		return nil, err
	}

	return &AddPluginResult{
		Plugin:  p,
		Path:    c.folder.PluginPath(filename),
		Message: fmt.Sprintf("Added %s as %s", p.DisplayName(), p.FilenameWithExtension()),
	}, nil
}

func (c *AddPluginCommand) checkFree(filename string) error {
	if !c.Replace && c.folder.Exists(filename) {
		return &application.ValidationError{
			Field:   "filename",
			Message: fmt.Sprintf("%s%s already exists", filename, domain.UserScriptSuffix),
		}
	}
	return nil
}

// parsePlugin decodes plugin code, rejecting scripts that are not plugins
func parsePlugin(code string) (domain.PluginMetadata, error) {
	var meta domain.PluginMetadata
	if err := pluginValidator(&meta)([]byte(code)); err != nil {
		return domain.PluginMetadata{}, &application.ValidationError{Field: "code", Message: err.Error()}
	}
	return meta, nil
}

// upsertExternal records meta in the external partition and commits
func upsertExternal(ctx context.Context, catalog ports.Catalog, logger *slog.Logger, filename string, meta domain.PluginMetadata) (*domain.Plugin, error) {
	tx, err := catalog.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	writer := NewCatalogWriter(tx)
	defer writer.Rollback()

	p, err := NewReconciler(writer, logger).UpsertOne(domain.PartitionExternal, meta.ID, filename, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to record plugin: %w", err)
	}
	if err := writer.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit catalog: %w", err)
	}
	return p, nil
}
