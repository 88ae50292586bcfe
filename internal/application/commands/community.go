package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Masterminds/semver/v3"

	"intelstack/internal/application"
	"intelstack/internal/domain"
	"intelstack/internal/ports"
)

// ListCommunityResult contains the community plugins and their status
type ListCommunityResult struct {
	Plugins []*domain.CommunityPlugin
	Message string
}

// ListCommunityCommand lists community plugins, marking the ones already in
// the catalog
type ListCommunityCommand struct {
	index   ports.CommunityIndex
	catalog ports.Catalog

	Query     string
	HideAdded bool
}

// NewListCommunityCommand creates a new ListCommunityCommand
func NewListCommunityCommand(index ports.CommunityIndex, catalog ports.Catalog) *ListCommunityCommand {
	return &ListCommunityCommand{index: index, catalog: catalog}
}

// Execute runs the list community command
func (c *ListCommunityCommand) Execute(ctx context.Context) (*ListCommunityResult, error) {
	previews, err := c.index.Previews(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load community index: %w", err)
	}

	installed, err := c.catalog.List(ctx, domain.Filter{Internal: domain.BoolPtr(false)})
	if err != nil {
		return nil, fmt.Errorf("failed to list plugins: %w", err)
	}
	versions := make(map[string]string, len(installed))
	for _, p := range installed {
		versions[p.Identifier] = p.Version
	}

	q := strings.ToLower(c.Query)
	var plugins []*domain.CommunityPlugin
	for _, cp := range previews {
		if q != "" &&
			!strings.Contains(strings.ToLower(cp.Metadata.Name), q) &&
			!strings.Contains(strings.ToLower(cp.Author), q) {
			continue
		}
		current, ok := versions[cp.Metadata.ID]
		switch {
		case !ok:
			cp.Status = domain.CommunityAvailable
		case IsNewerVersion(cp.Metadata.Version, current):
			cp.Status = domain.CommunityOutdated
		default:
			cp.Status = domain.CommunityAdded
		}
		if c.HideAdded && cp.Status == domain.CommunityAdded {
			continue
		}
		plugins = append(plugins, cp)
	}

	return &ListCommunityResult{
		Plugins: plugins,
		Message: fmt.Sprintf("Found %d community plugins", len(plugins)),
	}, nil
}

// IsNewerVersion reports whether candidate is newer than current. Versions
// that are not semantic versions compare by inequality.
func IsNewerVersion(candidate, current string) bool {
	if candidate == "" {
		return false
	}
	cv, err := semver.NewVersion(candidate)
	if err != nil {
		return candidate != current
	}
	cur, err := semver.NewVersion(current)
	if err != nil {
		return candidate != current
	}
	return cv.GreaterThan(cur)
}

// AddCommunityPluginCommand installs a community plugin into the external
// folder
type AddCommunityPluginCommand struct {
	index     ports.CommunityIndex
	catalog   ports.Catalog
	folder    ports.ExternalFolder
	installer ports.Installer
	logger    *slog.Logger

	Author   string
	Filename string

	// Claims is shared with the Updater, see AddPluginCommand.Claims
	Claims *Claims
}

// NewAddCommunityPluginCommand creates a new AddCommunityPluginCommand
func NewAddCommunityPluginCommand(index ports.CommunityIndex, catalog ports.Catalog, folder ports.ExternalFolder, installer ports.Installer, logger *slog.Logger, author, filename string) *AddCommunityPluginCommand {
	if logger == nil {
		logger = slog.Default()
	}
	return &AddCommunityPluginCommand{
		index:     index,
		catalog:   catalog,
		folder:    folder,
		installer: installer,
		logger:    logger,
		Author:    author,
		Filename:  filename,
	}
}

// Validate checks the plugin coordinates
func (c *AddCommunityPluginCommand) Validate() error {
	if err := application.ValidateRequired("author", c.Author); err != nil {
		return err
	}
	if err := application.ValidateRequired("filename", c.Filename); err != nil {
		return err
	}
	if strings.ContainsAny(c.Author+c.Filename, `/\`) {
		return &application.ValidationError{Field: "filename", Message: "author and file name must not contain path separators"}
	}
	return nil
}

// Execute runs the add community plugin command. An existing file is
// replaced, which is how outdated community plugins are upgraded.
func (c *AddCommunityPluginCommand) Execute(ctx context.Context) (*AddPluginResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	_, release, err := c.folder.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	source := c.index.ScriptURL(c.Author, c.Filename)
	dest := c.folder.PluginPath(c.Filename)
	var (
		meta    domain.PluginMetadata
		claimed string
	)
	defer func() { c.Claims.Release(claimed) }()
	if _, err := c.installer.Install(ctx, source, dest, claimingValidator(c.Claims, &meta, &claimed), ports.InstallOptions{}); err != nil {
		return nil, fmt.Errorf("failed to install %s/%s: %w", c.Author, c.Filename, err)
	}
	if meta.DownloadURL == "" {
		meta.DownloadURL = source
	}

	p, err := upsertExternal(ctx, c.catalog, c.logger, c.Filename, meta)
	if err != nil {
		return nil, err
	}
	return &AddPluginResult{
		Plugin:  p,
		Path:    dest,
		Message: fmt.Sprintf("Installed %s %s from %s", p.DisplayName(), p.Version, c.Author),
	}, nil
}
