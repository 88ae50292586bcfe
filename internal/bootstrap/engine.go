// Package bootstrap wires the adapters and commands from the user config.
package bootstrap

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"intelstack/internal/adapters/community"
	"intelstack/internal/adapters/editor"
	"intelstack/internal/adapters/filesystem"
	"intelstack/internal/adapters/httpclient"
	"intelstack/internal/adapters/jscheck"
	"intelstack/internal/adapters/metrics"
	"intelstack/internal/adapters/sqlite"
	"intelstack/internal/application/commands"
	"intelstack/internal/config"
	"intelstack/internal/ports"
)

// Engine holds the wired adapters shared by the drivers
type Engine struct {
	Config    *config.Config
	Settings  *config.Store
	Logger    *slog.Logger
	Catalog   *sqlite.Catalog
	Storage   *filesystem.Storage
	Folder    *filesystem.Folder
	Fetcher   *httpclient.Client
	Installer *filesystem.Installer
	Community *community.Client
	Metrics   *metrics.Prom
	Editor    *editor.Opener
	Updater   *commands.Updater
}

// Options tunes engine construction
type Options struct {
	ConfigPath string // Defaults to config.DefaultPath()
	Logger     *slog.Logger
}

// NewLogger returns a text logger writing to w
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// New loads the config and opens the catalog. Callers must Close the engine.
func New(opts Options) (*Engine, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(os.Stderr, false)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	manifest, err := config.InternalPlugins()
	if err != nil {
		return nil, err
	}

	settings := config.NewStore(path, cfg)
	folder, err := filesystem.NewFolder(settings, cfg.ScanPattern, logger)
	if err != nil {
		return nil, err
	}

	var checker ports.SyntaxChecker
	if cfg.CheckSyntax {
		checker = jscheck.New()
	}

	catalog := sqlite.NewCatalog()
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := catalog.Open(cfg.CatalogPath()); err != nil {
		return nil, err
	}

	fetcher := httpclient.New(cfg.HTTPTimeout)
	storage := filesystem.NewStorage(cfg.ScriptsDir())
	installer := filesystem.NewInstaller(fetcher, checker, logger)
	prom := metrics.NewProm("intelstack")

	e := &Engine{
		Config:    cfg,
		Settings:  settings,
		Logger:    logger,
		Catalog:   catalog,
		Storage:   storage,
		Folder:    folder,
		Fetcher:   fetcher,
		Installer: installer,
		Metrics:   prom,
		Editor:    editor.NewOpener(cfg.Editor),
		Community: community.NewClient(fetcher, community.Options{
			IndexURL: cfg.Community.IndexURL,
			RawURL:   cfg.Community.RawURL,
			Repo:     cfg.Community.Repo,
			Branch:   cfg.Community.Branch,
		}, logger),
	}
	e.Updater = commands.NewUpdater(commands.UpdaterDeps{
		Catalog:   catalog,
		Storage:   storage,
		Folder:    folder,
		Installer: installer,
		Fetcher:   fetcher,
		Metrics:   prom,
		Logger:    logger,
	}, commands.UpdaterOptions{
		Remote:          cfg.Remote(),
		InternalPlugins: manifest,
		KeepGoing:       cfg.KeepGoing,
	})
	return e, nil
}

// Close releases the catalog
func (e *Engine) Close() error {
	return e.Catalog.Close()
}

// SyncExternal returns a command reconciling the external folder
func (e *Engine) SyncExternal() *commands.SyncExternalCommand {
	return commands.NewSyncExternalCommand(e.Catalog, e.Folder, e.Settings, e.Metrics, e.Logger)
}

// AddPlugin returns a command adding an external plugin
func (e *Engine) AddPlugin() *commands.AddPluginCommand {
	cmd := commands.NewAddPluginCommand(e.Catalog, e.Folder, e.Installer, e.Logger)
	cmd.Claims = e.Updater.Claims()
	return cmd
}

// ListCommunity returns a command listing community plugins
func (e *Engine) ListCommunity() *commands.ListCommunityCommand {
	return commands.NewListCommunityCommand(e.Community, e.Catalog)
}

// AddCommunityPlugin returns a command installing a community plugin
func (e *Engine) AddCommunityPlugin(author, filename string) *commands.AddCommunityPluginCommand {
	cmd := commands.NewAddCommunityPluginCommand(e.Community, e.Catalog, e.Folder, e.Installer, e.Logger, author, filename)
	cmd.Claims = e.Updater.Claims()
	return cmd
}

// BuildInjection returns a command assembling the injection bundle
func (e *Engine) BuildInjection() *commands.BuildInjectionCommand {
	return commands.NewBuildInjectionCommand(e.Catalog, e.Storage, e.Folder, e.Logger, e.Config.ScriptsEnabled)
}

// PluginPath returns the on-disk location of a catalog record
func (e *Engine) PluginPath(internal bool, filename string) string {
	if internal {
		return e.Storage.PluginPath(filename)
	}
	return e.Folder.PluginPath(filename)
}
