package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"intelstack/internal/domain"
	"intelstack/internal/ports"
)

// SyncExternalResult contains the result of an external folder sync
type SyncExternalResult struct {
	Stats   domain.SyncStats
	Cleared bool // The configured folder no longer exists and was forgotten
	Message string
}

// SyncExternalCommand mirrors the external folder into the catalog
type SyncExternalCommand struct {
	catalog  ports.Catalog
	folder   ports.ExternalFolder
	settings ports.FolderSettings
	metrics  ports.Metrics
	logger   *slog.Logger
}

// NewSyncExternalCommand creates a new SyncExternalCommand
func NewSyncExternalCommand(catalog ports.Catalog, folder ports.ExternalFolder, settings ports.FolderSettings, metrics ports.Metrics, logger *slog.Logger) *SyncExternalCommand {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncExternalCommand{
		catalog:  catalog,
		folder:   folder,
		settings: settings,
		metrics:  metrics,
		logger:   logger,
	}
}

// Execute runs the sync. When the folder cannot be accessed every external
// record is removed; a folder that no longer exists is also forgotten.
func (c *SyncExternalCommand) Execute(ctx context.Context) (*SyncExternalResult, error) {
	start := time.Now()
	result, err := c.execute(ctx)
	if err != nil {
		c.metrics.IncFolderSyncs("failure")
		return nil, err
	}
	result.Stats.Duration = time.Since(start)
	c.metrics.IncFolderSyncs("success")
	c.logger.Info("external folder synced",
		"added", result.Stats.PluginsAdded,
		"updated", result.Stats.PluginsUpdated,
		"deleted", result.Stats.PluginsDeleted,
		"scanned", result.Stats.FilesScanned,
		"skipped", result.Stats.FilesSkipped,
		"duplicates", result.Stats.Duplicates)
	return result, nil
}

func (c *SyncExternalCommand) execute(ctx context.Context) (*SyncExternalResult, error) {
	tx, err := c.catalog.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	writer := NewCatalogWriter(tx)
	defer writer.Rollback()

	_, release, err := c.folder.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return c.dropExternal(writer, err)
	}
	defer release()

	files, err := c.folder.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan external folder: %w", err)
	}

	reconciler := NewReconciler(writer, c.logger)
	discovered, stats := reconciler.Discover(files)
	changes, err := reconciler.ReconcileFolder(discovered)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile external folder: %w", err)
	}
	stats.PluginsAdded = changes.PluginsAdded
	stats.PluginsUpdated = changes.PluginsUpdated
	stats.PluginsDeleted = changes.PluginsDeleted

	if err := writer.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit catalog: %w", err)
	}

	return &SyncExternalResult{
		Stats: stats,
		Message: fmt.Sprintf("Synced %d plugins (%d added, %d updated, %d deleted)",
			len(discovered), stats.PluginsAdded, stats.PluginsUpdated, stats.PluginsDeleted),
	}, nil
}

func (c *SyncExternalCommand) dropExternal(writer *CatalogWriter, accessErr error) (*SyncExternalResult, error) {
	result := &SyncExternalResult{}
	if errors.Is(accessErr, fs.ErrNotExist) {
		c.logger.Warn("external folder is gone, forgetting it", "error", accessErr)
		if err := c.settings.ClearExternalFolder(); err != nil {
			return nil, fmt.Errorf("failed to clear external folder: %w", err)
		}
		result.Cleared = true
	} else {
		c.logger.Info("external folder unavailable", "error", accessErr)
	}

	var deleted int
	err := writer.Do(func(tx ports.CatalogTx) error {
		var err error
		deleted, err = tx.DeleteExternal()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete external plugins: %w", err)
	}
	if err := writer.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit catalog: %w", err)
	}

	result.Stats.PluginsDeleted = deleted
	result.Message = fmt.Sprintf("External folder unavailable, removed %d plugins", deleted)
	return result, nil
}
