package commands

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"intelstack/internal/domain"
	"intelstack/internal/ports"
)

// Discovered is a plugin file found in the external folder
type Discovered struct {
	Filename string
	Metadata domain.PluginMetadata
}

// Reconciler applies downloaded or discovered metadata to the catalog
type Reconciler struct {
	writer *CatalogWriter
	logger *slog.Logger
}

// NewReconciler creates a reconciler writing through writer
func NewReconciler(writer *CatalogWriter, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{writer: writer, logger: logger}
}

// UpsertOne creates or refreshes the record stored under key in partition.
// Internal keys are filenames, external keys are identifiers. An existing
// record keeps its handle and enabled state. filename replaces the stored
// filename when non-empty.
func (r *Reconciler) UpsertOne(partition domain.Partition, key, filename string, meta domain.PluginMetadata) (*domain.Plugin, error) {
	var result *domain.Plugin
	err := r.writer.Do(func(tx ports.CatalogTx) error {
		p, err := r.upsert(tx, partition, key, filename, meta)
		result = p
		return err
	})
	return result, err
}

func (r *Reconciler) upsert(tx ports.CatalogTx, partition domain.Partition, key, filename string, meta domain.PluginMetadata) (*domain.Plugin, error) {
	existing, err := find(tx, partition, key)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		if filename == "" {
			filename = key
		}
		p := domain.NewPlugin(meta, partition == domain.PartitionInternal, filename)
		if err := tx.Insert(p); err != nil {
			return nil, err
		}
		return p, nil
	}

	existing.Apply(meta)
	if filename != "" {
		existing.Filename = filename
	}
	if err := tx.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func find(tx ports.CatalogTx, partition domain.Partition, key string) (*domain.Plugin, error) {
	if partition == domain.PartitionInternal {
		return tx.FindInternal(key)
	}
	return tx.FindExternal(key)
}

// Discover decodes scanned files into plugins keyed by identifier. Files are
// visited in the order given; the first file claiming an identifier wins and
// later claimants are counted as duplicates.
func (r *Reconciler) Discover(files []ports.ScannedFile) (map[string]Discovered, domain.SyncStats) {
	stats := domain.SyncStats{FilesScanned: len(files)}
	discovered := make(map[string]Discovered, len(files))
	owner := make(map[string]string, len(files))

	for _, f := range files {
		h, err := domain.ParseHeader(string(f.Content))
		if err != nil {
			r.logger.Debug("skipping file without header", "file", f.Filename, "error", err)
			stats.FilesSkipped++
			continue
		}
		if !h.PluginEligible() {
			stats.FilesSkipped++
			continue
		}
		meta, err := domain.DecodePlugin(h)
		if err != nil {
			stats.FilesSkipped++
			continue
		}

		if first, ok := owner[meta.ID]; ok {
			r.logger.Warn("duplicate plugin identifier", "id", meta.ID, "kept", first, "ignored", f.Filename)
			stats.Duplicates++
			continue
		}
		owner[meta.ID] = f.Filename
		discovered[meta.ID] = Discovered{Filename: f.Filename, Metadata: meta}
	}
	return discovered, stats
}

// ReconcileFolder makes the external partition mirror discovered. Records
// whose identifier was not discovered are deleted.
func (r *Reconciler) ReconcileFolder(discovered map[string]Discovered) (domain.SyncStats, error) {
	var stats domain.SyncStats
	err := r.writer.Do(func(tx ports.CatalogTx) error {
		existing, err := tx.List(domain.Filter{Internal: domain.BoolPtr(false)})
		if err != nil {
			return err
		}

		seen := make(map[string]bool, len(existing))
		for _, p := range existing {
			d, ok := discovered[p.Identifier]
			if !ok {
				if err := tx.Delete(p.Handle); err != nil {
					return fmt.Errorf("failed to delete %s: %w", p.Identifier, err)
				}
				stats.PluginsDeleted++
				continue
			}
			seen[p.Identifier] = true
			p.Apply(d.Metadata)
			p.Filename = d.Filename
			if err := tx.Update(p); err != nil {
				return err
			}
			stats.PluginsUpdated++
		}

		for _, id := range slices.Sorted(maps.Keys(discovered)) {
			if seen[id] {
				continue
			}
			d := discovered[id]
			if err := tx.Insert(domain.NewPlugin(d.Metadata, false, d.Filename)); err != nil {
				return err
			}
			stats.PluginsAdded++
		}
		return nil
	})
	return stats, err
}
