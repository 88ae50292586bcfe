package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intelstack/internal/domain"
	"intelstack/internal/ports"
)

func newTestReconciler(t *testing.T, c *memCatalog) (*Reconciler, *CatalogWriter) {
	t.Helper()
	tx, err := c.BeginTx(context.Background())
	require.NoError(t, err)
	w := NewCatalogWriter(tx)
	return NewReconciler(w, nil), w
}

func pluginMeta(id, name, version string) domain.PluginMetadata {
	return domain.PluginMetadata{ID: id, Name: name, Category: domain.CategoryMisc, Version: version}
}

func TestReconciler_UpsertOneIsIdempotent(t *testing.T) {
	c := newMemCatalog()
	r, w := newTestReconciler(t, c)

	v1 := pluginMeta("foo", "Foo", "1.0")
	v1.Author = "alice"
	v2 := pluginMeta("foo", "Foo Renamed", "2.0")
	v2.Description = "second"

	first, err := r.UpsertOne(domain.PartitionInternal, "foo", "foo", v1)
	require.NoError(t, err)
	second, err := r.UpsertOne(domain.PartitionInternal, "foo", "foo", v2)
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	plugins := c.all()
	require.Len(t, plugins, 1)
	p := plugins[0]
	assert.Equal(t, first.Handle, second.Handle)
	assert.True(t, p.Internal)
	assert.False(t, p.Enabled)
	assert.Equal(t, "foo", p.Filename)
	assert.Equal(t, "Foo Renamed", p.Name)
	assert.Equal(t, "2.0", p.Version)
	assert.Equal(t, "second", p.Description)
	assert.Equal(t, "", p.Author, "fields follow the latest metadata")
}

func TestReconciler_UpsertOneKeepsEnabled(t *testing.T) {
	c := newMemCatalog(&domain.Plugin{Identifier: "bar@bob", Filename: "bar", Enabled: true, Version: "1.0"})
	r, w := newTestReconciler(t, c)

	p, err := r.UpsertOne(domain.PartitionExternal, "bar@bob", "bar-renamed", pluginMeta("bar@bob", "Bar", "1.1"))
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	assert.True(t, p.Enabled)
	assert.Equal(t, "bar-renamed", c.all()[0].Filename)
	assert.Equal(t, "1.1", c.all()[0].Version)
}

func TestReconciler_PartitionsAreSeparate(t *testing.T) {
	c := newMemCatalog()
	r, w := newTestReconciler(t, c)

	_, err := r.UpsertOne(domain.PartitionInternal, "shared", "shared", pluginMeta("shared", "Internal", "1"))
	require.NoError(t, err)
	_, err = r.UpsertOne(domain.PartitionExternal, "shared", "shared", pluginMeta("shared", "External", "1"))
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	assert.Len(t, c.all(), 2)
}

func TestReconciler_Discover(t *testing.T) {
	r, _ := newTestReconciler(t, newMemCatalog())

	files := []ports.ScannedFile{
		{Filename: "a-first", Content: []byte(pluginScript("dup@x", "First", "1"))},
		{Filename: "b-second", Content: []byte(pluginScript("dup@x", "Second", "2"))},
		{Filename: "c-other", Content: []byte(pluginScript("other@x", "Other", "1"))},
		{Filename: "d-broken", Content: []byte("// ==UserScript==\n// @name\n// ==/UserScript==\n")},
		{Filename: "e-no-category", Content: []byte("// ==UserScript==\n// @id x\n// @name X\n// ==/UserScript==\n")},
	}

	discovered, stats := r.Discover(files)
	require.Len(t, discovered, 2)
	assert.Equal(t, "a-first", discovered["dup@x"].Filename, "first file in order wins")
	assert.Equal(t, "Other", discovered["other@x"].Metadata.Name)
	assert.Equal(t, 5, stats.FilesScanned)
	assert.Equal(t, 2, stats.FilesSkipped)
	assert.Equal(t, 1, stats.Duplicates)
}

func TestReconciler_ReconcileFolderDeletesMissingFiles(t *testing.T) {
	c := newMemCatalog(
		&domain.Plugin{Identifier: "a@x", Filename: "a", Enabled: true, Version: "1"},
		&domain.Plugin{Identifier: "b@x", Filename: "b", Version: "1"},
		&domain.Plugin{Identifier: "internal", Filename: "internal", Internal: true, Version: "1"},
	)
	r, w := newTestReconciler(t, c)

	stats, err := r.ReconcileFolder(map[string]Discovered{
		"a@x": {Filename: "a-moved", Metadata: pluginMeta("a@x", "A", "2")},
		"c@x": {Filename: "c", Metadata: pluginMeta("c@x", "C", "1")},
	})
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	assert.Equal(t, 1, stats.PluginsAdded)
	assert.Equal(t, 1, stats.PluginsUpdated)
	assert.Equal(t, 1, stats.PluginsDeleted)

	byID := map[string]*domain.Plugin{}
	for _, p := range c.all() {
		byID[p.Identifier] = p
	}
	require.Len(t, byID, 3)
	assert.NotContains(t, byID, "b@x")
	assert.Contains(t, byID, "internal", "internal records are never deleted")
	assert.Equal(t, "a-moved", byID["a@x"].Filename)
	assert.Equal(t, "2", byID["a@x"].Version)
	assert.True(t, byID["a@x"].Enabled)
	assert.False(t, byID["c@x"].Enabled)
}

func TestCatalogWriter_Closed(t *testing.T) {
	c := newMemCatalog()
	tx, err := c.BeginTx(context.Background())
	require.NoError(t, err)
	w := NewCatalogWriter(tx)

	require.NoError(t, w.Commit())
	assert.NoError(t, w.Rollback(), "rollback after commit is a no-op")
	assert.True(t, errors.Is(w.Commit(), ErrWriterClosed))

	err = w.Do(func(ports.CatalogTx) error { return nil })
	assert.True(t, errors.Is(err, ErrWriterClosed))
	assert.Equal(t, 1, c.commitCount())
}
