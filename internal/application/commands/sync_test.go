package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intelstack/internal/domain"
)

func TestSyncExternalCommand_MirrorsFolder(t *testing.T) {
	e := newEnv(t, nil,
		&domain.Plugin{Identifier: "keep@x", Filename: "keep", Enabled: true, Version: "1"},
		&domain.Plugin{Identifier: "removed@x", Filename: "removed", Version: "1"},
		&domain.Plugin{Identifier: "bookmarks", Filename: "bookmarks", Internal: true, Version: "1"},
	)
	e.writeExternal(t, "keep", pluginScript("keep@x", "Keep", "2"))
	e.writeExternal(t, "new", pluginScript("new@x", "New", "1"))
	e.writeExternal(t, "notes", "just some javascript")
	require.NoError(t, os.WriteFile(filepath.Join(e.external, "readme.txt"), []byte("x"), 0644))

	result, err := NewSyncExternalCommand(e.catalog, e.folder, e.settings, nil, nil).Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stats.PluginsAdded)
	assert.Equal(t, 1, result.Stats.PluginsUpdated)
	assert.Equal(t, 1, result.Stats.PluginsDeleted)
	assert.Equal(t, 3, result.Stats.FilesScanned)
	assert.Equal(t, 1, result.Stats.FilesSkipped)
	assert.False(t, result.Cleared)
	assert.Zero(t, e.folder.Active())

	ids := map[string]*domain.Plugin{}
	for _, p := range e.catalog.all() {
		ids[p.Identifier] = p
	}
	assert.Len(t, ids, 3)
	assert.Equal(t, "2", ids["keep@x"].Version)
	assert.True(t, ids["keep@x"].Enabled)
	assert.Contains(t, ids, "new@x")
	assert.Contains(t, ids, "bookmarks")
}

func TestSyncExternalCommand_FolderGone(t *testing.T) {
	e := newEnv(t, nil,
		&domain.Plugin{Identifier: "a@x", Filename: "a", Version: "1"},
		&domain.Plugin{Identifier: "bookmarks", Filename: "bookmarks", Internal: true},
	)
	e.settings.path = filepath.Join(e.external, "does-not-exist")

	result, err := NewSyncExternalCommand(e.catalog, e.folder, e.settings, nil, nil).Execute(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Cleared)
	assert.True(t, e.settings.cleared)
	assert.Equal(t, "", e.settings.ExternalFolderPath())
	assert.Equal(t, 1, result.Stats.PluginsDeleted)
	require.Len(t, e.catalog.all(), 1)
	assert.True(t, e.catalog.all()[0].Internal)
}

func TestSyncExternalCommand_NotConfigured(t *testing.T) {
	e := newEnv(t, nil, &domain.Plugin{Identifier: "a@x", Filename: "a"})
	e.settings.path = ""

	result, err := NewSyncExternalCommand(e.catalog, e.folder, e.settings, nil, nil).Execute(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Cleared)
	assert.False(t, e.settings.cleared)
	assert.Equal(t, 1, result.Stats.PluginsDeleted)
	assert.Empty(t, e.catalog.all())
}
