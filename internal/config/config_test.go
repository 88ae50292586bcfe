package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intelstack/internal/domain"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("INTELSTACK_DATA_DIR", "")
	t.Setenv("INTELSTACK_CHANNEL", "")
	t.Setenv("INTELSTACK_EXTERNAL_FOLDER", "")
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/xdg-data/intelstack", cfg.DataDir)
	assert.Equal(t, domain.ChannelRelease, cfg.BuildChannel())
	assert.Equal(t, DefaultScanPattern, cfg.ScanPattern)
	assert.Equal(t, DefaultCommunityRepo, cfg.Community.Repo)
	assert.True(t, cfg.ScriptsEnabled)
	assert.Empty(t, cfg.ExternalFolder)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /srv/intelstack
channel: beta
external_folder: /srv/external
http_timeout: 30s
community:
  branch: main
`), 0644))

	t.Setenv("INTELSTACK_DATA_DIR", "")
	t.Setenv("INTELSTACK_CHANNEL", "")
	t.Setenv("INTELSTACK_EXTERNAL_FOLDER", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/intelstack", cfg.DataDir)
	assert.Equal(t, domain.ChannelBeta, cfg.BuildChannel())
	assert.Equal(t, "/srv/external", cfg.ExternalFolder)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "main", cfg.Community.Branch)
	assert.Equal(t, DefaultCommunityRawURL, cfg.Community.RawURL)
	assert.Equal(t, "/srv/intelstack/catalog.db", cfg.CatalogPath())

	t.Setenv("INTELSTACK_CHANNEL", "nightly")
	t.Setenv("INTELSTACK_EXTERNAL_FOLDER", "/env/external")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelRelease, cfg.BuildChannel())
	assert.Equal(t, "/env/external", cfg.ExternalFolder)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("channel: [beta"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("INTELSTACK_DATA_DIR", "~/stack")
	t.Setenv("INTELSTACK_EXTERNAL_FOLDER", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "stack"), cfg.DataDir)
}

func TestStore_ClearExternalFolder(t *testing.T) {
	t.Setenv("INTELSTACK_EXTERNAL_FOLDER", "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	store := NewStore(path, cfg)

	require.NoError(t, store.SetExternalFolder("/srv/external"))
	assert.Equal(t, "/srv/external", store.ExternalFolderPath())

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/external", reloaded.ExternalFolder)

	require.NoError(t, store.ClearExternalFolder())
	assert.Empty(t, store.ExternalFolderPath())

	reloaded, err = Load(path)
	require.NoError(t, err)
	assert.Empty(t, reloaded.ExternalFolder)
}

func TestInternalPlugins(t *testing.T) {
	names, err := InternalPlugins()
	require.NoError(t, err)
	assert.NotEmpty(t, names)
	assert.Contains(t, names, "bookmarks")

	seen := make(map[string]bool)
	for _, n := range names {
		assert.False(t, seen[n], "duplicate manifest entry %s", n)
		seen[n] = true
	}
}
