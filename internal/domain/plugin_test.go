package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		raw        string
		want       Category
		customized bool
	}{
		{"Controls", CategoryControls, false},
		{"Map Tiles", CategoryMapTiles, false},
		{"Portal Info", CategoryPortalInfo, false},
		{"Obsolete", ParseCategory("Obsolete"), true},
		{"controls", ParseCategory("controls"), true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseCategory(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.raw, got.String())
			assert.Equal(t, tt.customized, got.IsCustomized())
		})
	}
}

func TestPlugin_DisplayName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"IITC plugin: Bookmarks", "Bookmarks"},
		{"  IITC   Plugin:Draw tools", "Draw tools"},
		{"iitc plugin: Lower", "Lower"},
		{"Custom script", "Custom script"},
	}

	for _, tt := range tests {
		p := &Plugin{Name: tt.name}
		if got := p.DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestPlugin_ApplyKeepsURLsAndToggle(t *testing.T) {
	p := NewPlugin(PluginMetadata{
		ID:          "a@b",
		Name:        "A",
		Category:    CategoryMisc,
		Version:     "1",
		DownloadURL: "https://example.com/a.user.js",
		UpdateURL:   "https://example.com/a.meta.js",
	}, false, "a")
	assert.False(t, p.Enabled)
	p.Enabled = true
	p.Handle = "handle"

	p.Apply(PluginMetadata{ID: "a@b", Name: "A2", Category: CategoryDraw, Version: "2"})

	assert.True(t, p.Enabled)
	assert.Equal(t, "handle", p.Handle)
	assert.Equal(t, "A2", p.Name)
	assert.Equal(t, "2", p.Version)
	assert.Equal(t, CategoryDraw, p.Category)
	assert.Equal(t, "https://example.com/a.user.js", p.DownloadURL)
	assert.Equal(t, "https://example.com/a.meta.js", p.UpdateURL)
	assert.Equal(t, "a.user.js", p.FilenameWithExtension())
}

func TestFilter_Matches(t *testing.T) {
	p := &Plugin{Identifier: "draw-tools@breunigs", Name: "IITC plugin: Draw tools", Category: CategoryDraw, Internal: true}

	assert.True(t, Filter{}.Matches(p))
	assert.True(t, Filter{Internal: BoolPtr(true)}.Matches(p))
	assert.False(t, Filter{Internal: BoolPtr(false)}.Matches(p))
	assert.False(t, Filter{Enabled: BoolPtr(true)}.Matches(p))
	assert.True(t, Filter{Category: "draw"}.Matches(p))
	assert.True(t, Filter{Query: "BREUNIGS"}.Matches(p))
	assert.False(t, Filter{Query: "bookmarks"}.Matches(p))
}

func TestExternalTarget(t *testing.T) {
	tests := []struct {
		name         string
		plugin       Plugin
		wantOK       bool
		wantDownload string
	}{
		{
			name:         "download url",
			plugin:       Plugin{Identifier: "x", Version: "1", DownloadURL: "https://d", UpdateURL: "https://u"},
			wantOK:       true,
			wantDownload: "https://d",
		},
		{
			name:         "update url only",
			plugin:       Plugin{Identifier: "x", Version: "1", UpdateURL: "https://u"},
			wantOK:       true,
			wantDownload: "https://u",
		},
		{
			name:   "never synced",
			plugin: Plugin{Identifier: "x", DownloadURL: "https://d"},
		},
		{
			name:   "no urls",
			plugin: Plugin{Identifier: "x", Version: "1"},
		},
		{
			name:   "internal",
			plugin: Plugin{Identifier: "x", Version: "1", DownloadURL: "https://d", Internal: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, ok := ExternalTarget(&tt.plugin, "/ext/x.user.js")
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, TargetExternalPlugin, target.Kind)
				assert.Equal(t, tt.wantDownload, target.DownloadURL)
				assert.Equal(t, "/ext/x.user.js", target.DestinationPath)
				assert.Equal(t, "x", target.Key())
			}
		})
	}
}

func TestRemote_URLs(t *testing.T) {
	r := NewRemote("", ParseChannel("BETA"))

	assert.Equal(t, "https://iitc.app/build/beta/total-conversion-build.user.js", r.MainScriptURL())
	assert.Equal(t, "https://iitc.app/build/beta/total-conversion-build.meta.js", r.MainScriptProbeURL())
	assert.Equal(t, "https://iitc.app/build/beta/plugins/bookmarks.user.js", r.PluginURL("bookmarks"))
	assert.Equal(t, "https://iitc.app/build/beta/plugins/bookmarks.meta.js", r.PluginProbeURL("bookmarks"))

	r = NewRemote("http://localhost:8080/", ChannelRelease)
	assert.Equal(t, "http://localhost:8080/release/plugins/x.user.js", r.PluginURL("x"))
	assert.Equal(t, ChannelRelease, ParseChannel("nightly"))
}

func TestFilenameHelpers(t *testing.T) {
	assert.Equal(t, "IITC plugin Foobar", FilenameFromName(`IITC plugin: Foo/bar?`))
	assert.Equal(t, `ab`, FilenameFromName(`a\b*|"<>%`))

	assert.Equal(t, "bookmarks", FilenameFromURL("/build/release/plugins/bookmarks.user.js"))
	assert.Equal(t, "", FilenameFromURL("/plugins/.user.js"))
	assert.Equal(t, "", FilenameFromURL("/plugins/"))
}

func TestWrapCode(t *testing.T) {
	wrapped := WrapCode("console.log(1);", "Test", "", "1.0")

	require.True(t, strings.HasPrefix(wrapped, "(function() { const GM_info = "))
	assert.Contains(t, wrapped, "\nconsole.log(1);\n")
	assert.True(t, strings.HasSuffix(wrapped, " })(); })();"))

	start := strings.Index(wrapped, "= ") + 2
	end := strings.Index(wrapped, "; (function()")
	var info struct {
		Script map[string]string `json:"script"`
	}
	require.NoError(t, json.Unmarshal([]byte(wrapped[start:end]), &info))
	assert.Equal(t, map[string]string{"name": "Test", "version": "1.0"}, info.Script)
}
