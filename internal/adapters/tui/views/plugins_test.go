package views

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"intelstack/internal/adapters/filesystem"
	"intelstack/internal/application/commands"
	"intelstack/internal/domain"
)

func samplePlugins() []*domain.Plugin {
	return []*domain.Plugin{
		{Handle: "1", Identifier: "draw-tools", Name: "IITC plugin: Draw tools", Category: domain.CategoryDraw, Internal: true},
		{Handle: "2", Identifier: "bookmarks", Name: "IITC plugin: Bookmarks", Category: domain.CategoryControls, Internal: true, Enabled: true},
		{Handle: "3", Identifier: "portal-names@alice", Name: "Portal names", Category: domain.CategoryLayer, DownloadURL: "https://ext.test/portal-names.user.js"},
		{Handle: "4", Identifier: "zoom-slider", Name: "IITC plugin: Zoom slider", Category: domain.CategoryControls, Internal: true},
		{Handle: "5", Identifier: "no-category@bob", Name: "Uncategorized"},
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestGroupPlugins(t *testing.T) {
	groups := groupPlugins(samplePlugins(), map[string]bool{"Layer": true})

	var names []string
	for _, g := range groups {
		names = append(names, g.Category)
	}
	want := []string{"Controls", "Draw", "Layer", "Misc"}
	if len(names) != len(want) {
		t.Fatalf("categories = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("category[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	controls := groups[0]
	if controls.Plugins[0].Identifier != "bookmarks" || controls.Plugins[1].Identifier != "zoom-slider" {
		t.Errorf("controls not sorted by display name: %s, %s", controls.Plugins[0].Identifier, controls.Plugins[1].Identifier)
	}
	if groups[2].Expanded {
		t.Error("Layer should start collapsed")
	}
	if !groups[3].Expanded {
		t.Error("Misc should start expanded")
	}
}

func TestFlattenGroups(t *testing.T) {
	groups := groupPlugins(samplePlugins(), map[string]bool{"Controls": true})
	rows := flattenGroups(groups)

	// Controls header, Draw header + 1, Layer header + 1, Misc header + 1
	if len(rows) != 7 {
		t.Fatalf("len(rows) = %d, want 7", len(rows))
	}
	if rows[0].plugin != nil || rows[0].group.Category != "Controls" {
		t.Errorf("first row should be the collapsed Controls header")
	}
	if rows[1].plugin != nil || rows[1].group.Category != "Draw" {
		t.Errorf("second row should be the Draw header")
	}
	if rows[2].plugin == nil || rows[2].plugin.Identifier != "draw-tools" {
		t.Errorf("third row should be draw-tools")
	}
}

func TestPluginsModel_CollapseAndFilter(t *testing.T) {
	m := NewPluginsModel(Services{})
	m.Update(pluginsLoadedMsg{samplePlugins()})

	if len(m.rows) != 9 {
		t.Fatalf("len(rows) = %d, want 9", len(m.rows))
	}

	// Cursor on bookmarks, collapse its group
	m.Update(keyRunes("j"))
	if p := m.selectedPlugin(); p == nil || p.Identifier != "bookmarks" {
		t.Fatalf("selected = %v, want bookmarks", p)
	}
	m.Update(keyRunes("h"))
	if len(m.rows) != 7 {
		t.Errorf("len(rows) after collapse = %d, want 7", len(m.rows))
	}
	if row, _ := m.selectedRow(); row.plugin != nil || row.group.Category != "Controls" {
		t.Errorf("cursor should move to the collapsed header")
	}

	// Filtering ignores collapsed groups
	m.Update(keyRunes("/"))
	if !m.filtering {
		t.Fatal("expected filter mode")
	}
	for _, r := range "zoom" {
		m.Update(keyRunes(string(r)))
	}
	if len(m.rows) != 2 || m.rows[1].plugin.Identifier != "zoom-slider" {
		t.Errorf("filtered rows = %d, want header + zoom-slider", len(m.rows))
	}

	// Escape clears the filter and restores collapsed state
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.filtering || m.filter.Value() != "" {
		t.Error("escape should leave filter mode and clear the text")
	}
	if len(m.rows) != 7 {
		t.Errorf("len(rows) after clearing filter = %d, want 7", len(m.rows))
	}
}

func TestPluginsModel_EditNeedsPlugin(t *testing.T) {
	m := NewPluginsModel(Services{})
	m.Update(pluginsLoadedMsg{samplePlugins()})

	_, cmd := m.Update(keyRunes("e"))
	if cmd != nil {
		t.Error("editing a header should not emit a command")
	}
	if !m.MessageErr {
		t.Error("expected an error message")
	}
}

type folderSetting string

func (f folderSetting) ExternalFolderPath() string { return string(f) }
func (f folderSetting) ClearExternalFolder() error { return nil }

func TestPluginsModel_EditExternalHoldsFolder(t *testing.T) {
	folder, err := filesystem.NewFolder(folderSetting(t.TempDir()), "", nil)
	if err != nil {
		t.Fatalf("NewFolder: %v", err)
	}
	m := NewPluginsModel(Services{Folder: folder, Storage: filesystem.NewStorage(t.TempDir())})
	m.Update(pluginsLoadedMsg{samplePlugins()})

	// Rows: Controls, bookmarks, zoom-slider, Draw, draw-tools, Layer, portal-names
	for range 6 {
		m.Update(keyRunes("j"))
	}
	if p := m.selectedPlugin(); p == nil || p.Internal {
		t.Fatalf("selected %+v, want the external plugin", p)
	}

	_, cmd := m.Update(keyRunes("e"))
	if cmd == nil {
		t.Fatal("expected an editor command")
	}
	msg, ok := cmd().(OpenEditorMsg)
	if !ok {
		t.Fatalf("expected OpenEditorMsg")
	}
	if msg.Release == nil || folder.Active() != 1 {
		t.Fatalf("external file should be opened inside a folder scope, active = %d", folder.Active())
	}
	msg.Release()
	if folder.Active() != 0 {
		t.Errorf("active scopes after release = %d, want 0", folder.Active())
	}
}

func TestPluginsModel_EditExternalWithoutFolder(t *testing.T) {
	folder, err := filesystem.NewFolder(folderSetting(""), "", nil)
	if err != nil {
		t.Fatalf("NewFolder: %v", err)
	}
	m := NewPluginsModel(Services{Folder: folder})
	m.Update(pluginsLoadedMsg{samplePlugins()})
	for range 6 {
		m.Update(keyRunes("j"))
	}

	_, cmd := m.Update(keyRunes("e"))
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(errMsg); !ok {
		t.Error("expected an error when the folder is not configured")
	}
}

func TestPluginsModel_CopyWithoutURL(t *testing.T) {
	m := NewPluginsModel(Services{})
	m.Update(pluginsLoadedMsg{samplePlugins()})

	m.Update(keyRunes("j")) // bookmarks has no download URL
	m.Update(keyRunes("y"))
	if !m.MessageErr {
		t.Errorf("expected error message, got %q", m.Message)
	}
}

func TestUpdateModel_Progress(t *testing.T) {
	m := NewUpdateModel(nil)
	m.running = true
	m.snaps = make(chan commands.ProgressSnapshot)

	m.Update(progressMsg{Total: 4, Completed: 1})
	if m.snap.Completed != 1 || m.snap.Total != 4 {
		t.Errorf("snap = %+v", m.snap)
	}

	// The reset at the end of a run keeps the last real snapshot
	m.Update(progressMsg{})
	if m.snap.Total != 4 {
		t.Errorf("zero snapshot should be ignored, got %+v", m.snap)
	}

	m.Update(updateDoneMsg{report: &domain.RunReport{Skipped: true}})
	if m.Running() {
		t.Error("done message should stop the run")
	}
	if m.Message != "An update is already running" || !m.MessageErr {
		t.Errorf("message = %q", m.Message)
	}
}
