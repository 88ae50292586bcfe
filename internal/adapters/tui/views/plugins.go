package views

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"intelstack/internal/application/commands"
	"intelstack/internal/domain"
)

// PluginsKeyMap defines key bindings for the plugin list
type PluginsKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Toggle    key.Binding
	Edit      key.Binding
	Copy      key.Binding
	Browse    key.Binding
	Intel     key.Binding
	Filter    key.Binding
	Update    key.Binding
	Sync      key.Binding
	Add       key.Binding
	Community key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	Help      key.Binding
	Quit      key.Binding
}

var PluginsKeys = PluginsKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "collapse"),
	),
	Right: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "expand"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "enter"),
		key.WithHelp("space", "enable/disable"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy URL"),
	),
	Browse: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "open URL"),
	),
	Intel: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "intel map"),
	),
	Filter: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	Update: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "update"),
	),
	Sync: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "sync folder"),
	),
	Add: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add"),
	),
	Community: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "community"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("pgdown", "ctrl+f"),
		key.WithHelp("pgdn", "next page"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("pgup", "ctrl+b"),
		key.WithHelp("pgup", "prev page"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// pluginGroup is one category section of the list
type pluginGroup struct {
	Category string
	Plugins  []*domain.Plugin
	Expanded bool
}

// pluginRow is either a category header or a plugin
type pluginRow struct {
	group  *pluginGroup
	plugin *domain.Plugin
}

// groupPlugins buckets plugins by category, sorted by category and then by
// display name. collapsed names the categories to start closed.
func groupPlugins(plugins []*domain.Plugin, collapsed map[string]bool) []*pluginGroup {
	byCategory := make(map[string]*pluginGroup)
	var groups []*pluginGroup
	for _, p := range plugins {
		name := p.Category.String()
		if name == "" {
			name = domain.CategoryMisc.String()
		}
		g, ok := byCategory[name]
		if !ok {
			g = &pluginGroup{Category: name, Expanded: !collapsed[name]}
			byCategory[name] = g
			groups = append(groups, g)
		}
		g.Plugins = append(g.Plugins, p)
	}

	slices.SortFunc(groups, func(a, b *pluginGroup) int {
		return cmp.Compare(a.Category, b.Category)
	})
	for _, g := range groups {
		slices.SortFunc(g.Plugins, func(a, b *domain.Plugin) int {
			return cmp.Compare(strings.ToLower(a.DisplayName()), strings.ToLower(b.DisplayName()))
		})
	}
	return groups
}

// flattenGroups lists the visible rows
func flattenGroups(groups []*pluginGroup) []pluginRow {
	var rows []pluginRow
	for _, g := range groups {
		rows = append(rows, pluginRow{group: g})
		if !g.Expanded {
			continue
		}
		for _, p := range g.Plugins {
			rows = append(rows, pluginRow{group: g, plugin: p})
		}
	}
	return rows
}

// PluginsModel is the model for the grouped plugin list
type PluginsModel struct {
	ViewState
	svc Services

	plugins   []*domain.Plugin
	groups    []*pluginGroup
	rows      []pluginRow
	collapsed map[string]bool
	pager     *Paginator
	loaded    bool

	filter    textinput.Model
	filtering bool
}

// NewPluginsModel creates a new plugin list model
func NewPluginsModel(svc Services) *PluginsModel {
	input := textinput.New()
	input.Placeholder = "Filter by name or id..."
	input.Prompt = "/ "

	return &PluginsModel{
		svc:       svc,
		collapsed: make(map[string]bool),
		pager:     NewPaginator(20),
		filter:    input,
	}
}

// Init loads the catalog and rescans the external folder
func (m *PluginsModel) Init() tea.Cmd {
	return tea.Batch(m.load, m.sync)
}

func (m *PluginsModel) load() tea.Msg {
	plugins, err := m.svc.Catalog.List(context.Background(), domain.Filter{})
	if err != nil {
		return errMsg{err}
	}
	return pluginsLoadedMsg{plugins}
}

type pluginsLoadedMsg struct {
	plugins []*domain.Plugin
}

// Update handles messages for the plugin list
func (m *PluginsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case pluginsLoadedMsg:
		m.plugins = msg.plugins
		m.loaded = true
		m.regroup()
		return m, nil

	case errMsg:
		m.SetMessage(msg.err.Error(), true)
		return m, nil

	case successMsg:
		m.SetMessage(msg.message, false)
		return m, m.Reload()

	case tea.KeyMsg:
		if m.filtering {
			return m, m.updateFilter(msg)
		}
		m.ClearMessage()

		switch {
		case key.Matches(msg, PluginsKeys.Quit):
			return m, tea.Quit

		case key.Matches(msg, PluginsKeys.Up):
			m.pager.CursorUp()
			return m, nil

		case key.Matches(msg, PluginsKeys.Down):
			m.pager.CursorDown()
			return m, nil

		case key.Matches(msg, PluginsKeys.NextPage):
			m.pager.NextPage()
			return m, nil

		case key.Matches(msg, PluginsKeys.PrevPage):
			m.pager.PrevPage()
			return m, nil

		case key.Matches(msg, PluginsKeys.Left):
			if row, ok := m.selectedRow(); ok {
				m.setExpanded(row.group, false)
			}
			return m, nil

		case key.Matches(msg, PluginsKeys.Right):
			if row, ok := m.selectedRow(); ok {
				m.setExpanded(row.group, true)
			}
			return m, nil

		case key.Matches(msg, PluginsKeys.Toggle):
			row, ok := m.selectedRow()
			if !ok {
				return m, nil
			}
			if row.plugin == nil {
				m.setExpanded(row.group, !row.group.Expanded)
				return m, nil
			}
			return m, m.toggle(row.plugin)

		case key.Matches(msg, PluginsKeys.Edit):
			if p := m.selectedPlugin(); p != nil {
				return m, m.edit(p)
			}
			m.SetMessage(errNoPlugin.Error(), true)
			return m, nil

		case key.Matches(msg, PluginsKeys.Copy):
			if p := m.selectedPlugin(); p != nil {
				m.copyURL(p)
			} else {
				m.SetMessage(errNoPlugin.Error(), true)
			}
			return m, nil

		case key.Matches(msg, PluginsKeys.Browse):
			p := m.selectedPlugin()
			if p == nil {
				m.SetMessage(errNoPlugin.Error(), true)
				return m, nil
			}
			return m, m.open(p.DownloadURL)

		case key.Matches(msg, PluginsKeys.Intel):
			return m, m.open(domain.IntelMapURL)

		case key.Matches(msg, PluginsKeys.Filter):
			m.filtering = true
			m.filter.Focus()
			return m, textinput.Blink

		case key.Matches(msg, PluginsKeys.Sync):
			return m, m.sync

		case key.Matches(msg, PluginsKeys.Update):
			return m, func() tea.Msg { return SwitchToUpdateMsg{} }

		case key.Matches(msg, PluginsKeys.Add):
			return m, func() tea.Msg { return SwitchToAddMsg{} }

		case key.Matches(msg, PluginsKeys.Community):
			return m, func() tea.Msg { return SwitchToCommunityMsg{} }

		case key.Matches(msg, PluginsKeys.Help):
			return m, func() tea.Msg { return SwitchToHelpMsg{} }
		}
	}

	return m, nil
}

func (m *PluginsModel) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.regroup()
		return nil
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.regroup()
	return cmd
}

func (m *PluginsModel) toggle(p *domain.Plugin) tea.Cmd {
	catalog := m.svc.Catalog
	return func() tea.Msg {
		result, err := commands.NewSetEnabledCommand(catalog, p.Handle, !p.Enabled).Execute(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return successMsg{result.Message}
	}
}

func (m *PluginsModel) sync() tea.Msg {
	cmd := commands.NewSyncExternalCommand(m.svc.Catalog, m.svc.Folder, m.svc.Settings, m.svc.Metrics, m.svc.Logger)
	result, err := cmd.Execute(context.Background())
	if err != nil {
		return errMsg{err}
	}
	return successMsg{result.Message}
}

func (m *PluginsModel) open(target string) tea.Cmd {
	browser := m.svc.Browser
	if browser == nil {
		return nil
	}
	return func() tea.Msg {
		if err := browser.OpenURL(target); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m *PluginsModel) copyURL(p *domain.Plugin) {
	if p.DownloadURL == "" {
		m.SetMessage(fmt.Sprintf("%s has no download URL", p.DisplayName()), true)
		return
	}
	if err := clipboard.WriteAll(p.DownloadURL); err != nil {
		m.SetMessage(fmt.Sprintf("copy failed: %v", err), true)
		return
	}
	m.SetMessage("Copied "+p.DownloadURL, false)
}

// edit opens the plugin file in the editor. External files stay inside a
// folder access scope until the editor exits.
func (m *PluginsModel) edit(p *domain.Plugin) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		if p.Internal {
			return OpenEditorMsg{Path: svc.Storage.PluginPath(p.Filename)}
		}
		_, release, err := svc.Folder.Acquire(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return OpenEditorMsg{Path: svc.Folder.PluginPath(p.Filename), Release: release}
	}
}

// visiblePlugins applies the filter text
func (m *PluginsModel) visiblePlugins() []*domain.Plugin {
	filter := domain.Filter{Query: strings.TrimSpace(m.filter.Value())}
	var out []*domain.Plugin
	for _, p := range m.plugins {
		if filter.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

func (m *PluginsModel) regroup() {
	// Filtering shows every match regardless of collapsed groups
	collapsed := m.collapsed
	if m.filter.Value() != "" {
		collapsed = nil
	}
	m.groups = groupPlugins(m.visiblePlugins(), collapsed)
	m.rows = flattenGroups(m.groups)
	m.pager.SetTotal(len(m.rows))
}

func (m *PluginsModel) setExpanded(g *pluginGroup, expanded bool) {
	if g.Expanded == expanded {
		return
	}
	g.Expanded = expanded
	m.collapsed[g.Category] = !expanded
	m.rows = flattenGroups(m.groups)
	m.pager.SetTotal(len(m.rows))

	// Keep the cursor on the header of a collapsed group
	if !expanded {
		for i, row := range m.rows {
			if row.group == g && row.plugin == nil {
				m.pager.SetCursor(i)
				break
			}
		}
	}
}

func (m *PluginsModel) selectedRow() (pluginRow, bool) {
	c := m.pager.Cursor()
	if c >= 0 && c < len(m.rows) {
		return m.rows[c], true
	}
	return pluginRow{}, false
}

func (m *PluginsModel) selectedPlugin() *domain.Plugin {
	row, ok := m.selectedRow()
	if !ok {
		return nil
	}
	return row.plugin
}

// View renders the plugin list
func (m *PluginsModel) View() string {
	if !m.loaded {
		return "Loading..."
	}

	s := newScreen("intelstack").sub(m.summary())

	if m.filtering || m.filter.Value() != "" {
		s.line(m.filter.View()).gap()
	}

	if len(m.rows) == 0 {
		s.muted("No plugins. Press u to download the IITC build.")
	}
	start, end := m.pager.VisibleRange()
	for i := start; i < end; i++ {
		s.line(renderPluginRow(m.rows[i], i == m.pager.Cursor()))
	}
	if m.pager.TotalPages() > 1 {
		s.gap().muted(fmt.Sprintf("page %d/%d", m.pager.CurrentPage(), m.pager.TotalPages()))
	}

	s.status(m.Message, m.MessageErr).keys(
		PluginsKeys.Toggle,
		PluginsKeys.Edit,
		PluginsKeys.Copy,
		PluginsKeys.Filter,
		PluginsKeys.Update,
		PluginsKeys.Sync,
		PluginsKeys.Help,
		PluginsKeys.Quit,
	)
	return s.String()
}

func (m *PluginsModel) summary() string {
	var enabled, external int
	for _, p := range m.plugins {
		if p.Enabled {
			enabled++
		}
		if !p.Internal {
			external++
		}
	}
	return fmt.Sprintf("%d plugins, %d enabled, %d external", len(m.plugins), enabled, external)
}

// SetSize updates the view dimensions and the page size
func (m *PluginsModel) SetSize(width, height int) {
	m.ViewState.SetSize(width, height)
	m.pager.SetPageSize(height - 12)
}

// Reload reloads the catalog
func (m *PluginsModel) Reload() tea.Cmd {
	return m.load
}

// errNoPlugin is reported when an action needs a plugin row
var errNoPlugin = errors.New("select a plugin first")
