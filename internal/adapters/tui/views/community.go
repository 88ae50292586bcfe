package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"intelstack/internal/adapters/tui/styles"
	"intelstack/internal/application/commands"
	"intelstack/internal/domain"
)

// CommunityKeyMap defines key bindings for the community browser
type CommunityKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Install key.Binding
	Cancel  key.Binding
}

var CommunityKeys = CommunityKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+p"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+n"),
		key.WithHelp("↓", "down"),
	),
	Install: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "install"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
}

const communityMaxResults = 15

// CommunityModel browses the community plugin index
type CommunityModel struct {
	ViewState
	svc Services

	input   textinput.Model
	spinner spinner.Model
	confirm ConfirmationModel

	plugins []*domain.CommunityPlugin
	results []*domain.CommunityPlugin
	cursor  int
	loading bool
	loaded  bool
}

// NewCommunityModel creates a new community browser
func NewCommunityModel(svc Services) *CommunityModel {
	input := textinput.New()
	input.Placeholder = "Search by name or author..."
	input.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.MutedText

	return &CommunityModel{
		svc:     svc,
		input:   input,
		spinner: s,
		confirm: NewConfirmationModel(),
	}
}

// Init loads the index on first use
func (m *CommunityModel) Init() tea.Cmd {
	m.input.Focus()
	if m.loaded || m.loading {
		return textinput.Blink
	}
	m.loading = true
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.load)
}

func (m *CommunityModel) load() tea.Msg {
	result, err := commands.NewListCommunityCommand(m.svc.Community, m.svc.Catalog).Execute(context.Background())
	if err != nil {
		return communityErrMsg{err}
	}
	return communityLoadedMsg{result.Plugins}
}

type communityLoadedMsg struct {
	plugins []*domain.CommunityPlugin
}

type communityErrMsg struct {
	err error
}

type installDoneMsg struct {
	message string
}

type installCancelledMsg struct{}

// Update handles messages for the community browser
func (m *CommunityModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case communityLoadedMsg:
		m.loading = false
		m.loaded = true
		m.plugins = msg.plugins
		m.applyQuery()
		return m, nil

	case communityErrMsg:
		m.loading = false
		m.SetMessage(msg.err.Error(), true)
		return m, nil

	case installDoneMsg:
		m.SetMessage(msg.message, false)
		// Statuses changed; refresh on next visit
		m.loaded = false
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.load)

	case installCancelledMsg:
		m.ClearMessage()
		return m, nil

	case tea.KeyMsg:
		if m.confirm.Active() {
			target := m.selected()
			_, cmd := m.confirm.HandleKeyMsg(msg,
				func() tea.Msg { return m.install(target) },
				func() tea.Msg { return installCancelledMsg{} },
			)
			return m, cmd
		}

		switch {
		case key.Matches(msg, CommunityKeys.Cancel):
			return m, func() tea.Msg { return SwitchToListMsg{} }

		case key.Matches(msg, CommunityKeys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case key.Matches(msg, CommunityKeys.Down):
			if m.cursor < len(m.results)-1 {
				m.cursor++
			}
			return m, nil

		case key.Matches(msg, CommunityKeys.Install):
			if cp := m.selected(); cp != nil {
				if cp.Status == domain.CommunityAdded {
					m.SetMessage(fmt.Sprintf("%s is already installed and current", cp.Metadata.Name), false)
					return m, nil
				}
				action := "Install"
				if cp.Status == domain.CommunityOutdated {
					action = "Upgrade"
				}
				m.confirm.Ask(action, fmt.Sprintf("%s %s by %s", cp.Metadata.Name, cp.Metadata.Version, cp.Author))
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.applyQuery()
	return m, cmd
}

func (m *CommunityModel) install(cp *domain.CommunityPlugin) tea.Msg {
	if cp == nil {
		return installCancelledMsg{}
	}
	filename := strings.TrimSuffix(cp.Filename, domain.UserScriptSuffix)
	cmd := commands.NewAddCommunityPluginCommand(m.svc.Community, m.svc.Catalog, m.svc.Folder, m.svc.Installer, m.svc.Logger, cp.Author, filename)
	cmd.Claims = m.svc.Updater.Claims()
	result, err := cmd.Execute(context.Background())
	if err != nil {
		return communityErrMsg{err}
	}
	return installDoneMsg{result.Message}
}

// applyQuery narrows the loaded index to the search text
func (m *CommunityModel) applyQuery() {
	q := strings.ToLower(strings.TrimSpace(m.input.Value()))
	m.results = m.results[:0]
	for _, cp := range m.plugins {
		if q == "" ||
			strings.Contains(strings.ToLower(cp.Metadata.Name), q) ||
			strings.Contains(strings.ToLower(cp.Author), q) {
			m.results = append(m.results, cp)
		}
	}
	if m.cursor >= len(m.results) {
		m.cursor = max(len(m.results)-1, 0)
	}
}

func (m *CommunityModel) selected() *domain.CommunityPlugin {
	if m.cursor >= 0 && m.cursor < len(m.results) {
		return m.results[m.cursor]
	}
	return nil
}

// View renders the community browser
func (m *CommunityModel) View() string {
	s := newScreen("Community plugins")

	if m.confirm.Active() {
		return s.line(m.confirm.View()).String()
	}

	s.line(styles.InputFocused.Render(m.input.View())).gap()

	switch {
	case m.loading:
		s.line(m.spinner.View() + " Loading community index...")
	case len(m.results) == 0:
		s.muted("No plugins found")
	default:
		s.sub(fmt.Sprintf("%d plugins", len(m.results)))
		// Keep the cursor inside the window
		start := 0
		if m.cursor >= communityMaxResults {
			start = m.cursor - communityMaxResults + 1
		}
		end := min(start+communityMaxResults, len(m.results))
		for i := start; i < end; i++ {
			s.line(renderCommunityRow(m.results[i], i == m.cursor))
		}
		if len(m.results) > end {
			s.muted(fmt.Sprintf("... and %d more", len(m.results)-end))
		}
	}

	return s.status(m.Message, m.MessageErr).
		keys(CommunityKeys.Up, CommunityKeys.Down, CommunityKeys.Install, CommunityKeys.Cancel).
		String()
}

