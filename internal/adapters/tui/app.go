package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"intelstack/internal/adapters/tui/views"
	"intelstack/internal/ports"
)

// ViewState represents the current view
type ViewState int

const (
	ViewPlugins ViewState = iota
	ViewAdd
	ViewCommunity
	ViewUpdate
	ViewHelp
)

// App is the main TUI application model
type App struct {
	editor ports.EditorOpener

	state     ViewState
	plugins   *views.PluginsModel
	add       *views.AddModel
	community *views.CommunityModel
	update    *views.UpdateModel
	help      *views.HelpModel

	width  int
	height int
}

// NewApp creates a new TUI application
func NewApp(svc views.Services, ed ports.EditorOpener) *App {
	return &App{
		editor:    ed,
		state:     ViewPlugins,
		plugins:   views.NewPluginsModel(svc),
		add:       views.NewAddModel(svc),
		community: views.NewCommunityModel(svc),
		update:    views.NewUpdateModel(svc.Updater),
		help:      views.NewHelpModel(),
	}
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return a.plugins.Init()
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.plugins.SetSize(msg.Width, msg.Height)
		a.add.SetSize(msg.Width, msg.Height)
		a.community.SetSize(msg.Width, msg.Height)
		a.help.SetSize(msg.Width, msg.Height)
		_, cmd := a.update.Update(msg)
		return a, cmd

	// View switching messages
	case views.SwitchToAddMsg:
		a.state = ViewAdd
		a.add.Reset()
		return a, a.add.Init()

	case views.SwitchToCommunityMsg:
		a.state = ViewCommunity
		return a, a.community.Init()

	case views.SwitchToUpdateMsg:
		a.state = ViewUpdate
		return a, a.update.Start()

	case views.SwitchToHelpMsg:
		a.state = ViewHelp
		return a, nil

	case views.SwitchToListMsg:
		a.state = ViewPlugins
		return a, a.plugins.Reload()

	case views.AddSuccessMsg:
		a.state = ViewPlugins
		a.plugins.SetMessage(msg.Message, false)
		return a, a.plugins.Reload()

	case views.OpenEditorMsg:
		return a, a.openEditor(msg.Path, msg.Release)

	case editorFinishedMsg:
		if msg.err != nil {
			a.plugins.SetMessage(msg.err.Error(), true)
		}
		return a, nil
	}

	// Delegate to current view
	var cmd tea.Cmd
	switch a.state {
	case ViewPlugins:
		_, cmd = a.plugins.Update(msg)
	case ViewAdd:
		_, cmd = a.add.Update(msg)
	case ViewCommunity:
		_, cmd = a.community.Update(msg)
	case ViewUpdate:
		_, cmd = a.update.Update(msg)
	case ViewHelp:
		_, cmd = a.help.Update(msg)
	}

	return a, cmd
}

type editorFinishedMsg struct{ err error }

func (a *App) openEditor(path string, release func()) tea.Cmd {
	if release == nil {
		release = func() {}
	}
	if a.editor == nil {
		release()
		return nil
	}

	cmd, err := a.editor.Command(path)
	if err != nil {
		release()
		return func() tea.Msg {
			return editorFinishedMsg{err: err}
		}
	}

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		release()
		return editorFinishedMsg{err: err}
	})
}

// View renders the current view
func (a *App) View() string {
	switch a.state {
	case ViewAdd:
		return a.add.View()
	case ViewCommunity:
		return a.community.View()
	case ViewUpdate:
		return a.update.View()
	case ViewHelp:
		return a.help.View()
	default:
		return a.plugins.View()
	}
}
