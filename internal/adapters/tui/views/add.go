package views

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"intelstack/internal/application/commands"
)

const (
	addFieldURL = iota
	addFieldFilename
)

// AddModel is the model for adding an external plugin by URL
type AddModel struct {
	ViewState
	svc  Services
	form *InputForm
	busy bool
}

// NewAddModel creates a new add view model
func NewAddModel(svc Services) *AddModel {
	return &AddModel{
		svc: svc,
		form: NewInputForm(
			NewInputField("Script URL", "https://example.com/my-plugin.user.js", 500),
			NewInputField("File name (optional)", "derived from the URL", 100),
		),
	}
}

// Init initializes the add view
func (m *AddModel) Init() tea.Cmd {
	return m.form.Init()
}

// Reset clears the form for a new entry
func (m *AddModel) Reset() {
	m.form.Reset()
	m.ClearMessage()
	m.busy = false
}

// AddSuccessMsg is sent after a plugin was added
type AddSuccessMsg struct {
	Message string
	Path    string
}

type addErrMsg struct {
	err error
}

// Update handles messages for the add view
func (m *AddModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case addErrMsg:
		m.busy = false
		m.SetMessage(msg.err.Error(), true)
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.form.Keys.Cancel):
			return m, func() tea.Msg { return SwitchToListMsg{} }
		case key.Matches(msg, m.form.Keys.Submit):
			m.busy = true
			m.SetMessage("Downloading...", false)
			return m, m.submit(m.form.Value(addFieldURL), m.form.Value(addFieldFilename))
		}
	}

	_, cmd := m.form.Update(msg)
	return m, cmd
}

func (m *AddModel) submit(url, filename string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		cmd := commands.NewAddPluginCommand(svc.Catalog, svc.Folder, svc.Installer, svc.Logger)
		cmd.URL = url
		cmd.Filename = filename
		cmd.Claims = svc.Updater.Claims()
		result, err := cmd.Execute(context.Background())
		if err != nil {
			return addErrMsg{err}
		}
		return AddSuccessMsg{Message: result.Message, Path: result.Path}
	}
}

// View renders the add view
func (m *AddModel) View() string {
	return newScreen("Add plugin").
		sub("The script is installed into the external plugin folder").
		line(m.form.RenderField(addFieldURL)).
		gap().
		line(m.form.RenderField(addFieldFilename)).
		status(m.Message, m.MessageErr).
		helpText(m.form.RenderHelp("add")).
		String()
}
