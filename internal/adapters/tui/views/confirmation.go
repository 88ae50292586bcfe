package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"intelstack/internal/adapters/tui/styles"
)

// ConfirmKeyMap defines key bindings for confirmation prompts
type ConfirmKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultConfirmKeys returns the default confirmation key bindings
var DefaultConfirmKeys = ConfirmKeyMap{
	Confirm: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "esc"),
		key.WithHelp("n/esc", "cancel"),
	),
}

// ConfirmationModel is a yes/no prompt about one target
type ConfirmationModel struct {
	Target string
	Action string
	Keys   ConfirmKeyMap
}

// NewConfirmationModel creates a new confirmation model with default keys
func NewConfirmationModel() ConfirmationModel {
	return ConfirmationModel{
		Keys: DefaultConfirmKeys,
	}
}

// Ask arms the prompt
func (m *ConfirmationModel) Ask(action, target string) {
	m.Action = action
	m.Target = target
}

// Active reports whether a prompt is pending
func (m *ConfirmationModel) Active() bool {
	return m.Target != ""
}

// Clear dismisses the prompt
func (m *ConfirmationModel) Clear() {
	m.Action = ""
	m.Target = ""
}

// HandleKeyMsg processes key messages for confirmation views.
// Returns (handled, cmd) where handled is true if the key was processed.
func (m *ConfirmationModel) HandleKeyMsg(msg tea.KeyMsg, onConfirm, onCancel func() tea.Msg) (bool, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Cancel):
		m.Clear()
		return true, func() tea.Msg { return onCancel() }
	case key.Matches(msg, m.Keys.Confirm):
		m.Clear()
		return true, func() tea.Msg { return onConfirm() }
	}
	return true, nil
}

// View renders the target and the prompt
func (m *ConfirmationModel) View() string {
	var b strings.Builder
	b.WriteString(styles.InputLabel.Render(m.Action + ":"))
	b.WriteString("\n  ")
	b.WriteString(m.Target)
	b.WriteString("\n\n")
	b.WriteString(RenderConfirmPrompt("Continue?"))
	return b.String()
}

// RenderConfirmPrompt renders the standard confirmation prompt
func RenderConfirmPrompt(question string) string {
	var b strings.Builder
	b.WriteString(question)
	b.WriteString(" ")
	b.WriteString(styles.HelpKey.Render("y"))
	b.WriteString(styles.HelpDesc.Render(" to confirm, "))
	b.WriteString(styles.HelpKey.Render("n"))
	b.WriteString(styles.HelpDesc.Render(" to cancel"))
	return b.String()
}
