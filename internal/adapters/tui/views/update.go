package views

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"intelstack/internal/application/commands"
	"intelstack/internal/domain"
)

// UpdateKeyMap defines key bindings for the update view
type UpdateKeyMap struct {
	Cancel key.Binding
	Back   key.Binding
}

var UpdateKeys = UpdateKeyMap{
	Cancel: key.NewBinding(
		key.WithKeys("ctrl+c", "x"),
		key.WithHelp("x", "cancel update"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "enter", "q"),
		key.WithHelp("esc", "back"),
	),
}

// UpdateModel runs an update and shows its progress
type UpdateModel struct {
	ViewState
	updater *commands.Updater
	bar     progress.Model

	running bool
	snap    commands.ProgressSnapshot
	report  *domain.RunReport
	cancel  context.CancelFunc
	snaps   <-chan commands.ProgressSnapshot
	unsub   func()
}

// NewUpdateModel creates a new update view model
func NewUpdateModel(updater *commands.Updater) *UpdateModel {
	return &UpdateModel{
		updater: updater,
		bar:     progress.New(progress.WithDefaultGradient()),
	}
}

type progressMsg commands.ProgressSnapshot

type updateDoneMsg struct {
	report *domain.RunReport
	err    error
}

// Start launches a run unless one is already shown
func (m *UpdateModel) Start() tea.Cmd {
	if m.running {
		return nil
	}
	m.ClearMessage()
	m.report = nil
	m.snap = commands.ProgressSnapshot{}
	m.running = true

	ch, unsub := m.updater.Progress().Subscribe()
	m.snaps = ch
	m.unsub = unsub
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	updater := m.updater
	run := func() tea.Msg {
		report, err := updater.RunUpdate(ctx)
		return updateDoneMsg{report: report, err: err}
	}
	return tea.Batch(run, waitForProgress(ch), m.bar.SetPercent(0))
}

func waitForProgress(ch <-chan commands.ProgressSnapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return progressMsg(snap)
	}
}

// Init initializes the update view
func (m *UpdateModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the update view
func (m *UpdateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		m.bar.Width = max(msg.Width-8, 10)
		return m, nil

	case progressMsg:
		if !m.running {
			return m, nil
		}
		snap := commands.ProgressSnapshot(msg)
		cmds := []tea.Cmd{m.nextProgress()}
		// A zero total is the reset at the end of the run
		if snap.Total > 0 {
			m.snap = snap
			cmds = append(cmds, m.bar.SetPercent(snap.Fraction()))
		}
		return m, tea.Batch(cmds...)

	case progress.FrameMsg:
		pm, cmd := m.bar.Update(msg)
		m.bar = pm.(progress.Model)
		return m, cmd

	case updateDoneMsg:
		m.finish()
		m.report = msg.report
		switch {
		case msg.report != nil && msg.report.Skipped:
			m.SetMessage("An update is already running", true)
		case msg.err != nil:
			m.SetMessage(msg.err.Error(), true)
		default:
			m.SetMessage("Update complete", false)
		}
		return m, m.bar.SetPercent(1)

	case tea.KeyMsg:
		if m.running {
			if key.Matches(msg, UpdateKeys.Cancel) {
				m.cancel()
				m.SetMessage("Cancelling...", false)
			}
			return m, nil
		}
		if key.Matches(msg, UpdateKeys.Back) {
			return m, func() tea.Msg { return SwitchToListMsg{} }
		}
	}
	return m, nil
}

// nextProgress keeps listening while the subscription is open
func (m *UpdateModel) nextProgress() tea.Cmd {
	return waitForProgress(m.snaps)
}

func (m *UpdateModel) finish() {
	m.running = false
	if m.cancel != nil {
		m.cancel()
	}
	if m.unsub != nil {
		m.unsub()
	}
}

// Running reports whether the view is waiting on a run
func (m *UpdateModel) Running() bool {
	return m.running
}

// View renders the update view
func (m *UpdateModel) View() string {
	s := newScreen("Update")

	if m.running {
		s.sub(fmt.Sprintf("%d of %d scripts checked", m.snap.Completed, m.snap.Total))
	} else {
		s.sub("Main script, bundled plugins and external plugins")
	}
	s.line(m.bar.View())

	if r := m.report; r != nil && !r.Skipped {
		s.gap()
		for _, l := range reportLines(r) {
			s.line(l)
		}
	}

	s.status(m.Message, m.MessageErr)
	if m.running {
		s.keys(UpdateKeys.Cancel)
	} else {
		s.keys(UpdateKeys.Back)
	}
	return s.String()
}
