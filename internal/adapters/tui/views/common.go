package views

import (
	"log/slog"

	"intelstack/internal/application/commands"
	"intelstack/internal/ports"
)

// Services are the wired ports and commands the views drive
type Services struct {
	Catalog   ports.Catalog
	Storage   ports.ScriptStorage
	Folder    ports.ExternalFolder
	Settings  ports.FolderSettings
	Installer ports.Installer
	Community ports.CommunityIndex
	Updater   *commands.Updater
	Metrics   ports.Metrics
	Browser   ports.URLOpener
	Logger    *slog.Logger
}

// ViewState contains common state shared by all view models.
// Embed this struct in view models to get width/height and message handling.
type ViewState struct {
	Width      int
	Height     int
	Message    string
	MessageErr bool
}

// SetSize updates the view dimensions
func (s *ViewState) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// SetMessage sets a message to display in the view
func (s *ViewState) SetMessage(msg string, isErr bool) {
	s.Message = msg
	s.MessageErr = isErr
}

// ClearMessage clears the current message
func (s *ViewState) ClearMessage() {
	s.Message = ""
	s.MessageErr = false
}

// Messages for view switching
type (
	SwitchToListMsg      struct{}
	SwitchToHelpMsg      struct{}
	SwitchToAddMsg       struct{}
	SwitchToCommunityMsg struct{}
	SwitchToUpdateMsg    struct{}
)

// OpenEditorMsg asks the app to open path in the editor. Release, when set,
// is called once the editor exits.
type OpenEditorMsg struct {
	Path    string
	Release func()
}

type errMsg struct {
	err error
}

type successMsg struct {
	message string
}
