package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"intelstack/internal/adapters/tui/styles"
	"intelstack/internal/domain"
)

// screen collects the sections of a view. String lays them out as title,
// subtitle, body, status message and key help.
type screen struct {
	title    string
	subtitle string
	body     []string
	message  string
	msgErr   bool
	help     string
}

func newScreen(title string) *screen {
	return &screen{title: title}
}

func (s *screen) sub(text string) *screen {
	s.subtitle = text
	return s
}

func (s *screen) line(text string) *screen {
	s.body = append(s.body, text)
	return s
}

// gap separates body sections with an empty line
func (s *screen) gap() *screen {
	if n := len(s.body); n > 0 && s.body[n-1] != "" {
		s.body = append(s.body, "")
	}
	return s
}

func (s *screen) muted(text string) *screen {
	return s.line(styles.MutedText.Render(text))
}

func (s *screen) status(message string, isErr bool) *screen {
	s.message, s.msgErr = message, isErr
	return s
}

func (s *screen) keys(bindings ...key.Binding) *screen {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, styles.HelpKey.Render(h.Key)+" "+styles.HelpDesc.Render(h.Desc))
	}
	s.help = strings.Join(parts, styles.HelpSeparator.String())
	return s
}

// helpText replaces the key help with prerendered text
func (s *screen) helpText(text string) *screen {
	s.help = text
	return s
}

func (s *screen) String() string {
	sections := []string{styles.Title.Render(s.title)}
	if s.subtitle != "" {
		sections = append(sections, styles.Subtitle.Render(s.subtitle))
	}
	if body := strings.TrimRight(strings.Join(s.body, "\n"), "\n"); body != "" {
		sections = append(sections, body)
	}
	if msg := RenderMessage(s.message, s.msgErr); msg != "" {
		sections = append(sections, msg)
	}
	if s.help != "" {
		sections = append(sections, s.help)
	}
	return styles.App.Render(strings.Join(sections, "\n\n"))
}

// RenderMessage renders a status message in error or success style
func RenderMessage(message string, isError bool) string {
	if message == "" {
		return ""
	}
	if isError {
		return styles.ErrorMsg.Render(message)
	}
	return styles.Success.Render(message)
}

// renderVersion renders a plugin version, or a dash for unversioned scripts
func renderVersion(version string) string {
	if version == "" {
		return styles.Version.Render("-")
	}
	return styles.Version.Render(version)
}

func renderPartitionBadge(internal bool) string {
	label := "ext"
	if internal {
		label = "int"
	}
	return lipgloss.NewStyle().Foreground(styles.PartitionColor(internal)).Render(label)
}

// renderCommunityBadge pads every status to the same width so names line up
func renderCommunityBadge(status domain.CommunityStatus) string {
	switch status {
	case domain.CommunityAdded:
		return styles.BadgeAdded.Render("[added]   ")
	case domain.CommunityOutdated:
		return styles.BadgeOutdated.Render("[outdated]")
	default:
		return styles.MutedText.Render("[new]     ")
	}
}

func renderGroupHeader(g *pluginGroup, selected bool) string {
	prefix := styles.TreeCollapsed
	if g.Expanded {
		prefix = styles.TreeExpanded
	}
	text := fmt.Sprintf("%s (%d)", g.Category, len(g.Plugins))
	if selected {
		return styles.TreeBranch.Render(prefix) + styles.RowSelected.Render(text)
	}
	return styles.TreeBranch.Render(prefix) + styles.GroupHeader.Render(text)
}

func renderPluginRow(row pluginRow, selected bool) string {
	if row.plugin == nil {
		return renderGroupHeader(row.group, selected)
	}

	p := row.plugin
	check, style := styles.CheckOff, styles.PluginDisabled
	if p.Enabled {
		check, style = styles.CheckOn, styles.PluginEnabled
	}
	text := check + p.DisplayName()
	if selected {
		text = styles.RowSelected.Render(text)
	} else {
		text = style.Render(text)
	}
	return fmt.Sprintf("    %s %s %s", renderPartitionBadge(p.Internal), text, renderVersion(p.Version))
}

func renderCommunityRow(cp *domain.CommunityPlugin, selected bool) string {
	text := fmt.Sprintf("%s  %s", cp.Metadata.Name, cp.Author)
	if selected {
		text = styles.RowSelected.Render(text)
	}
	line := fmt.Sprintf("%s %s %s", renderCommunityBadge(cp.Status), text, renderVersion(cp.Metadata.Version))
	if len(cp.AntiFeatures) > 0 {
		line += styles.ErrorMsg.Render(" ! " + strings.Join(cp.AntiFeatures, ","))
	}
	return line
}

// reportLines summarizes a finished update run. Zero missing and failed
// counts are left out.
func reportLines(r *domain.RunReport) []string {
	label := func(name string, value any) string {
		return fmt.Sprintf("%s %v", styles.InputLabel.Render(name+":"), value)
	}
	lines := []string{
		label("Updated", r.Installed),
		label("Up to date", r.UpToDate),
	}
	if r.Missing > 0 {
		lines = append(lines, label("Missing", r.Missing))
	}
	if r.Failed > 0 {
		lines = append(lines, styles.ErrorMsg.Render(fmt.Sprintf("Failed: %d", r.Failed)))
	}
	return append(lines, label("Took", r.Duration.Round(10*time.Millisecond)))
}
