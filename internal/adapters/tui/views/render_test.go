package views

import (
	"strings"
	"testing"
	"time"

	"intelstack/internal/domain"
)

func TestScreen_SectionOrder(t *testing.T) {
	out := newScreen("Update").
		sub("subtitle").
		line("body").
		gap().
		gap().
		status("done", false).
		helpText("esc back").
		String()

	order := []string{"Update", "subtitle", "body", "done", "esc back"}
	last := -1
	for _, part := range order {
		i := strings.Index(out, part)
		if i < 0 {
			t.Fatalf("missing %q in %q", part, out)
		}
		if i < last {
			t.Errorf("%q rendered out of order", part)
		}
		last = i
	}
}

func TestScreen_GapCollapses(t *testing.T) {
	s := newScreen("Title").gap().line("a").gap().gap().line("b")
	want := []string{"a", "", "b"}
	if len(s.body) != len(want) {
		t.Fatalf("body = %q, want %q", s.body, want)
	}
	for i := range want {
		if s.body[i] != want[i] {
			t.Errorf("body[%d] = %q, want %q", i, s.body[i], want[i])
		}
	}
}

func TestRenderPluginRow(t *testing.T) {
	p := &domain.Plugin{Name: "IITC plugin: Bookmarks", Internal: true, Enabled: true, Version: "0.4.0"}
	row := renderPluginRow(pluginRow{plugin: p}, false)
	for _, want := range []string{"int", "[x]", "Bookmarks", "0.4.0"} {
		if !strings.Contains(row, want) {
			t.Errorf("row %q missing %q", row, want)
		}
	}

	unversioned := renderPluginRow(pluginRow{plugin: &domain.Plugin{Name: "Draft"}}, false)
	if !strings.Contains(unversioned, "ext") || !strings.Contains(unversioned, "[ ]") || !strings.HasSuffix(unversioned, "-") {
		t.Errorf("unversioned external row = %q", unversioned)
	}

	header := renderPluginRow(pluginRow{group: &pluginGroup{Category: "Layer", Plugins: []*domain.Plugin{p}}}, false)
	if !strings.Contains(header, "Layer (1)") {
		t.Errorf("header = %q", header)
	}
}

func TestRenderCommunityRow(t *testing.T) {
	cp := &domain.CommunityPlugin{
		Author:       "alice",
		Status:       domain.CommunityOutdated,
		AntiFeatures: []string{"scraper"},
		Metadata:     domain.PluginMetadata{Name: "Zoom", Version: "1.3.0"},
	}
	row := renderCommunityRow(cp, false)
	for _, want := range []string{"[outdated]", "Zoom", "alice", "1.3.0", "scraper"} {
		if !strings.Contains(row, want) {
			t.Errorf("row %q missing %q", row, want)
		}
	}
}

func TestReportLines(t *testing.T) {
	lines := reportLines(&domain.RunReport{Installed: 2, UpToDate: 5, Duration: 1500 * time.Millisecond})
	if len(lines) != 3 {
		t.Fatalf("lines = %q, want updated, up to date and duration only", lines)
	}
	if !strings.Contains(lines[2], "1.5s") {
		t.Errorf("duration line = %q", lines[2])
	}

	lines = reportLines(&domain.RunReport{Missing: 1, Failed: 2})
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "Missing: 1") || !strings.Contains(joined, "Failed: 2") {
		t.Errorf("lines = %q", joined)
	}
}
