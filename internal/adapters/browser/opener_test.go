package browser

import (
	"runtime"
	"testing"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		wantURL string
		wantErr bool
	}{
		{
			name:    "https URL",
			target:  "https://intel.ingress.com/intel",
			wantURL: "https://intel.ingress.com/intel",
		},
		{
			name:    "http URL with query",
			target:  "http://example.com/plugin.user.js?v=2",
			wantURL: "http://example.com/plugin.user.js?v=2",
		},
		{
			name:    "empty target",
			target:  "",
			wantErr: true,
		},
		{
			name:    "javascript scheme",
			target:  "javascript:alert(1)",
			wantErr: true,
		},
		{
			name:    "missing host",
			target:  "https:///path",
			wantErr: true,
		},
		{
			name:    "relative path",
			target:  "plugins/foo.user.js",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildURL(tt.target)
			if (err != nil) != tt.wantErr {
				t.Fatalf("BuildURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.wantURL {
				t.Errorf("BuildURL() = %q, want %q", got, tt.wantURL)
			}
		})
	}
}

func TestBuildURL_LocalScript(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}
	got, err := BuildURL("/home/agent/plugins/My Plugin.user.js")
	if err != nil {
		t.Fatalf("BuildURL() error = %v", err)
	}
	if want := "file:///home/agent/plugins/My%20Plugin.user.js"; got != want {
		t.Errorf("BuildURL() = %q, want %q", got, want)
	}
}

func TestCommand_UnsupportedOS(t *testing.T) {
	o := &Opener{goos: "plan9"}
	if _, err := o.command("https://example.com"); err == nil {
		t.Error("expected error for unsupported OS")
	}
}

func TestCommand_PerOS(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"darwin", "open"},
		{"linux", "xdg-open"},
		{"windows", "rundll32"},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			cmd, err := (&Opener{goos: tt.goos}).command("https://example.com")
			if err != nil {
				t.Fatalf("command() error = %v", err)
			}
			if cmd.Args[0] != tt.want {
				t.Errorf("command = %q, want %q", cmd.Args[0], tt.want)
			}
		})
	}
}
