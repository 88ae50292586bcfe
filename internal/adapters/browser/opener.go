package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"runtime"

	"intelstack/internal/ports"
)

// Opener implements ports.URLOpener
type Opener struct {
	goos string
}

// Ensure Opener implements URLOpener
var _ ports.URLOpener = (*Opener)(nil)

// NewOpener creates an opener for the running operating system
func NewOpener() *Opener {
	return &Opener{goos: runtime.GOOS}
}

// OpenURL opens target in the default browser. Local scripts are opened as
// file:// URLs so a userscript manager can offer to install them.
func (o *Opener) OpenURL(target string) error {
	u, err := BuildURL(target)
	if err != nil {
		return err
	}
	cmd, err := o.command(u)
	if err != nil {
		return err
	}
	return cmd.Run()
}

// BuildURL validates target and returns the URL to open
func BuildURL(target string) (string, error) {
	if target == "" {
		return "", fmt.Errorf("nothing to open")
	}
	if filepath.IsAbs(target) {
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(target)}).String(), nil
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("refusing to open %q: only http and https URLs are allowed", target)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid URL: missing host in %q", target)
	}
	return u.String(), nil
}

func (o *Opener) command(uri string) (*exec.Cmd, error) {
	switch o.goos {
	case "darwin":
		return exec.Command("open", uri), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", uri), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", uri), nil
	default:
		return nil, fmt.Errorf("unsupported operating system: %s", o.goos)
	}
}
