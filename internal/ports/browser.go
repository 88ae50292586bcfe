package ports

// URLOpener hands a URL to the desktop's default browser
type URLOpener interface {
	// OpenURL opens an http(s) URL or an absolute local script path
	OpenURL(target string) error
}
