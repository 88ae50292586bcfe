package domain

import "fmt"

// DecodeErrorKind classifies a projection failure
type DecodeErrorKind int

const (
	KeyNotFound DecodeErrorKind = iota
	TypeMismatch
)

// DecodeError reports a well-formed header that lacks a required field or
// carries a value that cannot be converted.
type DecodeError struct {
	Kind DecodeErrorKind
	Key  string
}

func (e *DecodeError) Error() string {
	if e.Kind == TypeMismatch {
		return fmt.Sprintf("userscript header: type mismatch for key %q", e.Key)
	}
	return fmt.Sprintf("userscript header: key %q not found", e.Key)
}

// MainScriptMetadata is the header projection of the main script
type MainScriptMetadata struct {
	Name        string
	Description string
	Version     string
}

// PluginMetadata is the header projection of a plugin
type PluginMetadata struct {
	ID          string
	Name        string
	Category    Category
	Author      string
	Description string
	Version     string
	DownloadURL string
	UpdateURL   string
	HomepageURL string
}

// VersionProbe is the minimal projection read from a .meta.js sidecar
type VersionProbe struct {
	Version string
}

func requireKey(h Header, key string) (string, error) {
	v, ok := h[key]
	if !ok {
		return "", &DecodeError{Kind: KeyNotFound, Key: key}
	}
	return v, nil
}

// DecodeMainScript projects a header into MainScriptMetadata
func DecodeMainScript(h Header) (MainScriptMetadata, error) {
	name, err := requireKey(h, "name")
	if err != nil {
		return MainScriptMetadata{}, err
	}
	version, err := requireKey(h, "version")
	if err != nil {
		return MainScriptMetadata{}, err
	}
	return MainScriptMetadata{
		Name:        name,
		Description: h.Value("description"),
		Version:     version,
	}, nil
}

// DecodePlugin projects a header into PluginMetadata
func DecodePlugin(h Header) (PluginMetadata, error) {
	id, err := requireKey(h, "id")
	if err != nil {
		return PluginMetadata{}, err
	}
	name, err := requireKey(h, "name")
	if err != nil {
		return PluginMetadata{}, err
	}
	category, err := requireKey(h, "category")
	if err != nil {
		return PluginMetadata{}, err
	}
	return PluginMetadata{
		ID:          id,
		Name:        name,
		Category:    ParseCategory(category),
		Author:      h.Value("author"),
		Description: h.Value("description"),
		Version:     h.Value("version"),
		DownloadURL: h.Value("downloadURL"),
		UpdateURL:   h.Value("updateURL"),
		HomepageURL: h.Value("homepageURL"),
	}, nil
}

// DecodeVersionProbe projects a header into VersionProbe
func DecodeVersionProbe(h Header) (VersionProbe, error) {
	version, err := requireKey(h, "version")
	if err != nil {
		return VersionProbe{}, err
	}
	return VersionProbe{Version: version}, nil
}

// ParseMainScript parses content and projects it into MainScriptMetadata
func ParseMainScript(content string) (MainScriptMetadata, error) {
	h, err := ParseHeader(content)
	if err != nil {
		return MainScriptMetadata{}, err
	}
	return DecodeMainScript(h)
}

// ParsePlugin parses content and projects it into PluginMetadata
func ParsePlugin(content string) (PluginMetadata, error) {
	h, err := ParseHeader(content)
	if err != nil {
		return PluginMetadata{}, err
	}
	return DecodePlugin(h)
}

// ParseVersionProbe parses content and projects it into VersionProbe
func ParseVersionProbe(content string) (VersionProbe, error) {
	h, err := ParseHeader(content)
	if err != nil {
		return VersionProbe{}, err
	}
	return DecodeVersionProbe(h)
}

// Fields returns the header fields of the main script metadata
func (m MainScriptMetadata) Fields() []HeaderField {
	return []HeaderField{
		{Key: "name", Value: m.Name},
		{Key: "description", Value: m.Description},
		{Key: "version", Value: m.Version},
	}
}

// Fields returns the header fields of the plugin metadata
func (m PluginMetadata) Fields() []HeaderField {
	return []HeaderField{
		{Key: "id", Value: m.ID},
		{Key: "name", Value: m.Name},
		{Key: "category", Value: m.Category.String()},
		{Key: "author", Value: m.Author},
		{Key: "description", Value: m.Description},
		{Key: "version", Value: m.Version},
		{Key: "downloadURL", Value: m.DownloadURL},
		{Key: "updateURL", Value: m.UpdateURL},
		{Key: "homepageURL", Value: m.HomepageURL},
	}
}
