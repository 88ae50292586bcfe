package domain

import (
	"regexp"
	"strings"
)

// Category is a plugin category. Known values come from DefaultCategories;
// any other value is a customized category carrying the raw string.
type Category struct {
	value string
}

// Default categories used by the distribution site
var (
	CategoryCache       = Category{"Cache"}
	CategoryControls    = Category{"Controls"}
	CategoryDebug       = Category{"Debug"}
	CategoryDraw        = Category{"Draw"}
	CategoryHighlighter = Category{"Highlighter"}
	CategoryInfo        = Category{"Info"}
	CategoryLayer       = Category{"Layer"}
	CategoryMapTiles    = Category{"Map Tiles"}
	CategoryMisc        = Category{"Misc"}
	CategoryPortalInfo  = Category{"Portal Info"}
	CategoryTweaks      = Category{"Tweaks"}
)

// DefaultCategories lists the closed set of categories in display order
var DefaultCategories = []Category{
	CategoryCache,
	CategoryControls,
	CategoryDebug,
	CategoryDraw,
	CategoryHighlighter,
	CategoryInfo,
	CategoryLayer,
	CategoryMapTiles,
	CategoryMisc,
	CategoryPortalInfo,
	CategoryTweaks,
}

// ParseCategory maps a raw header value to a Category. It never fails.
func ParseCategory(raw string) Category {
	return Category{value: raw}
}

// String returns the raw category value
func (c Category) String() string {
	return c.value
}

// IsCustomized reports whether the category is outside the default set
func (c Category) IsCustomized() bool {
	for _, d := range DefaultCategories {
		if c == d {
			return false
		}
	}
	return true
}

// displayPrefix matches the conventional "IITC Plugin:" name prefix
var displayPrefix = regexp.MustCompile(`(?i)^ *IITC +Plugin: *`)

// Plugin is a catalog record for one userscript
type Plugin struct {
	Handle      string // Opaque stable identity for presentation layers
	Identifier  string // Declared @id
	Filename    string // Base name without .user.js
	Internal    bool
	Enabled     bool
	Name        string
	Author      string
	Description string
	Version     string // Empty means never synced
	Category    Category
	DownloadURL string
	UpdateURL   string
}

// DisplayName returns the name without the "IITC Plugin:" prefix
func (p *Plugin) DisplayName() string {
	return displayPrefix.ReplaceAllString(p.Name, "")
}

// FilenameWithExtension returns the on-disk file name
func (p *Plugin) FilenameWithExtension() string {
	return p.Filename + UserScriptSuffix
}

// NewPlugin creates a disabled record from plugin metadata
func NewPlugin(meta PluginMetadata, internal bool, filename string) *Plugin {
	p := &Plugin{
		Internal: internal,
		Filename: filename,
	}
	p.Apply(meta)
	return p
}

// Apply copies metadata-derived fields onto the record. Enabled, Handle,
// Internal and Filename are left untouched. URLs are only replaced when the
// metadata carries one.
func (p *Plugin) Apply(meta PluginMetadata) {
	p.Identifier = meta.ID
	p.Name = meta.Name
	p.Category = meta.Category
	p.Author = meta.Author
	p.Description = meta.Description
	p.Version = meta.Version
	if meta.DownloadURL != "" {
		p.DownloadURL = meta.DownloadURL
	}
	if meta.UpdateURL != "" {
		p.UpdateURL = meta.UpdateURL
	}
}

// Filter selects plugins from the catalog. Zero values match everything.
type Filter struct {
	Internal *bool
	Enabled  *bool
	Category string
	Query    string // Case-insensitive substring of name or identifier
}

// Matches reports whether p satisfies the filter
func (f Filter) Matches(p *Plugin) bool {
	if f.Internal != nil && p.Internal != *f.Internal {
		return false
	}
	if f.Enabled != nil && p.Enabled != *f.Enabled {
		return false
	}
	if f.Category != "" && !strings.EqualFold(p.Category.String(), f.Category) {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Identifier), q) {
			return false
		}
	}
	return true
}

// BoolPtr returns a pointer to b, for building filters
func BoolPtr(b bool) *bool {
	return &b
}

// Partition selects the internal or external namespace of the catalog.
// Internal records are keyed by filename, external records by identifier.
type Partition int

const (
	PartitionInternal Partition = iota
	PartitionExternal
)

// String returns the string representation of a Partition
func (p Partition) String() string {
	if p == PartitionInternal {
		return "internal"
	}
	return "external"
}
