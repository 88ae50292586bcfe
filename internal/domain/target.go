package domain

// TargetKind tags an UpdateTarget
type TargetKind int

const (
	TargetMainScript TargetKind = iota
	TargetInternalPlugin
	TargetExternalPlugin
)

// String returns the string representation of a TargetKind
func (k TargetKind) String() string {
	switch k {
	case TargetMainScript:
		return "main"
	case TargetInternalPlugin:
		return "internal"
	case TargetExternalPlugin:
		return "external"
	default:
		return "unknown"
	}
}

// UpdateTarget is one unit of work in an update run
type UpdateTarget struct {
	Kind            TargetKind
	Filename        string // Main script and internal plugins
	Identifier      string // External plugins
	CurrentVersion  string // Empty when unknown
	UpdateURL       string // External probe, optional
	DownloadURL     string // External content
	DestinationPath string // External file in the user folder
}

// Key returns a label identifying the target in logs and metrics
func (t UpdateTarget) Key() string {
	switch t.Kind {
	case TargetExternalPlugin:
		return t.Identifier
	default:
		return t.Filename
	}
}

// MainScriptTarget returns the main script target
func MainScriptTarget(currentVersion string) UpdateTarget {
	return UpdateTarget{
		Kind:           TargetMainScript,
		Filename:       MainScriptFilename,
		CurrentVersion: currentVersion,
	}
}

// InternalTarget returns a target for a manifest plugin
func InternalTarget(filename, currentVersion string) UpdateTarget {
	return UpdateTarget{
		Kind:           TargetInternalPlugin,
		Filename:       filename,
		CurrentVersion: currentVersion,
	}
}

// ExternalTarget returns a target for an external record, or false when the
// record is not eligible for remote updates. When no download URL is known
// the update URL doubles as the content URL.
func ExternalTarget(p *Plugin, destinationPath string) (UpdateTarget, bool) {
	if p.Internal || p.Version == "" {
		return UpdateTarget{}, false
	}
	download := p.DownloadURL
	if download == "" {
		download = p.UpdateURL
	}
	if download == "" {
		return UpdateTarget{}, false
	}
	return UpdateTarget{
		Kind:            TargetExternalPlugin,
		Filename:        p.Filename,
		Identifier:      p.Identifier,
		CurrentVersion:  p.Version,
		UpdateURL:       p.UpdateURL,
		DownloadURL:     download,
		DestinationPath: destinationPath,
	}, true
}
