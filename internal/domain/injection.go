package domain

import "encoding/json"

type gmInfo struct {
	Script gmScript `json:"script"`
}

type gmScript struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Version     *string `json:"version,omitempty"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// WrapCode wraps script code in a closure that exposes a GM_info object
// describing the script, the shape userscript managers provide.
func WrapCode(code, name, description, version string) string {
	info, err := json.Marshal(gmInfo{Script: gmScript{
		Name:        name,
		Description: optional(description),
		Version:     optional(version),
	}})
	if err != nil {
		return "(function() { \n" + code + "\n })();"
	}
	return "(function() { const GM_info = " + string(info) + "; (function() { \n" + code + "\n })(); })();"
}

// WrapPlugin wraps plugin code using the record's metadata
func WrapPlugin(code string, p *Plugin) string {
	return WrapCode(code, p.Name, p.Description, p.Version)
}

// WrapMainScript wraps main script code using its metadata
func WrapMainScript(code string, meta MainScriptMetadata) string {
	return WrapCode(code, meta.Name, meta.Description, meta.Version)
}
