package domain

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// HeaderOpening marks the start of a userscript header block
	HeaderOpening = "// ==UserScript=="
	// HeaderClosing marks the end of a userscript header block
	HeaderClosing = "// ==/UserScript=="
)

// headerLinePattern matches a trimmed "// @key value" line
var headerLinePattern = regexp.MustCompile(`^//\s*@(\S+)\s+(.+?)\s*$`)

// SyntaxPart identifies which part of a header block is malformed
type SyntaxPart int

const (
	PartOpening SyntaxPart = iota
	PartClosing
	PartConfiguration
)

// String returns the string representation of a SyntaxPart
func (p SyntaxPart) String() string {
	switch p {
	case PartOpening:
		return "opening"
	case PartClosing:
		return "closing"
	case PartConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// SyntaxError reports a malformed header block. Line is set for
// PartConfiguration and holds the offending line.
type SyntaxError struct {
	Part SyntaxPart
	Line string
}

func (e *SyntaxError) Error() string {
	switch e.Part {
	case PartOpening:
		return "userscript header: missing opening marker"
	case PartClosing:
		return "userscript header: missing closing marker"
	default:
		return fmt.Sprintf("userscript header: malformed line %q", e.Line)
	}
}

// Header is the key/value content of a userscript header block
type Header map[string]string

// ParseHeader extracts the header block from script content.
// Repeated keys keep the last value.
func ParseHeader(content string) (Header, error) {
	start := strings.Index(content, HeaderOpening)
	if start < 0 {
		return nil, &SyntaxError{Part: PartOpening}
	}
	body := content[start+len(HeaderOpening):]

	end := strings.Index(body, HeaderClosing)
	if end < 0 {
		return nil, &SyntaxError{Part: PartClosing}
	}
	body = body[:end]

	header := make(Header)
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		match := headerLinePattern.FindStringSubmatch(trimmed)
		if match == nil {
			// Report the line as written, minus a CRLF line ending
			return nil, &SyntaxError{Part: PartConfiguration, Line: strings.TrimRight(line, "\r")}
		}
		header[match[1]] = match[2]
	}

	return header, nil
}

// Get returns the value for key and whether it was present
func (h Header) Get(key string) (string, bool) {
	v, ok := h[key]
	return v, ok
}

// Value returns the value for key, or an empty string
func (h Header) Value(key string) string {
	return h[key]
}

// PluginEligible reports whether the header declares both an id and a category.
// Only eligible scripts may become catalog entries.
func (h Header) PluginEligible() bool {
	_, hasID := h["id"]
	_, hasCategory := h["category"]
	return hasID && hasCategory
}

// HeaderField is one rendered "// @key value" line
type HeaderField struct {
	Key   string
	Value string
}

// RenderHeader renders fields as a well-formed header block.
// Fields with an empty value are omitted.
func RenderHeader(fields []HeaderField) string {
	var b strings.Builder
	b.WriteString(HeaderOpening)
	b.WriteString("\n")
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		fmt.Fprintf(&b, "// @%s %s\n", f.Key, f.Value)
	}
	b.WriteString(HeaderClosing)
	b.WriteString("\n")
	return b.String()
}
