package application

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", formatFieldName(fieldName)),
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for more readable error messages (e.g., "downloadURL" -> "download URL")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"downloadURL": "download URL",
		"updateURL":   "update URL",
		"url":         "URL",
		"handle":      "handle",
		"filename":    "filename",
		"code":        "code",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}
	return fieldName
}

// NormalizeScriptURL parses a user supplied script URL, adding an https
// scheme when none is given. Only http and https URLs are accepted.
func NormalizeScriptURL(fieldName, raw string) (*url.URL, error) {
	if err := ValidateRequired(fieldName, raw); err != nil {
		return nil, err
	}
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("invalid %s: %s", formatFieldName(fieldName), raw),
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("unsupported scheme %q", u.Scheme),
		}
	}
	return u, nil
}
