package application

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common conditions
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNoExternalFolder = errors.New("external folder not configured")
	ErrAccessDenied     = errors.New("access denied")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// TransportError represents a fetch that completed with a non-success status
type TransportError struct {
	URL        string
	StatusCode int
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("HTTP %d %s from %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// FileSystemError represents a failed create, move or remove
type FileSystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error {
	return e.Err
}

// ResourceAccessError represents an external folder that cannot be accessed
type ResourceAccessError struct {
	Path string
	Err  error
}

func (e *ResourceAccessError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("external folder: %v", e.Err)
	}
	return fmt.Sprintf("external folder %s: %v", e.Path, e.Err)
}

func (e *ResourceAccessError) Unwrap() error {
	return e.Err
}

func (e *ResourceAccessError) Is(target error) bool {
	return target == ErrAccessDenied
}
